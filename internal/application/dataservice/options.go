package dataservice

type writeOptions struct {
	commit  bool
	actorID string
}

// WriteOption tunes a single mutation.
type WriteOption func(*writeOptions)

// WithCommit commits the unit of work right after staging the change.
func WithCommit() WriteOption {
	return func(o *writeOptions) { o.commit = true }
}

// WithActor attributes an immediate commit to actorID.
func WithActor(actorID string) WriteOption {
	return func(o *writeOptions) { o.actorID = actorID }
}

func collect(opts []WriteOption) writeOptions {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

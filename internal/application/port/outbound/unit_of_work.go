package outbound

import (
	"context"
	"time"
)

// UnitOfWork stages writes from every repository obtained through it and
// flushes them in one store transaction on commit. Not safe for concurrent use.
type UnitOfWork interface {
	Database() string
	Store() Store
	NewID() string
	Stage(op Operation) error
	// Repository returns the repository cached under key, building it on first use.
	Repository(key string, build func() any) any
	Pending() int
	Commit(ctx context.Context) error
	CommitAs(ctx context.Context, actorID string) error
	Rollback(ctx context.Context) error
	// Close releases the unit of work. Uncommitted work is discarded. Calling it twice is a no-op.
	Close(ctx context.Context) error
}

type UnitOfWorkFactory interface {
	// New opens a unit of work on the named database; "" selects the default.
	New(database string) (UnitOfWork, error)
	Has(database string) bool
	Databases() []string
	DefaultDatabase() string
	// Do runs fn in a fresh unit of work, committing as actorID when fn succeeds.
	Do(ctx context.Context, database, actorID string, fn func(uow UnitOfWork) error) error
}

// Change summarises what one commit did to one collection.
type Change struct {
	Collection string
	Kind       OpKind
	IDs        []string
}

// CommitRecord describes a successful commit.
type CommitRecord struct {
	ID          string
	Database    string
	ActorID     string
	CommittedAt time.Time
	Changes     []Change
}

// CommitHook observes successful commits.
type CommitHook interface {
	AfterCommit(ctx context.Context, record CommitRecord) error
}

type CommitHookFunc func(ctx context.Context, record CommitRecord) error

func (f CommitHookFunc) AfterCommit(ctx context.Context, record CommitRecord) error {
	return f(ctx, record)
}

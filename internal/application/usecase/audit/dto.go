package audit

import "time"

// Input

type ChangeInput struct {
	Collection string   `json:"collection"`
	Kind       string   `json:"kind"`
	IDs        []string `json:"ids"`
}

type RecordCommitInput struct {
	CommitID    string        `json:"id"`
	Database    string        `json:"database"`
	ActorID     string        `json:"actorId,omitempty"`
	CommittedAt time.Time     `json:"committedAt"`
	Changes     []ChangeInput `json:"changes"`
}

// Output

type RecordCommitOutput struct {
	Recorded  int  `json:"recorded"`
	Duplicate bool `json:"duplicate"`
}

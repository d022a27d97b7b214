package entity

import "time"

type ChangeKind string

const (
	ChangeInserted ChangeKind = "inserted"
	ChangeReplaced ChangeKind = "replaced"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeDisabled ChangeKind = "disabled"
)

func (k ChangeKind) Valid() bool {
	switch k {
	case ChangeInserted, ChangeReplaced, ChangeDeleted, ChangeDisabled:
		return true
	}
	return false
}

// AuditEntry records one change of one committed unit of work.
type AuditEntry struct {
	Base        `bson:",inline"`
	CommitID    string     `json:"commitId" bson:"commitId"`
	Database    string     `json:"database" bson:"database"`
	Actor       string     `json:"actor,omitempty" bson:"actor,omitempty"`
	Collection  string     `json:"collection" bson:"collection"`
	Kind        ChangeKind `json:"kind" bson:"kind"`
	DocumentIDs []string   `json:"documentIds" bson:"documentIds"`
	CommittedAt time.Time  `json:"committedAt" bson:"committedAt"`
}

func (a *AuditEntry) Validate() error {
	if !a.Kind.Valid() {
		return ErrUnknownChange
	}
	if a.CommitID == "" {
		return ErrIDIsRequired
	}
	return nil
}

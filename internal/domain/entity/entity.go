package entity

import "time"

// Entity is a persisted record keyed by a snowflake id.
type Entity interface {
	GetID() string
	SetID(id string)
	IsDisabled() bool
	SetDisabled(disabled bool)
	Touch(actorID string, at time.Time)
	Stamps() Stamps
	SetStamps(s Stamps)
}

// Ptr lets generic code allocate a T and use it through its pointer methods.
type Ptr[T any] interface {
	*T
	Entity
}

// Base carries the identity, soft-delete flag and audit stamps shared by all records.
// Embed it with `bson:",inline"` so document stores flatten it.
type Base struct {
	ID        string    `json:"id" bson:"_id"`
	Disabled  bool      `json:"disabled" bson:"disabled"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
	CreatedBy string    `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
}

func (b *Base) GetID() string { return b.ID }

func (b *Base) SetID(id string) { b.ID = id }

func (b *Base) IsDisabled() bool { return b.Disabled }

func (b *Base) SetDisabled(disabled bool) { b.Disabled = disabled }

// Touch stamps the record for a commit. Creation stamps are written once.
func (b *Base) Touch(actorID string, at time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = at
		b.CreatedBy = actorID
	}
	b.UpdatedAt = at
	b.UpdatedBy = actorID
}

// Stamps are the audit fields Touch writes.
type Stamps struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
	UpdatedBy string
}

func (b *Base) Stamps() Stamps {
	return Stamps{CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt, CreatedBy: b.CreatedBy, UpdatedBy: b.UpdatedBy}
}

func (b *Base) SetStamps(s Stamps) {
	b.CreatedAt, b.UpdatedAt = s.CreatedAt, s.UpdatedAt
	b.CreatedBy, b.UpdatedBy = s.CreatedBy, s.UpdatedBy
}

func (b *Base) Validate() error {
	if b.ID == "" {
		return ErrIDIsRequired
	}
	return nil
}

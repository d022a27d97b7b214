package event

import (
	"context"
	"errors"
	"time"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
)

const (
	Exchange        = "amq.direct"
	CommitEventName = "data.committed"

	HeaderEventID = "x-event-id"
)

// ErrPoisonMessage marks a message that can never be handled; it is dropped, not retried.
var ErrPoisonMessage = errors.New("poison message")

type MessageHandler func(ctx context.Context, msg []byte, headers map[string]interface{}) error

type ChangePayload struct {
	Collection string   `json:"collection"`
	Kind       string   `json:"kind"`
	IDs        []string `json:"ids"`
}

// CommitEvent is published after every successful unit of work commit.
type CommitEvent struct {
	ID          string          `json:"id"`
	Database    string          `json:"database"`
	ActorID     string          `json:"actorId,omitempty"`
	CommittedAt time.Time       `json:"committedAt"`
	Changes     []ChangePayload `json:"changes"`
}

func NewCommitEvent(rec outbound.CommitRecord) *CommitEvent {
	changes := make([]ChangePayload, 0, len(rec.Changes))
	for _, c := range rec.Changes {
		changes = append(changes, ChangePayload{
			Collection: c.Collection,
			Kind:       c.Kind.String(),
			IDs:        c.IDs,
		})
	}
	return &CommitEvent{
		ID:          rec.ID,
		Database:    rec.Database,
		ActorID:     rec.ActorID,
		CommittedAt: rec.CommittedAt,
		Changes:     changes,
	}
}

func (e *CommitEvent) GetID() string           { return e.ID }
func (e *CommitEvent) GetName() string         { return CommitEventName }
func (e *CommitEvent) GetDateTime() time.Time  { return e.CommittedAt }
func (e *CommitEvent) GetPayload() interface{} { return e }

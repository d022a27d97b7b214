package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/DioGolang/GoData/internal/domain/entity"
)

var (
	ErrNoDocument  = errors.New("no document with that id")
	ErrDuplicateID = errors.New("duplicate document id")
	ErrTxDone      = errors.New("store transaction already finished")
)

// Audit attributes a change to an actor at a point in time.
type Audit struct {
	ActorID string
	At      time.Time
}

// Store is the document store driver boundary. One Store serves one named database.
//
// Reads take a destination the store decodes into: FindByID wants a pointer to the
// record struct, FindAll and FindAllProjected want a pointer to a slice. FindAllProjected
// decodes only the fields of the slice element type, so the store does the projection.
type Store interface {
	Database() string
	FindByID(ctx context.Context, collection, id string, out any) error
	FindAll(ctx context.Context, collection string, out any) error
	FindAllProjected(ctx context.Context, collection string, out any) error
	Begin(ctx context.Context) (StoreTx, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// StoreTx applies writes atomically as far as the backend allows.
// Delete and Disable ignore ids that do not exist. Replace inserts missing documents.
type StoreTx interface {
	Insert(ctx context.Context, collection string, docs []entity.Entity) error
	Replace(ctx context.Context, collection string, docs []entity.Entity) error
	Delete(ctx context.Context, collection string, ids []string) error
	Disable(ctx context.Context, collection string, ids []string, audit Audit) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Migrator is implemented by stores that need collections created up front.
type Migrator interface {
	EnsureCollections(ctx context.Context, collections ...string) error
}

type OpKind int

const (
	OpInsert OpKind = iota
	OpReplace
	OpDelete
	OpDisable
)

func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "inserted"
	case OpReplace:
		return "replaced"
	case OpDelete:
		return "deleted"
	case OpDisable:
		return "disabled"
	default:
		return "unknown"
	}
}

// Operation is one staged write waiting for a commit.
type Operation struct {
	Kind       OpKind
	Collection string
	Docs       []entity.Entity
	IDs        []string
}

// TargetIDs returns the ids the operation touches.
func (o Operation) TargetIDs() []string {
	if len(o.Docs) == 0 {
		return o.IDs
	}
	ids := make([]string, len(o.Docs))
	for i, d := range o.Docs {
		ids[i] = d.GetID()
	}
	return ids
}

package database

import (
	"context"
	"errors"
	"reflect"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/internal/domain/entity"
	"github.com/DioGolang/GoData/pkg/dataerr"
)

// Repository persists records of type T in one collection through a unit of work.
type Repository[T any, PT entity.Ptr[T]] struct {
	uow        outbound.UnitOfWork
	collection string
}

func NewRepository[T any, PT entity.Ptr[T]](uow outbound.UnitOfWork, collection string) *Repository[T, PT] {
	return &Repository[T, PT]{uow: uow, collection: collection}
}

// RepositoryFor returns the repository for T cached in uow, building it on first use.
func RepositoryFor[T any, PT entity.Ptr[T]](uow outbound.UnitOfWork, collection string) outbound.Repository[T] {
	key := collection + "|" + reflect.TypeFor[T]().String()
	r := uow.Repository(key, func() any {
		return NewRepository[T, PT](uow, collection)
	})
	return r.(outbound.Repository[T])
}

func (r *Repository[T, PT]) Collection() string { return r.collection }

func (r *Repository[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	const op = "repository.Get"
	if id == "" {
		return nil, dataerr.InvalidArgument(op, "id is required")
	}
	item := new(T)
	if err := r.uow.Store().FindByID(ctx, r.collection, id, item); err != nil {
		if errors.Is(err, outbound.ErrNoDocument) {
			return nil, dataerr.NotFound(op, id)
		}
		return nil, dataerr.Persistence(op, err)
	}
	return item, nil
}

func (r *Repository[T, PT]) GetAll(ctx context.Context) ([]T, error) {
	items := []T{}
	if err := r.uow.Store().FindAll(ctx, r.collection, &items); err != nil {
		return nil, dataerr.Persistence("repository.GetAll", err)
	}
	return items, nil
}

func (r *Repository[T, PT]) GetAllProjected(ctx context.Context, out any) error {
	const op = "repository.GetAllProjected"
	if out == nil {
		return dataerr.InvalidArgument(op, "destination is required")
	}
	if err := r.uow.Store().FindAllProjected(ctx, r.collection, out); err != nil {
		return dataerr.Persistence(op, err)
	}
	return nil
}

// Add stages item for insertion, assigning an id when it has none.
func (r *Repository[T, PT]) Add(ctx context.Context, item *T) (string, error) {
	ids, err := r.AddRange(ctx, []*T{item})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (r *Repository[T, PT]) AddRange(_ context.Context, items []*T) ([]string, error) {
	const op = "repository.AddRange"
	if len(items) == 0 {
		return []string{}, nil
	}
	docs, err := r.entities(op, items)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		if d.GetID() == "" {
			d.SetID(r.uow.NewID())
		}
		ids[i] = d.GetID()
	}
	if err := r.stage(op, outbound.Operation{Kind: outbound.OpInsert, Collection: r.collection, Docs: docs}); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository[T, PT]) Delete(ctx context.Context, id string) error {
	return r.DeleteRange(ctx, []string{id})
}

func (r *Repository[T, PT]) DeleteRange(_ context.Context, ids []string) error {
	const op = "repository.Delete"
	if err := checkIDs(op, ids); err != nil || len(ids) == 0 {
		return err
	}
	return r.stage(op, outbound.Operation{Kind: outbound.OpDelete, Collection: r.collection, IDs: ids})
}

func (r *Repository[T, PT]) Disable(ctx context.Context, id string) error {
	return r.DisableRange(ctx, []string{id})
}

func (r *Repository[T, PT]) DisableRange(_ context.Context, ids []string) error {
	const op = "repository.Disable"
	if err := checkIDs(op, ids); err != nil || len(ids) == 0 {
		return err
	}
	return r.stage(op, outbound.Operation{Kind: outbound.OpDisable, Collection: r.collection, IDs: ids})
}

func (r *Repository[T, PT]) DisableEntity(ctx context.Context, item *T) error {
	return r.DisableEntities(ctx, []*T{item})
}

// DisableEntities flags the given records and stages them for replacement.
func (r *Repository[T, PT]) DisableEntities(_ context.Context, items []*T) error {
	const op = "repository.DisableEntities"
	if len(items) == 0 {
		return nil
	}
	docs, err := r.entities(op, items)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if d.GetID() == "" {
			return dataerr.InvalidArgument(op, "entity has no id")
		}
		d.SetDisabled(true)
	}
	return r.stage(op, outbound.Operation{Kind: outbound.OpReplace, Collection: r.collection, Docs: docs})
}

func (r *Repository[T, PT]) entities(op string, items []*T) ([]entity.Entity, error) {
	docs := make([]entity.Entity, len(items))
	for i, it := range items {
		if it == nil {
			return nil, dataerr.InvalidArgument(op, "item is nil")
		}
		docs[i] = PT(it)
	}
	return docs, nil
}

func (r *Repository[T, PT]) stage(op string, o outbound.Operation) error {
	if err := r.uow.Stage(o); err != nil {
		return dataerr.Persistence(op, err)
	}
	return nil
}

// checkIDs rejects a nil id list and empty ids. An empty list is a no-op.
func checkIDs(op string, ids []string) error {
	if ids == nil {
		return dataerr.InvalidArgument(op, "ids are nil")
	}
	for _, id := range ids {
		if id == "" {
			return dataerr.InvalidArgument(op, "id is required")
		}
	}
	return nil
}

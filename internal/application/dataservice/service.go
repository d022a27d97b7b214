package dataservice

import (
	"context"
	"errors"
	"reflect"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/pkg/dataerr"
	"github.com/DioGolang/GoData/pkg/mapper"
)

// Session is the unit of work lifecycle a data service exposes.
type Session interface {
	Database() string
	Pending() int
	Commit(ctx context.Context) error
	CommitAs(ctx context.Context, actorID string) error
	Rollback(ctx context.Context) error
	Close(ctx context.Context) error
}

type ReaderService[T any] interface {
	Get(ctx context.Context, id string) (*T, error)
	GetAll(ctx context.Context) ([]T, error)
	// GetInto loads one record and maps it into dst.
	GetInto(ctx context.Context, id string, dst any) error
	// GetAllInto fills dst, a pointer to a slice, either by asking the store to
	// project (project=true) or by loading records and mapping them in process.
	GetAllInto(ctx context.Context, dst any, project bool) error
}

type WriterService[T any] interface {
	Add(ctx context.Context, item *T, opts ...WriteOption) (string, error)
	AddRange(ctx context.Context, items []*T, opts ...WriteOption) ([]string, error)
	AddFrom(ctx context.Context, src any, opts ...WriteOption) (string, error)
	AddRangeFrom(ctx context.Context, src any, opts ...WriteOption) ([]string, error)
	Delete(ctx context.Context, id string, opts ...WriteOption) error
	DeleteRange(ctx context.Context, ids []string, opts ...WriteOption) error
	Disable(ctx context.Context, id string, opts ...WriteOption) error
	DisableEntity(ctx context.Context, item *T, opts ...WriteOption) error
	DisableRange(ctx context.Context, ids []string, opts ...WriteOption) error
	DisableEntities(ctx context.Context, items []*T, opts ...WriteOption) error
	DisableFrom(ctx context.Context, src any, opts ...WriteOption) error
	DisableRangeFrom(ctx context.Context, src any, opts ...WriteOption) error
}

type ReadOnlyService[T any] interface {
	Session
	ReaderService[T]
}

type CrudService[T any] interface {
	Session
	ReaderService[T]
	WriterService[T]
}

// binding is what the capabilities of one entity type share: the unit of work,
// the repository obtained from it, the mapper and the interceptor chain.
type binding[T any] struct {
	uow       outbound.UnitOfWork
	repo      outbound.Repository[T]
	mapper    mapper.Mapper
	entity    string
	intercept Interceptor
}

func newBinding[T any](uow outbound.UnitOfWork, repo outbound.Repository[T], m mapper.Mapper, entity string, interceptors []Interceptor) *binding[T] {
	return &binding[T]{uow: uow, repo: repo, mapper: m, entity: entity, intercept: chain(interceptors)}
}

func (b *binding[T]) invoke(ctx context.Context, operation string, fn Invoker) error {
	return b.intercept(ctx, Call{Entity: b.entity, Database: b.uow.Database(), Operation: operation}, fn)
}

// finish commits when the options ask for it and folds the commit failure into the result.
func (b *binding[T]) finish(ctx context.Context, op string, o writeOptions) error {
	if !o.commit {
		return nil
	}
	return dataerr.Persistence(op, b.uow.CommitAs(ctx, o.actorID))
}

type session struct {
	uow       outbound.UnitOfWork
	entity    string
	intercept Interceptor
}

func (s session) call(ctx context.Context, operation string, fn Invoker) error {
	return s.intercept(ctx, Call{Entity: s.entity, Database: s.uow.Database(), Operation: operation}, fn)
}

func (s session) Database() string { return s.uow.Database() }

func (s session) Pending() int { return s.uow.Pending() }

func (s session) Commit(ctx context.Context) error {
	return s.call(ctx, "Commit", s.uow.Commit)
}

func (s session) CommitAs(ctx context.Context, actorID string) error {
	return s.call(ctx, "Commit", func(ctx context.Context) error {
		return s.uow.CommitAs(ctx, actorID)
	})
}

func (s session) Rollback(ctx context.Context) error {
	return s.uow.Rollback(ctx)
}

func (s session) Close(ctx context.Context) error {
	return s.uow.Close(ctx)
}

// Reader is the read capability over one entity type.
type Reader[T any] struct {
	b *binding[T]
}

func (r Reader[T]) Get(ctx context.Context, id string) (*T, error) {
	var item *T
	err := r.b.invoke(ctx, "Get", func(ctx context.Context) error {
		if id == "" {
			return dataerr.InvalidArgument("dataservice.Get", "id is required")
		}
		var err error
		item, err = r.b.repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r Reader[T]) GetAll(ctx context.Context) ([]T, error) {
	var items []T
	err := r.b.invoke(ctx, "GetAll", func(ctx context.Context) error {
		var err error
		items, err = r.b.repo.GetAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r Reader[T]) GetInto(ctx context.Context, id string, dst any) error {
	const op = "dataservice.GetInto"
	return r.b.invoke(ctx, "GetInto", func(ctx context.Context) error {
		if id == "" {
			return dataerr.InvalidArgument(op, "id is required")
		}
		if dst == nil {
			return dataerr.InvalidArgument(op, "destination is required")
		}
		item, err := r.b.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := r.b.mapper.Map(item, dst); err != nil {
			return dataerr.Mapping(op, err)
		}
		return nil
	})
}

func (r Reader[T]) GetAllInto(ctx context.Context, dst any, project bool) error {
	const op = "dataservice.GetAllInto"
	name := "GetAllInto"
	if project {
		name = "GetAllProjected"
	}
	return r.b.invoke(ctx, name, func(ctx context.Context) error {
		if dst == nil {
			return dataerr.InvalidArgument(op, "destination is required")
		}
		if project {
			return r.b.repo.GetAllProjected(ctx, dst)
		}
		items, err := r.b.repo.GetAll(ctx)
		if err != nil {
			return err
		}
		if err := mapper.MapSlice(r.b.mapper, items, dst); err != nil {
			return dataerr.Mapping(op, err)
		}
		return nil
	})
}

// GetAs loads one record of the reader's entity type in the P shape.
func GetAs[P, T any](ctx context.Context, r ReaderService[T], id string) (P, error) {
	var out P
	if err := r.GetInto(ctx, id, &out); err != nil {
		var zero P
		return zero, err
	}
	return out, nil
}

// GetAllAs loads every record in the P shape. With project set the store builds
// P itself; otherwise records are loaded whole and mapped.
func GetAllAs[P, T any](ctx context.Context, r ReaderService[T], project bool) ([]P, error) {
	out := []P{}
	if err := r.GetAllInto(ctx, &out, project); err != nil {
		return nil, err
	}
	return out, nil
}

// Writer is the write capability over one entity type. Writes are staged in the
// unit of work unless WithCommit is given.
type Writer[T any] struct {
	b *binding[T]
}

// Add stages item. The id is returned only when the call commits.
func (w Writer[T]) Add(ctx context.Context, item *T, opts ...WriteOption) (string, error) {
	ids, err := w.addRange(ctx, "Add", []*T{item}, opts)
	if err != nil || len(ids) == 0 {
		return "", err
	}
	return ids[0], nil
}

// AddRange stages items. The ids are returned only when the call commits.
func (w Writer[T]) AddRange(ctx context.Context, items []*T, opts ...WriteOption) ([]string, error) {
	return w.addRange(ctx, "AddRange", items, opts)
}

// AddFrom stages src, mapping it to T first unless it already is a T or *T.
func (w Writer[T]) AddFrom(ctx context.Context, src any, opts ...WriteOption) (string, error) {
	if src == nil {
		return "", dataerr.InvalidArgument("dataservice.AddFrom", "item is nil")
	}
	item, err := w.convert(src)
	if err != nil {
		return "", err
	}
	return w.Add(ctx, item, opts...)
}

// AddRangeFrom stages every element of the slice src, mapping elements that are not T.
func (w Writer[T]) AddRangeFrom(ctx context.Context, src any, opts ...WriteOption) ([]string, error) {
	items, err := w.convertSlice("dataservice.AddRangeFrom", src)
	if err != nil {
		return nil, err
	}
	return w.AddRange(ctx, items, opts...)
}

// DisableFrom maps src to T and disables it. The mapped record must carry the
// id and replaces the stored one.
func (w Writer[T]) DisableFrom(ctx context.Context, src any, opts ...WriteOption) error {
	if src == nil {
		return dataerr.InvalidArgument("dataservice.DisableFrom", "item is nil")
	}
	item, err := w.convert(src)
	if err != nil {
		return err
	}
	return w.DisableEntity(ctx, item, opts...)
}

// DisableRangeFrom is DisableFrom for every element of the slice src.
func (w Writer[T]) DisableRangeFrom(ctx context.Context, src any, opts ...WriteOption) error {
	items, err := w.convertSlice("dataservice.DisableRangeFrom", src)
	if err != nil {
		return err
	}
	return w.DisableEntities(ctx, items, opts...)
}

func (w Writer[T]) convertSlice(op string, src any) ([]*T, error) {
	v := reflect.ValueOf(src)
	if !v.IsValid() || (v.Kind() == reflect.Slice && v.IsNil()) {
		return nil, dataerr.InvalidArgument(op, "items are nil")
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, dataerr.InvalidArgument(op, "items must be a slice")
	}
	items := make([]*T, v.Len())
	for i := range items {
		item, err := w.convert(v.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return items, nil
}

func (w Writer[T]) convert(src any) (*T, error) {
	switch v := src.(type) {
	case *T:
		if v == nil {
			return nil, dataerr.InvalidArgument("dataservice.convert", "item is nil")
		}
		return v, nil
	case T:
		return &v, nil
	}
	out := new(T)
	if err := w.b.mapper.Map(src, out); err != nil {
		if errors.Is(err, dataerr.ErrInvalidArgument) {
			return nil, err
		}
		return nil, dataerr.Mapping("dataservice.convert", err)
	}
	return out, nil
}

func (w Writer[T]) addRange(ctx context.Context, operation string, items []*T, opts []WriteOption) ([]string, error) {
	const op = "dataservice.Add"
	o := collect(opts)
	ids := []string{}
	err := w.b.invoke(ctx, operation, func(ctx context.Context) error {
		if items == nil {
			return dataerr.InvalidArgument(op, "items are nil")
		}
		for _, it := range items {
			if it == nil {
				return dataerr.InvalidArgument(op, "item is nil")
			}
		}
		if len(items) == 0 {
			return nil
		}
		staged, err := w.b.repo.AddRange(ctx, items)
		if err != nil {
			return err
		}
		if err := w.b.finish(ctx, op, o); err != nil {
			return err
		}
		if o.commit {
			ids = staged
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (w Writer[T]) Delete(ctx context.Context, id string, opts ...WriteOption) error {
	return w.mutateIDs(ctx, "Delete", []string{id}, opts, w.b.repo.DeleteRange)
}

func (w Writer[T]) DeleteRange(ctx context.Context, ids []string, opts ...WriteOption) error {
	return w.mutateIDs(ctx, "DeleteRange", ids, opts, w.b.repo.DeleteRange)
}

func (w Writer[T]) Disable(ctx context.Context, id string, opts ...WriteOption) error {
	return w.mutateIDs(ctx, "Disable", []string{id}, opts, w.b.repo.DisableRange)
}

func (w Writer[T]) DisableRange(ctx context.Context, ids []string, opts ...WriteOption) error {
	return w.mutateIDs(ctx, "DisableRange", ids, opts, w.b.repo.DisableRange)
}

func (w Writer[T]) DisableEntity(ctx context.Context, item *T, opts ...WriteOption) error {
	return w.DisableEntities(ctx, []*T{item}, opts...)
}

func (w Writer[T]) DisableEntities(ctx context.Context, items []*T, opts ...WriteOption) error {
	const op = "dataservice.DisableEntities"
	o := collect(opts)
	return w.b.invoke(ctx, "DisableEntities", func(ctx context.Context) error {
		if items == nil {
			return dataerr.InvalidArgument(op, "items are nil")
		}
		for _, it := range items {
			if it == nil {
				return dataerr.InvalidArgument(op, "item is nil")
			}
		}
		if len(items) == 0 {
			return nil
		}
		if err := w.b.repo.DisableEntities(ctx, items); err != nil {
			return err
		}
		return w.b.finish(ctx, op, o)
	})
}

func (w Writer[T]) mutateIDs(ctx context.Context, operation string, ids []string, opts []WriteOption, stage func(context.Context, []string) error) error {
	op := "dataservice." + operation
	o := collect(opts)
	return w.b.invoke(ctx, operation, func(ctx context.Context) error {
		if ids == nil {
			return dataerr.InvalidArgument(op, "ids are nil")
		}
		for _, id := range ids {
			if id == "" {
				return dataerr.InvalidArgument(op, "id is required")
			}
		}
		if len(ids) == 0 {
			return nil
		}
		if err := stage(ctx, ids); err != nil {
			return err
		}
		return w.b.finish(ctx, op, o)
	})
}

// ReadOnly composes a session with the read capability.
type ReadOnly[T any] struct {
	session
	Reader[T]
}

// Crud composes a session with the read and write capabilities.
type Crud[T any] struct {
	session
	Reader[T]
	Writer[T]
}

func NewReadOnly[T any](uow outbound.UnitOfWork, repo outbound.Repository[T], m mapper.Mapper, entity string, interceptors ...Interceptor) *ReadOnly[T] {
	b := newBinding(uow, repo, m, entity, interceptors)
	return &ReadOnly[T]{session: session{uow: uow, entity: entity, intercept: b.intercept}, Reader: Reader[T]{b: b}}
}

func NewCrud[T any](uow outbound.UnitOfWork, repo outbound.Repository[T], m mapper.Mapper, entity string, interceptors ...Interceptor) *Crud[T] {
	b := newBinding(uow, repo, m, entity, interceptors)
	return &Crud[T]{
		session: session{uow: uow, entity: entity, intercept: b.intercept},
		Reader:  Reader[T]{b: b},
		Writer:  Writer[T]{b: b},
	}
}

var (
	_ ReadOnlyService[struct{}] = (*ReadOnly[struct{}])(nil)
	_ CrudService[struct{}]     = (*Crud[struct{}])(nil)
)

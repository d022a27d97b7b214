package database

import (
	"context"
	"fmt"
	"sort"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/internal/domain/entity"
	"github.com/DioGolang/GoData/pkg/dataerr"
	"golang.org/x/sync/errgroup"
)

// UnitOfWorkFactory opens units of work against a fixed set of named stores.
type UnitOfWorkFactory struct {
	stores map[string]outbound.Store
	names  []string
	def    string
	ids    *entity.IDGenerator
	opts   []UnitOfWorkOption
}

func NewUnitOfWorkFactory(ids *entity.IDGenerator, defaultDB string, stores []outbound.Store, opts ...UnitOfWorkOption) (*UnitOfWorkFactory, error) {
	const op = "uow.NewFactory"
	if ids == nil {
		return nil, dataerr.Configuration(op, "id generator is required")
	}
	if len(stores) == 0 {
		return nil, dataerr.Configuration(op, "at least one store is required")
	}
	f := &UnitOfWorkFactory{
		stores: make(map[string]outbound.Store, len(stores)),
		ids:    ids,
		opts:   opts,
	}
	for _, s := range stores {
		name := s.Database()
		if _, dup := f.stores[name]; dup {
			return nil, dataerr.Configuration(op, fmt.Sprintf("database %q configured twice", name))
		}
		f.stores[name] = s
		f.names = append(f.names, name)
	}
	sort.Strings(f.names)

	if defaultDB == "" {
		defaultDB = stores[0].Database()
	}
	if _, ok := f.stores[defaultDB]; !ok {
		return nil, dataerr.Configuration(op, fmt.Sprintf("default database %q has no store", defaultDB))
	}
	f.def = defaultDB
	return f, nil
}

func (f *UnitOfWorkFactory) New(database string) (outbound.UnitOfWork, error) {
	uow, err := f.open(database)
	if err != nil {
		return nil, err
	}
	return uow, nil
}

func (f *UnitOfWorkFactory) open(database string) (*UnitOfWork, error) {
	if database == "" {
		database = f.def
	}
	store, ok := f.stores[database]
	if !ok {
		return nil, dataerr.Configuration("uow.New", fmt.Sprintf("unknown database %q", database))
	}
	return NewUnitOfWork(store, f.ids, f.opts...), nil
}

func (f *UnitOfWorkFactory) Has(database string) bool {
	_, ok := f.stores[database]
	return ok
}

func (f *UnitOfWorkFactory) Databases() []string {
	return append([]string(nil), f.names...)
}

func (f *UnitOfWorkFactory) DefaultDatabase() string { return f.def }

func (f *UnitOfWorkFactory) Do(ctx context.Context, database, actorID string, fn func(uow outbound.UnitOfWork) error) error {
	uow, err := f.open(database)
	if err != nil {
		return err
	}
	return uow.Do(ctx, actorID, fn)
}

// Store returns the store behind a database name, "" selecting the default.
func (f *UnitOfWorkFactory) Store(database string) (outbound.Store, bool) {
	if database == "" {
		database = f.def
	}
	s, ok := f.stores[database]
	return s, ok
}

func (f *UnitOfWorkFactory) EnsureCollections(ctx context.Context, collections ...string) error {
	return f.each(ctx, func(ctx context.Context, s outbound.Store) error {
		m, ok := s.(outbound.Migrator)
		if !ok {
			return nil
		}
		return m.EnsureCollections(ctx, collections...)
	})
}

func (f *UnitOfWorkFactory) Ping(ctx context.Context) error {
	return f.each(ctx, func(ctx context.Context, s outbound.Store) error {
		return s.Ping(ctx)
	})
}

func (f *UnitOfWorkFactory) Close(ctx context.Context) error {
	return f.each(ctx, func(ctx context.Context, s outbound.Store) error {
		return s.Close(ctx)
	})
}

func (f *UnitOfWorkFactory) each(ctx context.Context, fn func(context.Context, outbound.Store) error) error {
	g, gCtx := errgroup.WithContext(ctx)
	for _, name := range f.names {
		s := f.stores[name]
		g.Go(func() error {
			if err := fn(gCtx, s); err != nil {
				return fmt.Errorf("database %s: %w", s.Database(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

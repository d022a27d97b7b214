package dataservice

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/pkg/dataerr"
)

const opResolve = "dataservice.Resolve"

// Resolver is implemented by *Factory, which resolves transient services only,
// and by *Scope, which resolves both lifetimes.
type Resolver interface {
	factory() *Factory
	scope() *Scope
}

// Factory resolves data services from a built Registry. It is safe for concurrent use;
// the services and scopes it hands out are not.
type Factory struct {
	reg *Registry
}

func (f *Factory) factory() *Factory { return f }

func (f *Factory) scope() *Scope { return nil }

func (f *Factory) NewScope() *Scope {
	return &Scope{
		f:         f,
		uows:      make(map[string]outbound.UnitOfWork),
		instances: make(map[instanceKey]any),
	}
}

// Databases lists the databases services can be resolved from.
func (f *Factory) Databases() []string { return f.reg.uows.Databases() }

func (f *Factory) Collections() []string { return f.reg.Collections() }

func (f *Factory) database(name string) (string, error) {
	if name == "" {
		return f.reg.uows.DefaultDatabase(), nil
	}
	if !f.reg.uows.Has(name) {
		return "", dataerr.Configuration(opResolve, fmt.Sprintf("unknown database %q", name))
	}
	return name, nil
}

type instanceKey struct {
	typ      reflect.Type
	kind     kind
	database string
}

// Scope owns the units of work opened through it. Scoped services share one unit of
// work per database, so one commit covers all of them. Close releases everything.
type Scope struct {
	f         *Factory
	uows      map[string]outbound.UnitOfWork
	owned     []outbound.UnitOfWork
	instances map[instanceKey]any
	closed    bool
}

func (s *Scope) factory() *Factory { return s.f }

func (s *Scope) scope() *Scope { return s }

func (s *Scope) open(database string) (outbound.UnitOfWork, error) {
	if s.closed {
		return nil, dataerr.Configuration(opResolve, "scope is closed")
	}
	uow, err := s.f.reg.uows.New(database)
	if err != nil {
		return nil, err
	}
	s.owned = append(s.owned, uow)
	return uow, nil
}

func (s *Scope) shared(database string) (outbound.UnitOfWork, error) {
	if uow, ok := s.uows[database]; ok {
		return uow, nil
	}
	uow, err := s.open(database)
	if err != nil {
		return nil, err
	}
	s.uows[database] = uow
	return uow, nil
}

// Commit commits the shared unit of work of every database touched by scoped services.
func (s *Scope) Commit(ctx context.Context, actorID string) error {
	for _, uow := range s.uows {
		if err := uow.CommitAs(ctx, actorID); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every unit of work opened through the scope. Calling it twice is a no-op.
func (s *Scope) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	for _, uow := range s.owned {
		if err := uow.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.owned, s.uows, s.instances = nil, nil, nil
	return errors.Join(errs...)
}

// unitOfWork picks the unit of work for a registration's lifetime.
func unitOfWork(r Resolver, lifetime Lifetime, what fmt.Stringer, database string) (outbound.UnitOfWork, error) {
	f, s := r.factory(), r.scope()
	switch {
	case lifetime == Scoped && s == nil:
		return nil, dataerr.Configuration(opResolve, fmt.Sprintf("%s is scoped; resolve it from a Scope", what))
	case lifetime == Scoped:
		return s.shared(database)
	case s != nil:
		return s.open(database)
	default:
		return f.reg.uows.New(database)
	}
}

func resolveEntity(r Resolver, typ reflect.Type, k kind, database string) (any, error) {
	f := r.factory()
	reg, ok := f.reg.entities[typ]
	if !ok {
		return nil, dataerr.Configuration(opResolve, fmt.Sprintf("no data service registered for %s", typ))
	}
	db, err := f.database(database)
	if err != nil {
		return nil, err
	}

	s := r.scope()
	key := instanceKey{typ: typ, kind: k, database: db}
	if reg.opts.lifetime == Scoped && s != nil && !s.closed {
		if inst, ok := s.instances[key]; ok {
			return inst, nil
		}
	}
	uow, err := unitOfWork(r, reg.opts.lifetime, typ, db)
	if err != nil {
		return nil, err
	}
	inst := reg.build(uow, f.reg.mapper, k, f.reg.interceptorsFor(k, reg.opts))
	if reg.opts.lifetime == Scoped {
		s.instances[key] = inst
	}
	return inst, nil
}

func resolveService(r Resolver, typ reflect.Type, database string) (any, error) {
	f := r.factory()
	reg, ok := f.reg.services[typ]
	if !ok {
		return nil, dataerr.Configuration(opResolve, fmt.Sprintf("no data service registered for %s", typ))
	}
	db, err := f.database(database)
	if err != nil {
		return nil, err
	}

	s := r.scope()
	key := instanceKey{typ: typ, kind: kindService, database: db}
	if reg.opts.lifetime == Scoped && s != nil && !s.closed {
		if inst, ok := s.instances[key]; ok {
			return inst, nil
		}
	}
	uow, err := unitOfWork(r, reg.opts.lifetime, typ, db)
	if err != nil {
		return nil, err
	}
	inst, err := reg.build(Deps{
		UnitOfWork:   uow,
		Mapper:       f.reg.mapper,
		Interceptors: f.reg.interceptorsFor(kindService, reg.opts),
		registry:     f.reg,
	})
	if err != nil {
		return nil, dataerr.Configuration(opResolve, fmt.Sprintf("build %s: %v", typ, err))
	}
	if reg.opts.lifetime == Scoped {
		s.instances[key] = inst
	}
	return inst, nil
}

func GetReadOnly[T any](r Resolver) (ReadOnlyService[T], error) {
	return GetReadOnlyFrom[T](r, "")
}

// GetReadOnlyFrom resolves the read-only service of T on the named database.
func GetReadOnlyFrom[T any](r Resolver, database string) (ReadOnlyService[T], error) {
	inst, err := resolveEntity(r, reflect.TypeFor[T](), kindReadOnly, database)
	if err != nil {
		return nil, err
	}
	return inst.(*ReadOnly[T]), nil
}

func GetCrud[T any](r Resolver) (CrudService[T], error) {
	return GetCrudFrom[T](r, "")
}

// GetCrudFrom resolves the CRUD service of T on the named database.
func GetCrudFrom[T any](r Resolver, database string) (CrudService[T], error) {
	inst, err := resolveEntity(r, reflect.TypeFor[T](), kindCrud, database)
	if err != nil {
		return nil, err
	}
	return inst.(*Crud[T]), nil
}

func Get[S any](r Resolver) (S, error) {
	return GetFrom[S](r, "")
}

// GetFrom resolves the custom service S on the named database.
func GetFrom[S any](r Resolver, database string) (S, error) {
	var zero S
	inst, err := resolveService(r, reflect.TypeFor[S](), database)
	if err != nil {
		return zero, err
	}
	return inst.(S), nil
}

// CrudFrom builds the CRUD service of T over the unit of work a custom service was given.
func CrudFrom[T any](d Deps) (CrudService[T], error) {
	reg, err := d.entity(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return reg.build(d.UnitOfWork, d.Mapper, kindCrud, d.registry.interceptorsFor(kindCrud, reg.opts)).(*Crud[T]), nil
}

// ReadOnlyFrom builds the read-only service of T over the unit of work a custom service was given.
func ReadOnlyFrom[T any](d Deps) (ReadOnlyService[T], error) {
	reg, err := d.entity(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return reg.build(d.UnitOfWork, d.Mapper, kindReadOnly, d.registry.interceptorsFor(kindReadOnly, reg.opts)).(*ReadOnly[T]), nil
}

func (d Deps) entity(typ reflect.Type) (*entityRegistration, error) {
	if d.registry == nil || d.UnitOfWork == nil {
		return nil, dataerr.InvalidArgument(opResolve, "deps were not provided by a factory")
	}
	reg, ok := d.registry.entities[typ]
	if !ok {
		return nil, dataerr.Configuration(opResolve, fmt.Sprintf("no data service registered for %s", typ))
	}
	return reg, nil
}

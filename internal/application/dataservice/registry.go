package dataservice

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/pkg/dataerr"
	"github.com/DioGolang/GoData/pkg/mapper"
)

// Lifetime decides how long a resolved data service lives.
type Lifetime int

const (
	// Transient builds a new service over a new unit of work on every resolve.
	Transient Lifetime = iota
	// Scoped shares one service per Scope and database; the scope closes it.
	Scoped
)

func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "transient"
	case Scoped:
		return "scoped"
	default:
		return fmt.Sprintf("lifetime(%d)", int(l))
	}
}

// Target selects which service kinds an interceptor applies to.
type Target int

const (
	TargetAll Target = iota
	TargetReadOnly
	TargetCrud
	TargetService
)

type kind int

const (
	kindReadOnly kind = iota
	kindCrud
	kindService
)

func (t Target) matches(k kind) bool {
	switch t {
	case TargetAll:
		return true
	case TargetReadOnly:
		return k == kindReadOnly
	case TargetCrud:
		return k == kindCrud
	case TargetService:
		return k == kindService
	}
	return false
}

type scopedInterceptor struct {
	target Target
	ic     Interceptor
}

// RepositoryFunc returns the repository for T bound to uow.
type RepositoryFunc[T any] func(uow outbound.UnitOfWork, collection string) outbound.Repository[T]

type registrationOptions struct {
	lifetime     Lifetime
	interceptors []scopedInterceptor
}

type Option func(*registrationOptions)

func WithLifetime(l Lifetime) Option {
	return func(o *registrationOptions) { o.lifetime = l }
}

// WithInterceptors adds interceptors for the given service kinds. On the registry they
// apply to every registration; on a registration they run inside the registry-wide ones.
func WithInterceptors(target Target, interceptors ...Interceptor) Option {
	return func(o *registrationOptions) {
		for _, ic := range interceptors {
			o.interceptors = append(o.interceptors, scopedInterceptor{target: target, ic: ic})
		}
	}
}

// Deps is what a custom service constructor receives: the unit of work it must
// use and the means to build data services sharing it.
type Deps struct {
	UnitOfWork   outbound.UnitOfWork
	Mapper       mapper.Mapper
	Interceptors []Interceptor
	registry     *Registry
}

type entityRegistration struct {
	typ        reflect.Type
	collection string
	opts       registrationOptions
	build      func(uow outbound.UnitOfWork, m mapper.Mapper, k kind, interceptors []Interceptor) any
}

type serviceRegistration struct {
	typ   reflect.Type
	opts  registrationOptions
	build func(d Deps) (any, error)
}

// Registry collects entity and service registrations at start-up.
// Build validates it and returns a Factory; the registry must not change afterwards.
type Registry struct {
	uows     outbound.UnitOfWorkFactory
	mapper   mapper.Mapper
	global   registrationOptions
	entities map[reflect.Type]*entityRegistration
	services map[reflect.Type]*serviceRegistration
	errs     []error
	built    bool
}

func NewRegistry(uows outbound.UnitOfWorkFactory, m mapper.Mapper, opts ...Option) *Registry {
	r := &Registry{
		uows:     uows,
		mapper:   m,
		entities: make(map[reflect.Type]*entityRegistration),
		services: make(map[reflect.Type]*serviceRegistration),
	}
	for _, opt := range opts {
		opt(&r.global)
	}
	return r
}

func applyOptions(opts []Option) registrationOptions {
	var o registrationOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Register declares the data services of entity type T, stored in collection.
func Register[T any](r *Registry, collection string, repo RepositoryFunc[T], opts ...Option) {
	typ := reflect.TypeFor[T]()
	switch {
	case r.built:
		r.fail(fmt.Errorf("register %s: registry already built", typ))
		return
	case collection == "":
		r.fail(fmt.Errorf("register %s: collection is required", typ))
		return
	case repo == nil:
		r.fail(fmt.Errorf("register %s: repository func is required", typ))
		return
	}
	if _, dup := r.entities[typ]; dup {
		r.fail(fmt.Errorf("register %s: already registered", typ))
		return
	}
	r.entities[typ] = &entityRegistration{
		typ:        typ,
		collection: collection,
		opts:       applyOptions(opts),
		build: func(uow outbound.UnitOfWork, m mapper.Mapper, k kind, interceptors []Interceptor) any {
			rp := repo(uow, collection)
			if k == kindReadOnly {
				return NewReadOnly[T](uow, rp, m, collection, interceptors...)
			}
			return NewCrud[T](uow, rp, m, collection, interceptors...)
		},
	}
}

// RegisterService declares a custom data service S built by ctor.
func RegisterService[S any](r *Registry, ctor func(d Deps) (S, error), opts ...Option) {
	typ := reflect.TypeFor[S]()
	switch {
	case r.built:
		r.fail(fmt.Errorf("register service %s: registry already built", typ))
		return
	case ctor == nil:
		r.fail(fmt.Errorf("register service %s: constructor is required", typ))
		return
	}
	if _, dup := r.services[typ]; dup {
		r.fail(fmt.Errorf("register service %s: already registered", typ))
		return
	}
	r.services[typ] = &serviceRegistration{
		typ:  typ,
		opts: applyOptions(opts),
		build: func(d Deps) (any, error) {
			return ctor(d)
		},
	}
}

func (r *Registry) fail(err error) {
	r.errs = append(r.errs, err)
}

// Build validates the registrations and freezes the registry.
func (r *Registry) Build() (*Factory, error) {
	const op = "dataservice.Build"
	errs := append([]error(nil), r.errs...)
	if r.uows == nil {
		errs = append(errs, errors.New("unit of work factory is required"))
	}
	if r.mapper == nil {
		errs = append(errs, errors.New("mapper is required"))
	}
	check := func(what string, o registrationOptions) {
		if o.lifetime != Transient && o.lifetime != Scoped {
			errs = append(errs, fmt.Errorf("%s: unsupported %s", what, o.lifetime))
		}
		for _, si := range o.interceptors {
			if si.ic == nil {
				errs = append(errs, fmt.Errorf("%s: nil interceptor", what))
			}
		}
	}
	check("registry", r.global)
	for typ, e := range r.entities {
		check(typ.String(), e.opts)
	}
	for typ, s := range r.services {
		check(typ.String(), s.opts)
	}
	if len(errs) > 0 {
		return nil, dataerr.Configuration(op, errors.Join(errs...).Error())
	}
	r.built = true
	return &Factory{reg: r}, nil
}

func (r *Registry) interceptorsFor(k kind, own registrationOptions) []Interceptor {
	var out []Interceptor
	for _, list := range [][]scopedInterceptor{r.global.interceptors, own.interceptors} {
		for _, si := range list {
			if si.target.matches(k) {
				out = append(out, si.ic)
			}
		}
	}
	return out
}

// Collections returns the registered collections in sorted order.
func (r *Registry) Collections() []string {
	out := make([]string, 0, len(r.entities))
	for _, e := range r.entities {
		out = append(out, e.collection)
	}
	sort.Strings(out)
	return out
}

package mapper

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/jinzhu/copier"
)

var (
	ErrNoMapping   = errors.New("no mapping configured")
	ErrNilSource   = errors.New("mapping source is nil")
	ErrDestination = errors.New("mapping destination must be a non-nil pointer")
	ErrNotSlice    = errors.New("mapping source is not a slice")
)

type Mapper interface {
	Map(src, dst any) error
}

type pair struct {
	src reflect.Type
	dst reflect.Type
}

type convertFunc func(src reflect.Value, dst reflect.Value) error

// Registry is a Mapper configured with explicit source/destination pairs.
// Pairs are declared at start-up; Map on an undeclared pair fails with ErrNoMapping.
type Registry struct {
	mu    sync.RWMutex
	pairs map[pair]convertFunc
}

func New() *Registry {
	return &Registry{pairs: make(map[pair]convertFunc)}
}

// Register declares a hand-written conversion from S to D.
func Register[S, D any](r *Registry, fn func(S) (D, error)) {
	r.add(reflect.TypeFor[S](), reflect.TypeFor[D](), func(src, dst reflect.Value) error {
		out, err := fn(src.Interface().(S))
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(&out).Elem())
		return nil
	})
}

// Auto declares a field-by-name conversion from S to D.
func Auto[S, D any](r *Registry) {
	r.add(reflect.TypeFor[S](), reflect.TypeFor[D](), func(src, dst reflect.Value) error {
		from := reflect.New(src.Type())
		from.Elem().Set(src)
		return copier.CopyWithOption(dst.Addr().Interface(), from.Interface(), copier.Option{DeepCopy: true})
	})
}

func (r *Registry) add(src, dst reflect.Type, fn convertFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs[pair{src: src, dst: dst}] = fn
}

// Has reports whether a conversion from src's type to D's type is declared.
func (r *Registry) Has(src, dst reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.pairs[pair{src: deref(src), dst: deref(dst)}]
	return ok
}

// Map converts src into the value dst points to. Pointer sources are dereferenced.
func (r *Registry) Map(src, dst any) error {
	dv := reflect.ValueOf(dst)
	if !dv.IsValid() || dv.Kind() != reflect.Pointer || dv.IsNil() {
		return ErrDestination
	}
	sv := reflect.ValueOf(src)
	for sv.IsValid() && sv.Kind() == reflect.Pointer {
		if sv.IsNil() {
			return ErrNilSource
		}
		sv = sv.Elem()
	}
	if !sv.IsValid() {
		return ErrNilSource
	}
	target := dv.Elem()

	r.mu.RLock()
	fn, ok := r.pairs[pair{src: sv.Type(), dst: target.Type()}]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrNoMapping, sv.Type(), target.Type())
	}
	if err := fn(sv, target); err != nil {
		return fmt.Errorf("map %s -> %s: %w", sv.Type(), target.Type(), err)
	}
	return nil
}

// To maps src into a fresh D.
func To[D any](m Mapper, src any) (D, error) {
	var out D
	if err := m.Map(src, &out); err != nil {
		return out, err
	}
	return out, nil
}

// SliceTo maps every element of the slice src into a D.
func SliceTo[D any](m Mapper, src any) ([]D, error) {
	var out []D
	if err := MapSlice(m, src, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MapSlice maps every element of the slice src into the slice dst points to,
// replacing its contents.
func MapSlice(m Mapper, src, dst any) error {
	sv := reflect.ValueOf(src)
	if !sv.IsValid() {
		return ErrNilSource
	}
	if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
		return fmt.Errorf("%w: %s", ErrNotSlice, sv.Type())
	}
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Pointer || dv.IsNil() || dv.Elem().Kind() != reflect.Slice {
		return ErrDestination
	}
	out := reflect.MakeSlice(dv.Elem().Type(), sv.Len(), sv.Len())
	for i := 0; i < sv.Len(); i++ {
		if err := m.Map(sv.Index(i).Interface(), out.Index(i).Addr().Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	dv.Elem().Set(out)
	return nil
}

func deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

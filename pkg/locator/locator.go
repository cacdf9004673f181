package locator

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"sort"
	"sync"

	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/security"
)

// Factory builds a fresh receiver for a unit.
type Factory func() (any, error)

// Unit is a located, instantiated handler unit.
type Unit struct {
	Name  string
	Value reflect.Value
	Kind  core.HandlerKind
}

// Stream returns the unit as a StreamHandler, or nil for typed units.
func (u *Unit) Stream() core.StreamHandler {
	if u.Kind != core.KindStreaming {
		return nil
	}
	return u.Value.Interface().(core.StreamHandler)
}

// Registry maps unit names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, factory Factory) error {
	if err := security.ValidateUnitName(name); err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}
	if factory == nil {
		return fmt.Errorf("register %q: factory cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("register %q: %w", name, core.ErrDuplicateUnit)
	}
	r.factories[name] = factory
	return nil
}

// RegisterFunc registers a function value as a unit. The function is its own
// callable; method names are not consulted for function units.
func (r *Registry) RegisterFunc(name string, fn any) error {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Errorf("register %q: unit must be a non-nil function", name)
	}
	return r.Register(name, func() (any, error) { return fn, nil })
}

// RegisterType registers T with a zero-argument constructor producing *T.
func RegisterType[T any](r *Registry, name string) error {
	return r.Register(name, func() (any, error) { return new(T), nil })
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered unit names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Locate instantiates the unit registered under name. Unknown names and
// factories that fail, return nil, or panic all yield ErrNotFound.
func (r *Registry) Locate(name string) (*Unit, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q is not registered", core.ErrNotFound, name)
	}

	instance, err := construct(factory)
	if err != nil {
		return nil, fmt.Errorf("%w: %q has no usable constructor: %v", core.ErrNotFound, name, err)
	}

	return newUnit(name, instance), nil
}

func construct(factory Factory) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("constructor panicked: %v", r)
		}
	}()

	instance, err = factory()
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, fmt.Errorf("constructor returned nil")
	}
	if v := reflect.ValueOf(instance); isNilable(v.Kind()) && v.IsNil() {
		return nil, fmt.Errorf("constructor returned a nil %s", v.Type())
	}
	return instance, nil
}

func newUnit(name string, instance any) *Unit {
	if fn, ok := instance.(func(context.Context, io.Reader, io.Writer) error); ok {
		instance = core.StreamHandlerFunc(fn)
	}

	kind := core.KindTyped
	if _, ok := instance.(core.StreamHandler); ok {
		kind = core.KindStreaming
	}
	return &Unit{Name: name, Value: reflect.ValueOf(instance), Kind: kind}
}

func isNilable(k reflect.Kind) bool {
	switch k {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return true
	}
	return false
}

package jsonstore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/morandi/jstore/pkg/dao"
	"github.com/morandi/jstore/pkg/logging"
)

// Builder constructs a store on first use. The factory passed in is the
// registry itself, so references declared by the built store can reach
// their foreign stores. Builders must not call back into the registry.
type Builder func(factory dao.Factory, log logging.Logger) (dao.Store, error)

// Registry is the capability-typed store factory: names registered up
// front, stores constructed lazily and cached, one instance per name.
type Registry struct {
	mu       sync.Mutex
	builders map[string]Builder
	stores   map[string]dao.Store
	log      logging.Logger
}

func NewRegistry(log logging.Logger) *Registry {
	if log == nil {
		log = logging.Nop{}
	}
	return &Registry{
		builders: map[string]Builder{},
		stores:   map[string]dao.Store{},
		log:      log,
	}
}

// Register adds a named builder.
func (r *Registry) Register(name string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[name] = b
}

// Names returns the registered store names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Store returns the store for a name, constructing it on first use.
func (r *Registry) Store(name string) (dao.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[name]; ok {
		return s, nil
	}
	b, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("store %q not registered", name)
	}
	s, err := b(r, r.log)
	if err != nil {
		return nil, fmt.Errorf("building store %q: %w", name, err)
	}
	r.stores[name] = s
	return s, nil
}

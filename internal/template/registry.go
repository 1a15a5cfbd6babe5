package template

import (
	"sort"
	"sync"

	"github.com/forgelab/packforge/internal/errors"
)

// Category identifies which section of the template a registry feeds.
type Category string

const (
	CategoryBuilder       Category = "builder"
	CategoryProvisioner   Category = "provisioner"
	CategoryPostProcessor Category = "post-processor"
)

// Registry maps Packer type tags to record constructors for one agent
// category. Registration happens at init() time; lookups are exact string
// matches.
type Registry struct {
	category Category
	mu       sync.RWMutex
	ctors    map[string]func() *Record
}

// NewRegistry returns an empty registry for the given category.
func NewRegistry(category Category) *Registry {
	return &Registry{
		category: category,
		ctors:    make(map[string]func() *Record),
	}
}

// Category returns the agent category this registry serves.
func (r *Registry) Category() Category {
	return r.category
}

// Register adds a constructor for tag. Duplicate registrations are ignored.
func (r *Registry) Register(tag string, ctor func() *Record) {
	if tag == "" || ctor == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctors[tag]; exists {
		return
	}
	r.ctors[tag] = ctor
}

// Create instantiates a record for tag with the discriminator preset. An
// unregistered tag yields a template error naming the tag and category.
func (r *Registry) Create(tag string) (*Record, error) {
	r.mu.RLock()
	ctor := r.ctors[tag]
	r.mu.RUnlock()
	if ctor == nil {
		return nil, errors.UnknownType(string(r.category), tag)
	}
	return ctor(), nil
}

// Known reports whether tag is registered.
func (r *Registry) Known(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[tag]
	return ok
}

// Tags returns the registered tags in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.ctors))
	for tag := range r.ctors {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

var (
	builderRegistry       = NewRegistry(CategoryBuilder)
	provisionerRegistry   = NewRegistry(CategoryProvisioner)
	postProcessorRegistry = NewRegistry(CategoryPostProcessor)
)

// Builders returns the process-wide builder registry.
func Builders() *Registry { return builderRegistry }

// Provisioners returns the process-wide provisioner registry.
func Provisioners() *Registry { return provisionerRegistry }

// PostProcessors returns the process-wide post-processor registry.
func PostProcessors() *Registry { return postProcessorRegistry }

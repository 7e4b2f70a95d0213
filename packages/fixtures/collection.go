package fixtures

import (
	"sort"
	"sync"
)

// Collection is a named key/value bag that refuses to return a value for a
// key that was never set. Two collections are the same only if they are the
// same pointer.
type Collection struct {
	name string

	mu    sync.RWMutex
	data  map[any]any
	order []any
}

// NewCollection creates an empty collection. The name only appears in error
// messages.
func NewCollection(name string) *Collection {
	return &Collection{
		name: name,
		data: make(map[any]any),
	}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Set stores value under key, overwriting any previous value. Keys must be
// comparable.
func (c *Collection) Set(key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; !ok {
		c.order = append(c.order, key)
	}
	c.data[key] = value
}

// Get returns the value stored under key.
func (c *Collection) Get(key any) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	if !ok {
		return nil, &UnknownKeyError{Collection: c.name, Key: key}
	}
	return v, nil
}

// MustGet is Get for test code that wants to stop at the first missing key.
func (c *Collection) MustGet(key any) any {
	v, err := c.Get(key)
	if err != nil {
		panic(err)
	}
	return v
}

// GetMany returns the values for keys in the order requested.
func (c *Collection) GetMany(keys ...any) ([]any, error) {
	values := make([]any, 0, len(keys))
	for _, k := range keys {
		v, err := c.Get(k)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// Has reports whether key was set.
func (c *Collection) Has(key any) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.data[key]
	return ok
}

// Len returns the number of keys set.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Keys returns the keys in the order they were first set.
func (c *Collection) Keys() []any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]any(nil), c.order...)
}

// Registry creates collections lazily, one per name.
type Registry struct {
	mu          sync.Mutex
	collections map[string]*Collection
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{collections: make(map[string]*Collection)}
}

// Get returns the collection for name, creating it on first access.
// Concurrent callers asking for the same name get the same pointer.
func (r *Registry) Get(name string) *Collection {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.collections[name]; ok {
		return c
	}
	c := NewCollection(name)
	r.collections[name] = c
	return c
}

// Names returns the names of the collections created so far, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

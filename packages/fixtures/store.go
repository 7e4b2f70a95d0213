package fixtures

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Store persists a Registry so a later process can pick up fixtures set by
// an earlier one.
type Store interface {
	// Save writes every collection in r. Existing entries with the same
	// collection and key are replaced.
	Save(r *Registry) error
	// Load sets every persisted entry into r.
	Load(r *Registry) error
	Close() error
}

// OpenStore creates the configured store backend.
func OpenStore(kind, path string) (Store, error) {
	kind = strings.TrimSpace(strings.ToLower(kind))

	switch kind {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "sqlite", "sqlite3":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("sqlite fixture store requires a path")
		}
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "bbolt", "bolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt fixture store requires a path")
		}
		b, err := NewBoltStore(path)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported fixture store %q", kind)
	}
}

type noopStore struct{}

func (noopStore) Save(*Registry) error { return nil }
func (noopStore) Load(*Registry) error { return nil }
func (noopStore) Close() error         { return nil }

// entry is one persisted value. Values travel as JSON, so numbers come back
// as float64 and structs as map[string]any.
type entry struct {
	collection string
	key        string
	value      []byte
}

func snapshot(r *Registry) ([]entry, error) {
	var entries []entry
	for _, name := range r.Names() {
		c := r.Get(name)
		for _, k := range c.Keys() {
			key, ok := k.(string)
			if !ok || key == "" || name == "" {
				return nil, fmt.Errorf("%w: %s[%#v]", ErrUnpersistableKey, name, k)
			}
			v, _ := c.Get(k)
			data, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode %s[%q]: %w", name, key, err)
			}
			entries = append(entries, entry{collection: name, key: key, value: data})
		}
	}
	return entries, nil
}

func restore(r *Registry, e entry) error {
	var v any
	if err := json.Unmarshal(e.value, &v); err != nil {
		return fmt.Errorf("decode %s[%q]: %w", e.collection, e.key, err)
	}
	r.Get(e.collection).Set(e.key, v)
	return nil
}

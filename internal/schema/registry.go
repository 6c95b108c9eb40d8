package schema

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[RecordType]Schema)
	registryMu sync.RWMutex
)

// Register adds a schema to the registry.
// Panics if a schema with the same record type is already registered.
func Register(s Schema) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[s.Type]; exists {
		panic(fmt.Sprintf("schema already registered: %s", s.Type))
	}
	if s.Label == "" {
		s.Label = string(s.Type)
	}

	registry[s.Type] = s
}

// Get returns a schema by record type.
// Returns false if not found.
func Get(rt RecordType) (Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	s, ok := registry[rt]
	return s, ok
}

// Lookup is Get with an error suitable for returning to callers.
func Lookup(rt RecordType) (Schema, error) {
	s, ok := Get(rt)
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownRecordType, rt)
	}
	return s, nil
}

// GetSchema returns the ordered field specs for a record type.
// Unknown record types yield nil.
func GetSchema(rt RecordType) []FieldSpec {
	s, ok := Get(rt)
	if !ok {
		return nil
	}
	return s.Fields
}

// All returns all registered schemas sorted by record type.
func All() []Schema {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Schema, 0, len(registry))
	for _, s := range registry {
		result = append(result, s)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Type < result[j].Type
	})

	return result
}

// Types returns every registered record type, sorted.
func Types() []RecordType {
	all := All()
	types := make([]RecordType, len(all))
	for i, s := range all {
		types[i] = s.Type
	}
	return types
}

// Clear removes all registered schemas.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[RecordType]Schema)
}

package cim

import (
	"encoding/json"
	"iter"
	"strings"
)

// Named is implemented by every element that lives in a NameMap.
type Named interface {
	ElementName() string
}

// NameMap is an ordered mapping from element name to element. Lookups are
// case-insensitive; the name casing of the first insertion is preserved and
// iteration follows insertion order, as DSP0004 requires for class elements.
type NameMap[T Named] struct {
	order []string     // lower-cased keys in insertion order
	items map[string]T // lower-cased key -> element
}

// NewNameMap creates an empty NameMap.
func NewNameMap[T Named]() *NameMap[T] {
	return &NameMap[T]{items: make(map[string]T)}
}

// Len returns the number of elements.
func (m *NameMap[T]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Has reports whether an element with the given name exists.
func (m *NameMap[T]) Has(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.items[strings.ToLower(name)]
	return ok
}

// Get returns the element with the given name.
func (m *NameMap[T]) Get(name string) (T, bool) {
	var zero T
	if m == nil {
		return zero, false
	}
	v, ok := m.items[strings.ToLower(name)]
	if !ok {
		return zero, false
	}
	return v, true
}

// Set inserts or replaces the element under its own name. Replacing keeps
// the original insertion position.
func (m *NameMap[T]) Set(v T) {
	key := strings.ToLower(v.ElementName())
	if _, ok := m.items[key]; !ok {
		m.order = append(m.order, key)
	}
	m.items[key] = v
}

// Delete removes the named element and reports whether it was present.
func (m *NameMap[T]) Delete(name string) bool {
	key := strings.ToLower(name)
	if _, ok := m.items[key]; !ok {
		return false
	}
	delete(m.items, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Names returns the element names (original casing) in insertion order.
func (m *NameMap[T]) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.order))
	for _, k := range m.order {
		names = append(names, m.items[k].ElementName())
	}
	return names
}

// All iterates the elements in insertion order.
func (m *NameMap[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if m == nil {
			return
		}
		for _, k := range m.order {
			if !yield(m.items[k]) {
				return
			}
		}
	}
}

// CopyWith returns a new NameMap whose elements were produced by clone.
func (m *NameMap[T]) CopyWith(clone func(T) T) *NameMap[T] {
	out := NewNameMap[T]()
	if m == nil {
		return out
	}
	for _, k := range m.order {
		out.Set(clone(m.items[k]))
	}
	return out
}

// MarshalJSON encodes the elements as a JSON array in insertion order.
func (m *NameMap[T]) MarshalJSON() ([]byte, error) {
	items := make([]T, 0, m.Len())
	for v := range m.All() {
		items = append(items, v)
	}
	return json.Marshal(items)
}

// UnmarshalJSON decodes a JSON array of elements, keyed by their names.
func (m *NameMap[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	m.order = nil
	m.items = make(map[string]T, len(items))
	for _, v := range items {
		m.Set(v)
	}
	return nil
}

// Package memory is the in-memory implementation of the object stores. It is
// the only store implementation: the repository holds no durable state.
package memory

import (
	"iter"
	"strings"

	"github.com/cimlab/wbemsim/internal/cim"
)

// table is the shared keyed container behind every store: case-insensitive
// keys, original casing preserved, insertion order kept for deterministic
// iteration.
type table[T any] struct {
	order []string
	items map[string]entry[T]
	clone func(T) T
	kind  string
}

type entry[T any] struct {
	name string // original casing
	obj  T
}

func newTable[T any](kind string, clone func(T) T) *table[T] {
	return &table[T]{items: make(map[string]entry[T]), clone: clone, kind: kind}
}

func (t *table[T]) exists(key string) bool {
	_, ok := t.items[strings.ToLower(key)]
	return ok
}

func (t *table[T]) get(key string, copy bool) (T, error) {
	e, ok := t.items[strings.ToLower(key)]
	if !ok {
		var zero T
		return zero, cim.Errorf(cim.StatusNotFound, "%s %q not found", t.kind, key)
	}
	if copy {
		return t.clone(e.obj), nil
	}
	return e.obj, nil
}

func (t *table[T]) create(key string, obj T) error {
	lower := strings.ToLower(key)
	if _, ok := t.items[lower]; ok {
		return cim.Errorf(cim.StatusAlreadyExists, "%s %q already exists", t.kind, key)
	}
	t.items[lower] = entry[T]{name: key, obj: t.clone(obj)}
	t.order = append(t.order, lower)
	return nil
}

func (t *table[T]) update(key string, obj T) error {
	lower := strings.ToLower(key)
	e, ok := t.items[lower]
	if !ok {
		return cim.Errorf(cim.StatusNotFound, "%s %q not found", t.kind, key)
	}
	t.items[lower] = entry[T]{name: e.name, obj: t.clone(obj)}
	return nil
}

func (t *table[T]) delete(key string) error {
	lower := strings.ToLower(key)
	if _, ok := t.items[lower]; !ok {
		return cim.Errorf(cim.StatusNotFound, "%s %q not found", t.kind, key)
	}
	delete(t.items, lower)
	for i, k := range t.order {
		if k == lower {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

func (t *table[T]) len() int { return len(t.order) }

func (t *table[T]) names() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, k := range t.order {
			if !yield(t.items[k].name) {
				return
			}
		}
	}
}

func (t *table[T]) values(copy bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, k := range t.order {
			obj := t.items[k].obj
			if copy {
				obj = t.clone(obj)
			}
			if !yield(obj) {
				return
			}
		}
	}
}

// ClassStore is the in-memory class store of one namespace.
type ClassStore struct {
	t *table[*cim.Class]
}

// NewClassStore creates an empty class store.
func NewClassStore() *ClassStore {
	return &ClassStore{t: newTable("class", (*cim.Class).DeepCopy)}
}

func (s *ClassStore) Exists(name string) bool              { return s.t.exists(name) }
func (s *ClassStore) Get(name string) (*cim.Class, error)  { return s.t.get(name, true) }
func (s *ClassStore) Peek(name string) (*cim.Class, error) { return s.t.get(name, false) }
func (s *ClassStore) Create(cls *cim.Class) error          { return s.t.create(cls.ClassName, cls) }
func (s *ClassStore) Update(cls *cim.Class) error          { return s.t.update(cls.ClassName, cls) }
func (s *ClassStore) Delete(name string) error             { return s.t.delete(name) }
func (s *ClassStore) Len() int                             { return s.t.len() }
func (s *ClassStore) Names() iter.Seq[string]              { return s.t.names() }
func (s *ClassStore) Classes() iter.Seq[*cim.Class]        { return s.t.values(true) }
func (s *ClassStore) PeekClasses() iter.Seq[*cim.Class]    { return s.t.values(false) }

// QualifierStore is the in-memory qualifier-declaration store of one
// namespace.
type QualifierStore struct {
	t *table[*cim.QualifierDeclaration]
}

// NewQualifierStore creates an empty qualifier store.
func NewQualifierStore() *QualifierStore {
	return &QualifierStore{t: newTable("qualifier", (*cim.QualifierDeclaration).DeepCopy)}
}

func (s *QualifierStore) Exists(name string) bool { return s.t.exists(name) }
func (s *QualifierStore) Get(name string) (*cim.QualifierDeclaration, error) {
	return s.t.get(name, true)
}
func (s *QualifierStore) Peek(name string) (*cim.QualifierDeclaration, error) {
	return s.t.get(name, false)
}
func (s *QualifierStore) Create(decl *cim.QualifierDeclaration) error {
	return s.t.create(decl.Name, decl)
}
func (s *QualifierStore) Update(decl *cim.QualifierDeclaration) error {
	return s.t.update(decl.Name, decl)
}
func (s *QualifierStore) Delete(name string) error { return s.t.delete(name) }
func (s *QualifierStore) Len() int                 { return s.t.len() }
func (s *QualifierStore) Names() iter.Seq[string]  { return s.t.names() }
func (s *QualifierStore) Declarations() iter.Seq[*cim.QualifierDeclaration] {
	return s.t.values(true)
}

// InstanceStore is the in-memory instance store of one namespace, keyed by
// the canonical form of the instance path.
type InstanceStore struct {
	t *table[*cim.Instance]
}

// NewInstanceStore creates an empty instance store.
func NewInstanceStore() *InstanceStore {
	return &InstanceStore{t: newTable("instance", (*cim.Instance).DeepCopy)}
}

func (s *InstanceStore) Exists(path *cim.InstancePath) bool {
	return s.t.exists(path.Canonical())
}

func (s *InstanceStore) Get(path *cim.InstancePath) (*cim.Instance, error) {
	return s.getInstance(path, true)
}

func (s *InstanceStore) Peek(path *cim.InstancePath) (*cim.Instance, error) {
	return s.getInstance(path, false)
}

func (s *InstanceStore) getInstance(path *cim.InstancePath, copy bool) (*cim.Instance, error) {
	inst, err := s.t.get(path.Canonical(), copy)
	if err != nil {
		return nil, cim.Errorf(cim.StatusNotFound, "instance %s not found", path)
	}
	return inst, nil
}

func (s *InstanceStore) Create(inst *cim.Instance) error {
	if inst.Path == nil {
		return cim.Errorf(cim.StatusInvalidParameter, "instance of class %q has no path", inst.ClassName)
	}
	if err := s.t.create(inst.Path.Canonical(), inst); err != nil {
		return cim.Errorf(cim.StatusAlreadyExists, "instance %s already exists", inst.Path)
	}
	return nil
}

func (s *InstanceStore) Update(inst *cim.Instance) error {
	if inst.Path == nil {
		return cim.Errorf(cim.StatusInvalidParameter, "instance of class %q has no path", inst.ClassName)
	}
	if err := s.t.update(inst.Path.Canonical(), inst); err != nil {
		return cim.Errorf(cim.StatusNotFound, "instance %s not found", inst.Path)
	}
	return nil
}

func (s *InstanceStore) Delete(path *cim.InstancePath) error {
	if err := s.t.delete(path.Canonical()); err != nil {
		return cim.Errorf(cim.StatusNotFound, "instance %s not found", path)
	}
	return nil
}

func (s *InstanceStore) Len() int { return s.t.len() }

// Paths iterates copies of the stored instance paths.
func (s *InstanceStore) Paths() iter.Seq[*cim.InstancePath] {
	return func(yield func(*cim.InstancePath) bool) {
		for inst := range s.t.values(false) {
			if !yield(inst.Path.DeepCopy()) {
				return
			}
		}
	}
}

func (s *InstanceStore) Instances() iter.Seq[*cim.Instance] { return s.t.values(true) }

func (s *InstanceStore) PeekInstances() iter.Seq[*cim.Instance] { return s.t.values(false) }

// Package repository owns the namespaces of a simulated CIM object manager.
// Each namespace holds one class store, one instance store and one qualifier
// store; all state is in-memory and process-lifetime.
package repository

import (
	"iter"
	"strings"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/storage"
	"github.com/cimlab/wbemsim/internal/storage/memory"
)

// namespaceStores is the store triple of one namespace.
type namespaceStores struct {
	name       string // original casing
	classes    *memory.ClassStore
	instances  *memory.InstanceStore
	qualifiers *memory.QualifierStore
}

func newNamespaceStores(name string) *namespaceStores {
	return &namespaceStores{
		name:       name,
		classes:    memory.NewClassStore(),
		instances:  memory.NewInstanceStore(),
		qualifiers: memory.NewQualifierStore(),
	}
}

// Repository maps namespace names (case-insensitive) to their store triples.
// It is not safe for concurrent use on its own; the operation processor
// serializes access with a single coarse lock.
type Repository struct {
	defaultNamespace string
	namespaces       map[string]*namespaceStores // lower-cased name
	order            []string
}

// New creates a repository holding only the connection's default namespace.
// That namespace exists for the repository's whole lifetime and can never be
// removed.
func New(defaultNamespace string) *Repository {
	defaultNamespace = cim.NormalizeNamespace(defaultNamespace)
	r := &Repository{
		defaultNamespace: defaultNamespace,
		namespaces:       make(map[string]*namespaceStores),
	}
	// The default namespace cannot fail to be created on an empty map.
	_ = r.AddNamespace(defaultNamespace)
	return r
}

// DefaultNamespace returns the connection default namespace.
func (r *Repository) DefaultNamespace() string { return r.defaultNamespace }

// AddNamespace creates a new, empty namespace. Leading and trailing path
// separators are stripped from the name before use.
func (r *Repository) AddNamespace(namespace string) error {
	namespace = cim.NormalizeNamespace(namespace)
	if namespace == "" {
		return cim.Errorf(cim.StatusInvalidParameter, "namespace name must not be empty")
	}
	lower := strings.ToLower(namespace)
	if _, ok := r.namespaces[lower]; ok {
		return cim.Errorf(cim.StatusAlreadyExists, "namespace %q already exists", namespace)
	}
	r.namespaces[lower] = newNamespaceStores(namespace)
	r.order = append(r.order, lower)
	return nil
}

// RemoveNamespace deletes an existing namespace. The namespace must be empty
// and must not be the default namespace.
func (r *Repository) RemoveNamespace(namespace string) error {
	namespace = cim.NormalizeNamespace(namespace)
	lower := strings.ToLower(namespace)
	ns, ok := r.namespaces[lower]
	if !ok {
		return cim.Errorf(cim.StatusNotFound, "namespace %q not found", namespace)
	}
	if strings.EqualFold(namespace, r.defaultNamespace) {
		return cim.Errorf(cim.StatusInvalidNamespace,
			"namespace %q is the connection default namespace and cannot be removed", namespace)
	}
	if ns.classes.Len() > 0 || ns.instances.Len() > 0 || ns.qualifiers.Len() > 0 {
		return cim.Errorf(cim.StatusNamespaceNotEmpty, "namespace %q is not empty", namespace)
	}
	delete(r.namespaces, lower)
	for i, k := range r.order {
		if k == lower {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ValidateNamespace fails with CIM_ERR_INVALID_NAMESPACE when the namespace
// does not exist. Every operation calls this on entry.
func (r *Repository) ValidateNamespace(namespace string) error {
	_, err := r.stores(namespace)
	return err
}

func (r *Repository) stores(namespace string) (*namespaceStores, error) {
	lower := strings.ToLower(cim.NormalizeNamespace(namespace))
	ns, ok := r.namespaces[lower]
	if !ok {
		return nil, cim.Errorf(cim.StatusInvalidNamespace, "namespace %q does not exist", namespace)
	}
	return ns, nil
}

// ClassStore returns the class store of the namespace.
func (r *Repository) ClassStore(namespace string) (storage.ClassStore, error) {
	ns, err := r.stores(namespace)
	if err != nil {
		return nil, err
	}
	return ns.classes, nil
}

// InstanceStore returns the instance store of the namespace.
func (r *Repository) InstanceStore(namespace string) (storage.InstanceStore, error) {
	ns, err := r.stores(namespace)
	if err != nil {
		return nil, err
	}
	return ns.instances, nil
}

// QualifierStore returns the qualifier-declaration store of the namespace.
func (r *Repository) QualifierStore(namespace string) (storage.QualifierStore, error) {
	ns, err := r.stores(namespace)
	if err != nil {
		return nil, err
	}
	return ns.qualifiers, nil
}

// Namespaces iterates the namespace names (original casing) lazily, in
// creation order.
func (r *Repository) Namespaces() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, k := range r.order {
			if !yield(r.namespaces[k].name) {
				return
			}
		}
	}
}

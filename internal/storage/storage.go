// Package storage defines the per-namespace object-store contracts. Keys
// compare case-insensitively; every Get and value iteration returns a deep
// copy so a caller's mutation can never corrupt the stored object. Peek
// variants return the stored object for read-only internal use.
package storage

import (
	"iter"

	"github.com/cimlab/wbemsim/internal/cim"
)

// ClassStore holds the classes of one namespace, keyed by class name.
type ClassStore interface {
	Exists(name string) bool
	Get(name string) (*cim.Class, error)
	Peek(name string) (*cim.Class, error)
	Create(cls *cim.Class) error
	Update(cls *cim.Class) error
	Delete(name string) error
	Len() int

	// Names iterates stored class names (original casing) lazily.
	Names() iter.Seq[string]
	// Classes iterates deep copies of the stored classes.
	Classes() iter.Seq[*cim.Class]
	// PeekClasses iterates the stored classes without copying, for
	// read-only traversal such as subclass graph walks.
	PeekClasses() iter.Seq[*cim.Class]
}

// QualifierStore holds the qualifier declarations of one namespace.
type QualifierStore interface {
	Exists(name string) bool
	Get(name string) (*cim.QualifierDeclaration, error)
	Peek(name string) (*cim.QualifierDeclaration, error)
	Create(decl *cim.QualifierDeclaration) error
	Update(decl *cim.QualifierDeclaration) error
	Delete(name string) error
	Len() int

	Names() iter.Seq[string]
	Declarations() iter.Seq[*cim.QualifierDeclaration]
}

// InstanceStore holds the instances of one namespace, keyed by instance
// path. Path iteration copies the paths: key bindings are mutable.
type InstanceStore interface {
	Exists(path *cim.InstancePath) bool
	Get(path *cim.InstancePath) (*cim.Instance, error)
	Peek(path *cim.InstancePath) (*cim.Instance, error)
	Create(inst *cim.Instance) error
	Update(inst *cim.Instance) error
	Delete(path *cim.InstancePath) error
	Len() int

	Paths() iter.Seq[*cim.InstancePath]
	Instances() iter.Seq[*cim.Instance]
	PeekInstances() iter.Seq[*cim.Instance]
}

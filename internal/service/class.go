package service

import (
	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/storage"
)

// GetClassParams are the DSP0200 parameters of GetClass.
type GetClassParams struct {
	LocalOnly          bool
	IncludeQualifiers  bool
	IncludeClassOrigin bool
	// PropertyList: nil means all properties, an empty list means none.
	PropertyList []string
}

// GetClass returns the named class in resolved, filtered form.
func (p *Processor) GetClass(namespace, className string, params GetClassParams) (*cim.Class, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cs, err := p.repo.ClassStore(namespace)
	if err != nil {
		return nil, err
	}
	cls, err := cs.Get(className)
	if err != nil {
		return nil, err
	}
	filterClass(cls, params.LocalOnly, params.IncludeQualifiers, params.IncludeClassOrigin, params.PropertyList)
	return cls, nil
}

// EnumerateClassesParams are the DSP0200 parameters of EnumerateClasses.
type EnumerateClassesParams struct {
	ClassName          string // "" enumerates from the root
	DeepInheritance    bool
	LocalOnly          bool
	IncludeQualifiers  bool
	IncludeClassOrigin bool
}

// EnumerateClasses returns the subclasses of the starting class (or the
// top-level classes), resolved and filtered.
func (p *Processor) EnumerateClasses(namespace string, params EnumerateClassesParams) ([]*cim.Class, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cs, err := p.repo.ClassStore(namespace)
	if err != nil {
		return nil, err
	}
	names, err := enumClassNames(cs, params.ClassName, params.DeepInheritance)
	if err != nil {
		return nil, err
	}
	classes := make([]*cim.Class, 0, len(names))
	for _, name := range names {
		cls, err := cs.Get(name)
		if err != nil {
			return nil, err
		}
		filterClass(cls, params.LocalOnly, params.IncludeQualifiers, params.IncludeClassOrigin, nil)
		classes = append(classes, cls)
	}
	return classes, nil
}

// EnumerateClassNames returns the names of the subclasses of the starting
// class, or the top-level class names when className is "".
func (p *Processor) EnumerateClassNames(namespace, className string, deepInheritance bool) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cs, err := p.repo.ClassStore(namespace)
	if err != nil {
		return nil, err
	}
	return enumClassNames(cs, className, deepInheritance)
}

func enumClassNames(cs storage.ClassStore, className string, deep bool) ([]string, error) {
	if className != "" && !cs.Exists(className) {
		return nil, cim.Errorf(cim.StatusInvalidClass, "class %q does not exist", className)
	}
	return subclassNames(cs, className, deep), nil
}

// CreateClass resolves and stores a new class. The class must not exist and
// its superclass, when named, must already be stored.
func (p *Processor) CreateClass(namespace string, cls *cim.Class) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cls == nil || cls.ClassName == "" {
		return cim.Errorf(cim.StatusInvalidParameter, "class has no name")
	}
	cs, _, qs, err := p.stores(namespace)
	if err != nil {
		return err
	}
	if cs.Exists(cls.ClassName) {
		return cim.Errorf(cim.StatusAlreadyExists, "class %q already exists", cls.ClassName)
	}
	resolved, err := p.resolver.Resolve(cls, cs, qs)
	if err != nil {
		return err
	}
	return cs.Create(resolved)
}

// ModifyClass is not supported: the repository does not implement subclass
// and instance revalidation against a changed superclass.
func (p *Processor) ModifyClass(namespace string, cls *cim.Class) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.repo.ValidateNamespace(namespace); err != nil {
		return err
	}
	return cim.Errorf(cim.StatusNotSupported, "ModifyClass is not supported")
}

// DeleteClass deletes the class, every subclass of it, and all instances of
// each deleted class.
func (p *Processor) DeleteClass(namespace, className string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cs, is, _, err := p.stores(namespace)
	if err != nil {
		return err
	}
	if !cs.Exists(className) {
		return cim.Errorf(cim.StatusNotFound, "class %q not found", className)
	}

	doomed := append([]string{className}, subclassNames(cs, className, true)...)
	for _, name := range doomed {
		var paths []*cim.InstancePath
		for path := range is.Paths() {
			if cim.NameEqual(path.ClassName, name) {
				paths = append(paths, path)
			}
		}
		for _, path := range paths {
			if err := is.Delete(path); err != nil {
				return err
			}
		}
		if err := cs.Delete(name); err != nil {
			return err
		}
	}
	return nil
}

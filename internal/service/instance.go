package service

import (
	"strings"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/storage"
)

// GetInstanceParams are the DSP0200 parameters of GetInstance.
type GetInstanceParams struct {
	LocalOnly          bool
	IncludeQualifiers  bool
	IncludeClassOrigin bool
	PropertyList       []string
}

// GetInstance returns the instance addressed by path, filtered.
func (p *Processor) GetInstance(path *cim.InstancePath, params GetInstanceParams) (*cim.Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	is, err := p.repo.InstanceStore(path.Namespace)
	if err != nil {
		return nil, err
	}
	inst, err := is.Get(path)
	if err != nil {
		return nil, err
	}
	filterInstance(inst, params.LocalOnly, params.IncludeQualifiers, params.IncludeClassOrigin, params.PropertyList)
	return inst, nil
}

// EnumerateInstancesParams are the DSP0200 parameters of EnumerateInstances.
type EnumerateInstancesParams struct {
	DeepInheritance    bool
	LocalOnly          bool
	IncludeQualifiers  bool
	IncludeClassOrigin bool
	PropertyList       []string
}

// EnumerateInstances returns the instances of the class and all of its
// subclasses. With DeepInheritance=false the returned properties are
// restricted to the target class's own property set, so subclass-only
// properties are excluded even though subclass instances are included.
func (p *Processor) EnumerateInstances(namespace, className string, params EnumerateInstancesParams) ([]*cim.Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enumerateInstances(namespace, className, params)
}

// EnumerateInstanceNames returns the paths of the instances of the class and
// all of its subclasses.
func (p *Processor) EnumerateInstanceNames(namespace, className string) ([]*cim.InstancePath, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enumerateInstanceNames(namespace, className)
}

// enumerateInstanceNames is the lock-free core, shared with the pull-style
// open operations.
func (p *Processor) enumerateInstanceNames(namespace, className string) ([]*cim.InstancePath, error) {
	cs, is, _, err := p.stores(namespace)
	if err != nil {
		return nil, err
	}
	if !cs.Exists(className) {
		return nil, cim.Errorf(cim.StatusInvalidClass, "class %q does not exist", className)
	}
	classSet := map[string]bool{strings.ToLower(className): true}
	for _, name := range subclassNames(cs, className, true) {
		classSet[strings.ToLower(name)] = true
	}
	var out []*cim.InstancePath
	for path := range is.Paths() {
		if classSet[strings.ToLower(path.ClassName)] {
			path.Namespace = cim.NormalizeNamespace(namespace)
			out = append(out, path)
		}
	}
	return out, nil
}

// CreateInstance validates the new instance against its creation class,
// completes omitted properties from the class defaults, builds the instance
// path from the key properties and stores the instance. Instances of the
// reserved namespace classes implicitly create the namespace named by their
// Name property.
func (p *Processor) CreateInstance(namespace string, inst *cim.Instance) (*cim.InstancePath, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if inst == nil || inst.ClassName == "" {
		return nil, cim.Errorf(cim.StatusInvalidParameter, "instance has no class name")
	}
	cs, is, _, err := p.stores(namespace)
	if err != nil {
		return nil, err
	}
	cls, err := cs.Peek(inst.ClassName)
	if err != nil {
		return nil, cim.Errorf(cim.StatusInvalidClass,
			"creation class %q does not exist", inst.ClassName)
	}

	// Every supplied property must exist on the class with a matching
	// type; validation completes before the store is touched.
	for supplied := range inst.Properties.All() {
		decl, ok := cls.Properties.Get(supplied.Name)
		if !ok {
			return nil, cim.Errorf(cim.StatusInvalidParameter,
				"property %q is not declared by class %q", supplied.Name, cls.ClassName)
		}
		if supplied.Type != "" && supplied.Type != decl.Type {
			return nil, cim.Errorf(cim.StatusInvalidParameter,
				"property %q of class %q has type %s, declared as %s",
				supplied.Name, cls.ClassName, supplied.Type, decl.Type)
		}
		if !cim.ValueCompatible(supplied.Value, decl.Type, decl.IsArray) {
			return nil, cim.Errorf(cim.StatusInvalidParameter,
				"value of property %q is incompatible with type %s", supplied.Name, decl.Type)
		}
	}

	// Build the stored instance from the class property set: supplied
	// values where present, class defaults otherwise.
	stored := &cim.Instance{
		ClassName:  cls.ClassName,
		Properties: cim.NewNameMap[*cim.Property](),
	}
	for decl := range cls.Properties.All() {
		prop := decl.DeepCopy()
		if supplied, ok := inst.Properties.Get(decl.Name); ok {
			prop.Value = supplied.Value
		}
		stored.Properties.Set(prop)
	}

	path := &cim.InstancePath{
		Namespace: cim.NormalizeNamespace(namespace),
		ClassName: cls.ClassName,
	}
	for _, key := range cls.KeyProperties() {
		supplied, ok := inst.Properties.Get(key.Name)
		if !ok || supplied.Value == nil {
			return nil, cim.Errorf(cim.StatusInvalidParameter,
				"key property %q of class %q is missing from the new instance", key.Name, cls.ClassName)
		}
		path.Keys = append(path.Keys, cim.KeyBinding{Name: key.Name, Value: supplied.Value})
	}
	if len(path.Keys) == 0 {
		return nil, cim.Errorf(cim.StatusInvalidParameter,
			"class %q declares no key properties; its instances cannot be addressed", cls.ClassName)
	}
	stored.Path = path

	// The duplicate check runs before the namespace side effect so a
	// failing create leaves no namespace behind.
	if is.Exists(path) {
		return nil, cim.Errorf(cim.StatusAlreadyExists, "instance %s already exists", path)
	}

	if isNamespaceClass(cls.ClassName) {
		name, _ := stored.PropertyValue("Name")
		nsName, ok := name.(string)
		if !ok || nsName == "" {
			return nil, cim.Errorf(cim.StatusInvalidParameter,
				"instance of %q requires a string Name property", cls.ClassName)
		}
		if err := p.repo.AddNamespace(nsName); err != nil {
			return nil, err
		}
	}

	if err := is.Create(stored); err != nil {
		return nil, err
	}
	return path.DeepCopy(), nil
}

// ModifyInstance applies the differing, non-key properties of modified to
// the stored instance. Only properties named in propertyList are applied
// when it is non-nil. Key properties are immutable.
func (p *Processor) ModifyInstance(modified *cim.Instance, propertyList []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if modified == nil || modified.Path == nil {
		return cim.Errorf(cim.StatusInvalidParameter, "modified instance has no path")
	}
	if !cim.NameEqual(modified.ClassName, modified.Path.ClassName) {
		return cim.Errorf(cim.StatusInvalidParameter,
			"instance class %q does not match path class %q",
			modified.ClassName, modified.Path.ClassName)
	}
	cs, is, _, err := p.stores(modified.Path.Namespace)
	if err != nil {
		return err
	}
	cls, err := cs.Peek(modified.ClassName)
	if err != nil {
		return cim.Errorf(cim.StatusInvalidClass, "class %q does not exist", modified.ClassName)
	}
	stored, err := is.Get(modified.Path)
	if err != nil {
		return err
	}

	applied := propertySet(propertyList)
	changed := false
	for supplied := range modified.Properties.All() {
		if applied != nil && !applied[strings.ToLower(supplied.Name)] {
			continue
		}
		decl, ok := cls.Properties.Get(supplied.Name)
		if !ok {
			return cim.Errorf(cim.StatusInvalidParameter,
				"property %q is not declared by class %q", supplied.Name, cls.ClassName)
		}
		if supplied.Type != "" && supplied.Type != decl.Type {
			return cim.Errorf(cim.StatusInvalidParameter,
				"property %q of class %q has type %s, declared as %s",
				supplied.Name, cls.ClassName, supplied.Type, decl.Type)
		}
		if !cim.ValueCompatible(supplied.Value, decl.Type, decl.IsArray) {
			return cim.Errorf(cim.StatusInvalidParameter,
				"value of property %q is incompatible with type %s", supplied.Name, decl.Type)
		}

		current, _ := stored.PropertyValue(supplied.Name)
		if cim.ValueEqual(current, supplied.Value) {
			continue
		}
		if decl.IsKey() {
			return cim.Errorf(cim.StatusInvalidParameter,
				"key property %q of instance %s cannot be modified", supplied.Name, modified.Path)
		}
		target, _ := stored.Properties.Get(supplied.Name)
		target.Value = supplied.Value
		changed = true
	}

	if !changed {
		return nil
	}
	return is.Update(stored)
}

// DeleteInstance removes the instance addressed by path. Instances of the
// reserved namespace classes implicitly remove the namespace named by their
// Name property, which must be empty.
func (p *Processor) DeleteInstance(path *cim.InstancePath) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if path == nil {
		return cim.Errorf(cim.StatusInvalidParameter, "no instance path supplied")
	}
	is, err := p.repo.InstanceStore(path.Namespace)
	if err != nil {
		return err
	}

	if isNamespaceClass(path.ClassName) {
		inst, err := is.Peek(path)
		if err != nil {
			return err
		}
		name, _ := inst.PropertyValue("Name")
		if nsName, ok := name.(string); ok && nsName != "" {
			if err := p.repo.RemoveNamespace(nsName); err != nil {
				return err
			}
		}
	}
	return is.Delete(path)
}

func isNamespaceClass(className string) bool {
	for _, reserved := range namespaceClassNames {
		if cim.NameEqual(className, reserved) {
			return true
		}
	}
	return false
}

// enumerateInstances is the lock-free core of EnumerateInstances, shared
// with the pull-style open operations.
func (p *Processor) enumerateInstances(namespace, className string, params EnumerateInstancesParams) ([]*cim.Instance, error) {
	cs, is, _, err := p.stores(namespace)
	if err != nil {
		return nil, err
	}
	return enumerateInstancesOn(cs, is, namespace, className, params)
}

func enumerateInstancesOn(cs storage.ClassStore, is storage.InstanceStore, namespace, className string, params EnumerateInstancesParams) ([]*cim.Instance, error) {
	target, err := cs.Peek(className)
	if err != nil {
		return nil, cim.Errorf(cim.StatusInvalidClass, "class %q does not exist", className)
	}

	propertyList := params.PropertyList
	if !params.DeepInheritance {
		propertyList = intersectPropertyLists(target.Properties.Names(), params.PropertyList)
	}

	classSet := map[string]bool{strings.ToLower(className): true}
	for _, name := range subclassNames(cs, className, true) {
		classSet[strings.ToLower(name)] = true
	}

	var out []*cim.Instance
	for inst := range is.Instances() {
		if !classSet[strings.ToLower(inst.ClassName)] {
			continue
		}
		if inst.Path != nil && inst.Path.Namespace == "" {
			inst.Path.Namespace = cim.NormalizeNamespace(namespace)
		}
		filterInstance(inst, params.LocalOnly, params.IncludeQualifiers, params.IncludeClassOrigin, propertyList)
		out = append(out, inst)
	}
	return out, nil
}

package service

import (
	"strings"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/storage"
)

// AssocParams carries the DSP0200 traversal filters. AssocClass and
// ResultRole apply only to Associators/AssociatorNames; the zero value means
// "no filter". The object filters apply when full objects are returned.
type AssocParams struct {
	AssocClass  string
	ResultClass string
	Role        string
	ResultRole  string

	IncludeQualifiers  bool
	IncludeClassOrigin bool
	PropertyList       []string
}

// refMatch is one association hit: the association instance and the
// reference property through which the source was reached.
type refMatch struct {
	instance *cim.Instance // stored object, read-only
	role     string        // matched reference property name
}

// ReferenceNames returns the paths of the association objects that refer to
// the source: association instance paths for an instance source, class
// paths for a class source.
func (p *Processor) ReferenceNames(source cim.ObjectPath, params AssocParams) ([]cim.ObjectPath, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch src := source.(type) {
	case *cim.InstancePath:
		matches, err := p.referenceInstances(src, params)
		if err != nil {
			return nil, err
		}
		var out []cim.ObjectPath
		seen := make(map[string]bool)
		for _, m := range matches {
			canonical := m.instance.Path.Canonical()
			if seen[canonical] {
				continue
			}
			seen[canonical] = true
			path := m.instance.Path.DeepCopy()
			if path.Namespace == "" {
				path.Namespace = cim.NormalizeNamespace(src.Namespace)
			}
			out = append(out, path)
		}
		return out, nil
	case *cim.ClassPath:
		names, err := p.referenceClassNames(src, params)
		if err != nil {
			return nil, err
		}
		out := make([]cim.ObjectPath, 0, len(names))
		for _, name := range names {
			out = append(out, &cim.ClassPath{Namespace: cim.NormalizeNamespace(src.Namespace), ClassName: name})
		}
		return out, nil
	default:
		return nil, cim.Errorf(cim.StatusInvalidParameter, "unsupported object path")
	}
}

// References returns the association objects that refer to the source:
// association instances for an instance source, association classes for a
// class source. The result element type mirrors the source path type.
func (p *Processor) References(source cim.ObjectPath, params AssocParams) ([]*cim.Instance, []*cim.Class, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch src := source.(type) {
	case *cim.InstancePath:
		out, err := p.referenceInstanceObjects(src, params)
		if err != nil {
			return nil, nil, err
		}
		return out, nil, nil
	case *cim.ClassPath:
		names, err := p.referenceClassNames(src, params)
		if err != nil {
			return nil, nil, err
		}
		cs, err := p.repo.ClassStore(src.Namespace)
		if err != nil {
			return nil, nil, err
		}
		var out []*cim.Class
		for _, name := range names {
			cls, err := cs.Get(name)
			if err != nil {
				return nil, nil, err
			}
			filterClass(cls, false, params.IncludeQualifiers, params.IncludeClassOrigin, params.PropertyList)
			out = append(out, cls)
		}
		return nil, out, nil
	default:
		return nil, nil, cim.Errorf(cim.StatusInvalidParameter, "unsupported object path")
	}
}

// AssociatorNames returns the paths of the objects associated with the
// source through matching association objects.
func (p *Processor) AssociatorNames(source cim.ObjectPath, params AssocParams) ([]cim.ObjectPath, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch src := source.(type) {
	case *cim.InstancePath:
		paths, err := p.associatorPaths(src, params)
		if err != nil {
			return nil, err
		}
		out := make([]cim.ObjectPath, 0, len(paths))
		for _, path := range paths {
			out = append(out, path)
		}
		return out, nil
	case *cim.ClassPath:
		names, err := p.associatorClassNames(src, params)
		if err != nil {
			return nil, err
		}
		out := make([]cim.ObjectPath, 0, len(names))
		for _, name := range names {
			out = append(out, &cim.ClassPath{Namespace: cim.NormalizeNamespace(src.Namespace), ClassName: name})
		}
		return out, nil
	default:
		return nil, cim.Errorf(cim.StatusInvalidParameter, "unsupported object path")
	}
}

// Associators returns the objects associated with the source through
// matching association objects.
func (p *Processor) Associators(source cim.ObjectPath, params AssocParams) ([]*cim.Instance, []*cim.Class, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch src := source.(type) {
	case *cim.InstancePath:
		out, err := p.associatorInstanceObjects(src, params)
		if err != nil {
			return nil, nil, err
		}
		return out, nil, nil
	case *cim.ClassPath:
		names, err := p.associatorClassNames(src, params)
		if err != nil {
			return nil, nil, err
		}
		cs, err := p.repo.ClassStore(src.Namespace)
		if err != nil {
			return nil, nil, err
		}
		var out []*cim.Class
		for _, name := range names {
			cls, err := cs.Get(name)
			if err != nil {
				return nil, nil, err
			}
			filterClass(cls, false, params.IncludeQualifiers, params.IncludeClassOrigin, params.PropertyList)
			out = append(out, cls)
		}
		return nil, out, nil
	default:
		return nil, nil, cim.Errorf(cim.StatusInvalidParameter, "unsupported object path")
	}
}

// referenceInstanceObjects returns the matched association instances as
// filtered copies. Lock-free; shared with the pull-style open operations.
func (p *Processor) referenceInstanceObjects(source *cim.InstancePath, params AssocParams) ([]*cim.Instance, error) {
	matches, err := p.referenceInstances(source, params)
	if err != nil {
		return nil, err
	}
	var out []*cim.Instance
	seen := make(map[string]bool)
	for _, m := range matches {
		canonical := m.instance.Path.Canonical()
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		inst := m.instance.DeepCopy()
		if inst.Path.Namespace == "" {
			inst.Path.Namespace = cim.NormalizeNamespace(source.Namespace)
		}
		filterInstance(inst, false, params.IncludeQualifiers, params.IncludeClassOrigin, params.PropertyList)
		out = append(out, inst)
	}
	return out, nil
}

// associatorInstanceObjects returns the far-end instances as filtered
// copies. Lock-free; shared with the pull-style open operations.
func (p *Processor) associatorInstanceObjects(source *cim.InstancePath, params AssocParams) ([]*cim.Instance, error) {
	paths, err := p.associatorPaths(source, params)
	if err != nil {
		return nil, err
	}
	is, err := p.repo.InstanceStore(source.Namespace)
	if err != nil {
		return nil, err
	}
	var out []*cim.Instance
	for _, path := range paths {
		inst, err := is.Get(path)
		if err != nil {
			return nil, err
		}
		if inst.Path != nil && inst.Path.Namespace == "" {
			inst.Path.Namespace = cim.NormalizeNamespace(source.Namespace)
		}
		filterInstance(inst, false, params.IncludeQualifiers, params.IncludeClassOrigin, params.PropertyList)
		out = append(out, inst)
	}
	return out, nil
}

// referenceInstances finds every stored association instance with a
// reference property whose value equals the source path, applying the Role
// and ResultClass filters.
func (p *Processor) referenceInstances(source *cim.InstancePath, params AssocParams) ([]refMatch, error) {
	cs, is, _, err := p.stores(source.Namespace)
	if err != nil {
		return nil, err
	}
	if _, err := is.Peek(source); err != nil {
		return nil, err
	}
	resultSet, err := filterClosure(cs, params.ResultClass)
	if err != nil {
		return nil, err
	}

	var matches []refMatch
	for inst := range is.PeekInstances() {
		cls, err := cs.Peek(inst.ClassName)
		if err != nil || !cls.IsAssociation() {
			continue
		}
		if resultSet != nil && !resultSet[strings.ToLower(inst.ClassName)] {
			continue
		}
		for prop := range cls.Properties.All() {
			if prop.Type != cim.TypeReference {
				continue
			}
			if params.Role != "" && !cim.NameEqual(prop.Name, params.Role) {
				continue
			}
			value, _ := inst.PropertyValue(prop.Name)
			target := referenceValuePath(value)
			if target != nil && target.Equal(source) {
				matches = append(matches, refMatch{instance: inst, role: prop.Name})
			}
		}
	}
	return matches, nil
}

// referenceClassNames finds every association class with a reference
// property targeting the source class or one of its ancestors.
func (p *Processor) referenceClassNames(source *cim.ClassPath, params AssocParams) ([]string, error) {
	cs, err := p.repo.ClassStore(source.Namespace)
	if err != nil {
		return nil, err
	}
	if !cs.Exists(source.ClassName) {
		return nil, cim.Errorf(cim.StatusInvalidParameter, "class %q does not exist", source.ClassName)
	}
	chain, err := ancestry(cs, source.ClassName)
	if err != nil {
		return nil, err
	}
	targets := make(map[string]bool, len(chain))
	for _, name := range chain {
		targets[strings.ToLower(name)] = true
	}
	resultSet, err := filterClosure(cs, params.ResultClass)
	if err != nil {
		return nil, err
	}

	var names []string
	for cls := range cs.PeekClasses() {
		if !cls.IsAssociation() {
			continue
		}
		if resultSet != nil && !resultSet[strings.ToLower(cls.ClassName)] {
			continue
		}
		for prop := range cls.Properties.All() {
			if prop.Type != cim.TypeReference {
				continue
			}
			if params.Role != "" && !cim.NameEqual(prop.Name, params.Role) {
				continue
			}
			if targets[strings.ToLower(prop.ReferenceClass)] {
				names = append(names, cls.ClassName)
				break
			}
		}
	}
	return names, nil
}

// associatorPaths walks from the matched association instances to the far
// ends, applying the AssocClass, ResultRole and ResultClass filters.
func (p *Processor) associatorPaths(source *cim.InstancePath, params AssocParams) ([]*cim.InstancePath, error) {
	cs, _, _, err := p.stores(source.Namespace)
	if err != nil {
		return nil, err
	}
	// AssocClass narrows the associations; Role and the association-side
	// ResultClass filter do not apply to the reference scan here.
	refParams := AssocParams{Role: params.Role, ResultClass: params.AssocClass}
	matches, err := p.referenceInstances(source, refParams)
	if err != nil {
		return nil, err
	}
	resultSet, err := filterClosure(cs, params.ResultClass)
	if err != nil {
		return nil, err
	}

	var out []*cim.InstancePath
	seen := make(map[string]bool)
	for _, m := range matches {
		cls, err := cs.Peek(m.instance.ClassName)
		if err != nil {
			continue
		}
		for prop := range cls.Properties.All() {
			if prop.Type != cim.TypeReference {
				continue
			}
			// The far end is every reference property other than the
			// one through which the source matched, so a single-use
			// reference never echoes the source back.
			if cim.NameEqual(prop.Name, m.role) {
				continue
			}
			if params.ResultRole != "" && !cim.NameEqual(prop.Name, params.ResultRole) {
				continue
			}
			value, _ := m.instance.PropertyValue(prop.Name)
			target := referenceValuePath(value)
			if target == nil {
				continue
			}
			if resultSet != nil && !resultSet[strings.ToLower(target.ClassName)] {
				continue
			}
			canonical := target.Canonical()
			if seen[canonical] {
				continue
			}
			seen[canonical] = true
			far := target.DeepCopy()
			if far.Namespace == "" {
				far.Namespace = cim.NormalizeNamespace(source.Namespace)
			}
			out = append(out, far)
		}
	}
	return out, nil
}

// associatorClassNames walks from the matched association classes to the
// classes their other reference properties target.
func (p *Processor) associatorClassNames(source *cim.ClassPath, params AssocParams) ([]string, error) {
	cs, err := p.repo.ClassStore(source.Namespace)
	if err != nil {
		return nil, err
	}
	refParams := AssocParams{Role: params.Role, ResultClass: params.AssocClass}
	assocNames, err := p.referenceClassNames(source, refParams)
	if err != nil {
		return nil, err
	}
	chain, err := ancestry(cs, source.ClassName)
	if err != nil {
		return nil, err
	}
	sourceChain := make(map[string]bool, len(chain))
	for _, name := range chain {
		sourceChain[strings.ToLower(name)] = true
	}
	resultSet, err := filterClosure(cs, params.ResultClass)
	if err != nil {
		return nil, err
	}

	var names []string
	seen := make(map[string]bool)
	for _, assocName := range assocNames {
		cls, err := cs.Peek(assocName)
		if err != nil {
			continue
		}
		for prop := range cls.Properties.All() {
			if prop.Type != cim.TypeReference {
				continue
			}
			// Skip the source-pointing end.
			if sourceChain[strings.ToLower(prop.ReferenceClass)] &&
				(params.Role == "" || cim.NameEqual(prop.Name, params.Role)) {
				continue
			}
			if params.ResultRole != "" && !cim.NameEqual(prop.Name, params.ResultRole) {
				continue
			}
			if prop.ReferenceClass == "" {
				continue
			}
			if resultSet != nil && !resultSet[strings.ToLower(prop.ReferenceClass)] {
				continue
			}
			lower := strings.ToLower(prop.ReferenceClass)
			if seen[lower] {
				continue
			}
			seen[lower] = true
			names = append(names, prop.ReferenceClass)
		}
	}
	return names, nil
}

// filterClosure resolves an optional class filter to the lower-cased set of
// the class and its subclasses. A "" filter yields nil (no filtering).
func filterClosure(cs storage.ClassStore, className string) (map[string]bool, error) {
	if className == "" {
		return nil, nil
	}
	return classClosure(cs, className)
}

// referenceValuePath extracts an instance path from a reference property
// value, parsing string-encoded paths.
func referenceValuePath(value any) *cim.InstancePath {
	switch v := value.(type) {
	case *cim.InstancePath:
		return v
	case string:
		path, err := cim.ParseInstancePath(v)
		if err != nil {
			return nil
		}
		return path
	}
	return nil
}

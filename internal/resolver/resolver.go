// Package resolver implements DSP0004 class resolution: a locally-declared
// class is expanded into its fully inherited form, with qualifier flavors
// defaulted from their declarations, Override rules enforced, and
// class_origin/propagated metadata computed.
package resolver

import (
	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/storage"
)

// Resolver resolves classes against a namespace's class and qualifier
// stores. The operation processor holds one by composition and calls it on
// every CreateClass before storage.
type Resolver struct{}

// New creates a Resolver.
func New() *Resolver { return &Resolver{} }

// Resolve returns the fully resolved form of cls. The superclass, when
// named, must already be present in the class store in resolved form.
func (r *Resolver) Resolve(cls *cim.Class, classes storage.ClassStore, qualifiers storage.QualifierStore) (*cim.Class, error) {
	resolved := cls.DeepCopy()
	if resolved.Qualifiers == nil {
		resolved.Qualifiers = cim.NewNameMap[*cim.Qualifier]()
	}
	if resolved.Properties == nil {
		resolved.Properties = cim.NewNameMap[*cim.Property]()
	}
	if resolved.Methods == nil {
		resolved.Methods = cim.NewNameMap[*cim.Method]()
	}

	var super *cim.Class
	if resolved.SuperClass != "" {
		s, err := classes.Peek(resolved.SuperClass)
		if err != nil {
			return nil, cim.Errorf(cim.StatusInvalidSuperclass,
				"superclass %q of class %q does not exist", resolved.SuperClass, resolved.ClassName)
		}
		super = s
	}

	if err := r.validate(resolved, super, classes, qualifiers); err != nil {
		return nil, err
	}

	// Class-level qualifiers take their flavor defaults from their
	// declarations; they do not propagate from the superclass.
	if err := defaultFlavors(resolved.Qualifiers, qualifiers); err != nil {
		return nil, err
	}

	if err := r.mergeProperties(resolved, super, qualifiers); err != nil {
		return nil, err
	}
	if err := r.mergeMethods(resolved, super, qualifiers); err != nil {
		return nil, err
	}
	return resolved, nil
}

// validate checks association rules, reference/embedded-instance targets and
// every qualifier against the namespace's qualifier declarations.
func (r *Resolver) validate(cls, super *cim.Class, classes storage.ClassStore, qualifiers storage.QualifierStore) error {
	if cls.IsAssociation() && super != nil && !super.IsAssociation() {
		return cim.Errorf(cim.StatusInvalidParameter,
			"association class %q has non-association superclass %q", cls.ClassName, super.ClassName)
	}

	if err := checkQualifiers(cls.Qualifiers, cim.ScopeClass, qualifiers, cls.ClassName); err != nil {
		return err
	}

	for p := range cls.Properties.All() {
		if p.Type == cim.TypeReference {
			if !cls.IsAssociation() {
				return cim.Errorf(cim.StatusInvalidParameter,
					"class %q has reference property %q but no Association qualifier",
					cls.ClassName, p.Name)
			}
			if err := checkClassTarget(p.ReferenceClass, cls, classes,
				"reference property %q of class %q", p.Name, cls.ClassName); err != nil {
				return err
			}
		}
		if target := p.EmbeddedInstanceClass(); target != "" {
			if err := checkClassTarget(target, cls, classes,
				"EmbeddedInstance property %q of class %q", p.Name, cls.ClassName); err != nil {
				return err
			}
		}
		scope := cim.ScopeProperty
		if p.Type == cim.TypeReference {
			scope = cim.ScopeReference
		}
		if err := checkQualifiers(p.Qualifiers, scope, qualifiers, cls.ClassName); err != nil {
			return err
		}
	}

	for m := range cls.Methods.All() {
		if err := checkQualifiers(m.Qualifiers, cim.ScopeMethod, qualifiers, cls.ClassName); err != nil {
			return err
		}
		for param := range m.Parameters.All() {
			if err := checkQualifiers(param.Qualifiers, cim.ScopeParameter, qualifiers, cls.ClassName); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkClassTarget verifies a referenced class exists in the store. The
// class being defined may reference itself.
func checkClassTarget(target string, cls *cim.Class, classes storage.ClassStore, format string, args ...any) error {
	if cim.NameEqual(target, cls.ClassName) || classes.Exists(target) {
		return nil
	}
	if target == "" {
		return cim.Errorf(cim.StatusInvalidParameter, format+" names no target class", args...)
	}
	return cim.Errorf(cim.StatusInvalidParameter, format+" targets undefined class %q", append(args, target)...)
}

// checkQualifiers verifies each qualifier has a declaration with a matching
// type that permits the given scope.
func checkQualifiers(quals *cim.NameMap[*cim.Qualifier], scope cim.Scope, qualifiers storage.QualifierStore, className string) error {
	for q := range quals.All() {
		decl, err := qualifiers.Peek(q.Name)
		if err != nil {
			return cim.Errorf(cim.StatusInvalidParameter,
				"qualifier %q used in class %q is not declared in the namespace", q.Name, className)
		}
		if q.Type != "" && q.Type != decl.Type {
			return cim.Errorf(cim.StatusInvalidParameter,
				"qualifier %q in class %q has type %s, declared as %s", q.Name, className, q.Type, decl.Type)
		}
		if !decl.AllowsScope(scope) {
			return cim.Errorf(cim.StatusInvalidParameter,
				"qualifier %q in class %q does not permit scope %s", q.Name, className, scope)
		}
	}
	return nil
}

// defaultFlavors fills unset flavor attributes and the qualifier type from
// the declaration, marking the qualifiers locally declared.
func defaultFlavors(quals *cim.NameMap[*cim.Qualifier], qualifiers storage.QualifierStore) error {
	for q := range quals.All() {
		if err := defaultFlavorsOne(q, qualifiers); err != nil {
			return err
		}
	}
	return nil
}

func defaultFlavorsOne(q *cim.Qualifier, qualifiers storage.QualifierStore) error {
	decl, err := qualifiers.Peek(q.Name)
	if err != nil {
		return cim.Errorf(cim.StatusInvalidParameter, "qualifier %q is not declared", q.Name)
	}
	if q.Type == "" {
		q.Type = decl.Type
	}
	if q.ToSubclass == nil {
		v := decl.ToSubclass
		q.ToSubclass = &v
	}
	if q.Overridable == nil {
		v := decl.Overridable
		q.Overridable = &v
	}
	if q.Translatable == nil {
		v := decl.Translatable
		q.Translatable = &v
	}
	q.Propagated = false
	return nil
}

func (r *Resolver) mergeProperties(cls, super *cim.Class, qualifiers storage.QualifierStore) error {
	if super == nil {
		for p := range cls.Properties.All() {
			p.ClassOrigin = cls.ClassName
			p.Propagated = false
			if p.Qualifiers == nil {
				p.Qualifiers = cim.NewNameMap[*cim.Qualifier]()
			}
			if err := defaultFlavors(p.Qualifiers, qualifiers); err != nil {
				return err
			}
		}
		return nil
	}

	merged := cim.NewNameMap[*cim.Property]()

	// Superclass order first, matching DSP0004 element ordering.
	for sp := range super.Properties.All() {
		np, declared := cls.Properties.Get(sp.Name)
		if !declared {
			inherited := sp.DeepCopy()
			inherited.Propagated = true
			markPropagated(inherited.Qualifiers)
			merged.Set(inherited)
			continue
		}
		if np.Qualifiers == nil {
			np.Qualifiers = cim.NewNameMap[*cim.Qualifier]()
		}
		target, hasOverride := np.OverrideTarget()
		if !hasOverride {
			return cim.Errorf(cim.StatusInvalidParameter,
				"property %q of class %q duplicates an inherited property without an Override qualifier",
				np.Name, cls.ClassName)
		}
		if target != "" && !cim.NameEqual(target, sp.Name) {
			return cim.Errorf(cim.StatusInvalidParameter,
				"property %q of class %q overrides %q, expected %q", np.Name, cls.ClassName, target, sp.Name)
		}
		if err := checkPropertyCompat(np, sp, cls.ClassName); err != nil {
			return err
		}
		np.ClassOrigin = sp.ClassOrigin
		np.Propagated = false
		if err := propagateQualifiers(np.Qualifiers, sp.Qualifiers, qualifiers, np.Name, cls.ClassName); err != nil {
			return err
		}
		merged.Set(np)
	}

	for np := range cls.Properties.All() {
		if super.Properties.Has(np.Name) {
			continue
		}
		if np.Qualifiers == nil {
			np.Qualifiers = cim.NewNameMap[*cim.Qualifier]()
		}
		if target, ok := np.OverrideTarget(); ok {
			return cim.Errorf(cim.StatusInvalidParameter,
				"property %q of class %q overrides %q but no such inherited property exists",
				np.Name, cls.ClassName, target)
		}
		np.ClassOrigin = cls.ClassName
		np.Propagated = false
		if err := defaultFlavors(np.Qualifiers, qualifiers); err != nil {
			return err
		}
		merged.Set(np)
	}

	cls.Properties = merged
	return nil
}

func checkPropertyCompat(np, sp *cim.Property, className string) error {
	if np.Type != sp.Type {
		return cim.Errorf(cim.StatusInvalidParameter,
			"override of property %q in class %q changes type from %s to %s",
			np.Name, className, sp.Type, np.Type)
	}
	if np.IsArray != sp.IsArray || np.ArraySize != sp.ArraySize {
		return cim.Errorf(cim.StatusInvalidParameter,
			"override of property %q in class %q changes array shape", np.Name, className)
	}
	if np.Type == cim.TypeReference && np.ReferenceClass != "" && sp.ReferenceClass != "" &&
		!cim.NameEqual(np.ReferenceClass, sp.ReferenceClass) {
		return cim.Errorf(cim.StatusInvalidParameter,
			"override of reference property %q in class %q changes target class from %q to %q",
			np.Name, className, sp.ReferenceClass, np.ReferenceClass)
	}
	if ne, se := np.EmbeddedInstanceClass(), sp.EmbeddedInstanceClass(); se != "" && ne != "" && !cim.NameEqual(ne, se) {
		return cim.Errorf(cim.StatusInvalidParameter,
			"override of property %q in class %q changes EmbeddedInstance class from %q to %q",
			np.Name, className, se, ne)
	}
	return nil
}

func (r *Resolver) mergeMethods(cls, super *cim.Class, qualifiers storage.QualifierStore) error {
	if super == nil {
		for m := range cls.Methods.All() {
			if err := initLocalMethod(m, cls.ClassName, qualifiers); err != nil {
				return err
			}
		}
		return nil
	}

	merged := cim.NewNameMap[*cim.Method]()

	for sm := range super.Methods.All() {
		nm, declared := cls.Methods.Get(sm.Name)
		if !declared {
			inherited := sm.DeepCopy()
			inherited.Propagated = true
			markPropagated(inherited.Qualifiers)
			for p := range inherited.Parameters.All() {
				p.Propagated = true
				markPropagated(p.Qualifiers)
			}
			merged.Set(inherited)
			continue
		}
		if nm.Qualifiers == nil {
			nm.Qualifiers = cim.NewNameMap[*cim.Qualifier]()
		}
		target, hasOverride := nm.OverrideTarget()
		if !hasOverride {
			return cim.Errorf(cim.StatusInvalidParameter,
				"method %q of class %q duplicates an inherited method without an Override qualifier",
				nm.Name, cls.ClassName)
		}
		if target != "" && !cim.NameEqual(target, sm.Name) {
			return cim.Errorf(cim.StatusInvalidParameter,
				"method %q of class %q overrides %q, expected %q", nm.Name, cls.ClassName, target, sm.Name)
		}
		if nm.ReturnType != sm.ReturnType {
			return cim.Errorf(cim.StatusInvalidParameter,
				"override of method %q in class %q changes return type from %s to %s",
				nm.Name, cls.ClassName, sm.ReturnType, nm.ReturnType)
		}
		nm.ClassOrigin = sm.ClassOrigin
		nm.Propagated = false
		if err := propagateQualifiers(nm.Qualifiers, sm.Qualifiers, qualifiers, nm.Name, cls.ClassName); err != nil {
			return err
		}
		if err := mergeParameters(nm, sm, qualifiers, cls.ClassName); err != nil {
			return err
		}
		merged.Set(nm)
	}

	for nm := range cls.Methods.All() {
		if super.Methods.Has(nm.Name) {
			continue
		}
		if target, ok := nm.OverrideTarget(); ok {
			return cim.Errorf(cim.StatusInvalidParameter,
				"method %q of class %q overrides %q but no such inherited method exists",
				nm.Name, cls.ClassName, target)
		}
		if err := initLocalMethod(nm, cls.ClassName, qualifiers); err != nil {
			return err
		}
		merged.Set(nm)
	}

	cls.Methods = merged
	return nil
}

func initLocalMethod(m *cim.Method, className string, qualifiers storage.QualifierStore) error {
	m.ClassOrigin = className
	m.Propagated = false
	if m.Qualifiers == nil {
		m.Qualifiers = cim.NewNameMap[*cim.Qualifier]()
	}
	if m.Parameters == nil {
		m.Parameters = cim.NewNameMap[*cim.Parameter]()
	}
	if err := defaultFlavors(m.Qualifiers, qualifiers); err != nil {
		return err
	}
	for p := range m.Parameters.All() {
		p.ClassOrigin = className
		p.Propagated = false
		if p.Qualifiers == nil {
			p.Qualifiers = cim.NewNameMap[*cim.Qualifier]()
		}
		if err := defaultFlavors(p.Qualifiers, qualifiers); err != nil {
			return err
		}
	}
	return nil
}

// mergeParameters merges an overriding method's parameters with the
// overridden method's. Parameter identity is positional in MOF, so a
// re-declared parameter is tolerated without an Override qualifier.
func mergeParameters(nm, sm *cim.Method, qualifiers storage.QualifierStore, className string) error {
	if nm.Parameters == nil {
		nm.Parameters = cim.NewNameMap[*cim.Parameter]()
	}
	merged := cim.NewNameMap[*cim.Parameter]()

	for sp := range sm.Parameters.All() {
		np, declared := nm.Parameters.Get(sp.Name)
		if !declared {
			inherited := sp.DeepCopy()
			inherited.Propagated = true
			markPropagated(inherited.Qualifiers)
			merged.Set(inherited)
			continue
		}
		if np.Type != sp.Type || np.IsArray != sp.IsArray || np.ArraySize != sp.ArraySize {
			return cim.Errorf(cim.StatusInvalidParameter,
				"parameter %q of method %q in class %q is incompatible with the inherited declaration",
				np.Name, nm.Name, className)
		}
		np.ClassOrigin = sp.ClassOrigin
		np.Propagated = false
		if np.Qualifiers == nil {
			np.Qualifiers = cim.NewNameMap[*cim.Qualifier]()
		}
		if err := propagateQualifiers(np.Qualifiers, sp.Qualifiers, qualifiers, np.Name, className); err != nil {
			return err
		}
		merged.Set(np)
	}

	for np := range nm.Parameters.All() {
		if sm.Parameters.Has(np.Name) {
			continue
		}
		np.ClassOrigin = className
		np.Propagated = false
		if np.Qualifiers == nil {
			np.Qualifiers = cim.NewNameMap[*cim.Qualifier]()
		}
		if err := defaultFlavors(np.Qualifiers, qualifiers); err != nil {
			return err
		}
		merged.Set(np)
	}

	nm.Parameters = merged
	return nil
}

// propagateQualifiers applies DSP0004 flavor propagation to an overriding
// element: subQuals is the subclass element's qualifier set, superQuals the
// resolved superclass element's.
func propagateQualifiers(subQuals, superQuals *cim.NameMap[*cim.Qualifier], qualifiers storage.QualifierStore, element, className string) error {
	for sq := range superQuals.All() {
		nq, redefined := subQuals.Get(sq.Name)
		tosubclass := sq.EffectiveToSubclass()
		overridable := sq.EffectiveOverridable()

		if !redefined {
			if tosubclass {
				inherited := sq.DeepCopy()
				inherited.Propagated = true
				subQuals.Set(inherited)
			}
			continue
		}

		if !tosubclass {
			// Restricted qualifier: the subclass may only redefine it
			// when the declaration allows overriding.
			if !overridable {
				return cim.Errorf(cim.StatusInvalidParameter,
					"qualifier %q on %q in class %q is restricted and not overridable",
					sq.Name, element, className)
			}
			if err := defaultFlavorsOne(nq, qualifiers); err != nil {
				return err
			}
			continue
		}

		if overridable {
			if err := defaultFlavorsOne(nq, qualifiers); err != nil {
				return err
			}
			continue
		}

		// Not overridable: an identical value is tolerated and marked
		// propagated, a different one is an error.
		if !cim.ValueEqual(nq.Value, sq.Value) {
			return cim.Errorf(cim.StatusInvalidParameter,
				"qualifier %q on %q in class %q overrides a non-overridable qualifier with a different value",
				sq.Name, element, className)
		}
		kept := sq.DeepCopy()
		kept.Propagated = true
		subQuals.Set(kept)
	}

	for nq := range subQuals.All() {
		if superQuals.Has(nq.Name) {
			continue
		}
		if err := defaultFlavorsOne(nq, qualifiers); err != nil {
			return err
		}
	}
	return nil
}

func markPropagated(quals *cim.NameMap[*cim.Qualifier]) {
	for q := range quals.All() {
		q.Propagated = true
	}
}

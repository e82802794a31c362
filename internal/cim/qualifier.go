package cim

// Qualifier is a qualifier value attached to a class, property, method or
// parameter. Flavor fields are nil until class resolution defaults them from
// the qualifier's declaration.
type Qualifier struct {
	Name         string `json:"name"`
	Type         Type   `json:"type"`
	Value        any    `json:"value"`
	Propagated   bool   `json:"propagated"`
	ToSubclass   *bool  `json:"tosubclass,omitempty"`
	Overridable  *bool  `json:"overridable,omitempty"`
	Translatable *bool  `json:"translatable,omitempty"`
}

// ElementName implements Named.
func (q *Qualifier) ElementName() string { return q.Name }

// DeepCopy returns an independent copy of the qualifier.
func (q *Qualifier) DeepCopy() *Qualifier {
	out := *q
	out.Value = copyValue(q.Value)
	out.ToSubclass = copyBoolPtr(q.ToSubclass)
	out.Overridable = copyBoolPtr(q.Overridable)
	out.Translatable = copyBoolPtr(q.Translatable)
	return &out
}

// EffectiveToSubclass returns the tosubclass flavor, defaulting to true when
// unset (DSP0004 default).
func (q *Qualifier) EffectiveToSubclass() bool {
	return q.ToSubclass == nil || *q.ToSubclass
}

// EffectiveOverridable returns the overridable flavor, defaulting to true
// when unset (DSP0004 default).
func (q *Qualifier) EffectiveOverridable() bool {
	return q.Overridable == nil || *q.Overridable
}

func copyBoolPtr(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// QualifierDeclaration declares a qualifier: its type, default value,
// applicability scopes and flavor defaults.
type QualifierDeclaration struct {
	Name      string         `json:"name"`
	Type      Type           `json:"type"`
	Value     any            `json:"value,omitempty"`
	IsArray   bool           `json:"is_array,omitempty"`
	ArraySize int            `json:"array_size,omitempty"`
	Scopes    map[Scope]bool `json:"scopes"`

	// Flavor defaults applied to qualifier values during class resolution.
	ToSubclass   bool `json:"tosubclass"`
	Overridable  bool `json:"overridable"`
	Translatable bool `json:"translatable"`
}

// ElementName implements Named.
func (d *QualifierDeclaration) ElementName() string { return d.Name }

// DeepCopy returns an independent copy of the declaration.
func (d *QualifierDeclaration) DeepCopy() *QualifierDeclaration {
	out := *d
	out.Value = copyValue(d.Value)
	out.Scopes = make(map[Scope]bool, len(d.Scopes))
	for s, ok := range d.Scopes {
		out.Scopes[s] = ok
	}
	return &out
}

// AllowsScope reports whether the declaration permits use of the qualifier
// on an element of the given scope.
func (d *QualifierDeclaration) AllowsScope(s Scope) bool {
	return d.Scopes[s] || d.Scopes[ScopeAny]
}

package cim

import "strings"

// Class is a CIM class. As stored by the repository it is always in resolved
// form: inherited elements merged in, qualifier flavors defaulted, and
// ClassOrigin/Propagated metadata computed.
type Class struct {
	ClassName  string                `json:"classname"`
	SuperClass string                `json:"superclass,omitempty"`
	Qualifiers *NameMap[*Qualifier]  `json:"qualifiers,omitempty"`
	Properties *NameMap[*Property]   `json:"properties,omitempty"`
	Methods    *NameMap[*Method]     `json:"methods,omitempty"`
}

// ElementName implements Named.
func (c *Class) ElementName() string { return c.ClassName }

// DeepCopy returns an independent copy of the class.
func (c *Class) DeepCopy() *Class {
	return &Class{
		ClassName:  c.ClassName,
		SuperClass: c.SuperClass,
		Qualifiers: c.Qualifiers.CopyWith((*Qualifier).DeepCopy),
		Properties: c.Properties.CopyWith((*Property).DeepCopy),
		Methods:    c.Methods.CopyWith((*Method).DeepCopy),
	}
}

// IsAssociation reports whether the class carries the Association qualifier.
func (c *Class) IsAssociation() bool {
	q, ok := c.Qualifiers.Get(QualifierAssociation)
	if !ok {
		return false
	}
	// Association is boolean; an explicit false disables it.
	if b, isBool := q.Value.(bool); isBool {
		return b
	}
	return true
}

// KeyProperties returns the class's key properties in declaration order.
func (c *Class) KeyProperties() []*Property {
	var keys []*Property
	for p := range c.Properties.All() {
		if p.IsKey() {
			keys = append(keys, p)
		}
	}
	return keys
}

// Property is a CIM property declaration, or a property value when attached
// to an instance.
type Property struct {
	Name           string               `json:"name"`
	Type           Type                 `json:"type"`
	Value          any                  `json:"value,omitempty"`
	IsArray        bool                 `json:"is_array,omitempty"`
	ArraySize      int                  `json:"array_size,omitempty"`
	ReferenceClass string               `json:"reference_class,omitempty"`
	ClassOrigin    string               `json:"class_origin,omitempty"`
	Propagated     bool                 `json:"propagated,omitempty"`
	Qualifiers     *NameMap[*Qualifier] `json:"qualifiers,omitempty"`
}

// ElementName implements Named.
func (p *Property) ElementName() string { return p.Name }

// DeepCopy returns an independent copy of the property.
func (p *Property) DeepCopy() *Property {
	out := *p
	out.Value = copyValue(p.Value)
	out.Qualifiers = p.Qualifiers.CopyWith((*Qualifier).DeepCopy)
	return &out
}

// IsKey reports whether the property carries a true-valued Key qualifier.
func (p *Property) IsKey() bool {
	q, ok := p.Qualifiers.Get(QualifierKey)
	if !ok {
		return false
	}
	if b, isBool := q.Value.(bool); isBool {
		return b
	}
	return true
}

// EmbeddedInstanceClass returns the class named by an EmbeddedInstance
// qualifier, or "" when the property is not an embedded instance.
func (p *Property) EmbeddedInstanceClass() string {
	q, ok := p.Qualifiers.Get(QualifierEmbeddedInstance)
	if !ok {
		return ""
	}
	s, _ := q.Value.(string)
	return s
}

// OverrideTarget returns the element name carried by an Override qualifier,
// or "" when the element declares no override.
func overrideTarget(quals *NameMap[*Qualifier]) (string, bool) {
	q, ok := quals.Get(QualifierOverride)
	if !ok {
		return "", false
	}
	s, _ := q.Value.(string)
	return s, true
}

// OverrideTarget returns the overridden element name, if any.
func (p *Property) OverrideTarget() (string, bool) { return overrideTarget(p.Qualifiers) }

// Method is a CIM method declaration.
type Method struct {
	Name        string               `json:"name"`
	ReturnType  Type                 `json:"return_type"`
	ClassOrigin string               `json:"class_origin,omitempty"`
	Propagated  bool                 `json:"propagated,omitempty"`
	Qualifiers  *NameMap[*Qualifier] `json:"qualifiers,omitempty"`
	Parameters  *NameMap[*Parameter] `json:"parameters,omitempty"`
}

// ElementName implements Named.
func (m *Method) ElementName() string { return m.Name }

// DeepCopy returns an independent copy of the method.
func (m *Method) DeepCopy() *Method {
	out := *m
	out.Qualifiers = m.Qualifiers.CopyWith((*Qualifier).DeepCopy)
	out.Parameters = m.Parameters.CopyWith((*Parameter).DeepCopy)
	return &out
}

// OverrideTarget returns the overridden element name, if any.
func (m *Method) OverrideTarget() (string, bool) { return overrideTarget(m.Qualifiers) }

// Parameter is a CIM method parameter.
type Parameter struct {
	Name           string               `json:"name"`
	Type           Type                 `json:"type"`
	IsArray        bool                 `json:"is_array,omitempty"`
	ArraySize      int                  `json:"array_size,omitempty"`
	ReferenceClass string               `json:"reference_class,omitempty"`
	ClassOrigin    string               `json:"class_origin,omitempty"`
	Propagated     bool                 `json:"propagated,omitempty"`
	Qualifiers     *NameMap[*Qualifier] `json:"qualifiers,omitempty"`
}

// ElementName implements Named.
func (p *Parameter) ElementName() string { return p.Name }

// DeepCopy returns an independent copy of the parameter.
func (p *Parameter) DeepCopy() *Parameter {
	out := *p
	out.Qualifiers = p.Qualifiers.CopyWith((*Qualifier).DeepCopy)
	return &out
}

// NameEqual compares two CIM element or class names per DSP0004.
func NameEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

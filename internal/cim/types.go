// Package cim holds the CIM data model: classes, instances, qualifier
// declarations and the object paths that address them, per DMTF DSP0004.
package cim

// Type is a CIM data type name as used in qualifier declarations,
// properties, methods and parameters.
type Type string

// CIM intrinsic data types.
const (
	TypeBool      Type = "boolean"
	TypeString    Type = "string"
	TypeChar16    Type = "char16"
	TypeDateTime  Type = "datetime"
	TypeUint8     Type = "uint8"
	TypeUint16    Type = "uint16"
	TypeUint32    Type = "uint32"
	TypeUint64    Type = "uint64"
	TypeSint8     Type = "sint8"
	TypeSint16    Type = "sint16"
	TypeSint32    Type = "sint32"
	TypeSint64    Type = "sint64"
	TypeReal32    Type = "real32"
	TypeReal64    Type = "real64"
	TypeReference Type = "reference"
)

// IsNumeric reports whether the type holds a numeric value.
func (t Type) IsNumeric() bool {
	switch t {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64,
		TypeSint8, TypeSint16, TypeSint32, TypeSint64,
		TypeReal32, TypeReal64:
		return true
	}
	return false
}

// Valid reports whether t names a known CIM type.
func (t Type) Valid() bool {
	switch t {
	case TypeBool, TypeString, TypeChar16, TypeDateTime, TypeReference:
		return true
	}
	return t.IsNumeric()
}

// Scope is a qualifier applicability scope from DSP0004.
type Scope string

// Qualifier scopes.
const (
	ScopeAny         Scope = "any"
	ScopeClass       Scope = "class"
	ScopeAssociation Scope = "association"
	ScopeIndication  Scope = "indication"
	ScopeProperty    Scope = "property"
	ScopeReference   Scope = "reference"
	ScopeMethod      Scope = "method"
	ScopeParameter   Scope = "parameter"
)

// Names of qualifiers the repository treats specially.
const (
	QualifierAssociation      = "Association"
	QualifierKey              = "Key"
	QualifierOverride         = "Override"
	QualifierEmbeddedInstance = "EmbeddedInstance"
)

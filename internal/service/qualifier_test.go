package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/service"
)

func TestSetQualifier_CreateAndReplace(t *testing.T) {
	proc := newProcessor(t)

	decl := &cim.QualifierDeclaration{
		Name:   "MaxLen",
		Type:   cim.TypeUint32,
		Value:  int64(256),
		Scopes: map[cim.Scope]bool{cim.ScopeProperty: true},
	}
	require.NoError(t, proc.SetQualifier(testNS, decl))

	got, err := proc.GetQualifier(testNS, "maxlen")
	require.NoError(t, err)
	assert.Equal(t, "MaxLen", got.Name)
	assert.EqualValues(t, 256, got.Value)

	// Setting again replaces the existing declaration.
	decl.Value = int64(1024)
	decl.ToSubclass = true
	require.NoError(t, proc.SetQualifier(testNS, decl))

	got, err = proc.GetQualifier(testNS, "MaxLen")
	require.NoError(t, err)
	assert.EqualValues(t, 1024, got.Value)
	assert.True(t, got.ToSubclass)
}

func TestSetQualifier_Invalid(t *testing.T) {
	proc := newProcessor(t)

	err := proc.SetQualifier(testNS, &cim.QualifierDeclaration{
		Type:   cim.TypeBool,
		Scopes: map[cim.Scope]bool{cim.ScopeClass: true},
	})
	assert.ErrorIs(t, err, cim.ErrInvalidParameter, "name is required")

	err = proc.SetQualifier(testNS, &cim.QualifierDeclaration{
		Name:   "Bad",
		Type:   cim.TypeReference,
		Scopes: map[cim.Scope]bool{cim.ScopeClass: true},
	})
	assert.ErrorIs(t, err, cim.ErrInvalidParameter, "reference-typed qualifiers are not allowed")

	err = proc.SetQualifier(testNS, &cim.QualifierDeclaration{
		Name: "Bad",
		Type: cim.TypeBool,
	})
	assert.ErrorIs(t, err, cim.ErrInvalidParameter, "at least one scope is required")

	err = proc.SetQualifier("root/nope", &cim.QualifierDeclaration{
		Name:   "Fine",
		Type:   cim.TypeBool,
		Scopes: map[cim.Scope]bool{cim.ScopeClass: true},
	})
	assert.ErrorIs(t, err, cim.ErrInvalidNamespace)
}

func TestSetQualifier_ReplaceDoesNotReResolveClasses(t *testing.T) {
	proc := newSchemaProcessor(t)

	// Resolve a class under the original Description declaration
	// (tosubclass), then replace the declaration with a restricted one.
	withDesc := newClass("TST_Labeled", "")
	withDesc.Properties.Set(keyProperty("Name", cim.TypeString))
	withDesc.Qualifiers.Set(&cim.Qualifier{Name: "Description", Value: "before replace"})
	require.NoError(t, proc.CreateClass(testNS, withDesc))

	require.NoError(t, proc.SetQualifier(testNS, &cim.QualifierDeclaration{
		Name:   "Description",
		Type:   cim.TypeString,
		Scopes: map[cim.Scope]bool{cim.ScopeAny: true},
	}))

	// The stored class keeps the flavors it was resolved under.
	got, err := proc.GetClass(testNS, "TST_Labeled", service.GetClassParams{IncludeQualifiers: true})
	require.NoError(t, err)
	desc, ok := got.Qualifiers.Get("Description")
	require.True(t, ok)
	if assert.NotNil(t, desc.ToSubclass) {
		assert.True(t, *desc.ToSubclass, "flavors are frozen at resolution time")
	}
}

func TestEnumerateQualifiers(t *testing.T) {
	proc := newProcessor(t)

	decls, err := proc.EnumerateQualifiers(testNS)
	require.NoError(t, err)

	var names []string
	for _, d := range decls {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"Key", "Association", "Override", "Description"}, names)

	_, err = proc.EnumerateQualifiers("root/nope")
	assert.ErrorIs(t, err, cim.ErrInvalidNamespace)
}

func TestDeleteQualifier(t *testing.T) {
	proc := newProcessor(t)

	require.NoError(t, proc.DeleteQualifier(testNS, "description"))

	_, err := proc.GetQualifier(testNS, "Description")
	assert.ErrorIs(t, err, cim.ErrNotFound)

	err = proc.DeleteQualifier(testNS, "Description")
	assert.ErrorIs(t, err, cim.ErrNotFound)
}

func TestExecQuery_NotSupported(t *testing.T) {
	proc := newProcessor(t)

	_, err := proc.ExecQuery(testNS, "WQL", "SELECT * FROM CIM_Anything")
	assert.ErrorIs(t, err, cim.ErrQueryLanguageNotSupported)

	_, err = proc.ExecQuery("root/nope", "WQL", "SELECT *")
	assert.ErrorIs(t, err, cim.ErrInvalidNamespace, "namespace is validated before the language check")
}

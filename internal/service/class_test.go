package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/service"
)

func TestCreateClass_ResolvesBeforeStorage(t *testing.T) {
	proc := newSchemaProcessor(t)

	cls, err := proc.GetClass(testNS, "TST_Employee", service.GetClassParams{
		IncludeQualifiers:  true,
		IncludeClassOrigin: true,
	})
	require.NoError(t, err)

	// Inherited properties are present with ancestor metadata.
	name, ok := cls.Properties.Get("Name")
	require.True(t, ok)
	assert.True(t, name.Propagated)
	assert.Equal(t, "TST_Person", name.ClassOrigin)
	assert.True(t, name.IsKey())

	dept, ok := cls.Properties.Get("Dept")
	require.True(t, ok)
	assert.False(t, dept.Propagated)
	assert.Equal(t, "TST_Employee", dept.ClassOrigin)
}

func TestCreateClass_Duplicate(t *testing.T) {
	proc := newSchemaProcessor(t)

	err := proc.CreateClass(testNS, newClass("tst_person", ""))
	assert.ErrorIs(t, err, cim.ErrAlreadyExists)
}

func TestCreateClass_UnknownNamespace(t *testing.T) {
	proc := newProcessor(t)

	err := proc.CreateClass("root/nope", newClass("Foo", ""))
	assert.ErrorIs(t, err, cim.ErrInvalidNamespace)
}

func TestGetClass_Filters(t *testing.T) {
	proc := newSchemaProcessor(t)

	// LocalOnly drops inherited properties.
	cls, err := proc.GetClass(testNS, "TST_Employee", service.GetClassParams{
		LocalOnly:         true,
		IncludeQualifiers: true,
	})
	require.NoError(t, err)
	assert.False(t, cls.Properties.Has("Name"))
	assert.True(t, cls.Properties.Has("Dept"))

	// IncludeQualifiers=false strips qualifiers everywhere.
	cls, err = proc.GetClass(testNS, "TST_Person", service.GetClassParams{})
	require.NoError(t, err)
	name, _ := cls.Properties.Get("Name")
	assert.Equal(t, 0, name.Qualifiers.Len())

	// IncludeClassOrigin=false nulls class_origin.
	assert.Empty(t, name.ClassOrigin)

	// An empty property list means no properties; nil means all.
	cls, err = proc.GetClass(testNS, "TST_Person", service.GetClassParams{
		PropertyList: []string{},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, cls.Properties.Len())

	cls, err = proc.GetClass(testNS, "TST_Person", service.GetClassParams{
		PropertyList: []string{"AGE"},
	})
	require.NoError(t, err)
	assert.True(t, cls.Properties.Has("Age"))
	assert.False(t, cls.Properties.Has("Name"))
}

func TestGetClass_NotFound(t *testing.T) {
	proc := newProcessor(t)

	_, err := proc.GetClass(testNS, "Missing", service.GetClassParams{})
	assert.ErrorIs(t, err, cim.ErrNotFound)
}

func TestEnumerateClassNames(t *testing.T) {
	proc := newSchemaProcessor(t)

	// Shallow from the root: top-level classes only.
	names, err := proc.EnumerateClassNames(testNS, "", false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"TST_Person", "TST_Project", "TST_MemberOfProject"}, names)

	// Deep from the root includes subclasses.
	names, err = proc.EnumerateClassNames(testNS, "", true)
	require.NoError(t, err)
	assert.Contains(t, names, "TST_Employee")

	// From a class: its children, not the class itself.
	names, err = proc.EnumerateClassNames(testNS, "TST_Person", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"TST_Employee"}, names)

	_, err = proc.EnumerateClassNames(testNS, "Missing", false)
	assert.ErrorIs(t, err, cim.ErrInvalidClass)
}

func TestEnumerateClasses(t *testing.T) {
	proc := newSchemaProcessor(t)

	classes, err := proc.EnumerateClasses(testNS, service.EnumerateClassesParams{
		ClassName:       "TST_Person",
		DeepInheritance: true,
	})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "TST_Employee", classes[0].ClassName)
}

func TestModifyClass_NotSupported(t *testing.T) {
	proc := newSchemaProcessor(t)

	err := proc.ModifyClass(testNS, newClass("TST_Person", ""))
	assert.ErrorIs(t, err, cim.ErrNotSupported)

	// Namespace validation still runs first.
	err = proc.ModifyClass("root/nope", newClass("TST_Person", ""))
	assert.ErrorIs(t, err, cim.ErrInvalidNamespace)
}

func TestDeleteClass_CascadesToSubclassesAndInstances(t *testing.T) {
	proc := newSchemaProcessor(t)

	createInstance(t, proc, "TST_Person", map[string]any{"Name": "alice"})
	createInstance(t, proc, "TST_Employee", map[string]any{"Name": "bob", "Dept": "eng"})

	require.NoError(t, proc.DeleteClass(testNS, "TST_Person"))

	_, err := proc.GetClass(testNS, "TST_Person", service.GetClassParams{})
	assert.ErrorIs(t, err, cim.ErrNotFound)
	_, err = proc.GetClass(testNS, "TST_Employee", service.GetClassParams{})
	assert.ErrorIs(t, err, cim.ErrNotFound, "subclasses are deleted with the class")

	err = proc.DeleteClass(testNS, "TST_Person")
	assert.ErrorIs(t, err, cim.ErrNotFound)
}

package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/service"
)

func TestCreateInstance_RoundTrip(t *testing.T) {
	proc := newSchemaProcessor(t)

	path := createInstance(t, proc, "TST_Person", map[string]any{
		"Name": "alice",
		"Age":  uint32(42),
	})
	assert.Equal(t, testNS, path.Namespace)
	assert.Equal(t, "TST_Person", path.ClassName)

	inst, err := proc.GetInstance(path, service.GetInstanceParams{})
	require.NoError(t, err)
	assert.Equal(t, "TST_Person", inst.ClassName)

	name, _ := inst.PropertyValue("Name")
	assert.Equal(t, "alice", name)
	age, _ := inst.PropertyValue("Age")
	assert.EqualValues(t, 42, age)
}

func TestCreateInstance_PathIsCaseAndOrderInsensitive(t *testing.T) {
	proc := newSchemaProcessor(t)

	createInstance(t, proc, "TST_Person", map[string]any{"Name": "Alice"})

	lookup := &cim.InstancePath{
		Namespace: testNS,
		ClassName: "tst_person",
		Keys:      []cim.KeyBinding{{Name: "NAME", Value: "alice"}},
	}
	_, err := proc.GetInstance(lookup, service.GetInstanceParams{})
	assert.NoError(t, err)
}

func TestCreateInstance_Validation(t *testing.T) {
	proc := newSchemaProcessor(t)

	_, err := proc.CreateInstance(testNS, newInstance("Missing", map[string]any{"Name": "x"}))
	assert.ErrorIs(t, err, cim.ErrInvalidClass)

	_, err = proc.CreateInstance(testNS, newInstance("TST_Person", map[string]any{
		"Name":  "x",
		"Bogus": 1,
	}))
	assert.ErrorIs(t, err, cim.ErrInvalidParameter, "undeclared property")

	_, err = proc.CreateInstance(testNS, newInstance("TST_Person", map[string]any{
		"Age": uint32(7),
	}))
	assert.ErrorIs(t, err, cim.ErrInvalidParameter, "missing key property")

	_, err = proc.CreateInstance(testNS, newInstance("TST_Person", map[string]any{
		"Name": "x",
		"Age":  "not a number",
	}))
	assert.ErrorIs(t, err, cim.ErrInvalidParameter, "type mismatch")

	createInstance(t, proc, "TST_Person", map[string]any{"Name": "dup"})
	_, err = proc.CreateInstance(testNS, newInstance("TST_Person", map[string]any{"Name": "DUP"}))
	assert.ErrorIs(t, err, cim.ErrAlreadyExists, "same identity under different casing")
}

func TestEnumerateInstances_IncludesSubclasses(t *testing.T) {
	proc := newSchemaProcessor(t)

	createInstance(t, proc, "TST_Person", map[string]any{"Name": "alice"})
	createInstance(t, proc, "TST_Employee", map[string]any{"Name": "bob", "Dept": "eng"})

	instances, err := proc.EnumerateInstances(testNS, "TST_Person", service.EnumerateInstancesParams{
		DeepInheritance: true,
	})
	require.NoError(t, err)
	assert.Len(t, instances, 2)

	// DeepInheritance=false still includes subclass instances, but
	// restricts properties to the target class's own set.
	instances, err = proc.EnumerateInstances(testNS, "TST_Person", service.EnumerateInstancesParams{})
	require.NoError(t, err)
	require.Len(t, instances, 2)
	for _, inst := range instances {
		assert.False(t, inst.Properties.Has("Dept"),
			"subclass-only property leaked into shallow enumeration of %s", inst.ClassName)
	}

	// Enumerating the subclass returns only its instances.
	instances, err = proc.EnumerateInstances(testNS, "TST_Employee", service.EnumerateInstancesParams{
		DeepInheritance: true,
	})
	require.NoError(t, err)
	assert.Len(t, instances, 1)
}

func TestEnumerateInstanceNames(t *testing.T) {
	proc := newSchemaProcessor(t)

	p1 := createInstance(t, proc, "TST_Person", map[string]any{"Name": "alice"})
	p2 := createInstance(t, proc, "TST_Employee", map[string]any{"Name": "bob"})

	paths, err := proc.EnumerateInstanceNames(testNS, "TST_Person")
	require.NoError(t, err)
	require.Len(t, paths, 2)

	for _, want := range []*cim.InstancePath{p1, p2} {
		found := false
		for _, got := range paths {
			if got.Equal(want) {
				found = true
			}
		}
		assert.True(t, found, "missing path %s", want)
	}

	_, err = proc.EnumerateInstanceNames(testNS, "Missing")
	assert.ErrorIs(t, err, cim.ErrInvalidClass)
}

func TestModifyInstance(t *testing.T) {
	proc := newSchemaProcessor(t)

	path := createInstance(t, proc, "TST_Person", map[string]any{"Name": "alice", "Age": uint32(30)})

	modified := newInstance("TST_Person", map[string]any{"Age": uint32(31)})
	modified.Path = path
	require.NoError(t, proc.ModifyInstance(modified, nil))

	inst, err := proc.GetInstance(path, service.GetInstanceParams{})
	require.NoError(t, err)
	age, _ := inst.PropertyValue("Age")
	assert.EqualValues(t, 31, age)
}

func TestModifyInstance_PropertyListRestricts(t *testing.T) {
	proc := newSchemaProcessor(t)

	path := createInstance(t, proc, "TST_Employee", map[string]any{
		"Name": "bob", "Age": uint32(25), "Dept": "eng",
	})

	modified := newInstance("TST_Employee", map[string]any{
		"Age":  uint32(26),
		"Dept": "sales",
	})
	modified.Path = path
	require.NoError(t, proc.ModifyInstance(modified, []string{"dept"}))

	inst, err := proc.GetInstance(path, service.GetInstanceParams{})
	require.NoError(t, err)
	age, _ := inst.PropertyValue("Age")
	assert.EqualValues(t, 25, age, "property outside the list must not change")
	dept, _ := inst.PropertyValue("Dept")
	assert.Equal(t, "sales", dept)
}

func TestModifyInstance_KeysAreImmutable(t *testing.T) {
	proc := newSchemaProcessor(t)

	path := createInstance(t, proc, "TST_Person", map[string]any{"Name": "alice"})

	modified := newInstance("TST_Person", map[string]any{"Name": "renamed"})
	modified.Path = path
	err := proc.ModifyInstance(modified, nil)
	assert.ErrorIs(t, err, cim.ErrInvalidParameter)
}

func TestModifyInstance_ClassMismatch(t *testing.T) {
	proc := newSchemaProcessor(t)

	path := createInstance(t, proc, "TST_Person", map[string]any{"Name": "alice"})

	modified := newInstance("TST_Project", map[string]any{})
	modified.Path = path
	err := proc.ModifyInstance(modified, nil)
	assert.ErrorIs(t, err, cim.ErrInvalidParameter)
}

func TestDeleteInstance(t *testing.T) {
	proc := newSchemaProcessor(t)

	path := createInstance(t, proc, "TST_Person", map[string]any{"Name": "alice"})

	require.NoError(t, proc.DeleteInstance(path))
	_, err := proc.GetInstance(path, service.GetInstanceParams{})
	assert.ErrorIs(t, err, cim.ErrNotFound)
	err = proc.DeleteInstance(path)
	assert.ErrorIs(t, err, cim.ErrNotFound)
}

func TestNamespaceDescriptorInstances(t *testing.T) {
	proc := newProcessor(t)

	nsClass := newClass("CIM_Namespace", "")
	nsClass.Properties.Set(keyProperty("Name", cim.TypeString))
	require.NoError(t, proc.CreateClass(testNS, nsClass))

	// Creating a descriptor instance creates the namespace.
	path := createInstance(t, proc, "CIM_Namespace", map[string]any{"Name": "root/test"})
	assert.Contains(t, proc.Namespaces(), "root/test")

	// Deleting the descriptor removes the namespace again.
	require.NoError(t, proc.DeleteInstance(path))
	assert.NotContains(t, proc.Namespaces(), "root/test")
}

func TestNamespaceDescriptorCreate_DuplicateLeavesNoNamespace(t *testing.T) {
	proc := newProcessor(t)

	// Keyed by ID, so two instances can collide while naming different
	// namespaces.
	nsClass := newClass("CIM_Namespace", "")
	nsClass.Properties.Set(keyProperty("ID", cim.TypeString))
	nsClass.Properties.Set(&cim.Property{Name: "Name", Type: cim.TypeString})
	require.NoError(t, proc.CreateClass(testNS, nsClass))

	createInstance(t, proc, "CIM_Namespace", map[string]any{"ID": "1", "Name": "root/nsa"})
	assert.Contains(t, proc.Namespaces(), "root/nsa")

	_, err := proc.CreateInstance(testNS, newInstance("CIM_Namespace", map[string]any{
		"ID": "1", "Name": "root/nsb",
	}))
	assert.ErrorIs(t, err, cim.ErrAlreadyExists)

	// The failed create must not apply its namespace side effect.
	assert.NotContains(t, proc.Namespaces(), "root/nsb")
}

func TestNamespaceDescriptorDelete_NonEmptyNamespace(t *testing.T) {
	proc := newProcessor(t)

	nsClass := newClass("__Namespace", "")
	nsClass.Properties.Set(keyProperty("Name", cim.TypeString))
	require.NoError(t, proc.CreateClass(testNS, nsClass))

	path := createInstance(t, proc, "__Namespace", map[string]any{"Name": "root/busy"})
	require.NoError(t, proc.CreateClass("root/busy", newClass("Occupant", "")))

	err := proc.DeleteInstance(path)
	assert.ErrorIs(t, err, cim.ErrNamespaceNotEmpty)

	// The descriptor instance survives the failed delete.
	_, err = proc.GetInstance(path, service.GetInstanceParams{})
	assert.NoError(t, err)
}

package service_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/repository"
	"github.com/cimlab/wbemsim/internal/service"
)

const testNS = "root/cimv2"

// newProcessor builds a processor over a fresh repository with the standard
// qualifier declarations installed in the default namespace.
func newProcessor(t *testing.T) *service.Processor {
	t.Helper()
	repo := repository.New(testNS)
	proc := service.New(repo, service.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	decls := []*cim.QualifierDeclaration{
		{
			Name: "Key", Type: cim.TypeBool, Value: false,
			Scopes:     map[cim.Scope]bool{cim.ScopeProperty: true, cim.ScopeReference: true},
			ToSubclass: true,
		},
		{
			Name: "Association", Type: cim.TypeBool, Value: false,
			Scopes:     map[cim.Scope]bool{cim.ScopeAssociation: true, cim.ScopeClass: true},
			ToSubclass: true,
		},
		{
			Name: "Override", Type: cim.TypeString,
			Scopes:      map[cim.Scope]bool{cim.ScopeProperty: true, cim.ScopeReference: true, cim.ScopeMethod: true},
			Overridable: true,
		},
		{
			Name: "Description", Type: cim.TypeString,
			Scopes:     map[cim.Scope]bool{cim.ScopeAny: true},
			ToSubclass: true, Overridable: true, Translatable: true,
		},
	}
	for _, d := range decls {
		require.NoError(t, proc.SetQualifier(testNS, d))
	}
	return proc
}

// newSchemaProcessor additionally installs the small test schema:
//
//	TST_Person (Key Name, Age)
//	TST_Employee : TST_Person (Dept)
//	TST_Project (Key Name)
//	TST_MemberOfProject [Association] (Key ref Member -> TST_Person,
//	                                   Key ref Project -> TST_Project)
func newSchemaProcessor(t *testing.T) *service.Processor {
	t.Helper()
	proc := newProcessor(t)

	person := newClass("TST_Person", "")
	person.Properties.Set(keyProperty("Name", cim.TypeString))
	person.Properties.Set(&cim.Property{Name: "Age", Type: cim.TypeUint32})
	require.NoError(t, proc.CreateClass(testNS, person))

	employee := newClass("TST_Employee", "TST_Person")
	employee.Properties.Set(&cim.Property{Name: "Dept", Type: cim.TypeString})
	require.NoError(t, proc.CreateClass(testNS, employee))

	project := newClass("TST_Project", "")
	project.Properties.Set(keyProperty("Name", cim.TypeString))
	require.NoError(t, proc.CreateClass(testNS, project))

	member := newClass("TST_MemberOfProject", "")
	member.Qualifiers.Set(&cim.Qualifier{Name: "Association", Value: true})
	memberRef := keyProperty("Member", cim.TypeReference)
	memberRef.ReferenceClass = "TST_Person"
	projectRef := keyProperty("Project", cim.TypeReference)
	projectRef.ReferenceClass = "TST_Project"
	member.Properties.Set(memberRef)
	member.Properties.Set(projectRef)
	require.NoError(t, proc.CreateClass(testNS, member))

	return proc
}

func newClass(name, super string) *cim.Class {
	return &cim.Class{
		ClassName:  name,
		SuperClass: super,
		Qualifiers: cim.NewNameMap[*cim.Qualifier](),
		Properties: cim.NewNameMap[*cim.Property](),
		Methods:    cim.NewNameMap[*cim.Method](),
	}
}

func keyProperty(name string, typ cim.Type) *cim.Property {
	p := &cim.Property{Name: name, Type: typ, Qualifiers: cim.NewNameMap[*cim.Qualifier]()}
	p.Qualifiers.Set(&cim.Qualifier{Name: "Key", Value: true})
	return p
}

// newInstance builds an instance carrying the given property values.
func newInstance(class string, props map[string]any) *cim.Instance {
	inst := &cim.Instance{ClassName: class, Properties: cim.NewNameMap[*cim.Property]()}
	for name, value := range props {
		inst.Properties.Set(&cim.Property{Name: name, Value: value})
	}
	return inst
}

// createInstance creates an instance and returns its path.
func createInstance(t *testing.T, proc *service.Processor, class string, props map[string]any) *cim.InstancePath {
	t.Helper()
	path, err := proc.CreateInstance(testNS, newInstance(class, props))
	require.NoError(t, err)
	return path
}

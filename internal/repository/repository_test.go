package repository_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/repository"
)

func TestRepository_DefaultNamespace(t *testing.T) {
	repo := repository.New("root/cimv2")

	if repo.DefaultNamespace() != "root/cimv2" {
		t.Errorf("Expected default namespace root/cimv2, got %q", repo.DefaultNamespace())
	}
	if err := repo.ValidateNamespace("root/cimv2"); err != nil {
		t.Errorf("Expected default namespace to exist: %v", err)
	}
	if _, err := repo.ClassStore("root/cimv2"); err != nil {
		t.Errorf("Expected class store for default namespace: %v", err)
	}
}

func TestRepository_AddRemoveNamespace(t *testing.T) {
	repo := repository.New("root/cimv2")

	if err := repo.AddNamespace("/root/test/"); err != nil {
		t.Fatalf("AddNamespace failed: %v", err)
	}
	// Separators are trimmed before lookup.
	if err := repo.ValidateNamespace("root/test"); err != nil {
		t.Errorf("Expected normalized namespace to exist: %v", err)
	}
	if err := repo.AddNamespace("root/test"); !errors.Is(err, cim.ErrAlreadyExists) {
		t.Errorf("Expected CIM_ERR_ALREADY_EXISTS, got %v", err)
	}

	if err := repo.RemoveNamespace("root/test"); err != nil {
		t.Fatalf("RemoveNamespace failed: %v", err)
	}
	if err := repo.ValidateNamespace("root/test"); !errors.Is(err, cim.ErrInvalidNamespace) {
		t.Errorf("Expected CIM_ERR_INVALID_NAMESPACE after removal, got %v", err)
	}
	if err := repo.RemoveNamespace("root/test"); !errors.Is(err, cim.ErrNotFound) {
		t.Errorf("Expected CIM_ERR_NOT_FOUND for second removal, got %v", err)
	}
}

func TestRepository_RemoveDefaultNamespaceRejected(t *testing.T) {
	repo := repository.New("root/cimv2")

	if err := repo.RemoveNamespace("root/cimv2"); !errors.Is(err, cim.ErrInvalidNamespace) {
		t.Errorf("Expected CIM_ERR_INVALID_NAMESPACE, got %v", err)
	}
}

func TestRepository_RemoveNonEmptyNamespaceRejected(t *testing.T) {
	repo := repository.New("root/cimv2")
	if err := repo.AddNamespace("root/test"); err != nil {
		t.Fatalf("AddNamespace failed: %v", err)
	}

	cs, err := repo.ClassStore("root/test")
	if err != nil {
		t.Fatalf("ClassStore failed: %v", err)
	}
	if err := cs.Create(&cim.Class{ClassName: "Foo"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.RemoveNamespace("root/test"); !errors.Is(err, cim.ErrNamespaceNotEmpty) {
		t.Errorf("Expected CIM_ERR_NAMESPACE_NOT_EMPTY, got %v", err)
	}

	if err := cs.Delete("Foo"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.RemoveNamespace("root/test"); err != nil {
		t.Errorf("Expected removal of emptied namespace to succeed, got %v", err)
	}
}

func TestRepository_UnknownNamespace(t *testing.T) {
	repo := repository.New("root/cimv2")

	if _, err := repo.InstanceStore("root/nope"); !errors.Is(err, cim.ErrInvalidNamespace) {
		t.Errorf("Expected CIM_ERR_INVALID_NAMESPACE, got %v", err)
	}
	if err := repo.AddNamespace(""); !errors.Is(err, cim.ErrInvalidParameter) {
		t.Errorf("Expected CIM_ERR_INVALID_PARAMETER for empty name, got %v", err)
	}
}

func TestRepository_NamespacesIteration(t *testing.T) {
	repo := repository.New("root/cimv2")
	for _, ns := range []string{"root/test", "root/interop"} {
		if err := repo.AddNamespace(ns); err != nil {
			t.Fatalf("AddNamespace %s failed: %v", ns, err)
		}
	}

	got := slices.Collect(repo.Namespaces())
	want := []string{"root/cimv2", "root/test", "root/interop"}
	if !slices.Equal(got, want) {
		t.Errorf("Expected namespaces %v, got %v", want, got)
	}
}

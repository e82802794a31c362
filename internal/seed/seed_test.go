package seed_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/repository"
	"github.com/cimlab/wbemsim/internal/seed"
	"github.com/cimlab/wbemsim/internal/service"
)

// seedYAML declares classes out of order so the superclass retry path is
// exercised, and seeds an instance of the subclass.
const seedYAML = `
namespaces:
  - name: root/cimv2
    qualifiers:
      - name: Key
        type: boolean
        value: false
        scopes: [property, reference]
        overridable: false
      - name: Description
        type: string
        scopes: [any]
        translatable: true
    classes:
      - name: TST_Disk
        superclass: TST_Device
        properties:
          - name: SizeBytes
            type: uint64
      - name: TST_Device
        qualifiers:
          - name: Description
            value: A managed device
        properties:
          - name: DeviceID
            type: string
            qualifiers:
              - name: Key
                value: true
        methods:
          - name: Reset
            return_type: uint32
    instances:
      - class: TST_Disk
        properties:
          DeviceID: disk0
          SizeBytes: 500000
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing seed file: %v", err)
	}
	return path
}

func newProcessor() *service.Processor {
	repo := repository.New("root/cimv2")
	return service.New(repo, service.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadAndApply(t *testing.T) {
	model, err := seed.Load(writeSeed(t, seedYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(model.Namespaces) != 1 {
		t.Fatalf("Expected 1 namespace, got %d", len(model.Namespaces))
	}

	proc := newProcessor()
	if err := seed.Apply(model, proc, discard()); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// Qualifier flavor defaults: omitted tosubclass is true, explicit
	// overridable false is kept.
	key, err := proc.GetQualifier("root/cimv2", "Key")
	if err != nil {
		t.Fatalf("GetQualifier failed: %v", err)
	}
	if !key.ToSubclass || key.Overridable {
		t.Errorf("Expected tosubclass=true overridable=false, got %v/%v", key.ToSubclass, key.Overridable)
	}

	// TST_Disk was declared before its superclass and still resolved.
	disk, err := proc.GetClass("root/cimv2", "TST_Disk", service.GetClassParams{
		IncludeQualifiers:  true,
		IncludeClassOrigin: true,
	})
	if err != nil {
		t.Fatalf("GetClass failed: %v", err)
	}
	id, ok := disk.Properties.Get("DeviceID")
	if !ok {
		t.Fatal("Expected inherited DeviceID property")
	}
	if !id.Propagated || id.ClassOrigin != "TST_Device" {
		t.Errorf("Expected DeviceID propagated from TST_Device, got propagated=%v origin=%s",
			id.Propagated, id.ClassOrigin)
	}
	if _, ok := disk.Methods.Get("Reset"); !ok {
		t.Error("Expected inherited Reset method")
	}

	// The instance went through normal creation and got a path.
	paths, err := proc.EnumerateInstanceNames("root/cimv2", "TST_Disk")
	if err != nil {
		t.Fatalf("EnumerateInstanceNames failed: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("Expected 1 instance, got %d", len(paths))
	}
	inst, err := proc.GetInstance(paths[0], service.GetInstanceParams{})
	if err != nil {
		t.Fatalf("GetInstance failed: %v", err)
	}
	if v, _ := inst.PropertyValue("DeviceID"); v != "disk0" {
		t.Errorf("Expected DeviceID disk0, got %v", v)
	}
}

func TestApply_SecondRunIsRejected(t *testing.T) {
	model, err := seed.Load(writeSeed(t, seedYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	proc := newProcessor()
	if err := seed.Apply(model, proc, discard()); err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}

	// Namespaces tolerate re-seeding, classes do not.
	err = seed.Apply(model, proc, discard())
	if err == nil {
		t.Fatal("Expected an error on the second Apply")
	}
	if cim.StatusOf(err) != cim.StatusAlreadyExists {
		t.Errorf("Expected CIM_ERR_ALREADY_EXISTS, got %v", err)
	}
}

func TestApply_UnresolvableSuperclass(t *testing.T) {
	const bad = `
namespaces:
  - name: root/cimv2
    classes:
      - name: TST_Orphan
        superclass: TST_Nowhere
`
	model, err := seed.Load(writeSeed(t, bad))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	err = seed.Apply(model, newProcessor(), discard())
	if cim.StatusOf(err) != cim.StatusInvalidSuperclass {
		t.Errorf("Expected CIM_ERR_INVALID_SUPERCLASS, got %v", err)
	}
}

func TestApply_NamespaceRequired(t *testing.T) {
	model := &seed.Model{Namespaces: []seed.Namespace{{}}}
	if err := seed.Apply(model, newProcessor(), discard()); err == nil {
		t.Error("Expected an error for a namespace without a name")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := seed.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	if _, err := seed.Load(writeSeed(t, "namespaces: [broken")); err == nil {
		t.Error("Expected an error for malformed YAML")
	}
}

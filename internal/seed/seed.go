// Package seed loads an initial CIM model from a YAML file and applies it
// through the operation processor, so seeded definitions go through the same
// resolution and validation as definitions created over the API.
package seed

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/service"
)

// Model is the root of a seed file.
type Model struct {
	Namespaces []Namespace `yaml:"namespaces"`
}

// Namespace is one namespace with its qualifiers, classes and instances.
type Namespace struct {
	Name       string      `yaml:"name"`
	Qualifiers []Qualifier `yaml:"qualifiers"`
	Classes    []Class     `yaml:"classes"`
	Instances  []Instance  `yaml:"instances"`
}

// Qualifier is a qualifier declaration. ToSubclass and Overridable default
// to true when omitted, matching DSP0004 flavor defaults.
type Qualifier struct {
	Name         string   `yaml:"name"`
	Type         cim.Type `yaml:"type"`
	Value        any      `yaml:"value"`
	IsArray      bool     `yaml:"is_array"`
	ArraySize    int      `yaml:"array_size"`
	Scopes       []string `yaml:"scopes"`
	ToSubclass   *bool    `yaml:"tosubclass"`
	Overridable  *bool    `yaml:"overridable"`
	Translatable bool     `yaml:"translatable"`
}

// Class is a class declaration in unresolved form.
type Class struct {
	Name       string          `yaml:"name"`
	SuperClass string          `yaml:"superclass"`
	Qualifiers []ValueQualifier `yaml:"qualifiers"`
	Properties []Property       `yaml:"properties"`
	Methods    []Method         `yaml:"methods"`
}

// ValueQualifier is a qualifier attached to a class, property, method or
// parameter.
type ValueQualifier struct {
	Name         string   `yaml:"name"`
	Type         cim.Type `yaml:"type"`
	Value        any      `yaml:"value"`
	ToSubclass   *bool    `yaml:"tosubclass"`
	Overridable  *bool    `yaml:"overridable"`
	Translatable *bool    `yaml:"translatable"`
}

// Property is a property declaration.
type Property struct {
	Name           string           `yaml:"name"`
	Type           cim.Type         `yaml:"type"`
	Value          any              `yaml:"value"`
	IsArray        bool             `yaml:"is_array"`
	ArraySize      int              `yaml:"array_size"`
	ReferenceClass string           `yaml:"reference_class"`
	Qualifiers     []ValueQualifier `yaml:"qualifiers"`
}

// Method is a method declaration.
type Method struct {
	Name       string           `yaml:"name"`
	ReturnType cim.Type         `yaml:"return_type"`
	Qualifiers []ValueQualifier `yaml:"qualifiers"`
	Parameters []Property       `yaml:"parameters"`
}

// Instance is an instance declaration: a class name and property values.
type Instance struct {
	Class      string         `yaml:"class"`
	Properties map[string]any `yaml:"properties"`
}

// Load reads and parses a seed file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return &m, nil
}

// Apply feeds the model into the processor: namespaces first, then
// qualifiers, classes and instances per namespace.
func Apply(m *Model, proc *service.Processor, log *slog.Logger) error {
	for _, ns := range m.Namespaces {
		if ns.Name == "" {
			return fmt.Errorf("seed namespace without a name")
		}
		if err := proc.AddNamespace(ns.Name); err != nil && !errors.Is(err, cim.ErrAlreadyExists) {
			return fmt.Errorf("namespace %s: %w", ns.Name, err)
		}

		for _, q := range ns.Qualifiers {
			if err := proc.SetQualifier(ns.Name, q.declaration()); err != nil {
				return fmt.Errorf("qualifier %s in %s: %w", q.Name, ns.Name, err)
			}
		}

		if err := applyClasses(proc, ns); err != nil {
			return err
		}

		for _, inst := range ns.Instances {
			if _, err := proc.CreateInstance(ns.Name, inst.instance()); err != nil {
				return fmt.Errorf("instance of %s in %s: %w", inst.Class, ns.Name, err)
			}
		}

		log.Info("seeded namespace",
			"namespace", ns.Name,
			"qualifiers", len(ns.Qualifiers),
			"classes", len(ns.Classes),
			"instances", len(ns.Instances),
		)
	}
	return nil
}

// applyClasses creates the namespace's classes, retrying classes whose
// superclass has not been created yet so seed files need not be ordered.
func applyClasses(proc *service.Processor, ns Namespace) error {
	pending := make([]Class, len(ns.Classes))
	copy(pending, ns.Classes)

	for len(pending) > 0 {
		var (
			retry   []Class
			lastErr error
		)
		for _, c := range pending {
			err := proc.CreateClass(ns.Name, c.class())
			if err == nil {
				continue
			}
			if errors.Is(err, cim.ErrInvalidSuperclass) {
				retry = append(retry, c)
				lastErr = fmt.Errorf("class %s in %s: %w", c.Name, ns.Name, err)
				continue
			}
			return fmt.Errorf("class %s in %s: %w", c.Name, ns.Name, err)
		}
		if len(retry) == len(pending) {
			return lastErr
		}
		pending = retry
	}
	return nil
}

func (q Qualifier) declaration() *cim.QualifierDeclaration {
	scopes := make(map[cim.Scope]bool, len(q.Scopes))
	for _, s := range q.Scopes {
		scopes[cim.Scope(s)] = true
	}
	return &cim.QualifierDeclaration{
		Name:         q.Name,
		Type:         q.Type,
		Value:        q.Value,
		IsArray:      q.IsArray,
		ArraySize:    q.ArraySize,
		Scopes:       scopes,
		ToSubclass:   boolOr(q.ToSubclass, true),
		Overridable:  boolOr(q.Overridable, true),
		Translatable: q.Translatable,
	}
}

func (c Class) class() *cim.Class {
	cls := &cim.Class{
		ClassName:  c.Name,
		SuperClass: c.SuperClass,
		Qualifiers: qualifierMap(c.Qualifiers),
		Properties: cim.NewNameMap[*cim.Property](),
		Methods:    cim.NewNameMap[*cim.Method](),
	}
	for _, p := range c.Properties {
		cls.Properties.Set(p.property())
	}
	for _, m := range c.Methods {
		cls.Methods.Set(m.method())
	}
	return cls
}

func (p Property) property() *cim.Property {
	return &cim.Property{
		Name:           p.Name,
		Type:           p.Type,
		Value:          p.Value,
		IsArray:        p.IsArray,
		ArraySize:      p.ArraySize,
		ReferenceClass: p.ReferenceClass,
		Qualifiers:     qualifierMap(p.Qualifiers),
	}
}

func (m Method) method() *cim.Method {
	method := &cim.Method{
		Name:       m.Name,
		ReturnType: m.ReturnType,
		Qualifiers: qualifierMap(m.Qualifiers),
		Parameters: cim.NewNameMap[*cim.Parameter](),
	}
	for _, p := range m.Parameters {
		method.Parameters.Set(&cim.Parameter{
			Name:           p.Name,
			Type:           p.Type,
			IsArray:        p.IsArray,
			ArraySize:      p.ArraySize,
			ReferenceClass: p.ReferenceClass,
			Qualifiers:     qualifierMap(p.Qualifiers),
		})
	}
	return method
}

func (i Instance) instance() *cim.Instance {
	inst := &cim.Instance{
		ClassName:  i.Class,
		Properties: cim.NewNameMap[*cim.Property](),
	}
	for name, value := range i.Properties {
		inst.Properties.Set(&cim.Property{Name: name, Value: value})
	}
	return inst
}

func qualifierMap(quals []ValueQualifier) *cim.NameMap[*cim.Qualifier] {
	m := cim.NewNameMap[*cim.Qualifier]()
	for _, q := range quals {
		m.Set(&cim.Qualifier{
			Name:         q.Name,
			Type:         q.Type,
			Value:        q.Value,
			ToSubclass:   q.ToSubclass,
			Overridable:  q.Overridable,
			Translatable: q.Translatable,
		})
	}
	return m
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

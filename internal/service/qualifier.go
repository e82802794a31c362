package service

import (
	"github.com/cimlab/wbemsim/internal/cim"
)

// GetQualifier returns the named qualifier declaration.
func (p *Processor) GetQualifier(namespace, name string) (*cim.QualifierDeclaration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	qs, err := p.repo.QualifierStore(namespace)
	if err != nil {
		return nil, err
	}
	return qs.Get(name)
}

// EnumerateQualifiers returns every qualifier declaration of the namespace.
func (p *Processor) EnumerateQualifiers(namespace string) ([]*cim.QualifierDeclaration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	qs, err := p.repo.QualifierStore(namespace)
	if err != nil {
		return nil, err
	}
	var out []*cim.QualifierDeclaration
	for decl := range qs.Declarations() {
		out = append(out, decl)
	}
	return out, nil
}

// SetQualifier creates the qualifier declaration, or replaces it when one
// with the same name exists (DSP0200 create-or-replace semantics).
func (p *Processor) SetQualifier(namespace string, decl *cim.QualifierDeclaration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if decl == nil || decl.Name == "" {
		return cim.Errorf(cim.StatusInvalidParameter, "qualifier declaration has no name")
	}
	if !decl.Type.Valid() || decl.Type == cim.TypeReference {
		return cim.Errorf(cim.StatusInvalidParameter,
			"qualifier declaration %q has invalid type %q", decl.Name, decl.Type)
	}
	if len(decl.Scopes) == 0 {
		return cim.Errorf(cim.StatusInvalidParameter,
			"qualifier declaration %q has no scopes", decl.Name)
	}
	qs, err := p.repo.QualifierStore(namespace)
	if err != nil {
		return err
	}
	if qs.Exists(decl.Name) {
		return qs.Update(decl)
	}
	return qs.Create(decl)
}

// DeleteQualifier removes the named qualifier declaration.
func (p *Processor) DeleteQualifier(namespace, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	qs, err := p.repo.QualifierStore(namespace)
	if err != nil {
		return err
	}
	return qs.Delete(name)
}

// ExecQuery is not implemented: no query language is supported.
func (p *Processor) ExecQuery(namespace, queryLanguage, query string) ([]*cim.Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.repo.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	return nil, cim.Errorf(cim.StatusQueryLanguageNotSupported,
		"query language %q is not supported", queryLanguage)
}

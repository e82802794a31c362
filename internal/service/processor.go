// Package service implements the WBEM intrinsic operations (DSP0200) on top
// of the repository and the class resolver, plus the open/pull/close paged
// enumeration protocol.
package service

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/repository"
	"github.com/cimlab/wbemsim/internal/resolver"
	"github.com/cimlab/wbemsim/internal/storage"
)

// Reserved class names whose instances describe namespaces. Creating or
// deleting such an instance implicitly creates or removes the namespace
// named by its Name property.
var namespaceClassNames = []string{"CIM_Namespace", "__Namespace"}

// Config tunes the enumeration protocol.
type Config struct {
	// DefaultMaxObjectCount is the batch size used when an Open or Pull
	// call does not supply MaxObjectCount.
	DefaultMaxObjectCount uint32
	// MaxOperationTimeout bounds the OperationTimeout accepted by Open
	// calls, in seconds.
	MaxOperationTimeout uint32
}

// Defaults for Config fields left zero.
const (
	defaultMaxObjectCount = 100
	defaultMaxTimeout     = 40
)

// Processor executes WBEM intrinsic operations against one repository. It
// holds the class resolver by composition and serializes all operations with
// a single coarse lock, since the stores make no provision for concurrent
// writers.
type Processor struct {
	mu       sync.Mutex
	repo     *repository.Repository
	resolver *resolver.Resolver
	contexts map[string]*enumContext
	cfg      Config
	log      *slog.Logger
}

// New creates a Processor over the repository.
func New(repo *repository.Repository, cfg Config, logger *slog.Logger) *Processor {
	if cfg.DefaultMaxObjectCount == 0 {
		cfg.DefaultMaxObjectCount = defaultMaxObjectCount
	}
	if cfg.MaxOperationTimeout == 0 {
		cfg.MaxOperationTimeout = defaultMaxTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:     repo,
		resolver: resolver.New(),
		contexts: make(map[string]*enumContext),
		cfg:      cfg,
		log:      logger,
	}
}

// DefaultNamespace returns the connection default namespace.
func (p *Processor) DefaultNamespace() string {
	return p.repo.DefaultNamespace()
}

// Namespaces lists all namespace names.
func (p *Processor) Namespaces() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for ns := range p.repo.Namespaces() {
		out = append(out, ns)
	}
	return out
}

// AddNamespace creates a namespace.
func (p *Processor) AddNamespace(namespace string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.repo.AddNamespace(namespace)
}

// RemoveNamespace removes an empty, non-default namespace.
func (p *Processor) RemoveNamespace(namespace string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.repo.RemoveNamespace(namespace)
}

// stores fetches the full store triple of a namespace.
func (p *Processor) stores(namespace string) (storage.ClassStore, storage.InstanceStore, storage.QualifierStore, error) {
	cs, err := p.repo.ClassStore(namespace)
	if err != nil {
		return nil, nil, nil, err
	}
	is, err := p.repo.InstanceStore(namespace)
	if err != nil {
		return nil, nil, nil, err
	}
	qs, err := p.repo.QualifierStore(namespace)
	if err != nil {
		return nil, nil, nil, err
	}
	return cs, is, qs, nil
}

// subclassNames returns the names of the subclasses of className, walking
// the stored superclass pointers. With className == "" it returns the
// top-level classes. deep selects the transitive closure instead of direct
// children only. The start class itself is not included.
func subclassNames(cs storage.ClassStore, className string, deep bool) []string {
	direct := func(parent string) []string {
		var out []string
		for cls := range cs.PeekClasses() {
			if parent == "" {
				if cls.SuperClass == "" {
					out = append(out, cls.ClassName)
				}
			} else if cim.NameEqual(cls.SuperClass, parent) {
				out = append(out, cls.ClassName)
			}
		}
		return out
	}

	result := direct(className)
	if !deep {
		return result
	}
	for i := 0; i < len(result); i++ {
		result = append(result, direct(result[i])...)
	}
	return result
}

// classClosure returns a lower-cased set holding className and all of its
// subclasses, deep.
func classClosure(cs storage.ClassStore, className string) (map[string]bool, error) {
	if !cs.Exists(className) {
		return nil, cim.Errorf(cim.StatusInvalidParameter, "filter class %q does not exist", className)
	}
	set := map[string]bool{strings.ToLower(className): true}
	for _, name := range subclassNames(cs, className, true) {
		set[strings.ToLower(name)] = true
	}
	return set, nil
}

// ancestry returns className followed by its superclass chain, walking the
// stored classes.
func ancestry(cs storage.ClassStore, className string) ([]string, error) {
	var chain []string
	name := className
	for name != "" {
		cls, err := cs.Peek(name)
		if err != nil {
			return nil, err
		}
		chain = append(chain, cls.ClassName)
		name = cls.SuperClass
	}
	return chain, nil
}

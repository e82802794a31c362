package service

import (
	"github.com/google/uuid"

	"github.com/cimlab/wbemsim/internal/cim"
)

// PullType distinguishes the three pull-style result shapes. A sequence
// opened with one shape can only be pulled with the matching Pull call.
type PullType int

const (
	// PullTypeInstancesWithPath pulls instances that carry their paths.
	PullTypeInstancesWithPath PullType = iota
	// PullTypePaths pulls instance paths only.
	PullTypePaths
	// PullTypeInstances pulls instances without paths (query results).
	PullTypeInstances
)

// enumContext is one paused enumeration sequence. The recorded timeout is
// advisory: contexts live until pulled to exhaustion or closed.
type enumContext struct {
	id        string
	namespace string
	pullType  PullType
	instances []*cim.Instance
	paths     []*cim.InstancePath
	timeout   uint32
}

// PullResult is the (objects, end-of-sequence, context) triple returned by
// every open and pull operation. Exactly one of Instances and Paths is
// populated, matching the sequence's pull type. EnumerationContext is ""
// once the sequence is complete.
type PullResult struct {
	Instances          []*cim.Instance     `json:"instances,omitempty"`
	Paths              []*cim.InstancePath `json:"paths,omitempty"`
	EndOfSequence      bool                `json:"end_of_sequence"`
	EnumerationContext string              `json:"enumeration_context,omitempty"`
}

// OpenParams are the protocol parameters shared by every Open operation.
type OpenParams struct {
	// MaxObjectCount is the size of the first batch; nil selects the
	// server default.
	MaxObjectCount *uint32
	// OperationTimeout in seconds; validated against the server maximum
	// and recorded on the context.
	OperationTimeout *uint32
	// ContinueOnError is not supported and must be false.
	ContinueOnError bool
	// FilterQueryLanguage/FilterQuery request filtered enumeration,
	// which is not supported.
	FilterQueryLanguage string
	FilterQuery         string
}

func (p *Processor) checkOpenParams(params OpenParams) (batch int, timeout uint32, err error) {
	if params.ContinueOnError {
		return 0, 0, cim.Errorf(cim.StatusContinuationNotSupported,
			"ContinueOnError is not supported")
	}
	if params.FilterQueryLanguage != "" || params.FilterQuery != "" {
		return 0, 0, cim.Errorf(cim.StatusFilteredEnumNotSupported,
			"filtered enumeration is not supported")
	}
	batch = int(p.cfg.DefaultMaxObjectCount)
	if params.MaxObjectCount != nil {
		batch = int(*params.MaxObjectCount)
	}
	if params.OperationTimeout != nil {
		if *params.OperationTimeout > p.cfg.MaxOperationTimeout {
			return 0, 0, cim.Errorf(cim.StatusInvalidOperationTimeout,
				"operation timeout %d exceeds the server maximum %d",
				*params.OperationTimeout, p.cfg.MaxOperationTimeout)
		}
		timeout = *params.OperationTimeout
	}
	return batch, timeout, nil
}

// open starts an enumeration sequence over a fully computed result. When
// the result fits in the first batch it is returned complete, with no
// context created.
func (p *Processor) open(namespace string, pullType PullType, instances []*cim.Instance, paths []*cim.InstancePath, params OpenParams) (*PullResult, error) {
	batch, timeout, err := p.checkOpenParams(params)
	if err != nil {
		return nil, err
	}

	result := &PullResult{}
	switch pullType {
	case PullTypePaths:
		if len(paths) <= batch {
			result.Paths = paths
			result.EndOfSequence = true
			return result, nil
		}
		result.Paths = paths[:batch]
		paths = paths[batch:]
	default:
		if len(instances) <= batch {
			result.Instances = instances
			result.EndOfSequence = true
			return result, nil
		}
		result.Instances = instances[:batch]
		instances = instances[batch:]
	}

	ctx := &enumContext{
		id:        uuid.NewString(),
		namespace: cim.NormalizeNamespace(namespace),
		pullType:  pullType,
		instances: instances,
		paths:     paths,
		timeout:   timeout,
	}
	p.contexts[ctx.id] = ctx
	result.EnumerationContext = ctx.id
	p.log.Debug("enumeration context opened",
		"context", ctx.id, "namespace", ctx.namespace, "remaining", ctx.remaining())
	return result, nil
}

func (c *enumContext) remaining() int {
	if c.pullType == PullTypePaths {
		return len(c.paths)
	}
	return len(c.instances)
}

// pull returns the next batch of an open sequence. The context is discarded
// once the sequence is exhausted; a later pull on the same context fails
// with CIM_ERR_INVALID_ENUMERATION_CONTEXT.
func (p *Processor) pull(contextID string, pullType PullType, maxObjectCount *uint32) (*PullResult, error) {
	ctx, ok := p.contexts[contextID]
	if !ok {
		return nil, cim.Errorf(cim.StatusInvalidEnumerationContext,
			"enumeration context %q is unknown", contextID)
	}
	if ctx.pullType != pullType {
		return nil, cim.Errorf(cim.StatusInvalidEnumerationContext,
			"enumeration context %q was opened for a different pull type", contextID)
	}
	batch := int(p.cfg.DefaultMaxObjectCount)
	if maxObjectCount != nil {
		batch = int(*maxObjectCount)
	}

	result := &PullResult{}
	if ctx.pullType == PullTypePaths {
		if batch >= len(ctx.paths) {
			batch = len(ctx.paths)
		}
		result.Paths = ctx.paths[:batch]
		ctx.paths = ctx.paths[batch:]
	} else {
		if batch >= len(ctx.instances) {
			batch = len(ctx.instances)
		}
		result.Instances = ctx.instances[:batch]
		ctx.instances = ctx.instances[batch:]
	}

	if ctx.remaining() == 0 {
		delete(p.contexts, contextID)
		result.EndOfSequence = true
		return result, nil
	}
	result.EnumerationContext = contextID
	return result, nil
}

// OpenEnumerateInstances starts a paged EnumerateInstances sequence. The
// instances carry their paths.
func (p *Processor) OpenEnumerateInstances(namespace, className string, instParams EnumerateInstancesParams, params OpenParams) (*PullResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	instances, err := p.enumerateInstances(namespace, className, instParams)
	if err != nil {
		return nil, err
	}
	return p.open(namespace, PullTypeInstancesWithPath, instances, nil, params)
}

// OpenEnumerateInstancePaths starts a paged EnumerateInstanceNames sequence.
func (p *Processor) OpenEnumerateInstancePaths(namespace, className string, params OpenParams) (*PullResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	paths, err := p.enumerateInstanceNames(namespace, className)
	if err != nil {
		return nil, err
	}
	return p.open(namespace, PullTypePaths, nil, paths, params)
}

// OpenReferenceInstances starts a paged References sequence over an
// instance source.
func (p *Processor) OpenReferenceInstances(source *cim.InstancePath, assocParams AssocParams, params OpenParams) (*PullResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	instances, err := p.referenceInstanceObjects(source, assocParams)
	if err != nil {
		return nil, err
	}
	return p.open(source.Namespace, PullTypeInstancesWithPath, instances, nil, params)
}

// OpenReferenceInstancePaths starts a paged ReferenceNames sequence over an
// instance source.
func (p *Processor) OpenReferenceInstancePaths(source *cim.InstancePath, assocParams AssocParams, params OpenParams) (*PullResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	matches, err := p.referenceInstances(source, assocParams)
	if err != nil {
		return nil, err
	}
	var paths []*cim.InstancePath
	seen := make(map[string]bool)
	for _, m := range matches {
		canonical := m.instance.Path.Canonical()
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		path := m.instance.Path.DeepCopy()
		if path.Namespace == "" {
			path.Namespace = cim.NormalizeNamespace(source.Namespace)
		}
		paths = append(paths, path)
	}
	return p.open(source.Namespace, PullTypePaths, nil, paths, params)
}

// OpenAssociatorInstances starts a paged Associators sequence over an
// instance source.
func (p *Processor) OpenAssociatorInstances(source *cim.InstancePath, assocParams AssocParams, params OpenParams) (*PullResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	instances, err := p.associatorInstanceObjects(source, assocParams)
	if err != nil {
		return nil, err
	}
	return p.open(source.Namespace, PullTypeInstancesWithPath, instances, nil, params)
}

// OpenAssociatorInstancePaths starts a paged AssociatorNames sequence over
// an instance source.
func (p *Processor) OpenAssociatorInstancePaths(source *cim.InstancePath, assocParams AssocParams, params OpenParams) (*PullResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	paths, err := p.associatorPaths(source, assocParams)
	if err != nil {
		return nil, err
	}
	return p.open(source.Namespace, PullTypePaths, nil, paths, params)
}

// OpenQueryInstances would start a paged ExecQuery sequence; no query
// language is supported.
func (p *Processor) OpenQueryInstances(namespace, queryLanguage, query string, params OpenParams) (*PullResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.repo.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	return nil, cim.Errorf(cim.StatusQueryLanguageNotSupported,
		"query language %q is not supported", queryLanguage)
}

// PullInstancesWithPath continues a sequence opened by
// OpenEnumerateInstances, OpenReferenceInstances or
// OpenAssociatorInstances.
func (p *Processor) PullInstancesWithPath(contextID string, maxObjectCount *uint32) (*PullResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pull(contextID, PullTypeInstancesWithPath, maxObjectCount)
}

// PullInstancePaths continues a sequence opened by any of the path-only
// open operations.
func (p *Processor) PullInstancePaths(contextID string, maxObjectCount *uint32) (*PullResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pull(contextID, PullTypePaths, maxObjectCount)
}

// PullInstances continues a sequence opened by OpenQueryInstances.
func (p *Processor) PullInstances(contextID string, maxObjectCount *uint32) (*PullResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pull(contextID, PullTypeInstances, maxObjectCount)
}

// CloseEnumeration discards an open sequence early. The context must exist
// and must have been opened in the same namespace.
func (p *Processor) CloseEnumeration(namespace, contextID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, ok := p.contexts[contextID]
	if !ok {
		return cim.Errorf(cim.StatusInvalidEnumerationContext,
			"enumeration context %q is unknown", contextID)
	}
	if !cim.NameEqual(ctx.namespace, cim.NormalizeNamespace(namespace)) {
		return cim.Errorf(cim.StatusInvalidEnumerationContext,
			"enumeration context %q belongs to namespace %q", contextID, ctx.namespace)
	}
	delete(p.contexts, contextID)
	p.log.Debug("enumeration context closed", "context", contextID, "namespace", ctx.namespace)
	return nil
}

// OpenContextCount reports the number of live enumeration contexts.
func (p *Processor) OpenContextCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.contexts)
}

package service_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/service"
)

func uint32Ptr(v uint32) *uint32 { return &v }

// seedPersons creates n persons named person-0..person-(n-1).
func seedPersons(t *testing.T, proc *service.Processor, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		createInstance(t, proc, "TST_Person", map[string]any{
			"Name": fmt.Sprintf("person-%d", i),
		})
	}
}

func TestOpenEnumerateInstances_SingleBatch(t *testing.T) {
	proc := newSchemaProcessor(t)
	seedPersons(t, proc, 3)

	result, err := proc.OpenEnumerateInstances(testNS, "TST_Person",
		service.EnumerateInstancesParams{DeepInheritance: true},
		service.OpenParams{MaxObjectCount: uint32Ptr(10)})
	require.NoError(t, err)

	assert.True(t, result.EndOfSequence)
	assert.Empty(t, result.EnumerationContext, "a complete result carries no context")
	assert.Len(t, result.Instances, 3)
	assert.Equal(t, 0, proc.OpenContextCount())

	for _, inst := range result.Instances {
		assert.NotNil(t, inst.Path, "pulled instances carry their paths")
	}
}

func TestOpenPullClose_FullSequence(t *testing.T) {
	proc := newSchemaProcessor(t)
	seedPersons(t, proc, 7)

	unpaged, err := proc.EnumerateInstances(testNS, "TST_Person",
		service.EnumerateInstancesParams{DeepInheritance: true})
	require.NoError(t, err)
	require.Len(t, unpaged, 7)

	result, err := proc.OpenEnumerateInstances(testNS, "TST_Person",
		service.EnumerateInstancesParams{DeepInheritance: true},
		service.OpenParams{MaxObjectCount: uint32Ptr(3)})
	require.NoError(t, err)
	require.False(t, result.EndOfSequence)
	require.NotEmpty(t, result.EnumerationContext)
	assert.Equal(t, 1, proc.OpenContextCount())

	paged := append([]*cim.Instance(nil), result.Instances...)
	ctx := result.EnumerationContext
	for !result.EndOfSequence {
		result, err = proc.PullInstancesWithPath(ctx, uint32Ptr(3))
		require.NoError(t, err)
		paged = append(paged, result.Instances...)
	}
	assert.Equal(t, 0, proc.OpenContextCount())

	// The concatenated batches match the unpaged enumeration, in order.
	require.Len(t, paged, len(unpaged))
	for i := range unpaged {
		assert.True(t, unpaged[i].Path.Equal(paged[i].Path),
			"batch element %d is %s, unpaged has %s", i, paged[i].Path, unpaged[i].Path)
	}

	// The context is gone after end of sequence.
	_, err = proc.PullInstancesWithPath(ctx, uint32Ptr(3))
	assert.ErrorIs(t, err, cim.ErrInvalidEnumerationContext)
}

func TestOpenEnumerateInstancePaths(t *testing.T) {
	proc := newSchemaProcessor(t)
	seedPersons(t, proc, 5)

	result, err := proc.OpenEnumerateInstancePaths(testNS, "TST_Person",
		service.OpenParams{MaxObjectCount: uint32Ptr(2)})
	require.NoError(t, err)
	require.Len(t, result.Paths, 2)
	require.False(t, result.EndOfSequence)

	// Pulling with the wrong shape invalidates nothing but fails.
	_, err = proc.PullInstancesWithPath(result.EnumerationContext, uint32Ptr(2))
	assert.ErrorIs(t, err, cim.ErrInvalidEnumerationContext)

	rest, err := proc.PullInstancePaths(result.EnumerationContext, uint32Ptr(10))
	require.NoError(t, err)
	assert.Len(t, rest.Paths, 3)
	assert.True(t, rest.EndOfSequence)
}

func TestCloseEnumeration(t *testing.T) {
	proc := newSchemaProcessor(t)
	seedPersons(t, proc, 5)

	result, err := proc.OpenEnumerateInstancePaths(testNS, "TST_Person",
		service.OpenParams{MaxObjectCount: uint32Ptr(1)})
	require.NoError(t, err)
	ctx := result.EnumerationContext

	// Closing against the wrong namespace is rejected.
	require.NoError(t, proc.AddNamespace("root/other"))
	err = proc.CloseEnumeration("root/other", ctx)
	assert.ErrorIs(t, err, cim.ErrInvalidEnumerationContext)

	require.NoError(t, proc.CloseEnumeration(testNS, ctx))
	assert.Equal(t, 0, proc.OpenContextCount())

	_, err = proc.PullInstancePaths(ctx, nil)
	assert.ErrorIs(t, err, cim.ErrInvalidEnumerationContext)

	err = proc.CloseEnumeration(testNS, "no-such-context")
	assert.ErrorIs(t, err, cim.ErrInvalidEnumerationContext)
}

func TestOpenParams_Validation(t *testing.T) {
	proc := newSchemaProcessor(t)

	_, err := proc.OpenEnumerateInstancePaths(testNS, "TST_Person", service.OpenParams{
		ContinueOnError: true,
	})
	assert.Equal(t, cim.StatusContinuationNotSupported, cim.StatusOf(err))

	_, err = proc.OpenEnumerateInstancePaths(testNS, "TST_Person", service.OpenParams{
		FilterQueryLanguage: "DMTF:FQL",
		FilterQuery:         "Name = 'x'",
	})
	assert.Equal(t, cim.StatusFilteredEnumNotSupported, cim.StatusOf(err))

	_, err = proc.OpenEnumerateInstancePaths(testNS, "TST_Person", service.OpenParams{
		OperationTimeout: uint32Ptr(3600),
	})
	assert.ErrorIs(t, err, cim.ErrInvalidOperationTimeout)

	_, err = proc.OpenEnumerateInstancePaths("root/nope", "TST_Person", service.OpenParams{})
	assert.ErrorIs(t, err, cim.ErrInvalidNamespace)
}

func TestOpenReferenceAndAssociatorSequences(t *testing.T) {
	f := newAssocFixture(t)

	result, err := f.proc.OpenReferenceInstancePaths(f.proj, service.AssocParams{}, service.OpenParams{
		MaxObjectCount: uint32Ptr(1),
	})
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	require.False(t, result.EndOfSequence)

	rest, err := f.proc.PullInstancePaths(result.EnumerationContext, nil)
	require.NoError(t, err)
	assert.Len(t, rest.Paths, 1)
	assert.True(t, rest.EndOfSequence)

	assoc, err := f.proc.OpenAssociatorInstances(f.proj, service.AssocParams{}, service.OpenParams{})
	require.NoError(t, err)
	assert.True(t, assoc.EndOfSequence)
	assert.Len(t, assoc.Instances, 2)
}

func TestOpenQueryInstances_NotSupported(t *testing.T) {
	proc := newSchemaProcessor(t)

	_, err := proc.OpenQueryInstances(testNS, "WQL", "SELECT * FROM TST_Person", service.OpenParams{})
	assert.ErrorIs(t, err, cim.ErrQueryLanguageNotSupported)
}

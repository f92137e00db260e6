package registry_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebridge/casebridge/internal/domain"
	"github.com/casebridge/casebridge/internal/registry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func methodDef(name string, params ...domain.ParameterSchema) domain.MethodDefinition {
	return domain.MethodDefinition{
		Name:          name,
		Parameters:    params,
		ReturnKind:    domain.ValueSpec{Kind: domain.KindRecord},
		SideEffects:   domain.SideEffectsReadOnly,
		OwningService: "svc",
	}
}

func strParam(name string, required bool) domain.ParameterSchema {
	return domain.ParameterSchema{Name: name, Value: domain.ValueSpec{Kind: domain.KindString}, Required: required}
}

func TestMethodRegistry_Register(t *testing.T) {
	t.Run("registers and looks up", func(t *testing.T) {
		r := registry.NewMethodRegistry(testLogger())
		def := methodDef("get_item", strParam("item_id", true))
		require.NoError(t, r.Register(def))

		got, err := r.Lookup("get_item")
		require.NoError(t, err)
		assert.Equal(t, def, got)
		assert.Equal(t, 1, r.Len())
	})

	t.Run("identical re-registration is a no-op", func(t *testing.T) {
		r := registry.NewMethodRegistry(testLogger())
		def := methodDef("get_item", strParam("item_id", true))
		require.NoError(t, r.Register(def))
		require.NoError(t, r.Register(def))
		assert.Equal(t, 1, r.Len())
	})

	t.Run("conflicting re-registration is rejected", func(t *testing.T) {
		r := registry.NewMethodRegistry(testLogger())
		require.NoError(t, r.Register(methodDef("get_item", strParam("item_id", true))))

		err := r.Register(methodDef("get_item", strParam("item_id", false)))
		var dup *registry.DuplicateNameError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "get_item", dup.Name)

		// Original definition survives.
		got, lookupErr := r.Lookup("get_item")
		require.NoError(t, lookupErr)
		assert.True(t, got.Parameters[0].Required)
	})

	t.Run("invalid definition does not touch registry state", func(t *testing.T) {
		r := registry.NewMethodRegistry(testLogger())
		err := r.Register(methodDef("dup_params", strParam("p", true), strParam("p", false)))
		require.Error(t, err)
		assert.Equal(t, 0, r.Len())
	})
}

func TestMethodRegistry_Lookup_NotFound(t *testing.T) {
	r := registry.NewMethodRegistry(testLogger())
	_, err := r.Lookup("nope")
	assert.ErrorIs(t, err, registry.ErrMethodNotFound)
	assert.Contains(t, err.Error(), `"nope"`)
}

func TestMethodRegistry_All_SortedCopy(t *testing.T) {
	r := registry.NewMethodRegistry(testLogger())
	require.NoError(t, r.Register(methodDef("zeta")))
	require.NoError(t, r.Register(methodDef("alpha")))
	require.NoError(t, r.Register(methodDef("mid")))

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "mid", all[1].Name)
	assert.Equal(t, "zeta", all[2].Name)

	// Mutating the snapshot must not affect the registry.
	all[0].Name = "mutated"
	_, err := r.Lookup("alpha")
	assert.NoError(t, err)
}

func TestMethodRegistry_SnapshotsAreDeepCopies(t *testing.T) {
	r := registry.NewMethodRegistry(testLogger())
	require.NoError(t, r.Register(methodDef("get_item", strParam("item_id", true))))

	// Writes through nested slices of an All snapshot must not reach the
	// registry's own copy.
	all := r.All()
	all[0].Parameters[0].Required = false

	def, err := r.Lookup("get_item")
	require.NoError(t, err)
	assert.True(t, def.Parameters[0].Required)

	// Lookup results are equally isolated.
	def.Parameters[0].Name = "tampered"
	again, err := r.Lookup("get_item")
	require.NoError(t, err)
	assert.Equal(t, "item_id", again.Parameters[0].Name)
}

type stubMethodSource struct {
	defs []domain.MethodDefinition
	errs []error
}

func (s stubMethodSource) Methods(context.Context) ([]domain.MethodDefinition, []error) {
	return s.defs, s.errs
}

func TestMethodRegistry_LoadFromDeclarative_PartialSuccess(t *testing.T) {
	r := registry.NewMethodRegistry(testLogger())
	require.NoError(t, r.Register(methodDef("existing", strParam("p", true))))

	src := stubMethodSource{
		defs: []domain.MethodDefinition{
			methodDef("fresh"),
			methodDef("existing", strParam("p", false)), // conflicts
			methodDef(""),                               // invalid
		},
		errs: []error{&registry.ParseError{Entry: "methods[3]", Err: errors.New("bad yaml")}},
	}

	result := r.LoadFromDeclarative(context.Background(), src)

	assert.Equal(t, 1, result.Count)
	assert.Len(t, result.Errors, 3)
	assert.Equal(t, 2, r.Len())

	var dup *registry.DuplicateNameError
	found := false
	for _, err := range result.Errors {
		if errors.As(err, &dup) {
			found = true
		}
	}
	assert.True(t, found, "expected a DuplicateNameError among load errors")
}

package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/casebridge/casebridge/internal/checker"
	"github.com/casebridge/casebridge/internal/domain"
	"github.com/casebridge/casebridge/internal/execctx"
	"github.com/casebridge/casebridge/internal/registry"
	"github.com/casebridge/casebridge/internal/usecase"
)

// MockServiceInvoker is a mock implementation of the ServiceInvoker interface.
type MockServiceInvoker struct {
	mock.Mock
}

func (m *MockServiceInvoker) Invoke(ctx context.Context, method domain.MethodDefinition, ec *execctx.Context, args map[string]any) (map[string]any, error) {
	called := m.Called(ctx, method, ec, args)
	if called.Get(0) == nil {
		return nil, called.Error(1)
	}
	return called.Get(0).(map[string]any), called.Error(1)
}

// MockIdentityProvider is a mock implementation of the IdentityProvider interface.
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) Identity(ctx context.Context) (string, string, error) {
	called := m.Called(ctx)
	return called.String(0), called.String(1), called.Error(2)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loadedHolder builds registries from the given definitions, runs the checker
// and publishes the resulting snapshot, mirroring the production load path.
func loadedHolder(t *testing.T, methods []domain.MethodDefinition, tools []domain.ToolDefinition) *usecase.SnapshotHolder {
	t.Helper()
	logger := testLogger()
	mr := registry.NewMethodRegistry(logger)
	for _, m := range methods {
		require.NoError(t, mr.Register(m))
	}
	tr := registry.NewToolRegistry(logger)
	for _, tl := range tools {
		require.NoError(t, tr.Register(tl))
	}
	holder := &usecase.SnapshotHolder{}
	uc := usecase.NewCheckToolsUseCase(checker.DefaultOptions(), holder, logger)
	uc.Execute(context.Background(), mr, tr)
	return holder
}

func TestInvokeToolUseCase_Execute(t *testing.T) {
	ctx := context.Background()

	idParam := domain.ParameterSchema{
		Name:     "casefile_id",
		Value:    domain.ValueSpec{Kind: domain.KindIdentifier},
		Required: true,
	}
	getMethod := domain.MethodDefinition{
		Name:          "get_casefile",
		Parameters:    []domain.ParameterSchema{idParam},
		ReturnKind:    domain.ValueSpec{Kind: domain.KindRecord},
		SideEffects:   domain.SideEffectsReadOnly,
		OwningService: "casefile",
	}
	getTool := domain.ToolDefinition{
		Name:        "casefile-get",
		BoundMethod: "get_casefile",
		Parameters:  []domain.ParameterSchema{idParam},
		Policy:      domain.PolicyDirect,
	}

	t.Run("success threads context and records the trail", func(t *testing.T) {
		holder := loadedHolder(t, []domain.MethodDefinition{getMethod}, []domain.ToolDefinition{getTool})
		invoker := new(MockServiceInvoker)
		identity := new(MockIdentityProvider)
		identity.On("Identity", mock.Anything).Return("user-1", "sn_250830_abc", nil).Once()

		args := map[string]any{"casefile_id": "cf_250830_k3x"}
		wantResult := map[string]any{"id": "cf_250830_k3x", "title": "Claim"}
		invoker.On("Invoke", mock.Anything, getMethod, mock.Anything, args).
			Run(func(callArgs mock.Arguments) {
				ec := callArgs.Get(2).(*execctx.Context)
				assert.Equal(t, "user-1", ec.UserID())
				assert.Equal(t, "sn_250830_abc", ec.SessionID())
				assert.Equal(t, "cf_250830_k3x", ec.CasefileID())
			}).
			Return(wantResult, nil).Once()

		uc := usecase.NewInvokeToolUseCase(holder, invoker, identity, testLogger())
		result, events, err := uc.Execute(ctx, "casefile-get", args)

		require.NoError(t, err)
		assert.Equal(t, wantResult, result)
		require.Len(t, events, 2)
		assert.Equal(t, "tool_invoked", events[0].Kind)
		assert.Equal(t, "tool_completed", events[1].Kind)
		invoker.AssertExpectations(t)
		identity.AssertExpectations(t)
	})

	t.Run("before first load", func(t *testing.T) {
		uc := usecase.NewInvokeToolUseCase(&usecase.SnapshotHolder{}, new(MockServiceInvoker), new(MockIdentityProvider), testLogger())
		_, _, err := uc.Execute(ctx, "casefile-get", nil)
		assert.ErrorIs(t, err, usecase.ErrNotLoaded)
	})

	t.Run("unknown tool", func(t *testing.T) {
		holder := loadedHolder(t, []domain.MethodDefinition{getMethod}, []domain.ToolDefinition{getTool})
		uc := usecase.NewInvokeToolUseCase(holder, new(MockServiceInvoker), new(MockIdentityProvider), testLogger())
		_, _, err := uc.Execute(ctx, "ghost", nil)
		assert.ErrorIs(t, err, registry.ErrToolNotFound)
	})

	t.Run("compatibility errors block execution", func(t *testing.T) {
		// The tool omits the method's required parameter, which the checker
		// flags as an error.
		brokenTool := domain.ToolDefinition{
			Name:        "casefile-get",
			BoundMethod: "get_casefile",
			Policy:      domain.PolicyDirect,
		}
		holder := loadedHolder(t, []domain.MethodDefinition{getMethod}, []domain.ToolDefinition{brokenTool})
		invoker := new(MockServiceInvoker)
		identity := new(MockIdentityProvider)

		uc := usecase.NewInvokeToolUseCase(holder, invoker, identity, testLogger())
		_, _, err := uc.Execute(ctx, "casefile-get", map[string]any{"casefile_id": "cf_x"})

		require.ErrorIs(t, err, usecase.ErrExecutionBlocked)
		assert.Contains(t, err.Error(), "[error] casefile_id: missing required parameter")
		invoker.AssertNotCalled(t, "Invoke")
		identity.AssertNotCalled(t, "Identity")
	})

	t.Run("identity failure", func(t *testing.T) {
		holder := loadedHolder(t, []domain.MethodDefinition{getMethod}, []domain.ToolDefinition{getTool})
		identity := new(MockIdentityProvider)
		identity.On("Identity", mock.Anything).Return("", "", errors.New("no session")).Once()

		uc := usecase.NewInvokeToolUseCase(holder, new(MockServiceInvoker), identity, testLogger())
		_, _, err := uc.Execute(ctx, "casefile-get", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to resolve identity")
	})

	t.Run("invoker failure still returns the trail", func(t *testing.T) {
		holder := loadedHolder(t, []domain.MethodDefinition{getMethod}, []domain.ToolDefinition{getTool})
		invoker := new(MockServiceInvoker)
		identity := new(MockIdentityProvider)
		identity.On("Identity", mock.Anything).Return("user-1", "sn_250830_abc", nil).Once()
		invoker.On("Invoke", mock.Anything, getMethod, mock.Anything, mock.Anything).
			Return(nil, errors.New("backend down")).Once()

		uc := usecase.NewInvokeToolUseCase(holder, invoker, identity, testLogger())
		_, events, err := uc.Execute(ctx, "casefile-get", map[string]any{"casefile_id": "cf_x"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to invoke tool casefile-get")
		require.Len(t, events, 2)
		assert.Equal(t, "tool_invoked", events[0].Kind)
		assert.Equal(t, "tool_failed", events[1].Kind)
	})

	t.Run("self-contained tool is not invocable", func(t *testing.T) {
		standalone := domain.ToolDefinition{Name: "standalone", Policy: domain.PolicyDirect}
		holder := loadedHolder(t, nil, []domain.ToolDefinition{standalone})
		uc := usecase.NewInvokeToolUseCase(holder, new(MockServiceInvoker), new(MockIdentityProvider), testLogger())

		_, _, err := uc.Execute(ctx, "standalone", nil)
		assert.ErrorIs(t, err, registry.ErrToolUnbound)
	})
}

func TestSnapshotHolder(t *testing.T) {
	holder := &usecase.SnapshotHolder{}
	assert.Nil(t, holder.Current())

	first := &usecase.Snapshot{}
	holder.Publish(first)
	assert.Same(t, first, holder.Current())

	second := &usecase.Snapshot{}
	holder.Publish(second)
	assert.Same(t, second, holder.Current())
}

package httpinvoker_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebridge/casebridge/internal/adapter/outbound/httpinvoker"
	"github.com/casebridge/casebridge/internal/domain"
	"github.com/casebridge/casebridge/internal/execctx"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMethod() domain.MethodDefinition {
	return domain.MethodDefinition{
		Name:          "lookup_policy",
		ReturnKind:    domain.ValueSpec{Kind: domain.KindRecord},
		SideEffects:   domain.SideEffectsReadOnly,
		OwningService: "policy",
	}
}

func testExecCtx(t *testing.T) *execctx.Context {
	t.Helper()
	ec, err := execctx.New("user-1", "sn_250830_abc", execctx.WithCasefile("cf_250830_k3x"))
	require.NoError(t, err)
	return ec
}

func TestInvoker_Invoke(t *testing.T) {
	t.Run("posts arguments and correlation headers", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]any
		var gotHeaders http.Header
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotHeaders = r.Header.Clone()
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"policy_id": "pl-1"})
		}))
		defer server.Close()

		inv := httpinvoker.New(server.URL+"/", server.Client(), testLogger())
		result, err := inv.Invoke(context.Background(), testMethod(), testExecCtx(t), map[string]any{"number": "PL-42"})

		require.NoError(t, err)
		assert.Equal(t, "/invoke/lookup_policy", gotPath)
		assert.Equal(t, map[string]any{"number": "PL-42"}, gotBody)
		assert.Equal(t, "user-1", gotHeaders.Get("X-User-Id"))
		assert.Equal(t, "sn_250830_abc", gotHeaders.Get("X-Session-Id"))
		assert.Equal(t, "cf_250830_k3x", gotHeaders.Get("X-Casefile-Id"))
		assert.Equal(t, map[string]any{"policy_id": "pl-1"}, result)
	})

	t.Run("non-success status becomes an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer server.Close()

		inv := httpinvoker.New(server.URL, server.Client(), testLogger())
		_, err := inv.Invoke(context.Background(), testMethod(), testExecCtx(t), nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 502")
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("non-JSON response is wrapped raw", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "plain text result")
		}))
		defer server.Close()

		inv := httpinvoker.New(server.URL, server.Client(), testLogger())
		result, err := inv.Invoke(context.Background(), testMethod(), testExecCtx(t), nil)

		require.NoError(t, err)
		assert.Equal(t, map[string]any{"raw": "plain text result"}, result)
	})

	t.Run("empty response body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		inv := httpinvoker.New(server.URL, server.Client(), testLogger())
		result, err := inv.Invoke(context.Background(), testMethod(), testExecCtx(t), nil)

		require.NoError(t, err)
		assert.Empty(t, result)
	})
}

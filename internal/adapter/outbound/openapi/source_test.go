package openapi_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebridge/casebridge/internal/adapter/outbound/openapi"
	"github.com/casebridge/casebridge/internal/domain"
)

const billingSpec = `
openapi: 3.0.0
info:
  title: Billing API
  version: "1.0"
paths:
  /invoices/{id}:
    get:
      operationId: getInvoice
      summary: Fetch one invoice.
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
            format: uuid
        - name: verbose
          in: query
          schema:
            type: boolean
            default: false
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  id:
                    type: string
                  total:
                    type: number
  /invoices:
    post:
      operationId: createInvoice
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [amount]
              properties:
                amount:
                  type: number
                currency:
                  type: string
                  enum: [usd, eur]
                line_items:
                  type: array
                  items:
                    type: string
      responses:
        '200':
          description: ok
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func specFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "billing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(billingSpec), 0644))
	return path
}

func TestSource_Methods_FromFile(t *testing.T) {
	src := openapi.NewSource(specFile(t), nil, testLogger())
	defs, errs := src.Methods(context.Background())

	require.Empty(t, errs)
	require.Len(t, defs, 2)

	// Definitions are sorted by derived name.
	create := defs[0]
	get := defs[1]
	assert.Equal(t, "billing_api_createinvoice", create.Name)
	assert.Equal(t, "billing_api_getinvoice", get.Name)
	assert.Equal(t, "billing_api", create.OwningService)

	assert.Equal(t, domain.SideEffectsReadOnly, get.SideEffects)
	assert.Equal(t, domain.SideEffectsMutating, create.SideEffects)

	id, ok := get.Parameter("id")
	require.True(t, ok)
	assert.Equal(t, domain.KindIdentifier, id.Value.Kind, "uuid format maps to identifier")
	assert.True(t, id.Required)

	verbose, ok := get.Parameter("verbose")
	require.True(t, ok)
	assert.Equal(t, domain.KindBoolean, verbose.Value.Kind)
	assert.False(t, verbose.Required)
	assert.True(t, verbose.DefaultPresent)

	// The 200 response schema becomes the return kind.
	assert.Equal(t, domain.KindRecord, get.ReturnKind.Kind)
	require.Len(t, get.ReturnKind.Fields, 2)
	assert.Equal(t, "id", get.ReturnKind.Fields[0].Name)
	assert.Equal(t, "total", get.ReturnKind.Fields[1].Name)

	// Body top-level properties become parameters, sorted by name.
	amount, ok := create.Parameter("amount")
	require.True(t, ok)
	assert.Equal(t, domain.KindFloat, amount.Value.Kind)
	assert.True(t, amount.Required)

	currency, ok := create.Parameter("currency")
	require.True(t, ok)
	assert.Equal(t, domain.KindEnum, currency.Value.Kind)
	assert.Equal(t, []string{"eur", "usd"}, currency.AllowedValues)
	assert.False(t, currency.Required)

	items, ok := create.Parameter("line_items")
	require.True(t, ok)
	assert.Equal(t, domain.KindList, items.Value.Kind)
	require.NotNil(t, items.Value.Elem)
	assert.Equal(t, domain.KindString, items.Value.Elem.Kind)
}

func TestSource_Methods_FromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, billingSpec)
	}))
	defer server.Close()

	src := openapi.NewSource(server.URL, server.Client(), testLogger())
	defs, errs := src.Methods(context.Background())

	require.Empty(t, errs)
	assert.Len(t, defs, 2)
}

func TestSource_Methods_FetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	src := openapi.NewSource(server.URL, server.Client(), testLogger())
	defs, errs := src.Methods(context.Background())

	assert.Nil(t, defs)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "failed to fetch OpenAPI document")
}

func TestSource_Methods_MissingFile(t *testing.T) {
	src := openapi.NewSource(filepath.Join(t.TempDir(), "missing.yaml"), nil, testLogger())
	defs, errs := src.Methods(context.Background())

	assert.Nil(t, defs)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "failed to read OpenAPI document")
}

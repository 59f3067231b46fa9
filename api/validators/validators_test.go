package validators

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/shivshakti/boutique-backend/pkg/errors"
)

type signupBody struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Qty   int    `json:"qty" validate:"min=1"`
}

func TestDecodeJSONBodyReportsFieldDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"","email":"nope","qty":0}`))
	var dest signupBody
	err := DecodeJSONBody(req, &dest)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{
		"name":  "is required",
		"email": "must be a valid email",
		"qty":   "must be at least 1",
	}, typed.Details())
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"Asha","email":"a@example.com","qty":1,"is_admin":true}`))
	var dest signupBody
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &dest), pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	payload := `{"name":"` + strings.Repeat("a", maxJSONBodyBytes) + `","email":"a@example.com","qty":1}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	var dest signupBody
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)
	assert.Contains(t, pkgerrors.As(err).Message(), "exceeds")
}

func TestParseQueryStringTrimsAndCaps(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?q=%20%20glow%20&c="+strings.Repeat("x", 10), nil)
	assert.Equal(t, "glow", ParseQueryString(req, "q", 100))
	assert.Equal(t, "xxxx", ParseQueryString(req, "c", 4))
	assert.Equal(t, "", ParseQueryString(req, "missing", 4))
}

func TestParseQueryStringKeepsRunesWhole(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?q=caf%C3%A9", nil)
	assert.Equal(t, "caf", ParseQueryString(req, "q", 4))
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	var got uuid.UUID
	var gotErr error
	r := chi.NewRouter()
	r.Get("/items/{itemId}", func(w http.ResponseWriter, req *http.Request) {
		got, gotErr = ParseUUIDParam(req, "itemId")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id.String(), nil))
	require.NoError(t, gotErr)
	assert.Equal(t, id, got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/abc", nil))
	require.Error(t, gotErr)
	assert.Equal(t, map[string]string{"itemId": "must be a valid id"}, pkgerrors.As(gotErr).Details())
}

func TestDecodeJSONBodyEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
		details any
	}{
		{name: "empty", body: ``, message: "request body is required"},
		{name: "trailing object", body: `{"name":"a","email":"a@example.com","qty":1}{"name":"b"}`, message: "request body must contain a single JSON object"},
		{name: "wrong type", body: `{"name":"a","email":"a@example.com","qty":"two"}`, message: "invalid request body", details: map[string]string{"qty": "must be a int"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dest signupBody
			typed := pkgerrors.As(DecodeJSONBody(req, &dest))
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
			assert.Equal(t, tt.message, typed.Message())
			if tt.details != nil {
				assert.Equal(t, tt.details, typed.Details())
			}
		})
	}
}

package validators

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/shivshakti/boutique-backend/pkg/errors"
)

// ParseQueryString returns the trimmed query value capped at maxLen bytes.
// A cut never splits a multi-byte character.
func ParseQueryString(r *http.Request, key string, maxLen int) string {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if maxLen <= 0 || len(value) <= maxLen {
		return value
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}

// ParseUUIDParam reads a chi URL parameter and validates it as a UUID.
func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "missing path parameter").WithDetails(map[string]string{name: "is required"})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid path parameter").WithDetails(map[string]string{name: "must be a valid id"})
	}
	return id, nil
}

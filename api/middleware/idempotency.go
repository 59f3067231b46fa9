package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/shivshakti/boutique-backend/api/responses"
	pkgerrors "github.com/shivshakti/boutique-backend/pkg/errors"
	"github.com/shivshakti/boutique-backend/pkg/logger"
	pkgredis "github.com/shivshakti/boutique-backend/pkg/redis"
)

const IdempotencyHeader = "Idempotency-Key"

const (
	replayWindow      = 24 * time.Hour
	orderReplayWindow = 7 * 24 * time.Hour
	// A claim that never completes (crash, lost connection) frees the key
	// after this long.
	claimTTL = 2 * time.Minute
)

type idempotentRoute struct {
	method  string
	pattern string
	window  time.Duration
}

// Only these writes honour Idempotency-Key. Patterns use path.Match syntax.
var idempotentRoutes = []idempotentRoute{
	{http.MethodPost, "/api/orders", orderReplayWindow},
	{http.MethodPost, "/api/payment/verify", orderReplayWindow},
	{http.MethodPost, "/api/payment/create-order", replayWindow},
	{http.MethodPost, "/api/products", replayWindow},
	{http.MethodPatch, "/api/orders/*/payment-status", replayWindow},
}

type replayState string

const (
	statePending replayState = "pending"
	stateDone    replayState = "done"
)

// storedResponse is the JSON value kept under an idempotency key.
type storedResponse struct {
	State       replayState `json:"state"`
	RequestHash string      `json:"request_hash"`
	Status      int         `json:"status,omitempty"`
	ContentType string      `json:"content_type,omitempty"`
	Body        []byte      `json:"body,omitempty"`
}

// Idempotency claims the key before the handler runs, so concurrent
// duplicates are turned away instead of executing twice. Successful
// responses are kept and replayed; failures release the key.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			window, ok := replayWindowFor(r.Method, cleanPath(r.URL.Path))
			if clientKey == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := requestDigest(body)
			key := store.IdempotencyKey(scopeFor(r), clientKey)

			claim, _ := json.Marshal(storedResponse{State: statePending, RequestHash: hash})
			claimed, err := store.SetNX(ctx, key, string(claim), claimTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				replayExisting(w, r, store, key, hash, logg)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			committed := false
			defer func() {
				if !committed {
					if delErr := store.Del(ctx, key); delErr != nil && logg != nil {
						logg.Error(ctx, "release idempotency key", delErr)
					}
				}
			}()

			next.ServeHTTP(capture, r)
			if capture.status >= http.StatusBadRequest {
				return
			}

			done, _ := json.Marshal(storedResponse{
				State:       stateDone,
				RequestHash: hash,
				Status:      capture.statusOrOK(),
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			})
			if err := store.Set(ctx, key, string(done), window); err != nil {
				if logg != nil {
					logg.Error(ctx, "persist idempotency record", err)
				}
				return
			}
			committed = true
		})
	}
}

func replayExisting(w http.ResponseWriter, r *http.Request, store pkgredis.IdempotencyStore, key, hash string, logg *logger.Logger) {
	ctx := r.Context()
	raw, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, pkgredis.ErrNil):
		// the claim was released between SETNX and GET
		responses.WriteError(ctx, logg, w, inProgress())
		return
	case err != nil:
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record"))
		return
	}

	var prior storedResponse
	if err := json.Unmarshal([]byte(raw), &prior); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode idempotency record"))
		return
	}
	if prior.RequestHash != hash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request body"))
		return
	}
	if prior.State != stateDone {
		responses.WriteError(ctx, logg, w, inProgress())
		return
	}

	if prior.ContentType != "" {
		w.Header().Set("Content-Type", prior.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(prior.Status)
	_, _ = w.Write(prior.Body)
}

func inProgress() error {
	return pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still being processed").
		WithDetails(map[string]any{"retryable": true})
}

// scopeFor separates keys per caller and route; guests share one scope.
func scopeFor(r *http.Request) string {
	user := UserIDFromContext(r.Context())
	if user == "" {
		user = "guest"
	}
	return user + "|" + r.Method + "|" + cleanPath(r.URL.Path)
}

func replayWindowFor(method, p string) (time.Duration, bool) {
	for _, route := range idempotentRoutes {
		if route.method != method {
			continue
		}
		if ok, _ := path.Match(route.pattern, p); ok {
			return route.window, true
		}
	}
	return 0, false
}

func cleanPath(p string) string {
	if len(p) > 1 {
		return strings.TrimSuffix(p, "/")
	}
	return p
}

func requestDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

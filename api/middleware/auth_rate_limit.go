package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shivshakti/boutique-backend/api/responses"
	pkgerrors "github.com/shivshakti/boutique-backend/pkg/errors"
	"github.com/shivshakti/boutique-backend/pkg/logger"
)

// Auth payloads are tiny; anything larger is not worth buffering to find an
// email address.
const maxRateLimitPeek = 16 << 10

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// RateLimitPolicy throttles one auth surface by client IP and by the email in
// the request body. A zero limit disables that dimension; a zero window
// disables the policy.
type RateLimitPolicy struct {
	Name     string
	Window   time.Duration
	PerIP    int
	PerEmail int
}

func (p RateLimitPolicy) active() bool {
	return p.Window > 0 && (p.PerIP > 0 || p.PerEmail > 0)
}

func (p RateLimitPolicy) name() string {
	if n := strings.ToLower(strings.TrimSpace(p.Name)); n != "" {
		return n
	}
	return "auth"
}

// AuthRateLimit counts attempts per policy window and answers 429 with a
// Retry-After once either counter passes its limit. Emails are hashed
// before they become part of a key.
func AuthRateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.active() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.PerIP > 0 {
				if ip := clientIP(r); ip != "" {
					if !checkLimit(w, r, store, policy, "ip", ip, policy.PerIP, logg) {
						return
					}
				}
			}

			if policy.PerEmail > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxRateLimitPeek))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
					return
				}
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

				if email := emailFromBody(body); email != "" {
					if !checkLimit(w, r, store, policy, "email", digestEmail(email), policy.PerEmail, logg) {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// checkLimit bumps the counter for one dimension and writes the 429 itself
// when the caller should stop.
func checkLimit(w http.ResponseWriter, r *http.Request, store rateLimiterStore, policy RateLimitPolicy, dimension, subject string, limit int, logg *logger.Logger) bool {
	ctx := r.Context()
	key := store.RateLimitKey(dimension + ":" + policy.name() + ":" + subject)
	count, err := store.IncrWithTTL(ctx, key, policy.Window)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiter unavailable"))
		return false
	}
	if count <= int64(limit) {
		return true
	}

	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":    policy.name(),
			"dimension": dimension,
			"subject":   subject,
			"attempts":  count,
			"limit":     limit,
		}), "auth attempt throttled")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Round(time.Second)/time.Second)))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts"))
	return false
}

// clientIP takes the left-most X-Forwarded-For hop, then X-Real-IP, then the
// socket peer. Values that do not parse as an IP are ignored.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return ""
}

func emailFromBody(body []byte) string {
	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}

func digestEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:16])
}

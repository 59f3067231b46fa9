package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrSecretRequired is returned when a verifier is built without a secret.
var ErrSecretRequired = errors.New("payment verifier secret is required")

// Callback is the payload a client relays after the gateway checkout completes.
type Callback struct {
	IntentID  string
	PaymentID string
	Signature string
}

// Verifier authenticates gateway callbacks with HMAC-SHA256 over
// "<intentID>|<paymentID>".
type Verifier struct {
	secret []byte
}

// NewVerifier refuses an empty secret so a missing key can never verify.
func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSecretRequired
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify reports whether cb carries a valid signature. Missing fields and
// non-hex signatures are rejections.
func (v *Verifier) Verify(cb Callback) bool {
	if v == nil || len(v.secret) == 0 {
		return false
	}
	if cb.IntentID == "" || cb.PaymentID == "" || cb.Signature == "" {
		return false
	}
	provided, err := hex.DecodeString(strings.ToLower(cb.Signature))
	if err != nil || len(provided) != sha256.Size {
		return false
	}
	return hmac.Equal(digest(v.secret, cb.IntentID, cb.PaymentID), provided)
}

// Sign returns the hex signature the gateway produces for the pair.
func Sign(intentID, paymentID, secret string) string {
	return hex.EncodeToString(digest([]byte(secret), intentID, paymentID))
}

func digest(secret []byte, intentID, paymentID string) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(intentID + "|" + paymentID))
	return mac.Sum(nil)
}

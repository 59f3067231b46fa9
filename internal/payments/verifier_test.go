package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier("")
	assert.ErrorIs(t, err, ErrSecretRequired)

	_, err = NewVerifier("   ")
	assert.ErrorIs(t, err, ErrSecretRequired)
}

func TestVerifyRoundTrip(t *testing.T) {
	cases := []struct{ intent, payment, secret string }{
		{"order_IluGWxBm9U8zJ8", "pay_IH4NVgf4Dreq1l", "EnLs21M47BllR3X8PSFtjtbd"},
		{"a", "b", "c"},
		{"order with spaces", "pay|pipe", "s3cr3t!@#"},
	}
	for _, tc := range cases {
		v, err := NewVerifier(tc.secret)
		require.NoError(t, err)

		sig := Sign(tc.intent, tc.payment, tc.secret)
		assert.True(t, v.Verify(Callback{IntentID: tc.intent, PaymentID: tc.payment, Signature: sig}), "case %+v", tc)
	}
}

func TestSignIsDeterministic(t *testing.T) {
	first := Sign("order_1", "pay_1", "secret")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Sign("order_1", "pay_1", "secret"))
	}
	assert.Len(t, first, 64)
	assert.NotEqual(t, first, Sign("order_1", "pay_1", "other"))
}

func TestSignUsesPipeSeparatedPayload(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("order_1|pay_1"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), Sign("order_1", "pay_1", "secret"))
}

func TestVerifyRejectsAnySingleCharacterFlip(t *testing.T) {
	v, err := NewVerifier("secret")
	require.NoError(t, err)
	sig := Sign("order_1", "pay_1", "secret")

	for i := range sig {
		flipped := []byte(sig)
		if flipped[i] == '0' {
			flipped[i] = '1'
		} else {
			flipped[i] = '0'
		}
		assert.False(t, v.Verify(Callback{IntentID: "order_1", PaymentID: "pay_1", Signature: string(flipped)}),
			fmt.Sprintf("flip at %d accepted", i))
	}
}

func TestVerifyRejectsMismatchedIdentifiers(t *testing.T) {
	v, err := NewVerifier("secret")
	require.NoError(t, err)
	sig := Sign("order_1", "pay_1", "secret")

	assert.False(t, v.Verify(Callback{IntentID: "order_2", PaymentID: "pay_1", Signature: sig}))
	assert.False(t, v.Verify(Callback{IntentID: "order_1", PaymentID: "pay_2", Signature: sig}))
	assert.False(t, v.Verify(Callback{IntentID: "order_1pay_1", PaymentID: "", Signature: sig}))
}

func TestVerifyTreatsMalformedInputAsRejection(t *testing.T) {
	v, err := NewVerifier("secret")
	require.NoError(t, err)

	for _, sig := range []string{"", "zz", "not-hex-at-all", Sign("order_1", "pay_1", "secret")[:10]} {
		assert.False(t, v.Verify(Callback{IntentID: "order_1", PaymentID: "pay_1", Signature: sig}), "signature %q", sig)
	}

	var nilVerifier *Verifier
	assert.False(t, nilVerifier.Verify(Callback{IntentID: "a", PaymentID: "b", Signature: "c"}))
}

func TestVerifyAcceptsUppercaseHex(t *testing.T) {
	v, err := NewVerifier("secret")
	require.NoError(t, err)
	sig := Sign("order_1", "pay_1", "secret")
	upper := []byte(sig)
	for i, c := range upper {
		if c >= 'a' && c <= 'f' {
			upper[i] = c - 32
		}
	}
	assert.True(t, v.Verify(Callback{IntentID: "order_1", PaymentID: "pay_1", Signature: string(upper)}))
}

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the source-control webhook signature.
const SignatureHeader = "X-Hub-Signature-256"

const signaturePrefix = "sha256="

// VerifySignature reports whether claimed is "sha256=<hex>" of HMAC-SHA256(secret, body).
// body must be the raw bytes as received. A mismatch is a normal false result.
func VerifySignature(secret []byte, body []byte, claimed string) bool {
	if len(secret) == 0 || claimed == "" {
		return false
	}
	if !strings.HasPrefix(claimed, signaturePrefix) {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(claimed, signaturePrefix))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(Sign(secret, body), provided) == 1
}

// Sign returns the raw HMAC-SHA256 of body.
func Sign(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(body)
	return mac.Sum(nil)
}

// SignatureFor formats a header value for body, as the source-control host would.
func SignatureFor(secret, body []byte) string {
	return signaturePrefix + hex.EncodeToString(Sign(secret, body))
}

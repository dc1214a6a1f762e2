package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TrackerTokenVerifier validates HS256 JWTs attached to issue-tracker webhooks.
type TrackerTokenVerifier struct {
	secret []byte
}

// NewTrackerTokenVerifier builds a verifier. An empty secret disables verification.
func NewTrackerTokenVerifier(secret string) *TrackerTokenVerifier {
	return &TrackerTokenVerifier{secret: []byte(secret)}
}

// Enabled reports whether webhooks must carry a token.
func (v *TrackerTokenVerifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// TokenFromRequest picks the token from "Authorization: JWT <token>" or the jwt query value.
func TokenFromRequest(authorization, query string) string {
	parts := strings.SplitN(strings.TrimSpace(authorization), " ", 2)
	if len(parts) == 2 && (strings.EqualFold(parts[0], "JWT") || strings.EqualFold(parts[0], "Bearer")) {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(query)
}

// Verify parses and validates the token.
func (v *TrackerTokenVerifier) Verify(tokenStr string) (*jwt.RegisteredClaims, error) {
	if tokenStr == "" {
		return nil, errors.New("missing tracker token")
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid tracker token")
	}
	return claims, nil
}

// IssueTrackerToken signs a short-lived token; used by tests and local tooling.
func IssueTrackerToken(secret, issuer string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/relay-service/pkg/util/errorutil"
)

const trackerClaimsKey = "tracker_claims"

// TrackerTokenMiddleware enforces the issue tracker's webhook token.
type TrackerTokenMiddleware struct {
	verifier *TrackerTokenVerifier
	logger   *zap.Logger
}

// NewTrackerTokenMiddleware constructs middleware. A disabled verifier lets every request through.
func NewTrackerTokenMiddleware(verifier *TrackerTokenVerifier, logger *zap.Logger) *TrackerTokenMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackerTokenMiddleware{verifier: verifier, logger: logger}
}

// Handle verifies the token from the Authorization header or jwt query value.
func (m *TrackerTokenMiddleware) Handle(c *fiber.Ctx) error {
	if !m.verifier.Enabled() {
		return c.Next()
	}
	claims, err := m.verifier.Verify(TokenFromRequest(c.Get(fiber.HeaderAuthorization), c.Query("jwt")))
	if err != nil {
		m.logger.Warn("tracker webhook token rejected", zap.Error(err))
		return apperrors.NewAuthenticationError("invalid webhook token")
	}
	c.Locals(trackerClaimsKey, claims)
	return c.Next()
}

// TrackerIssuer returns the verified token issuer, if any.
func TrackerIssuer(c *fiber.Ctx) (string, bool) {
	claims, ok := c.Locals(trackerClaimsKey).(interface{ GetIssuer() (string, error) })
	if !ok {
		return "", false
	}
	iss, err := claims.GetIssuer()
	if err != nil || iss == "" {
		return "", false
	}
	return iss, true
}

package middleware

import (
	"strings"

	"community-service/internal/apperr"
	"community-service/internal/authz"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const PrincipalKey = "principal"

// TokenVerifier is implemented by auth.TokenService.
type TokenVerifier interface {
	Verify(raw string) (authz.Principal, error)
}

// UseToken memastikan request membawa bearer token yang valid, lalu
// menyimpan principal di Locals. Websocket upgrade boleh mengirim token
// lewat query ?token= karena browser tidak bisa set header.
func UseToken(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := bearer(c)
		if err != nil {
			return err
		}
		p, err := v.Verify(raw)
		if err != nil {
			return err
		}
		c.Locals(PrincipalKey, p)
		return c.Next()
	}
}

func bearer(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		if websocket.IsWebSocketUpgrade(c) && c.Query("token") != "" {
			return c.Query("token"), nil
		}
		return "", apperr.Unauthenticatedf("No token provided")
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", apperr.Unauthenticatedf("Invalid token format")
	}
	return token, nil
}

// Principal returns the caller stored by UseToken. ok is false on routes
// without UseToken.
func Principal(c *fiber.Ctx) (authz.Principal, bool) {
	p, ok := c.Locals(PrincipalKey).(authz.Principal)
	return p, ok
}

// OptionalToken stores a principal when a valid token is present and lets
// anonymous requests through.
func OptionalToken(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		return UseToken(v)(c)
	}
}

package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/streamtube/backend/internal/apperr"
	"github.com/streamtube/backend/internal/domain/user"
)

// CurrentUserKey is where the gate parks the authenticated profile.
const CurrentUserKey = "currentUser"

// Middleware is the request authenticator: cookie first, then bearer
// header. It verifies the access token and loads the account, but never
// consults the session store, so logout does not revoke in-flight access
// tokens before their expiry.
func Middleware(uc *Usecase) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(accessTokenCookie)
		if token == "" {
			token = bearerToken(c.Get(fiber.HeaderAuthorization))
		}

		rec, err := uc.Authenticate(c.UserContext(), token)
		if err != nil {
			switch {
			case errors.Is(err, ErrMissingToken):
				return apperr.Unauthorized("unauthorized request")
			case errors.Is(err, ErrNotFound):
				return apperr.Unauthorized("account no longer exists")
			case errors.Is(err, ErrInvalidToken):
				return apperr.Unauthorized("invalid or expired token")
			default:
				return apperr.Internal("something went wrong").WithCause(err)
			}
		}

		c.Locals(CurrentUserKey, rec.Profile())
		return c.Next()
	}
}

// CurrentUser returns the profile the middleware attached, or nil on
// unauthenticated routes.
func CurrentUser(c *fiber.Ctx) *user.Profile {
	p, _ := c.Locals(CurrentUserKey).(*user.Profile)
	return p
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return strings.TrimSpace(header)
}

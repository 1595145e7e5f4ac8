package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/streamtube/backend/internal/apperr"
	domainauth "github.com/streamtube/backend/internal/domain/auth"
	"github.com/streamtube/backend/internal/services/user-service/web"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

type CookieOpts struct {
	Domain     string
	Path       string
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Controller struct {
	log     *zap.Logger
	uc      *Usecase
	cookies CookieOpts
}

func NewController(uc *Usecase, log *zap.Logger, cookies CookieOpts) *Controller {
	if cookies.Path == "" {
		cookies.Path = "/"
	}
	return &Controller{log: log, uc: uc, cookies: cookies}
}

type loginRequest struct {
	Email    string `json:"email"`
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (ct *Controller) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	identifier := req.UserName
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" {
		return apperr.Validation("email or userName is required")
	}
	if req.Password == "" {
		return apperr.Validation("password is required")
	}

	rec, pair, err := ct.uc.Login(c.UserContext(), identifier, req.Password)
	if err != nil {
		return ct.mapErr(err)
	}

	ct.log.Info("user.login", zap.Int64("user_id", rec.ID))
	ct.setAuthCookies(c, pair)
	return web.Respond(c, fiber.StatusOK, "logged in", fiber.Map{
		"user":        rec.Profile(),
		"accessToken": pair.AccessToken,
	})
}

func (ct *Controller) Logout(c *fiber.Ctx) error {
	current := CurrentUser(c)
	if current == nil {
		return apperr.Unauthorized("unauthorized request")
	}

	if err := ct.uc.Logout(c.UserContext(), current.ID); err != nil {
		return ct.mapErr(err)
	}

	ct.log.Info("user.logout", zap.Int64("user_id", current.ID))
	ct.clearAuthCookies(c)
	return web.Respond(c, fiber.StatusOK, "logged out", nil)
}

func (ct *Controller) Refresh(c *fiber.Ctx) error {
	presented := c.Cookies(refreshTokenCookie)
	if presented == "" {
		var req refreshRequest
		if err := c.BodyParser(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	pair, err := ct.uc.Refresh(c.UserContext(), presented)
	if err != nil {
		ct.clearAuthCookies(c)
		return ct.mapErr(err)
	}

	ct.log.Info("user.refresh")
	ct.setAuthCookies(c, pair)
	return web.Respond(c, fiber.StatusOK, "tokens refreshed", pair)
}

func (ct *Controller) ChangePassword(c *fiber.Ctx) error {
	current := CurrentUser(c)
	if current == nil {
		return apperr.Unauthorized("unauthorized request")
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		return apperr.Validation("oldPassword and newPassword are required")
	}

	if err := ct.uc.ChangePassword(c.UserContext(), current.ID, req.OldPassword, req.NewPassword); err != nil {
		return ct.mapErr(err)
	}

	ct.log.Info("user.change_password", zap.Int64("user_id", current.ID))
	return web.Respond(c, fiber.StatusOK, "password changed", nil)
}

func (ct *Controller) mapErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, ErrInvalidCredentials):
		return apperr.Unauthorized("invalid username/email or password")
	case errors.Is(err, ErrMissingToken):
		return apperr.Unauthorized("unauthorized request")
	case errors.Is(err, ErrInvalidToken):
		return apperr.Unauthorized("invalid or expired token")
	case errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrWeakPassword),
		errors.Is(err, ErrPasswordTooLong):
		return apperr.Validation(err.Error())
	default:
		return apperr.Internal("something went wrong").WithCause(err)
	}
}

func (ct *Controller) setAuthCookies(c *fiber.Ctx, pair domainauth.TokenPair) {
	ct.setCookie(c, accessTokenCookie, pair.AccessToken, ct.cookies.AccessTTL)
	ct.setCookie(c, refreshTokenCookie, pair.RefreshToken, ct.cookies.RefreshTTL)
}

func (ct *Controller) clearAuthCookies(c *fiber.Ctx) {
	ct.setCookie(c, accessTokenCookie, "", -time.Hour)
	ct.setCookie(c, refreshTokenCookie, "", -time.Hour)
}

func (ct *Controller) setCookie(c *fiber.Ctx, name, value string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Domain:   ct.cookies.Domain,
		Path:     ct.cookies.Path,
		HTTPOnly: true,
		Secure:   ct.cookies.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl).UTC(),
	})
}

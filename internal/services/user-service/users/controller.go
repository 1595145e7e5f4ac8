package users

import (
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/streamtube/backend/internal/apperr"
	"github.com/streamtube/backend/internal/services/user-service/auth"
	"github.com/streamtube/backend/internal/services/user-service/web"
)

type Controller struct {
	log     *zap.Logger
	uc      *Usecase
	tempDir string
}

func NewController(uc *Usecase, log *zap.Logger, tempDir string) *Controller {
	return &Controller{log: log, uc: uc, tempDir: tempDir}
}

type updateDetailsRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (ct *Controller) Register(c *fiber.Ctx) error {
	avatarFh, err := c.FormFile("avatar")
	if err != nil {
		return apperr.Validation("avatar file is required")
	}

	avatarPath, err := ct.saveUpload(c, avatarFh)
	if err != nil {
		return apperr.Internal("could not store uploaded file").WithCause(err)
	}
	defer ct.removeLocal(avatarPath)

	var coverPath string
	if coverFh, err := c.FormFile("coverImage"); err == nil {
		coverPath, err = ct.saveUpload(c, coverFh)
		if err != nil {
			return apperr.Internal("could not store uploaded file").WithCause(err)
		}
		defer ct.removeLocal(coverPath)
	}

	rec, err := ct.uc.Register(c.UserContext(), RegisterInput{
		FullName:       c.FormValue("fullName"),
		Email:          c.FormValue("email"),
		UserName:       c.FormValue("userName"),
		Password:       c.FormValue("password"),
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		return ct.mapErr(err)
	}

	ct.log.Info("user.registered", zap.Int64("user_id", rec.ID), zap.String("user_name", rec.UserName))
	return web.Respond(c, fiber.StatusCreated, "user registered", rec.Profile())
}

func (ct *Controller) GetUser(c *fiber.Ctx) error {
	current := auth.CurrentUser(c)
	if current == nil {
		return apperr.Unauthorized("unauthorized request")
	}
	return web.Respond(c, fiber.StatusOK, "current user", current)
}

func (ct *Controller) UpdateAvatar(c *fiber.Ctx) error {
	current := auth.CurrentUser(c)
	if current == nil {
		return apperr.Unauthorized("unauthorized request")
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		return apperr.Validation("avatar file is required")
	}
	path, err := ct.saveUpload(c, fh)
	if err != nil {
		return apperr.Internal("could not store uploaded file").WithCause(err)
	}
	defer ct.removeLocal(path)

	rec, err := ct.uc.UpdateAvatar(c.UserContext(), current.ID, path)
	if err != nil {
		return ct.mapErr(err)
	}
	return web.Respond(c, fiber.StatusOK, "avatar updated", rec.Profile())
}

func (ct *Controller) UpdateDetails(c *fiber.Ctx) error {
	current := auth.CurrentUser(c)
	if current == nil {
		return apperr.Unauthorized("unauthorized request")
	}

	var req updateDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	rec, err := ct.uc.UpdateDetails(c.UserContext(), current.ID, req.FullName, req.Email)
	if err != nil {
		return ct.mapErr(err)
	}
	return web.Respond(c, fiber.StatusOK, "account details updated", rec.Profile())
}

// UpdateProfile accepts multipart form data: optional fullName and email
// fields plus optional avatar and coverImage files.
func (ct *Controller) UpdateProfile(c *fiber.Ctx) error {
	current := auth.CurrentUser(c)
	if current == nil {
		return apperr.Unauthorized("unauthorized request")
	}

	in := ProfileUpdateInput{
		FullName: c.FormValue("fullName"),
		Email:    c.FormValue("email"),
	}

	if fh, err := c.FormFile("avatar"); err == nil {
		path, err := ct.saveUpload(c, fh)
		if err != nil {
			return apperr.Internal("could not store uploaded file").WithCause(err)
		}
		defer ct.removeLocal(path)
		in.AvatarPath = path
	}
	if fh, err := c.FormFile("coverImage"); err == nil {
		path, err := ct.saveUpload(c, fh)
		if err != nil {
			return apperr.Internal("could not store uploaded file").WithCause(err)
		}
		defer ct.removeLocal(path)
		in.CoverImagePath = path
	}

	rec, err := ct.uc.UpdateProfile(c.UserContext(), current.ID, in)
	if err != nil {
		return ct.mapErr(err)
	}
	return web.Respond(c, fiber.StatusOK, "profile updated", rec.Profile())
}

func (ct *Controller) ChannelProfile(c *fiber.Ctx) error {
	current := auth.CurrentUser(c)
	if current == nil {
		return apperr.Unauthorized("unauthorized request")
	}

	profile, err := ct.uc.ChannelProfile(c.UserContext(), current.ID, c.Params("username"))
	if err != nil {
		return ct.mapErr(err)
	}
	return web.Respond(c, fiber.StatusOK, "channel profile", profile)
}

func (ct *Controller) mapErr(err error) error {
	switch {
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrWeakPassword),
		errors.Is(err, ErrPasswordTooLong),
		errors.Is(err, ErrAvatarRequired):
		return apperr.Validation(err.Error())
	case errors.Is(err, ErrUserExists):
		return apperr.Conflict(ErrUserExists.Error())
	case errors.Is(err, ErrUploadFailed):
		return apperr.Dependency("media upload failed", fiber.StatusBadRequest).WithCause(err)
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, ErrChannelNotFound):
		return apperr.NotFound("channel not found")
	default:
		return apperr.Internal("something went wrong").WithCause(err)
	}
}

// saveUpload spools the multipart part into the temp dir under a random
// name; the original filename only contributes its extension.
func (ct *Controller) saveUpload(c *fiber.Ctx, fh *multipart.FileHeader) (string, error) {
	dst := filepath.Join(ct.tempDir, uuid.NewString()+filepath.Ext(fh.Filename))
	if err := c.SaveFile(fh, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (ct *Controller) removeLocal(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		ct.log.Warn("remove temp upload", zap.String("path", path), zap.Error(err))
	}
}

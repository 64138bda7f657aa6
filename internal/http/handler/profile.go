package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"carebook/internal/model"
	"carebook/internal/service"
	"carebook/internal/storage"
)

type avatarURLResponse struct {
	URL string `json:"url"`
}

// avatarImagePath is where the portal streams the stored picture back.
const avatarImagePath = "/api/profile/avatar/image"

// avatarResponse is what the browser learns about an uploaded picture.
// Owner ids and object keys stay inside the portal.
type avatarResponse struct {
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UpdatedAt   time.Time `json:"updated_at"`
	ImageURL    string    `json:"image_url"`
}

func newAvatarResponse(a *model.Avatar) avatarResponse {
	return avatarResponse{
		ContentType: a.ContentType,
		Size:        a.Size,
		UpdatedAt:   a.UpdatedAt,
		ImageURL:    avatarImagePath,
	}
}

// GetProfile godoc
// @Summary My profile
// @Tags profile
// @Produce json
// @Security Session
// @Success 200 {object} model.UserProfile
// @Failure 401 {object} errorPayload
// @Router /api/profile [get]
func GetProfile(profiles service.ProfileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return unauthorized(c)
		}
		p, err := profiles.Get(c.UserContext(), uid)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(p)
	}
}

// UpdateProfile godoc
// @Summary Update my profile
// @Description Only the fields present in the body are changed.
// @Tags profile
// @Accept json
// @Produce json
// @Security Session
// @Param profile body model.ProfileUpdate true "Fields to change"
// @Success 200 {object} model.UserProfile
// @Failure 400 {object} errorPayload
// @Router /api/profile [put]
func UpdateProfile(profiles service.ProfileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return unauthorized(c)
		}
		var in model.ProfileUpdate
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		}
		p, err := profiles.Update(c.UserContext(), uid, in)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(p)
	}
}

// UploadAvatar godoc
// @Summary Upload a profile picture
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security Session
// @Param file formData file true "Image file"
// @Success 201 {object} avatarResponse
// @Failure 400 {object} errorPayload
// @Router /api/profile/avatar [post]
func UploadAvatar(profiles service.ProfileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return unauthorized(c)
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		a, err := profiles.UploadAvatar(c.UserContext(), uid, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(newAvatarResponse(a))
	}
}

// GetAvatarURL godoc
// @Summary Profile picture link
// @Description Returns a time-limited download URL.
// @Tags profile
// @Produce json
// @Security Session
// @Success 200 {object} avatarURLResponse
// @Failure 404 {object} errorPayload
// @Router /api/profile/avatar [get]
func GetAvatarURL(profiles service.ProfileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return unauthorized(c)
		}
		url, err := profiles.AvatarURL(c.UserContext(), uid)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(avatarURLResponse{URL: url})
	}
}

// GetAvatarImage godoc
// @Summary Profile picture
// @Description Streams the picture through the portal.
// @Tags profile
// @Produce image/png,image/jpeg,image/webp
// @Security Session
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Router /api/profile/avatar/image [get]
func GetAvatarImage(profiles service.ProfileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return unauthorized(c)
		}
		rc, info, err := profiles.OpenAvatar(c.UserContext(), uid)
		if err != nil {
			return respond(c, err)
		}

		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		if info.ETag != "" {
			c.Set(fiber.HeaderETag, strconv.Quote(info.ETag))
		}
		c.Set(fiber.HeaderCacheControl, storage.CacheControl)
		size := int(info.Size)
		if size <= 0 {
			size = -1
		}
		// fasthttp closes rc once the body is written.
		return c.SendStream(rc, size)
	}
}

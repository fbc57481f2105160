package deliveries

import (
	"context"
	"errors"
	"mime"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/auth"
	"github.com/aldoetobex/freelance-portal/internal/portal"
	"github.com/aldoetobex/freelance-portal/pkg/models"
	"github.com/aldoetobex/freelance-portal/pkg/validation"
)

// MaxUploadBytes caps a delivery file.
const MaxUploadBytes = 50 * 1024 * 1024

// MsgFeedbackRequired is shown when reject/revision comes without feedback.
const MsgFeedbackRequired = "Informe o motivo para rejeitar ou pedir revisão."

type ReviewRequest struct {
	Action   string `json:"action" validate:"required,oneof=approve reject revision request_revision"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

type CreateRequest struct {
	Title       string `json:"title" form:"title" validate:"required,notblank,max=200"`
	Description string `json:"description" form:"description" validate:"max=5000"`
}

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

// @Summary      List project deliveries
// @Tags         deliveries
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "project id"
// @Success      200  {array}  models.Delivery
// @Router       /portal/projects/{id}/deliveries [get]
func (h *Handler) List(c *fiber.Ctx) error {
	clientID, err := auth.ClientUUID(c)
	if err != nil {
		return err
	}
	v := portal.Load(c.UserContext(), h.log, "deliveries", c.Params("id"),
		func(ctx context.Context, id string) ([]models.Delivery, error) {
			pid, err := uuid.Parse(id)
			if err != nil {
				return nil, portal.ErrNotFound
			}
			rows, err := h.svc.ListForClient(ctx, pid, clientID)
			if errors.Is(err, ErrNotFound) {
				return nil, portal.ErrNotFound
			}
			return rows, err
		}, portal.EmptySlice[models.Delivery])
	return portal.Respond(c, v)
}

// @Summary      Review delivery
// @Description  approve, reject or request a revision; reject and revision need feedback
// @Tags         deliveries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string         true  "delivery id"
// @Param        payload  body  ReviewRequest  true  "Review"
// @Success      200  {object}  models.Delivery
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse  "already reviewed"
// @Router       /portal/deliveries/{id}/review [post]
func (h *Handler) Review(c *fiber.Ctx) error {
	var in ReviewRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	clientID, err := auth.ClientUUID(c)
	if err != nil {
		return err
	}
	actor, err := auth.UserUUID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid delivery id")
	}

	d, err := h.svc.Review(c.UserContext(), ReviewInput{
		DeliveryID: id,
		ClientID:   clientID,
		ActorID:    actor,
		Action:     in.Action,
		Feedback:   in.Feedback,
	})
	switch {
	case errors.Is(err, ErrFeedbackRequired):
		return validation.Respond(c, map[string][]string{"feedback": {MsgFeedbackRequired}})
	case errors.Is(err, ErrInvalidAction):
		return validation.Respond(c, map[string][]string{"action": {"Value is not allowed"}})
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, portal.MsgNotFound)
	case errors.Is(err, ErrAlreadyReviewed):
		return fiber.NewError(fiber.StatusConflict, "delivery already reviewed")
	case err != nil:
		h.log.Error("delivery review failed", zap.String("delivery_id", id.String()), zap.Error(err))
		return fiber.ErrInternalServerError
	}
	return c.JSON(d)
}

// @Summary      Delivery download link
// @Tags         deliveries
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "delivery id"
// @Success      200  {object}  map[string]any  "url, expires_in, now"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /portal/deliveries/{id}/download [get]
func (h *Handler) Download(c *fiber.Ctx) error {
	clientID, err := auth.ClientUUID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid delivery id")
	}

	url, err := h.svc.DownloadURL(c.UserContext(), id, clientID)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoFile):
		return fiber.NewError(fiber.StatusNotFound, portal.MsgNotFound)
	case err != nil:
		h.log.Error("delivery sign failed", zap.String("delivery_id", id.String()), zap.Error(err))
		return fiber.ErrBadGateway
	}
	return c.JSON(fiber.Map{"url": url, "expires_in": int(DownloadTTL.Seconds()), "now": time.Now().UTC()})
}

// @Summary      Create delivery (admin)
// @Description  JSON, or multipart with an optional "file" part (max 50MB)
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Param        id  path  string  true  "project id"
// @Success      201  {object}  models.Delivery
// @Failure      400  {object}  models.ValidationErrorResponse
// @Router       /admin/projects/{id}/deliveries [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid project id")
	}
	var in CreateRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	ci := CreateInput{ProjectID: projectID, Title: in.Title, Description: in.Description}
	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "empty file")
		}
		if fh.Size > MaxUploadBytes {
			return fiber.NewError(fiber.StatusBadRequest, "max 50MB per file")
		}
		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = mime.TypeByExtension(filepath.Ext(fh.Filename))
		}
		if ct == "" {
			ct = "application/octet-stream"
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "open failed")
		}
		defer f.Close()
		ci.File, ci.FileName, ci.ContentType = f, fh.Filename, ct
	}

	d, err := h.svc.Create(c.UserContext(), ci)
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, portal.MsgNotFound)
	case err != nil:
		h.log.Error("delivery create failed", zap.String("project_id", projectID.String()), zap.Error(err))
		return fiber.ErrInternalServerError
	}
	return c.Status(fiber.StatusCreated).JSON(d)
}

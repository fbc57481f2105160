package notifications

import (
	"bufio"
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/auth"
	"github.com/aldoetobex/freelance-portal/internal/realtime"
	"github.com/aldoetobex/freelance-portal/pkg/models"
	"github.com/aldoetobex/freelance-portal/pkg/validation"
)

type CreateRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Title  string `json:"title" validate:"required,notblank,max=120"`
	Body   string `json:"body" validate:"max=2000"`
	Type   string `json:"type" validate:"omitempty,max=30"`
	Link   string `json:"link" validate:"omitempty,max=300"`
}

type Handler struct {
	svc      *Service
	hub      *realtime.Hub
	log      *zap.Logger
	lifetime context.Context
}

func NewHandler(svc *Service, hub *realtime.Hub, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, hub: hub, log: log, lifetime: context.Background()}
}

// StopStreamsOn ends open streams once ctx is done, typically at server shutdown.
func (h *Handler) StopStreamsOn(ctx context.Context) *Handler {
	h.lifetime = ctx
	return h
}

// @Summary      List notifications
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        unread  query  bool  false  "only unread"
// @Success      200  {array}  models.Notification
// @Router       /portal/notifications [get]
func (h *Handler) List(c *fiber.Ctx) error {
	uid, err := auth.UserUUID(c)
	if err != nil {
		return err
	}
	rows, err := h.svc.List(c.UserContext(), uid, c.QueryBool("unread", false))
	if err != nil {
		h.log.Error("list notifications failed", zap.String("user_id", uid.String()), zap.Error(err))
		return fiber.ErrInternalServerError
	}
	return c.JSON(rows)
}

// @Summary      Mark notification read
// @Description  Also serves DELETE: removing a notification only marks it read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "notification id"
// @Success      200  {object}  models.Notification
// @Failure      404  {object}  models.ErrorResponse
// @Router       /portal/notifications/{id}/read [post]
func (h *Handler) MarkRead(c *fiber.Ctx) error {
	uid, err := auth.UserUUID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid notification id")
	}
	n, err := h.svc.MarkRead(c.UserContext(), uid, id)
	if errors.Is(err, ErrNotFound) {
		return fiber.ErrNotFound
	}
	if err != nil {
		h.log.Error("mark notification read failed", zap.String("notification_id", id.String()), zap.Error(err))
		return fiber.ErrInternalServerError
	}
	return c.JSON(n)
}

// @Summary      Mark all notifications read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  map[string]int  "updated"
// @Router       /portal/notifications/read-all [post]
func (h *Handler) MarkAllRead(c *fiber.Ctx) error {
	uid, err := auth.UserUUID(c)
	if err != nil {
		return err
	}
	n, err := h.svc.MarkAllRead(c.UserContext(), uid)
	if err != nil {
		h.log.Error("mark all notifications read failed", zap.String("user_id", uid.String()), zap.Error(err))
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"updated": n})
}

// @Summary      Send notification (admin)
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateRequest  true  "Notification"
// @Success      201  {object}  models.Notification
// @Router       /admin/notifications [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	uid, _ := uuid.Parse(in.UserID)
	n, err := h.svc.Notify(c.UserContext(), Input{
		UserID: uid,
		Title:  strings.TrimSpace(in.Title),
		Body:   strings.TrimSpace(in.Body),
		Type:   in.Type,
		Link:   in.Link,
	})
	if err != nil {
		h.log.Error("create notification failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

// @Summary      Notification stream
// @Description  Server-Sent Events: snapshot, then INSERT/UPDATE rows and a "cue" on each new notification
// @Tags         notifications
// @Security     BearerAuth
// @Produce      text/event-stream
// @Router       /portal/stream/notifications [get]
func (h *Handler) Stream(c *fiber.Ctx) error {
	uid, err := auth.UserUUID(c)
	if err != nil {
		return err
	}
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	log := h.log
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		err := realtime.Stream(h.lifetime, w, h.hub, realtime.StreamOptions[models.Notification]{
			Channel: realtime.NotificationsChannel(uid.String()),
			Load: func(ctx context.Context) ([]models.Notification, error) {
				return h.svc.List(ctx, uid, false)
			},
			ID:  notificationID,
			Cue: cue,
			Log: log,
		})
		log.Debug("notification stream closed", zap.String("user_id", uid.String()), zap.Error(err))
	})
	return nil
}

package messages

import (
	"bufio"
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/auth"
	"github.com/aldoetobex/freelance-portal/internal/portal"
	"github.com/aldoetobex/freelance-portal/internal/realtime"
	"github.com/aldoetobex/freelance-portal/pkg/models"
	"github.com/aldoetobex/freelance-portal/pkg/validation"
)

// AdminSenderID is the sender id stored for studio messages; the admin has no user row.
var AdminSenderID = uuid.Nil

type SendRequest struct {
	Content       string `json:"content" validate:"required,notblank,max=5000"`
	CorrelationID string `json:"correlation_id" validate:"omitempty,uuid"`
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

// ownedProject resolves :param to a project of the caller's client. Foreign
// projects look the same as missing ones.
func (h *Handler) ownedProject(c *fiber.Ctx, param string) (*models.Project, error) {
	clientID, err := auth.ClientUUID(c)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid project id")
	}
	p, err := h.svc.Project(c.UserContext(), id)
	if errors.Is(err, ErrNoProject) || (err == nil && p.ClientID != clientID) {
		return nil, fiber.NewError(fiber.StatusNotFound, portal.MsgNotFound)
	}
	if err != nil {
		h.log.Error("project lookup failed", zap.String("project_id", id.String()), zap.Error(err))
		return nil, fiber.ErrInternalServerError
	}
	return p, nil
}

// @Summary      List project messages
// @Tags         messages
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "project id"
// @Success      200  {array}  models.Message
// @Router       /portal/projects/{id}/messages [get]
func (h *Handler) List(c *fiber.Ctx) error {
	clientID, err := auth.ClientUUID(c)
	if err != nil {
		return err
	}
	v := portal.Load(c.UserContext(), h.log, "messages", c.Params("id"),
		func(ctx context.Context, id string) ([]models.Message, error) {
			pid, err := uuid.Parse(id)
			if err != nil {
				return nil, portal.ErrNotFound
			}
			p, err := h.svc.Project(ctx, pid)
			if errors.Is(err, ErrNoProject) || (err == nil && p.ClientID != clientID) {
				return nil, portal.ErrNotFound
			}
			if err != nil {
				return nil, err
			}
			return h.svc.List(ctx, pid)
		}, portal.EmptySlice[models.Message])
	return portal.Respond(c, v)
}

// @Summary      Send message
// @Description  Idempotent per correlation_id: a retried send returns the stored message with 200
// @Tags         messages
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string       true  "project id"
// @Param        payload  body  SendRequest  true  "Message"
// @Success      201  {object}  models.Message
// @Success      200  {object}  models.Message  "duplicate send"
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      409  {object}  models.ErrorResponse  "correlation_id used by another sender"
// @Router       /portal/projects/{id}/messages [post]
func (h *Handler) Send(c *fiber.Ctx) error {
	p, err := h.ownedProject(c, "id")
	if err != nil {
		return err
	}
	uid, err := auth.UserUUID(c)
	if err != nil {
		return err
	}
	return h.send(c, p.ID, uid, models.SenderClient)
}

// @Summary      Send message as the studio
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string       true  "project id"
// @Param        payload  body  SendRequest  true  "Message"
// @Success      201  {object}  models.Message
// @Router       /admin/projects/{id}/messages [post]
func (h *Handler) AdminSend(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid project id")
	}
	return h.send(c, id, AdminSenderID, models.SenderAdmin)
}

// @Summary      List project messages (admin)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "project id"
// @Success      200  {array}  models.Message
// @Router       /admin/projects/{id}/messages [get]
func (h *Handler) AdminList(c *fiber.Ctx) error {
	v := portal.Load(c.UserContext(), h.log, "messages", c.Params("id"),
		func(ctx context.Context, id string) ([]models.Message, error) {
			pid, err := uuid.Parse(id)
			if err != nil {
				return nil, portal.ErrNotFound
			}
			return h.svc.List(ctx, pid)
		}, portal.EmptySlice[models.Message])
	return portal.Respond(c, v)
}

func (h *Handler) send(c *fiber.Ctx, projectID, senderID uuid.UUID, sender models.SenderType) error {
	var in SendRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	m, created, err := h.svc.Send(c.UserContext(), SendInput{
		ProjectID:     projectID,
		SenderID:      senderID,
		SenderType:    sender,
		Content:       in.Content,
		CorrelationID: in.CorrelationID,
	})
	switch {
	case errors.Is(err, ErrNoProject):
		return fiber.NewError(fiber.StatusNotFound, portal.MsgNotFound)
	case errors.Is(err, ErrEmptyContent):
		return fiber.NewError(fiber.StatusBadRequest, "message content is required")
	case errors.Is(err, ErrCorrelationTaken):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case err != nil:
		h.log.Error("send message failed", zap.String("project_id", projectID.String()), zap.Error(err))
		return fiber.ErrInternalServerError
	}
	if !created {
		return c.JSON(m)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

// @Summary      Mark message read
// @Tags         messages
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "message id"
// @Success      200  {object}  models.Message
// @Failure      404  {object}  models.ErrorResponse
// @Router       /portal/messages/{id}/read [post]
func (h *Handler) MarkRead(c *fiber.Ctx) error {
	clientID, err := auth.ClientUUID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid message id")
	}
	ctx := c.UserContext()
	m, err := h.svc.MarkRead(ctx, id, func(projectID uuid.UUID) bool {
		p, err := h.svc.Project(ctx, projectID)
		return err == nil && p.ClientID == clientID
	})
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, portal.MsgNotFound)
	}
	if err != nil {
		h.log.Error("mark message read failed", zap.String("message_id", id.String()), zap.Error(err))
		return fiber.ErrInternalServerError
	}
	return c.JSON(m)
}

// @Summary      Message stream
// @Description  Server-Sent Events for one project: snapshot, then INSERT/UPDATE rows
// @Tags         messages
// @Security     BearerAuth
// @Produce      text/event-stream
// @Param        projectID  path  string  true  "project id"
// @Router       /portal/stream/messages/{projectID} [get]
func (h *Handler) Stream(c *fiber.Ctx) error {
	p, err := h.ownedProject(c, "projectID")
	if err != nil {
		return err
	}
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	log := h.log
	pid := p.ID
	projectID := pid.String()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		err := realtime.Stream(h.lifetime, w, h.hub, realtime.StreamOptions[models.Message]{
			Channel: realtime.MessagesChannel(projectID),
			Load: func(ctx context.Context) ([]models.Message, error) {
				return h.svc.List(ctx, pid)
			},
			ID:          messageID,
			Correlation: correlationID,
			Log:         log,
		})
		log.Debug("message stream closed", zap.String("project_id", projectID), zap.Error(err))
	})
	return nil
}

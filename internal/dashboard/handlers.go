package dashboard

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/auth"
	"github.com/aldoetobex/freelance-portal/internal/portal"
)

// MsgClientNotFound is shown when the account has no client record.
const MsgClientNotFound = "Cliente não encontrado para esta conta."

// Response carries the summary, zeroed when Error is set.
type Response struct {
	Stats Stats  `json:"stats"`
	Error string `json:"error,omitempty"`
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

// @Summary      Portal dashboard
// @Tags         portal
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Response
// @Failure      404  {object}  Response  "client not found, zeroed stats"
// @Router       /portal/dashboard [get]
func (h *Handler) Client(c *fiber.Ctx) error {
	clientID, err := auth.ClientUUID(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(Response{Stats: Zero(), Error: MsgClientNotFound})
	}
	return h.respond(c, clientID)
}

// @Summary      Client dashboard (admin)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "client id"
// @Success      200  {object}  Response
// @Failure      404  {object}  Response
// @Router       /admin/clients/{id}/dashboard [get]
func (h *Handler) Admin(c *fiber.Ctx) error {
	clientID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(Response{Stats: Zero(), Error: MsgClientNotFound})
	}
	return h.respond(c, clientID)
}

func (h *Handler) respond(c *fiber.Ctx, clientID uuid.UUID) error {
	stats, err := h.svc.ForClient(c.UserContext(), clientID)
	switch {
	case errors.Is(err, ErrClientNotFound):
		return c.Status(fiber.StatusNotFound).JSON(Response{Stats: stats, Error: MsgClientNotFound})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(Response{Stats: stats, Error: portal.MsgLoadFailed})
	}
	return c.JSON(Response{Stats: stats})
}

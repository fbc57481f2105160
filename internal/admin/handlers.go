package admin

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/auth"
	"github.com/aldoetobex/freelance-portal/pkg/models"
)

// MsgWrongPassword is shown when the admin password does not match.
const MsgWrongPassword = "Senha incorreta"

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Handler struct {
	gate   *Gate
	tokens *auth.Tokens
	log    *zap.Logger
}

func NewHandler(gate *Gate, tokens *auth.Tokens, log *zap.Logger) *Handler {
	return &Handler{gate: gate, tokens: tokens, log: log}
}

// @Summary      Admin login
// @Description  Password gate for the admin dashboard; the session lasts 24h
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        payload  body  LoginRequest  true  "Password"
// @Success      200  {object}  LoginResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /admin/login [post]
func (h *Handler) Login(c *fiber.Ctx) error {
	var in LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}

	sid := uuid.NewString()
	s, err := h.gate.Login(c.UserContext(), sid, in.Password)
	if errors.Is(err, ErrWrongPassword) {
		h.log.Warn("admin login rejected", zap.String("ip", c.IP()))
		return fiber.NewError(fiber.StatusUnauthorized, MsgWrongPassword)
	}
	if err != nil {
		h.log.Error("admin session persist failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}

	token, err := h.tokens.IssueUntil("admin", string(models.RoleAdmin), "", sid, s.ExpiresAt)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(LoginResponse{Token: token, ExpiresAt: s.ExpiresAt})
}

// @Summary      Admin logout
// @Tags         admin
// @Security     BearerAuth
// @Success      204
// @Router       /admin/logout [post]
func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.gate.Logout(c.UserContext(), auth.SessionID(c)); err != nil {
		h.log.Error("admin logout failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// @Summary      Admin session
// @Description  Current gate state for the bearer token
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Session
// @Router       /admin/session [get]
func (h *Handler) Session(c *fiber.Ctx) error {
	s, err := h.gate.Load(c.UserContext(), auth.SessionID(c))
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(s)
}

// RequireSession checks the gate on every request; auth.RequireAuth must run first.
func (h *Handler) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if auth.MustRole(c) != string(models.RoleAdmin) {
			return fiber.ErrForbidden
		}
		s, err := h.gate.Load(c.UserContext(), auth.SessionID(c))
		if err != nil {
			h.log.Error("admin session load failed", zap.Error(err))
			return fiber.ErrInternalServerError
		}
		if !s.IsValid(h.gate.now()) {
			return fiber.ErrUnauthorized
		}
		return c.Next()
	}
}

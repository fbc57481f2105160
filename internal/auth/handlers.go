package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/aldoetobex/freelance-portal/internal/store"
	"github.com/aldoetobex/freelance-portal/pkg/models"
	"github.com/aldoetobex/freelance-portal/pkg/validation"
)

/* ================================ DTOs ================================= */

// Request body for /login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required"`
}

// Request body for /magic-link/verify
type MagicLinkRequest struct {
	Token string `json:"token" validate:"required,min=16,max=128"`
}

// Request body for /me/password
type SetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Standard auth response
type AuthResponse struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	ClientID string `json:"client_id,omitempty"`
}

// Profile response for /me
type UserProfileResponse struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	Role      models.Role    `json:"role"`
	Client    *models.Client `json:"client,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

/* ============================== Handler ================================= */

type Handler struct {
	st     *store.Store
	tokens *Tokens
	log    *zap.Logger
}

func NewHandler(st *store.Store, tokens *Tokens, log *zap.Logger) *Handler {
	return &Handler{st: st, tokens: tokens, log: log}
}

/* ================================ Login ================================= */

// @Summary      Login
// @Description  Authenticate a portal client with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  LoginRequest  true  "Login payload"
// @Success      200      {object}  AuthResponse
// @Failure      400      {object}  models.ValidationErrorResponse
// @Failure      401      {object}  models.ErrorResponse
// @Router       /login [post]
func (h *Handler) Login(c *fiber.Ctx) error {
	var in LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}

	// Normalize email
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	u, err := h.st.GetUserByEmail(c.UserContext(), in.Email)
	if err != nil {
		h.log.Error("login lookup failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}
	if u == nil || u.PasswordHash == "" {
		return fiber.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return fiber.ErrUnauthorized
	}

	return h.respondWithToken(c, u)
}

/* ============================= Magic link =============================== */

// @Summary      Verify magic link
// @Description  Exchange a single-use magic link token for a portal JWT
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  MagicLinkRequest  true  "Token"
// @Success      200      {object}  AuthResponse
// @Failure      401      {object}  models.ErrorResponse
// @Failure      410      {object}  models.ErrorResponse  "link expired"
// @Router       /magic-link/verify [post]
func (h *Handler) VerifyMagicLink(c *fiber.Ctx) error {
	var in MagicLinkRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	in.Token = strings.TrimSpace(in.Token)
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	ctx := c.UserContext()
	cl, err := h.st.GetClientByMagicToken(ctx, in.Token)
	if err != nil {
		h.log.Error("magic link lookup failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}
	if cl == nil || !cl.Active {
		return fiber.ErrUnauthorized
	}
	if cl.MagicTokenExpiresAt == nil || time.Now().After(*cl.MagicTokenExpiresAt) {
		return fiber.NewError(fiber.StatusGone, "magic link expired")
	}

	// Single use: only the request that clears the token may log in.
	consumed, err := h.st.ConsumeMagicToken(ctx, cl.ID, in.Token)
	if err != nil {
		h.log.Error("magic link consume failed", zap.String("client_id", cl.ID.String()), zap.Error(err))
		return fiber.ErrInternalServerError
	}
	if !consumed {
		return fiber.ErrUnauthorized
	}

	u, err := h.st.GetUserByClient(ctx, cl.ID)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	if u == nil {
		clientID := cl.ID
		u = &models.User{Email: strings.ToLower(cl.Email), Role: models.RoleClient, ClientID: &clientID}
		if err := h.st.CreateUser(ctx, u); err != nil {
			h.log.Error("portal user create failed", zap.String("client_id", cl.ID.String()), zap.Error(err))
			return fiber.NewError(fiber.StatusConflict, "email already in use")
		}
	}

	return h.respondWithToken(c, u)
}

/* ================================= Me =================================== */

// @Summary      Get current user profile
// @Description  Return the authenticated user with its client record
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  UserProfileResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /me [get]
func (h *Handler) Me(c *fiber.Ctx) error {
	id, err := uuid.Parse(MustUserID(c))
	if err != nil {
		return fiber.ErrUnauthorized
	}

	ctx := c.UserContext()
	u, err := h.st.GetUser(ctx, id)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	if u == nil {
		return fiber.ErrUnauthorized
	}

	resp := UserProfileResponse{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
	if u.ClientID != nil {
		if resp.Client, err = h.st.GetClient(ctx, *u.ClientID); err != nil {
			return fiber.ErrInternalServerError
		}
	}
	return c.JSON(resp)
}

// @Summary      Set password
// @Description  Portal client sets a password for email login
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Param        payload  body  SetPasswordRequest  true  "New password"
// @Success      204
// @Router       /me/password [post]
func (h *Handler) SetPassword(c *fiber.Ctx) error {
	var in SetPasswordRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	id, err := uuid.Parse(MustUserID(c))
	if err != nil {
		return fiber.ErrUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return fiber.ErrBadRequest
	}
	if err := h.st.DB().WithContext(c.UserContext()).Model(&models.User{}).
		Where("id = ?", id).Update("password_hash", string(hash)).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) respondWithToken(c *fiber.Ctx, u *models.User) error {
	clientID := ""
	if u.ClientID != nil {
		clientID = u.ClientID.String()
	}
	token, err := h.tokens.Issue(u.ID.String(), string(u.Role), clientID)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(AuthResponse{Token: token, Role: string(u.Role), ClientID: clientID})
}

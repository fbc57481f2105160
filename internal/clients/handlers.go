package clients

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/store"
	"github.com/aldoetobex/freelance-portal/pkg/models"
	"github.com/aldoetobex/freelance-portal/pkg/validation"
)

/* ================================ DTOs ================================= */

type CreateRequest struct {
	Name    string `json:"name" validate:"required,notblank,max=120"`
	Email   string `json:"email" validate:"required,email,max=120"`
	Company string `json:"company" validate:"max=120"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
}

// UpdateRequest is a partial update; nil fields are left untouched.
type UpdateRequest struct {
	Name    *string `json:"name" validate:"omitempty,notblank,max=120"`
	Email   *string `json:"email" validate:"omitempty,email,max=120"`
	Company *string `json:"company" validate:"omitempty,max=120"`
	Phone   *string `json:"phone" validate:"omitempty,phone"`
	Active  *bool   `json:"active"`
}

// MagicLinkResponse carries the one-time portal link for a client.
type MagicLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CreateResponse struct {
	Client    *models.Client    `json:"client"`
	MagicLink MagicLinkResponse `json:"magic_link"`
}

/* ============================== Handler ================================= */

type Handler struct {
	st       *store.Store
	baseURL  string
	magicTTL time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewHandler(st *store.Store, baseURL string, magicTTL time.Duration, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{st: st, baseURL: strings.TrimRight(baseURL, "/"), magicTTL: magicTTL, log: log, now: time.Now}
}

// NewMagicToken returns a 32-character random hex token.
func NewMagicToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func parsePage(c *fiber.Ctx) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	size, _ = strconv.Atoi(c.Query("pageSize", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return
}

func (h *Handler) issueMagicLink(c *fiber.Ctx, clientID uuid.UUID) (MagicLinkResponse, error) {
	token := NewMagicToken()
	exp := h.now().Add(h.magicTTL)
	if err := h.st.SetMagicToken(c.UserContext(), clientID, &token, &exp); err != nil {
		return MagicLinkResponse{}, err
	}
	return MagicLinkResponse{URL: h.baseURL + "/portal/magic-link?token=" + token, ExpiresAt: exp}, nil
}

// @Summary      Create client (admin)
// @Description  Creates the client and a single-use magic link to the portal
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateRequest  true  "Client"
// @Success      201  {object}  CreateResponse
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /admin/clients [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	cl := &models.Client{
		Name:    strings.TrimSpace(in.Name),
		Email:   in.Email,
		Company: strings.TrimSpace(in.Company),
		Phone:   strings.TrimSpace(in.Phone),
		Active:  true,
	}
	if err := h.st.CreateClient(c.UserContext(), cl); err != nil {
		h.log.Warn("client create failed", zap.Error(err))
		return fiber.NewError(fiber.StatusConflict, "email already registered")
	}

	link, err := h.issueMagicLink(c, cl.ID)
	if err != nil {
		h.log.Error("magic link issue failed", zap.String("client_id", cl.ID.String()), zap.Error(err))
		return fiber.ErrInternalServerError
	}
	h.st.LogActivity(c.UserContext(), "client", cl.ID, uuid.Nil, "created", "", "active", "")
	return c.Status(fiber.StatusCreated).JSON(CreateResponse{Client: cl, MagicLink: link})
}

// @Summary      List clients (admin)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        active    query  bool    false  "filter by active flag"
// @Param        q         query  string  false  "search name, email or company"
// @Param        page      query  int     false  "page (default 1)"
// @Param        pageSize  query  int     false  "page size (default 20, max 100)"
// @Success      200  {object}  models.Page[models.Client]
// @Router       /admin/clients [get]
func (h *Handler) List(c *fiber.Ctx) error {
	page, size := parsePage(c)
	var active *bool
	if q := c.Query("active"); q != "" {
		b, err := strconv.ParseBool(q)
		if err != nil {
			return validation.Respond(c, map[string][]string{"active": {"Must be true or false"}})
		}
		active = &b
	}

	rows, total, err := h.st.ListClients(c.UserContext(), active, c.Query("q"), page, size)
	if err != nil {
		h.log.Error("list clients failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}
	return c.JSON(models.Page[models.Client]{
		Page:     page,
		PageSize: size,
		Total:    total,
		Pages:    int(math.Ceil(float64(total) / float64(size))),
		Items:    rows,
	})
}

// @Summary      Get client (admin)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "client id"
// @Success      200  {object}  models.Client
// @Failure      404  {object}  models.ErrorResponse
// @Router       /admin/clients/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	cl, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(cl)
}

func (h *Handler) load(c *fiber.Ctx) (*models.Client, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid client id")
	}
	cl, err := h.st.GetClient(c.UserContext(), id)
	if err != nil {
		h.log.Error("client lookup failed", zap.String("client_id", id.String()), zap.Error(err))
		return nil, fiber.ErrInternalServerError
	}
	if cl == nil {
		return nil, fiber.ErrNotFound
	}
	return cl, nil
}

// @Summary      Update client (admin)
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string         true  "client id"
// @Param        payload  body  UpdateRequest  true  "Fields to change"
// @Success      200  {object}  models.Client
// @Router       /admin/clients/{id} [patch]
func (h *Handler) Update(c *fiber.Ctx) error {
	cl, err := h.load(c)
	if err != nil {
		return err
	}
	var in UpdateRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	fields := updateFields(in)
	if len(fields) == 0 {
		return c.JSON(cl)
	}
	if err := h.st.UpdateClient(c.UserContext(), cl.ID, fields); err != nil {
		h.log.Warn("client update failed", zap.String("client_id", cl.ID.String()), zap.Error(err))
		return fiber.NewError(fiber.StatusConflict, "update rejected")
	}
	if in.Active != nil && *in.Active != cl.Active {
		h.st.LogActivity(c.UserContext(), "client", cl.ID, uuid.Nil, "status_changed",
			activeLabel(cl.Active), activeLabel(*in.Active), "")
	}

	updated, err := h.st.GetClient(c.UserContext(), cl.ID)
	if err != nil || updated == nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(updated)
}

func updateFields(in UpdateRequest) map[string]any {
	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		fields["email"] = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Company != nil {
		fields["company"] = strings.TrimSpace(*in.Company)
	}
	if in.Phone != nil {
		fields["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Active != nil {
		fields["active"] = *in.Active
	}
	return fields
}

func activeLabel(b bool) string {
	if b {
		return "active"
	}
	return "inactive"
}

// @Summary      Issue magic link (admin)
// @Description  Replaces any previous link; the new one is single-use
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "client id"
// @Success      200  {object}  MagicLinkResponse
// @Failure      409  {object}  models.ErrorResponse  "client inactive"
// @Router       /admin/clients/{id}/magic-link [post]
func (h *Handler) MagicLink(c *fiber.Ctx) error {
	cl, err := h.load(c)
	if err != nil {
		return err
	}
	if !cl.Active {
		return fiber.NewError(fiber.StatusConflict, "client is inactive")
	}
	link, err := h.issueMagicLink(c, cl.ID)
	if err != nil {
		h.log.Error("magic link issue failed", zap.String("client_id", cl.ID.String()), zap.Error(err))
		return fiber.ErrInternalServerError
	}
	return c.JSON(link)
}

// Package site serves the public marketing pages' back-end: published
// testimonials and the contact form.
package site

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/portal"
	"github.com/aldoetobex/freelance-portal/pkg/models"
	"github.com/aldoetobex/freelance-portal/pkg/sanitize"
	"github.com/aldoetobex/freelance-portal/pkg/validation"
)

type Repository interface {
	ListPublishedTestimonials(ctx context.Context) ([]models.Testimonial, error)
	CreateContactMessage(ctx context.Context, m *models.ContactMessage) error
}

type ContactRequest struct {
	Name    string `json:"name" validate:"required,notblank,max=120"`
	Email   string `json:"email" validate:"required,email,max=120"`
	Subject string `json:"subject" validate:"max=160"`
	Message string `json:"message" validate:"required,notblank,min=10,max=5000"`
}

type Handler struct {
	repo Repository
	log  *zap.Logger
}

func NewHandler(repo Repository, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{repo: repo, log: log}
}

// @Summary      Published testimonials
// @Tags         site
// @Produce      json
// @Success      200  {array}  models.Testimonial
// @Router       /testimonials [get]
func (h *Handler) Testimonials(c *fiber.Ctx) error {
	v := portal.Load(c.UserContext(), h.log, "testimonials", "published",
		func(ctx context.Context, _ string) ([]models.Testimonial, error) {
			return h.repo.ListPublishedTestimonials(ctx)
		}, portal.EmptySlice[models.Testimonial])
	return portal.Respond(c, v)
}

// @Summary      Contact form
// @Tags         site
// @Accept       json
// @Produce      json
// @Param        payload  body  ContactRequest  true  "Message"
// @Success      201  {object}  map[string]any  "ok"
// @Failure      400  {object}  models.ValidationErrorResponse
// @Router       /contact [post]
func (h *Handler) Contact(c *fiber.Ctx) error {
	var in ContactRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	m := &models.ContactMessage{
		Name:    strings.TrimSpace(in.Name),
		Email:   in.Email,
		Subject: strings.TrimSpace(in.Subject),
		Body:    strings.TrimSpace(in.Message),
	}
	if err := h.repo.CreateContactMessage(c.UserContext(), m); err != nil {
		h.log.Error("contact message store failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}
	h.log.Info("contact message received",
		zap.String("id", m.ID.String()),
		zap.String("subject", sanitize.RedactPII(m.Subject)),
		zap.String("preview", sanitize.RedactPII(sanitize.Summary(m.Body, 60))),
	)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true})
}

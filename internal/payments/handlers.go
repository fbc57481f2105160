package payments

import (
	"crypto/subtle"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/auth"
	"github.com/aldoetobex/freelance-portal/internal/billing"
	"github.com/aldoetobex/freelance-portal/pkg/validation"
)

const MsgPaymentFailed = "Não foi possível iniciar o pagamento. Tente novamente."

type Handler struct {
	svc       *Service
	mock      bool
	devSecret string
	log       *zap.Logger
}

// NewHandler builds the payment handlers. The mock completion endpoint only
// answers when mock is true and devSecret is set.
func NewHandler(svc *Service, mock bool, devSecret string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, mock: mock, devSecret: devSecret, log: log}
}

type InitiateRequest struct {
	InvoiceID string `json:"invoice_id" validate:"required,uuid4"`
	Amount    int64  `json:"amount" validate:"omitempty,gt=0"`
}

// @Summary      Create Stripe checkout session
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  InitiateRequest  true  "Invoice to pay"
// @Success      201  {object}  Checkout
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      502  {object}  models.ErrorResponse
// @Router       /payments/stripe/create-session [post]
func (h *Handler) StripeSession(c *fiber.Ctx) error { return h.initiate(c, ProviderStripe) }

// @Summary      Create Mercado Pago preference
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  InitiateRequest  true  "Invoice to pay"
// @Success      201  {object}  Checkout
// @Router       /payments/mercadopago/create-preference [post]
func (h *Handler) MercadoPagoPreference(c *fiber.Ctx) error {
	return h.initiate(c, ProviderMercadoPago)
}

// @Summary      Generate PIX QR code
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  InitiateRequest  true  "Invoice to pay"
// @Success      201  {object}  Checkout
// @Router       /payments/pix/generate [post]
func (h *Handler) PixGenerate(c *fiber.Ctx) error { return h.initiate(c, ProviderPix) }

func (h *Handler) initiate(c *fiber.Ctx, provider string) error {
	clientID, err := auth.ClientUUID(c)
	if err != nil {
		return err
	}
	var in InitiateRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	invoiceID, _ := uuid.Parse(in.InvoiceID)

	co, err := h.svc.Initiate(c.UserContext(), provider, InitiateInput{
		ClientID:  clientID,
		InvoiceID: invoiceID,
		Amount:    in.Amount,
	})
	if err != nil {
		return h.paymentError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(co)
}

// @Summary      Payment status
// @Description  pending, approved or rejected
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        transactionId  path  string  true  "provider transaction id"
// @Success      200  {object}  models.Payment
// @Failure      404  {object}  models.ErrorResponse
// @Router       /payments/status/{transactionId} [get]
func (h *Handler) Status(c *fiber.Ctx) error {
	clientID, err := auth.ClientUUID(c)
	if err != nil {
		return err
	}
	pay, err := h.svc.Status(c.UserContext(), clientID, c.Params("transactionId"))
	if err != nil {
		return h.paymentError(err)
	}
	return c.JSON(fiber.Map{
		"transaction_id": c.Params("transactionId"),
		"status":         pay.Status,
		"payment":        pay,
	})
}

type MockCompleteRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
}

// MockComplete approves a pending transaction in development.
// Header: X-Dev-Secret: <DEV_PAYMENT_SECRET>
func (h *Handler) MockComplete(c *fiber.Ctx) error {
	if !h.mock || h.devSecret == "" {
		return fiber.ErrNotFound
	}
	got := c.Get("X-Dev-Secret")
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.devSecret)) != 1 {
		return fiber.NewError(fiber.StatusUnauthorized, "missing/invalid X-Dev-Secret")
	}
	var in MockCompleteRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	pay, err := h.svc.Complete(c.UserContext(), in.TransactionID)
	if err != nil {
		return h.paymentError(err)
	}
	return c.JSON(fiber.Map{"ok": true, "payment": pay})
}

func (h *Handler) paymentError(err error) error {
	switch {
	case errors.Is(err, billing.ErrNotFound), errors.Is(err, billing.ErrPaymentNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, billing.ErrAlreadyPaid), errors.Is(err, billing.ErrAlreadyRecorded):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, billing.ErrInvalidAmount), errors.Is(err, billing.ErrExceedsBalance):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrUnknownProvider), errors.Is(err, ErrProviderUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, MsgPaymentFailed)
	}
	h.log.Error("payment request failed", zap.Error(err))
	return fiber.NewError(fiber.StatusBadGateway, MsgPaymentFailed)
}

package billing

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/auth"
	"github.com/aldoetobex/freelance-portal/internal/portal"
	"github.com/aldoetobex/freelance-portal/pkg/models"
	"github.com/aldoetobex/freelance-portal/pkg/validation"
)

const dateLayout = "2006-01-02"

type CreateInvoiceRequest struct {
	ClientID  string      `json:"client_id" validate:"required,uuid"`
	ProjectID string      `json:"project_id" validate:"omitempty,uuid"`
	DueDate   string      `json:"due_date" validate:"required,datetime=2006-01-02"`
	Items     []ItemInput `json:"items" validate:"required,min=1,max=200,dive"`
}

type RecordPaymentRequest struct {
	Amount        int64  `json:"amount" validate:"required,min=1"`
	Method        string `json:"method" validate:"required,oneof=pix card transfer cash boleto"`
	TransactionID string `json:"transaction_id" validate:"omitempty,max=100"`
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

// @Summary      List my invoices
// @Description  Invoices with items and payments, latest due date first
// @Tags         portal
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  models.Invoice
// @Router       /portal/invoices [get]
func (h *Handler) List(c *fiber.Ctx) error {
	clientID, err := auth.ClientUUID(c)
	if err != nil {
		return err
	}
	v := portal.Load(c.UserContext(), h.log, "invoices", clientID.String(),
		func(ctx context.Context, _ string) ([]models.Invoice, error) {
			return h.svc.ListForClient(ctx, clientID)
		}, portal.EmptySlice[models.Invoice])
	return portal.Respond(c, v)
}

// @Summary      Create invoice (admin)
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateInvoiceRequest  true  "Invoice"
// @Success      201  {object}  models.Invoice
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /admin/invoices [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	clientID, _ := uuid.Parse(in.ClientID)
	due, _ := time.Parse(dateLayout, in.DueDate)
	ii := InvoiceInput{ClientID: clientID, DueDate: due, Items: in.Items}
	if in.ProjectID != "" {
		pid, _ := uuid.Parse(in.ProjectID)
		ii.ProjectID = &pid
	}

	inv, err := h.svc.CreateInvoice(c.UserContext(), ii)
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "client not found")
	case errors.Is(err, ErrInvalidAmount):
		return validation.Respond(c, map[string][]string{"items": {"Total must be positive"}})
	case err != nil:
		h.log.Error("invoice create failed", zap.String("client_id", in.ClientID), zap.Error(err))
		return fiber.ErrInternalServerError
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

// @Summary      Record payment (admin)
// @Description  The amount is checked against the outstanding balance (total - paid_amount)
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                true  "invoice id"
// @Param        payload  body  RecordPaymentRequest  true  "Payment"
// @Success      201  {object}  Receipt
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Failure      422  {object}  models.ErrorResponse
// @Router       /admin/invoices/{id}/payments [post]
func (h *Handler) RecordPayment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid invoice id")
	}
	var in RecordPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	rc, err := h.svc.RecordPayment(c.UserContext(), PaymentInput{
		InvoiceID:     id,
		AmountCents:   in.Amount,
		Method:        in.Method,
		Provider:      "manual",
		TransactionID: in.TransactionID,
	})
	if err != nil {
		return h.paymentError(err, id)
	}
	return c.Status(fiber.StatusCreated).JSON(rc)
}

func (h *Handler) paymentError(err error, invoiceID uuid.UUID) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPaymentNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyPaid), errors.Is(err, ErrAlreadyRecorded):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrExceedsBalance):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	h.log.Error("record payment failed", zap.String("invoice_id", invoiceID.String()), zap.Error(err))
	return fiber.ErrInternalServerError
}

// @Summary      Export invoices (admin)
// @Description  xlsx of invoices issued in [from, to); both bounds optional (YYYY-MM-DD)
// @Tags         admin
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        from  query  string  false  "from date"
// @Param        to    query  string  false  "to date"
// @Success      200
// @Router       /admin/invoices/export [get]
func (h *Handler) Export(c *fiber.Ctx) error {
	var from, to time.Time
	var err error
	if q := c.Query("from"); q != "" {
		if from, err = time.Parse(dateLayout, q); err != nil {
			return validation.Respond(c, map[string][]string{"from": {"Invalid date, use YYYY-MM-DD"}})
		}
	}
	if q := c.Query("to"); q != "" {
		if to, err = time.Parse(dateLayout, q); err != nil {
			return validation.Respond(c, map[string][]string{"to": {"Invalid date, use YYYY-MM-DD"}})
		}
	}

	f, filename, err := h.svc.ExportInvoices(c.UserContext(), from, to)
	if err != nil {
		h.log.Error("invoice export failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		h.log.Error("invoice export write failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}

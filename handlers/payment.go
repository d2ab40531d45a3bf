package handlers

import (
	"fmt"
	"log/slog"
	"strconv"

	"mpa-platform/middleware"
	"mpa-platform/models"
	"mpa-platform/services"

	"github.com/gofiber/fiber/v2"
)

type PaymentHandler struct {
	svc       *services.PaymentService
	maxUpload int64
	log       *slog.Logger
}

type submitPaymentRequest struct {
	Amount        int64                    `json:"amount"         form:"amount"`
	PaymentMethod models.PaymentMethodType `json:"payment_method" form:"payment_method"`
	ReferenceID   string                   `json:"reference_id"   form:"reference_id"`
	SaveMethod    bool                     `json:"save_method"    form:"save_method"`
	MethodLabel   string                   `json:"method_label"   form:"method_label"`
	MethodDetails string                   `json:"method_details" form:"method_details"`
}

func SetupPaymentRoutes(api, admin fiber.Router, auth fiber.Handler, svc *services.PaymentService, maxUpload int64, log *slog.Logger) {
	h := &PaymentHandler{svc: svc, maxUpload: maxUpload, log: log}

	api.Get("/payments/quote", h.Quote)

	p := api.Group("/payments", auth)
	p.Get("/", h.ListTransactions)
	p.Post("/", h.Submit)
	p.Get("/methods", h.ListMethods)
	p.Post("/methods", h.SaveMethod)

	// Back-office settlement
	admin.Get("/payments", h.Review)
	admin.Post("/payments/:id/verify", h.Verify)
	admin.Post("/payments/:id/reject", h.Reject)
}

// Quote previews the points an amount buys.
func (h *PaymentHandler) Quote(c *fiber.Ctx) error {
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil || amount <= 0 {
		return badRequest(c, "amount must be a positive integer")
	}
	if amount > services.MaxPaymentAmount {
		return badRequest(c, fmt.Sprintf("amount cannot exceed %d", services.MaxPaymentAmount))
	}
	return c.JSON(fiber.Map{"amount": amount, "points": services.CalculateCustomPoints(amount)})
}

func (h *PaymentHandler) Submit(c *fiber.Ctx) error {
	var body submitPaymentRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	proof, err := optionalUpload(c, "proof", h.maxUpload)
	if err != nil {
		return fail(c, h.log, err)
	}

	tx, err := h.svc.Submit(c.UserContext(), middleware.UserID(c), services.SubmitPaymentInput{
		Amount:        body.Amount,
		Method:        body.PaymentMethod,
		ReferenceID:   body.ReferenceID,
		Proof:         proof,
		SaveMethod:    body.SaveMethod,
		MethodLabel:   body.MethodLabel,
		MethodDetails: body.MethodDetails,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tx)
}

func (h *PaymentHandler) ListTransactions(c *fiber.Ctx) error {
	txs, err := h.svc.ListTransactions(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(txs)
}

func (h *PaymentHandler) ListMethods(c *fiber.Ctx) error {
	methods, err := h.svc.ListPaymentMethods(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(methods)
}

func (h *PaymentHandler) SaveMethod(c *fiber.Ctx) error {
	var body models.PaymentMethod
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	m, err := h.svc.SavePaymentMethod(c.UserContext(), middleware.UserID(c), body)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (h *PaymentHandler) Review(c *fiber.Ctx) error {
	status := models.PaymentStatus(c.Query("status", string(models.PaymentPending)))
	txs, err := h.svc.Review(c.UserContext(), status, pageFromQuery(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(txs)
}

func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	tx, err := h.svc.Verify(c.UserContext(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(tx)
}

func (h *PaymentHandler) Reject(c *fiber.Ctx) error {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	tx, err := h.svc.Reject(c.UserContext(), c.Params("id"), middleware.UserID(c), body.Reason)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(tx)
}

package handler

import (
	"net/http"

	"invoice-billing-backend/internal/services/invoicing"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	service *invoicing.InvoiceService
}

func NewInvoiceHandler(s *invoicing.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: s}
}

// Create handles POST /invoices. All inputs come from the query string.
func (h *InvoiceHandler) Create(c *gin.Context) {
	in := invoicing.CreateInput{
		ClientID:  c.Query("clientid"),
		YearMonth: c.Query("yearmonth"),
		Forename:  c.Query("forename"),
		Surname:   c.Query("surname"),
		Number:    c.Query("number"),
		Email:     c.Query("email"),
		Status:    c.Query("status"),
		Amount:    c.Query("amount"),
	}

	if err := h.service.Create(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, invoicing.MsgCreated)
}

// UpdateStatus handles PATCH /invoices.
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	in := invoicing.UpdateInput{
		ClientID:  c.Query("clientid"),
		YearMonth: c.Query("yearmonth"),
		UpdateTo:  c.Query("updateto"),
	}

	if err := h.service.UpdateStatus(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, invoicing.MsgStatusUpdated)
}

// List handles GET /invoices. Amounts are encoded as JSON strings.
func (h *InvoiceHandler) List(c *gin.Context) {
	invoices, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

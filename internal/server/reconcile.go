package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pyar/asocmembers/internal/gateway/mercadopago"
)

type reconcileRequest struct {
	PaymentID *int64 `json:"payment_id"`
	PayerID   string `json:"payer_id"`
	CustomFee string `json:"custom_fee"`
}

// Reconcile runs an on-demand import of recurring payments. An empty body
// imports everything the gateway reports.
func (s *Server) Reconcile(c *gin.Context) {
	var req reconcileRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	customFee, err := parseOptionalDecimal(req.CustomFee)
	if err != nil {
		AbortWithError(c, newValidationError("custom_fee", "invalid_custom_fee", "custom_fee must be a decimal number"))
		return
	}

	ctx := c.Request.Context()
	records, err := s.source.FetchRecords(ctx, mercadopago.Filter{
		PaymentID: req.PaymentID,
		PayerID:   strings.TrimSpace(req.PayerID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summary, err := s.reconciler.Reconcile(ctx, records, customFee)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) GenerateInvoices(c *gin.Context) {
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil || limit < 0 {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be a positive integer"))
		return
	}
	if limit == 0 {
		limit = s.cfg.Invoice.BatchLimit
	}

	summary, err := s.invoiceSvc.GenerateMissing(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

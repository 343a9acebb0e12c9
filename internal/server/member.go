package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pyar/asocmembers/internal/calendar"
	debtdomain "github.com/pyar/asocmembers/internal/debt/domain"
	ledgerdomain "github.com/pyar/asocmembers/internal/ledger/domain"
	memberdomain "github.com/pyar/asocmembers/internal/member/domain"
	"github.com/shopspring/decimal"
)

type recordPaymentRequest struct {
	Timestamp    string `json:"timestamp"`
	Amount       string `json:"amount"`
	Platform     string `json:"platform"`
	IDInPlatform string `json:"id_in_platform"`
	FirstUnpaid  string `json:"first_unpaid"`
	Comments     string `json:"comments"`
	CustomFee    string `json:"custom_fee"`
}

type recordPaymentResponse struct {
	Payment ledgerdomain.Payment `json:"payment"`
	Quotas  []ledgerdomain.Quota `json:"quotas"`
}

type memberDebtResponse struct {
	MemberID string               `json:"member_id"`
	Limit    calendar.YearMonth   `json:"limit"`
	Periods  []calendar.YearMonth `json:"periods"`
	Summary  string               `json:"summary"`
}

func (s *Server) GetMember(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	member, err := s.memberSvc.GetMember(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// RecordPayment registers a manual payment (transfer, credit or any platform)
// for a member, creating the payer's strategy on first use.
func (s *Server) RecordPayment(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	timestamp, err := parseTimestamp(req.Timestamp)
	if err != nil {
		AbortWithError(c, newValidationError("timestamp", "invalid_timestamp", "timestamp must be RFC3339 or YYYY-MM-DD"))
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		AbortWithError(c, newValidationError("amount", "invalid_amount", "amount must be a decimal number"))
		return
	}
	platform, err := memberdomain.ParsePlatform(req.Platform)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	firstUnpaid, err := parseOptionalYearMonth(req.FirstUnpaid)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	customFee, err := parseOptionalDecimal(req.CustomFee)
	if err != nil {
		AbortWithError(c, newValidationError("custom_fee", "invalid_custom_fee", "custom_fee must be a decimal number"))
		return
	}

	ctx := c.Request.Context()
	member, err := s.memberSvc.GetMember(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if member.PatronID == nil {
		AbortWithError(c, newValidationError("member", "missing_patron", "member has no patron to pay for it"))
		return
	}

	strategy, err := s.memberSvc.EnsurePaymentStrategy(ctx, memberdomain.EnsurePaymentStrategyRequest{
		Platform:     platform,
		IDInPlatform: strings.TrimSpace(req.IDInPlatform),
		PatronID:     member.PatronID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payment, err := s.ledgerSvc.RecordPayment(ctx, ledgerdomain.RecordPaymentRequest{
		MemberID:    member.ID,
		Timestamp:   timestamp,
		Amount:      amount,
		StrategyID:  strategy.ID,
		FirstUnpaid: firstUnpaid,
		Comments:    strings.TrimSpace(req.Comments),
		CustomFee:   customFee,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	quotas, err := s.ledgerSvc.PaymentQuotas(ctx, payment.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recordPaymentResponse{Payment: payment, Quotas: quotas})
}

func (s *Server) GetMemberDebt(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	limit, err := s.debtLimit(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	member, err := s.memberSvc.GetMember(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	periods, err := s.debtSvc.Debt(ctx, member, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, memberDebtResponse{
		MemberID: member.ID.String(),
		Limit:    limit,
		Periods:  periods,
		Summary:  debtdomain.FormatDebt(periods),
	})
}

func (s *Server) ListPaymentQuotas(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	quotas, err := s.ledgerSvc.PaymentQuotas(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotas": quotas})
}

// debtLimit reads ?limit=YYYYMM, defaulting to the previous month.
func (s *Server) debtLimit(c *gin.Context) (calendar.YearMonth, error) {
	limit, err := parseOptionalYearMonth(c.Query("limit"))
	if err != nil {
		return calendar.YearMonth{}, err
	}
	if limit == nil {
		return debtdomain.DefaultLimit(s.clock.Now()), nil
	}
	return *limit, nil
}

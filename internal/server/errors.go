package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pyar/asocmembers/internal/calendar"
	debtdomain "github.com/pyar/asocmembers/internal/debt/domain"
	eventdomain "github.com/pyar/asocmembers/internal/event/domain"
	"github.com/pyar/asocmembers/internal/gateway/mercadopago"
	ledgerdomain "github.com/pyar/asocmembers/internal/ledger/domain"
	memberdomain "github.com/pyar/asocmembers/internal/member/domain"
	"github.com/pyar/asocmembers/internal/reconcile"
	"github.com/pyar/asocmembers/internal/storage"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrConflict           = errors.New("conflict")
)

// validationErrors are reported back with their own code.
var validationErrors = []error{
	ErrInvalidRequest,
	errInvalidSnowflakeID,
	calendar.ErrInvalidYearMonth,
	ledgerdomain.ErrAmountMismatch,
	ledgerdomain.ErrFirstUnpaidUnknown,
	ledgerdomain.ErrInvalidMember,
	ledgerdomain.ErrInvalidStrategy,
	ledgerdomain.ErrInvalidTimestamp,
	memberdomain.ErrInvalidName,
	memberdomain.ErrInvalidEmail,
	memberdomain.ErrInvalidFee,
	memberdomain.ErrInvalidKind,
	memberdomain.ErrInvalidFirstPayment,
	memberdomain.ErrInvalidPlatform,
	memberdomain.ErrInvalidCategory,
	debtdomain.ErrNoStartPeriod,
	eventdomain.ErrInvalidName,
	eventdomain.ErrInvalidAmount,
	eventdomain.ErrInvalidCommission,
	eventdomain.ErrInvalidEventCategory,
	eventdomain.ErrInvalidInvoiceType,
	eventdomain.ErrInvalidInvoiceDate,
	eventdomain.ErrSponsorNotEnabled,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if code, ok := validationErrorCode(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, reconcile.ErrRunInProgress),
		errors.Is(err, eventdomain.ErrDuplicateSponsorCategory),
		errors.Is(err, eventdomain.ErrDuplicateSponsoring),
		errors.Is(err, eventdomain.ErrDuplicateInvoice),
		errors.Is(err, eventdomain.ErrEventClosed),
		errors.Is(err, eventdomain.ErrAmbiguousEvent):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, storage.ErrDisabled),
		errors.Is(err, mercadopago.ErrMissingToken),
		errors.Is(err, mercadopago.ErrRequest):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the response type and code logged with a request.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func validationErrorCode(err error) (string, bool) {
	for _, candidate := range validationErrors {
		if errors.Is(err, candidate) {
			return candidate.Error(), true
		}
	}
	return "", false
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, memberdomain.ErrNotFound),
		errors.Is(err, eventdomain.ErrNotFound),
		errors.Is(err, eventdomain.ErrEventNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "amount_mismatch":
		return "amount is not a whole number of monthly fees"
	case "first_unpaid_unknown":
		return "first unpaid month cannot be determined"
	case "no_start_period":
		return "member has no first payment or registration date"
	case "sponsor_not_enabled":
		return "sponsor is not enabled"
	default:
		return "invalid value"
	}
}

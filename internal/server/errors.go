package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	agentdomain "github.com/smallbiznis/brokerage/internal/agent/domain"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	auditdomain "github.com/smallbiznis/brokerage/internal/audit/domain"
	authdomain "github.com/smallbiznis/brokerage/internal/auth/domain"
	"github.com/smallbiznis/brokerage/internal/authorization"
	clientdomain "github.com/smallbiznis/brokerage/internal/client/domain"
	insurerdomain "github.com/smallbiznis/brokerage/internal/insurer/domain"
	"github.com/smallbiznis/brokerage/internal/lock"
	policydomain "github.com/smallbiznis/brokerage/internal/policy/domain"
	"github.com/smallbiznis/brokerage/internal/providers/storage"
	quotationdomain "github.com/smallbiznis/brokerage/internal/quotation/domain"
	ratingdomain "github.com/smallbiznis/brokerage/internal/rating/domain"
	"github.com/smallbiznis/brokerage/pkg/db"
	"github.com/smallbiznis/brokerage/pkg/validation"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string                  `json:"type"`
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

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
	return validation.New("request", "invalid_request", "invalid request")
}

// classifyErrorForLog feeds the request logger the same type the client sees.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr, ok := validation.As(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Fields,
		}
	}

	if field, ok := invalidField(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []validation.FieldError{{
				Field:   field,
				Code:    err.Error(),
				Message: "invalid value",
			}},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrMissingCredentials),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrTokenExpired),
		errors.Is(err, authdomain.ErrTokensDisabled):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authorization.ErrInvalidRole):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case db.IsRetryableErr(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "concurrent update, retry the request",
		}
	case db.IsDuplicateKeyErr(err):
		return http.StatusConflict, errorPayload{
			Type:    "integrity_violation",
			Message: "a record with the same unique values already exists",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, storage.ErrDisabled):
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

// invalidField maps malformed identifiers and enumerations to the request
// field they came from.
func invalidField(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "request", true
	case errors.Is(err, clientdomain.ErrInvalidID),
		errors.Is(err, agentdomain.ErrInvalidID),
		errors.Is(err, assetdomain.ErrInvalidID),
		errors.Is(err, insurerdomain.ErrInvalidID),
		errors.Is(err, quotationdomain.ErrInvalidID),
		errors.Is(err, policydomain.ErrInvalidID):
		return "id", true
	case errors.Is(err, assetdomain.ErrInvalidKind),
		errors.Is(err, ratingdomain.ErrInvalidKind),
		errors.Is(err, assetdomain.ErrVariantMismatch):
		return "kind", true
	case errors.Is(err, agentdomain.ErrInvalidRole):
		return "role", true
	case errors.Is(err, ratingdomain.ErrNegativeInsured):
		return "insured_values", true
	case errors.Is(err, auditdomain.ErrInvalidPageToken):
		return "page_token", true
	case errors.Is(err, auditdomain.ErrInvalidTimeRange):
		return "end_at", true
	case errors.Is(err, auditdomain.ErrInvalidAction):
		return "action", true
	default:
		return "", false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, clientdomain.ErrNotFound),
		errors.Is(err, agentdomain.ErrNotFound),
		errors.Is(err, agentdomain.ErrLinkNotFound),
		errors.Is(err, assetdomain.ErrNotFound),
		errors.Is(err, assetdomain.ErrLinkNotFound),
		errors.Is(err, insurerdomain.ErrNotFound),
		errors.Is(err, quotationdomain.ErrNotFound),
		errors.Is(err, policydomain.ErrNotFound),
		errors.Is(err, policydomain.ErrInstallmentNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, assetdomain.ErrHasQuotations),
		errors.Is(err, insurerdomain.ErrHasQuotations),
		errors.Is(err, quotationdomain.ErrHasPolicy),
		errors.Is(err, policydomain.ErrQuotationNotIssuable),
		errors.Is(err, policydomain.ErrQuotationAlreadyIssued),
		errors.Is(err, policydomain.ErrInstallmentNotPayable),
		errors.Is(err, policydomain.ErrPolicyNotCancellable),
		errors.Is(err, policydomain.ErrConcurrentUpdate),
		errors.Is(err, lock.ErrNotAcquired):
		return true
	default:
		return false
	}
}

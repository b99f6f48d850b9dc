package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"matka/internal/service"
	"matka/internal/settlement"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, apiResponse{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// Accepted reports work that continues in the background.
func Accepted(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusAccepted, apiResponse{
		Code:    0,
		Message: "accepted",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// ServiceError maps domain errors to HTTP statuses. Anything unrecognised is
// treated as a storage failure.
func ServiceError(c *gin.Context, err error) {
	Error(c, statusFor(err), err.Error(), nil)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, settlement.ErrMarketNotFound),
		errors.Is(err, service.ErrRatingNotFound),
		errors.Is(err, service.ErrCustomerNotFound):
		return http.StatusNotFound
	case errors.Is(err, settlement.ErrAlreadyDeclared),
		errors.Is(err, settlement.ErrSweepInFlight),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrOutcomeLocked):
		return http.StatusConflict
	case errors.Is(err, service.ErrMarketNotOpen),
		errors.Is(err, service.ErrMarketClosed),
		errors.Is(err, service.ErrMarketInactive),
		errors.Is(err, service.ErrFeatureDisabled):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrRatingInactive),
		errors.Is(err, settlement.ErrNotDeclared):
		return http.StatusBadRequest
	case errors.Is(err, settlement.ErrQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func boolQueryDefault(c *gin.Context, key string, def bool) bool {
	if val := c.Query(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return def
}

func paginationMeta(limit, offset int, total int64) map[string]any {
	if limit <= 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	return map[string]any{
		"limit":    limit,
		"offset":   offset,
		"total":    total,
		"has_next": int64(offset+limit) < total,
	}
}

func boolPtr(v bool) *bool { return &v }

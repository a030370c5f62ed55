// Package response renders the JSON envelopes every endpoint answers with.
package response

import (
	"context"
	"errors"
	"net/http"
	"time"

	"coin-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CtxRequestID is the gin context key holding the request id.
const CtxRequestID = "request_id"

const (
	codeUnknown = "SYS_000"
	// Seconds a client should wait before retrying a 503.
	retryAfterUnavailable = "1"
)

type SuccessResponse struct {
	Data      any    `json:"data"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

type ErrorResponse struct {
	ErrorCode string         `json:"error_code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id"`
	Timestamp string         `json:"timestamp"`
}

func OK(c *gin.Context, data any) {
	success(c, http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	success(c, http.StatusCreated, data)
}

// Error renders err. An *apperror.AppError anywhere in the chain picks the
// status and code; an expired request context becomes a retryable 503 and
// anything else an opaque 500.
func Error(c *gin.Context, err error) {
	appErr := classify(err)
	if appErr == nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			ErrorCode: codeUnknown,
			Message:   "Internal server error",
			RequestID: requestID(c),
			Timestamp: timestamp(),
		})
		return
	}

	if appErr.HTTPStatus == http.StatusServiceUnavailable {
		c.Header("Retry-After", retryAfterUnavailable)
	}
	c.JSON(appErr.HTTPStatus, ErrorResponse{
		ErrorCode: appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
		RequestID: requestID(c),
		Timestamp: timestamp(),
	})
}

func classify(err error) *apperror.AppError {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, context.DeadlineExceeded):
		return apperror.ErrStorageUnavailable(err)
	default:
		return nil
	}
}

func success(c *gin.Context, status int, data any) {
	c.JSON(status, SuccessResponse{
		Data:      data,
		RequestID: requestID(c),
		Timestamp: timestamp(),
	})
}

// requestID prefers the id set by the request-id middleware and mints one
// when a handler runs without it, as in unit tests.
func requestID(c *gin.Context) string {
	if id := c.GetString(CtxRequestID); id != "" {
		return id
	}
	id := uuid.NewString()
	c.Set(CtxRequestID, id)
	return id
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

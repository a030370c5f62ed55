package handler

import (
	"errors"
	"fmt"
	"net/http"

	"coin-ledger/internal/adapter/http/middleware"
	"coin-ledger/pkg/apperror"
	"coin-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUser returns the authenticated user, writing a 401 when absent.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, apperror.ErrInvalidToken())
		return uuid.Nil, false
	}
	return userID, true
}

// pathUUID parses a UUID path parameter, writing a 400 when malformed.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, apperror.Validation(fmt.Sprintf("%s must be a UUID", name)))
		return uuid.Nil, false
	}
	return id, true
}

// respondError records err on the context for the request logger and
// renders the error envelope.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	response.Error(c, err)
}

// setResourceID reports the id of a created resource to the audit middleware.
func setResourceID(c *gin.Context, id string) {
	c.Set(middleware.CtxResourceID, id)
}

// bindError maps a JSON binding failure to its error envelope. A body cut
// off by middleware.MaxBodySize is a 413, anything else a 400.
func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.ErrPayloadTooLarge(tooLarge.Limit)
	}
	return apperror.Validation(err.Error())
}

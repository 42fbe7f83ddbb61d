package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/samuelizer/errors"
)

// StatusClientClosedRequest is logged when the caller hung up before a
// long transcription finished. Nothing reaches the client.
const StatusClientClosedRequest = 499

// DataResponse wraps every successful /v1 body.
type DataResponse struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta accompanies list responses.
type Meta struct {
	Total int `json:"total"`
}

// RespondWithError writes the AppError body and status carried by err.
// Errors that are not AppErrors become a 500 with the internal code, except
// a cancelled request context which is recorded as 499.
func RespondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	if errors.Is(err, context.Canceled) && c.Request.Context().Err() != nil {
		c.AbortWithStatus(StatusClientClosedRequest)
		return
	}
	c.JSON(http.StatusInternalServerError, apperrors.Internal(err).ToResponse())
}

// RespondOK sends data with a 200.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondList sends items with their count. A nil slice is sent as [].
func RespondList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, DataResponse{Data: items, Meta: &Meta{Total: len(items)}})
}

// RespondNoContent sends a bare 204.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

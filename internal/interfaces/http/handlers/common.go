// Package handlers implements the API server's HTTP endpoints.
package handlers

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError maps an application error to its HTTP status and writes the
// standard body.  Internal details are not masked; the API is an internal
// catalog-operations surface.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	resp := ErrorResponse{Code: string(code), Message: err.Error()}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Detail = appErr.Detail
	}
	c.AbortWithStatusJSON(errors.HTTPStatusForCode(code), resp)
}

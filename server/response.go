package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/injectkit/errors"
)

// DataResponse is the success envelope of resource handlers.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondWithError writes the *apperrors.AppError in err's chain, or a
// generic 500. A resource that fails to resolve a request-scoped value gets
// the status of the underlying error (503 for NOT_READY).
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// Respond writes data in the envelope with status, or only the status when
// data is nil.
func Respond(c *gin.Context, status int, data any) {
	if data == nil {
		c.Status(status)
		return
	}
	c.JSON(status, DataResponse{Data: data})
}

// RespondOK writes data with 200.
func RespondOK(c *gin.Context, data any) { Respond(c, http.StatusOK, data) }

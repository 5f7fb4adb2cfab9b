package endpoint

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/injectkit/errors"
)

// TaskRunner executes the admin task called name, writing its output to out.
// It returns an *errors.AppError with code NOT_FOUND for unknown tasks.
type TaskRunner func(ctx context.Context, name string, params map[string][]string, out io.Writer) error

// Tasks returns a handler for POST {admin}/tasks/:name. Query and form
// parameters are passed to the task; its output becomes the plain-text body.
func Tasks(run TaskRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			appErr := apperrors.InvalidInput("body", err.Error())
			c.JSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}

		var out bytes.Buffer
		if err := run(c.Request.Context(), c.Param("name"), c.Request.Form, &out); err != nil {
			appErr := apperrors.From(err)
			c.JSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", out.Bytes())
	}
}

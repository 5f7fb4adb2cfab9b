package bundle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/injectkit/di"
	"github.com/kbukum/injectkit/observability"
	"github.com/kbukum/injectkit/server/middleware"
)

// RequestID identifies the current request inside a request scope.
type RequestID string

// RequestScopeFilter opens a request scope for each request. The scope is
// seeded with the *http.Request, the *gin.Context and the RequestID, and is
// closed when the request completes. Each request also gets a server span
// and request metrics; metrics may be nil.
func RequestScopeFilter(inj di.Injector, serviceName string, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(middleware.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		operation := c.FullPath()
		if operation == "" {
			operation = c.Request.URL.Path
		}
		obs := observability.StartRequest(c.Request.Context(), metrics, serviceName, c.Request.Method+" "+operation, requestID)

		scope := di.NewRequestScope(inj)
		c.Request = c.Request.WithContext(di.WithScope(obs.Context(), scope))
		scope.Seed(di.KeyOf[*http.Request](), c.Request)
		scope.Seed(di.KeyOf[*gin.Context](), c)
		scope.Seed(di.KeyOf[RequestID](), RequestID(requestID))

		defer func() {
			var err error
			if last := c.Errors.Last(); last != nil {
				err = last.Err
			}
			if closeErr := scope.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
			obs.End(strconv.Itoa(c.Writer.Status()), err)
		}()

		c.Next()
	}
}

// RequestModule binds the values seeded by RequestScopeFilter so that
// request-scoped constructors can depend on them. Outside a request they
// resolve to di.ErrOutOfScope.
func RequestModule() di.Module {
	return di.ModuleFunc(func(b *di.Binder) error {
		scoped := di.InScope(di.RequestScoped)
		if err := b.Provide(func() (*http.Request, error) { return nil, di.ErrOutOfScope }, scoped); err != nil {
			return err
		}
		if err := b.Provide(func() (*gin.Context, error) { return nil, di.ErrOutOfScope }, scoped); err != nil {
			return err
		}
		return b.Provide(func() (RequestID, error) { return "", di.ErrOutOfScope }, scoped)
	})
}

// Scoped resolves T from the request scope of c.
func Scoped[T any](c *gin.Context) (T, error) {
	return di.ResolveIn[T](c.Request.Context())
}

package propagation

import (
	"github.com/HoneyDrunkStudios/gridkernel/operation"

	"github.com/gin-gonic/gin"
)

// HTTPMiddleware creates Gin middleware that maps the inbound request into
// a Grid context, makes it ambient for the handler chain, echoes the
// correlation id on the response, and tracks the request as one operation.
func HTTPMiddleware(p *Propagator, factory *operation.Factory) gin.HandlerFunc {
	return func(c *gin.Context) {
		gc := p.ExtractContext(HeaderCarrier(c.Request.Header))
		gc = gc.WithCancellation(c.Request.Context())

		ctx, scope := gc.BeginScope(c.Request.Context())
		defer scope.End()
		c.Request = c.Request.WithContext(ctx)

		c.Header(HeaderCorrelationID, gc.CorrelationID().String())

		name := c.FullPath()
		if name == "" {
			name = c.Request.URL.Path
		}
		op := factory.Begin(gc, c.Request.Method+" "+name)

		c.Next()

		_ = op.AddMetadata("http.status", operation.Int(int64(c.Writer.Status())))
		if len(c.Errors) > 0 {
			last := c.Errors.Last()
			_ = op.Fail(last.Error(), last)
			return
		}
		_ = op.Complete()
	}
}

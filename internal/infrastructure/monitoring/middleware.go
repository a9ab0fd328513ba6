package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection. Paths are
// labelled by route template to keep cardinality bounded.
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures a repository call.
type Timer struct {
	start    time.Time
	metrics  *Metrics
	endpoint string
}

// NewTimer starts timing the named endpoint.
func NewTimer(metrics *Metrics, endpoint string) *Timer {
	return &Timer{start: time.Now(), metrics: metrics, endpoint: endpoint}
}

// Stop records the elapsed time under status.
func (t *Timer) Stop(status string) {
	t.metrics.RecordFetch(t.endpoint, status, time.Since(t.start))
}

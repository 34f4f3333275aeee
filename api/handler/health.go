package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hassnap/einkscreen/facade"
)

// HealthResponse is the wire shape of GET /health.
type HealthResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Timestamp     time.Time      `json:"timestamp"`
	Browser       facade.Status  `json:"browser"`
}

// Health returns a handler for GET /health. Reports 200 when the
// browser facade is healthy, 503 when degraded.
func Health(fc *facade.Facade, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := fc.Status()

		wireStatus := "healthy"
		httpStatus := http.StatusOK
		if !status.Healthy {
			wireStatus = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, HealthResponse{
			Status:        wireStatus,
			UptimeSeconds: int64(time.Since(startTime).Round(time.Second).Seconds()),
			Timestamp:     time.Now(),
			Browser:       status,
		})
	}
}

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hassnap/einkscreen/config"
	"github.com/hassnap/einkscreen/facade"
)

type fakeFacadeDriver struct{}

func (fakeFacadeDriver) Destroy()                                       {}
func (fakeFacadeDriver) Probe(ctx context.Context, d time.Duration) error { return nil }
func (fakeFacadeDriver) Launch() error                                   { return nil }

func TestHealth_HealthyReturns200(t *testing.T) {
	fc := facade.New(config.FacadeConfig{MaxFailures: 3, StaleDuration: time.Hour}, fakeFacadeDriver{})
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	Health(fc, time.Now())(c)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
}

func TestHealth_UnhealthyReturns503(t *testing.T) {
	fc := facade.New(config.FacadeConfig{MaxFailures: 1, StaleDuration: time.Hour}, fakeFacadeDriver{})
	fc.RecordFailure()

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	Health(fc, time.Now())(c)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

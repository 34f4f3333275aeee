// Package api wires the HTTP surface: health, schedule CRUD, manual
// execute, static asset serving, and the screenshot catch-all, dispatched
// by exact path/method with more-specific routes registered before
// generic ones.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hassnap/einkscreen/api/handler"
	"github.com/hassnap/einkscreen/api/middleware"
	"github.com/hassnap/einkscreen/config"
	"github.com/hassnap/einkscreen/facade"
	"github.com/hassnap/einkscreen/schedule"
	"github.com/hassnap/einkscreen/scheduler"
	"github.com/hassnap/einkscreen/serializer"
)

// Router is the set of collaborators NewRouter wires into a gin.Engine.
type Router struct {
	Config     *config.Config
	Serializer *serializer.Serializer
	Facade     *facade.Facade
	Store      schedule.Store
	Scheduler  *scheduler.Scheduler
	StartTime  time.Time
	StaticDir  string
}

// NewRouter creates a configured Gin engine with all routes and
// middleware, dispatching by the documented precedence rules (more
// specific before generic; the manual-execute route before the
// generic update/delete rule).
//
// Middleware chain:
//
//	Global: Recovery -> Logger
//	Rate-limited: screenshot catch-all, manual execute
func NewRouter(deps Router) *gin.Engine {
	gin.SetMode(deps.Config.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	rateLimited := middleware.RateLimit(deps.Config.RateLimit)

	r.GET("/health", handler.Health(deps.Facade, deps.StartTime))
	r.GET("/favicon.ico", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/", landingPage(deps.StaticDir))

	r.GET("/api/schedules", handler.ListSchedules(deps.Store))
	r.POST("/api/schedules", handler.CreateSchedule(deps.Store))
	r.POST("/api/schedules/:id/send", rateLimited, handler.SendSchedule(func(c *gin.Context, id string) error {
		return deps.Scheduler.ExecuteNow(c.Request.Context(), id)
	}))
	r.PUT("/api/schedules/:id", handler.UpdateSchedule(deps.Store))
	r.DELETE("/api/schedules/:id", handler.DeleteSchedule(deps.Store))

	r.GET("/api/devices", handler.Devices())
	r.GET("/api/presets", handler.Presets())

	r.Static("/js", deps.StaticDir+"/js")
	r.Static("/css", deps.StaticDir+"/css")

	r.NoRoute(rateLimited, handler.Screenshot(deps.Serializer))

	return r
}

func landingPage(staticDir string) gin.HandlerFunc {
	path := staticDir + "/index.html"
	return func(c *gin.Context) {
		c.File(path)
	}
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hassnap/einkscreen/models"
	"github.com/hassnap/einkscreen/schedule"
)

// ListSchedules handles GET /api/schedules.
func ListSchedules(store schedule.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		schedules, err := store.List()
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, schedules)
	}
}

// CreateSchedule handles POST /api/schedules.
func CreateSchedule(store schedule.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var s schedule.Schedule
		if err := c.ShouldBindJSON(&s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule body: " + err.Error()})
			return
		}
		created, err := store.Create(&s)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

// UpdateSchedule handles PUT /api/schedules/{id}.
func UpdateSchedule(store schedule.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		existing, err := store.Get(c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if existing == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
			return
		}
		// Bind onto a copy of the stored record so fields the body omits
		// keep their current values.
		patch := *existing
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule body: " + err.Error()})
			return
		}
		updated, err := store.Update(c.Param("id"), &patch)
		if err != nil {
			writeError(c, err)
			return
		}
		if updated == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// DeleteSchedule handles DELETE /api/schedules/{id}.
func DeleteSchedule(store schedule.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := store.Delete(c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// SendSchedule handles POST /api/schedules/{id}/send, the manual-execute
// endpoint. Must be routed before the generic PUT/DELETE rule.
//
// exec is a thin adapter (usually scheduler.Scheduler.ExecuteNow) so this
// handler doesn't need to import the scheduler package directly.
func SendSchedule(exec func(c *gin.Context, id string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := exec(c, c.Param("id")); err != nil {
			if models.Is(err, models.KindNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sent": true})
	}
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hassnap/einkscreen/devices"
	"github.com/hassnap/einkscreen/presets"
)

// Devices handles GET /api/devices.
func Devices() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, devices.Catalog())
	}
}

// Presets handles GET /api/presets.
func Presets() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, presets.Catalog())
	}
}

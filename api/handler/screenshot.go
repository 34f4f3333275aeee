package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hassnap/einkscreen/models"
	"github.com/hassnap/einkscreen/params"
	"github.com/hassnap/einkscreen/serializer"
)

// Serializer is the screenshot endpoint's only collaborator.
type Serializer interface {
	Execute(ctx context.Context, req *models.ScreenshotRequest) (*serializer.Result, error)
}

// Screenshot handles any path carrying a viewport query as a dashboard
// capture request (router rule 9, the catch-all).
func Screenshot(ser Serializer) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := params.Parse(c.Request.URL.Path, c.Request.URL.Query())
		if req == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing viewport query parameter"})
			return
		}
		if err := req.Validate(); err != nil {
			writeError(c, err)
			return
		}

		result, err := ser.Execute(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}

		c.Data(http.StatusOK, result.ContentType, result.Bytes)
	}
}

func writeError(c *gin.Context, err error) {
	var appErr *models.Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus(), gin.H{"error": appErr.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edusuite/backend/internal/data"
	"github.com/edusuite/backend/internal/middleware"
)

// dataContext resolves the session's data context, loading it on first
// use. Returns false after writing the error response.
func dataContext(c *gin.Context, manager *data.Manager) (*data.Context, bool) {
	sess := middleware.SessionFrom(c)
	dc := manager.Context(sess)
	if !dc.Loaded() {
		report := dc.LoadAll(c.Request.Context())
		if report.Critical != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Data load failed", "detail": report.Critical.Error()})
			return nil, false
		}
	}
	return dc, true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusuite/backend/internal/data"
	"github.com/edusuite/backend/internal/middleware"
)

// SnapshotHandler serves the full cached dataset for a session. The
// client fetches this once after login or tenant switch and then works
// against it, re-fetching only on explicit refresh.
type SnapshotHandler struct {
	manager *data.Manager
}

func NewSnapshotHandler(manager *data.Manager) *SnapshotHandler {
	return &SnapshotHandler{manager: manager}
}

// @Summary Full data snapshot for the session
// @Tags data
// @Produce json
// @Success 200
// @Router /api/v1/data [get]
func (h *SnapshotHandler) Get(c *gin.Context) {
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	h.respond(c, dc, nil)
}

// @Summary Force a full reload from the backend
// @Tags data
// @Produce json
// @Success 200
// @Router /api/v1/data/refresh [post]
func (h *SnapshotHandler) Refresh(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	dc := h.manager.Context(sess)
	report := dc.LoadAll(c.Request.Context())
	if report.Critical != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Data load failed", "detail": report.Critical.Error()})
		return
	}
	h.respond(c, dc, report.Notices)
}

func (h *SnapshotHandler) respond(c *gin.Context, dc *data.Context, notices []string) {
	s := dc.Store()
	c.JSON(http.StatusOK, gin.H{
		"schools":       s.Schools.All(),
		"users":         s.Users.All(),
		"classes":       s.Classes.All(),
		"students":      s.Students.All(),
		"feeHeads":      s.FeeHeads.All(),
		"feeChallans":   s.FeeChallans.All(),
		"attendance":    s.Attendance.All(),
		"results":       s.Results.All(),
		"events":        s.Events.All(),
		"activityLogs":  s.ActivityLogs.All(),
		"notifications": s.Notifications.All(),
		"notices":       notices,
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusuite/backend/internal/data"
)

type BackupHandler struct {
	manager *data.Manager
}

func NewBackupHandler(manager *data.Manager) *BackupHandler {
	return &BackupHandler{manager: manager}
}

// @Summary Export the school's data as a snapshot document
// @Tags backup
// @Produce json
// @Success 200
// @Router /api/v1/backup [get]
func (h *BackupHandler) Export(c *gin.Context) {
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	snap, err := dc.BackupData(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Backup failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="edusuite-backup.json"`)
	c.JSON(http.StatusOK, snap)
}

// @Summary Replace the school's data from a snapshot document
// @Tags backup
// @Accept json
// @Success 200
// @Router /api/v1/backup/restore [post]
func (h *BackupHandler) Restore(c *gin.Context) {
	var snap data.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid snapshot document"})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	if err := dc.RestoreData(c.Request.Context(), snap); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Restore failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Data restored"})
}

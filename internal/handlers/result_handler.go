package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edusuite/backend/internal/data"
	"github.com/edusuite/backend/internal/models"
)

type ResultHandler struct {
	manager *data.Manager
}

func NewResultHandler(manager *data.Manager) *ResultHandler {
	return &ResultHandler{manager: manager}
}

type ResultEntry struct {
	StudentID  uuid.UUID `json:"studentId" binding:"required"`
	ClassID    uuid.UUID `json:"classId" binding:"required"`
	Marks      float64   `json:"marks" binding:"gte=0"`
	TotalMarks float64   `json:"totalMarks" binding:"required,gt=0"`
}

type SaveResultsRequest struct {
	Exam    string        `json:"exam" binding:"required"`
	Subject string        `json:"subject" binding:"required"`
	Entries []ResultEntry `json:"entries" binding:"required,dive"`
}

// @Summary Save marks for one exam and subject
// @Tags results
// @Accept json
// @Produce json
// @Param request body SaveResultsRequest true "Mark sheet"
// @Success 200
// @Router /api/v1/results [post]
func (h *ResultHandler) Save(c *gin.Context) {
	var req SaveResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	records := make([]models.Result, 0, len(req.Entries))
	for _, entry := range req.Entries {
		records = append(records, models.Result{
			StudentID:  entry.StudentID,
			ClassID:    entry.ClassID,
			Exam:       req.Exam,
			Subject:    req.Subject,
			Marks:      entry.Marks,
			TotalMarks: entry.TotalMarks,
		})
	}

	saved, err := dc.SaveResults(c.Request.Context(), records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save results"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": len(saved), "results": saved})
}

// @Summary List result entries for one student
// @Tags results
// @Produce json
// @Success 200
// @Router /api/v1/students/{id}/results [get]
func (h *ResultHandler) ByStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	results := make([]models.Result, 0)
	for _, result := range dc.Store().Results.All() {
		if result.StudentID == id {
			results = append(results, result)
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// @Summary Delete a result entry
// @Tags results
// @Success 200
// @Router /api/v1/results/{id} [delete]
func (h *ResultHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	if err := dc.DeleteResult(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete result"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Result deleted"})
}

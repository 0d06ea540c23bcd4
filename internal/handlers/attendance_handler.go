package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edusuite/backend/internal/data"
	"github.com/edusuite/backend/internal/models"
)

type AttendanceHandler struct {
	manager *data.Manager
}

func NewAttendanceHandler(manager *data.Manager) *AttendanceHandler {
	return &AttendanceHandler{manager: manager}
}

type AttendanceRecord struct {
	StudentID uuid.UUID `json:"studentId" binding:"required"`
	Status    string    `json:"status" binding:"required,oneof=Present Absent Leave"`
}

type SetAttendanceRequest struct {
	Date    time.Time          `json:"date" binding:"required"`
	Records []AttendanceRecord `json:"records" binding:"required,dive"`
}

// @Summary Mark attendance for a day
// @Tags attendance
// @Accept json
// @Produce json
// @Param request body SetAttendanceRequest true "Day register"
// @Success 200
// @Router /api/v1/attendance [post]
func (h *AttendanceHandler) Set(c *gin.Context) {
	var req SetAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	entries := make([]data.AttendanceEntry, 0, len(req.Records))
	for _, r := range req.Records {
		entries = append(entries, data.AttendanceEntry{StudentID: r.StudentID, Status: r.Status})
	}

	saved, err := dc.SetAttendance(c.Request.Context(), req.Date, entries)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark attendance"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": len(saved), "records": saved})
}

// @Summary Attendance records for a day
// @Tags attendance
// @Success 200
// @Router /api/v1/attendance [get]
func (h *AttendanceHandler) Day(c *gin.Context) {
	dateStr := c.Query("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	var records []models.Attendance
	for _, a := range dc.Store().Attendance.All() {
		if a.Date.Year() == date.Year() && a.Date.YearDay() == date.YearDay() {
			records = append(records, a)
		}
	}
	c.JSON(http.StatusOK, gin.H{"date": dateStr, "records": records})
}

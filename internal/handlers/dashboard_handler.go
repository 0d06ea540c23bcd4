package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edusuite/backend/internal/data"
	"github.com/edusuite/backend/internal/models"
)

type DashboardHandler struct {
	manager *data.Manager
}

func NewDashboardHandler(manager *data.Manager) *DashboardHandler {
	return &DashboardHandler{manager: manager}
}

// @Summary Dashboard aggregates for the school in focus
// @Tags dashboard
// @Success 200
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	s := dc.Store()
	now := time.Now().UTC()

	activeStudents := 0
	for _, st := range s.Students.All() {
		if st.Status == models.StudentActive {
			activeStudents++
		}
	}

	var collectedThisMonth, discountThisMonth float64
	unpaid, partial := 0, 0
	for _, ch := range s.FeeChallans.All() {
		if ch.Status == models.ChallanCancelled {
			continue
		}
		if ch.Month == int(now.Month()) && ch.Year == now.Year() {
			collectedThisMonth += ch.PaidAmount
			discountThisMonth += ch.Discount
		}
		switch ch.Status {
		case models.ChallanUnpaid:
			unpaid++
		case models.ChallanPartial:
			partial++
		}
	}

	var outstandingTotal float64
	defaulters := dc.Defaulters()
	for _, d := range defaulters {
		outstandingTotal += d.Balance
	}

	presentToday := 0
	markedToday := 0
	for _, a := range s.Attendance.All() {
		if a.Date.Year() == now.Year() && a.Date.YearDay() == now.YearDay() {
			markedToday++
			if a.Status == models.AttendancePresent {
				presentToday++
			}
		}
	}

	upcomingEvents := 0
	for _, e := range s.Events.All() {
		if !e.Date.Before(now.Truncate(24 * time.Hour)) {
			upcomingEvents++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"activeStudents":     activeStudents,
		"classes":            s.Classes.Len(),
		"collectedThisMonth": collectedThisMonth,
		"discountThisMonth":  discountThisMonth,
		"unpaidChallans":     unpaid,
		"partialChallans":    partial,
		"outstandingTotal":   outstandingTotal,
		"defaulterCount":     len(defaulters),
		"attendanceToday": gin.H{
			"marked":  markedToday,
			"present": presentToday,
		},
		"upcomingEvents": upcomingEvents,
	})
}

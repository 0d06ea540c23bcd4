package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edusuite/backend/internal/middleware"
	"github.com/edusuite/backend/internal/services"
)

type ActivityHandler struct {
	activity *services.ActivityService
}

func NewActivityHandler(activity *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// @Summary Paged activity history for the school in focus
// @Tags activity
// @Success 200
// @Router /api/v1/activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	school := sess.EffectiveSchoolID()
	if school == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No school in focus"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	logs, err := h.activity.List(*school, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch activity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": logs})
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edusuite/backend/internal/data"
	"github.com/edusuite/backend/internal/models"
)

type EventHandler struct {
	manager *data.Manager
}

func NewEventHandler(manager *data.Manager) *EventHandler {
	return &EventHandler{manager: manager}
}

type EventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" binding:"required"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
}

// @Summary Schedule an event
// @Tags events
// @Success 201
// @Router /api/v1/events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	created, err := dc.CreateEvent(c.Request.Context(), models.SchoolEvent{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary Update an event
// @Tags events
// @Success 200
// @Router /api/v1/events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	existing, found := dc.Store().Events.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	existing.Title = req.Title
	existing.Description = req.Description
	existing.Date = req.Date
	existing.StartTime = req.StartTime
	existing.EndTime = req.EndTime

	updated, err := dc.UpdateEvent(c.Request.Context(), existing)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary Delete an event
// @Tags events
// @Success 200
// @Router /api/v1/events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	if err := dc.DeleteEvent(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}

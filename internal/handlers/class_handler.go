package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edusuite/backend/internal/data"
	"github.com/edusuite/backend/internal/models"
	"github.com/edusuite/backend/internal/services"
)

type ClassHandler struct {
	manager *data.Manager
	setup   *services.SchoolSetupService
}

func NewClassHandler(manager *data.Manager, setup *services.SchoolSetupService) *ClassHandler {
	return &ClassHandler{manager: manager, setup: setup}
}

type ClassRequest struct {
	Name      string     `json:"name" binding:"required"`
	Section   string     `json:"section"`
	TeacherID *uuid.UUID `json:"teacherId"`
	SortOrder int        `json:"sortOrder"`
}

// @Summary Create a class
// @Tags classes
// @Success 201
// @Router /api/v1/classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	created, err := dc.CreateClass(c.Request.Context(), models.Class{
		Name:      req.Name,
		Section:   req.Section,
		TeacherID: req.TeacherID,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create class"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary Update a class
// @Tags classes
// @Success 200
// @Router /api/v1/classes/{id} [put]
func (h *ClassHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	existing, found := dc.Store().Classes.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
		return
	}
	existing.Name = req.Name
	existing.Section = req.Section
	existing.TeacherID = req.TeacherID
	existing.SortOrder = req.SortOrder

	updated, err := dc.UpdateClass(c.Request.Context(), existing)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update class"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary Delete a class
// @Tags classes
// @Success 200
// @Router /api/v1/classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	if err := dc.DeleteClass(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete class"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Class deleted"})
}

type BulkCreateClassesRequest struct {
	Classes []ClassRequest `json:"classes" binding:"required,dive"`
}

// @Summary Import classes in bulk
// @Tags classes
// @Success 201
// @Router /api/v1/classes/bulk [post]
func (h *ClassHandler) BulkCreate(c *gin.Context) {
	var req BulkCreateClassesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	classes := make([]models.Class, 0, len(req.Classes))
	for _, entry := range req.Classes {
		classes = append(classes, models.Class{
			Name:      entry.Name,
			Section:   entry.Section,
			TeacherID: entry.TeacherID,
			SortOrder: entry.SortOrder,
		})
	}
	created, err := dc.BulkCreateClasses(c.Request.Context(), classes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import classes"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": len(created), "classes": created})
}

type AssignTeacherRequest struct {
	TeacherID uuid.UUID `json:"teacherId" binding:"required"`
}

// @Summary Assign a teacher to a class
// @Tags classes
// @Success 200
// @Router /api/v1/classes/{id}/teacher [put]
func (h *ClassHandler) AssignTeacher(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AssignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.setup.AssignTeacherToClass(req.TeacherID, id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Refresh the cached class so the next snapshot reflects it.
	dc, ok := dataContext(c, h.manager)
	if ok {
		if existing, found := dc.Store().Classes.Get(id); found {
			existing.TeacherID = &req.TeacherID
			dc.Store().Classes.Upsert(existing)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Teacher assigned"})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusuite/backend/internal/data"
	"github.com/edusuite/backend/internal/middleware"
	"github.com/edusuite/backend/internal/models"
	"github.com/edusuite/backend/internal/services"
)

type SchoolHandler struct {
	manager *data.Manager
	setup   *services.SchoolSetupService
}

func NewSchoolHandler(manager *data.Manager, setup *services.SchoolSetupService) *SchoolHandler {
	return &SchoolHandler{manager: manager, setup: setup}
}

type CreateSchoolRequest struct {
	Name          string `json:"name" binding:"required"`
	Address       string `json:"address"`
	LogoURL       string `json:"logoUrl"`
	AdminEmail    string `json:"adminEmail" binding:"omitempty,email"`
	AdminPassword string `json:"adminPassword" binding:"required,min=8"`
}

// @Summary Create a school with its default setup
// @Tags schools
// @Accept json
// @Produce json
// @Param request body CreateSchoolRequest true "New school"
// @Success 201
// @Router /api/v1/schools [post]
func (h *SchoolHandler) Create(c *gin.Context) {
	var req CreateSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	school := &models.School{
		Name:    req.Name,
		Address: req.Address,
		LogoURL: req.LogoURL,
	}
	admin, err := h.setup.SetupSchool(school, req.AdminEmail, req.AdminPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create school"})
		return
	}

	// The owner's cached view no longer matches the backend.
	sess := middleware.SessionFrom(c)
	h.manager.Drop(sess.User.ID)

	c.JSON(http.StatusCreated, gin.H{
		"school": school,
		"admin": gin.H{
			"id":    admin.ID,
			"email": admin.Email,
			"name":  admin.Name,
		},
	})
}

type UpdateSchoolRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	LogoURL string `json:"logoUrl"`
}

// @Summary Update a school
// @Tags schools
// @Accept json
// @Produce json
// @Success 200
// @Router /api/v1/schools/{id} [put]
func (h *SchoolHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	updated, err := dc.UpdateSchool(c.Request.Context(), models.School{
		BaseModel: models.BaseModel{ID: id},
		Name:      req.Name,
		Address:   req.Address,
		LogoURL:   req.LogoURL,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update school"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary Delete a school and all of its data
// @Tags schools
// @Success 200
// @Router /api/v1/schools/{id} [delete]
func (h *SchoolHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	if err := dc.DeleteSchool(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete school"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "School deleted"})
}

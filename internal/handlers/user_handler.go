package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/edusuite/backend/internal/data"
	"github.com/edusuite/backend/internal/middleware"
	"github.com/edusuite/backend/internal/models"
	"github.com/edusuite/backend/internal/services"
)

type UserHandler struct {
	manager     *data.Manager
	authService *services.AuthService
}

func NewUserHandler(manager *data.Manager, authService *services.AuthService) *UserHandler {
	return &UserHandler{manager: manager, authService: authService}
}

type CreateUserRequest struct {
	Email           string                   `json:"email" binding:"required,email"`
	Password        string                   `json:"password" binding:"required,min=8"`
	Name            string                   `json:"name" binding:"required"`
	Role            string                   `json:"role" binding:"required,oneof=admin accountant teacher parent student"`
	SchoolID        *uuid.UUID               `json:"schoolId"`
	ChildStudentIDs []string                 `json:"childStudentIds"`
	Prefs           models.NotificationPrefs `json:"notificationPreferences"`
}

// @Summary Create a user account
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "New user"
// @Success 201
// @Router /api/v1/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	schoolID := req.SchoolID
	if schoolID == nil {
		schoolID = middleware.SessionFrom(c).EffectiveSchoolID()
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	created, err := dc.CreateUser(c.Request.Context(), models.User{
		SchoolID:          schoolID,
		Email:             req.Email,
		Name:              req.Name,
		Role:              req.Role,
		Status:            models.UserActive,
		ChildStudentIDs:   pq.StringArray(req.ChildStudentIDs),
		NotificationPrefs: req.Prefs,
	}, hash)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

type UpdateUserRequest struct {
	Name             string     `json:"name" binding:"required"`
	Role             string     `json:"role" binding:"required"`
	SchoolID         *uuid.UUID `json:"schoolId"`
	Status           string     `json:"status"`
	ChildStudentIDs  []string   `json:"childStudentIds"`
	DisabledNavLinks []string   `json:"disabledNavLinks"`
}

// @Summary Update a user account
// @Tags users
// @Success 200
// @Router /api/v1/users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	existing, found := dc.Store().Users.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	existing.Name = req.Name
	existing.Role = req.Role
	if req.SchoolID != nil {
		existing.SchoolID = req.SchoolID
	}
	if req.Status != "" {
		existing.Status = req.Status
	}
	existing.ChildStudentIDs = pq.StringArray(req.ChildStudentIDs)
	existing.DisabledNavLinks = pq.StringArray(req.DisabledNavLinks)

	updated, err := dc.UpdateUser(c.Request.Context(), existing)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary Approve a pending account
// @Tags users
// @Success 200
// @Router /api/v1/users/{id}/approve [post]
func (h *UserHandler) Approve(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	approved, err := dc.ApproveUser(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve user"})
		return
	}
	c.JSON(http.StatusOK, approved)
}

// @Summary Delete a user account
// @Tags users
// @Success 200
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	if err := dc.DeleteUser(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// @Summary Update own notification preferences
// @Tags users
// @Success 200
// @Router /api/v1/users/me/preferences [put]
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	var prefs models.NotificationPrefs
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	sess := middleware.SessionFrom(c)
	updated, err := dc.UpdateNotificationPrefs(c.Request.Context(), sess.User.ID, prefs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

type BulkUserEntry struct {
	ID              *uuid.UUID `json:"id"`
	Email           string     `json:"email" binding:"required,email"`
	Name            string     `json:"name" binding:"required"`
	Role            string     `json:"role" binding:"required"`
	ChildStudentIDs []string   `json:"childStudentIds"`
}

type BulkCreateUsersRequest struct {
	Users           []BulkUserEntry `json:"users" binding:"required,dive"`
	DefaultPassword string          `json:"defaultPassword" binding:"required,min=8"`
}

// @Summary Import user accounts in bulk
// @Tags users
// @Success 201
// @Router /api/v1/users/bulk [post]
func (h *UserHandler) BulkCreate(c *gin.Context) {
	var req BulkCreateUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	hash, err := h.authService.HashPassword(req.DefaultPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	schoolID := middleware.SessionFrom(c).EffectiveSchoolID()
	users := make([]models.User, 0, len(req.Users))
	for _, entry := range req.Users {
		user := models.User{
			SchoolID:        schoolID,
			Email:           entry.Email,
			Name:            entry.Name,
			Role:            entry.Role,
			Status:          models.UserActive,
			ChildStudentIDs: pq.StringArray(entry.ChildStudentIDs),
		}
		if entry.ID != nil {
			user.ID = *entry.ID
		}
		users = append(users, user)
	}

	created, err := dc.BulkCreateUsers(c.Request.Context(), users, hash)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import users"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": len(created), "users": created})
}

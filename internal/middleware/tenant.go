package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edusuite/backend/internal/data"
	"github.com/edusuite/backend/internal/models"
)

// SessionMiddleware loads the acting user and resolves the tenant in
// focus. Owners pick a school with the X-Active-School header and may
// run with none in focus; everyone else is pinned to their own school
// and refused without one.
func SessionMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
			c.Abort()
			return
		}
		if user.Status != models.UserActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is not active"})
			c.Abort()
			return
		}

		sess := data.Session{User: user}
		if user.Role == models.RoleOwner {
			if header := c.GetHeader("X-Active-School"); header != "" {
				schoolID, err := uuid.Parse(header)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid X-Active-School header"})
					c.Abort()
					return
				}
				sess.ActiveSchoolID = &schoolID
			}
		} else if user.SchoolID == nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied: No school assigned"})
			c.Abort()
			return
		}

		c.Set("session", sess)
		c.Next()
	}
}

// SessionFrom pulls the resolved session out of the request context.
func SessionFrom(c *gin.Context) data.Session {
	v, _ := c.Get("session")
	sess, _ := v.(data.Session)
	return sess
}

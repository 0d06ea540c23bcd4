package data

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/edusuite/backend/internal/models"
	"github.com/edusuite/backend/internal/rowstore"
)

// prefKeyForCategory maps a notification category to the preference key
// that can switch it off. Categories without a key are always delivered.
func prefKeyForCategory(category string) string {
	switch category {
	case models.NotifyFee:
		return models.PrefFeeDeadlines
	case models.NotifyResult:
		return models.PrefExamResults
	default:
		return ""
	}
}

// notify inserts a notification row for every recipient who has not
// opted out of the category. The message template carries a single
// {name} placeholder replaced with subjectName. Fan-out is
// fire-and-forget: its failure is logged and never propagates into the
// mutation that triggered it.
func (c *Context) notify(ctx context.Context, recipients []models.User, template, subjectName, category string, relatedID *uuid.UUID) {
	message := strings.ReplaceAll(template, "{name}", subjectName)
	prefKey := prefKeyForCategory(category)

	var rows []rowstore.Row
	for _, user := range recipients {
		if prefKey != "" && !user.NotificationPrefs.InAppEnabled(prefKey) {
			continue
		}
		row, err := insertRow(models.Notification{
			UserID:    user.ID,
			Message:   message,
			Type:      category,
			RelatedID: relatedID,
		})
		if err != nil {
			log.Printf("notification encode failed: %v", err)
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return
	}

	echoed, err := c.client.Insert(ctx, rowstore.TableNotifications, rows)
	if err != nil {
		log.Printf("notification fan-out failed: %v", err)
		return
	}
	stored, err := fromRows[models.Notification](echoed)
	if err != nil {
		log.Printf("notification decode failed: %v", err)
		return
	}
	for _, n := range stored {
		// Only the acting user's own feed is cached in this context.
		if n.UserID == c.session.User.ID {
			c.store.Notifications.Upsert(n)
		}
	}
}

// studentAudience resolves who should hear about something concerning a
// student: the student's own login, if linked, plus every parent whose
// child list includes the student. Weak references that point nowhere
// simply resolve to no recipient.
func (c *Context) studentAudience(student models.Student) []models.User {
	var audience []models.User
	seen := make(map[uuid.UUID]bool)
	for _, user := range c.store.Users.All() {
		if student.UserID != nil && user.ID == *student.UserID && !seen[user.ID] {
			audience = append(audience, user)
			seen[user.ID] = true
			continue
		}
		if user.Role == models.RoleParent {
			for _, childID := range user.ChildStudentIDs {
				if childID == student.ID.String() && !seen[user.ID] {
					audience = append(audience, user)
					seen[user.ID] = true
					break
				}
			}
		}
	}
	return audience
}

// schoolAudience is every user of the tenant in focus except the actor.
func (c *Context) schoolAudience() []models.User {
	var audience []models.User
	for _, user := range c.store.Users.All() {
		if user.ID == c.session.User.ID {
			continue
		}
		audience = append(audience, user)
	}
	return audience
}

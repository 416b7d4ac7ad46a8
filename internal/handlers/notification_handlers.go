package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/Dreamsoft-CPU/rawmats-api/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Notifications ---
//

// AddNotification inserts a notification inside the caller's transaction so
// the notification only exists if the event that caused it committed.
// An empty link is stored as NULL.
func (h *Handlers) AddNotification(tx *sql.Tx, userID int64, message string, link string) error {
	var nullableLink sql.NullString
	if link != "" {
		nullableLink = sql.NullString{String: link, Valid: true}
	}
	_, err := tx.Exec("INSERT INTO notifications (user_id, message, link, is_read, created_at) VALUES (?, ?, ?, FALSE, ?)",
		userID, message, nullableLink, time.Now())
	return err
}

// GetMyNotifications is the handler for GET /v1/notifications.
// Unread first, then newest first, capped at 50.
func (h *Handlers) GetMyNotifications(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	rows, err := h.DB.Query(`
		SELECT id, user_id, message, link, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY is_read ASC, created_at DESC
		LIMIT 50`, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database query failed"})
		return
	}
	defer rows.Close()

	notifications := []*models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to scan notification row"})
			return
		}
		notifications = append(notifications, &n)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Error iterating notification rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkNotificationAsRead is the handler for PATCH /v1/notifications/:id/read.
func (h *Handlers) MarkNotificationAsRead(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	notificationIDStr := c.Param("id")

	result, err := h.DB.Exec("UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?",
		notificationIDStr, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database update failed"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// PurgeOldNotifications deletes read notifications older than 30 days.
// Called from the background worker in main, not from a route.
func (h *Handlers) PurgeOldNotifications() (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -30)
	result, err := h.DB.Exec("DELETE FROM notifications WHERE is_read = TRUE AND created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

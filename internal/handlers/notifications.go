package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	mwauth "github.com/cinevisor/cinevisor-api/internal/middleware/auth"
	"github.com/cinevisor/cinevisor-api/internal/models"
)

type NotificationHandler struct {
	DB *gorm.DB
}

func (h *NotificationHandler) List(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var notifications []models.Notification
	err := h.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(50).
		Find(&notifications).Error
	if err != nil {
		return httpError(err)
	}

	items := make([]echo.Map, 0, len(notifications))
	for i := range notifications {
		n := &notifications[i]
		items = append(items, echo.Map{
			"id":           n.ID,
			"type":         n.Type,
			"message":      n.Message,
			"is_read":      n.IsRead,
			"reference_id": n.ReferenceID,
			"created_at":   n.CreatedAt,
		})
	}
	return respondData(c, http.StatusOK, echo.Map{"notifications": items})
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var count int64
	err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Count(&count).Error
	if err != nil {
		return httpError(err)
	}
	return respondData(c, http.StatusOK, echo.Map{"count": count})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	result := h.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", c.Param("id"), user.ID).
		Update("is_read", true)
	if result.Error != nil {
		return httpError(result.Error)
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "notification not found")
	}
	return respondMessage(c, http.StatusOK, "Marked as read")
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Update("is_read", true).Error
	if err != nil {
		return httpError(err)
	}
	return respondMessage(c, http.StatusOK, "All notifications marked as read")
}

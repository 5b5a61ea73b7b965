package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/cinevisor/cinevisor-api/internal/events"
	mwauth "github.com/cinevisor/cinevisor-api/internal/middleware/auth"
	"github.com/cinevisor/cinevisor-api/internal/models"
)

type CommentHandler struct {
	DB       *gorm.DB
	Producer events.Publisher
}

func (h *CommentHandler) publish(c echo.Context, key string, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.Publish(ctx, events.TopicVideoEvents, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *CommentHandler) List(c echo.Context) error {
	var comments []models.Comment
	err := h.DB.Where("video_id = ? AND is_deleted = ?", c.Param("id"), false).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return httpError(err)
	}

	userIDs := make([]string, 0, len(comments))
	for i := range comments {
		userIDs = append(userIDs, comments[i].UserID)
	}
	names := usernamesByID(h.DB, userIDs)

	items := make([]echo.Map, 0, len(comments))
	for i := range comments {
		cm := &comments[i]
		username := names[cm.UserID]
		if username == "" {
			username = "unknown"
		}
		items = append(items, echo.Map{
			"id":          cm.ID,
			"video_id":    cm.VideoID,
			"user_id":     cm.UserID,
			"username":    username,
			"content":     cm.Content,
			"likes_count": cm.LikesCount,
			"created_at":  cm.CreatedAt,
		})
	}
	return respondData(c, http.StatusOK, echo.Map{"comments": items})
}

func (h *CommentHandler) Create(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	var video models.Video
	if err := h.DB.Where("id = ?", c.Param("id")).First(&video).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "video not found")
	}

	comment := models.Comment{
		VideoID: video.ID,
		UserID:  user.ID,
		Content: req.Content,
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Video{}).
			Where("id = ?", video.ID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error
	})
	if err != nil {
		return httpError(err)
	}

	if video.OwnerID != user.ID {
		notif := models.Notification{
			UserID:      video.OwnerID,
			Type:        "comment",
			Message:     fmt.Sprintf("%s commented on your video %q", user.Username, video.Title),
			ReferenceID: video.ID,
		}
		if err := h.DB.Create(&notif).Error; err != nil {
			c.Logger().Errorf("notification error: %v", err)
		}
	}

	h.publish(c, video.ID, map[string]any{
		"type":       "comment_created",
		"video_id":   video.ID,
		"comment_id": comment.ID,
		"user_id":    user.ID,
	})

	return respondData(c, http.StatusOK, echo.Map{
		"id":         comment.ID,
		"content":    comment.Content,
		"username":   user.Username,
		"created_at": comment.CreatedAt,
	})
}

func (h *CommentHandler) Delete(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var comment models.Comment
	if err := h.DB.Where("id = ?", c.Param("id")).First(&comment).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "comment not found")
	}
	if comment.UserID != user.ID && user.Role != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "not authorized")
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&comment).Update("is_deleted", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.Video{}).
			Where("id = ? AND comments_count > 0", comment.VideoID).
			UpdateColumn("comments_count", gorm.Expr("comments_count - 1")).Error
	})
	if err != nil {
		return httpError(err)
	}

	return respondMessage(c, http.StatusOK, "Comment deleted")
}

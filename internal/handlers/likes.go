package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/cinevisor/cinevisor-api/internal/events"
	mwauth "github.com/cinevisor/cinevisor-api/internal/middleware/auth"
	"github.com/cinevisor/cinevisor-api/internal/models"
)

type LikeHandler struct {
	DB       *gorm.DB
	Producer events.Publisher
}

func (h *LikeHandler) Like(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var video models.Video
	if err := h.DB.Where("id = ?", c.Param("id")).First(&video).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "video not found")
	}

	like := models.VideoLike{VideoID: video.ID, UserID: user.ID}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		// The unique (video_id, user_id) index decides the race on
		// concurrent duplicate likes.
		if err := tx.Create(&like).Error; err != nil {
			return err
		}
		return tx.Model(&models.Video{}).
			Where("id = ?", video.ID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusBadRequest, "already liked")
		}
		return httpError(err)
	}

	if video.OwnerID != user.ID {
		notif := models.Notification{
			UserID:      video.OwnerID,
			Type:        "like",
			Message:     fmt.Sprintf("%s liked your video %q", user.Username, video.Title),
			ReferenceID: video.ID,
		}
		if err := h.DB.Create(&notif).Error; err != nil {
			c.Logger().Errorf("notification error: %v", err)
		}
	}

	if h.Producer != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		event := map[string]any{
			"type":     "video_liked",
			"video_id": video.ID,
			"user_id":  user.ID,
		}
		if err := h.Producer.Publish(ctx, events.TopicVideoEvents, video.ID, event); err != nil {
			c.Logger().Errorf("kafka publish error: %v", err)
		}
	}

	return respondMessage(c, http.StatusOK, "Video liked")
}

func (h *LikeHandler) Unlike(c echo.Context) error {
	user := mwauth.CurrentUser(c)
	videoID := c.Param("id")

	var like models.VideoLike
	err := h.DB.Where("video_id = ? AND user_id = ?", videoID, user.ID).First(&like).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "not liked yet")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&like).Error; err != nil {
			return err
		}
		return tx.Model(&models.Video{}).
			Where("id = ? AND likes_count > 0", videoID).
			UpdateColumn("likes_count", gorm.Expr("likes_count - 1")).Error
	})
	if err != nil {
		return httpError(err)
	}

	return respondMessage(c, http.StatusOK, "Like removed")
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	mwauth "github.com/cinevisor/cinevisor-api/internal/middleware/auth"
	"github.com/cinevisor/cinevisor-api/internal/models"
)

type PlaylistHandler struct {
	DB *gorm.DB
}

func (h *PlaylistHandler) List(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var playlists []models.Playlist
	err := h.DB.Where("user_id = ?", user.ID).
		Order("updated_at DESC").
		Find(&playlists).Error
	if err != nil {
		return httpError(err)
	}

	items := make([]echo.Map, 0, len(playlists))
	for i := range playlists {
		p := &playlists[i]
		var videoCount int64
		h.DB.Model(&models.PlaylistVideo{}).Where("playlist_id = ?", p.ID).Count(&videoCount)
		items = append(items, echo.Map{
			"id":          p.ID,
			"title":       p.Title,
			"description": p.Description,
			"is_public":   p.IsPublic,
			"video_count": videoCount,
			"created_at":  p.CreatedAt,
		})
	}
	return respondData(c, http.StatusOK, echo.Map{"playlists": items})
}

func (h *PlaylistHandler) Create(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		IsPublic    *bool  `json:"is_public"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	playlist := models.Playlist{
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		IsPublic:    isPublic,
	}
	if err := h.DB.Create(&playlist).Error; err != nil {
		return httpError(err)
	}

	return respondData(c, http.StatusOK, echo.Map{
		"id":    playlist.ID,
		"title": playlist.Title,
	})
}

func (h *PlaylistHandler) AddVideo(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var req struct {
		VideoID string `json:"video_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var playlist models.Playlist
	err := h.DB.Where("id = ? AND user_id = ?", c.Param("id"), user.ID).
		First(&playlist).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "playlist not found")
	}

	var video models.Video
	if err := h.DB.Where("id = ?", req.VideoID).First(&video).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "video not found")
	}

	var position int64
	h.DB.Model(&models.PlaylistVideo{}).Where("playlist_id = ?", playlist.ID).Count(&position)

	pv := models.PlaylistVideo{
		PlaylistID: playlist.ID,
		VideoID:    video.ID,
		Position:   int(position),
	}
	if err := h.DB.Create(&pv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusBadRequest, "video already in playlist")
		}
		return httpError(err)
	}

	return respondMessage(c, http.StatusOK, "Video added to playlist")
}

func (h *PlaylistHandler) RemoveVideo(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var playlist models.Playlist
	err := h.DB.Where("id = ? AND user_id = ?", c.Param("id"), user.ID).
		First(&playlist).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "playlist not found")
	}

	var pv models.PlaylistVideo
	err = h.DB.Where("playlist_id = ? AND video_id = ?", playlist.ID, c.Param("videoID")).
		First(&pv).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "video not in playlist")
	}

	if err := h.DB.Delete(&pv).Error; err != nil {
		return httpError(err)
	}
	return respondMessage(c, http.StatusOK, "Video removed from playlist")
}

func (h *PlaylistHandler) Delete(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var playlist models.Playlist
	err := h.DB.Where("id = ? AND user_id = ?", c.Param("id"), user.ID).
		First(&playlist).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "playlist not found")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", playlist.ID).
			Delete(&models.PlaylistVideo{}).Error; err != nil {
			return err
		}
		return tx.Delete(&playlist).Error
	})
	if err != nil {
		return httpError(err)
	}
	return respondMessage(c, http.StatusOK, "Playlist deleted")
}

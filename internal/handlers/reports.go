package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	mwauth "github.com/cinevisor/cinevisor-api/internal/middleware/auth"
	"github.com/cinevisor/cinevisor-api/internal/models"
)

type ReportHandler struct {
	DB *gorm.DB
}

func (h *ReportHandler) Create(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var req struct {
		Reason  string `json:"reason"`
		Details string `json:"details"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Reason == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reason is required")
	}

	var video models.Video
	if err := h.DB.Where("id = ?", c.Param("id")).First(&video).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "video not found")
	}

	var open int64
	h.DB.Model(&models.Report{}).
		Where("video_id = ? AND user_id = ? AND status = ?", video.ID, user.ID, "open").
		Count(&open)
	if open > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "you already reported this video")
	}

	report := models.Report{
		VideoID: video.ID,
		UserID:  user.ID,
		Reason:  req.Reason,
		Details: req.Details,
	}
	if err := h.DB.Create(&report).Error; err != nil {
		return httpError(err)
	}

	return respondMessage(c, http.StatusOK, "Report submitted")
}

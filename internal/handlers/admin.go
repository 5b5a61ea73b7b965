package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/cinevisor/cinevisor-api/internal/events"
	"github.com/cinevisor/cinevisor-api/internal/models"
	"github.com/cinevisor/cinevisor-api/internal/service/search"
)

// AdminHandler serves the moderation surface; routes are gated by the
// moderator role middleware.
type AdminHandler struct {
	DB       *gorm.DB
	Producer events.Publisher
	ES       *elasticsearch.Client
	ESIndex  string
}

func (h *AdminHandler) publish(c echo.Context, key string, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.Publish(ctx, events.TopicVideoEvents, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *AdminHandler) Pending(c echo.Context) error {
	var videos []models.Video
	err := h.DB.Where("status = ?", models.VideoPending).
		Order("created_at DESC").
		Find(&videos).Error
	if err != nil {
		return httpError(err)
	}

	ownerIDs := make([]string, 0, len(videos))
	for i := range videos {
		ownerIDs = append(ownerIDs, videos[i].OwnerID)
	}
	owners := usernamesByID(h.DB, ownerIDs)

	items := make([]echo.Map, 0, len(videos))
	for i := range videos {
		v := &videos[i]
		username := owners[v.OwnerID]
		if username == "" {
			username = "unknown"
		}
		items = append(items, echo.Map{
			"id":             v.ID,
			"title":          v.Title,
			"type":           v.Type,
			"owner_id":       v.OwnerID,
			"owner_username": username,
			"created_at":     v.CreatedAt,
		})
	}
	return respondData(c, http.StatusOK, echo.Map{"videos": items})
}

func (h *AdminHandler) Approve(c echo.Context) error {
	var video models.Video
	if err := h.DB.Where("id = ?", c.Param("id")).First(&video).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "video not found")
	}

	if err := h.DB.Model(&video).Update("status", models.VideoApproved).Error; err != nil {
		return httpError(err)
	}
	video.Status = models.VideoApproved

	notif := models.Notification{
		UserID:      video.OwnerID,
		Type:        "video_approved",
		Message:     fmt.Sprintf("Your video %q has been approved!", video.Title),
		ReferenceID: video.ID,
	}
	if err := h.DB.Create(&notif).Error; err != nil {
		c.Logger().Errorf("notification error: %v", err)
	}

	if h.ES != nil {
		if err := search.Index(c.Request().Context(), h.ES, h.ESIndex, &video); err != nil {
			c.Logger().Errorf("search index error: %v", err)
		}
	}
	h.publish(c, video.ID, map[string]any{
		"type":     "video_approved",
		"video_id": video.ID,
		"owner_id": video.OwnerID,
	})

	return respondMessage(c, http.StatusOK, "Video approved")
}

func (h *AdminHandler) Reject(c echo.Context) error {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.Bind(&req)
	if req.Reason == "" {
		req.Reason = "No reason specified"
	}

	var video models.Video
	if err := h.DB.Where("id = ?", c.Param("id")).First(&video).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "video not found")
	}

	if err := h.DB.Model(&video).Update("status", models.VideoRejected).Error; err != nil {
		return httpError(err)
	}

	notif := models.Notification{
		UserID:      video.OwnerID,
		Type:        "video_rejected",
		Message:     fmt.Sprintf("Your video %q was rejected. Reason: %s", video.Title, req.Reason),
		ReferenceID: video.ID,
	}
	if err := h.DB.Create(&notif).Error; err != nil {
		c.Logger().Errorf("notification error: %v", err)
	}

	if h.ES != nil {
		if err := search.Delete(c.Request().Context(), h.ES, h.ESIndex, video.ID); err != nil {
			c.Logger().Errorf("search deindex error: %v", err)
		}
	}
	h.publish(c, video.ID, map[string]any{
		"type":     "video_rejected",
		"video_id": video.ID,
		"owner_id": video.OwnerID,
		"reason":   req.Reason,
	})

	return respondMessage(c, http.StatusOK, "Video rejected")
}

func (h *AdminHandler) Reports(c echo.Context) error {
	var reports []models.Report
	err := h.DB.Where("status = ?", "open").
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return httpError(err)
	}

	items := make([]echo.Map, 0, len(reports))
	for i := range reports {
		r := &reports[i]
		items = append(items, echo.Map{
			"id":         r.ID,
			"video_id":   r.VideoID,
			"user_id":    r.UserID,
			"reason":     r.Reason,
			"details":    r.Details,
			"status":     r.Status,
			"created_at": r.CreatedAt,
		})
	}
	return respondData(c, http.StatusOK, echo.Map{"reports": items})
}

func (h *AdminHandler) ResolveReport(c echo.Context) error {
	result := h.DB.Model(&models.Report{}).
		Where("id = ?", c.Param("id")).
		Update("status", "resolved")
	if result.Error != nil {
		return httpError(result.Error)
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	return respondMessage(c, http.StatusOK, "Report resolved")
}

package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/cinevisor/cinevisor-api/internal/events"
	mwauth "github.com/cinevisor/cinevisor-api/internal/middleware/auth"
	"github.com/cinevisor/cinevisor-api/internal/models"
	"github.com/cinevisor/cinevisor-api/internal/service/search"
	"github.com/cinevisor/cinevisor-api/internal/storage"
	"github.com/cinevisor/cinevisor-api/internal/util"
)

type VideoHandler struct {
	DB            *gorm.DB
	Producer      events.Publisher
	Store         storage.ObjectStore
	ES            *elasticsearch.Client
	ESIndex       string
	UploadDir     string
	MaxUploadSize int64
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *VideoHandler) publish(c echo.Context, key string, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.Publish(ctx, events.TopicVideoEvents, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

// usernamesByID batch-loads usernames so list endpoints avoid a query per row.
func usernamesByID(db *gorm.DB, ids []string) map[string]string {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out
	}
	var users []models.User
	if err := db.Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return out
	}
	for _, u := range users {
		out[u.ID] = u.Username
	}
	return out
}

func videoSummary(v *models.Video, owner string) echo.Map {
	if owner == "" {
		owner = "unknown"
	}
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	return echo.Map{
		"id":             v.ID,
		"title":          v.Title,
		"description":    v.Description,
		"type":           v.Type,
		"tags":           tags,
		"thumbnail_url":  v.ThumbnailURL,
		"views":          v.Views,
		"likes_count":    v.LikesCount,
		"comments_count": v.CommentsCount,
		"owner_id":       v.OwnerID,
		"owner_username": owner,
		"created_at":     v.CreatedAt,
		"allow_download": v.AllowDownload,
	}
}

func (h *VideoHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, limit)

	q := h.DB.Model(&models.Video{}).Where("status = ?", models.VideoApproved)

	if t := c.QueryParam("type"); t == "ai" || t == "human" {
		q = q.Where("type = ?", t)
	}
	if owner := c.QueryParam("owner"); owner != "" {
		q = q.Where("owner_id = ?", owner)
	}
	if search := c.QueryParam("q"); search != "" {
		q = q.Where("title LIKE ?", "%"+search+"%")
	}

	switch c.QueryParam("sort") {
	case "popular":
		q = q.Order("views DESC")
	case "likes":
		q = q.Order("likes_count DESC")
	default:
		q = q.Order("created_at DESC")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return httpError(err)
	}
	var videos []models.Video
	if err := q.Offset(offset).Limit(limit).Find(&videos).Error; err != nil {
		return httpError(err)
	}

	ownerIDs := make([]string, 0, len(videos))
	for i := range videos {
		ownerIDs = append(ownerIDs, videos[i].OwnerID)
	}
	owners := usernamesByID(h.DB, ownerIDs)

	items := make([]echo.Map, 0, len(videos))
	for i := range videos {
		items = append(items, videoSummary(&videos[i], owners[videos[i].OwnerID]))
	}

	return respondData(c, http.StatusOK, echo.Map{
		"videos": items,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

func (h *VideoHandler) Get(c echo.Context) error {
	var video models.Video
	if err := h.DB.Where("id = ?", c.Param("id")).First(&video).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "video not found")
	}

	// Counted per fetch, lost views under failure are acceptable.
	h.DB.Model(&video).UpdateColumn("views", gorm.Expr("views + 1"))
	video.Views++

	isLiked := false
	if user := mwauth.CurrentUser(c); user != nil {
		var count int64
		h.DB.Model(&models.VideoLike{}).
			Where("video_id = ? AND user_id = ?", video.ID, user.ID).
			Count(&count)
		isLiked = count > 0
	}

	owners := usernamesByID(h.DB, []string{video.OwnerID})

	data := videoSummary(&video, owners[video.OwnerID])
	data["s3_key"] = video.S3Key
	data["duration_seconds"] = video.DurationSeconds
	data["size_bytes"] = video.SizeBytes
	data["status"] = video.Status
	data["ai_model"] = video.AIModel
	data["ai_prompt"] = video.AIPrompt
	data["is_liked"] = isLiked

	return respondData(c, http.StatusOK, data)
}

// InitUpload creates a pending video row and, when object storage is
// configured, returns a presigned PUT URL for the client to upload to.
func (h *VideoHandler) InitUpload(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var req struct {
		Title         string   `json:"title"`
		Description   string   `json:"description"`
		Tags          []string `json:"tags"`
		Type          string   `json:"type"`
		AllowDownload bool     `json:"allow_download"`
		AIModel       string   `json:"ai_model"`
		AIPrompt      string   `json:"ai_prompt"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if req.Type == "" {
		req.Type = "ai"
	}

	videoID := uuid.NewString()
	s3Key := fmt.Sprintf("videos/%s/%s.mp4", user.ID, videoID)

	video := models.Video{
		ID:            videoID,
		OwnerID:       user.ID,
		Title:         req.Title,
		Description:   req.Description,
		Tags:          req.Tags,
		Type:          req.Type,
		AllowDownload: req.AllowDownload,
		AIModel:       req.AIModel,
		AIPrompt:      req.AIPrompt,
		S3Key:         s3Key,
		Status:        models.VideoPending,
	}
	if err := h.DB.Create(&video).Error; err != nil {
		return httpError(err)
	}

	var presignedURL string
	if h.Store != nil {
		url, err := h.Store.PresignUpload(c.Request().Context(), s3Key, "video/mp4")
		if err != nil {
			c.Logger().Errorf("presign upload error: %v", err)
		} else {
			presignedURL = url
		}
	}

	return respondData(c, http.StatusOK, echo.Map{
		"uploadId":     videoID,
		"presignedUrl": presignedURL,
		"s3_key":       s3Key,
	})
}

func (h *VideoHandler) CompleteUpload(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var req struct {
		UploadID        string `json:"uploadId"`
		SizeBytes       int64  `json:"size_bytes"`
		DurationSeconds int    `json:"duration_seconds"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var video models.Video
	err := h.DB.Where("id = ? AND owner_id = ?", req.UploadID, user.ID).First(&video).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "upload not found")
	}

	video.SizeBytes = req.SizeBytes
	video.DurationSeconds = req.DurationSeconds
	video.Status = models.VideoPending
	if err := h.DB.Save(&video).Error; err != nil {
		return httpError(err)
	}

	h.publish(c, video.ID, map[string]any{
		"type":     "video_uploaded",
		"video_id": video.ID,
		"owner_id": video.OwnerID,
		"title":    video.Title,
	})

	return respondMessageData(c, http.StatusOK, "Upload completed, pending review",
		echo.Map{"id": video.ID})
}

// UploadLocal accepts the video bytes directly and writes them under
// UploadDir. Fallback path for deployments without object storage.
func (h *VideoHandler) UploadLocal(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	file, err := c.FormFile("video")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "video file is required")
	}
	if h.MaxUploadSize > 0 && file.Size > h.MaxUploadSize {
		return echo.NewHTTPError(http.StatusBadRequest, "file too large")
	}
	title := c.FormValue("title")
	if title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	var tags []string
	for _, t := range strings.Split(c.FormValue("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	videoType := c.FormValue("type")
	if videoType == "" {
		videoType = "ai"
	}

	dir := filepath.Join(h.UploadDir, user.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return httpError(err)
	}
	// Stored key is relative to UploadDir so /uploads can serve it.
	key := user.ID + "/" + uuid.NewString() + ".mp4"
	path := filepath.Join(h.UploadDir, filepath.FromSlash(key))

	src, err := file.Open()
	if err != nil {
		return httpError(err)
	}
	defer src.Close()
	dst, err := os.Create(path)
	if err != nil {
		return httpError(err)
	}
	defer dst.Close()
	written, err := io.Copy(dst, src)
	if err != nil {
		return httpError(err)
	}

	video := models.Video{
		OwnerID:       user.ID,
		Title:         title,
		Description:   c.FormValue("description"),
		Tags:          tags,
		Type:          videoType,
		AllowDownload: c.FormValue("allow_download") == "true",
		S3Key:         key,
		SizeBytes:     written,
		Status:        models.VideoPending,
	}
	if err := h.DB.Create(&video).Error; err != nil {
		return httpError(err)
	}

	h.publish(c, video.ID, map[string]any{
		"type":     "video_uploaded",
		"video_id": video.ID,
		"owner_id": video.OwnerID,
		"title":    video.Title,
	})

	return respondMessageData(c, http.StatusOK, "Video uploaded, pending review",
		echo.Map{"id": video.ID})
}

func (h *VideoHandler) Stream(c echo.Context) error {
	var video models.Video
	if err := h.DB.Where("id = ?", c.Param("id")).First(&video).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "video not found")
	}

	// Keys under videos/ live in object storage; everything else sits on
	// local disk under UploadDir.
	if h.Store != nil && strings.HasPrefix(video.S3Key, "videos/") {
		url, err := h.Store.PresignDownload(c.Request().Context(), video.S3Key)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "stream error")
		}
		return respondData(c, http.StatusOK, echo.Map{"url": url})
	}
	return respondData(c, http.StatusOK, echo.Map{"url": "/uploads/" + video.S3Key})
}

func (h *VideoHandler) Download(c echo.Context) error {
	var video models.Video
	if err := h.DB.Where("id = ?", c.Param("id")).First(&video).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "video not found")
	}
	if !video.AllowDownload {
		return echo.NewHTTPError(http.StatusForbidden, "download not allowed for this video")
	}
	return respondData(c, http.StatusOK, echo.Map{
		"url": "/api/videos/" + video.ID + "/stream",
	})
}

// Delete soft-deletes the video; the row is kept, the search doc is dropped.
func (h *VideoHandler) Delete(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var video models.Video
	if err := h.DB.Where("id = ?", c.Param("id")).First(&video).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "video not found")
	}
	if video.OwnerID != user.ID && user.Role != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "not authorized")
	}

	if err := h.DB.Model(&video).Update("status", models.VideoDeleted).Error; err != nil {
		return httpError(err)
	}

	if h.ES != nil {
		if err := search.Delete(c.Request().Context(), h.ES, h.ESIndex, video.ID); err != nil {
			c.Logger().Errorf("search deindex error: %v", err)
		}
	}
	h.publish(c, video.ID, map[string]any{
		"type":     "video_deleted",
		"video_id": video.ID,
	})

	return respondMessage(c, http.StatusOK, "Video deleted")
}

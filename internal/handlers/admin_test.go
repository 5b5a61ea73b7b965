package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cinevisor/cinevisor-api/internal/models"
)

func TestPendingQueue(t *testing.T) {
	env := newTestEnv(t)
	h := &AdminHandler{DB: env.DB}

	creator := env.seedUser(t, "creator", models.RoleCreator)
	env.seedVideo(t, creator, "awaiting review", models.VideoPending)
	env.seedVideo(t, creator, "already live", models.VideoApproved)

	rec, c := env.request(t, http.MethodGet, "/api/admin/pending", nil, nil)
	require.NoError(t, h.Pending(c))

	videos := envelopeData(t, rec)["videos"].([]any)
	require.Len(t, videos, 1)
	first := videos[0].(map[string]any)
	require.Equal(t, "awaiting review", first["title"])
	require.Equal(t, "creator", first["owner_username"])
}

func TestApproveVideo(t *testing.T) {
	env := newTestEnv(t)
	h := &AdminHandler{DB: env.DB}

	creator := env.seedUser(t, "creator", models.RoleCreator)
	video := env.seedVideo(t, creator, "awaiting review", models.VideoPending)

	rec, c := env.request(t, http.MethodPost, "/api/admin/videos/"+video.ID+"/approve", nil, nil, "id", video.ID)
	require.NoError(t, h.Approve(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Video
	require.NoError(t, env.DB.First(&stored, "id = ?", video.ID).Error)
	require.Equal(t, models.VideoApproved, stored.Status)

	var notif models.Notification
	require.NoError(t, env.DB.Where("user_id = ? AND type = ?", creator.ID, "video_approved").First(&notif).Error)
}

func TestRejectVideo(t *testing.T) {
	env := newTestEnv(t)
	h := &AdminHandler{DB: env.DB}

	creator := env.seedUser(t, "creator", models.RoleCreator)
	video := env.seedVideo(t, creator, "awaiting review", models.VideoPending)

	rec, c := env.request(t, http.MethodPost, "/api/admin/videos/"+video.ID+"/reject", map[string]string{
		"reason": "copyright strike",
	}, nil, "id", video.ID)
	require.NoError(t, h.Reject(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Video
	require.NoError(t, env.DB.First(&stored, "id = ?", video.ID).Error)
	require.Equal(t, models.VideoRejected, stored.Status)

	var notif models.Notification
	require.NoError(t, env.DB.Where("user_id = ? AND type = ?", creator.ID, "video_rejected").First(&notif).Error)
	require.Contains(t, notif.Message, "copyright strike")
}

func TestRejectVideoDefaultReason(t *testing.T) {
	env := newTestEnv(t)
	h := &AdminHandler{DB: env.DB}

	creator := env.seedUser(t, "creator", models.RoleCreator)
	video := env.seedVideo(t, creator, "awaiting review", models.VideoPending)

	_, c := env.request(t, http.MethodPost, "/api/admin/videos/"+video.ID+"/reject", map[string]string{}, nil, "id", video.ID)
	require.NoError(t, h.Reject(c))

	var notif models.Notification
	require.NoError(t, env.DB.Where("type = ?", "video_rejected").First(&notif).Error)
	require.Contains(t, notif.Message, "No reason specified")
}

func TestModerateMissingVideo(t *testing.T) {
	env := newTestEnv(t)
	h := &AdminHandler{DB: env.DB}

	_, c := env.request(t, http.MethodPost, "/api/admin/videos/nope/approve", nil, nil, "id", "nope")
	requireHTTPError(t, h.Approve(c), http.StatusNotFound)

	_, c = env.request(t, http.MethodPost, "/api/admin/videos/nope/reject", nil, nil, "id", "nope")
	requireHTTPError(t, h.Reject(c), http.StatusNotFound)
}

func TestReportLifecycle(t *testing.T) {
	env := newTestEnv(t)
	reports := &ReportHandler{DB: env.DB}
	admin := &AdminHandler{DB: env.DB}

	creator := env.seedUser(t, "creator", models.RoleCreator)
	viewer := env.seedUser(t, "viewer", models.RoleUser)
	video := env.seedVideo(t, creator, "reported", models.VideoApproved)

	rec, c := env.request(t, http.MethodPost, "/api/videos/"+video.ID+"/report", map[string]string{
		"reason": "spam", "details": "obvious spam",
	}, viewer, "id", video.ID)
	require.NoError(t, reports.Create(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// one open report per user and video
	_, c = env.request(t, http.MethodPost, "/api/videos/"+video.ID+"/report", map[string]string{
		"reason": "spam",
	}, viewer, "id", video.ID)
	requireHTTPError(t, reports.Create(c), http.StatusBadRequest)

	rec, c = env.request(t, http.MethodGet, "/api/admin/reports", nil, nil)
	require.NoError(t, admin.Reports(c))
	open := envelopeData(t, rec)["reports"].([]any)
	require.Len(t, open, 1)
	reportID := open[0].(map[string]any)["id"].(string)

	rec, c = env.request(t, http.MethodPost, "/api/admin/reports/"+reportID+"/resolve", nil, nil, "id", reportID)
	require.NoError(t, admin.ResolveReport(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// resolved reports leave the queue, and the video can be reported again
	rec, c = env.request(t, http.MethodGet, "/api/admin/reports", nil, nil)
	require.NoError(t, admin.Reports(c))
	require.Empty(t, envelopeData(t, rec)["reports"].([]any))

	_, c = env.request(t, http.MethodPost, "/api/videos/"+video.ID+"/report", map[string]string{
		"reason": "still spam",
	}, viewer, "id", video.ID)
	require.NoError(t, reports.Create(c))
}

func TestReportRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	h := &ReportHandler{DB: env.DB}

	creator := env.seedUser(t, "creator", models.RoleCreator)
	viewer := env.seedUser(t, "viewer", models.RoleUser)
	video := env.seedVideo(t, creator, "reported", models.VideoApproved)

	_, c := env.request(t, http.MethodPost, "/api/videos/"+video.ID+"/report", map[string]string{}, viewer, "id", video.ID)
	requireHTTPError(t, h.Create(c), http.StatusBadRequest)
}

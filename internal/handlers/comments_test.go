package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cinevisor/cinevisor-api/internal/models"
)

func TestCreateComment(t *testing.T) {
	env := newTestEnv(t)
	h := &CommentHandler{DB: env.DB}

	owner := env.seedUser(t, "creator", models.RoleCreator)
	viewer := env.seedUser(t, "viewer", models.RoleUser)
	video := env.seedVideo(t, owner, "discussed", models.VideoApproved)

	rec, c := env.request(t, http.MethodPost, "/api/videos/"+video.ID+"/comments", map[string]string{
		"content": "great video",
	}, viewer, "id", video.ID)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusOK, rec.Code)

	data := envelopeData(t, rec)
	require.Equal(t, "great video", data["content"])
	require.Equal(t, "viewer", data["username"])

	var stored models.Video
	require.NoError(t, env.DB.First(&stored, "id = ?", video.ID).Error)
	require.Equal(t, 1, stored.CommentsCount)

	var notif models.Notification
	require.NoError(t, env.DB.Where("user_id = ? AND type = ?", owner.ID, "comment").First(&notif).Error)
}

func TestCreateCommentValidation(t *testing.T) {
	env := newTestEnv(t)
	h := &CommentHandler{DB: env.DB}

	owner := env.seedUser(t, "creator", models.RoleCreator)
	viewer := env.seedUser(t, "viewer", models.RoleUser)
	video := env.seedVideo(t, owner, "discussed", models.VideoApproved)

	_, c := env.request(t, http.MethodPost, "/api/videos/"+video.ID+"/comments", map[string]string{}, viewer, "id", video.ID)
	requireHTTPError(t, h.Create(c), http.StatusBadRequest)

	_, c = env.request(t, http.MethodPost, "/api/videos/nope/comments", map[string]string{
		"content": "hello",
	}, viewer, "id", "nope")
	requireHTTPError(t, h.Create(c), http.StatusNotFound)
}

func TestListComments(t *testing.T) {
	env := newTestEnv(t)
	h := &CommentHandler{DB: env.DB}

	owner := env.seedUser(t, "creator", models.RoleCreator)
	viewer := env.seedUser(t, "viewer", models.RoleUser)
	video := env.seedVideo(t, owner, "discussed", models.VideoApproved)

	require.NoError(t, env.DB.Create(&models.Comment{VideoID: video.ID, UserID: viewer.ID, Content: "visible"}).Error)
	require.NoError(t, env.DB.Create(&models.Comment{VideoID: video.ID, UserID: viewer.ID, Content: "hidden", IsDeleted: true}).Error)

	rec, c := env.request(t, http.MethodGet, "/api/videos/"+video.ID+"/comments", nil, nil, "id", video.ID)
	require.NoError(t, h.List(c))

	comments := envelopeData(t, rec)["comments"].([]any)
	require.Len(t, comments, 1)
	first := comments[0].(map[string]any)
	require.Equal(t, "visible", first["content"])
	require.Equal(t, "viewer", first["username"])
}

func TestDeleteComment(t *testing.T) {
	env := newTestEnv(t)
	h := &CommentHandler{DB: env.DB}

	owner := env.seedUser(t, "creator", models.RoleCreator)
	viewer := env.seedUser(t, "viewer", models.RoleUser)
	video := env.seedVideo(t, owner, "discussed", models.VideoApproved)

	// create through the handler so the counter is consistent
	_, c := env.request(t, http.MethodPost, "/api/videos/"+video.ID+"/comments", map[string]string{
		"content": "soon gone",
	}, viewer, "id", video.ID)
	require.NoError(t, h.Create(c))

	var comment models.Comment
	require.NoError(t, env.DB.Where("video_id = ?", video.ID).First(&comment).Error)

	rec, c := env.request(t, http.MethodDelete, "/api/comments/"+comment.ID, nil, viewer, "id", comment.ID)
	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Comment
	require.NoError(t, env.DB.First(&stored, "id = ?", comment.ID).Error)
	require.True(t, stored.IsDeleted)

	var video2 models.Video
	require.NoError(t, env.DB.First(&video2, "id = ?", video.ID).Error)
	require.Equal(t, 0, video2.CommentsCount)
}

func TestDeleteCommentAuthorization(t *testing.T) {
	env := newTestEnv(t)
	h := &CommentHandler{DB: env.DB}

	owner := env.seedUser(t, "creator", models.RoleCreator)
	viewer := env.seedUser(t, "viewer", models.RoleUser)
	stranger := env.seedUser(t, "stranger", models.RoleUser)
	admin := env.seedUser(t, "boss", models.RoleAdmin)
	video := env.seedVideo(t, owner, "discussed", models.VideoApproved)

	comment := models.Comment{VideoID: video.ID, UserID: viewer.ID, Content: "mine"}
	require.NoError(t, env.DB.Create(&comment).Error)

	_, c := env.request(t, http.MethodDelete, "/api/comments/"+comment.ID, nil, stranger, "id", comment.ID)
	requireHTTPError(t, h.Delete(c), http.StatusForbidden)

	_, c = env.request(t, http.MethodDelete, "/api/comments/"+comment.ID, nil, admin, "id", comment.ID)
	require.NoError(t, h.Delete(c))
}

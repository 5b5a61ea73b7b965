package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinevisor/cinevisor-api/internal/handlers"
	mwauth "github.com/cinevisor/cinevisor-api/internal/middleware/auth"
)

type Deps struct {
	Auth          *mwauth.Middleware
	AuthHandler   *handlers.AuthHandler
	VideoHandler  *handlers.VideoHandler
	Comments      *handlers.CommentHandler
	Likes         *handlers.LikeHandler
	Users         *handlers.UserHandler
	Playlists     *handlers.PlaylistHandler
	Notifications *handlers.NotificationHandler
	Reports       *handlers.ReportHandler
	Admin         *handlers.AdminHandler
	Search        *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = handlers.ErrorHandler

	api := e.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handlers.Response{
			Success: true,
			Data:    echo.Map{"status": "healthy", "service": "cinevisor-api"},
		})
	})

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.POST("/forgot-password", d.AuthHandler.ForgotPassword)
	auth.POST("/reset-password", d.AuthHandler.ResetPassword)
	auth.GET("/me", d.AuthHandler.Me, d.Auth.RequireUser)

	videos := api.Group("/videos")
	videos.GET("", d.VideoHandler.List)
	videos.POST("/init", d.VideoHandler.InitUpload, d.Auth.RequireUser)
	videos.POST("/complete", d.VideoHandler.CompleteUpload, d.Auth.RequireUser)
	videos.POST("/upload", d.VideoHandler.UploadLocal, d.Auth.RequireUser)
	videos.GET("/:id", d.VideoHandler.Get, d.Auth.OptionalUser)
	videos.GET("/:id/stream", d.VideoHandler.Stream)
	videos.GET("/:id/download", d.VideoHandler.Download, d.Auth.RequireUser)
	videos.DELETE("/:id", d.VideoHandler.Delete, d.Auth.RequireUser)

	videos.GET("/:id/comments", d.Comments.List)
	videos.POST("/:id/comments", d.Comments.Create, d.Auth.RequireUser)
	api.DELETE("/comments/:id", d.Comments.Delete, d.Auth.RequireUser)

	videos.POST("/:id/like", d.Likes.Like, d.Auth.RequireUser)
	videos.DELETE("/:id/like", d.Likes.Unlike, d.Auth.RequireUser)
	videos.POST("/:id/report", d.Reports.Create, d.Auth.RequireUser)

	users := api.Group("/users")
	users.PUT("/profile", d.Users.UpdateProfile, d.Auth.RequireUser)
	users.GET("/:id", d.Users.GetProfile, d.Auth.OptionalUser)
	users.POST("/:id/follow", d.Users.Follow, d.Auth.RequireUser)
	users.DELETE("/:id/follow", d.Users.Unfollow, d.Auth.RequireUser)

	playlists := api.Group("/playlists", d.Auth.RequireUser)
	playlists.GET("", d.Playlists.List)
	playlists.POST("", d.Playlists.Create)
	playlists.POST("/:id/videos", d.Playlists.AddVideo)
	playlists.DELETE("/:id/videos/:videoID", d.Playlists.RemoveVideo)
	playlists.DELETE("/:id", d.Playlists.Delete)

	notifications := api.Group("/notifications", d.Auth.RequireUser)
	notifications.GET("", d.Notifications.List)
	notifications.GET("/unread-count", d.Notifications.UnreadCount)
	notifications.PUT("/read-all", d.Notifications.MarkAllRead)
	notifications.PUT("/:id/read", d.Notifications.MarkRead)

	admin := api.Group("/admin", d.Auth.RequireUser, d.Auth.RequireModerator)
	admin.GET("/pending", d.Admin.Pending)
	admin.POST("/videos/:id/approve", d.Admin.Approve)
	admin.POST("/videos/:id/reject", d.Admin.Reject)
	admin.GET("/reports", d.Admin.Reports)
	admin.POST("/reports/:id/resolve", d.Admin.ResolveReport)

	api.GET("/search", d.Search.Search)
}

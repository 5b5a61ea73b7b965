package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	mwauth "github.com/cinevisor/cinevisor-api/internal/middleware/auth"
	"github.com/cinevisor/cinevisor-api/internal/models"
)

type UserHandler struct {
	DB *gorm.DB
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	userID := c.Param("id")

	var user models.User
	err := h.DB.Where("id = ? AND is_active = ?", userID, true).First(&user).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	var followers, following int64
	h.DB.Model(&models.Follow{}).Where("following_id = ?", userID).Count(&followers)
	h.DB.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&following)

	isFollowing := false
	if current := mwauth.CurrentUser(c); current != nil {
		var count int64
		h.DB.Model(&models.Follow{}).
			Where("follower_id = ? AND following_id = ?", current.ID, userID).
			Count(&count)
		isFollowing = count > 0
	}

	return respondData(c, http.StatusOK, echo.Map{
		"id":              user.ID,
		"username":        user.Username,
		"bio":             user.Bio,
		"avatar_url":      user.AvatarURL,
		"role":            user.Role,
		"followers_count": followers,
		"following_count": following,
		"is_following":    isFollowing,
		"created_at":      user.CreatedAt,
	})
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var req struct {
		Bio       *string `json:"bio"`
		AvatarURL *string `json:"avatar_url"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	updates := map[string]any{}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if len(updates) > 0 {
		if err := h.DB.Model(user).Updates(updates).Error; err != nil {
			return httpError(err)
		}
	}

	return respondMessageData(c, http.StatusOK, "Profile updated", echo.Map{
		"bio":        user.Bio,
		"avatar_url": user.AvatarURL,
	})
}

func (h *UserHandler) Follow(c echo.Context) error {
	user := mwauth.CurrentUser(c)
	targetID := c.Param("id")

	if user.ID == targetID {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot follow yourself")
	}

	var target models.User
	err := h.DB.Where("id = ? AND is_active = ?", targetID, true).First(&target).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	follow := models.Follow{FollowerID: user.ID, FollowingID: targetID}
	if err := h.DB.Create(&follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusBadRequest, "already following")
		}
		return httpError(err)
	}

	notif := models.Notification{
		UserID:      targetID,
		Type:        "follow",
		Message:     fmt.Sprintf("%s started following you", user.Username),
		ReferenceID: user.ID,
	}
	if err := h.DB.Create(&notif).Error; err != nil {
		c.Logger().Errorf("notification error: %v", err)
	}

	return respondMessage(c, http.StatusOK, "Now following")
}

func (h *UserHandler) Unfollow(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var follow models.Follow
	err := h.DB.Where("follower_id = ? AND following_id = ?", user.ID, c.Param("id")).
		First(&follow).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "not following")
	}

	if err := h.DB.Delete(&follow).Error; err != nil {
		return httpError(err)
	}
	return respondMessage(c, http.StatusOK, "Unfollowed")
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleCreator   Role = "creator"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleCreator, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// CanModerate reports whether the role may act on pending videos and reports.
func (r Role) CanModerate() bool {
	switch r {
	case RoleModerator, RoleAdmin:
		return true
	case RoleUser, RoleCreator:
		return false
	}
	return false
}

type VideoStatus string

const (
	VideoPending  VideoStatus = "pending"
	VideoApproved VideoStatus = "approved"
	VideoRejected VideoStatus = "rejected"
	VideoDeleted  VideoStatus = "deleted"
)

type User struct {
	ID           string    `gorm:"primaryKey"               json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	Username     string    `gorm:"uniqueIndex;not null"     json:"username"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         Role      `gorm:"not null;default:user"    json:"role"`
	AvatarURL    string    `json:"avatar_url"`
	Bio          string    `json:"bio"`
	IsActive     bool      `gorm:"default:true"             json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Video struct {
	ID              string      `gorm:"primaryKey"             json:"id"`
	OwnerID         string      `gorm:"index;not null"         json:"owner_id"`
	Title           string      `gorm:"not null"               json:"title"`
	Description     string      `json:"description"`
	Tags            []string    `gorm:"serializer:json"        json:"tags"`
	Type            string      `gorm:"default:ai"             json:"type"`
	S3Key           string      `json:"s3_key,omitempty"`
	ThumbnailURL    string      `json:"thumbnail_url"`
	DurationSeconds int         `json:"duration_seconds"`
	SizeBytes       int64       `json:"size_bytes"`
	AllowDownload   bool        `gorm:"default:false"          json:"allow_download"`
	Status          VideoStatus `gorm:"default:pending;index"  json:"status"`
	Views           int64       `gorm:"default:0"              json:"views"`
	LikesCount      int         `gorm:"default:0"              json:"likes_count"`
	CommentsCount   int         `gorm:"default:0"              json:"comments_count"`
	AIModel         string      `json:"ai_model,omitempty"`
	AIPrompt        string      `json:"ai_prompt,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

type Comment struct {
	ID         string    `gorm:"primaryKey"      json:"id"`
	VideoID    string    `gorm:"index;not null"  json:"video_id"`
	UserID     string    `gorm:"not null"        json:"user_id"`
	Content    string    `gorm:"not null"        json:"content"`
	LikesCount int       `gorm:"default:0"       json:"likes_count"`
	IsDeleted  bool      `gorm:"default:false"   json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type VideoLike struct {
	ID        string    `gorm:"primaryKey"                          json:"id"`
	VideoID   string    `gorm:"uniqueIndex:uq_video_user;not null"  json:"video_id"`
	UserID    string    `gorm:"uniqueIndex:uq_video_user;not null"  json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *VideoLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

type Report struct {
	ID        string    `gorm:"primaryKey"      json:"id"`
	VideoID   string    `gorm:"index;not null"  json:"video_id"`
	UserID    string    `gorm:"not null"        json:"user_id"`
	Reason    string    `gorm:"not null"        json:"reason"`
	Details   string    `json:"details"`
	Status    string    `gorm:"default:open"    json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type Notification struct {
	ID          string    `gorm:"primaryKey"      json:"id"`
	UserID      string    `gorm:"index;not null"  json:"user_id"`
	Type        string    `gorm:"not null"        json:"type"`
	Message     string    `gorm:"not null"        json:"message"`
	IsRead      bool      `gorm:"default:false"   json:"is_read"`
	ReferenceID string    `json:"reference_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// RefreshToken rows are never deleted, only revoked. A revoked row stays
// revoked; expiry is evaluated at lookup time rather than by a sweeper.
type RefreshToken struct {
	ID        string    `gorm:"primaryKey"           json:"id"`
	UserID    string    `gorm:"index;not null"       json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	Revoked   bool      `gorm:"default:false"        json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null"             json:"expires_at"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type PasswordReset struct {
	ID        string    `gorm:"primaryKey"           json:"id"`
	Email     string    `gorm:"index;not null"       json:"email"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	Used      bool      `gorm:"default:false"        json:"used"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null"             json:"expires_at"`
}

func (p *PasswordReset) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type Follow struct {
	ID          string    `gorm:"primaryKey"                                  json:"id"`
	FollowerID  string    `gorm:"uniqueIndex:uq_follower_following;not null"  json:"follower_id"`
	FollowingID string    `gorm:"uniqueIndex:uq_follower_following;not null"  json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

type Playlist struct {
	ID          string    `gorm:"primaryKey"      json:"id"`
	UserID      string    `gorm:"index;not null"  json:"user_id"`
	Title       string    `gorm:"not null"        json:"title"`
	Description string    `json:"description"`
	IsPublic    bool      `gorm:"default:true"    json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Playlist) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type PlaylistVideo struct {
	ID         string    `gorm:"primaryKey"                              json:"id"`
	PlaylistID string    `gorm:"uniqueIndex:uq_playlist_video;not null"  json:"playlist_id"`
	VideoID    string    `gorm:"uniqueIndex:uq_playlist_video;not null"  json:"video_id"`
	Position   int       `gorm:"default:0"                               json:"position"`
	AddedAt    time.Time `gorm:"autoCreateTime"                          json:"added_at"`
}

func (pv *PlaylistVideo) BeforeCreate(tx *gorm.DB) error {
	if pv.ID == "" {
		pv.ID = uuid.NewString()
	}
	return nil
}

// All returns every model for migration.
func All() []any {
	return []any{
		&User{}, &Video{}, &Comment{}, &VideoLike{}, &Report{},
		&Notification{}, &RefreshToken{}, &PasswordReset{},
		&Follow{}, &Playlist{}, &PlaylistVideo{},
	}
}

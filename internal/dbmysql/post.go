package dbmysql

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jamsocial/internal/common"
)

type Post struct {
	ID        string      `gorm:"primaryKey;column:id;type:char(36)"`
	UserID    int64       `gorm:"column:user_id;index;not null"`
	Content   string      `gorm:"column:content;type:text"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime;index"`
	Media     []PostMedia `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PostMedia references one object in the post media bucket. MediaPath is
// written once at upload time and never changes.
type PostMedia struct {
	ID        string               `gorm:"primaryKey;column:id;type:char(36)"`
	PostID    string               `gorm:"column:post_id;type:char(36);index;not null"`
	MediaPath string               `gorm:"column:media_path;size:512;not null"`
	Type      common.MediaFileType `gorm:"column:type;type:ENUM('image','video')"`
	Position  int                  `gorm:"column:position"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (PostMedia) TableName() string {
	return "post_media"
}

func (m *PostMedia) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

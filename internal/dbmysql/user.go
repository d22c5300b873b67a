package dbmysql

import (
	"time"
)

// User is owned by the auth collaborator; the profile service only reads
// id and avatar_url and writes avatar_url once.
type User struct {
	ID         int64     `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	Name       string    `gorm:"column:name;size:100" json:"name"`
	UserName   string    `gorm:"column:user_name;uniqueIndex;size:50;not null" json:"user_name"`
	Instrument string    `gorm:"column:instrument;size:50" json:"instrument"`
	AvatarURL  *string   `gorm:"column:avatar_url;size:500" json:"avatar_url"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// HasAvatar reports whether an avatar URL is already stored.
func (u *User) HasAvatar() bool {
	return u.AvatarURL != nil && *u.AvatarURL != ""
}

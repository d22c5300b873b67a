package dbmysql

import "time"

// Reaction is keyed by (user_id, post_id): one reaction per user per post.
type Reaction struct {
	UserID    int64     `gorm:"primaryKey;column:user_id;autoIncrement:false"`
	PostID    string    `gorm:"primaryKey;column:post_id;type:char(36)"`
	Kind      string    `gorm:"column:kind;size:32"` // like, fire, rock_on, etc.
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Reaction) TableName() string {
	return "reactions"
}

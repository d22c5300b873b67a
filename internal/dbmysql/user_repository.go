package dbmysql

import (
	"context"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Scopes(userByID(userID)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SetAvatarIfEmpty stores url only when the user has no avatar yet. The check
// and the write are one statement, so concurrent callers cannot both win.
// It reports whether the row was updated.
func (r *UserRepository) SetAvatarIfEmpty(ctx context.Context, userID int64, url string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&User{}).
		Scopes(avatarUnset(userID)).
		Update("avatar_url", url)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func userByID(userID int64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", userID)
	}
}

func avatarUnset(userID int64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ? AND (avatar_url IS NULL OR avatar_url = '')", userID)
	}
}

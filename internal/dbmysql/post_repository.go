package dbmysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrRecordNotFound lets callers test for missing rows without importing gorm.
var ErrRecordNotFound = gorm.ErrRecordNotFound

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// ListByOwner loads every post of userID together with its media in one
// round trip per relation, newest first, media in upload order.
func (r *PostRepository) ListByOwner(ctx context.Context, userID int64) ([]Post, error) {
	var posts []Post
	err := r.db.WithContext(ctx).
		Preload("Media", mediaInOrder).
		Scopes(ownedBy(userID)).
		Find(&posts).Error
	return posts, err
}

func (r *PostRepository) GetByID(ctx context.Context, postID string) (*Post, error) {
	var post Post
	err := r.db.WithContext(ctx).
		Preload("Media", mediaInOrder).
		First(&post, "id = ?", postID).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Create inserts the post and its media rows in one transaction.
func (r *PostRepository) Create(ctx context.Context, post *Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *PostRepository) Delete(ctx context.Context, postID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&PostMedia{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", postID).Delete(&Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return nil
	})
}

// UpsertReaction replaces the user's previous reaction on the post, so
// repeating the same command leaves a single row.
func (r *PostRepository) UpsertReaction(ctx context.Context, reaction *Reaction) error {
	return r.db.WithContext(ctx).Clauses(reactionUpsert()).Create(reaction).Error
}

func ownedBy(userID int64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID).Order("created_at DESC").Order("id ASC")
	}
}

func mediaInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func reactionUpsert() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "updated_at"}),
	}
}

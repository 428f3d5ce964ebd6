package dao

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "blogsphere/pkg/common/errors"
	"blogsphere/pkg/core/blog/model"
	"blogsphere/pkg/core/blog/repository/dao"
)

var _ dao.PostRepository = (*GormPostRepository)(nil)

type GormPostRepository struct {
	db *gorm.DB
}

func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

// 预加载作者、分类、标签
func (r *GormPostRepository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Preload("Tags")
}

func (r *GormPostRepository) ListPosts(ctx context.Context, filter dao.PostFilter) ([]model.Post, error) {
	query := r.withAssociations(ctx).Model(&model.Post{})

	if filter.Status != "" {
		query = query.Where("posts.status = ?", filter.Status)
	}
	if filter.AuthorID != "" {
		query = query.Where("posts.author_id = ?", filter.AuthorID)
	}
	if filter.CategoryID != "" {
		query = query.Where("posts.category_id = ?", filter.CategoryID)
	}
	if filter.TagID != "" {
		query = query.
			Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Where("post_tags.tag_id = ?", filter.TagID)
	}

	var posts []model.Post
	if err := query.Order("posts.created_at DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("post list failed: %w", apperrors.WrapGormError(err, nil))
	}
	return posts, nil
}

func (r *GormPostRepository) QueryPostByID(ctx context.Context, id string) (model.Post, error) {
	var post model.Post
	err := r.withAssociations(ctx).Where("posts.id = ?", id).First(&post).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.Post{}, apperrors.ErrPostNotFound
	case err != nil:
		return model.Post{}, fmt.Errorf("post query failed: %w", apperrors.WrapGormError(err, apperrors.ErrPostNotFound))
	default:
		return post, nil
	}
}

// CreatePost 作者与分类只写外键，标签写入关联表
func (r *GormPostRepository) CreatePost(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author", "Category", "Tags.*").Create(post).Error; err != nil {
			return fmt.Errorf("post creation failed: %w", apperrors.WrapGormError(err, nil))
		}
		return nil
	})
}

func (r *GormPostRepository) UpdatePost(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Post{}).
			Where("id = ?", post.ID).
			Updates(map[string]interface{}{
				"title":        post.Title,
				"content":      post.Content,
				"status":       post.Status,
				"reading_time": post.ReadingTime,
				"category_id":  post.CategoryID,
			})
		if result.Error != nil {
			return fmt.Errorf("post update failed: %w", apperrors.WrapGormError(result.Error, nil))
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrPostNotFound
		}

		if err := tx.Model(&model.Post{ID: post.ID}).Omit("Tags.*").Association("Tags").Replace(post.Tags); err != nil {
			return fmt.Errorf("post tags update failed: %w", apperrors.WrapGormError(err, nil))
		}
		return nil
	})
}

func (r *GormPostRepository) DeletePost(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 行锁，避免并发删除与更新交错
		var post model.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&post).Error; err != nil {
			return apperrors.WrapGormError(err, apperrors.ErrPostNotFound)
		}

		if err := tx.Model(&post).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("post tags cleanup failed: %w", apperrors.WrapGormError(err, nil))
		}
		if err := tx.Delete(&post).Error; err != nil {
			return fmt.Errorf("post deletion failed: %w", apperrors.WrapGormError(err, nil))
		}
		return nil
	})
}

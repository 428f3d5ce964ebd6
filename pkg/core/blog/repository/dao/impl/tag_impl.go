package dao

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "blogsphere/pkg/common/errors"
	"blogsphere/pkg/core/blog/model"
	"blogsphere/pkg/core/blog/repository/dao"
)

var _ dao.TagRepository = (*GormTagRepository)(nil)

type GormTagRepository struct {
	db *gorm.DB
}

func NewGormTagRepository(db *gorm.DB) *GormTagRepository {
	return &GormTagRepository{db: db}
}

func (r *GormTagRepository) ListTags(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("tag list failed: %w", apperrors.WrapGormError(err, nil))
	}

	var rows []postCountRow
	err := r.db.WithContext(ctx).Table("post_tags").
		Select("post_tags.tag_id AS owner_id, COUNT(*) AS total").
		Joins("JOIN posts ON posts.id = post_tags.post_id").
		Where("posts.status = ?", model.PostStatusPublished).
		Group("post_tags.tag_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("tag post count failed: %w", apperrors.WrapGormError(err, nil))
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.OwnerID] = row.Total
	}
	for i := range tags {
		tags[i].PostCount = counts[tags[i].ID]
	}
	return tags, nil
}

func (r *GormTagRepository) QueryTagByID(ctx context.Context, id string) (model.Tag, error) {
	var tag model.Tag
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tag).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.Tag{}, apperrors.ErrTagNotFound
	case err != nil:
		return model.Tag{}, fmt.Errorf("tag query failed: %w", apperrors.WrapGormError(err, apperrors.ErrTagNotFound))
	default:
		return tag, nil
	}
}

func (r *GormTagRepository) QueryTagsByIDs(ctx context.Context, ids []string) ([]model.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []model.Tag
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("tag query failed: %w", apperrors.WrapGormError(err, nil))
	}
	return tags, nil
}

func (r *GormTagRepository) QueryTagsByNames(ctx context.Context, names []string) ([]model.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(names))
	for i, name := range names {
		lowered[i] = strings.ToLower(name)
	}
	var tags []model.Tag
	if err := r.db.WithContext(ctx).Where("LOWER(name) IN ?", lowered).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("tag query failed: %w", apperrors.WrapGormError(err, nil))
	}
	return tags, nil
}

// CreateTags 批量写入，回填ID到传入的切片
func (r *GormTagRepository) CreateTags(ctx context.Context, tags []model.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tags).Error; err != nil {
			if apperrors.IsDuplicateError(err) {
				return apperrors.NewConflict("tag already exists")
			}
			return fmt.Errorf("tag creation failed: %w", apperrors.WrapGormError(err, nil))
		}
		return nil
	})
}

func (r *GormTagRepository) CountTagPosts(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("post_tags").
		Where("tag_id = ?", id).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("tag post count failed: %w", apperrors.WrapGormError(err, nil))
	}
	return count, nil
}

func (r *GormTagRepository) DeleteTag(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Tag{}).Error; err != nil {
		return fmt.Errorf("tag deletion failed: %w", apperrors.WrapGormError(err, nil))
	}
	return nil
}

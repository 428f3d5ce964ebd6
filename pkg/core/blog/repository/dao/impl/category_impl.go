package dao

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "blogsphere/pkg/common/errors"
	"blogsphere/pkg/core/blog/model"
	"blogsphere/pkg/core/blog/repository/dao"
)

var _ dao.CategoryRepository = (*GormCategoryRepository)(nil)

type GormCategoryRepository struct {
	db *gorm.DB
}

func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

type postCountRow struct {
	OwnerID string
	Total   int64
}

func (r *GormCategoryRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("category list failed: %w", apperrors.WrapGormError(err, nil))
	}

	var rows []postCountRow
	err := r.db.WithContext(ctx).Model(&model.Post{}).
		Select("category_id AS owner_id, COUNT(*) AS total").
		Where("status = ?", model.PostStatusPublished).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("category post count failed: %w", apperrors.WrapGormError(err, nil))
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.OwnerID] = row.Total
	}
	for i := range categories {
		categories[i].PostCount = counts[categories[i].ID]
	}
	return categories, nil
}

func (r *GormCategoryRepository) QueryCategoryByID(ctx context.Context, id string) (model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.Category{}, apperrors.ErrCategoryNotFound
	case err != nil:
		return model.Category{}, fmt.Errorf("category query failed: %w", apperrors.WrapGormError(err, apperrors.ErrCategoryNotFound))
	default:
		return category, nil
	}
}

func (r *GormCategoryRepository) IsCategoryNameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("LOWER(name) = LOWER(?)", name).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check category name: %w", apperrors.WrapGormError(err, nil))
	}
	return count > 0, nil
}

func (r *GormCategoryRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflict("category %q already exists", category.Name)
		}
		return fmt.Errorf("category creation failed: %w", apperrors.WrapGormError(err, nil))
	}
	return nil
}

func (r *GormCategoryRepository) CountCategoryPosts(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("category_id = ?", id).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("category post count failed: %w", apperrors.WrapGormError(err, nil))
	}
	return count, nil
}

func (r *GormCategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Category{}).Error; err != nil {
		return fmt.Errorf("category deletion failed: %w", apperrors.WrapGormError(err, nil))
	}
	return nil
}

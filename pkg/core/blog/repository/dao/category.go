package dao

import (
	"context"

	"blogsphere/pkg/core/blog/model"
)

type CategoryRepository interface {
	// ListCategories 填充 PostCount（仅统计已发布文章）
	ListCategories(ctx context.Context) ([]model.Category, error)
	QueryCategoryByID(ctx context.Context, id string) (model.Category, error)
	// IsCategoryNameExists 忽略大小写
	IsCategoryNameExists(ctx context.Context, name string) (bool, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	// CountCategoryPosts 统计全部状态的文章
	CountCategoryPosts(ctx context.Context, id string) (int64, error)
	DeleteCategory(ctx context.Context, id string) error
}

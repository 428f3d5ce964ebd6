package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	apperrors "blogsphere/pkg/common/errors"
	"blogsphere/pkg/core/blog/model"
	"blogsphere/pkg/core/blog/repository/dao"
)

const (
	minCategoryNameLen = 2
	maxCategoryNameLen = 50
)

var categoryNamePattern = regexp.MustCompile(`^[\w\s-]+$`)

type CategoryService struct {
	categories dao.CategoryRepository
}

func NewCategoryService(categories dao.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.categories.ListCategories(ctx)
}

// Create 名称忽略大小写唯一
func (s *CategoryService) Create(ctx context.Context, name string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < minCategoryNameLen || n > maxCategoryNameLen {
		return model.Category{}, apperrors.NewValidation("category name must be between %d and %d characters", minCategoryNameLen, maxCategoryNameLen)
	}
	if !categoryNamePattern.MatchString(name) {
		return model.Category{}, apperrors.NewValidation("category name can only contain letters, numbers, spaces, and hyphens")
	}

	exists, err := s.categories.IsCategoryNameExists(ctx, name)
	if err != nil {
		return model.Category{}, err
	}
	if exists {
		return model.Category{}, apperrors.NewConflict("category %q already exists", name)
	}

	category := model.Category{Name: name}
	if err := s.categories.CreateCategory(ctx, &category); err != nil {
		return model.Category{}, err
	}
	hlog.CtxInfof(ctx, "[CATEGORY] created id=%s name=%s", category.ID, category.Name)
	return category, nil
}

// Delete 分类不存在时直接返回；仍有文章时拒绝删除
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if _, err := s.categories.QueryCategoryByID(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrCategoryNotFound) {
			return nil
		}
		return err
	}

	count, err := s.categories.CountCategoryPosts(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflict("category has %d posts", count)
	}
	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		return err
	}
	hlog.CtxInfof(ctx, "[CATEGORY] deleted id=%s", id)
	return nil
}

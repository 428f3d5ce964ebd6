package dao

import (
	"context"

	"blogsphere/pkg/core/blog/model"
)

type TagRepository interface {
	ListTags(ctx context.Context) ([]model.Tag, error)
	QueryTagByID(ctx context.Context, id string) (model.Tag, error)
	// QueryTagsByIDs 只返回存在的标签，调用方自行比对数量
	QueryTagsByIDs(ctx context.Context, ids []string) ([]model.Tag, error)
	QueryTagsByNames(ctx context.Context, names []string) ([]model.Tag, error)
	CreateTags(ctx context.Context, tags []model.Tag) error
	CountTagPosts(ctx context.Context, id string) (int64, error)
	DeleteTag(ctx context.Context, id string) error
}

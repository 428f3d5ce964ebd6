package dao

import (
	"context"

	"blogsphere/pkg/core/blog/model"
)

// PostFilter 空字段表示不过滤
type PostFilter struct {
	Status     model.PostStatus
	AuthorID   string
	CategoryID string
	TagID      string
}

// PostRepository 返回的文章需带上 Author、Category、Tags
type PostRepository interface {
	ListPosts(ctx context.Context, filter PostFilter) ([]model.Post, error)
	QueryPostByID(ctx context.Context, id string) (model.Post, error)
	CreatePost(ctx context.Context, post *model.Post) error
	// UpdatePost 覆盖基础字段并以 post.Tags 替换标签关联
	UpdatePost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id string) error
}

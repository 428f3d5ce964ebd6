package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	apperrors "blogsphere/pkg/common/errors"
	"blogsphere/pkg/core/auth"
	"blogsphere/pkg/core/blog/model"
	"blogsphere/pkg/core/blog/repository/dao"
)

const (
	minTitleLen   = 3
	maxTitleLen   = 200
	maxContentLen = 50000
	maxPostTags   = 10
)

// PostQuery 列表查询条件，Status 为空时只返回已发布文章
type PostQuery struct {
	CategoryID string
	TagID      string
	Status     string
}

// PostInput 创建与更新共用
type PostInput struct {
	Title      string
	Content    string
	Status     string
	CategoryID string
	TagIDs     []string
}

type PostService struct {
	posts      dao.PostRepository
	categories dao.CategoryRepository
	tags       dao.TagRepository
}

func NewPostService(posts dao.PostRepository, categories dao.CategoryRepository, tags dao.TagRepository) *PostService {
	return &PostService{posts: posts, categories: categories, tags: tags}
}

// List 草稿只能由已登录用户查询，且只包含自己的文章
func (s *PostService) List(ctx context.Context, viewer auth.Identity, q PostQuery) ([]model.Post, error) {
	filter := dao.PostFilter{Status: model.PostStatusPublished}

	if q.Status != "" {
		status, err := model.ParsePostStatus(q.Status)
		if err != nil {
			return nil, apperrors.NewValidation("status must be DRAFT or PUBLISHED")
		}
		filter.Status = status
	}
	if filter.Status == model.PostStatusDraft {
		if !viewer.IsAuthenticated() {
			return nil, apperrors.ErrUnauthorized
		}
		filter.AuthorID = viewer.UserID()
	}

	if q.CategoryID != "" {
		if _, err := s.categories.QueryCategoryByID(ctx, q.CategoryID); err != nil {
			return nil, err
		}
		filter.CategoryID = q.CategoryID
	}
	if q.TagID != "" {
		if _, err := s.tags.QueryTagByID(ctx, q.TagID); err != nil {
			return nil, err
		}
		filter.TagID = q.TagID
	}

	return s.posts.ListPosts(ctx, filter)
}

func (s *PostService) Drafts(ctx context.Context, viewer auth.Identity) ([]model.Post, error) {
	if !viewer.IsAuthenticated() {
		return nil, apperrors.ErrUnauthorized
	}
	return s.posts.ListPosts(ctx, dao.PostFilter{
		Status:   model.PostStatusDraft,
		AuthorID: viewer.UserID(),
	})
}

// Get 他人的草稿按不存在处理
func (s *PostService) Get(ctx context.Context, viewer auth.Identity, id string) (model.Post, error) {
	post, err := s.posts.QueryPostByID(ctx, id)
	if err != nil {
		return model.Post{}, err
	}
	if !post.VisibleTo(viewer.UserID()) {
		return model.Post{}, apperrors.ErrPostNotFound
	}
	return post, nil
}

func (s *PostService) Create(ctx context.Context, viewer auth.Identity, in PostInput) (model.Post, error) {
	if !viewer.IsAuthenticated() {
		return model.Post{}, apperrors.ErrUnauthorized
	}

	post := model.Post{AuthorID: viewer.UserID()}
	if err := s.apply(ctx, &post, in); err != nil {
		return model.Post{}, err
	}
	if err := s.posts.CreatePost(ctx, &post); err != nil {
		return model.Post{}, err
	}
	hlog.CtxInfof(ctx, "[POST] created id=%s author=%s status=%s", post.ID, post.AuthorID, post.Status)

	return s.posts.QueryPostByID(ctx, post.ID)
}

// Update 仅作者本人可以修改
func (s *PostService) Update(ctx context.Context, viewer auth.Identity, id string, in PostInput) (model.Post, error) {
	post, err := s.owned(ctx, viewer, id)
	if err != nil {
		return model.Post{}, err
	}
	if err := s.apply(ctx, &post, in); err != nil {
		return model.Post{}, err
	}
	if err := s.posts.UpdatePost(ctx, &post); err != nil {
		return model.Post{}, err
	}
	hlog.CtxInfof(ctx, "[POST] updated id=%s", post.ID)

	return s.posts.QueryPostByID(ctx, post.ID)
}

// Delete 仅作者本人可以删除，被拒绝时文章保持不变
func (s *PostService) Delete(ctx context.Context, viewer auth.Identity, id string) error {
	post, err := s.owned(ctx, viewer, id)
	if err != nil {
		return err
	}
	if err := s.posts.DeletePost(ctx, post.ID); err != nil {
		return err
	}
	hlog.CtxInfof(ctx, "[POST] deleted id=%s by=%s", post.ID, viewer.UserID())
	return nil
}

func (s *PostService) owned(ctx context.Context, viewer auth.Identity, id string) (model.Post, error) {
	if !viewer.IsAuthenticated() {
		return model.Post{}, apperrors.ErrUnauthorized
	}
	post, err := s.Get(ctx, viewer, id)
	if err != nil {
		return model.Post{}, err
	}
	if !post.IsOwnedBy(viewer.UserID()) {
		hlog.CtxWarnf(ctx, "[POST] ownership check failed id=%s user=%s", id, viewer.UserID())
		return model.Post{}, apperrors.ErrForbidden
	}
	return post, nil
}

// apply 校验输入并写入文章字段，阅读时长随内容重新计算
func (s *PostService) apply(ctx context.Context, post *model.Post, in PostInput) error {
	title := strings.TrimSpace(in.Title)
	if n := utf8.RuneCountInString(title); n < minTitleLen || n > maxTitleLen {
		return apperrors.NewValidation("title must be between %d and %d characters", minTitleLen, maxTitleLen)
	}
	if strings.TrimSpace(in.Content) == "" || utf8.RuneCountInString(in.Content) > maxContentLen {
		return apperrors.NewValidation("content must be between 1 and %d characters", maxContentLen)
	}
	status, err := model.ParsePostStatus(in.Status)
	if err != nil {
		return apperrors.NewValidation("status must be DRAFT or PUBLISHED")
	}
	if in.CategoryID == "" {
		return apperrors.NewValidation("categoryId is required")
	}

	tagIDs := dedupe(in.TagIDs)
	if len(tagIDs) > maxPostTags {
		return apperrors.NewValidation("a post can have at most %d tags", maxPostTags)
	}

	category, err := s.categories.QueryCategoryByID(ctx, in.CategoryID)
	if err != nil {
		return err
	}
	tags, err := s.tags.QueryTagsByIDs(ctx, tagIDs)
	if err != nil {
		return err
	}
	if len(tags) != len(tagIDs) {
		return apperrors.ErrTagNotFound
	}

	post.Title = title
	post.Content = in.Content
	post.Status = status
	post.ReadingTime = model.ReadingTime(in.Content)
	post.CategoryID = category.ID
	post.Category = category
	post.Tags = tags
	return nil
}

// dedupe 去掉空白与重复项，保持原有顺序
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

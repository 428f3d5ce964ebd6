package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	apperrors "blogsphere/pkg/common/errors"
	"blogsphere/pkg/core/blog/model"
	"blogsphere/pkg/core/blog/repository/dao"
)

const (
	minTagNameLen     = 2
	maxTagNameLen     = 30
	maxTagsPerRequest = 10
)

type TagService struct {
	tags dao.TagRepository
}

func NewTagService(tags dao.TagRepository) *TagService {
	return &TagService{tags: tags}
}

func (s *TagService) List(ctx context.Context) ([]model.Tag, error) {
	return s.tags.ListTags(ctx)
}

// Create 幂等：已存在的名称直接返回，只写入新名称；名称比较不区分大小写
func (s *TagService) Create(ctx context.Context, names []string) ([]model.Tag, error) {
	names = dedupeFold(names)
	if len(names) == 0 || len(names) > maxTagsPerRequest {
		return nil, apperrors.NewValidation("between 1 and %d tag names are required", maxTagsPerRequest)
	}
	for _, name := range names {
		if n := utf8.RuneCountInString(name); n < minTagNameLen || n > maxTagNameLen {
			return nil, apperrors.NewValidation("tag name %q must be between %d and %d characters", name, minTagNameLen, maxTagNameLen)
		}
	}

	existing, err := s.tags.QueryTagsByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, tag := range existing {
		known[strings.ToLower(tag.Name)] = struct{}{}
	}

	var created []model.Tag
	for _, name := range names {
		if _, ok := known[strings.ToLower(name)]; !ok {
			created = append(created, model.Tag{Name: name})
		}
	}
	if len(created) > 0 {
		if err := s.tags.CreateTags(ctx, created); err != nil {
			return nil, err
		}
		hlog.CtxInfof(ctx, "[TAG] created %d tags", len(created))
	}

	return append(created, existing...), nil
}

// dedupeFold 去空白后按不区分大小写去重，保留首次出现的写法
func dedupeFold(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Delete 标签不存在时直接返回；仍被文章引用时拒绝删除
func (s *TagService) Delete(ctx context.Context, id string) error {
	if _, err := s.tags.QueryTagByID(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrTagNotFound) {
			return nil
		}
		return err
	}

	count, err := s.tags.CountTagPosts(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflict("tag is used by %d posts", count)
	}
	if err := s.tags.DeleteTag(ctx, id); err != nil {
		return err
	}
	hlog.CtxInfof(ctx, "[TAG] deleted id=%s", id)
	return nil
}

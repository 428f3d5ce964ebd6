// Package memory 进程内的博客内容存储，配合 database.driver=memory 使用。
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "blogsphere/pkg/common/errors"
	"blogsphere/pkg/core/blog/model"
	"blogsphere/pkg/core/blog/repository/dao"
	usermodel "blogsphere/pkg/core/user/model"
	userdao "blogsphere/pkg/core/user/repository/dao"
)

var (
	_ dao.PostRepository     = (*Store)(nil)
	_ dao.CategoryRepository = (*Store)(nil)
	_ dao.TagRepository      = (*Store)(nil)
)

// Store 文章只保存外键，读取时再拼装作者、分类和标签
type Store struct {
	users userdao.UserRepository

	mu         sync.RWMutex
	posts      map[string]model.Post
	postTags   map[string][]string
	categories map[string]model.Category
	tags       map[string]model.Tag
}

func NewStore(users userdao.UserRepository) *Store {
	return &Store{
		users:      users,
		posts:      make(map[string]model.Post),
		postTags:   make(map[string][]string),
		categories: make(map[string]model.Category),
		tags:       make(map[string]model.Tag),
	}
}

// ---------- 文章 ----------

func (s *Store) ListPosts(ctx context.Context, filter dao.PostFilter) ([]model.Post, error) {
	s.mu.RLock()
	posts := make([]model.Post, 0, len(s.posts))
	for _, post := range s.posts {
		if !s.matches(post, filter) {
			continue
		}
		posts = append(posts, s.assemble(post))
	}
	s.mu.RUnlock()

	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	for i := range posts {
		if err := s.fillAuthor(ctx, &posts[i]); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func (s *Store) QueryPostByID(ctx context.Context, id string) (model.Post, error) {
	s.mu.RLock()
	stored, ok := s.posts[id]
	var post model.Post
	if ok {
		post = s.assemble(stored)
	}
	s.mu.RUnlock()

	if !ok {
		return model.Post{}, apperrors.ErrPostNotFound
	}
	if err := s.fillAuthor(ctx, &post); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

func (s *Store) CreatePost(_ context.Context, post *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := time.Now()
	post.CreatedAt, post.UpdatedAt = now, now

	s.posts[post.ID] = stripAssociations(*post)
	s.postTags[post.ID] = post.TagIDs()
	return nil
}

func (s *Store) UpdatePost(_ context.Context, post *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.posts[post.ID]
	if !ok {
		return apperrors.ErrPostNotFound
	}
	stored.Title = post.Title
	stored.Content = post.Content
	stored.Status = post.Status
	stored.ReadingTime = post.ReadingTime
	stored.CategoryID = post.CategoryID
	stored.UpdatedAt = time.Now()
	post.UpdatedAt = stored.UpdatedAt

	s.posts[post.ID] = stored
	s.postTags[post.ID] = post.TagIDs()
	return nil
}

func (s *Store) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return apperrors.ErrPostNotFound
	}
	delete(s.posts, id)
	delete(s.postTags, id)
	return nil
}

// ---------- 分类 ----------

func (s *Store) ListCategories(_ context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, post := range s.posts {
		if post.Status == model.PostStatusPublished {
			counts[post.CategoryID]++
		}
	}

	categories := make([]model.Category, 0, len(s.categories))
	for _, category := range s.categories {
		category.PostCount = counts[category.ID]
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *Store) QueryCategoryByID(_ context.Context, id string) (model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[id]
	if !ok {
		return model.Category{}, apperrors.ErrCategoryNotFound
	}
	return category, nil
}

func (s *Store) IsCategoryNameExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.categoryNameTaken(name), nil
}

func (s *Store) CreateCategory(_ context.Context, category *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.categoryNameTaken(category.Name) {
		return apperrors.NewConflict("category %q already exists", category.Name)
	}
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	category.CreatedAt = time.Now()
	s.categories[category.ID] = *category
	return nil
}

func (s *Store) CountCategoryPosts(_ context.Context, id string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, post := range s.posts {
		if post.CategoryID == id {
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.categories, id)
	return nil
}

// ---------- 标签 ----------

func (s *Store) ListTags(_ context.Context) ([]model.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for postID, tagIDs := range s.postTags {
		if s.posts[postID].Status != model.PostStatusPublished {
			continue
		}
		for _, tagID := range tagIDs {
			counts[tagID]++
		}
	}

	tags := make([]model.Tag, 0, len(s.tags))
	for _, tag := range s.tags {
		tag.PostCount = counts[tag.ID]
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (s *Store) QueryTagByID(_ context.Context, id string) (model.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tag, ok := s.tags[id]
	if !ok {
		return model.Tag{}, apperrors.ErrTagNotFound
	}
	return tag, nil
}

func (s *Store) QueryTagsByIDs(_ context.Context, ids []string) ([]model.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tags []model.Tag
	for _, id := range ids {
		if tag, ok := s.tags[id]; ok {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

func (s *Store) QueryTagsByNames(_ context.Context, names []string) ([]model.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[strings.ToLower(name)] = struct{}{}
	}

	var tags []model.Tag
	for _, tag := range s.tags {
		if _, ok := wanted[strings.ToLower(tag.Name)]; ok {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

func (s *Store) CreateTags(_ context.Context, tags []model.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tag := range tags {
		for _, existing := range s.tags {
			if strings.EqualFold(existing.Name, tag.Name) {
				return apperrors.NewConflict("tag %q already exists", tag.Name)
			}
		}
	}

	now := time.Now()
	for i := range tags {
		if tags[i].ID == "" {
			tags[i].ID = uuid.NewString()
		}
		tags[i].CreatedAt = now
		s.tags[tags[i].ID] = tags[i]
	}
	return nil
}

func (s *Store) CountTagPosts(_ context.Context, id string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, tagIDs := range s.postTags {
		for _, tagID := range tagIDs {
			if tagID == id {
				count++
			}
		}
	}
	return count, nil
}

func (s *Store) DeleteTag(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tags, id)
	return nil
}

// ---------- 内部 ----------

// 调用方需持有读锁
func (s *Store) matches(post model.Post, filter dao.PostFilter) bool {
	if filter.Status != "" && post.Status != filter.Status {
		return false
	}
	if filter.AuthorID != "" && post.AuthorID != filter.AuthorID {
		return false
	}
	if filter.CategoryID != "" && post.CategoryID != filter.CategoryID {
		return false
	}
	if filter.TagID != "" {
		for _, tagID := range s.postTags[post.ID] {
			if tagID == filter.TagID {
				return true
			}
		}
		return false
	}
	return true
}

// 调用方需持有读锁
func (s *Store) assemble(post model.Post) model.Post {
	post.Category = s.categories[post.CategoryID]
	post.Tags = make([]model.Tag, 0, len(s.postTags[post.ID]))
	for _, tagID := range s.postTags[post.ID] {
		if tag, ok := s.tags[tagID]; ok {
			post.Tags = append(post.Tags, tag)
		}
	}
	return post
}

func (s *Store) fillAuthor(ctx context.Context, post *model.Post) error {
	author, err := s.users.QueryByID(ctx, post.AuthorID)
	if err != nil {
		return err
	}
	post.Author = author
	return nil
}

// 调用方需持有锁
func (s *Store) categoryNameTaken(name string) bool {
	for _, category := range s.categories {
		if strings.EqualFold(category.Name, name) {
			return true
		}
	}
	return false
}

func stripAssociations(post model.Post) model.Post {
	post.Author = usermodel.User{}
	post.Category = model.Category{}
	post.Tags = nil
	return post
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "blogsphere/pkg/common/errors"
	"blogsphere/pkg/core/auth"
	"blogsphere/pkg/core/blog/model"
	"blogsphere/pkg/core/blog/repository/dao/memory"
	usermodel "blogsphere/pkg/core/user/model"
	usermemory "blogsphere/pkg/core/user/repository/dao/memory"
)

type fixture struct {
	posts      *PostService
	categories *CategoryService
	tags       *TagService

	alice auth.Identity
	bob   auth.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	users := usermemory.NewUserRepository()
	alice := &usermodel.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x"}
	bob := &usermodel.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, users.CreateUser(ctx, alice))
	require.NoError(t, users.CreateUser(ctx, bob))

	store := memory.NewStore(users)
	return &fixture{
		posts:      NewPostService(store, store, store),
		categories: NewCategoryService(store),
		tags:       NewTagService(store),
		alice:      auth.Authenticated(*alice),
		bob:        auth.Authenticated(*bob),
	}
}

func (f *fixture) seedPost(t *testing.T, author auth.Identity, status string) model.Post {
	t.Helper()
	ctx := context.Background()

	categories, err := f.categories.List(ctx)
	require.NoError(t, err)
	var categoryID string
	if len(categories) > 0 {
		categoryID = categories[0].ID
	} else {
		category, err := f.categories.Create(ctx, "General")
		require.NoError(t, err)
		categoryID = category.ID
	}

	post, err := f.posts.Create(ctx, author, PostInput{
		Title:      "A post title",
		Content:    "some words in a post",
		Status:     status,
		CategoryID: categoryID,
	})
	require.NoError(t, err)
	return post
}

func TestPostCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	category, err := f.categories.Create(ctx, "Go")
	require.NoError(t, err)
	tags, err := f.tags.Create(ctx, []string{"web", "auth"})
	require.NoError(t, err)

	post, err := f.posts.Create(ctx, f.alice, PostInput{
		Title:      "Hello",
		Content:    "hello world",
		Status:     "published",
		CategoryID: category.ID,
		TagIDs:     []string{tags[0].ID, tags[1].ID, tags[0].ID},
	})
	require.NoError(t, err)
	assert.Equal(t, f.alice.UserID(), post.AuthorID)
	assert.Equal(t, "Alice", post.Author.Name)
	assert.Equal(t, model.PostStatusPublished, post.Status)
	assert.Equal(t, 1, post.ReadingTime)
	assert.Len(t, post.Tags, 2)

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.posts.Create(ctx, auth.Anonymous(), PostInput{})
		assert.Equal(t, 401, apperrors.StatusOf(err))
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := f.posts.Create(ctx, f.alice, PostInput{Title: "Hello", Content: "x", Status: "DRAFT", CategoryID: "missing"})
		assert.ErrorIs(t, err, apperrors.ErrCategoryNotFound)
	})

	t.Run("unknown tag", func(t *testing.T) {
		_, err := f.posts.Create(ctx, f.alice, PostInput{
			Title: "Hello", Content: "x", Status: "DRAFT", CategoryID: category.ID, TagIDs: []string{"missing"},
		})
		assert.Equal(t, 404, apperrors.StatusOf(err))
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := f.posts.Create(ctx, f.alice, PostInput{Title: "x", Content: "x", Status: "DRAFT", CategoryID: category.ID})
		assert.Equal(t, 400, apperrors.StatusOf(err))

		_, err = f.posts.Create(ctx, f.alice, PostInput{Title: "Hello", Content: "x", Status: "ARCHIVED", CategoryID: category.ID})
		assert.Equal(t, 400, apperrors.StatusOf(err))
	})
}

func TestPostVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := f.seedPost(t, f.alice, "DRAFT")
	published := f.seedPost(t, f.alice, "PUBLISHED")

	_, err := f.posts.Get(ctx, f.alice, draft.ID)
	assert.NoError(t, err)
	_, err = f.posts.Get(ctx, f.bob, draft.ID)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
	_, err = f.posts.Get(ctx, auth.Anonymous(), draft.ID)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
	_, err = f.posts.Get(ctx, auth.Anonymous(), published.ID)
	assert.NoError(t, err)

	listed, err := f.posts.List(ctx, auth.Anonymous(), PostQuery{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, published.ID, listed[0].ID)

	_, err = f.posts.List(ctx, auth.Anonymous(), PostQuery{Status: "DRAFT"})
	assert.Equal(t, 401, apperrors.StatusOf(err))

	bobDrafts, err := f.posts.List(ctx, f.bob, PostQuery{Status: "DRAFT"})
	require.NoError(t, err)
	assert.Empty(t, bobDrafts)

	aliceDrafts, err := f.posts.Drafts(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, aliceDrafts, 1)
	assert.Equal(t, draft.ID, aliceDrafts[0].ID)

	_, err = f.posts.List(ctx, auth.Anonymous(), PostQuery{CategoryID: "missing"})
	assert.ErrorIs(t, err, apperrors.ErrCategoryNotFound)
}

func TestPostOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	post := f.seedPost(t, f.alice, "PUBLISHED")

	err := f.posts.Delete(ctx, f.bob, post.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.posts.Update(ctx, f.bob, post.ID, PostInput{
		Title: "Hijacked", Content: "x", Status: "PUBLISHED", CategoryID: post.CategoryID,
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	untouched, err := f.posts.Get(ctx, auth.Anonymous(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, untouched.Title)

	updated, err := f.posts.Update(ctx, f.alice, post.ID, PostInput{
		Title: "Renamed", Content: "one two three", Status: "DRAFT", CategoryID: post.CategoryID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, model.PostStatusDraft, updated.Status)

	require.NoError(t, f.posts.Delete(ctx, f.alice, post.ID))
	_, err = f.posts.Get(ctx, f.alice, post.ID)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
}

func TestCategoryService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	category, err := f.categories.Create(ctx, "  Go Lang  ")
	require.NoError(t, err)
	assert.Equal(t, "Go Lang", category.Name)

	_, err = f.categories.Create(ctx, "go lang")
	assert.Equal(t, 409, apperrors.StatusOf(err))

	_, err = f.categories.Create(ctx, "x")
	assert.Equal(t, 400, apperrors.StatusOf(err))
	_, err = f.categories.Create(ctx, "bad/name")
	assert.Equal(t, 400, apperrors.StatusOf(err))

	assert.NoError(t, f.categories.Delete(ctx, "missing"))

	post, err := f.posts.Create(ctx, f.alice, PostInput{Title: "Hello", Content: "x", Status: "DRAFT", CategoryID: category.ID})
	require.NoError(t, err)
	assert.Equal(t, 409, apperrors.StatusOf(f.categories.Delete(ctx, category.ID)))

	require.NoError(t, f.posts.Delete(ctx, f.alice, post.ID))
	require.NoError(t, f.categories.Delete(ctx, category.ID))

	categories, err := f.categories.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestTagService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.tags.Create(ctx, []string{"go", "web"})
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := f.tags.Create(ctx, []string{"web", "auth", " auth "})
	require.NoError(t, err)
	require.Len(t, second, 2)

	listed, err := f.tags.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 3)

	_, err = f.tags.Create(ctx, nil)
	assert.Equal(t, 400, apperrors.StatusOf(err))
	_, err = f.tags.Create(ctx, []string{"x"})
	assert.Equal(t, 400, apperrors.StatusOf(err))
	_, err = f.tags.Create(ctx, []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9", "t10", "t11"})
	assert.Equal(t, 400, apperrors.StatusOf(err))

	assert.NoError(t, f.tags.Delete(ctx, "missing"))
	assert.NoError(t, f.tags.Delete(ctx, first[0].ID))
}

func TestTagServiceNamesIgnoreCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.tags.Create(ctx, []string{"go"})
	require.NoError(t, err)
	require.Len(t, first, 1)

	again, err := f.tags.Create(ctx, []string{"Go", "GO", "Web"})
	require.NoError(t, err)
	require.Len(t, again, 2)

	byName := map[string]string{}
	for _, tag := range again {
		byName[tag.Name] = tag.ID
	}
	assert.Equal(t, first[0].ID, byName["go"], "existing tag is returned with its stored spelling")
	assert.Contains(t, byName, "Web")

	listed, err := f.tags.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

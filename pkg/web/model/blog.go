package model

import (
	"time"

	blogmodel "blogsphere/pkg/core/blog/model"
)

type (
	CreatePostReq struct {
		Title      string   `json:"title" vd:"@:len($)>0; msg:'title is required'"`
		Content    string   `json:"content" vd:"@:len($)>0; msg:'content is required'"`
		Status     string   `json:"status" vd:"@:len($)>0; msg:'status is required'"`
		CategoryID string   `json:"categoryId" vd:"@:len($)>0; msg:'categoryId is required'"`
		TagIDs     []string `json:"tagIds"`
	}

	// UpdatePostReq 全量更新
	UpdatePostReq = CreatePostReq

	CreateCategoryReq struct {
		Name string `json:"name" vd:"@:len($)>0; msg:'category name is required'"`
	}

	CreateTagsReq struct {
		Names []string `json:"names" vd:"@:len($)>0; msg:'tag names are required'"`
	}

	AuthorRes struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	CategoryRes struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		PostCount int64  `json:"postCount"`
	}

	TagRes struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		PostCount int64  `json:"postCount"`
	}

	PostRes struct {
		ID          string      `json:"id"`
		Title       string      `json:"title"`
		Content     string      `json:"content"`
		Status      string      `json:"status"`
		ReadingTime int         `json:"readingTime"`
		Author      AuthorRes   `json:"author"`
		Category    CategoryRes `json:"category"`
		Tags        []TagRes    `json:"tags"`
		CreatedAt   time.Time   `json:"createdAt"`
		UpdatedAt   time.Time   `json:"updatedAt"`
	}
)

func NewCategoryRes(category blogmodel.Category) CategoryRes {
	return CategoryRes{ID: category.ID, Name: category.Name, PostCount: category.PostCount}
}

func NewCategoryResList(categories []blogmodel.Category) []CategoryRes {
	out := make([]CategoryRes, 0, len(categories))
	for _, c := range categories {
		out = append(out, NewCategoryRes(c))
	}
	return out
}

func NewTagRes(tag blogmodel.Tag) TagRes {
	return TagRes{ID: tag.ID, Name: tag.Name, PostCount: tag.PostCount}
}

func NewTagResList(tags []blogmodel.Tag) []TagRes {
	out := make([]TagRes, 0, len(tags))
	for _, t := range tags {
		out = append(out, NewTagRes(t))
	}
	return out
}

func NewPostRes(post blogmodel.Post) PostRes {
	return PostRes{
		ID:          post.ID,
		Title:       post.Title,
		Content:     post.Content,
		Status:      string(post.Status),
		ReadingTime: post.ReadingTime,
		Author:      AuthorRes{ID: post.Author.ID, Name: post.Author.Name},
		Category:    NewCategoryRes(post.Category),
		Tags:        NewTagResList(post.Tags),
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
}

func NewPostResList(posts []blogmodel.Post) []PostRes {
	out := make([]PostRes, 0, len(posts))
	for _, p := range posts {
		out = append(out, NewPostRes(p))
	}
	return out
}

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	usermodel "blogsphere/pkg/core/user/model"
)

type PostStatus string

const (
	PostStatusDraft     PostStatus = "DRAFT"
	PostStatusPublished PostStatus = "PUBLISHED"
)

const wordsPerMinute = 200

// ParsePostStatus 不区分大小写
func ParsePostStatus(raw string) (PostStatus, error) {
	switch PostStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case PostStatusDraft:
		return PostStatusDraft, nil
	case PostStatusPublished:
		return PostStatusPublished, nil
	default:
		return "", fmt.Errorf("unknown post status %q", raw)
	}
}

type Post struct {
	ID          string         `gorm:"type:char(36);primaryKey"`
	Title       string         `gorm:"type:varchar(200);not null"`
	Content     string         `gorm:"type:text;not null"`
	Status      PostStatus     `gorm:"type:varchar(16);index;not null"`
	ReadingTime int            `gorm:"not null"`
	AuthorID    string         `gorm:"type:char(36);index;not null"`
	Author      usermodel.User `gorm:"foreignKey:AuthorID"`
	CategoryID  string         `gorm:"type:char(36);index;not null"`
	Category    Category       `gorm:"foreignKey:CategoryID"`
	Tags        []Tag          `gorm:"many2many:post_tags;"`
	CreatedAt   time.Time      `gorm:"index;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// IsOwnedBy 匿名用户（空ID）不拥有任何文章
func (p Post) IsOwnedBy(userID string) bool {
	return userID != "" && p.AuthorID == userID
}

// VisibleTo 已发布文章对所有人可见，草稿只对作者可见
func (p Post) VisibleTo(userID string) bool {
	return p.Status == PostStatusPublished || p.IsOwnedBy(userID)
}

// TagIDs 当前关联的标签ID
func (p Post) TagIDs() []string {
	ids := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		ids = append(ids, tag.ID)
	}
	return ids
}

// ReadingTime 按每分钟200词估算阅读时长（向上取整）
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

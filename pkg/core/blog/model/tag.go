package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Tag struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	Name      string    `gorm:"type:varchar(30);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	PostCount int64 `gorm:"-"`
}

func (Tag) TableName() string {
	return "tags"
}

func (t *Tag) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

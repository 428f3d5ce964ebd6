package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 博客作者账号，Email 作为登录标识（区分大小写）
type User struct {
	ID           string    `gorm:"type:char(36);primaryKey"`
	Name         string    `gorm:"type:varchar(100);not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `gorm:"index;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName 定义映射表名
func (User) TableName() string {
	return "users"
}

// BeforeCreate 在插入前生成UUID主键
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// AutoMigrate MySQL 下整表使用 utf8mb4_bin，保证邮箱区分大小写
func AutoMigrate(db *gorm.DB) error {
	if db.Dialector.Name() == "mysql" {
		db = db.Set("gorm:table_options", "DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin COMMENT='博客用户表'")
	}
	return db.AutoMigrate(&User{})
}

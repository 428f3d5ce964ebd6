package model

import "gorm.io/gorm"

func AutoMigrate(db *gorm.DB) error {
	if db.Dialector.Name() == "mysql" {
		db = db.Set("gorm:table_options", "COMMENT='博客内容表'")
	}
	return db.AutoMigrate(&Category{}, &Tag{}, &Post{})
}

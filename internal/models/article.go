package models

import (
	"time"
)

// Article 新闻文章，由 CMS 后台维护，这里只读取并累加浏览量
type Article struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	Title     string    `gorm:"not null" json:"title"`
	Views     int64     `gorm:"default:0" json:"views"` // 浏览/点击量
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

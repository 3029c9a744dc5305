package models

import (
	"time"
)

// Comment 文章下的一条评论；ParentID 为空表示顶层评论
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ArticleID  uint      `gorm:"not null;index" json:"article_id"`
	Article    Article   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ParentID   *uint     `gorm:"index" json:"parent_comment_id"` // Nullable for top-level comments
	Parent     *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AuthorName string    `gorm:"size:80;not null" json:"author_name"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// IsReply 是否为回复
func (c Comment) IsReply() bool {
	return c.ParentID != nil
}

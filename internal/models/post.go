package models

import (
	"time"
)

type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	GroupID   *uint     `gorm:"index" json:"group_id"` // Nullable, 帖子可以不属于任何小组
	Group     *Group    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"group"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	ImageURL  string    `json:"image_url"` // Optional
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 非数据库字段，用于查询时填充
	CommentCount int `gorm:"-" json:"comment_count"`
}

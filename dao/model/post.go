package model

import "gorm.io/gorm"

// Post is a discussion-board entry. Posts on the two boards share the table
// and are partitioned by the Board column.
type Post struct {
	gorm.Model
	Board          Board  `gorm:"index;type:varchar(8);not null"`
	Title          string `gorm:"type:varchar(256);not null"`
	AuthorID       uint   `gorm:"index;not null"`
	Author         User   `gorm:"foreignKey:AuthorID"`
	AuthorNickname string `gorm:"type:varchar(32);not null;comment:nickname at posting time"`
	Views          int    `gorm:"not null;default:0;comment:read counter, one increment per open"`
	CommentCount   int    `gorm:"not null;default:0;comment:cached count, kept equal to live comments"`
	Content        string `gorm:"type:text"`
	Image          string `gorm:"type:text;comment:embedded image, optional"`
}

// Comment belongs to one post. Deleting a comment recomputes the parent
// post's cached CommentCount from the live rows so the two never drift.
type Comment struct {
	gorm.Model
	PostID         uint   `gorm:"index;not null"`
	AuthorID       uint   `gorm:"index;not null"`
	AuthorNickname string `gorm:"type:varchar(32);not null"`
	Content        string `gorm:"type:text;not null"`
}

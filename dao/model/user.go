package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is the basic entity of the system
type User struct {
	gorm.Model
	Username     string                           `gorm:"uniqueIndex;type:varchar(32);not null;comment:login id"`
	Nickname     string                           `gorm:"uniqueIndex;type:varchar(32);not null;comment:display name"`
	Name         string                           `gorm:"type:varchar(64);comment:real name"`
	Email        string                           `gorm:"type:varchar(128);comment:email address"`
	Phone        string                           `gorm:"type:varchar(32);comment:phone number"`
	Password     *string                          `gorm:"type:varchar(128);comment:bcrypt hash, collected but not verified"`
	Platforms    datatypes.JSONSlice[string]      `gorm:"comment:activity channel labels"`
	Region       string                           `gorm:"type:varchar(64);comment:residence region"`
	Points       int                              `gorm:"not null;default:0;comment:point balance, never negative"`
	Contribution int                              `gorm:"not null;default:0;comment:contribution score"`
	Role         Role                             `gorm:"not null;default:2;comment:platform role (guest, user, admin)"`
	Attributes   datatypes.JSONType[UserAttribute] `gorm:"comment:per-user preferences"`
}

// UserAttribute holds per-user preferences that do not deserve their own
// column, stored as a JSON blob.
type UserAttribute struct {
	Language string `json:"language,omitempty"` // preferred UI language (ko, ja, en, zh)
}

// UserInfo is the embedded identity snapshot used in responses.
type UserInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}

// Favorite marks a project as starred by one user. The star is per viewer,
// not a property of the project itself.
type Favorite struct {
	gorm.Model
	UserID    uint `gorm:"uniqueIndex:idx_fav_user_project;not null"`
	ProjectID uint `gorm:"uniqueIndex:idx_fav_user_project;not null"`
}

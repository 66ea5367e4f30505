package model

import "gorm.io/gorm"

// Project is a sponsored campaign creators can apply to.
type Project struct {
	gorm.Model
	Category    Category `gorm:"type:varchar(32);not null;comment:restaurant, hotel, tourist, others"`
	Title       string   `gorm:"type:varchar(128);not null;comment:campaign title"`
	Location    string   `gorm:"type:varchar(64);comment:city or area"`
	Description string   `gorm:"type:varchar(512);comment:campaign description"`
	Points      int      `gorm:"not null;comment:reward value"`
	Deadline    string   `gorm:"type:varchar(16);comment:display date YYYY.MM.DD, optional"`
	Image       string   `gorm:"type:text;comment:embedded image, optional"`
}

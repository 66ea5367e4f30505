package model

import "gorm.io/gorm"

// ApplicationStatus is the lifecycle state of an application.
type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"   // created, result not yet submitted
	ApplicationStatusSubmitted ApplicationStatus = "submitted" // result URL handed in, awaiting review
	ApplicationStatusApproved  ApplicationStatus = "approved"  // terminal, credits granted
	ApplicationStatusRejected  ApplicationStatus = "rejected"  // terminal, no credits
)

// Application is a user's request to participate in a project, tracked
// through the review workflow:
//
//	pending -> submitted -> approved | rejected
//
// Both end states are terminal; nothing returns to pending once submitted.
// ProjectName and Points are snapshots taken at application time so later
// edits to the project do not change what was promised.
type Application struct {
	gorm.Model
	UserID      uint              `gorm:"index;not null;comment:owner"`
	User        User              `gorm:"foreignKey:UserID"`
	ProjectID   uint              `gorm:"index;not null"`
	Project     Project           `gorm:"foreignKey:ProjectID"`
	ProjectName string            `gorm:"type:varchar(128);not null;comment:project title at application time"`
	Points      int               `gorm:"not null;comment:reward value at application time"`
	Date        string            `gorm:"type:varchar(16);not null;comment:chosen appointment date"`
	Time        string            `gorm:"type:varchar(8);comment:chosen appointment time"`
	Status      ApplicationStatus `gorm:"type:varchar(16);not null;default:pending"`
	ResultURL   string            `gorm:"type:varchar(512);comment:submitted result link"`
}

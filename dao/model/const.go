// Constants mirrored by database columns.
// Gin rejects zero values for fields tagged `required`, so enum-like
// constants start at iota + 1 to keep the zero value out of the valid range.
package model

// User role in the platform
type Role uint8

const (
	RoleGuest Role = iota + 1
	RoleUser
	RoleAdmin
)

// ContributionPerApproval is the fixed contribution credit a user earns for
// every approved application. The ranking view derives the number of
// completed cases as contribution / ContributionPerApproval.
const ContributionPerApproval = 50

// DateLayout is the display layout used for dates across the system
// (registration dates, post dates, deadlines).
const DateLayout = "2006.01.02"

// Board is the partition key of the two discussion boards.
type Board string

const (
	BoardFree Board = "free"
	BoardLife Board = "life"
)

func (b Board) Valid() bool {
	return b == BoardFree || b == BoardLife
}

// Category of a project.
type Category string

const (
	CategoryRestaurant Category = "restaurant"
	CategoryHotel      Category = "hotel"
	CategoryTourist    Category = "tourist"
	CategoryOthers     Category = "others"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryRestaurant, CategoryHotel, CategoryTourist, CategoryOthers:
		return true
	}
	return false
}

// Label returns the display label of a category. The switch is total over
// the category set; unknown values fall back to the raw string.
func (c Category) Label() string {
	switch c {
	case CategoryRestaurant:
		return "Restaurant"
	case CategoryHotel:
		return "Hotel"
	case CategoryTourist:
		return "Tourist Spot"
	case CategoryOthers:
		return "Others"
	}
	return string(c)
}

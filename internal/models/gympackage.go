package models

// Access level values for packages. Full-access packages admit members at any
// time of day; special packages only admit within their configured window
// (plus a grace buffer applied by the check-in verifier).
const (
	AccessLevelFull    = "full"
	AccessLevelSpecial = "special"
)

// GymPackage is a purchasable membership plan.
type GymPackage struct {
	BaseModel

	Name        string  `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Description string  `json:"description" gorm:"size:255"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency" gorm:"size:10;default:'USD'"`

	// Duration is a compact duration expression such as "1m", "6m15d" or
	// "1y", parsed by services.ParseDuration.
	Duration string `json:"duration" gorm:"size:20;not null"`

	AccessLevel string `json:"access_level" gorm:"size:20;default:'full'"`

	// StartTime/EndTime bound the daily access window in "HH:MM" form; only
	// meaningful when AccessLevel is special.
	StartTime string `json:"start_time" gorm:"size:5"`
	EndTime   string `json:"end_time" gorm:"size:5"`

	// NumberOfPasses grants a finite pool of visits; nil means unlimited.
	NumberOfPasses *int `json:"number_of_passes"`

	IsActive bool `json:"is_active" gorm:"default:true"`
}

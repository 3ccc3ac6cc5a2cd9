package models

import (
	"time"
)

// CheckIn records one physical gym entry. Rows are append-only.
//
// CheckInDate holds the local calendar day (YYYY-MM-DD) of CheckInTime and
// participates in a unique index with UserID so the one-check-in-per-day rule
// is enforced by the storage layer, not only by the verifier's read.
type CheckIn struct {
	BaseModel

	UserID    uint `json:"user_id" gorm:"not null;index;uniqueIndex:idx_user_checkin_day"`
	PaymentID uint `json:"payment_id" gorm:"index"`

	CheckInTime  time.Time  `json:"check_in_time" gorm:"not null"`
	CheckOutTime *time.Time `json:"check_out_time"`
	CheckInDate  string     `json:"check_in_date" gorm:"size:10;not null;uniqueIndex:idx_user_checkin_day"`

	VerificationMethod string `json:"verification_method" gorm:"size:20;default:'qr_code'"`
	Area               string `json:"area" gorm:"size:50;default:'Main Gym'"`
	Notes              string `json:"notes" gorm:"size:255"`
}

// CheckInDateOf formats the calendar-day key used by the unique index.
func CheckInDateOf(t time.Time) string {
	return t.Format("2006-01-02")
}

package database

import (
	"time"

	"membership-api/internal/models"
)

// CreateCheckIn appends a check-in record
func CreateCheckIn(checkIn *models.CheckIn) error {
	return DB.Create(checkIn).Error
}

// GetCheckInForDay returns the user's check-in for the given calendar day,
// if one exists.
func GetCheckInForDay(userID uint, day string) (*models.CheckIn, error) {
	var checkIn models.CheckIn
	err := DB.Where("user_id = ? AND check_in_date = ?", userID, day).First(&checkIn).Error
	if err != nil {
		return nil, err
	}
	return &checkIn, nil
}

// GetCheckInByID loads a check-in record
func GetCheckInByID(id uint) (*models.CheckIn, error) {
	var checkIn models.CheckIn
	err := DB.First(&checkIn, id).Error
	if err != nil {
		return nil, err
	}
	return &checkIn, nil
}

// SetCheckOutTime stamps the checkout time on an existing record
func SetCheckOutTime(id uint, at time.Time) error {
	return DB.Model(&models.CheckIn{}).Where("id = ?", id).
		Update("check_out_time", at).Error
}

// GetUserCheckIns returns a user's check-in history, newest first
func GetUserCheckIns(userID uint, limit int) ([]models.CheckIn, error) {
	var checkIns []models.CheckIn
	err := DB.Where("user_id = ?", userID).
		Order("check_in_time DESC").
		Limit(limit).
		Find(&checkIns).Error
	return checkIns, err
}

package database

import (
	"membership-api/internal/models"
)

// GetPackageByID loads a package from the catalog
func GetPackageByID(id uint) (*models.GymPackage, error) {
	var pkg models.GymPackage
	err := DB.First(&pkg, id).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

// GetActivePackages lists purchasable packages
func GetActivePackages() ([]models.GymPackage, error) {
	var pkgs []models.GymPackage
	err := DB.Where("is_active = ?", true).Order("price ASC").Find(&pkgs).Error
	return pkgs, err
}

// CreateUser creates a user account
func CreateUser(user *models.User) error {
	return DB.Create(user).Error
}

// GetUserByID loads a user account
func GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := DB.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail loads a user account by email
func GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := DB.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

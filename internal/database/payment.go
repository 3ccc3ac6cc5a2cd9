package database

import (
	"time"

	"membership-api/internal/models"
)

// CreatePayment creates a ledger entry
func CreatePayment(payment *models.Payment) error {
	return DB.Create(payment).Error
}

// SavePayment persists all fields of a ledger entry
func SavePayment(payment *models.Payment) error {
	return DB.Save(payment).Error
}

// GetPaymentByRef loads a ledger entry by its public reference
func GetPaymentByRef(paymentRef string) (*models.Payment, error) {
	var payment models.Payment
	err := DB.Where("payment_ref = ?", paymentRef).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetPendingTemporaryPayment finds a user's abandoned pending purchase for
// the given method, so payinit can update it in place instead of leaving
// orphaned checkout rows behind.
func GetPendingTemporaryPayment(userID uint, paymentMethod string) (*models.Payment, error) {
	var payment models.Payment
	err := DB.Where("user_id = ? AND payment_method = ? AND payment_status = ? AND is_temporary = ?",
		userID, paymentMethod, models.PaymentStatusPending, true).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetActivePayment returns the user's current active entry: completed,
// permanent, unexpired and not frozen. Most recent expiry wins on ties.
func GetActivePayment(userID uint, now time.Time) (*models.Payment, error) {
	var payment models.Payment
	err := DB.Where("user_id = ? AND payment_status = ? AND is_temporary = ? AND is_frozen = ? AND expiry_date > ?",
		userID, models.PaymentStatusCompleted, false, false, now).
		Order("expiry_date DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetUserPayments returns a user's full ledger history, newest first
func GetUserPayments(userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

// GetPaymentsAwaitingApproval lists the admin approval queue
func GetPaymentsAwaitingApproval() ([]models.Payment, error) {
	var payments []models.Payment
	err := DB.Where("payment_status IN ?",
		[]string{models.PaymentStatusPending, models.PaymentStatusApprovalPending}).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

// GetFrozenPaymentsDue lists frozen entries whose freeze window has elapsed,
// for the scheduled unfreeze sweep.
func GetFrozenPaymentsDue(now time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	err := DB.Where("is_frozen = ? AND freeze_end_date <= ?", true, now).
		Find(&payments).Error
	return payments, err
}

// GetPaymentsExpiringWithin lists active entries expiring inside the window
// that have not been mailed a reminder yet. Frozen entries are excluded;
// their expiry moves at unfreeze, so a reminder now would name a date that
// will no longer be true.
func GetPaymentsExpiringWithin(now time.Time, window time.Duration) ([]models.Payment, error) {
	var payments []models.Payment
	err := DB.Where("payment_status = ? AND is_temporary = ? AND is_frozen = ? AND reminder_sent_at IS NULL AND expiry_date > ? AND expiry_date <= ?",
		models.PaymentStatusCompleted, false, false, now, now.Add(window)).
		Find(&payments).Error
	return payments, err
}

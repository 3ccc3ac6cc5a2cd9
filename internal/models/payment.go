package models

import (
	"time"
)

// Payment method values
const (
	PaymentMethodOnline       = "online"
	PaymentMethodInCash       = "incash"
	PaymentMethodAdmin        = "admin"
	PaymentMethodAdminUpgrade = "admin-upgrade"
)

// Payment status values. Online payments go pending -> approval_pending ->
// completed/failed; incash payments skip approval_pending; admin-created
// payments are born completed.
const (
	PaymentStatusPending         = "pending"
	PaymentStatusApprovalPending = "approval_pending"
	PaymentStatusCompleted       = "completed"
	PaymentStatusFailed          = "failed"
)

// Payment is one membership ledger entry: a single purchase or renewal event.
// Entries are never deleted; failed and expired rows stay behind as history.
type Payment struct {
	BaseModel

	// PaymentRef is the public identifier embedded in QR payloads and used
	// in API routes. Internal numeric IDs never leave the service.
	PaymentRef string `json:"payment_ref" gorm:"size:36;uniqueIndex;not null"`

	UserID uint `json:"user_id" gorm:"not null;index"`

	// Billing fields, opaque to the state machine
	PlanTitle      string  `json:"plan_title" gorm:"size:100;not null"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency" gorm:"size:10;default:'USD'"`
	TransactionRef string  `json:"transaction_ref" gorm:"size:64;index"`

	PaymentMethod string `json:"payment_method" gorm:"size:20;not null;index"`
	PaymentStatus string `json:"payment_status" gorm:"size:20;not null;index"`

	// IsTemporary marks an entry that has not been approved yet; temporary
	// entries are excluded from active-membership determination.
	IsTemporary bool `json:"is_temporary" gorm:"default:true"`

	PaymentDate time.Time `json:"payment_date"`
	ExpiryDate  time.Time `json:"expiry_date" gorm:"index"`

	// Freeze bookkeeping. All three dates are set while frozen and nil
	// otherwise; OriginalExpiryDate is the restore point taken at freeze time.
	IsFrozen           bool       `json:"is_frozen" gorm:"default:false;index"`
	FreezeStartDate    *time.Time `json:"freeze_start_date"`
	FreezeEndDate      *time.Time `json:"freeze_end_date"`
	OriginalExpiryDate *time.Time `json:"original_expiry_date"`

	// ProductID references the purchased package for access-level and
	// pass-count lookup.
	ProductID uint `json:"product_id" gorm:"index"`

	// TotalPasses is the remaining countable visits; nil means unlimited.
	TotalPasses *int `json:"total_passes"`

	// QRCodeData caches the last generated signed payload as JSON.
	QRCodeData string `json:"qr_code_data" gorm:"type:text"`

	// ReceiptPath is the stored path of the uploaded payment receipt image.
	ReceiptPath string `json:"receipt_path" gorm:"size:255"`

	// ReminderSentAt stamps the expiry-reminder email so the sweep does not
	// mail the same entry twice.
	ReminderSentAt *time.Time `json:"reminder_sent_at"`
}

// IsActiveAt reports whether this entry grants access at the given instant:
// completed, permanent, unexpired and not frozen.
func (p *Payment) IsActiveAt(now time.Time) bool {
	return p.PaymentStatus == PaymentStatusCompleted &&
		!p.IsTemporary &&
		!p.IsFrozen &&
		p.ExpiryDate.After(now)
}

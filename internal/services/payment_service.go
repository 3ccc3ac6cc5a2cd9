package services

import (
	"errors"
	"fmt"
	"time"

	"membership-api/internal/database"
	"membership-api/internal/models"
	"membership-api/pkg/logging"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentService owns the membership ledger state machine: purchase
// initialization, receipt upload, admin approval/rejection, admin direct
// sales and plan upgrades. Every transition runs inside one database
// transaction; entries are mutated in place and never deleted.
type PaymentService struct {
	qr                    *QRCodeService
	defaultMembershipDays int
}

// NewPaymentService creates a payment service
func NewPaymentService(qr *QRCodeService, defaultMembershipDays int) *PaymentService {
	return &PaymentService{
		qr:                    qr,
		defaultMembershipDays: defaultMembershipDays,
	}
}

// InitPaymentInput is the member-initiated purchase request
type InitPaymentInput struct {
	UserID        uint
	PackageID     uint
	PlanTitle     string
	Amount        float64
	Currency      string
	PaymentMethod string
}

// InitializePayment creates (or reuses) a pending temporary ledger entry for
// a member-initiated purchase. If the user already has an abandoned pending
// entry for the same method it is updated in place rather than duplicated,
// so abandoned checkouts do not pile up as orphan rows.
func (s *PaymentService) InitializePayment(in InitPaymentInput, now time.Time) (*models.Payment, error) {
	if in.PaymentMethod != models.PaymentMethodOnline && in.PaymentMethod != models.PaymentMethodInCash {
		return nil, NewRejection(KindInvalidState,
			fmt.Sprintf("payment method %q is not member-initiated", in.PaymentMethod))
	}

	planTitle := in.PlanTitle
	amount := in.Amount
	var productID uint
	var passes *int

	if in.PackageID != 0 {
		pkg, err := database.GetPackageByID(in.PackageID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NewRejection(KindPackageNotFound, "package does not exist")
			}
			return nil, fmt.Errorf("failed to load package: %w", err)
		}
		productID = pkg.ID
		planTitle = pkg.Name
		amount = pkg.Price
		passes = copyPasses(pkg.NumberOfPasses)
	}

	payment, err := database.GetPendingTemporaryPayment(in.UserID, in.PaymentMethod)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up pending payment: %w", err)
		}
		payment = &models.Payment{
			PaymentRef:    uuid.NewString(),
			UserID:        in.UserID,
			PaymentMethod: in.PaymentMethod,
			PaymentStatus: models.PaymentStatusPending,
			IsTemporary:   true,
		}
	}

	payment.PlanTitle = planTitle
	payment.Amount = amount
	if in.Currency != "" {
		payment.Currency = in.Currency
	}
	payment.TransactionRef = uuid.NewString()
	payment.ProductID = productID
	payment.TotalPasses = passes
	payment.PaymentDate = now
	// Pending entries never grant access; the real expiry is computed at
	// approval. Seeding it with the payment date keeps expiry >= payment date
	// on every row.
	payment.ExpiryDate = now

	if err := s.attachQR(payment, now); err != nil {
		return nil, err
	}

	if payment.ID == 0 {
		err = database.CreatePayment(payment)
	} else {
		err = database.SavePayment(payment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}
	return payment, nil
}

// UploadReceipt attaches a stored receipt path to an online pending payment
// and moves it to approval_pending. The payment must belong to userID; a
// mismatch reads the same as a missing payment so refs are not probeable.
func (s *PaymentService) UploadReceipt(paymentRef string, userID uint, receiptPath string, now time.Time) (*models.Payment, error) {
	payment, err := s.loadByRef(paymentRef)
	if err != nil {
		return nil, err
	}

	if payment.UserID != userID {
		return nil, NewRejection(KindPaymentNotFound, "payment does not exist")
	}
	if payment.PaymentMethod != models.PaymentMethodOnline {
		return nil, NewRejection(KindInvalidState, "receipts only apply to online payments")
	}
	if payment.PaymentStatus != models.PaymentStatusPending {
		return nil, NewRejection(KindInvalidState,
			fmt.Sprintf("payment is %s, expected pending", payment.PaymentStatus))
	}

	payment.ReceiptPath = receiptPath
	payment.PaymentStatus = models.PaymentStatusApprovalPending
	if err := s.attachQR(payment, now); err != nil {
		return nil, err
	}
	if err := database.SavePayment(payment); err != nil {
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}
	return payment, nil
}

// Approve transitions a pending (incash) or approval_pending (online) entry
// to completed and permanent, stamps the payment date and computes the
// expiry. Approving an already-completed entry is a no-op so retried
// approval links stay idempotent.
func (s *PaymentService) Approve(paymentRef string, now time.Time) (*models.Payment, error) {
	var approved *models.Payment
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		err := database.WithRowLock(tx).
			Where("payment_ref = ?", paymentRef).First(&payment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewRejection(KindPaymentNotFound, "payment does not exist")
			}
			return fmt.Errorf("failed to load payment: %w", err)
		}

		if payment.PaymentStatus == models.PaymentStatusCompleted {
			approved = &payment
			return nil
		}
		if payment.PaymentStatus == models.PaymentStatusFailed {
			return NewRejection(KindInvalidState, "payment was already rejected")
		}

		payment.PaymentStatus = models.PaymentStatusCompleted
		payment.IsTemporary = false
		payment.PaymentDate = now

		expiry, expiryErr := s.approvalExpiry(&payment, now)
		if expiryErr != nil {
			return expiryErr
		}
		payment.ExpiryDate = expiry

		qr := s.qr.GeneratePermanent(payment.PaymentRef, payment.UserID, payment.PaymentStatus, now)
		encoded, encErr := s.qr.Encode(qr)
		if encErr != nil {
			return encErr
		}
		payment.QRCodeData = encoded

		if err := tx.Save(&payment).Error; err != nil {
			return fmt.Errorf("failed to persist payment: %w", err)
		}
		approved = &payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Reject transitions an entry to failed. The row is kept for audit. Like
// Approve, a repeat rejection is a no-op.
func (s *PaymentService) Reject(paymentRef string) (*models.Payment, error) {
	var rejected *models.Payment
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		err := database.WithRowLock(tx).
			Where("payment_ref = ?", paymentRef).First(&payment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewRejection(KindPaymentNotFound, "payment does not exist")
			}
			return fmt.Errorf("failed to load payment: %w", err)
		}

		if payment.PaymentStatus == models.PaymentStatusFailed {
			rejected = &payment
			return nil
		}
		if payment.PaymentStatus == models.PaymentStatusCompleted {
			return NewRejection(KindInvalidState, "payment was already approved")
		}

		payment.PaymentStatus = models.PaymentStatusFailed
		if err := tx.Save(&payment).Error; err != nil {
			return fmt.Errorf("failed to persist payment: %w", err)
		}
		rejected = &payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// AdminSaleInput is an admin-created direct sale
type AdminSaleInput struct {
	UserID    uint
	PackageID uint
	Amount    float64
	Currency  string
	// Duration overrides the package duration when set, using the compact
	// grammar ("1y3m", "30d").
	Duration string
}

// CreateAdminPayment creates a completed ledger entry directly, bypassing
// the pending states. Used for front-desk sales.
func (s *PaymentService) CreateAdminPayment(in AdminSaleInput, now time.Time) (*models.Payment, error) {
	pkg, err := database.GetPackageByID(in.PackageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewRejection(KindPackageNotFound, "package does not exist")
		}
		return nil, fmt.Errorf("failed to load package: %w", err)
	}

	durationExpr := in.Duration
	if durationExpr == "" {
		durationExpr = pkg.Duration
	}
	expiry, err := ExpiryFrom(now, durationExpr)
	if err != nil {
		return nil, err
	}

	amount := in.Amount
	if amount == 0 {
		amount = pkg.Price
	}

	payment := &models.Payment{
		PaymentRef:     uuid.NewString(),
		UserID:         in.UserID,
		PlanTitle:      pkg.Name,
		Amount:         amount,
		TransactionRef: uuid.NewString(),
		PaymentMethod:  models.PaymentMethodAdmin,
		PaymentStatus:  models.PaymentStatusCompleted,
		IsTemporary:    false,
		PaymentDate:    now,
		ExpiryDate:     expiry,
		ProductID:      pkg.ID,
		TotalPasses:    copyPasses(pkg.NumberOfPasses),
	}
	if in.Currency != "" {
		payment.Currency = in.Currency
	}

	qr := s.qr.GeneratePermanent(payment.PaymentRef, payment.UserID, payment.PaymentStatus, now)
	encoded, err := s.qr.Encode(qr)
	if err != nil {
		return nil, err
	}
	payment.QRCodeData = encoded

	if err := database.CreatePayment(payment); err != nil {
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}
	return payment, nil
}

// UpgradeInput upgrades a member's current plan
type UpgradeInput struct {
	UserID    uint
	PackageID uint
	Amount    float64
	Duration  string
}

// Upgrade force-expires the member's current active entry and creates a new
// completed entry whose duration discounts the days already used, never
// dropping below the requested duration minus days used and never going
// negative: unused time is not lost, and a heavily-used plan still gets the
// full requested duration.
func (s *PaymentService) Upgrade(in UpgradeInput, now time.Time) (*models.Payment, error) {
	pkg, err := database.GetPackageByID(in.PackageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewRejection(KindPackageNotFound, "package does not exist")
		}
		return nil, fmt.Errorf("failed to load package: %w", err)
	}

	durationExpr := in.Duration
	if durationExpr == "" {
		durationExpr = pkg.Duration
	}
	requestedDays, err := DurationDays(durationExpr)
	if err != nil {
		return nil, err
	}

	var upgraded *models.Payment
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var current models.Payment
		err := database.WithRowLock(tx).
			Where("user_id = ? AND payment_status = ? AND is_temporary = ? AND is_frozen = ? AND expiry_date > ?",
				in.UserID, models.PaymentStatusCompleted, false, false, now).
			Order("expiry_date DESC").
			First(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewRejection(KindActiveMembershipMissing, "user has no active membership to upgrade")
			}
			return fmt.Errorf("failed to load active payment: %w", err)
		}

		daysUsed := int(now.Sub(current.PaymentDate).Hours() / 24)
		if daysUsed < 0 {
			daysUsed = 0
		}
		effectiveDays := requestedDays
		if requestedDays > daysUsed {
			effectiveDays = requestedDays - daysUsed
		}

		// The superseded entry stays behind as history with its expiry
		// forced to now.
		current.ExpiryDate = now
		if err := tx.Save(&current).Error; err != nil {
			return fmt.Errorf("failed to expire current payment: %w", err)
		}

		amount := in.Amount
		if amount == 0 {
			amount = pkg.Price
		}

		next := &models.Payment{
			PaymentRef:     uuid.NewString(),
			UserID:         in.UserID,
			PlanTitle:      pkg.Name,
			Amount:         amount,
			TransactionRef: uuid.NewString(),
			PaymentMethod:  models.PaymentMethodAdminUpgrade,
			PaymentStatus:  models.PaymentStatusCompleted,
			IsTemporary:    false,
			PaymentDate:    now,
			ExpiryDate:     now.Add(time.Duration(effectiveDays) * 24 * time.Hour),
			ProductID:      pkg.ID,
			TotalPasses:    copyPasses(pkg.NumberOfPasses),
		}

		qr := s.qr.GeneratePermanent(next.PaymentRef, next.UserID, next.PaymentStatus, now)
		encoded, encErr := s.qr.Encode(qr)
		if encErr != nil {
			return encErr
		}
		next.QRCodeData = encoded

		if err := tx.Create(next).Error; err != nil {
			return fmt.Errorf("failed to persist upgraded payment: %w", err)
		}

		logging.Infof("Upgraded membership for user %d: %d requested days, %d used, %d granted",
			in.UserID, requestedDays, daysUsed, effectiveDays)
		upgraded = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return upgraded, nil
}

// approvalExpiry computes the expiry for an approved entry: the package
// duration when the entry references a package with one, otherwise the fixed
// default membership length.
func (s *PaymentService) approvalExpiry(payment *models.Payment, now time.Time) (time.Time, error) {
	if payment.ProductID != 0 {
		pkg, err := database.GetPackageByID(payment.ProductID)
		if err == nil && pkg.Duration != "" {
			return ExpiryFrom(now, pkg.Duration)
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, fmt.Errorf("failed to load package: %w", err)
		}
	}
	return now.Add(time.Duration(s.defaultMembershipDays) * 24 * time.Hour), nil
}

// attachQR regenerates the temporary rotating payload on a not-yet-approved
// entry.
func (s *PaymentService) attachQR(payment *models.Payment, now time.Time) error {
	qr := s.qr.Generate(payment.PaymentRef, payment.UserID, payment.PaymentStatus, now)
	encoded, err := s.qr.Encode(qr)
	if err != nil {
		return err
	}
	payment.QRCodeData = encoded
	return nil
}

func (s *PaymentService) loadByRef(paymentRef string) (*models.Payment, error) {
	payment, err := database.GetPaymentByRef(paymentRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewRejection(KindPaymentNotFound, "payment does not exist")
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	return payment, nil
}

func copyPasses(passes *int) *int {
	if passes == nil {
		return nil
	}
	v := *passes
	return &v
}

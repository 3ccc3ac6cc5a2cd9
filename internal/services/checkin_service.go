package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"membership-api/internal/database"
	"membership-api/internal/models"
	"membership-api/pkg/logging"

	"gorm.io/gorm"
)

// Verification outcomes
const (
	OutcomeCheckedIn       = "checked_in"
	OutcomePendingApproval = "pending_approval"
)

// VerifyResult is the successful (or informational) outcome of a scan.
type VerifyResult struct {
	Outcome string          `json:"outcome"`
	Payment *models.Payment `json:"payment"`
	User    *models.User    `json:"user"`
	CheckIn *models.CheckIn `json:"check_in,omitempty"`
}

// CheckInService decides what a scanned QR payload means: a pending-payment
// acknowledgment or a physical check-in. Check-ins enforce one entry per
// calendar day, the package access window and pass consumption.
//
// Authorization is by payment lookup: the embedded signature is not
// re-derived on scan (see QRCodeService.VerifySignature). The scanned
// payload is treated as an opaque pointer to the ledger entry, whose
// business state is re-checked from the database on every scan.
type CheckInService struct {
	qr          *QRCodeService
	bufferHours int
	lockTTL     time.Duration
}

// NewCheckInService creates a check-in service
func NewCheckInService(qr *QRCodeService, bufferHours int, lockTTL time.Duration) *CheckInService {
	return &CheckInService{
		qr:          qr,
		bufferHours: bufferHours,
		lockTTL:     lockTTL,
	}
}

// Verify runs the scan state machine against raw scanned text.
func (s *CheckInService) Verify(ctx context.Context, raw string, now time.Time) (*VerifyResult, error) {
	payload, err := ParsePayload(raw)
	if err != nil {
		return nil, err
	}

	payment, err := database.GetPaymentByRef(payload.PaymentRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewRejection(KindPaymentNotFound, "no payment matches the scanned code")
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	user, err := database.GetUserByID(payment.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewRejection(KindUserNotFound, "the member on this payment no longer exists")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// A temporary code that is still awaiting approval is informational,
	// not an error: the front desk sees the pending state and nothing is
	// mutated. A temporary code whose payment has since completed behaves
	// like a permanent one.
	if payment.IsTemporary {
		switch payment.PaymentStatus {
		case models.PaymentStatusPending, models.PaymentStatusApprovalPending:
			return &VerifyResult{
				Outcome: OutcomePendingApproval,
				Payment: payment,
				User:    user,
			}, nil
		case models.PaymentStatusCompleted:
			// fall through to check-in
		default:
			return nil, NewRejection(KindInvalidQRType, "this code is no longer usable")
		}
	} else if payment.PaymentStatus != models.PaymentStatusCompleted {
		return nil, NewRejection(KindInvalidQRType, "this code is no longer usable")
	}

	return s.checkIn(ctx, payment, user, now)
}

func (s *CheckInService) checkIn(ctx context.Context, payment *models.Payment, user *models.User, now time.Time) (*VerifyResult, error) {
	if payment.PaymentStatus != models.PaymentStatusCompleted {
		return nil, NewRejection(KindMembershipNotActive, "membership is not active")
	}
	if payment.ExpiryDate.Before(now) {
		return nil, NewRejectionWithContext(KindMembershipExpired, "membership has expired",
			map[string]interface{}{"expiry_date": payment.ExpiryDate})
	}
	if payment.IsFrozen {
		ctxFields := map[string]interface{}{"payment_ref": payment.PaymentRef}
		if payment.FreezeEndDate != nil {
			ctxFields["freeze_end_date"] = *payment.FreezeEndDate
		}
		return nil, NewRejectionWithContext(KindMembershipFrozen, "membership is frozen", ctxFields)
	}

	var pkg *models.GymPackage
	if payment.ProductID != 0 {
		loaded, err := database.GetPackageByID(payment.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NewRejection(KindPackageNotFound, "the purchased package no longer exists")
			}
			return nil, fmt.Errorf("failed to load package: %w", err)
		}
		pkg = loaded
	}

	if pkg != nil && pkg.AccessLevel != models.AccessLevelFull {
		inside, err := insideBufferedWindow(pkg.StartTime, pkg.EndTime, s.bufferHours, now)
		if err != nil {
			return nil, fmt.Errorf("package %d has an invalid access window: %w", pkg.ID, err)
		}
		if !inside {
			return nil, NewRejectionWithContext(KindOutsideAccessWindow,
				"outside the package access hours",
				map[string]interface{}{
					"start_time":   pkg.StartTime,
					"end_time":     pkg.EndTime,
					"buffer_hours": s.bufferHours,
				})
		}
	}

	// Concurrent scans for the same member serialize on a short redis lock;
	// the unique (user_id, check_in_date) index and the conditional pass
	// decrement below are the hard guarantees when redis is unavailable.
	locked, release := s.acquireLock(ctx, user.ID)
	if !locked {
		return nil, NewRejection(KindAlreadyCheckedInToday, "a check-in for this member is already in progress")
	}
	defer release()

	today := models.CheckInDateOf(now)
	var created *models.CheckIn
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.CheckIn
		err := tx.Where("user_id = ? AND check_in_date = ?", user.ID, today).First(&existing).Error
		if err == nil {
			return NewRejectionWithContext(KindAlreadyCheckedInToday, "member already checked in today",
				map[string]interface{}{"check_in": existing})
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to query check-ins: %w", err)
		}

		if payment.TotalPasses != nil {
			if *payment.TotalPasses <= 0 {
				return NewRejection(KindNoPassesRemaining, "no passes remaining on this membership")
			}
			// Conditional decrement so concurrent scans can never push the
			// count below zero.
			res := tx.Model(&models.Payment{}).
				Where("id = ? AND total_passes > 0", payment.ID).
				UpdateColumn("total_passes", gorm.Expr("total_passes - 1"))
			if res.Error != nil {
				return fmt.Errorf("failed to decrement passes: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return NewRejection(KindNoPassesRemaining, "no passes remaining on this membership")
			}
			remaining := *payment.TotalPasses - 1
			payment.TotalPasses = &remaining
		}

		checkIn := &models.CheckIn{
			UserID:             user.ID,
			PaymentID:          payment.ID,
			CheckInTime:        now,
			CheckInDate:        today,
			VerificationMethod: "qr_code",
			Area:               "Main Gym",
			Notes:              fmt.Sprintf("Check-in on %s plan", payment.PlanTitle),
		}
		if err := tx.Create(checkIn).Error; err != nil {
			if isUniqueViolation(err) {
				return NewRejection(KindAlreadyCheckedInToday, "member already checked in today")
			}
			return fmt.Errorf("failed to create check-in: %w", err)
		}
		created = checkIn
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Infof("Check-in recorded for user %d on payment %s", user.ID, payment.PaymentRef)
	return &VerifyResult{
		Outcome: OutcomeCheckedIn,
		Payment: payment,
		User:    user,
		CheckIn: created,
	}, nil
}

// acquireLock takes the per-user redis lock. When redis is not configured
// (tests, degraded mode) the lock is a no-op and the storage-level guards
// carry the serialization.
func (s *CheckInService) acquireLock(ctx context.Context, userID uint) (bool, func()) {
	client := database.GetRedis()
	if client == nil {
		return true, func() {}
	}

	key := fmt.Sprintf("checkin_lock:%d", userID)
	ok, err := client.SetNX(ctx, key, "1", s.lockTTL).Result()
	if err != nil {
		logging.Errorf("Check-in lock unavailable, falling back to storage guards: %v", err)
		return true, func() {}
	}
	if !ok {
		return false, func() {}
	}
	return true, func() {
		if err := client.Del(ctx, key).Err(); err != nil {
			logging.Errorf("Failed to release check-in lock for user %d: %v", userID, err)
		}
	}
}

// insideBufferedWindow reports whether now falls inside [start-buffer,
// end+buffer] on the clock face. Windows may wrap midnight after buffering
// ("23:00"–"01:00" style), so the comparison is modular.
func insideBufferedWindow(startHHMM, endHHMM string, bufferHours int, now time.Time) (bool, error) {
	start, err := minutesOfDay(startHHMM)
	if err != nil {
		return false, err
	}
	end, err := minutesOfDay(endHHMM)
	if err != nil {
		return false, err
	}

	const day = 24 * 60
	buffered := bufferHours * 60
	start = ((start-buffered)%day + day) % day
	end = (end + buffered) % day

	current := now.Hour()*60 + now.Minute()
	if start <= end {
		return current >= start && current <= end, nil
	}
	return current >= start || current <= end, nil
}

func minutesOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return 0, fmt.Errorf("invalid HH:MM value %q", hhmm)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

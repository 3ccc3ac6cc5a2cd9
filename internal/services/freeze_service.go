package services

import (
	"errors"
	"fmt"
	"time"

	"membership-api/internal/database"
	"membership-api/internal/models"
	"membership-api/pkg/logging"

	"gorm.io/gorm"
)

// FreezeService suspends and resumes the expiry clock of a ledger entry.
// The expiry date is left untouched while frozen; the snapshot taken at
// freeze time is the restore point, extended on unfreeze by exactly the
// frozen duration, so the member neither gains nor loses active days.
type FreezeService struct{}

// NewFreezeService creates a freeze service
func NewFreezeService() *FreezeService {
	return &FreezeService{}
}

// Freeze pauses an active entry until freezeEndDate.
func (s *FreezeService) Freeze(paymentRef string, freezeEndDate time.Time, now time.Time) (*models.Payment, error) {
	var frozen *models.Payment
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

		if payment.PaymentStatus != models.PaymentStatusCompleted {
			return NewRejection(KindMembershipNotActive, "only completed memberships can be frozen")
		}
		if payment.IsFrozen {
			return NewRejection(KindInvalidState, "membership is already frozen")
		}
		if !payment.ExpiryDate.After(now) {
			return NewRejectionWithContext(KindMembershipExpired, "membership has already expired",
				map[string]interface{}{"expiry_date": payment.ExpiryDate})
		}
		if !freezeEndDate.After(now) {
			return NewRejection(KindInvalidState, "freeze end date must be in the future")
		}

		snapshot := payment.ExpiryDate
		start := now
		end := freezeEndDate

		payment.IsFrozen = true
		payment.FreezeStartDate = &start
		payment.FreezeEndDate = &end
		payment.OriginalExpiryDate = &snapshot

		if err := tx.Save(&payment).Error; err != nil {
			return fmt.Errorf("failed to persist freeze: %w", err)
		}
		frozen = &payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return frozen, nil
}

// Unfreeze resumes a frozen entry, extending its expiry by the elapsed
// frozen time (now - freezeStart). A concurrent unfreeze racing the
// scheduled sweep is harmless: the loser finds is_frozen already cleared
// and rejects instead of double-extending.
func (s *FreezeService) Unfreeze(paymentRef string, now time.Time) (*models.Payment, error) {
	return s.unfreeze(paymentRef, now, false)
}

// UnfreezeAtBoundary resumes a frozen entry as of its scheduled
// freezeEndDate rather than now. Used by the sweep so an entry whose window
// elapsed between ticks is credited exactly the window it was granted.
func (s *FreezeService) UnfreezeAtBoundary(paymentRef string, now time.Time) (*models.Payment, error) {
	return s.unfreeze(paymentRef, now, true)
}

func (s *FreezeService) unfreeze(paymentRef string, now time.Time, atBoundary bool) (*models.Payment, error) {
	var unfrozen *models.Payment
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

		if !payment.IsFrozen {
			return NewRejection(KindInvalidState, "membership is not frozen")
		}
		if payment.FreezeStartDate == nil || payment.OriginalExpiryDate == nil {
			return fmt.Errorf("frozen payment %s has incomplete freeze bookkeeping", paymentRef)
		}

		var frozenFor time.Duration
		if atBoundary && payment.FreezeEndDate != nil {
			frozenFor = payment.FreezeEndDate.Sub(*payment.FreezeStartDate)
		} else {
			frozenFor = now.Sub(*payment.FreezeStartDate)
		}
		if frozenFor < 0 {
			frozenFor = 0
		}

		payment.ExpiryDate = payment.OriginalExpiryDate.Add(frozenFor)
		payment.IsFrozen = false
		payment.FreezeStartDate = nil
		payment.FreezeEndDate = nil
		payment.OriginalExpiryDate = nil

		if err := tx.Save(&payment).Error; err != nil {
			return fmt.Errorf("failed to persist unfreeze: %w", err)
		}
		unfrozen = &payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unfrozen, nil
}

// SweepDueUnfreezes unfreezes every entry whose freeze window has elapsed.
// Entries are processed independently: one failure is logged and the batch
// continues. Returns the number of entries unfrozen.
func (s *FreezeService) SweepDueUnfreezes(now time.Time) int {
	due, err := database.GetFrozenPaymentsDue(now)
	if err != nil {
		logging.Errorf("Unfreeze sweep query failed: %v", err)
		return 0
	}

	processed := 0
	for i := range due {
		payment := &due[i]
		if _, err := s.UnfreezeAtBoundary(payment.PaymentRef, now); err != nil {
			// A manual unfreeze may have won the race; that is fine.
			if rej, ok := AsRejection(err); ok {
				logging.Infof("Unfreeze sweep skipped payment %s: %s", payment.PaymentRef, rej.Message)
			} else {
				logging.Errorf("Unfreeze sweep failed for payment %s: %v", payment.PaymentRef, err)
			}
			continue
		}
		processed++
	}
	if processed > 0 {
		logging.Infof("Unfreeze sweep resumed %d memberships", processed)
	}
	return processed
}

package services

import (
	"context"
	"testing"
	"time"

	"membership-api/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The sweep mails each expiring membership once, skips frozen entries whose
// expiry will move at unfreeze, and ignores memberships outside the window.
func TestSweepExpiryReminders(t *testing.T) {
	setupTestDB(t)
	qr := newTestQR(t)
	svc := NewReminderService("", "gym@example.com", "Gym")
	now := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)

	expiring := createTestUser(t, "Expiring Soon")
	frozen := createTestUser(t, "Frozen")
	distant := createTestUser(t, "Plenty Left")

	due, _ := createCompletedPayment(t, qr, expiring.ID, 0, nil,
		now.Add(-28*24*time.Hour), now.Add(2*24*time.Hour))

	frozenPayment, _ := createCompletedPayment(t, qr, frozen.ID, 0, nil,
		now.Add(-28*24*time.Hour), now.Add(2*24*time.Hour))
	_, err := NewFreezeService().Freeze(frozenPayment.PaymentRef, now.Add(24*time.Hour), now)
	require.NoError(t, err)

	farOut, _ := createCompletedPayment(t, qr, distant.ID, 0, nil,
		now, now.Add(10*24*time.Hour))

	sent := svc.SweepExpiryReminders(context.Background(), now, 3)
	assert.Equal(t, 1, sent)

	stamped, err := database.GetPaymentByRef(due.PaymentRef)
	require.NoError(t, err)
	assert.NotNil(t, stamped.ReminderSentAt)

	skipped, err := database.GetPaymentByRef(frozenPayment.PaymentRef)
	require.NoError(t, err)
	assert.Nil(t, skipped.ReminderSentAt)

	untouched, err := database.GetPaymentByRef(farOut.PaymentRef)
	require.NoError(t, err)
	assert.Nil(t, untouched.ReminderSentAt)

	// The stamp makes a repeat sweep a no-op.
	assert.Equal(t, 0, svc.SweepExpiryReminders(context.Background(), now.Add(time.Hour), 3))
}

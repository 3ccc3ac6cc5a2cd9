package services

import (
	"testing"
	"time"

	"membership-api/internal/database"
	"membership-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPaymentService(t *testing.T) *PaymentService {
	t.Helper()
	return NewPaymentService(newTestQR(t), 30)
}

func TestInitializePaymentReusesPendingEntry(t *testing.T) {
	setupTestDB(t)
	svc := newTestPaymentService(t)
	user := createTestUser(t, "Init Member")
	now := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)

	first, err := svc.InitializePayment(InitPaymentInput{
		UserID:        user.ID,
		PlanTitle:     "Gold",
		Amount:        50,
		PaymentMethod: models.PaymentMethodInCash,
	}, now)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, first.PaymentStatus)
	assert.True(t, first.IsTemporary)
	assert.NotEmpty(t, first.PaymentRef)
	assert.NotEmpty(t, first.QRCodeData)
	assert.False(t, first.ExpiryDate.Before(first.PaymentDate))

	// A second payinit for the same user and method updates the abandoned
	// entry in place instead of creating a duplicate row.
	second, err := svc.InitializePayment(InitPaymentInput{
		UserID:        user.ID,
		PlanTitle:     "Platinum",
		Amount:        80,
		PaymentMethod: models.PaymentMethodInCash,
	}, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Platinum", second.PlanTitle)

	payments, err := database.GetUserPayments(user.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestInitializePaymentRejectsAdminMethods(t *testing.T) {
	setupTestDB(t)
	svc := newTestPaymentService(t)
	user := createTestUser(t, "Init Member")

	_, err := svc.InitializePayment(InitPaymentInput{
		UserID:        user.ID,
		PlanTitle:     "Gold",
		PaymentMethod: models.PaymentMethodAdmin,
	}, time.Now())
	require.Error(t, err)

	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidState, rej.Kind)
}

func TestUploadReceiptTransitionsOnlinePayment(t *testing.T) {
	setupTestDB(t)
	svc := newTestPaymentService(t)
	user := createTestUser(t, "Online Member")
	now := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)

	payment, err := svc.InitializePayment(InitPaymentInput{
		UserID:        user.ID,
		PlanTitle:     "Gold",
		PaymentMethod: models.PaymentMethodOnline,
	}, now)
	require.NoError(t, err)

	updated, err := svc.UploadReceipt(payment.PaymentRef, user.ID, "/uploads/receipts/r1.jpg", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusApprovalPending, updated.PaymentStatus)
	assert.Equal(t, "/uploads/receipts/r1.jpg", updated.ReceiptPath)
	assert.True(t, updated.IsTemporary)
}

// A member who learns another member's payment ref must not be able to
// attach a receipt to it; the mismatch reads as a missing payment.
func TestUploadReceiptRejectsForeignPayment(t *testing.T) {
	setupTestDB(t)
	svc := newTestPaymentService(t)
	owner := createTestUser(t, "Owner")
	intruder := createTestUser(t, "Intruder")
	now := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)

	payment, err := svc.InitializePayment(InitPaymentInput{
		UserID:        owner.ID,
		PlanTitle:     "Gold",
		PaymentMethod: models.PaymentMethodOnline,
	}, now)
	require.NoError(t, err)

	_, err = svc.UploadReceipt(payment.PaymentRef, intruder.ID, "/uploads/receipts/evil.jpg", now)
	require.Error(t, err)
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, KindPaymentNotFound, rej.Kind)

	// The owner's payment is untouched.
	stored, err := database.GetPaymentByRef(payment.PaymentRef)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
	assert.Empty(t, stored.ReceiptPath)

	// The owner can still complete the flow.
	updated, err := svc.UploadReceipt(payment.PaymentRef, owner.ID, "/uploads/receipts/r1.jpg", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusApprovalPending, updated.PaymentStatus)
}

func TestUploadReceiptRejectsInCashPayment(t *testing.T) {
	setupTestDB(t)
	svc := newTestPaymentService(t)
	user := createTestUser(t, "Cash Member")

	payment, err := svc.InitializePayment(InitPaymentInput{
		UserID:        user.ID,
		PlanTitle:     "Gold",
		PaymentMethod: models.PaymentMethodInCash,
	}, time.Now())
	require.NoError(t, err)

	_, err = svc.UploadReceipt(payment.PaymentRef, user.ID, "/x.jpg", time.Now())
	require.Error(t, err)

	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidState, rej.Kind)
}

// In-cash purchase end to end: pending/temporary at payinit, then approval
// makes it completed/permanent with the 30-day default expiry and a fresh
// permanent QR signature.
func TestInCashApprovalFlow(t *testing.T) {
	setupTestDB(t)
	svc := newTestPaymentService(t)
	user := createTestUser(t, "Cash Member")
	initAt := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	approveAt := initAt.Add(2 * time.Hour)

	payment, err := svc.InitializePayment(InitPaymentInput{
		UserID:        user.ID,
		PlanTitle:     "Gold",
		Amount:        50,
		PaymentMethod: models.PaymentMethodInCash,
	}, initAt)
	require.NoError(t, err)

	pendingPayload, err := ParsePayload(payment.QRCodeData)
	require.NoError(t, err)
	assert.False(t, pendingPayload.IsPermanent)

	approved, err := svc.Approve(payment.PaymentRef, approveAt)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, approved.PaymentStatus)
	assert.False(t, approved.IsTemporary)
	assert.Equal(t, approveAt, approved.PaymentDate)
	assert.Equal(t, approveAt.Add(30*24*time.Hour), approved.ExpiryDate)

	approvedPayload, err := ParsePayload(approved.QRCodeData)
	require.NoError(t, err)
	assert.True(t, approvedPayload.IsPermanent)
	assert.NotEqual(t, pendingPayload.Signature, approvedPayload.Signature)
}

func TestApproveUsesPackageDuration(t *testing.T) {
	setupTestDB(t)
	svc := newTestPaymentService(t)
	user := createTestUser(t, "Cash Member")
	pkg := createTestPackage(t, models.GymPackage{Duration: "3m"})
	now := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)

	payment, err := svc.InitializePayment(InitPaymentInput{
		UserID:        user.ID,
		PackageID:     pkg.ID,
		PaymentMethod: models.PaymentMethodInCash,
	}, now)
	require.NoError(t, err)
	assert.Equal(t, pkg.Name, payment.PlanTitle)

	approved, err := svc.Approve(payment.PaymentRef, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(90*24*time.Hour), approved.ExpiryDate)
}

func TestApproveIsIdempotentAndRejectIsTerminal(t *testing.T) {
	setupTestDB(t)
	svc := newTestPaymentService(t)
	user := createTestUser(t, "Cash Member")
	now := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)

	payment, err := svc.InitializePayment(InitPaymentInput{
		UserID:        user.ID,
		PlanTitle:     "Gold",
		PaymentMethod: models.PaymentMethodInCash,
	}, now)
	require.NoError(t, err)

	approved, err := svc.Approve(payment.PaymentRef, now)
	require.NoError(t, err)

	// Retrying the approval link changes nothing.
	again, err := svc.Approve(payment.PaymentRef, now.Add(time.Hour))
	require.NoError(t, err)
	assert.WithinDuration(t, approved.ExpiryDate, again.ExpiryDate, time.Second)
	assert.WithinDuration(t, approved.PaymentDate, again.PaymentDate, time.Second)

	// A completed payment cannot be rejected afterwards.
	_, err = svc.Reject(payment.PaymentRef)
	require.Error(t, err)
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidState, rej.Kind)
}

func TestRejectKeepsEntryForAudit(t *testing.T) {
	setupTestDB(t)
	svc := newTestPaymentService(t)
	user := createTestUser(t, "Cash Member")

	payment, err := svc.InitializePayment(InitPaymentInput{
		UserID:        user.ID,
		PlanTitle:     "Gold",
		PaymentMethod: models.PaymentMethodInCash,
	}, time.Now())
	require.NoError(t, err)

	rejected, err := svc.Reject(payment.PaymentRef)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, rejected.PaymentStatus)

	// Still present in history.
	stored, err := database.GetPaymentByRef(payment.PaymentRef)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, stored.PaymentStatus)

	// Approving a rejected payment fails.
	_, err = svc.Approve(payment.PaymentRef, time.Now())
	require.Error(t, err)
}

func TestCreateAdminPayment(t *testing.T) {
	setupTestDB(t)
	svc := newTestPaymentService(t)
	user := createTestUser(t, "Walk-in")
	pkg := createTestPackage(t, models.GymPackage{Duration: "1m", NumberOfPasses: intPtr(10)})
	now := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)

	payment, err := svc.CreateAdminPayment(AdminSaleInput{
		UserID:    user.ID,
		PackageID: pkg.ID,
		Duration:  "1y3m",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusCompleted, payment.PaymentStatus)
	assert.False(t, payment.IsTemporary)
	assert.Equal(t, now.Add(455*24*time.Hour), payment.ExpiryDate)
	require.NotNil(t, payment.TotalPasses)
	assert.Equal(t, 10, *payment.TotalPasses)

	payload, err := ParsePayload(payment.QRCodeData)
	require.NoError(t, err)
	assert.True(t, payload.IsPermanent)
}

func TestCreateAdminPaymentRejectsBadDuration(t *testing.T) {
	setupTestDB(t)
	svc := newTestPaymentService(t)
	user := createTestUser(t, "Walk-in")
	pkg := createTestPackage(t, models.GymPackage{})

	_, err := svc.CreateAdminPayment(AdminSaleInput{
		UserID:    user.ID,
		PackageID: pkg.ID,
		Duration:  "forever",
	}, time.Now())
	require.Error(t, err)

	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidDurationFormat, rej.Kind)
}

func TestUpgradeDiscountsUsedDays(t *testing.T) {
	setupTestDB(t)
	svc := newTestPaymentService(t)
	qr := newTestQR(t)
	user := createTestUser(t, "Upgrader")
	pkg := createTestPackage(t, models.GymPackage{Duration: "1m"})
	now := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)

	// Current plan bought 10 days ago with 20 days left.
	current, _ := createCompletedPayment(t, qr, user.ID, pkg.ID, nil,
		now.Add(-10*24*time.Hour), now.Add(20*24*time.Hour))

	next, err := svc.Upgrade(UpgradeInput{
		UserID:    user.ID,
		PackageID: pkg.ID,
		Duration:  "30d",
	}, now)
	require.NoError(t, err)

	// 30 requested − 10 used = 20 effective days.
	assert.Equal(t, now.Add(20*24*time.Hour), next.ExpiryDate)
	assert.Equal(t, models.PaymentMethodAdminUpgrade, next.PaymentMethod)
	assert.Equal(t, models.PaymentStatusCompleted, next.PaymentStatus)

	// The superseded entry is force-expired in place, not deleted.
	old, err := database.GetPaymentByRef(current.PaymentRef)
	require.NoError(t, err)
	assert.WithinDuration(t, now, old.ExpiryDate, time.Second)
}

func TestUpgradeNeverGrantsLessThanRequestedMinusUsed(t *testing.T) {
	setupTestDB(t)
	svc := newTestPaymentService(t)
	qr := newTestQR(t)
	user := createTestUser(t, "Heavy User")
	pkg := createTestPackage(t, models.GymPackage{Duration: "1m"})
	now := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)

	// Bought 40 days ago (more used than the requested 30 days): the new
	// plan still gets the full requested duration.
	createCompletedPayment(t, qr, user.ID, pkg.ID, nil,
		now.Add(-40*24*time.Hour), now.Add(5*24*time.Hour))

	next, err := svc.Upgrade(UpgradeInput{
		UserID:    user.ID,
		PackageID: pkg.ID,
		Duration:  "30d",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*24*time.Hour), next.ExpiryDate)
}

func TestUpgradeRequiresActiveMembership(t *testing.T) {
	setupTestDB(t)
	svc := newTestPaymentService(t)
	user := createTestUser(t, "Lapsed")
	pkg := createTestPackage(t, models.GymPackage{})

	_, err := svc.Upgrade(UpgradeInput{
		UserID:    user.ID,
		PackageID: pkg.ID,
	}, time.Now())
	require.Error(t, err)

	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, KindActiveMembershipMissing, rej.Kind)
}

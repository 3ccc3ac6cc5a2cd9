package services

import (
	"testing"
	"time"

	"membership-api/internal/database"
	"membership-api/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const testSecret = "test-qr-secret"

// setupTestDB points the database package at a fresh in-memory sqlite
// instance. Redis stays nil so the check-in lock degrades to the storage
// guards, which is exactly the path the concurrency tests exercise.
func setupTestDB(t *testing.T) {
	t.Helper()

	// A uniquely named shared-cache database keeps every pooled connection on
	// the same in-memory instance; a plain ":memory:" DSN gives each
	// connection its own empty database, so any query that runs while a
	// transaction holds the first connection would see no tables.
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.GymPackage{},
		&models.Payment{},
		&models.CheckIn{},
	))

	database.DB = db
	database.RedisClient = nil
}

func newTestQR(t *testing.T) *QRCodeService {
	t.Helper()
	qr, err := NewQRCodeService(testSecret)
	require.NoError(t, err)
	return qr
}

func createTestUser(t *testing.T, name string) *models.User {
	t.Helper()
	user := &models.User{
		FullName:     name,
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleMember,
		IsActive:     true,
	}
	require.NoError(t, database.CreateUser(user))
	return user
}

func createTestPackage(t *testing.T, pkg models.GymPackage) *models.GymPackage {
	t.Helper()
	if pkg.Name == "" {
		pkg.Name = "Test Package " + uuid.NewString()
	}
	if pkg.Duration == "" {
		pkg.Duration = "1m"
	}
	if pkg.AccessLevel == "" {
		pkg.AccessLevel = models.AccessLevelFull
	}
	pkg.IsActive = true
	require.NoError(t, database.DB.Create(&pkg).Error)
	return &pkg
}

// createCompletedPayment persists an active ledger entry and returns it with
// its raw scannable QR text.
func createCompletedPayment(t *testing.T, qr *QRCodeService, userID, productID uint, passes *int, paymentDate, expiry time.Time) (*models.Payment, string) {
	t.Helper()

	payment := &models.Payment{
		PaymentRef:    uuid.NewString(),
		UserID:        userID,
		PlanTitle:     "Test Plan",
		PaymentMethod: models.PaymentMethodAdmin,
		PaymentStatus: models.PaymentStatusCompleted,
		IsTemporary:   false,
		PaymentDate:   paymentDate,
		ExpiryDate:    expiry,
		ProductID:     productID,
		TotalPasses:   passes,
	}

	payload := qr.GeneratePermanent(payment.PaymentRef, userID, payment.PaymentStatus, paymentDate)
	encoded, err := qr.Encode(payload)
	require.NoError(t, err)
	payment.QRCodeData = encoded

	require.NoError(t, database.CreatePayment(payment))
	return payment, encoded
}

func intPtr(v int) *int { return &v }

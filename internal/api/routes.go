package api

import (
	"fmt"
	"time"

	"membership-api/internal/config"
	"membership-api/internal/middleware"
	"membership-api/internal/models"
	"membership-api/internal/services"

	"github.com/gin-gonic/gin"
)

var (
	qrService      *services.QRCodeService
	paymentService *services.PaymentService
	freezeService  *services.FreezeService
	checkInService *services.CheckInService
)

// InitServices wires the handler-level services from configuration. The QR
// secret is injected here once; handlers never read the environment.
func InitServices() error {
	cfg := config.AppConfig

	qr, err := services.NewQRCodeService(cfg.QRSecretKey)
	if err != nil {
		return fmt.Errorf("failed to initialize QR code service: %w", err)
	}

	qrService = qr
	paymentService = services.NewPaymentService(qr, cfg.DefaultMembershipDays)
	freezeService = services.NewFreezeService()
	checkInService = services.NewCheckInService(qr, cfg.AccessWindowBufferHours,
		time.Duration(cfg.CheckInLockSeconds)*time.Second)
	return nil
}

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine) error {
	if err := InitServices(); err != nil {
		return err
	}

	api := r.Group("/api")
	{
		// Authentication collaborator (yields {id, role} principals)
		auth := api.Group("/auth")
		{
			auth.POST("/register", Register)
			auth.POST("/login", Login)
		}

		// Member routes
		member := api.Group("")
		member.Use(middleware.AuthMiddleware())
		{
			member.GET("/packages", ListPackages)
			member.POST("/payment/payinit", PayInit)
			member.POST("/payment/receipt/:paymentRef", UploadReceipt)
			member.GET("/membership/status", MembershipStatus)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(), middleware.RequireRole(models.RoleAdmin))
		{
			admin.PUT("/verify", VerifyScan)
			admin.GET("/payments/pending", ListPendingPayments)
			admin.GET("/approvals/:paymentRef/approve", ApprovePayment)
			admin.GET("/approvals/:paymentRef/reject", RejectPayment)
			admin.POST("/payment", CreateAdminPayment)
			admin.POST("/payment/freeze", FreezePayment)
			admin.POST("/payment/unfreeze", UnfreezePayment)
			admin.POST("/checkin/:id/checkout", CheckOut)
		}

		// Upgrades are performed by front-desk staff
		memberships := api.Group("/memberships")
		memberships.Use(middleware.AuthMiddleware(), middleware.RequireRole(models.RoleAdmin))
		{
			memberships.POST("/upgrade", UpgradeMembership)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "membership-api",
		})
	})

	return nil
}

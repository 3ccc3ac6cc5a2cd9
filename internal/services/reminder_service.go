package services

import (
	"context"
	"fmt"
	"time"

	"membership-api/internal/database"
	"membership-api/internal/models"
	"membership-api/pkg/logging"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// ReminderService mails members whose membership is about to expire. Email
// delivery is fire-and-forget: failures are logged and never propagate into
// the sweep or any request.
type ReminderService struct {
	client    *brevo.APIClient
	fromEmail string
	fromName  string
}

// NewReminderService creates a reminder service. With an empty API key the
// service stays constructed but skips sending, so development environments
// work without Brevo credentials.
func NewReminderService(apiKey, fromEmail, fromName string) *ReminderService {
	var client *brevo.APIClient
	if apiKey != "" {
		cfg := brevo.NewConfiguration()
		cfg.AddDefaultHeader("api-key", apiKey)
		client = brevo.NewAPIClient(cfg)
	}
	return &ReminderService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendMembershipExpirationReminder emails one member about an expiring plan.
func (s *ReminderService) SendMembershipExpirationReminder(ctx context.Context, user *models.User, payment *models.Payment, daysRemaining int) error {
	if s.client == nil {
		logging.Infof("Brevo not configured, skipping expiry reminder for user %d", user.ID)
		return nil
	}

	subject := fmt.Sprintf("Your %s membership expires in %d days", payment.PlanTitle, daysRemaining)
	expiry := payment.ExpiryDate.Format("January 2, 2006")

	htmlContent := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
			<h2 style="color: #333;">Hi %s,</h2>
			<p>Your <strong>%s</strong> membership expires on <strong>%s</strong>.</p>
			<p>Renew at the front desk or from your member account to keep training without interruption.</p>
			<p style="color: #999; font-size: 12px; margin-top: 30px;">If you have already renewed, you can ignore this email.</p>
		</div>
	`, user.FullName, payment.PlanTitle, expiry)

	textContent := fmt.Sprintf(
		"Hi %s,\n\nYour %s membership expires on %s.\nRenew at the front desk or from your member account to keep training without interruption.\n",
		user.FullName, payment.PlanTitle, expiry)

	email := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  s.fromName,
			Email: s.fromEmail,
		},
		To: []brevo.SendSmtpEmailTo{
			{Email: user.Email, Name: user.FullName},
		},
		Subject:     subject,
		HtmlContent: htmlContent,
		TextContent: textContent,
	}

	_, _, err := s.client.TransactionalEmailsApi.SendTransacEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send reminder email: %w", err)
	}
	return nil
}

// SweepExpiryReminders mails every member whose active membership expires
// within the window and has not been reminded yet. Per-entry failures are
// logged and the batch continues. Returns the number of reminders sent.
func (s *ReminderService) SweepExpiryReminders(ctx context.Context, now time.Time, daysBefore int) int {
	window := time.Duration(daysBefore) * 24 * time.Hour
	expiring, err := database.GetPaymentsExpiringWithin(now, window)
	if err != nil {
		logging.Errorf("Expiry reminder sweep query failed: %v", err)
		return 0
	}

	sent := 0
	for i := range expiring {
		payment := &expiring[i]

		user, err := database.GetUserByID(payment.UserID)
		if err != nil {
			logging.Errorf("Expiry reminder sweep: user %d missing for payment %s: %v",
				payment.UserID, payment.PaymentRef, err)
			continue
		}

		daysRemaining := int(payment.ExpiryDate.Sub(now).Hours() / 24)
		if err := s.SendMembershipExpirationReminder(ctx, user, payment, daysRemaining); err != nil {
			logging.Errorf("Expiry reminder failed for payment %s: %v", payment.PaymentRef, err)
			continue
		}

		stamp := now
		payment.ReminderSentAt = &stamp
		if err := database.SavePayment(payment); err != nil {
			logging.Errorf("Failed to stamp reminder on payment %s: %v", payment.PaymentRef, err)
			continue
		}
		sent++
	}
	if sent > 0 {
		logging.Infof("Expiry reminder sweep mailed %d members", sent)
	}
	return sent
}

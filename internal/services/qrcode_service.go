package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// QRPayload is the signed structure serialized into a member's QR code.
//
// Rotating payloads embed a signature bound to the calendar day they were
// generated on; a stale ValidForDate means the code must be regenerated
// before it can be shown as "today's" code. Permanent payloads (issued for
// admin-created completed payments) never rotate.
type QRPayload struct {
	PaymentRef   string `json:"payment_ref"`
	UserID       uint   `json:"user_id"`
	Status       string `json:"status"`
	DailyCode    string `json:"daily_code"`
	Signature    string `json:"signature"`
	GeneratedOn  string `json:"generated_on"`
	ValidForDate string `json:"valid_for_date"`
	IsPermanent  bool   `json:"is_permanent"`
}

// QRCodeService signs and parses QR payloads. The secret is injected at
// construction; business code never reads ambient environment state.
type QRCodeService struct {
	secret []byte
}

// NewQRCodeService creates a QR code service. An empty secret is a
// configuration error: HMAC would still compute, so refuse it outright.
func NewQRCodeService(secret string) (*QRCodeService, error) {
	if secret == "" {
		return nil, fmt.Errorf("qr code secret is empty")
	}
	return &QRCodeService{secret: []byte(secret)}, nil
}

// DailySalt derives the per-day rotation nonce from the local calendar date.
// The date string uses unpadded month and day ("2026-8-3"), matching the
// format the printed codes were originally issued with.
func (s *QRCodeService) DailySalt(now time.Time) string {
	y, m, d := now.Date()
	return s.sign(fmt.Sprintf("%d-%d-%d", y, int(m), d))
}

// Generate produces a rotating payload for a payment, valid for the calendar
// day of now.
func (s *QRCodeService) Generate(paymentRef string, userID uint, status string, now time.Time) *QRPayload {
	signature := s.sign(fmt.Sprintf("%s-%s", paymentRef, s.DailySalt(now)))
	return &QRPayload{
		PaymentRef:   paymentRef,
		UserID:       userID,
		Status:       status,
		DailyCode:    signature[:8],
		Signature:    signature,
		GeneratedOn:  now.Format(time.RFC3339),
		ValidForDate: now.Format("2006-01-02"),
	}
}

// GeneratePermanent produces a non-rotating payload, used once a membership
// is fully approved so the printed code stays valid for its whole life.
func (s *QRCodeService) GeneratePermanent(paymentRef string, userID uint, status string, now time.Time) *QRPayload {
	signature := s.sign(fmt.Sprintf("%s-%d-permanent", paymentRef, userID))
	return &QRPayload{
		PaymentRef:   paymentRef,
		UserID:       userID,
		Status:       status,
		DailyCode:    signature[:8],
		Signature:    signature,
		GeneratedOn:  now.Format(time.RFC3339),
		ValidForDate: now.Format("2006-01-02"),
		IsPermanent:  true,
	}
}

// EnsureFresh returns the payload unchanged when it is permanent or already
// valid for today, and a regenerated one otherwise.
func (s *QRCodeService) EnsureFresh(payload *QRPayload, now time.Time) *QRPayload {
	if payload.IsPermanent || payload.ValidForDate == now.Format("2006-01-02") {
		return payload
	}
	return s.Generate(payload.PaymentRef, payload.UserID, payload.Status, now)
}

// VerifySignature re-derives the expected signature for a payload and
// compares in constant time.
//
// Note: the check-in verifier currently authorizes scans by looking the
// payment up by ref and re-checking business state; it does not call this.
// The embedded signature is tamper-evidence for displayed/printed codes, not
// the authorization boundary.
func (s *QRCodeService) VerifySignature(payload *QRPayload, now time.Time) bool {
	var expected string
	if payload.IsPermanent {
		expected = s.sign(fmt.Sprintf("%s-%d-permanent", payload.PaymentRef, payload.UserID))
	} else {
		day, err := time.ParseInLocation("2006-01-02", payload.ValidForDate, now.Location())
		if err != nil {
			return false
		}
		expected = s.sign(fmt.Sprintf("%s-%s", payload.PaymentRef, s.DailySalt(day)))
	}
	return hmac.Equal([]byte(expected), []byte(payload.Signature))
}

// Encode serializes a payload for storage in Payment.QRCodeData
func (s *QRCodeService) Encode(payload *QRPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal QR payload: %w", err)
	}
	return string(data), nil
}

// ParsePayload deserializes raw scanned text. A payload without a payment
// ref is rejected here; deeper business checks happen in the verifier.
func ParsePayload(raw string) (*QRPayload, error) {
	var payload QRPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, NewRejection(KindInvalidQRPayload, "scanned data is not a valid QR payload")
	}
	if payload.PaymentRef == "" {
		return nil, NewRejection(KindInvalidQRPayload, "QR payload has no payment reference")
	}
	return &payload, nil
}

func (s *QRCodeService) sign(message string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

package services

import "fmt"

// Rejection kinds surfaced by the check-in verifier and the ledger state
// machine. These are expected control flow, not server faults: handlers map
// them to 4xx responses carrying the kind plus enough context for the
// scanning UI to render an actionable message.
const (
	KindInvalidQRPayload        = "InvalidQRPayload"
	KindPaymentNotFound         = "PaymentNotFound"
	KindUserNotFound            = "UserNotFound"
	KindInvalidQRType           = "InvalidQRType"
	KindMembershipNotActive     = "MembershipNotActive"
	KindMembershipExpired       = "MembershipExpired"
	KindMembershipFrozen        = "MembershipFrozen"
	KindOutsideAccessWindow     = "OutsideAccessWindow"
	KindAlreadyCheckedInToday   = "AlreadyCheckedInToday"
	KindNoPassesRemaining       = "NoPassesRemaining"
	KindPackageNotFound         = "PackageNotFound"
	KindInvalidDurationFormat   = "InvalidDurationFormat"
	KindInvalidState            = "InvalidState"
	KindActiveMembershipMissing = "ActiveMembershipMissing"
)

// Rejection is a structured business-rule rejection. Context carries the
// fields the caller needs to follow up (freeze end date, existing check-in,
// expiry timestamp).
type Rejection struct {
	Kind    string
	Message string
	Context map[string]interface{}
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

// NewRejection builds a rejection without context fields
func NewRejection(kind, message string) *Rejection {
	return &Rejection{Kind: kind, Message: message}
}

// NewRejectionWithContext builds a rejection carrying context fields
func NewRejectionWithContext(kind, message string, context map[string]interface{}) *Rejection {
	return &Rejection{Kind: kind, Message: message, Context: context}
}

// AsRejection unwraps a rejection from an error, if it is one
func AsRejection(err error) (*Rejection, bool) {
	r, ok := err.(*Rejection)
	return r, ok
}

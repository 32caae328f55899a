package model

import (
	"strconv"
	"strings"
	"time"
)

// Payment methods accepted at the front desk.
const (
	MethodCash         = "cash"
	MethodTransfer     = "transfer"
	MethodDebitCard    = "debit_card"
	MethodCreditCard   = "credit_card"
	MethodMobileWallet = "mobile_wallet"
)

// ValidMethod reports whether s is one of the accepted payment methods.
func ValidMethod(s string) bool {
	switch s {
	case MethodCash, MethodTransfer, MethodDebitCard, MethodCreditCard, MethodMobileWallet:
		return true
	}
	return false
}

// Amount is a currency value that tolerates sloppy encodings. Backends have
// been observed sending amounts as JSON numbers and as quoted strings;
// anything unparseable decodes to zero rather than failing the whole
// payload.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*a = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*a = 0
		return nil
	}
	*a = Amount(v)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(a), 'f', -1, 64)), nil
}

func (a Amount) Float64() float64 { return float64(a) }

type Payment struct {
	ID             int64      `json:"id"`
	MemberID       int64      `json:"member_id"`
	Amount         Amount     `json:"amount"`
	PaymentDate    time.Time  `json:"payment_date"`
	PaymentMethod  string     `json:"payment_method"`
	PaymentConcept string     `json:"payment_concept"`
	Description    string     `json:"description"`
	InvoiceNumber  string     `json:"invoice_number"`
	IsVerified     bool       `json:"is_verified"`
	VerifiedBy     *int64     `json:"verified_by"`
	VerifiedAt     *time.Time `json:"verified_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Dashboards and the history view read amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// DonationType selects which branch of fields a donation carries.
type DonationType string

const (
	DonationTypeMonetary DonationType = "monetary"
	DonationTypeItem     DonationType = "item"
)

// Valid reports whether t is a known donation type.
func (t DonationType) Valid() bool {
	return t == DonationTypeMonetary || t == DonationTypeItem
}

// PaymentMethod is the method a donor chose; nothing is charged through it.
type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodNetBanking PaymentMethod = "netbanking"
	PaymentMethodQRCode     PaymentMethod = "qrcode"
)

// PaymentMethods lists the accepted payment methods in display order.
var PaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodUPI,
	PaymentMethodNetBanking,
	PaymentMethodQRCode,
}

// Valid reports whether m is an accepted payment method.
func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// DonationStatus enumerates the donation lifecycle.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusCompleted DonationStatus = "completed"
	DonationStatusFailed    DonationStatus = "failed"
)

// Valid reports whether s is a known status.
func (s DonationStatus) Valid() bool {
	switch s {
	case DonationStatusPending, DonationStatusCompleted, DonationStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Only pending rows move, and only to a terminal status.
func (s DonationStatus) CanTransitionTo(next DonationStatus) bool {
	if s != DonationStatusPending {
		return false
	}
	return next == DonationStatusCompleted || next == DonationStatusFailed
}

// Donation is one recorded submission in the ledger.
type Donation struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	DonorName       string           `json:"donorName"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	City            string           `json:"city"`
	Message         *string          `json:"message"`
	DonationType    DonationType     `json:"donationType"`
	Amount          *decimal.Decimal `json:"amount"`
	PaymentMethod   *PaymentMethod   `json:"paymentMethod"`
	ItemType        *string          `json:"itemType"`
	Quantity        *int             `json:"quantity"`
	ItemDescription *string          `json:"itemDescription"`
	Status          DonationStatus   `json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// MaxAmount is the exclusive upper bound for a monetary amount. Amounts are
// stored as numeric(12,2).
var MaxAmount = decimal.New(1, 10)

// ValidAmount reports whether a is positive, below MaxAmount and has at most
// two decimal places.
func ValidAmount(a decimal.Decimal) bool {
	return a.IsPositive() && a.LessThan(MaxAmount) && a.Equal(a.Truncate(2))
}

// CheckBranches verifies that exactly the fields of the donation's own branch
// are populated. The returned error wraps ErrInvariantViolation.
func (d *Donation) CheckBranches() error {
	monetary := d.Amount != nil || d.PaymentMethod != nil
	item := d.ItemType != nil || d.Quantity != nil || d.ItemDescription != nil

	switch d.DonationType {
	case DonationTypeMonetary:
		if item {
			return fmt.Errorf("%w: monetary donation carries item fields", ErrInvariantViolation)
		}
		if d.Amount == nil || d.PaymentMethod == nil {
			return fmt.Errorf("%w: monetary donation requires amount and payment method", ErrInvariantViolation)
		}
		if !ValidAmount(*d.Amount) {
			return fmt.Errorf("%w: amount %s out of range", ErrInvariantViolation, d.Amount)
		}
		if !d.PaymentMethod.Valid() {
			return fmt.Errorf("%w: unknown payment method %q", ErrInvariantViolation, *d.PaymentMethod)
		}
	case DonationTypeItem:
		if monetary {
			return fmt.Errorf("%w: item donation carries monetary fields", ErrInvariantViolation)
		}
		if d.ItemType == nil || strings.TrimSpace(*d.ItemType) == "" || d.Quantity == nil {
			return fmt.Errorf("%w: item donation requires item type and quantity", ErrInvariantViolation)
		}
		if *d.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", ErrInvariantViolation)
		}
	default:
		return fmt.Errorf("%w: unknown donation type %q", ErrInvariantViolation, d.DonationType)
	}
	return nil
}

// DonationFilter narrows administrative listings.
type DonationFilter struct {
	Status DonationStatus `schema:"status"`
	Type   DonationType   `schema:"type"`
	Limit  int            `schema:"limit"`
}

// Matches reports whether d passes the filter's status and type constraints.
func (f DonationFilter) Matches(d Donation) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.Type != "" && d.DonationType != f.Type {
		return false
	}
	return true
}

// RecentDonation is the anonymised shape exposed on the public feed.
type RecentDonation struct {
	DonorName    string           `json:"donorName"`
	DonationType DonationType     `json:"donationType"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	ItemType     *string          `json:"itemType,omitempty"`
	Quantity     *int             `json:"quantity,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// Anonymize trims a donation down to the public feed shape, keeping only the
// donor's first name.
func (d Donation) Anonymize() RecentDonation {
	name := strings.TrimSpace(d.DonorName)
	if fields := strings.Fields(name); len(fields) > 0 {
		name = fields[0]
	}
	return RecentDonation{
		DonorName:    name,
		DonationType: d.DonationType,
		Amount:       d.Amount,
		ItemType:     d.ItemType,
		Quantity:     d.Quantity,
		CreatedAt:    d.CreatedAt,
	}
}

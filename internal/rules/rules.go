// Package rules holds the field validation shared by the intake flow and the
// ledger. Every function here is pure.
package rules

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"server/internal/domain"
)

// Step identifies one page of the intake flow.
type Step int

const (
	StepDonorInfo Step = iota
	StepLocationDetails
	StepAmountSelection
	StepConfirmation
)

var stepNames = [...]string{"DonorInfo", "LocationDetails", "AmountSelection", "Confirmation"}

func (s Step) String() string {
	if s < StepDonorInfo || s > StepConfirmation {
		return "Unknown"
	}
	return stepNames[s]
}

var (
	contactPattern = regexp.MustCompile(`^[0-9]{10}$`)
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)
)

// DonorTypes are the selectable donor categories.
var DonorTypes = []string{"individual", "corporate", "foundation", "government", "other"}

// Genders are the selectable gender options.
var Genders = []string{"male", "female", "other"}

// PresetAmounts are the one-click amount choices offered on AmountSelection.
var PresetAmounts = []string{"10", "25", "50", "100", "250", "500", "1000"}

var errAmountChoice = errors.New("Please select or enter a valid donation amount")

func anyOf(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func paymentMethods() []any {
	out := make([]any, len(domain.PaymentMethods))
	for i, m := range domain.PaymentMethods {
		out[i] = string(m)
	}
	return out
}

func amountValue(msg string) validation.Rule {
	return validation.By(func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil || !domain.ValidAmount(d) {
			return errors.New(msg)
		}
		return nil
	})
}

func positiveInt(msg string) validation.Rule {
	return validation.By(func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return errors.New(msg)
		}
		return nil
	})
}

var amountChoice = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" || s == domain.CustomAmount {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !domain.ValidAmount(d) {
		return errAmountChoice
	}
	return nil
})

var fieldRules = map[string][]validation.Rule{
	domain.FieldDonorName: {validation.Required.Error("Name is required")},
	domain.FieldDonorType: {
		validation.Required.Error("Donor type is required"),
		validation.In(anyOf(DonorTypes)...).Error("Please select a valid donor type"),
	},
	domain.FieldContactNumber: {
		validation.Required.Error("Contact number is required"),
		validation.Match(contactPattern).Error("Please enter a valid 10-digit number"),
	},
	domain.FieldEmail: {
		validation.Required.Error("Email is required"),
		validation.Match(emailPattern).Error("Please enter a valid email"),
	},
	domain.FieldGender: {
		validation.Required.Error("Gender is required"),
		validation.In(anyOf(Genders)...).Error("Please select a valid gender"),
	},
	domain.FieldAddress: {validation.Required.Error("Address is required")},
	domain.FieldCity:    {validation.Required.Error("City is required")},
	domain.FieldState: {
		validation.Required.Error("State is required"),
		validation.In(anyOf(States)...).Error("Please select a valid state"),
	},
	domain.FieldPincode: {
		validation.Required.Error("PIN code is required"),
		validation.Match(pincodePattern).Error("Please enter a valid 6-digit PIN code"),
	},
	domain.FieldAmount: {
		validation.Required.Error("Please select or enter a donation amount"),
		amountChoice,
	},
	domain.FieldCustomAmount: {
		validation.Required.Error("Please enter a custom amount"),
		amountValue("Please enter a valid amount"),
	},
	domain.FieldPaymentMethod: {
		validation.Required.Error("Payment method is required"),
		validation.In(paymentMethods()...).Error("Please select a valid payment method"),
	},
	domain.FieldItemType: {validation.Required.Error("Item type is required")},
	domain.FieldQuantity: {
		validation.Required.Error("Quantity is required"),
		positiveInt("Please enter a valid quantity"),
	},
}

// StepFields lists the fields validated on step for the given donation type,
// in display order. customAmount is included only when amount is "custom",
// which ValidateStep decides.
func StepFields(step Step, t domain.DonationType) []string {
	switch step {
	case StepDonorInfo:
		return []string{domain.FieldDonorName, domain.FieldDonorType, domain.FieldContactNumber, domain.FieldEmail, domain.FieldGender}
	case StepLocationDetails:
		return []string{domain.FieldAddress, domain.FieldCity, domain.FieldState, domain.FieldPincode}
	case StepAmountSelection:
		if t == domain.DonationTypeItem {
			return []string{domain.FieldItemType, domain.FieldQuantity}
		}
		return []string{domain.FieldAmount, domain.FieldCustomAmount, domain.FieldPaymentMethod}
	}
	return nil
}

// Check validates one field value as it would be checked on step. Fields that
// are not validated on that step always pass.
func Check(step Step, field, value string, t domain.DonationType) error {
	if !contains(StepFields(step, t), field) {
		return nil
	}
	return validation.Validate(strings.TrimSpace(value), fieldRules[field]...)
}

// ValidateStep runs every rule of step against the draft and returns all
// failures keyed by field. The result is empty when the step passes.
func ValidateStep(step Step, d domain.Draft) validation.Errors {
	errs := validation.Errors{}
	for _, field := range StepFields(step, d.DonationType) {
		if field == domain.FieldCustomAmount && strings.TrimSpace(d.Amount) != domain.CustomAmount {
			continue
		}
		if err := Check(step, field, d.Value(field), d.DonationType); err != nil {
			errs[field] = err
		}
	}
	return errs
}

// ResolveAmount turns the amount choice of a validated draft into a number.
func ResolveAmount(d domain.Draft) (decimal.Decimal, error) {
	raw := strings.TrimSpace(d.Amount)
	if raw == domain.CustomAmount {
		raw = strings.TrimSpace(d.CustomAmount)
	}
	return decimal.NewFromString(raw)
}

// ValidateDonation re-checks a donation about to be recorded with the same
// rules the intake flow applies to the contact and branch fields.
func ValidateDonation(d *domain.Donation) validation.Errors {
	errs := validation.Errors{}
	check := func(field, value string) {
		if err := validation.Validate(strings.TrimSpace(value), fieldRules[field]...); err != nil {
			errs[field] = err
		}
	}
	check(domain.FieldDonorName, d.DonorName)
	check(domain.FieldEmail, d.Email)
	if strings.TrimSpace(d.Phone) != "" {
		check(domain.FieldContactNumber, d.Phone)
	}
	if strings.TrimSpace(d.City) == "" {
		errs[domain.FieldCity] = errors.New("City is required")
	}
	switch d.DonationType {
	case domain.DonationTypeMonetary:
		if d.PaymentMethod != nil {
			check(domain.FieldPaymentMethod, string(*d.PaymentMethod))
		}
	case domain.DonationTypeItem:
		if d.ItemType != nil {
			check(domain.FieldItemType, *d.ItemType)
		}
	}
	return errs
}

// Messages flattens validation errors into field → message for responses.
func Messages(errs validation.Errors) map[string]string {
	out := make(map[string]string, len(errs))
	for field, err := range errs {
		if err != nil {
			out[field] = err.Error()
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

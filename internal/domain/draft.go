package domain

import (
	"fmt"
	"strings"
)

// Draft field names, as used on the wire and as error keys.
const (
	FieldDonorName       = "donorName"
	FieldDonorType       = "donorType"
	FieldContactNumber   = "contactNumber"
	FieldEmail           = "email"
	FieldGender          = "gender"
	FieldAddress         = "address"
	FieldCity            = "city"
	FieldState           = "state"
	FieldPincode         = "pincode"
	FieldCountry         = "country"
	FieldDonationType    = "donationType"
	FieldAmount          = "amount"
	FieldCustomAmount    = "customAmount"
	FieldPaymentMethod   = "paymentMethod"
	FieldItemType        = "itemType"
	FieldQuantity        = "quantity"
	FieldItemDescription = "itemDescription"
	FieldMessage         = "message"
)

// CustomAmount is the amount choice that defers to the customAmount field.
const CustomAmount = "custom"

// DefaultCountry is pre-selected on every new draft.
const DefaultCountry = "India"

// BranchFields are cleared whenever the donation type changes.
var BranchFields = []string{
	FieldAmount,
	FieldCustomAmount,
	FieldPaymentMethod,
	FieldItemType,
	FieldQuantity,
	FieldItemDescription,
}

// Draft is the in-progress intake form. All values are kept as entered.
type Draft struct {
	DonorName       string       `json:"donorName"`
	DonorType       string       `json:"donorType"`
	ContactNumber   string       `json:"contactNumber"`
	Email           string       `json:"email"`
	Gender          string       `json:"gender"`
	Address         string       `json:"address"`
	City            string       `json:"city"`
	State           string       `json:"state"`
	Pincode         string       `json:"pincode"`
	Country         string       `json:"country"`
	DonationType    DonationType `json:"donationType"`
	Amount          string       `json:"amount"`
	CustomAmount    string       `json:"customAmount"`
	PaymentMethod   string       `json:"paymentMethod"`
	ItemType        string       `json:"itemType"`
	Quantity        string       `json:"quantity"`
	ItemDescription string       `json:"itemDescription"`
	Message         string       `json:"message"`
}

// NewDraft returns an empty monetary draft pre-filled from the identity.
func NewDraft(id Identity) Draft {
	return Draft{
		DonorName:     id.Name,
		ContactNumber: id.Phone,
		Email:         id.Email,
		Country:       DefaultCountry,
		DonationType:  DonationTypeMonetary,
	}
}

func (d *Draft) field(name string) (*string, bool) {
	switch name {
	case FieldDonorName:
		return &d.DonorName, true
	case FieldDonorType:
		return &d.DonorType, true
	case FieldContactNumber:
		return &d.ContactNumber, true
	case FieldEmail:
		return &d.Email, true
	case FieldGender:
		return &d.Gender, true
	case FieldAddress:
		return &d.Address, true
	case FieldCity:
		return &d.City, true
	case FieldState:
		return &d.State, true
	case FieldPincode:
		return &d.Pincode, true
	case FieldCountry:
		return &d.Country, true
	case FieldAmount:
		return &d.Amount, true
	case FieldCustomAmount:
		return &d.CustomAmount, true
	case FieldPaymentMethod:
		return &d.PaymentMethod, true
	case FieldItemType:
		return &d.ItemType, true
	case FieldQuantity:
		return &d.Quantity, true
	case FieldItemDescription:
		return &d.ItemDescription, true
	case FieldMessage:
		return &d.Message, true
	}
	return nil, false
}

// Value returns the current value of the named field.
func (d Draft) Value(name string) string {
	if name == FieldDonationType {
		return string(d.DonationType)
	}
	if p, ok := d.field(name); ok {
		return *p
	}
	return ""
}

// Set assigns the named field. Enumerated fields are lower-cased.
func (d *Draft) Set(name, value string) error {
	switch name {
	case FieldDonationType:
		t := DonationType(strings.ToLower(strings.TrimSpace(value)))
		if !t.Valid() {
			return fmt.Errorf("unknown donation type %q", value)
		}
		d.DonationType = t
		return nil
	case FieldDonorType, FieldGender, FieldPaymentMethod:
		value = strings.ToLower(strings.TrimSpace(value))
	}
	p, ok := d.field(name)
	if !ok {
		return fmt.Errorf("unknown field %q", name)
	}
	*p = value
	return nil
}

// ClearBranch empties every type-dependent field.
func (d *Draft) ClearBranch() {
	for _, name := range BranchFields {
		p, _ := d.field(name)
		*p = ""
	}
}

package intake

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"server/internal/domain"
	"server/internal/rules"
)

// PanelConfig describes the payee shown on the QR panel.
type PanelConfig struct {
	PayeeVPA  string
	PayeeName string
}

// PanelView is what the QR side-channel shows while it is open.
type PanelView struct {
	Open        bool      `json:"open"`
	AmountText  string    `json:"amountText"`
	PaymentURI  string    `json:"paymentUri"`
	ImagePath   string    `json:"imagePath"`
	ExpiresAt   time.Time `json:"expiresAt"`
	RemainingMS int64     `json:"remainingMs"`
}

var (
	amountPrinter = message.NewPrinter(language.English)
	rupee         = currency.MustParseISO("INR")
)

// FormatAmount renders an amount in rupees for display.
func FormatAmount(amount decimal.Decimal) string {
	return amountPrinter.Sprint(currency.Symbol(rupee.Amount(amount.InexactFloat64())))
}

// PaymentURI builds the UPI deep link encoded into the QR image.
func (c PanelConfig) PaymentURI(amount *decimal.Decimal) string {
	q := url.Values{}
	q.Set("pa", c.PayeeVPA)
	if c.PayeeName != "" {
		q.Set("pn", c.PayeeName)
	}
	if amount != nil {
		q.Set("am", amount.StringFixed(2))
	}
	q.Set("cu", "INR")
	return "upi://pay?" + q.Encode()
}

// QRImage encodes the payment URI as a PNG.
func (c PanelConfig) QRImage(amount *decimal.Decimal, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(c.PaymentURI(amount), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// draftAmount returns the amount the draft currently asks for, or nil when it
// is not a valid number yet.
func draftAmount(d domain.Draft) *decimal.Decimal {
	if strings.TrimSpace(d.Amount) == "" {
		return nil
	}
	amount, err := rules.ResolveAmount(d)
	if err != nil || !amount.IsPositive() {
		return nil
	}
	return &amount
}

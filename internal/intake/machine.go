// Package intake implements the guided donation form: a four-step state
// machine over a Draft, the QR payment side-channel, and the per-session event
// loop that serialises user actions with timer expiry.
package intake

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"server/internal/domain"
	"server/internal/rules"
)

var (
	ErrSubmitInFlight  = errors.New("a submission is already in progress")
	ErrNoNextStep      = errors.New("already on the last step")
	ErrNoPreviousStep  = errors.New("already on the first step")
	ErrNotConfirmation = errors.New("submit is only allowed from confirmation")
	ErrSessionNotFound = errors.New("intake session not found")
	ErrSessionClosed   = errors.New("intake session closed")
)

// Machine owns one draft and its current step. It is not safe for concurrent
// use; a Session drives it from a single goroutine.
type Machine struct {
	identity domain.Identity
	country  string
	step     rules.Step
	draft    domain.Draft
	errors   map[string]string
	panel    PanelConfig
	timer    *qrTimer

	submitting   bool
	lastError    string
	lastDonation *domain.Donation
}

// MachineConfig carries the collaborators a Machine needs.
type MachineConfig struct {
	Identity  domain.Identity
	Country   string
	Panel     PanelConfig
	Clock     Clock
	QRTimeout time.Duration
	// OnQRExpire receives the generation of an expired QR window. The owner
	// must hand it back through Expire on the machine's own goroutine.
	OnQRExpire func(gen uint64)
}

// NewMachine starts a machine on DonorInfo with a draft pre-filled from the
// identity.
func NewMachine(cfg MachineConfig) *Machine {
	m := &Machine{
		identity: cfg.Identity,
		country:  cfg.Country,
		panel:    cfg.Panel,
		errors:   map[string]string{},
		timer:    newQRTimer(cfg.Clock, cfg.QRTimeout, cfg.OnQRExpire),
	}
	m.reset()
	return m
}

func (m *Machine) reset() {
	m.step = rules.StepDonorInfo
	m.draft = domain.NewDraft(m.identity)
	if m.country != "" {
		m.draft.Country = m.country
	}
	m.errors = map[string]string{}
	m.timer.cancel()
}

// Step returns the current step.
func (m *Machine) Step() rules.Step { return m.step }

// Draft returns a copy of the draft.
func (m *Machine) Draft() domain.Draft { return m.draft }

// QROpen reports whether the QR panel is showing.
func (m *Machine) QROpen() bool { return m.timer.active }

// SetField edits one draft field and clears its error. Changing the donation
// type clears every branch field and their errors; choosing qrcode on
// AmountSelection opens the QR panel.
func (m *Machine) SetField(name, value string) error {
	if m.submitting {
		return ErrSubmitInFlight
	}
	if name == domain.FieldDonationType {
		return m.changeDonationType(value)
	}
	previous := m.draft.Value(name)
	if err := m.draft.Set(name, value); err != nil {
		return err
	}
	delete(m.errors, name)
	if name == domain.FieldAmount && m.draft.Amount != domain.CustomAmount {
		delete(m.errors, domain.FieldCustomAmount)
	}
	if name == domain.FieldPaymentMethod {
		m.paymentMethodChanged(previous)
	}
	return nil
}

func (m *Machine) changeDonationType(value string) error {
	previous := m.draft.DonationType
	if err := m.draft.Set(domain.FieldDonationType, value); err != nil {
		return err
	}
	delete(m.errors, domain.FieldDonationType)
	if m.draft.DonationType == previous {
		return nil
	}
	m.draft.ClearBranch()
	for _, field := range domain.BranchFields {
		delete(m.errors, field)
	}
	m.timer.cancel()
	return nil
}

func (m *Machine) paymentMethodChanged(previous string) {
	isQR := m.draft.PaymentMethod == string(domain.PaymentMethodQRCode)
	switch {
	case isQR && m.step == rules.StepAmountSelection:
		m.timer.start()
	case !isQR && previous == string(domain.PaymentMethodQRCode):
		m.timer.cancel()
	}
}

// Next validates the current step and advances on success. On failure the
// returned error is the full set of field errors from rules.ValidateStep.
func (m *Machine) Next() error {
	if m.submitting {
		return ErrSubmitInFlight
	}
	if m.step == rules.StepConfirmation {
		return ErrNoNextStep
	}
	if errs := rules.ValidateStep(m.step, m.draft); len(errs) > 0 {
		for field, msg := range rules.Messages(errs) {
			m.errors[field] = msg
		}
		return errs
	}
	for _, field := range rules.StepFields(m.step, m.draft.DonationType) {
		delete(m.errors, field)
	}
	m.leaveStep()
	m.step++
	return nil
}

// Back moves to the previous step without validating or clearing data.
func (m *Machine) Back() error {
	if m.submitting {
		return ErrSubmitInFlight
	}
	if m.step == rules.StepDonorInfo {
		return ErrNoPreviousStep
	}
	m.leaveStep()
	m.step--
	return nil
}

func (m *Machine) leaveStep() {
	if m.step == rules.StepAmountSelection {
		m.timer.cancel()
	}
}

// CloseQR dismisses the QR panel and cancels its timer.
func (m *Machine) CloseQR() {
	m.timer.cancel()
}

// Expire handles a QR timer expiry. A stale or cancelled window is ignored;
// otherwise the panel closes and the machine attempts Next exactly as a user
// would. It reports whether the expiry was accepted.
func (m *Machine) Expire(gen uint64) (bool, error) {
	if !m.timer.expire(gen) {
		return false, nil
	}
	if m.step != rules.StepAmountSelection {
		return true, nil
	}
	return true, m.Next()
}

// BeginSubmit re-validates every input step, marks a submission in flight and
// returns the donation to record. Fields edited on Confirmation are checked
// again here: on failure the machine moves back to the first failing step
// with its errors set, and the returned error is that step's
// validation.Errors.
func (m *Machine) BeginSubmit() (*domain.Donation, error) {
	if m.submitting {
		return nil, ErrSubmitInFlight
	}
	if m.step != rules.StepConfirmation {
		return nil, ErrNotConfirmation
	}
	for step := rules.StepDonorInfo; step < rules.StepConfirmation; step++ {
		errs := rules.ValidateStep(step, m.draft)
		if len(errs) == 0 {
			continue
		}
		for field, msg := range rules.Messages(errs) {
			m.errors[field] = msg
		}
		m.step = step
		return nil, errs
	}
	d, err := BuildDonation(m.identity, m.draft)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvariantViolation, err)
	}
	m.submitting = true
	m.lastError = ""
	return d, nil
}

// FinishSubmit applies the ledger's answer. Success resets the form for the
// next donation; failure keeps draft and step so the donor can retry.
func (m *Machine) FinishSubmit(recorded *domain.Donation, err error) {
	m.submitting = false
	if err != nil {
		m.lastError = "could not record donation, please try again"
		return
	}
	m.lastDonation = recorded
	m.reset()
}

// Discard drops the draft and stops any timer.
func (m *Machine) Discard() {
	m.timer.cancel()
	m.draft = domain.Draft{}
	m.errors = map[string]string{}
}

// BuildDonation converts a completed draft into the ledger's record shape.
func BuildDonation(id domain.Identity, d domain.Draft) (*domain.Donation, error) {
	donation := &domain.Donation{
		UserID:       id.ID,
		DonorName:    strings.TrimSpace(d.DonorName),
		Email:        strings.TrimSpace(d.Email),
		Phone:        strings.TrimSpace(d.ContactNumber),
		City:         strings.TrimSpace(d.City),
		DonationType: d.DonationType,
	}
	msg := strings.TrimSpace(d.Message)
	if msg == "" && d.DonorType != "" {
		msg = fmt.Sprintf("Donation from %s (%s)", donation.DonorName, d.DonorType)
	}
	if msg != "" {
		donation.Message = &msg
	}

	switch d.DonationType {
	case domain.DonationTypeMonetary:
		amount, err := rules.ResolveAmount(d)
		if err != nil {
			return nil, fmt.Errorf("resolve amount: %w", err)
		}
		method := domain.PaymentMethod(d.PaymentMethod)
		donation.Amount = &amount
		donation.PaymentMethod = &method
	case domain.DonationTypeItem:
		qty, err := strconv.Atoi(strings.TrimSpace(d.Quantity))
		if err != nil {
			return nil, fmt.Errorf("parse quantity: %w", err)
		}
		itemType := strings.TrimSpace(d.ItemType)
		donation.ItemType = &itemType
		donation.Quantity = &qty
		if desc := strings.TrimSpace(d.ItemDescription); desc != "" {
			donation.ItemDescription = &desc
		}
	default:
		return nil, fmt.Errorf("unknown donation type %q", d.DonationType)
	}
	return donation, nil
}

// View is a snapshot of the machine for rendering.
type View struct {
	Step           string            `json:"step"`
	StepIndex      int               `json:"stepIndex"`
	Draft          domain.Draft      `json:"draft"`
	Errors         map[string]string `json:"errors"`
	QR             *PanelView        `json:"qr,omitempty"`
	Submitting     bool              `json:"submitting"`
	LastError      string            `json:"lastError,omitempty"`
	LastDonationID string            `json:"lastDonationId,omitempty"`
	Summary        *Summary          `json:"summary,omitempty"`
}

// Summary is the read-only recap rendered on Confirmation.
type Summary struct {
	Donor    string `json:"donor"`
	Contact  string `json:"contact"`
	Location string `json:"location"`
	Gift     string `json:"gift"`
	Payment  string `json:"payment,omitempty"`
}

// View returns a snapshot for rendering.
func (m *Machine) View() View {
	errs := make(map[string]string, len(m.errors))
	for k, v := range m.errors {
		errs[k] = v
	}
	v := View{
		Step:       m.step.String(),
		StepIndex:  int(m.step),
		Draft:      m.draft,
		Errors:     errs,
		Submitting: m.submitting,
		LastError:  m.lastError,
	}
	if m.lastDonation != nil {
		v.LastDonationID = m.lastDonation.ID
	}
	if m.timer.active {
		amount := draftAmount(m.draft)
		panel := &PanelView{
			Open:       true,
			PaymentURI: m.panel.PaymentURI(amount),
			ImagePath:  "qr.png",
			ExpiresAt:  m.timer.deadline,
		}
		if amount != nil {
			panel.AmountText = FormatAmount(*amount)
		}
		if remaining := m.timer.deadline.Sub(m.timer.clock.Now()); remaining > 0 {
			panel.RemainingMS = remaining.Milliseconds()
		}
		v.QR = panel
	}
	if m.step == rules.StepConfirmation {
		v.Summary = m.summary()
	}
	return v
}

func (m *Machine) summary() *Summary {
	d := m.draft
	s := &Summary{
		Donor:    strings.TrimSpace(fmt.Sprintf("%s (%s, %s)", d.DonorName, d.DonorType, d.Gender)),
		Contact:  fmt.Sprintf("%s, %s", d.ContactNumber, d.Email),
		Location: fmt.Sprintf("%s, %s, %s %s, %s", d.Address, d.City, d.State, d.Pincode, d.Country),
	}
	if d.DonationType == domain.DonationTypeItem {
		s.Gift = fmt.Sprintf("%s x %s", d.Quantity, d.ItemType)
		if d.ItemDescription != "" {
			s.Gift += " (" + d.ItemDescription + ")"
		}
		return s
	}
	if amount := draftAmount(d); amount != nil {
		s.Gift = FormatAmount(*amount)
	}
	s.Payment = d.PaymentMethod
	return s
}

// QRImage renders the QR PNG for the current draft amount.
func (m *Machine) QRImage(size int) ([]byte, error) {
	return m.panel.QRImage(draftAmount(m.draft), size)
}

// Package ledger is the append-mostly store of recorded donations. It re-checks
// every donation before appending and owns the narrow status contract used by
// payment reconciliation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/metrics"
	"server/internal/rules"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 50
	MaxListLimit       = 1000
)

// Service fronts a DonationRepository.
type Service struct {
	repo   domain.DonationRepository
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

// NewService creates a ledger service.
func NewService(repo domain.DonationRepository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Create validates and appends a donation. The caller's ID, status and
// createdAt are ignored. A donation that breaks the branch invariant or the
// field rules is refused with an error wrapping domain.ErrInvariantViolation
// and nothing is appended.
func (s *Service) Create(ctx context.Context, in *domain.Donation) (*domain.Donation, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: nil donation", domain.ErrInvariantViolation)
	}
	d := *in
	if err := d.CheckBranches(); err != nil {
		metrics.DonationsRejected.WithLabelValues("branch").Inc()
		s.logger.Warn().Err(err).Str("user_id", d.UserID).Msg("donation refused")
		return nil, err
	}
	if errs := rules.ValidateDonation(&d); len(errs) > 0 {
		metrics.DonationsRejected.WithLabelValues("fields").Inc()
		s.logger.Warn().Err(errs).Str("user_id", d.UserID).Msg("donation refused")
		return nil, fmt.Errorf("%w: %v", domain.ErrInvariantViolation, errs)
	}

	d.ID = s.newID()
	d.Status = domain.DonationStatusPending
	d.CreatedAt = s.now().UTC()
	if err := s.repo.Create(ctx, &d); err != nil {
		return nil, fmt.Errorf("record donation: %w", err)
	}

	metrics.DonationsRecorded.WithLabelValues(string(d.DonationType)).Inc()
	s.logger.Info().
		Str("donation_id", d.ID).
		Str("user_id", d.UserID).
		Str("donation_type", string(d.DonationType)).
		Msg("donation recorded")
	return &d, nil
}

// ListAll returns every donation matching filter, newest first. Staff only.
func (s *Service) ListAll(ctx context.Context, caller domain.Identity, filter domain.DonationFilter) ([]domain.Donation, error) {
	if !caller.IsStaff() {
		return nil, domain.ErrForbidden
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidFilter, filter.Status)
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: type %q", domain.ErrInvalidFilter, filter.Type)
	}
	if filter.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", domain.ErrInvalidFilter)
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	return s.repo.List(ctx, filter)
}

// ListByOwner returns the caller's own donations, newest first.
func (s *Service) ListByOwner(ctx context.Context, caller domain.Identity) ([]domain.Donation, error) {
	if caller.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListByUser(ctx, caller.ID)
}

// Get returns one donation to its owner or to staff. Other callers see
// domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, caller domain.Identity, id string) (*domain.Donation, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.UserID != caller.ID && !caller.IsStaff() {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

// SetStatus applies a reconciliation outcome. Only pending donations move,
// and only to completed or failed.
func (s *Service) SetStatus(ctx context.Context, id string, status domain.DonationStatus) (*domain.Donation, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, d.Status, status)
	}
	if err := s.repo.UpdateStatus(ctx, id, d.Status, status); err != nil {
		return nil, err
	}
	metrics.StatusTransitions.WithLabelValues(string(status)).Inc()
	s.logger.Info().
		Str("donation_id", id).
		Str("from", string(d.Status)).
		Str("to", string(status)).
		Msg("donation status updated")
	d.Status = status
	return d, nil
}

// Recent returns the public feed of the latest completed donations.
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.RecentDonation, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	rows, err := s.repo.List(ctx, domain.DonationFilter{Status: domain.DonationStatusCompleted, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]domain.RecentDonation, 0, len(rows))
	for _, d := range rows {
		out = append(out, d.Anonymize())
	}
	return out, nil
}

// Snapshot returns every recorded donation for reporting.
func (s *Service) Snapshot(ctx context.Context) ([]domain.Donation, error) {
	return s.repo.List(ctx, domain.DonationFilter{})
}

// IsRefusal reports whether err is a refused donation rather than a storage
// failure.
func IsRefusal(err error) bool {
	return errors.Is(err, domain.ErrInvariantViolation)
}

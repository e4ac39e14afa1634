// Package memory provides in-process repositories for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"server/internal/domain"
)

// DonationStore keeps donations in memory, in insertion order.
type DonationStore struct {
	mu   sync.RWMutex
	rows []domain.Donation
}

// NewDonationStore returns an empty store.
func NewDonationStore() *DonationStore {
	return &DonationStore{}
}

// Ping always succeeds.
func (s *DonationStore) Ping(context.Context) error { return nil }

// Create appends a copy of d.
func (s *DonationStore) Create(_ context.Context, d *domain.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.ID == d.ID {
			return fmt.Errorf("donation %s already exists", d.ID)
		}
	}
	s.rows = append(s.rows, *d)
	return nil
}

// Get returns a copy of the donation with id.
func (s *DonationStore) Get(_ context.Context, id string) (*domain.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.rows {
		if d.ID == id {
			out := d
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns matching donations newest first.
func (s *DonationStore) List(_ context.Context, filter domain.DonationFilter) ([]domain.Donation, error) {
	out := s.snapshot(filter.Matches)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ListByUser returns the donations of userID newest first.
func (s *DonationStore) ListByUser(_ context.Context, userID string) ([]domain.Donation, error) {
	return s.snapshot(func(d domain.Donation) bool { return d.UserID == userID }), nil
}

func (s *DonationStore) snapshot(keep func(domain.Donation) bool) []domain.Donation {
	s.mu.RLock()
	out := []domain.Donation{}
	for _, d := range s.rows {
		if keep(d) {
			out = append(out, d)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// UpdateStatus sets the status of id to to if it currently holds from.
func (s *DonationStore) UpdateStatus(_ context.Context, id string, from, to domain.DonationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID != id {
			continue
		}
		if s.rows[i].Status != from {
			return fmt.Errorf("%w: donation is %s", domain.ErrInvalidTransition, s.rows[i].Status)
		}
		s.rows[i].Status = to
		return nil
	}
	return domain.ErrNotFound
}

var _ domain.DonationRepository = (*DonationStore)(nil)

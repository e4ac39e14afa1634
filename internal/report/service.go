// Package report assembles the staff dashboard from the ledger and the
// directory collections.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"server/internal/aggregate"
	"server/internal/domain"
	"server/internal/metrics"
)

// DonationSource yields a full ledger snapshot.
type DonationSource interface {
	Snapshot(ctx context.Context) ([]domain.Donation, error)
}

// Service computes dashboard summaries on demand.
type Service struct {
	donations DonationSource
	directory domain.DirectoryRepository
	logger    zerolog.Logger
}

// NewService creates a reporting service.
func NewService(donations DonationSource, directory domain.DirectoryRepository, logger zerolog.Logger) *Service {
	return &Service{donations: donations, directory: directory, logger: logger}
}

// Summary reads every source concurrently and reduces them into the
// dashboard payload. Any failed read fails the whole summary.
func (s *Service) Summary(ctx context.Context) (*domain.DashboardSummary, error) {
	start := time.Now()
	defer func() { metrics.ReportDuration.Observe(time.Since(start).Seconds()) }()

	var (
		rows       []domain.Donation
		volunteers []domain.Volunteer
		projects   []string
		stats      domain.DashboardStats
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rows, err = s.donations.Snapshot(ctx)
		return wrap("donations", err)
	})
	g.Go(func() (err error) {
		volunteers, err = s.directory.ListVolunteers(ctx)
		return wrap("volunteers", err)
	})
	g.Go(func() (err error) {
		projects, err = s.directory.ProjectStatuses(ctx)
		return wrap("project statuses", err)
	})
	g.Go(func() (err error) {
		stats.TotalVolunteers, err = s.directory.CountUsersByRole(ctx, domain.UserRoleVolunteer)
		return wrap("volunteer count", err)
	})
	g.Go(func() (err error) {
		stats.TotalDonors, err = s.directory.CountUsersByRole(ctx, domain.UserRoleDonor)
		return wrap("donor count", err)
	})
	g.Go(func() (err error) {
		stats.TotalProjects, err = s.directory.CountProjectsByStatus(ctx, domain.ProjectStatusOngoing)
		return wrap("project count", err)
	})
	g.Go(func() (err error) {
		stats.TotalEvents, err = s.directory.CountEventsByStatus(ctx, domain.EventStatusUpcoming)
		return wrap("event count", err)
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("dashboard summary failed")
		return nil, err
	}

	stats.TotalDonations = aggregate.TotalCompleted(rows)
	return &domain.DashboardSummary{
		Stats:                     stats,
		MonthlyTrend:              aggregate.MonthlyTrend(rows),
		StatusDistribution:        aggregate.StatusDistribution(rows, aggregate.DashboardTopN),
		CategoryDistribution:      aggregate.SkillDistribution(volunteers, aggregate.DashboardTopN),
		ProjectStatusDistribution: aggregate.Distribution(projects, 0),
	}, nil
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("read %s: %w", what, err)
}

package repo

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// DirectoryRepositoryPG reads users, volunteers, projects and events.
type DirectoryRepositoryPG struct {
	db infra.SQLExecutor
}

// NewDirectoryRepository creates a new directory repo.
func NewDirectoryRepository(db infra.SQLExecutor) *DirectoryRepositoryPG {
	return &DirectoryRepositoryPG{db: db}
}

func (r *DirectoryRepositoryPG) countWhere(ctx context.Context, table, column, value string) (int, error) {
	query := fmt.Sprintf("%sselect count(*) from %s where %s = $1",
		sqlinline.MCountWhere, pq.QuoteIdentifier(table), pq.QuoteIdentifier(column))
	var n int
	if err := r.db.QueryRow(ctx, query, value).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// CountUsersByRole counts users holding role.
func (r *DirectoryRepositoryPG) CountUsersByRole(ctx context.Context, role domain.UserRole) (int, error) {
	return r.countWhere(ctx, "users", "role", string(role))
}

// CountProjectsByStatus counts projects in status.
func (r *DirectoryRepositoryPG) CountProjectsByStatus(ctx context.Context, status string) (int, error) {
	return r.countWhere(ctx, "projects", "status", status)
}

// CountEventsByStatus counts events in status.
func (r *DirectoryRepositoryPG) CountEventsByStatus(ctx context.Context, status string) (int, error) {
	return r.countWhere(ctx, "events", "status", status)
}

// ListVolunteers returns every volunteer in registration order.
func (r *DirectoryRepositoryPG) ListVolunteers(ctx context.Context) ([]domain.Volunteer, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListVolunteers)
	if err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	defer rows.Close()

	var out []domain.Volunteer
	for rows.Next() {
		var v domain.Volunteer
		if err := rows.Scan(&v.ID, &v.Name, &v.Skills); err != nil {
			return nil, fmt.Errorf("scan volunteer: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ProjectStatuses returns the status of every project in creation order.
func (r *DirectoryRepositoryPG) ProjectStatuses(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, sqlinline.QProjectStatuses)
	if err != nil {
		return nil, fmt.Errorf("list project statuses: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan project status: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ domain.DirectoryRepository = (*DirectoryRepositoryPG)(nil)

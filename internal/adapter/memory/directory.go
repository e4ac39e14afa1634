package memory

import (
	"context"
	"sync"

	"server/internal/domain"
)

// Directory is an in-memory DirectoryRepository. Zero value is empty and
// ready to use.
type Directory struct {
	mu          sync.RWMutex
	userRoles   []domain.UserRole
	volunteers  []domain.Volunteer
	projects    []string
	eventStates []string
}

// AddUser records one user with role.
func (d *Directory) AddUser(role domain.UserRole) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.userRoles = append(d.userRoles, role)
}

// AddVolunteer records a volunteer.
func (d *Directory) AddVolunteer(v domain.Volunteer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volunteers = append(d.volunteers, v)
}

// AddProject records a project in status.
func (d *Directory) AddProject(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.projects = append(d.projects, status)
}

// AddEvent records an event in status.
func (d *Directory) AddEvent(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.eventStates = append(d.eventStates, status)
}

func countEqual[T comparable](items []T, want T) int {
	n := 0
	for _, item := range items {
		if item == want {
			n++
		}
	}
	return n
}

func (d *Directory) CountUsersByRole(_ context.Context, role domain.UserRole) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return countEqual(d.userRoles, role), nil
}

func (d *Directory) CountProjectsByStatus(_ context.Context, status string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return countEqual(d.projects, status), nil
}

func (d *Directory) CountEventsByStatus(_ context.Context, status string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return countEqual(d.eventStates, status), nil
}

func (d *Directory) ListVolunteers(context.Context) ([]domain.Volunteer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]domain.Volunteer(nil), d.volunteers...), nil
}

func (d *Directory) ProjectStatuses(context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.projects...), nil
}

var _ domain.DirectoryRepository = (*Directory)(nil)

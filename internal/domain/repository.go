package domain

import "context"

// DonationRepository handles donation persistence. Implementations append rows
// as given; invariant checks live in the ledger service.
type DonationRepository interface {
	Create(ctx context.Context, donation *Donation) error
	Get(ctx context.Context, id string) (*Donation, error)
	List(ctx context.Context, filter DonationFilter) ([]Donation, error)
	ListByUser(ctx context.Context, userID string) ([]Donation, error)
	UpdateStatus(ctx context.Context, id string, from, to DonationStatus) error
}

// DirectoryRepository reads the companion collections the dashboard counts.
type DirectoryRepository interface {
	CountUsersByRole(ctx context.Context, role UserRole) (int, error)
	CountProjectsByStatus(ctx context.Context, status string) (int, error)
	CountEventsByStatus(ctx context.Context, status string) (int, error)
	ListVolunteers(ctx context.Context) ([]Volunteer, error)
	ProjectStatuses(ctx context.Context) ([]string, error)
}

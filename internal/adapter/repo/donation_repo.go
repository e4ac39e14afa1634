package repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// DonationRepositoryPG implements DonationRepository using PostgreSQL.
type DonationRepositoryPG struct {
	db infra.SQLExecutor
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(db infra.SQLExecutor) *DonationRepositoryPG {
	return &DonationRepositoryPG{db: db}
}

var donationColumns = []string{
	"id::text", "user_id", "donor_name", "email", "phone", "city", "message", "donation_type",
	"amount", "payment_method", "item_type", "quantity", "item_description", "status", "created_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonation(row rowScanner) (*domain.Donation, error) {
	var (
		d             domain.Donation
		donationType  string
		status        string
		amount        decimal.NullDecimal
		paymentMethod *string
	)
	if err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.DonorName,
		&d.Email,
		&d.Phone,
		&d.City,
		&d.Message,
		&donationType,
		&amount,
		&paymentMethod,
		&d.ItemType,
		&d.Quantity,
		&d.ItemDescription,
		&status,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	d.DonationType = domain.DonationType(donationType)
	d.Status = domain.DonationStatus(status)
	if amount.Valid {
		d.Amount = &amount.Decimal
	}
	if paymentMethod != nil {
		pm := domain.PaymentMethod(*paymentMethod)
		d.PaymentMethod = &pm
	}
	return &d, nil
}

// Create inserts a new donation record.
func (r *DonationRepositoryPG) Create(ctx context.Context, d *domain.Donation) error {
	var paymentMethod *string
	if d.PaymentMethod != nil {
		pm := string(*d.PaymentMethod)
		paymentMethod = &pm
	}
	_, err := r.db.Exec(ctx, sqlinline.QInsertDonation,
		d.ID,
		d.UserID,
		d.DonorName,
		d.Email,
		d.Phone,
		d.City,
		d.Message,
		string(d.DonationType),
		d.Amount,
		paymentMethod,
		d.ItemType,
		d.Quantity,
		d.ItemDescription,
		string(d.Status),
		d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

// Get returns one donation by id.
func (r *DonationRepositoryPG) Get(ctx context.Context, id string) (*domain.Donation, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ErrNotFound
	}
	d, err := scanDonation(r.db.QueryRow(ctx, sqlinline.QGetDonation, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get donation: %w", err)
	}
	return d, nil
}

// List returns donations newest first, narrowed by the filter.
func (r *DonationRepositoryPG) List(ctx context.Context, filter domain.DonationFilter) ([]domain.Donation, error) {
	q := psql.Select(donationColumns...).
		Prefix(sqlinline.MListDonations).
		From("donations").
		OrderBy("created_at desc")
	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Type != "" {
		q = q.Where(sq.Eq{"donation_type": string(filter.Type)})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build donation list: %w", err)
	}
	return r.query(ctx, query, args...)
}

// ListByUser returns the donations recorded for userID, newest first.
func (r *DonationRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.Donation, error) {
	return r.query(ctx, sqlinline.QListDonationsByUser, userID)
}

func (r *DonationRepositoryPG) query(ctx context.Context, query string, args ...any) ([]domain.Donation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	items := []domain.Donation{}
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateStatus moves a donation from one status to another. The update only
// applies while the row still holds from.
func (r *DonationRepositoryPG) UpdateStatus(ctx context.Context, id string, from, to domain.DonationStatus) error {
	if uuid.Validate(id) != nil {
		return domain.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, sqlinline.QUpdateDonationStatus, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("update donation status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var current string
	if err := r.db.QueryRow(ctx, sqlinline.QDonationStatus, id).Scan(&current); err != nil {
		if infra.IsNoRows(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("read donation status: %w", err)
	}
	return fmt.Errorf("%w: donation is %s", domain.ErrInvalidTransition, current)
}

var _ domain.DonationRepository = (*DonationRepositoryPG)(nil)

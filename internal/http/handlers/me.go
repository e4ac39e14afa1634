package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"server/internal/domain"
	"server/internal/middleware"
)

type meResponse struct {
	domain.Identity
	Locale         string          `json:"locale"`
	DonationCount  int             `json:"donationCount"`
	CompletedTotal decimal.Decimal `json:"completedTotal"`
}

// Me returns the verified caller with a short giving summary.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	items, err := a.Ledger.ListByOwner(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	total := decimal.Zero
	for _, d := range items {
		if d.Status == domain.DonationStatusCompleted && d.Amount != nil {
			total = total.Add(*d.Amount)
		}
	}
	a.json(w, http.StatusOK, meResponse{
		Identity:       id,
		Locale:         middleware.LocaleFromContext(r.Context()),
		DonationCount:  len(items),
		CompletedTotal: total,
	})
}

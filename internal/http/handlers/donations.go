package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"server/internal/domain"
)

type donationRequest struct {
	DonorName       string           `json:"donorName"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	City            string           `json:"city"`
	Message         *string          `json:"message"`
	DonationType    string           `json:"donationType"`
	Amount          *decimal.Decimal `json:"amount"`
	PaymentMethod   *string          `json:"paymentMethod"`
	ItemType        *string          `json:"itemType"`
	Quantity        *int             `json:"quantity"`
	ItemDescription *string          `json:"itemDescription"`
}

func (req donationRequest) toDonation(userID string) *domain.Donation {
	d := &domain.Donation{
		UserID:          userID,
		DonorName:       req.DonorName,
		Email:           req.Email,
		Phone:           req.Phone,
		City:            req.City,
		Message:         req.Message,
		DonationType:    domain.DonationType(req.DonationType),
		Amount:          req.Amount,
		ItemType:        req.ItemType,
		Quantity:        req.Quantity,
		ItemDescription: req.ItemDescription,
	}
	if req.PaymentMethod != nil {
		pm := domain.PaymentMethod(*req.PaymentMethod)
		d.PaymentMethod = &pm
	}
	return d
}

type statusRequest struct {
	Status string `json:"status"`
}

func (a *App) DonationsCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req donationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	donation, err := a.Ledger.Create(r.Context(), req.toDonation(id.ID))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"id": donation.ID, "status": donation.Status})
}

func (a *App) DonationsMine(w http.ResponseWriter, r *http.Request) {
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
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) DonationsList(w http.ResponseWriter, r *http.Request) {
	id, _ := a.currentIdentity(r)
	var filter domain.DonationFilter
	if err := a.query.Decode(&filter, r.URL.Query()); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid query")
		return
	}
	items, err := a.Ledger.ListAll(r.Context(), id, filter)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) DonationsGet(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	donation, err := a.Ledger.Get(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, donation)
}

func (a *App) DonationsSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	donation, err := a.Ledger.SetStatus(r.Context(), chi.URLParam(r, "id"), domain.DonationStatus(req.Status))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, donation)
}

func (a *App) DonationsRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a number")
			return
		}
		limit = n
	}
	items, err := a.Ledger.Recent(r.Context(), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := a.Reports.Summary(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, summary)
}

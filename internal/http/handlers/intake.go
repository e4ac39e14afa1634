package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"server/internal/domain"
	"server/internal/intake"
	"server/internal/middleware"
)

type intakeResponse struct {
	ID string `json:"id"`
	intake.View
}

type fieldsRequest struct {
	Fields map[string]string `json:"fields"`
}

// session resolves the caller's intake session from the URL.
func (a *App) session(w http.ResponseWriter, r *http.Request) (*intake.Session, bool) {
	id, ok := a.currentIdentity(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return nil, false
	}
	s, err := a.Intake.Get(id, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	return s, true
}

func (a *App) IntakeStart(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	s := a.Intake.Start(id, middleware.CountryFromContext(r.Context()))
	v, err := s.View(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, intakeResponse{ID: s.ID, View: v})
}

func (a *App) IntakeView(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	v, err := s.View(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, intakeResponse{ID: s.ID, View: v})
}

// fieldEdits orders edits so a donation type change lands before the branch
// fields it would otherwise clear.
func fieldEdits(fields map[string]string) []intake.FieldEdit {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if (names[i] == domain.FieldDonationType) != (names[j] == domain.FieldDonationType) {
			return names[i] == domain.FieldDonationType
		}
		return names[i] < names[j]
	})
	edits := make([]intake.FieldEdit, 0, len(names))
	for _, name := range names {
		edits = append(edits, intake.FieldEdit{Name: name, Value: fields[name]})
	}
	return edits
}

func (a *App) IntakeFields(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	var req fieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Fields) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "fields required")
		return
	}
	v, err := s.SetFields(r.Context(), fieldEdits(req.Fields))
	if err != nil {
		if errors.Is(err, intake.ErrSubmitInFlight) || errors.Is(err, intake.ErrSessionClosed) {
			a.fail(w, r, err)
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	a.json(w, http.StatusOK, intakeResponse{ID: s.ID, View: v})
}

func (a *App) intakeTransition(fn func(*intake.Session, context.Context) (intake.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := a.session(w, r)
		if !ok {
			return
		}
		v, err := fn(s, r.Context())
		if err != nil {
			a.fail(w, r, err)
			return
		}
		a.json(w, http.StatusOK, intakeResponse{ID: s.ID, View: v})
	}
}

func (a *App) IntakeNext(w http.ResponseWriter, r *http.Request) {
	a.intakeTransition((*intake.Session).Next)(w, r)
}

func (a *App) IntakeBack(w http.ResponseWriter, r *http.Request) {
	a.intakeTransition((*intake.Session).Back)(w, r)
}

func (a *App) IntakeCloseQR(w http.ResponseWriter, r *http.Request) {
	a.intakeTransition((*intake.Session).CloseQR)(w, r)
}

func (a *App) IntakeSubmit(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	donation, v, err := s.Submit(r.Context())
	if err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) || errors.Is(err, domain.ErrInvariantViolation) ||
			errors.Is(err, intake.ErrSubmitInFlight) || errors.Is(err, intake.ErrNotConfirmation) {
			a.fail(w, r, err)
			return
		}
		a.Logger.Error().Err(err).Str("intake_session", s.ID).Msg("intake submit failed")
		a.json(w, http.StatusBadGateway, map[string]any{
			"error": errorDetail{Code: "submit_failed", Message: "could not record donation, please try again"},
			"view":  v,
		})
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"donation": map[string]any{"id": donation.ID, "status": donation.Status},
		"view":     intakeResponse{ID: s.ID, View: v},
	})
}

func (a *App) IntakeQRImage(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	size := 256
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > 1024 {
			a.error(w, http.StatusBadRequest, "bad_request", "size must be between 64 and 1024")
			return
		}
		size = n
	}
	png, err := s.QRImage(r.Context(), size)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func (a *App) IntakeDiscard(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	if err := a.Intake.Discard(id, chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

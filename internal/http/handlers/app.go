package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gorilla/schema"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/intake"
	"server/internal/ledger"
	"server/internal/middleware"
	"server/internal/report"
	"server/internal/rules"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	Ledger  *ledger.Service
	Intake  *intake.Registry
	Reports *report.Service
	Store   Pinger
	Logger  zerolog.Logger

	query *schema.Decoder
}

func NewApp(l *ledger.Service, registry *intake.Registry, reports *report.Service, store Pinger, logger zerolog.Logger) *App {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return &App{
		Ledger:  l,
		Intake:  registry,
		Reports: reports,
		Store:   store,
		Logger:  logger,
		query:   dec,
	}
}

type errorBody struct {
	Error  errorDetail       `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func (a *App) fieldErrors(w http.ResponseWriter, errs validation.Errors) {
	a.json(w, http.StatusUnprocessableEntity, errorBody{
		Error:  errorDetail{Code: "validation_failed", Message: "some fields are invalid"},
		Fields: rules.Messages(errs),
	})
}

func (a *App) currentIdentity(r *http.Request) (domain.Identity, bool) {
	return middleware.IdentityFromContext(r.Context())
}

// fail maps a service error onto the HTTP error contract.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		a.fieldErrors(w, verrs)
	case errors.Is(err, domain.ErrInvariantViolation):
		a.error(w, http.StatusUnprocessableEntity, "invalid_donation", "could not record donation")
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, intake.ErrSessionNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, intake.ErrSessionClosed):
		a.error(w, http.StatusGone, "session_closed", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden", "access denied")
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
	case errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrInvalidFilter):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, intake.ErrSubmitInFlight),
		errors.Is(err, intake.ErrNoNextStep),
		errors.Is(err, intake.ErrNoPreviousStep),
		errors.Is(err, intake.ErrNotConfirmation):
		a.error(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		a.error(w, http.StatusServiceUnavailable, "unavailable", "request timed out")
	default:
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

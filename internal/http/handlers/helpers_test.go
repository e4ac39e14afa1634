package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"server/internal/adapter/memory"
	"server/internal/domain"
	"server/internal/intake"
	"server/internal/ledger"
	"server/internal/middleware"
	"server/internal/report"
)

var (
	donor = domain.Identity{ID: "user-1", Name: "Asha Rao", Email: "asha@example.org", Phone: "9876543210", Role: domain.UserRoleDonor}
	other = domain.Identity{ID: "user-2", Name: "Ravi Kumar", Email: "ravi@example.org", Role: domain.UserRoleDonor}
	staff = domain.Identity{ID: "staff-1", Name: "Meera", Email: "meera@example.org", Role: domain.UserRoleStaff}
)

type testEnv struct {
	app       *App
	store     *memory.DonationStore
	directory *memory.Directory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewDonationStore()
	dir := &memory.Directory{}
	l := ledger.NewService(store, zerolog.Nop())
	reg, err := intake.NewRegistry(intake.RegistryConfig{
		QRTimeout: 30 * time.Second,
		Panel:     intake.PanelConfig{PayeeVPA: "ngo@upi", PayeeName: "Helping Hands"},
	}, l, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(reg.Close)
	reports := report.NewService(l, dir, zerolog.Nop())
	return &testEnv{
		app:       NewApp(l, reg, reports, store, zerolog.Nop()),
		store:     store,
		directory: dir,
	}
}

type call struct {
	method string
	target string
	body   any
	caller *domain.Identity
	params map[string]string
}

func serve(t *testing.T, h http.HandlerFunc, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := c.body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(c.method, c.target, &buf)
	ctx := req.Context()
	if c.caller != nil {
		ctx = middleware.ContextWithIdentity(ctx, *c.caller)
	}
	if len(c.params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range c.params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	rr := httptest.NewRecorder()
	h(rr, req.WithContext(ctx))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func monetaryPayload(name string, amount float64) map[string]any {
	return map[string]any{
		"donorName":     name,
		"email":         "donor@example.org",
		"phone":         "9876543210",
		"city":          "Pune",
		"donationType":  "monetary",
		"amount":        amount,
		"paymentMethod": "upi",
	}
}

// seed records a donation for caller and returns its id.
func (e *testEnv) seed(t *testing.T, caller domain.Identity, payload map[string]any) string {
	t.Helper()
	rr := serve(t, e.app.DonationsCreate, call{method: http.MethodPost, target: "/v1/donations", body: payload, caller: &caller})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[map[string]any](t, rr)["id"].(string)
}

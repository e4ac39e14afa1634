package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server/internal/domain"
	"server/internal/intake"
)

func startIntake(t *testing.T, env *testEnv, caller domain.Identity) string {
	t.Helper()
	rr := serve(t, env.app.IntakeStart, call{method: http.MethodPost, target: "/v1/intake", caller: &caller})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decode[intakeResponse](t, rr)
	require.NotEmpty(t, body.ID)
	return body.ID
}

func intakeCall(t *testing.T, env *testEnv, h http.HandlerFunc, id string, body any) (int, intakeResponse) {
	t.Helper()
	rr := serve(t, h, call{method: http.MethodPost, target: "/v1/intake/" + id, body: body, caller: &donor, params: map[string]string{"id": id}})
	var out intakeResponse
	if rr.Code < 300 {
		out = decode[intakeResponse](t, rr)
	}
	return rr.Code, out
}

func TestIntakeStartPrefillsFromIdentity(t *testing.T) {
	env := newTestEnv(t)
	rr := serve(t, env.app.IntakeStart, call{method: http.MethodPost, target: "/v1/intake", caller: &donor})
	require.Equal(t, http.StatusCreated, rr.Code)
	body := decode[intakeResponse](t, rr)
	assert.Equal(t, "DonorInfo", body.Step)
	assert.Equal(t, donor.Name, body.Draft.DonorName)
	assert.Equal(t, donor.Email, body.Draft.Email)
	assert.Equal(t, domain.DefaultCountry, body.Draft.Country)
}

func TestIntakeFullFlowRecordsDonation(t *testing.T) {
	env := newTestEnv(t)
	id := startIntake(t, env, donor)

	code, v := intakeCall(t, env, env.app.IntakeFields, id, fieldsRequest{Fields: map[string]string{
		domain.FieldDonorType: "individual",
		domain.FieldGender:    "female",
	}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "individual", v.Draft.DonorType)

	code, v = intakeCall(t, env, env.app.IntakeNext, id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "LocationDetails", v.Step)

	code, _ = intakeCall(t, env, env.app.IntakeFields, id, fieldsRequest{Fields: map[string]string{
		domain.FieldAddress: "12 MG Road",
		domain.FieldCity:    "Pune",
		domain.FieldState:   "Maharashtra",
		domain.FieldPincode: "411001",
	}})
	require.Equal(t, http.StatusOK, code)
	code, v = intakeCall(t, env, env.app.IntakeNext, id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "AmountSelection", v.Step)

	code, _ = intakeCall(t, env, env.app.IntakeFields, id, fieldsRequest{Fields: map[string]string{
		domain.FieldAmount:        "500",
		domain.FieldPaymentMethod: "card",
	}})
	require.Equal(t, http.StatusOK, code)
	code, v = intakeCall(t, env, env.app.IntakeNext, id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Confirmation", v.Step)
	require.NotNil(t, v.Summary)

	rr := serve(t, env.app.IntakeSubmit, call{method: http.MethodPost, target: "/v1/intake/" + id + "/submit", caller: &donor, params: map[string]string{"id": id}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decode[struct {
		Donation map[string]any `json:"donation"`
		View     intakeResponse `json:"view"`
	}](t, rr)
	assert.Equal(t, "pending", body.Donation["status"])
	assert.Equal(t, "DonorInfo", body.View.Step)

	stored, err := env.store.ListByUser(context.Background(), donor.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "500", stored[0].Amount.String())
	assert.Equal(t, "Pune", stored[0].City)
}

func TestIntakeSubmitRevalidatesEditedFields(t *testing.T) {
	env := newTestEnv(t)
	id := startIntake(t, env, donor)

	for _, fields := range []map[string]string{
		{domain.FieldDonorType: "individual", domain.FieldGender: "female"},
		{domain.FieldAddress: "12 MG Road", domain.FieldCity: "Pune", domain.FieldState: "Maharashtra", domain.FieldPincode: "411001"},
		{domain.FieldAmount: "500", domain.FieldPaymentMethod: "card"},
	} {
		code, _ := intakeCall(t, env, env.app.IntakeFields, id, fieldsRequest{Fields: fields})
		require.Equal(t, http.StatusOK, code)
		code, _ = intakeCall(t, env, env.app.IntakeNext, id, nil)
		require.Equal(t, http.StatusOK, code)
	}
	code, _ := intakeCall(t, env, env.app.IntakeFields, id, fieldsRequest{Fields: map[string]string{domain.FieldContactNumber: "not-a-phone"}})
	require.Equal(t, http.StatusOK, code)

	rr := serve(t, env.app.IntakeSubmit, call{method: http.MethodPost, target: "/v1/intake/" + id + "/submit", caller: &donor, params: map[string]string{"id": id}})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	body := decode[errorBody](t, rr)
	assert.Equal(t, "validation_failed", body.Error.Code)
	assert.Contains(t, body.Fields, domain.FieldContactNumber)

	stored, err := env.store.ListByUser(context.Background(), donor.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestIntakeNextReportsFieldErrors(t *testing.T) {
	env := newTestEnv(t)
	id := startIntake(t, env, donor)

	rr := serve(t, env.app.IntakeNext, call{method: http.MethodPost, target: "/v1/intake/" + id + "/next", caller: &donor, params: map[string]string{"id": id}})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Equal(t, "validation_failed", body.Error.Code)
	assert.Contains(t, body.Fields, domain.FieldDonorType)
	assert.Contains(t, body.Fields, domain.FieldGender)
}

func TestIntakeBackFromFirstStepConflicts(t *testing.T) {
	env := newTestEnv(t)
	id := startIntake(t, env, donor)
	code, _ := intakeCall(t, env, env.app.IntakeBack, id, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestIntakeFieldsRejectsUnknownField(t *testing.T) {
	env := newTestEnv(t)
	id := startIntake(t, env, donor)

	code, _ := intakeCall(t, env, env.app.IntakeFields, id, fieldsRequest{Fields: map[string]string{"favouriteColour": "blue"}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = intakeCall(t, env, env.app.IntakeFields, id, fieldsRequest{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestIntakeSubmitOutsideConfirmation(t *testing.T) {
	env := newTestEnv(t)
	id := startIntake(t, env, donor)
	code, _ := intakeCall(t, env, env.app.IntakeSubmit, id, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestIntakeSessionOwnedByCaller(t *testing.T) {
	env := newTestEnv(t)
	id := startIntake(t, env, donor)

	rr := serve(t, env.app.IntakeView, call{method: http.MethodGet, target: "/v1/intake/" + id, caller: &other, params: map[string]string{"id": id}})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(t, env.app.IntakeDiscard, call{method: http.MethodDelete, target: "/v1/intake/" + id, caller: &other, params: map[string]string{"id": id}})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestIntakeDiscard(t *testing.T) {
	env := newTestEnv(t)
	id := startIntake(t, env, donor)

	rr := serve(t, env.app.IntakeDiscard, call{method: http.MethodDelete, target: "/v1/intake/" + id, caller: &donor, params: map[string]string{"id": id}})
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(t, env.app.IntakeView, call{method: http.MethodGet, target: "/v1/intake/" + id, caller: &donor, params: map[string]string{"id": id}})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestIntakeQRImage(t *testing.T) {
	env := newTestEnv(t)
	id := startIntake(t, env, donor)
	params := map[string]string{"id": id}

	rr := serve(t, env.app.IntakeQRImage, call{method: http.MethodGet, target: "/v1/intake/" + id + "/qr.png?size=128", caller: &donor, params: params})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rr.Body.String()[:4])

	rr = serve(t, env.app.IntakeQRImage, call{method: http.MethodGet, target: "/v1/intake/" + id + "/qr.png?size=8", caller: &donor, params: params})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIntakeCloseQR(t *testing.T) {
	env := newTestEnv(t)
	id := startIntake(t, env, donor)
	code, v := intakeCall(t, env, env.app.IntakeCloseQR, id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, v.QR)
}

func TestFieldEditsAppliesDonationTypeFirst(t *testing.T) {
	edits := fieldEdits(map[string]string{
		domain.FieldQuantity:     "3",
		domain.FieldItemType:     "books",
		domain.FieldDonationType: "item",
	})
	want := []intake.FieldEdit{
		{Name: domain.FieldDonationType, Value: "item"},
		{Name: domain.FieldItemType, Value: "books"},
		{Name: domain.FieldQuantity, Value: "3"},
	}
	assert.Equal(t, want, edits)
}

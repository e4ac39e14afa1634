package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"server/internal/domain"
)

const exportSheet = "Donations"

var exportHeader = []any{
	"ID", "Created (UTC)", "Donor", "Email", "Phone", "City", "Type", "Amount",
	"Payment method", "Item type", "Quantity", "Item description", "Status", "Message",
}

// DonationsExport streams the filtered ledger as an xlsx workbook.
func (a *App) DonationsExport(w http.ResponseWriter, r *http.Request) {
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

	f, err := buildWorkbook(items)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer f.Close()

	name := fmt.Sprintf("donations-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := f.Write(w); err != nil {
		a.Logger.Error().Err(err).Msg("write export failed")
	}
}

func buildWorkbook(items []domain.Donation) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, d := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := exportRow(d)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f, nil
}

func exportRow(d domain.Donation) []any {
	str := func(p *string) any {
		if p == nil {
			return ""
		}
		return *p
	}
	var amount, method, qty any = "", "", ""
	if d.Amount != nil {
		amount = d.Amount.InexactFloat64()
	}
	if d.PaymentMethod != nil {
		method = string(*d.PaymentMethod)
	}
	if d.Quantity != nil {
		qty = *d.Quantity
	}
	return []any{
		d.ID,
		d.CreatedAt.UTC().Format(time.DateTime),
		d.DonorName,
		d.Email,
		d.Phone,
		d.City,
		string(d.DonationType),
		amount,
		method,
		str(d.ItemType),
		qty,
		str(d.ItemDescription),
		string(d.Status),
		str(d.Message),
	}
}

package sheets

import (
	"context"
	"fmt"

	gsheets "google.golang.org/api/sheets/v4"
)

// valueInputOption makes Sheets parse written values as if typed by a user,
// so numbers and dates keep their cell types.
const valueInputOption = "USER_ENTERED"

// Range is a block of values addressed in A1 notation.
type Range struct {
	A1     string
	Values [][]string
}

// Values is the subset of the Sheets values API the store needs.
type Values interface {
	Get(ctx context.Context, a1 string) ([][]string, error)
	Update(ctx context.Context, a1 string, values [][]string) error
	BatchUpdate(ctx context.Context, ranges []Range) error
	Clear(ctx context.Context, a1 string) error
}

// GoogleValues implements Values for one spreadsheet.
type GoogleValues struct {
	svc           *gsheets.Service
	spreadsheetID string
}

// NewGoogleValues binds a Sheets service to a spreadsheet.
func NewGoogleValues(svc *gsheets.Service, spreadsheetID string) *GoogleValues {
	return &GoogleValues{svc: svc, spreadsheetID: spreadsheetID}
}

// Get returns the formatted values of a range.
func (g *GoogleValues) Get(ctx context.Context, a1 string) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, a1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", a1, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = fmt.Sprint(cell)
		}
	}
	return rows, nil
}

// Update writes values starting at the top-left cell of a1.
func (g *GoogleValues) Update(ctx context.Context, a1 string, values [][]string) error {
	_, err := g.svc.Spreadsheets.Values.
		Update(g.spreadsheetID, a1, &gsheets.ValueRange{Values: toInterfaces(values)}).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", a1, err)
	}
	return nil
}

// BatchUpdate writes several ranges in one call.
func (g *GoogleValues) BatchUpdate(ctx context.Context, ranges []Range) error {
	data := make([]*gsheets.ValueRange, len(ranges))
	for i, r := range ranges {
		data[i] = &gsheets.ValueRange{
			Range:          r.A1,
			MajorDimension: "ROWS",
			Values:         toInterfaces(r.Values),
		}
	}

	req := &gsheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInputOption,
		Data:             data,
	}
	if _, err := g.svc.Spreadsheets.Values.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("batch update: %w", err)
	}
	return nil
}

// Clear empties a range, keeping formatting.
func (g *GoogleValues) Clear(ctx context.Context, a1 string) error {
	if _, err := g.svc.Spreadsheets.Values.Clear(g.spreadsheetID, a1, &gsheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", a1, err)
	}
	return nil
}

func toInterfaces(values [][]string) [][]interface{} {
	out := make([][]interface{}, len(values))
	for i, row := range values {
		out[i] = make([]interface{}, len(row))
		for j, cell := range row {
			out[i][j] = cell
		}
	}
	return out
}

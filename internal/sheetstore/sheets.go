package sheetstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/greenest/greenest-go/internal/conf"
	"github.com/greenest/greenest-go/internal/errors"
)

// SheetsStore implements Store on a Google Sheets worksheet.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string
	sheetID       int64 // numeric id of the tab, resolved once at connect
}

// Connect authenticates against the Sheets API and resolves the worksheet.
// Inline credentials JSON takes precedence over a key file path; with
// neither set, ambient application-default credentials are used.
func Connect(ctx context.Context, settings *conf.SheetSettings) (*SheetsStore, error) {
	if settings.ID == "" {
		return nil, errors.Newf("sheet id is not configured").
			Component("sheetstore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	var opts []option.ClientOption
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope))
	switch {
	case settings.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(settings.CredentialsJSON)))
	case settings.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(settings.CredentialsFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, wrapStoreErr("connect", err)
	}

	store := &SheetsStore{
		svc:           svc,
		spreadsheetID: settings.ID,
		tab:           settings.Tab,
	}

	meta, err := svc.Spreadsheets.Get(settings.ID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, wrapStoreErr("resolve worksheet", err)
	}
	found := false
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == settings.Tab {
			store.sheetID = sh.Properties.SheetId
			found = true
			break
		}
	}
	if !found {
		return nil, errors.Newf("worksheet %q not found in spreadsheet", settings.Tab).
			Component("sheetstore").
			Category(errors.CategoryConfiguration).
			Context("spreadsheet_id", settings.ID).
			Build()
	}

	return store, nil
}

// HeaderRow returns the cells of row one, nil when the sheet is empty.
func (s *SheetsStore) HeaderRow(ctx context.Context) ([]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeRef("1:1")).Context(ctx).Do()
	if err != nil {
		return nil, wrapStoreErr("read header", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return toStrings(resp.Values[0]), nil
}

// DeleteHeaderRow removes row one, shifting data rows up.
func (s *SheetsStore) DeleteHeaderRow(ctx context.Context) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    s.sheetID,
					Dimension:  "ROWS",
					StartIndex: 0,
					EndIndex:   1,
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return wrapStoreErr("delete header", err)
	}
	return nil
}

// InsertHeaderRow inserts cells as a new row one, shifting data rows down.
func (s *SheetsStore) InsertHeaderRow(ctx context.Context, cells []string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			InsertDimension: &sheets.InsertDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    s.sheetID,
					Dimension:  "ROWS",
					StartIndex: 0,
					EndIndex:   1,
				},
				InheritFromBefore: false,
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return wrapStoreErr("insert header row", err)
	}

	vr := &sheets.ValueRange{Values: [][]any{toAnys(cells)}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.rangeRef("A1"), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return wrapStoreErr("write header cells", err)
	}
	return nil
}

// Append adds one data row after the last row. The Sheets append call is a
// single atomic remote operation, which is what makes concurrent writers
// from multiple ingestion channels safe.
func (s *SheetsStore) Append(ctx context.Context, cells []string) (int64, error) {
	vr := &sheets.ValueRange{Values: [][]any{toAnys(cells)}}
	resp, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.rangeRef("A1"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, wrapStoreErr("append", err)
	}
	if resp.Updates == nil {
		return 0, nil
	}
	return rowIndexFromRange(resp.Updates.UpdatedRange), nil
}

// Rows returns all data rows (header excluded) in insertion order.
func (s *SheetsStore) Rows(ctx context.Context) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeRef("A2:L")).Context(ctx).Do()
	if err != nil {
		return nil, wrapStoreErr("read rows", err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		rows = append(rows, toStrings(row))
	}
	return rows, nil
}

// Close releases the underlying connection. The Sheets client holds no
// persistent connection state beyond the pooled transport.
func (s *SheetsStore) Close() error {
	return nil
}

// rangeRef builds an A1 range reference scoped to the worksheet. Tab names
// containing spaces must be quoted.
func (s *SheetsStore) rangeRef(cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(s.tab, "'", "''"), cells)
}

// rowIndexFromRange extracts the one-based row number from an A1 range
// like "'Tab'!A5:L5". Returns 0 when the range is not parseable.
func rowIndexFromRange(a1 string) int64 {
	if idx := strings.LastIndexByte(a1, '!'); idx >= 0 {
		a1 = a1[idx+1:]
	}
	if idx := strings.IndexByte(a1, ':'); idx >= 0 {
		a1 = a1[:idx]
	}
	digits := strings.TrimLeftFunc(a1, func(r rune) bool {
		return r < '0' || r > '9'
	})
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// wrapStoreErr classifies a Sheets API failure. An API-level rejection is a
// retryable store error; anything else means the store is unreachable.
func wrapStoreErr(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return errors.Newf("sheets %s rejected: %w", op, err).
			Component("sheetstore").
			Category(errors.CategorySheetStore).
			Context("status_code", apiErr.Code).
			Build()
	}
	return errors.Newf("sheets %s: %w", op, errors.Join(errors.ErrStoreUnavailable, err)).
		Component("sheetstore").
		Category(errors.CategoryNetwork).
		Build()
}

func toStrings(row []any) []string {
	out := make([]string, 0, len(row))
	for _, v := range row {
		out = append(out, fmt.Sprintf("%v", v))
	}
	return out
}

func toAnys(cells []string) []any {
	out := make([]any, 0, len(cells))
	for _, c := range cells {
		out = append(out, c)
	}
	return out
}

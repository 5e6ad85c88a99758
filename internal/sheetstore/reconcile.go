package sheetstore

import (
	"context"
	"log/slog"
	"slices"

	"github.com/greenest/greenest-go/internal/errors"
	"github.com/greenest/greenest-go/internal/record"
)

// EnsureHeader self-heals the schema header row. It is idempotent and is
// called immediately before every append: when row one already equals the
// canonical column titles it is a no-op, otherwise the stale row is removed
// and the canonical row inserted. The repair is coarse and non-transactional;
// racing writers may transiently duplicate the header, which the next call
// heals. A store failure here is fatal for the current ingestion. Returns
// true when a repair was performed.
func EnsureHeader(ctx context.Context, store Store, log *slog.Logger) (bool, error) {
	existing, err := store.HeaderRow(ctx)
	if err != nil {
		return false, err
	}

	if slices.Equal(existing, record.HeaderTitles) {
		return false, nil
	}

	if log != nil {
		log.Warn("header drift detected, repairing",
			"existing_cells", len(existing),
			"canonical_cells", len(record.HeaderTitles))
	}

	if len(existing) > 0 {
		if err := store.DeleteHeaderRow(ctx); err != nil {
			return false, err
		}
	}
	if err := store.InsertHeaderRow(ctx, record.HeaderTitles); err != nil {
		return false, err
	}
	return true, nil
}

// Writer performs the durable append. It is the only component that writes
// data rows; one call writes exactly one row in canonical cell order.
type Writer struct {
	store Store
	log   *slog.Logger
}

// NewWriter returns a Writer on the given store.
func NewWriter(store Store, log *slog.Logger) *Writer {
	if log == nil {
		log = slog.Default()
	}
	return &Writer{store: store, log: log}
}

// Append writes one normalized record as a new row and returns its row
// index. There is no read-modify-write and no automatic retry: at-most-once
// semantics, the producer decides whether to resubmit the whole event.
func (w *Writer) Append(ctx context.Context, rec *record.Record) (int64, error) {
	row := rec.Row()
	if len(row) != len(record.FieldKeys) {
		return 0, errors.Newf("row width %d does not match schema width %d", len(row), len(record.FieldKeys)).
			Component("sheetstore").
			Category(errors.CategoryValidation).
			Build()
	}

	idx, err := w.store.Append(ctx, row)
	if err != nil {
		return 0, err
	}

	w.log.Info("row appended",
		"tray", rec.TrayName,
		"row_index", idx)
	return idx, nil
}

// Package summary reduces the accumulated observations to the current
// state of each tray: the last stored row per tray name.
package summary

import (
	"context"

	"github.com/greenest/greenest-go/internal/notify"
	"github.com/greenest/greenest-go/internal/record"
	"github.com/greenest/greenest-go/internal/sheetstore"
)

// Latest reads all rows and returns the most recent observation per tray,
// preserving first-seen tray order. Insertion order is assumed monotonic
// with time, so "last row wins" within a tray. The scan is linear and
// unpaginated, which is fine at per-farm row counts.
func Latest(ctx context.Context, store sheetstore.Store) ([]record.Record, error) {
	rows, err := store.Rows(ctx)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0)
	latest := make(map[string]record.Record)
	for _, row := range rows {
		rec := record.FromRow(row)
		if _, seen := latest[rec.TrayName]; !seen {
			order = append(order, rec.TrayName)
		}
		latest[rec.TrayName] = rec
	}

	out := make([]record.Record, 0, len(order))
	for _, tray := range order {
		out = append(out, latest[tray])
	}
	return out, nil
}

// Build reads the store and renders the dashboard summary text.
func Build(ctx context.Context, store sheetstore.Store) (string, error) {
	latest, err := Latest(ctx, store)
	if err != nil {
		return "", err
	}
	return notify.RenderSummary(latest), nil
}

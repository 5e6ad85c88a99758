package sheetstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenest/greenest-go/internal/errors"
	"github.com/greenest/greenest-go/internal/record"
)

func testRecord(tray string) *record.Record {
	rec := record.Normalize(map[string]any{
		"tray_name":      tray,
		"seed_type":      "Radish",
		"growth_percent": 41.5,
	}, record.SourceDirect, func() time.Time {
		return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	})
	return &rec
}

func TestEnsureHeaderOnEmptySheet(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	repaired, err := EnsureHeader(context.Background(), store, nil)
	require.NoError(t, err)
	assert.True(t, repaired)

	grid := store.Grid()
	require.Len(t, grid, 1)
	assert.Equal(t, record.HeaderTitles, grid[0])
}

func TestEnsureHeaderIdempotent(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	ctx := context.Background()

	_, err := EnsureHeader(ctx, store, nil)
	require.NoError(t, err)
	first := store.Grid()

	// Second call with no intervening drift must not insert a duplicate.
	repaired, err := EnsureHeader(ctx, store, nil)
	require.NoError(t, err)
	assert.False(t, repaired)
	assert.Equal(t, first, store.Grid())
}

func TestEnsureHeaderRepairsDrift(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.Seed([][]string{
		{"Tray", "Growth", "Time"}, // stale v1 header
		{"Tray-A1", "50", "2026-03-01 08:00:00"},
	})

	repaired, err := EnsureHeader(context.Background(), store, nil)
	require.NoError(t, err)
	assert.True(t, repaired)

	grid := store.Grid()
	require.Len(t, grid, 2)
	assert.Equal(t, record.HeaderTitles, grid[0])
	assert.Equal(t, "Tray-A1", grid[1][0], "data rows must survive header repair")
}

func TestEnsureHeaderStoreUnavailable(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.FailHeader = fmt.Errorf("header read: %w", errors.ErrStoreUnavailable)

	_, err := EnsureHeader(context.Background(), store, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStoreUnavailable))
}

func TestWriterAppendMonotonic(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	ctx := context.Background()
	_, err := EnsureHeader(ctx, store, nil)
	require.NoError(t, err)

	w := NewWriter(store, nil)
	const n = 5
	for i := range n {
		rec := testRecord(fmt.Sprintf("Tray-%d", i))
		idx, err := w.Append(ctx, rec)
		require.NoError(t, err)
		// header occupies row one
		assert.Equal(t, int64(i+2), idx)
	}

	rows, err := store.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, n)
	for i, row := range rows {
		require.Len(t, row, len(record.FieldKeys))
		assert.Equal(t, fmt.Sprintf("Tray-%d", i), row[0])
	}
}

func TestWriterAppendFailureSurfaced(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.FailAppend = errors.Newf("quota exceeded").
		Category(errors.CategorySheetStore).
		Build()

	w := NewWriter(store, nil)
	_, err := w.Append(context.Background(), testRecord("Tray-X"))
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
}

func TestRowIndexFromRange(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(5), rowIndexFromRange("'GreeNest Farm Tracker'!A5:L5"))
	assert.Equal(t, int64(2), rowIndexFromRange("Sheet1!A2:L2"))
	assert.Equal(t, int64(0), rowIndexFromRange("garbage"))
}

// Package sheetstore is the single point of contact with the external
// tabular store. It holds the store interface, the Google Sheets
// implementation, an in-memory substitute, the header reconciler and the
// append writer.
package sheetstore

import "context"

// Store is the tabular store contract. Row one is the schema header; data
// rows follow in insertion order. The native append operation is the
// serialization point for concurrent writers, so no local locking is
// required above this interface.
type Store interface {
	// HeaderRow returns the cells of row one, nil when the sheet is empty.
	HeaderRow(ctx context.Context) ([]string, error)

	// DeleteHeaderRow removes row one, shifting data rows up.
	DeleteHeaderRow(ctx context.Context) error

	// InsertHeaderRow inserts cells as a new row one, shifting data rows down.
	InsertHeaderRow(ctx context.Context, cells []string) error

	// Append adds one data row after the last row and returns its
	// one-based row index within the sheet.
	Append(ctx context.Context, cells []string) (int64, error)

	// Rows returns all data rows (header excluded) in insertion order.
	Rows(ctx context.Context) ([][]string, error)

	// Close releases the underlying connection.
	Close() error
}

package sheetstore

import (
	"context"
	"slices"
	"sync"
)

// MemStore is an in-memory Store used by tests and offline runs. Error
// injection fields simulate store outages and append rejections.
type MemStore struct {
	mu   sync.Mutex
	grid [][]string // row 0 is the header when present

	// When set, the corresponding operations fail with this error.
	FailHeader error
	FailAppend error
	FailRows   error
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Seed replaces the whole grid, header row included. Test helper.
func (m *MemStore) Seed(rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grid = nil
	for _, row := range rows {
		m.grid = append(m.grid, slices.Clone(row))
	}
}

// Grid returns a copy of the whole grid, header row included. Test helper.
func (m *MemStore) Grid() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, 0, len(m.grid))
	for _, row := range m.grid {
		out = append(out, slices.Clone(row))
	}
	return out
}

func (m *MemStore) HeaderRow(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailHeader != nil {
		return nil, m.FailHeader
	}
	if len(m.grid) == 0 {
		return nil, nil
	}
	return slices.Clone(m.grid[0]), nil
}

func (m *MemStore) DeleteHeaderRow(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailHeader != nil {
		return m.FailHeader
	}
	if len(m.grid) > 0 {
		m.grid = m.grid[1:]
	}
	return nil
}

func (m *MemStore) InsertHeaderRow(_ context.Context, cells []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailHeader != nil {
		return m.FailHeader
	}
	m.grid = append([][]string{slices.Clone(cells)}, m.grid...)
	return nil
}

func (m *MemStore) Append(_ context.Context, cells []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAppend != nil {
		return 0, m.FailAppend
	}
	m.grid = append(m.grid, slices.Clone(cells))
	return int64(len(m.grid)), nil
}

func (m *MemStore) Rows(_ context.Context) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRows != nil {
		return nil, m.FailRows
	}
	if len(m.grid) <= 1 {
		return nil, nil
	}
	out := make([][]string, 0, len(m.grid)-1)
	for _, row := range m.grid[1:] {
		out = append(out, slices.Clone(row))
	}
	return out, nil
}

func (m *MemStore) Close() error {
	return nil
}

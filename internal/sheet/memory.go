package sheet

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps tables in process memory. Used by tests and as a
// scratch backend when no remote store is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]Table
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]Table)}
}

func (m *MemoryStore) Read(_ context.Context, table string) (Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[table]
	if !ok {
		// An unknown table reads as empty, matching a blank worksheet.
		return Table{}, nil
	}
	return copyTable(t), nil
}

func (m *MemoryStore) Replace(_ context.Context, table string, t Table) error {
	if table == "" {
		return fmt.Errorf("replace: empty table name")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = copyTable(t)
	return nil
}

// Seed installs a table without going through Replace, for test setup.
func (m *MemoryStore) Seed(table string, t Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = copyTable(t)
}

func copyTable(t Table) Table {
	out := Table{Columns: append([]string(nil), t.Columns...)}
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

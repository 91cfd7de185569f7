package persistence

import (
	"context"
	"strings"
	"sync"

	"github.com/brnikita/refine-supabase-apps-builder/internal/domain/ports"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/pipeline"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/template"
)

// MemoryStore is the in-process record store used for demo seeds and tests
// (DATA_BACKEND=memory). Rows are keyed by their id column and kept in
// insertion order; filter and sort semantics match the MySQL store by going
// through the same pipeline matcher.
type MemoryStore struct {
	mu       sync.RWMutex
	tables   map[string][]models.Record
	pipeline *pipeline.Pipeline
}

var _ ports.RecordStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:   make(map[string][]models.Record),
		pipeline: pipeline.NewPipeline(template.NewEngine()),
	}
}

func (m *MemoryStore) List(_ context.Context, table string, query models.FetchQuery) ([]models.Record, int, error) {
	m.mu.RLock()
	rows := m.tables[table]
	filtered := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		if matchesAllFilters(row, query.Filters) {
			filtered = append(filtered, row.Clone())
		}
	}
	m.mu.RUnlock()

	if query.Sort != "" {
		filtered = m.pipeline.ApplyOrder(filtered, []models.OrderSpec{{Field: query.Sort, Direction: query.Order}})
	}

	total := len(filtered)
	return paginate(filtered, query.Page, query.PageSize), total, nil
}

func (m *MemoryStore) Get(_ context.Context, table string, id string) (models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, row := range m.tables[table] {
		if row.GetString(constants.FieldID) == id {
			return row.Clone(), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Insert(_ context.Context, table string, record models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tables[table] = append(m.tables[table], record.Clone())
	return nil
}

func (m *MemoryStore) Update(_ context.Context, table string, id string, updates models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, row := range m.tables[table] {
		if row.GetString(constants.FieldID) != id {
			continue
		}
		merged := row.Clone()
		for k, v := range updates {
			merged[k] = v
		}
		m.tables[table][i] = merged
		return nil
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, table string, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.tables[table]
	for i, row := range rows {
		if row.GetString(constants.FieldID) == id {
			m.tables[table] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// DropTable removes a table and its rows. Used when an app is deleted.
func (m *MemoryStore) DropTable(table string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, table)
}

// DropPrefix removes every table under a physical prefix in one sweep.
func (m *MemoryStore) DropPrefix(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for table := range m.tables {
		if strings.HasPrefix(table, prefix) {
			delete(m.tables, table)
		}
	}
}

func matchesAllFilters(row models.Record, filters []models.FilterSpec) bool {
	for _, f := range filters {
		if !pipeline.Matches(row, f) {
			return false
		}
	}
	return true
}

func paginate(rows []models.Record, page, pageSize int) []models.Record {
	if pageSize <= 0 {
		return rows
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return []models.Record{}
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/brnikita/refine-supabase-apps-builder/internal/domain/ports"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/query"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// RecordRepository is the MySQL record store for provisioned app tables.
// All statements go through the query builder, so identifiers are quoted and
// values parameterized; it never interpolates data into SQL text.
type RecordRepository struct {
	db *sql.DB
}

var _ ports.RecordStore = (*RecordRepository)(nil)

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) List(ctx context.Context, table string, q models.FetchQuery) ([]models.Record, int, error) {
	countBuilder := query.From(table).AddSelectRaw("COUNT(*)", "total")
	applyFilters(countBuilder, q.Filters)
	countQuery := countBuilder.Build()

	countRows, err := r.db.QueryContext(ctx, countQuery.SQL, countQuery.Params...)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", table, err)
	}
	total, err := query.ScanCount(countRows)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", table, err)
	}

	builder := query.From(table).Select([]string{"*"})
	applyFilters(builder, q.Filters)
	if q.Sort != "" {
		builder.OrderBy(q.Sort, q.Order)
	}
	if q.PageSize > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		builder.Limit(q.PageSize).Offset((page - 1) * q.PageSize)
	}
	listQuery := builder.Build()

	rows, err := r.db.QueryContext(ctx, listQuery.SQL, listQuery.Params...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	records, err := query.ScanRecords(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scan %s: %w", table, err)
	}
	return records, total, nil
}

func (r *RecordRepository) Get(ctx context.Context, table string, id string) (models.Record, error) {
	q := query.From(table).
		Select([]string{"*"}).
		Where(fmt.Sprintf("`%s` = ?", constants.FieldID), id).
		Limit(1).
		Build()

	rows, err := r.db.QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", table, err)
	}
	defer rows.Close()

	records, err := query.ScanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (r *RecordRepository) Insert(ctx context.Context, table string, record models.Record) error {
	q := query.Insert(table, normalizeValues(record)).Build()
	if _, err := r.db.ExecContext(ctx, q.SQL, q.Params...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func (r *RecordRepository) Update(ctx context.Context, table string, id string, updates models.Record) error {
	if len(updates) == 0 {
		return nil
	}
	q := query.Update(table).
		Set(normalizeValues(updates)).
		Where(fmt.Sprintf("`%s` = ?", constants.FieldID), id).
		Build()

	if _, err := r.db.ExecContext(ctx, q.SQL, q.Params...); err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return nil
}

func (r *RecordRepository) Delete(ctx context.Context, table string, id string) error {
	q := query.Delete(table).
		Where(fmt.Sprintf("`%s` = ?", constants.FieldID), id).
		Build()

	if _, err := r.db.ExecContext(ctx, q.SQL, q.Params...); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// applyFilters translates adapter-level filters into WHERE clauses with the
// same semantics the in-memory pipeline applies: neq keeps NULL rows, LIKE
// is a case-sensitive containment, an empty IN list matches nothing.
func applyFilters(b *query.Builder, filters []models.FilterSpec) {
	for _, f := range filters {
		col := fmt.Sprintf("`%s`", f.Field)
		switch f.Operator {
		case constants.OperatorEq:
			b.Where(col+" = ?", f.Value)
		case constants.OperatorNeq:
			b.Where(fmt.Sprintf("(%s != ? OR %s IS NULL)", col, col), f.Value)
		case constants.OperatorGt:
			b.Where(col+" > ?", f.Value)
		case constants.OperatorGte:
			b.Where(col+" >= ?", f.Value)
		case constants.OperatorLt:
			b.Where(col+" < ?", f.Value)
		case constants.OperatorLte:
			b.Where(col+" <= ?", f.Value)
		case constants.OperatorLike:
			b.Where(col+" LIKE BINARY ?", "%"+utils.ToString(f.Value)+"%")
		case constants.OperatorIn:
			list, _ := utils.ToSlice(f.Value)
			if len(list) == 0 {
				b.Where("1 = 0")
				continue
			}
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(list)), ", ")
			b.WhereRaw(fmt.Sprintf("%s IN (%s)", col, placeholders), list)
		case constants.OperatorIsNull:
			b.Where(col + " IS NULL")
		case constants.OperatorIsNotNull:
			b.Where(col + " IS NOT NULL")
		default:
			log.Printf("⚠️ Record store: unknown filter operator %q skipped", f.Operator)
		}
	}
}

// normalizeValues makes records driver-friendly: maps and slices become JSON
// text for JSON columns, everything else passes through.
func normalizeValues(record models.Record) map[string]interface{} {
	out := make(map[string]interface{}, len(record))
	for k, v := range record {
		switch v.(type) {
		case map[string]interface{}, []interface{}, models.Record, []models.Record:
			raw, err := json.Marshal(v)
			if err != nil {
				log.Printf("⚠️ Record store: dropping unserializable value for %s: %v", k, err)
				continue
			}
			out[k] = string(raw)
		default:
			out[k] = v
		}
	}
	return out
}

// Package pipeline shapes fetched record sets according to a block's data
// source: filter, then order, then limit, in that fixed sequence. It operates
// purely in memory on whatever the fetch adapter returned; remote pagination
// is the adapter's concern.
package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/template"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// Pipeline applies DataSourceSpec shaping to records
type Pipeline struct {
	engine *template.Engine
}

// NewPipeline creates a pipeline backed by the given template engine
func NewPipeline(engine *template.Engine) *Pipeline {
	return &Pipeline{engine: engine}
}

// Apply runs the full filter -> order -> limit sequence. The input slice is
// never mutated. Configuration problems (unknown operator, non-array value
// for `in`) skip the offending filter and come back as warnings so the
// caller can surface them on the block instead of failing the page.
func (p *Pipeline) Apply(records []models.Record, ds *models.DataSourceSpec, ctx *template.Context) ([]models.Record, []string) {
	if ds == nil {
		return records, nil
	}

	result, warnings := p.ApplyFilters(records, ds.Filters, ctx)
	result = p.ApplyOrder(result, ds.OrderBy)
	result = p.ApplyLimit(result, ds.Limit)
	return result, warnings
}

// ApplyFilters keeps a record iff it satisfies every filter (logical AND).
// Each filter's value is template-resolved once against the context before
// any record is tested.
func (p *Pipeline) ApplyFilters(records []models.Record, filters []models.FilterSpec, ctx *template.Context) ([]models.Record, []string) {
	if len(filters) == 0 {
		return records, nil
	}

	var warnings []string
	active := make([]resolvedFilter, 0, len(filters))
	for _, f := range filters {
		op := strings.ToLower(strings.TrimSpace(f.Operator))
		if !constants.IsValidOperator(op) {
			warnings = append(warnings, fmt.Sprintf("filter on %q skipped: unknown operator %q", f.Field, f.Operator))
			continue
		}
		value := p.engine.ResolveValue(f.Value, ctx)
		if op == constants.OperatorIn {
			list, ok := utils.ToSlice(value)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("filter on %q skipped: `in` requires an array value", f.Field))
				continue
			}
			value = list
		}
		active = append(active, resolvedFilter{field: f.Field, op: op, value: value})
	}

	filtered := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if matchesAll(rec, active) {
			filtered = append(filtered, rec)
		}
	}
	return filtered, warnings
}

// ApplyOrder sorts by each order key in sequence with a stable sort. Null or
// missing values sort after defined values in both directions; that rule is
// applied before the direction flips the comparison.
func (p *Pipeline) ApplyOrder(records []models.Record, orderBy []models.OrderSpec) []models.Record {
	if len(orderBy) == 0 || len(records) < 2 {
		return records
	}

	sorted := make([]models.Record, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		for _, key := range orderBy {
			av, bv := a[key.Field], b[key.Field]
			aNull, bNull := av == nil, bv == nil
			if aNull || bNull {
				if aNull && bNull {
					continue
				}
				return bNull
			}
			cmp := compareValues(av, bv)
			if cmp == 0 {
				continue
			}
			if strings.EqualFold(key.Direction, constants.DirectionDesc) {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return sorted
}

// ApplyLimit truncates to the first limit records. Zero or negative means
// unlimited.
func (p *Pipeline) ApplyLimit(records []models.Record, limit int) []models.Record {
	if limit <= 0 || len(records) <= limit {
		return records
	}
	return records[:limit]
}

type resolvedFilter struct {
	field string
	op    string
	value interface{}
}

// Matches reports whether a record satisfies one already-resolved filter.
// Data adapters use it to honor adapter-level filters with the same operator
// semantics the pipeline applies, without re-running template resolution.
func Matches(rec models.Record, f models.FilterSpec) bool {
	return matchesFilter(rec, resolvedFilter{field: f.Field, op: f.Operator, value: f.Value})
}

func matchesAll(rec models.Record, filters []resolvedFilter) bool {
	for _, f := range filters {
		if !matchesFilter(rec, f) {
			return false
		}
	}
	return true
}

// matchesFilter evaluates one predicate against one record. Null handling is
// deliberate: null never satisfies an ordering comparison or `like`, and
// only the null-check operators look at presence.
func matchesFilter(rec models.Record, f resolvedFilter) bool {
	fieldValue, present := rec[f.field]
	isNull := !present || fieldValue == nil

	switch f.op {
	case constants.OperatorIsNull:
		return isNull
	case constants.OperatorIsNotNull:
		return !isNull
	case constants.OperatorEq:
		return looseEqual(fieldValue, f.value)
	case constants.OperatorNeq:
		return !looseEqual(fieldValue, f.value)
	case constants.OperatorGt, constants.OperatorGte, constants.OperatorLt, constants.OperatorLte:
		if isNull || f.value == nil {
			return false
		}
		cmp := compareValues(fieldValue, f.value)
		switch f.op {
		case constants.OperatorGt:
			return cmp > 0
		case constants.OperatorGte:
			return cmp >= 0
		case constants.OperatorLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	case constants.OperatorLike:
		if isNull {
			return false
		}
		return strings.Contains(utils.ToString(fieldValue), utils.ToString(f.value))
	case constants.OperatorIn:
		list, _ := f.value.([]interface{})
		for _, candidate := range list {
			if looseEqual(fieldValue, candidate) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

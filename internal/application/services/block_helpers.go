package services

import (
	"strings"
	"time"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// Helpers shared by the block renderers: prop normalization, schema-derived
// fallbacks and lenient value parsing for data coming back from the driver.

// propEntries normalizes a list-of-objects prop (columns, fields) into maps.
// Scalar entries are tolerated and treated as field names.
func propEntries(props map[string]interface{}, key string) []map[string]interface{} {
	raw := GetConfigSlice(props, key)
	if len(raw) == 0 {
		return nil
	}
	entries := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case map[string]interface{}:
			entries = append(entries, v)
		case string:
			entries = append(entries, map[string]interface{}{"field": v, "name": v})
		}
	}
	return entries
}

// humanizeField turns a column identifier into a display label:
// "dueDate" and "due_date" both become "Due Date".
func humanizeField(name string) string {
	if name == "" {
		return ""
	}

	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case r >= 'A' && r <= 'Z':
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()

	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// isSystemColumn reports whether the column is one injected at load time.
func isSystemColumn(name string) bool {
	switch name {
	case constants.FieldID,
		constants.SystemColCreatedAtV2, constants.SystemColUpdatedAtV2, constants.SystemColCreatedByV2,
		constants.SystemColCreatedAtV3, constants.SystemColUpdatedAtV3:
		return true
	}
	return false
}

// widgetForColumn maps a blueprint column type to a form widget name.
func widgetForColumn(t constants.ColumnType) string {
	switch t {
	case constants.ColumnTypeInt, constants.ColumnTypeFloat:
		return "number"
	case constants.ColumnTypeBool:
		return "checkbox"
	case constants.ColumnTypeDate:
		return "date"
	case constants.ColumnTypeTimestampTZ:
		return "datetime"
	case constants.ColumnTypeJSONB:
		return "textarea"
	default:
		return "text"
	}
}

// displayRecord picks the record a single-record block should show: the
// session's selected record when one is set, otherwise the first fetched row.
func displayRecord(in *RenderInput) models.Record {
	if in.Tmpl != nil && len(in.Tmpl.SelectedRecord) > 0 {
		return in.Tmpl.SelectedRecord
	}
	if len(in.Records) > 0 {
		return in.Records[0]
	}
	return nil
}

var recordTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseRecordTime reads a timestamp value as the driver may deliver it:
// time.Time from parseTime connections, otherwise a string form.
func parseRecordTime(val interface{}) (time.Time, bool) {
	switch v := val.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range recordTimeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	case []byte:
		return parseRecordTime(string(v))
	}
	return time.Time{}, false
}

// aggregateRecords folds the records of a stat or chart bucket into one
// number. An empty field name always counts rows.
func aggregateRecords(records []models.Record, field, fn string) float64 {
	if field == "" || fn == "count" {
		return float64(len(records))
	}

	var sum float64
	var n int
	min, max := 0.0, 0.0
	for _, rec := range records {
		f, ok := utils.ToFloat(rec[field])
		if !ok {
			continue
		}
		if n == 0 {
			min, max = f, f
		} else {
			if f < min {
				min = f
			}
			if f > max {
				max = f
			}
		}
		sum += f
		n++
	}

	switch fn {
	case "avg":
		if n == 0 {
			return 0
		}
		return sum / float64(n)
	case "min":
		return min
	case "max":
		return max
	default:
		return sum
	}
}

package services

import (
	"fmt"
	"time"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
)

// TimelineBlock renders records as a chronological feed grouped by day, week
// or month. Record order inside a group is whatever the pipeline produced;
// undated records collect in a trailing group.
type TimelineBlock struct{}

func (b *TimelineBlock) Type() constants.BlockType {
	return constants.BlockTypeTimeline
}

func (b *TimelineBlock) Render(in *RenderInput) (map[string]interface{}, error) {
	props := in.Block.Props
	dateField := GetConfigString(props, "dateField")
	if dateField == "" {
		return nil, fmt.Errorf("timeline block %s requires props.dateField", in.Block.ID)
	}
	titleField := GetConfigString(props, "titleField")
	descField := GetConfigString(props, "descriptionField")

	groupBy := GetConfigString(props, "groupBy")
	switch groupBy {
	case "day", "week", "month":
	default:
		groupBy = "day"
	}

	var groupOrder []string
	grouped := make(map[string][]map[string]interface{})
	var undated []map[string]interface{}

	for _, rec := range in.Records {
		entry := map[string]interface{}{
			"id":    rec.Get(constants.FieldID),
			"title": rec.Get(titleField),
		}
		if descField != "" {
			entry["description"] = rec.Get(descField)
		}

		ts, ok := parseRecordTime(rec.Get(dateField))
		if !ok {
			undated = append(undated, entry)
			continue
		}
		entry["date"] = ts.Format(time.RFC3339)

		label := periodLabel(ts, groupBy)
		if _, exists := grouped[label]; !exists {
			groupOrder = append(groupOrder, label)
		}
		grouped[label] = append(grouped[label], entry)
	}

	groups := make([]map[string]interface{}, 0, len(groupOrder)+1)
	for _, label := range groupOrder {
		groups = append(groups, map[string]interface{}{
			"label":   label,
			"entries": grouped[label],
		})
	}
	if len(undated) > 0 {
		groups = append(groups, map[string]interface{}{
			"label":   "undated",
			"entries": undated,
		})
	}

	return map[string]interface{}{
		"groupBy": groupBy,
		"groups":  groups,
	}, nil
}

func periodLabel(ts time.Time, groupBy string) string {
	switch groupBy {
	case "week":
		year, week := ts.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case "month":
		return ts.Format("2006-01")
	default:
		return ts.Format("2006-01-02")
	}
}

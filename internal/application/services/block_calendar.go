package services

import (
	"fmt"
	"time"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
)

// CalendarBlock maps records onto dated events. Records whose start field is
// missing or unparseable are skipped; a missing end falls back to the start.
type CalendarBlock struct{}

func (b *CalendarBlock) Type() constants.BlockType {
	return constants.BlockTypeCalendar
}

func (b *CalendarBlock) Render(in *RenderInput) (map[string]interface{}, error) {
	props := in.Block.Props
	startField := GetConfigString(props, "startField")
	if startField == "" {
		return nil, fmt.Errorf("calendar block %s requires props.startField", in.Block.ID)
	}
	endField := GetConfigString(props, "endField")
	titleField := GetConfigString(props, "titleField")
	colorField := GetConfigString(props, "colorField")

	events := make([]map[string]interface{}, 0, len(in.Records))
	for _, rec := range in.Records {
		start, ok := parseRecordTime(rec.Get(startField))
		if !ok {
			continue
		}
		end := start
		if endField != "" {
			if parsed, ok := parseRecordTime(rec.Get(endField)); ok {
				end = parsed
			}
		}

		event := map[string]interface{}{
			"id":     rec.Get(constants.FieldID),
			"title":  rec.Get(titleField),
			"start":  start.Format(time.RFC3339),
			"end":    end.Format(time.RFC3339),
			"record": rec,
		}
		if colorField != "" {
			event["color"] = rec.Get(colorField)
		}
		events = append(events, event)
	}

	views := GetConfigSlice(props, "views")
	if len(views) == 0 {
		views = []interface{}{"month", "week", "day"}
	}
	defaultView := GetConfigString(props, "defaultView")
	if defaultView == "" {
		defaultView = "month"
	}

	return map[string]interface{}{
		"events":      events,
		"views":       views,
		"defaultView": defaultView,
		"allowCreate": GetConfigBool(props, "allowCreate"),
		"allowDrag":   GetConfigBool(props, "allowDrag"),
	}, nil
}

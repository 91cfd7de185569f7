package services

import (
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
)

// StatCardBlock renders one KPI number. Without a valueField it counts the
// fetched records; with one it folds the field using the aggregate prop
// (sum by default, also count, avg, min, max).
type StatCardBlock struct{}

func (b *StatCardBlock) Type() constants.BlockType {
	return constants.BlockTypeStatCard
}

func (b *StatCardBlock) Render(in *RenderInput) (map[string]interface{}, error) {
	props := in.Block.Props
	valueField := GetConfigString(props, "valueField")
	aggregate := GetConfigString(props, "aggregate")
	if aggregate == "" {
		if valueField == "" {
			aggregate = "count"
		} else {
			aggregate = "sum"
		}
	}

	title := GetConfigString(props, "title")
	if in.Engine != nil {
		title = in.Engine.ResolveTemplate(title, in.Tmpl)
	}

	return map[string]interface{}{
		"title":     title,
		"value":     aggregateRecords(in.Records, valueField, aggregate),
		"aggregate": aggregate,
		"icon":      GetConfigString(props, "icon"),
		"color":     GetConfigString(props, "color"),
	}, nil
}

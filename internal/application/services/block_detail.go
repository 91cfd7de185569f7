package services

import (
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
)

// DetailBlock renders a single record read-only. A missing record is an
// empty state, not an error.
type DetailBlock struct{}

func (b *DetailBlock) Type() constants.BlockType {
	return constants.BlockTypeDetail
}

func (b *DetailBlock) Render(in *RenderInput) (map[string]interface{}, error) {
	fields := propEntries(in.Block.Props, "fields")
	if len(fields) == 0 && in.Table != nil {
		fields = make([]map[string]interface{}, 0, len(in.Table.Columns))
		for _, col := range in.Table.Columns {
			if isSystemColumn(col.Name) {
				continue
			}
			fields = append(fields, map[string]interface{}{
				"name":  col.Name,
				"label": humanizeField(col.Name),
				"type":  string(col.Type),
			})
		}
	}
	for _, f := range fields {
		if _, ok := f["label"]; !ok {
			f["label"] = humanizeField(GetConfigString(f, "name"))
		}
	}

	layout := GetConfigString(in.Block.Props, "layout")
	if layout == "" {
		layout = "vertical"
	}

	payload := map[string]interface{}{
		"fields": fields,
		"layout": layout,
	}
	if record := displayRecord(in); record != nil {
		payload["record"] = record
	}
	return payload, nil
}

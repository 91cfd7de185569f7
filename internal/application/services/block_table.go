package services

import (
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
)

// TableBlock renders a data grid. Columns come from props; when absent they
// are derived from the bound table's schema so a bare dataSource still shows
// something sensible.
type TableBlock struct{}

func (b *TableBlock) Type() constants.BlockType {
	return constants.BlockTypeTable
}

func (b *TableBlock) Render(in *RenderInput) (map[string]interface{}, error) {
	columns := propEntries(in.Block.Props, "columns")
	if len(columns) == 0 {
		columns = b.defaultColumns(in)
	}
	for _, col := range columns {
		if _, ok := col["header"]; !ok {
			col["header"] = humanizeField(GetConfigString(col, "field"))
		}
	}

	return map[string]interface{}{
		"columns":     columns,
		"rows":        in.Records,
		"total":       in.Total,
		"allowCreate": GetConfigBool(in.Block.Props, "allowCreate"),
		"allowEdit":   GetConfigBool(in.Block.Props, "allowEdit"),
		"allowDelete": GetConfigBool(in.Block.Props, "allowDelete"),
	}, nil
}

func (b *TableBlock) defaultColumns(in *RenderInput) []map[string]interface{} {
	if in.Table == nil {
		return nil
	}
	columns := make([]map[string]interface{}, 0, len(in.Table.Columns))
	for _, col := range in.Table.Columns {
		if isSystemColumn(col.Name) {
			continue
		}
		columns = append(columns, map[string]interface{}{
			"field":    col.Name,
			"header":   humanizeField(col.Name),
			"type":     string(col.Type),
			"sortable": true,
		})
	}
	return columns
}

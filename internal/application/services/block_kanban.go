package services

import (
	"fmt"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// KanbanBlock groups records into columns by a status-like field. Explicit
// column definitions pin order and labels; otherwise columns derive from the
// distinct values in record order. Records whose group value matches no
// explicit column are dropped from the board rather than invented a lane.
type KanbanBlock struct{}

func (b *KanbanBlock) Type() constants.BlockType {
	return constants.BlockTypeKanban
}

func (b *KanbanBlock) Render(in *RenderInput) (map[string]interface{}, error) {
	props := in.Block.Props
	groupBy := GetConfigString(props, "groupByField")
	if groupBy == "" {
		return nil, fmt.Errorf("kanban block %s requires props.groupByField", in.Block.ID)
	}

	card, _ := GetConfigMap(props, "card")

	grouped := make(map[string][]models.Record)
	var valueOrder []string
	seen := make(map[string]bool)
	for _, rec := range in.Records {
		value := utils.ToString(rec[groupBy])
		grouped[value] = append(grouped[value], rec)
		if !seen[value] {
			seen[value] = true
			valueOrder = append(valueOrder, value)
		}
	}

	columns := propEntries(props, "columns")
	if len(columns) == 0 {
		columns = make([]map[string]interface{}, 0, len(valueOrder))
		for _, value := range valueOrder {
			columns = append(columns, map[string]interface{}{
				"value": value,
				"label": humanizeField(value),
			})
		}
	}

	out := make([]map[string]interface{}, 0, len(columns))
	for _, col := range columns {
		value := GetConfigString(col, "value")
		label := GetConfigString(col, "label")
		if label == "" {
			label = humanizeField(value)
		}

		cards := make([]map[string]interface{}, 0, len(grouped[value]))
		for _, rec := range grouped[value] {
			cards = append(cards, b.card(rec, card))
		}

		entry := map[string]interface{}{
			"value": value,
			"label": label,
			"cards": cards,
			"count": len(cards),
		}
		if color := GetConfigString(col, "color"); color != "" {
			entry["color"] = color
		}
		out = append(out, entry)
	}

	return map[string]interface{}{
		"groupByField":  groupBy,
		"columns":       out,
		"allowDragDrop": GetConfigBool(props, "allowDragDrop"),
		"allowCreate":   GetConfigBool(props, "allowCreate"),
	}, nil
}

func (b *KanbanBlock) card(rec models.Record, card map[string]interface{}) map[string]interface{} {
	titleField := GetConfigString(card, "titleField")
	if titleField == "" {
		titleField = "title"
	}

	entry := map[string]interface{}{
		"id":     rec.Get(constants.FieldID),
		"title":  rec.Get(titleField),
		"record": rec,
	}
	if descField := GetConfigString(card, "descriptionField"); descField != "" {
		entry["description"] = rec.Get(descField)
	}
	if metaFields := GetConfigSlice(card, "metaFields"); len(metaFields) > 0 {
		meta := make(map[string]interface{}, len(metaFields))
		for _, mf := range metaFields {
			name := utils.ToString(mf)
			if name != "" {
				meta[name] = rec.Get(name)
			}
		}
		entry["meta"] = meta
	}
	return entry
}

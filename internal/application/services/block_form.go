package services

import (
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
)

// FormBlock renders a create or edit form. With a selected record in the
// session it prefills for editing; otherwise it is a blank create form.
type FormBlock struct{}

func (b *FormBlock) Type() constants.BlockType {
	return constants.BlockTypeForm
}

func (b *FormBlock) Render(in *RenderInput) (map[string]interface{}, error) {
	fields := propEntries(in.Block.Props, "fields")
	if len(fields) == 0 {
		fields = b.defaultFields(in)
	}
	for _, f := range fields {
		if _, ok := f["label"]; !ok {
			f["label"] = humanizeField(GetConfigString(f, "name"))
		}
	}

	mode := "create"
	payload := map[string]interface{}{
		"fields": fields,
	}
	if in.Tmpl != nil && len(in.Tmpl.SelectedRecord) > 0 {
		mode = "edit"
		payload["initialValues"] = in.Tmpl.SelectedRecord
	}
	payload["mode"] = mode

	return payload, nil
}

func (b *FormBlock) defaultFields(in *RenderInput) []map[string]interface{} {
	if in.Table == nil {
		return nil
	}
	fields := make([]map[string]interface{}, 0, len(in.Table.Columns))
	for _, col := range in.Table.Columns {
		if isSystemColumn(col.Name) {
			continue
		}
		fields = append(fields, map[string]interface{}{
			"name":     col.Name,
			"label":    humanizeField(col.Name),
			"type":     widgetForColumn(col.Type),
			"required": col.Required,
		})
	}
	return fields
}

package versioning

import (
	"encoding/json"
	"fmt"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// v1 blueprints described refine-style resources instead of pages. Each
// resource carried up to four views (list, create, edit, show); the
// up-conversion turns the list view into a table page and the remaining
// views into modals wired through the table's actions.

type v1Resource struct {
	Name  string          `json:"name"`
	Table string          `json:"table"`
	Label string          `json:"label"`
	Views map[string]bool `json:"views"`
	List  *v1ListConfig   `json:"list"`
	Forms *v1FormConfig   `json:"forms"`
}

type v1ListConfig struct {
	Columns []string                 `json:"columns"`
	Filters []map[string]interface{} `json:"filters"`
}

type v1FormConfig struct {
	CreateFields []v1Field `json:"createFields"`
	EditFields   []v1Field `json:"editFields"`
}

type v1Field struct {
	Name    string        `json:"name"`
	Widget  string        `json:"widget"`
	Label   string        `json:"label"`
	Options []interface{} `json:"options"`
}

func convertV1(bp *models.Blueprint, raw map[string]interface{}) error {
	ui, _ := raw["ui"].(map[string]interface{})
	if ui == nil {
		return nil
	}
	rawResources, ok := ui["resources"]
	if !ok {
		return nil
	}

	encoded, err := json.Marshal(rawResources)
	if err != nil {
		return fmt.Errorf("v1 resources are not serializable: %w", err)
	}
	var resources []v1Resource
	if err := json.Unmarshal(encoded, &resources); err != nil {
		return fmt.Errorf("v1 resources do not match the resource shape: %w", err)
	}

	for _, res := range resources {
		page, modals := convertV1Resource(res)
		bp.UI.Pages = append(bp.UI.Pages, page)
		bp.UI.Modals = append(bp.UI.Modals, modals...)
	}
	return nil
}

func convertV1Resource(res v1Resource) (models.PageSpec, []models.ModalSpec) {
	table := res.Table
	if table == "" {
		table = res.Name
	}
	title := res.Label
	if title == "" {
		title = res.Name
	}

	tableBlock := models.BlockSpec{
		ID:         res.Name + "-table",
		Type:       string(constants.BlockTypeTable),
		DataSource: &models.DataSourceSpec{Table: table},
		Props: map[string]interface{}{
			"columns":     v1TableColumns(res),
			"allowCreate": res.Views["create"],
			"allowEdit":   res.Views["edit"],
		},
	}
	if res.List != nil {
		for _, f := range res.List.Filters {
			field := utils.ToString(f["field"])
			if field == "" {
				continue
			}
			op := utils.ToString(f["operator"])
			if op == "" {
				op = constants.OperatorEq
			}
			tableBlock.DataSource.Filters = append(tableBlock.DataSource.Filters, models.FilterSpec{
				Field:    field,
				Operator: op,
				Value:    f["value"],
			})
		}
	}

	var modals []models.ModalSpec

	if res.Views["show"] {
		modalID := res.Name + "-detail"
		modals = append(modals, models.ModalSpec{
			ID:    modalID,
			Title: title,
			Size:  "medium",
			Blocks: []models.BlockSpec{{
				ID:         res.Name + "-detail-view",
				Type:       string(constants.BlockTypeDetail),
				DataSource: &models.DataSourceSpec{Table: table},
				Props:      map[string]interface{}{"fields": v1DetailFields(res)},
			}},
		})
		tableBlock.Actions = append(tableBlock.Actions, models.ActionConfig{
			Trigger: constants.TriggerRowClick,
			Action:  constants.ActionView,
			Config:  map[string]interface{}{constants.ConfigModal: modalID},
		})
	}

	if res.Views["create"] && res.Forms != nil && len(res.Forms.CreateFields) > 0 {
		modalID := res.Name + "-create"
		modals = append(modals, models.ModalSpec{
			ID:    modalID,
			Title: "New " + title,
			Size:  "medium",
			Blocks: []models.BlockSpec{{
				ID:         res.Name + "-create-form",
				Type:       string(constants.BlockTypeForm),
				DataSource: &models.DataSourceSpec{Table: table},
				Props:      map[string]interface{}{"fields": v1FormFields(res.Forms.CreateFields)},
			}},
		})
		tableBlock.Actions = append(tableBlock.Actions, models.ActionConfig{
			Trigger: constants.TriggerCreateClick,
			Action:  constants.ActionCreate,
			Config:  map[string]interface{}{constants.ConfigModal: modalID},
		})
	}

	page := models.PageSpec{
		ID:     res.Name + "-list",
		Route:  "/" + res.Name,
		Title:  title,
		Blocks: []models.BlockSpec{tableBlock},
	}
	return page, modals
}

func v1TableColumns(res v1Resource) []interface{} {
	if res.List == nil {
		return nil
	}
	cols := make([]interface{}, 0, len(res.List.Columns))
	for _, name := range res.List.Columns {
		cols = append(cols, map[string]interface{}{"field": name, "header": name})
	}
	return cols
}

func v1DetailFields(res v1Resource) []interface{} {
	if res.List == nil {
		return nil
	}
	fields := make([]interface{}, 0, len(res.List.Columns))
	for _, name := range res.List.Columns {
		fields = append(fields, map[string]interface{}{"name": name, "label": name})
	}
	return fields
}

func v1FormFields(fields []v1Field) []interface{} {
	out := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		label := f.Label
		if label == "" {
			label = f.Name
		}
		entry := map[string]interface{}{"name": f.Name, "label": label}
		if f.Widget != "" {
			entry["type"] = f.Widget
		}
		if len(f.Options) > 0 {
			entry["options"] = f.Options
		}
		out = append(out, entry)
	}
	return out
}

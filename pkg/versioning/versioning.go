// Package versioning detects which blueprint generation a raw document
// belongs to and normalizes it into the canonical in-memory model. Three
// generations exist in the wild: v1 described refine-style resources, v2
// switched to explicit pages with snake_case tables, v3 renamed the data
// binding to `entity` and moved system columns to camelCase.
package versioning

import (
	"encoding/json"
	"fmt"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

// DetectVersion returns the blueprint generation for a raw document. An
// explicit version field wins; otherwise the shape decides: a ui.resources
// list is v1, a block bound via dataSource.table is v2, everything else v3.
func DetectVersion(raw map[string]interface{}) int {
	if v, ok := raw["version"]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i)
			}
		}
	}

	ui, _ := raw["ui"].(map[string]interface{})
	if ui != nil {
		if resources, ok := ui["resources"].([]interface{}); ok && len(resources) > 0 {
			return constants.BlueprintVersionV1
		}
		if pagesUseTableBinding(ui) {
			return constants.BlueprintVersionV2
		}
	}
	return constants.BlueprintVersionV3
}

func pagesUseTableBinding(ui map[string]interface{}) bool {
	pages, _ := ui["pages"].([]interface{})
	for _, p := range pages {
		page, _ := p.(map[string]interface{})
		blocks, _ := page["blocks"].([]interface{})
		for _, b := range blocks {
			block, _ := b.(map[string]interface{})
			ds, _ := block["dataSource"].(map[string]interface{})
			if ds == nil {
				continue
			}
			if _, hasTable := ds["table"]; hasTable {
				return true
			}
			if _, hasEntity := ds["entity"]; hasEntity {
				return false
			}
		}
	}
	return false
}

// Normalize parses a raw blueprint document into the canonical model,
// up-converting v1 resources into pages and stamping the detected version.
// System columns are injected so downstream consumers never special-case
// their absence.
func Normalize(data []byte) (*models.Blueprint, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("blueprint is not valid JSON: %w", err)
	}

	var bp models.Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("blueprint does not match the document model: %w", err)
	}

	bp.Version = DetectVersion(raw)
	if bp.Version == constants.BlueprintVersionV1 {
		if err := convertV1(&bp, raw); err != nil {
			return nil, err
		}
	}

	InjectSystemColumns(&bp)
	return &bp, nil
}

// SystemColumns lists the implicit columns every provisioned table carries.
// v1 and v2 used snake_case names plus an author column; v3 dropped the
// author and went camelCase.
func SystemColumns(version int) []models.ColumnSpec {
	if version >= constants.BlueprintVersionV3 {
		return []models.ColumnSpec{
			{Name: constants.FieldID, Type: constants.ColumnTypeUUID, Required: true, Unique: true},
			{Name: constants.SystemColCreatedAtV3, Type: constants.ColumnTypeTimestampTZ},
			{Name: constants.SystemColUpdatedAtV3, Type: constants.ColumnTypeTimestampTZ},
		}
	}
	return []models.ColumnSpec{
		{Name: constants.FieldID, Type: constants.ColumnTypeUUID, Required: true, Unique: true},
		{Name: constants.SystemColCreatedAtV2, Type: constants.ColumnTypeTimestampTZ},
		{Name: constants.SystemColUpdatedAtV2, Type: constants.ColumnTypeTimestampTZ},
		{Name: constants.SystemColCreatedByV2, Type: constants.ColumnTypeUUID},
	}
}

// InjectSystemColumns prepends missing system columns to every table.
// Idempotent: author-declared columns with the same name are left alone.
func InjectSystemColumns(bp *models.Blueprint) {
	system := SystemColumns(bp.Version)
	for i := range bp.Data.Tables {
		table := &bp.Data.Tables[i]
		existing := make(map[string]bool, len(table.Columns))
		for _, col := range table.Columns {
			existing[col.Name] = true
		}

		var missing []models.ColumnSpec
		for _, col := range system {
			if !existing[col.Name] {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			table.Columns = append(missing, table.Columns...)
		}
	}
}

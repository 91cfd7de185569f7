package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// Identifier rules. Provisioned names must survive as unquoted MySQL
// identifiers, so authored names are capped at 31 chars and restricted to
// lowercase alphanumerics. Version 3 blueprints author PascalCase entities
// and camelCase columns; those are checked in their snake_case physical form.
var (
	slugPattern       = regexp.MustCompile(`^[a-z][a-z0-9-]{0,30}$`)
	identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,30}$`)
)

// ValidationReport separates hard violations (the app cannot start) from
// warnings (the runtime degrades fail-soft and keeps the page alive).
type ValidationReport struct {
	Violations []string
	Warnings   []string
}

// Valid reports whether the blueprint can be started.
func (r *ValidationReport) Valid() bool {
	return len(r.Violations) == 0
}

func (r *ValidationReport) violationf(format string, args ...interface{}) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

func (r *ValidationReport) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidateBlueprint runs the semantic checks that go beyond document shape:
// identifier hygiene, referential integrity between UI and data sections,
// and closed-set membership for operators and column types. Violations block
// the Start transition; warnings only describe where the runtime will degrade.
func ValidateBlueprint(bp *models.Blueprint) *ValidationReport {
	report := &ValidationReport{}
	if bp == nil {
		report.violationf("blueprint: document is missing")
		return report
	}

	validateIdentifiers(bp, report)
	validateRelationships(bp, report)
	validateUI(bp, report)
	validateSecurity(bp, report)
	return report
}

func validateIdentifiers(bp *models.Blueprint, report *ValidationReport) {
	if !slugPattern.MatchString(bp.App.Slug) {
		report.violationf("app.slug: %q must be lowercase letters, digits and hyphens, at most 31 chars", bp.App.Slug)
	}

	seen := make(map[string]bool, len(bp.Data.Tables))
	for i := range bp.Data.Tables {
		table := &bp.Data.Tables[i]
		path := fmt.Sprintf("data.tables[%d]", i)

		if !validIdentifier(table.Name, bp.Version) {
			report.violationf("%s.name: %q must provision to snake_case (lowercase, digits, underscores, at most 31 chars)", path, table.Name)
		}
		if seen[table.Name] {
			report.violationf("%s.name: duplicate table %q", path, table.Name)
		}
		seen[table.Name] = true

		cols := make(map[string]bool, len(table.Columns))
		for j, col := range table.Columns {
			colPath := fmt.Sprintf("%s.columns[%d]", path, j)
			if !validIdentifier(col.Name, bp.Version) {
				report.violationf("%s.name: %q in table %q must provision to snake_case", colPath, col.Name, table.Name)
			}
			if cols[col.Name] {
				report.violationf("%s.name: duplicate column %q in table %q", colPath, col.Name, table.Name)
			}
			cols[col.Name] = true

			if col.Type != "" && !constants.IsValidColumnType(string(col.Type)) {
				report.violationf("%s.type: %q is not a recognized column type", colPath, col.Type)
			}
		}
	}
}

// validIdentifier checks the physical form an authored name provisions to.
// v1/v2 author snake_case directly; v3 authors PascalCase entities and
// camelCase columns that are snake_cased at provisioning time.
func validIdentifier(name string, version int) bool {
	if version >= constants.BlueprintVersionV3 {
		name = utils.ToSnakeCase(name)
	}
	return identifierPattern.MatchString(name)
}

func validateRelationships(bp *models.Blueprint, report *ValidationReport) {
	for i, rel := range bp.Data.Relationships {
		path := fmt.Sprintf("data.relationships[%d]", i)

		if rel.Type != constants.RelManyToOne && rel.Type != constants.RelOneToMany {
			report.violationf("%s.type: %q must be %s or %s", path, rel.Type, constants.RelManyToOne, constants.RelOneToMany)
		}

		from := bp.Table(rel.FromTable)
		if from == nil {
			report.violationf("%s.fromTable: references undeclared table %q", path, rel.FromTable)
		}
		to := bp.Table(rel.ToTable)
		if to == nil {
			report.violationf("%s.toTable: references undeclared table %q", path, rel.ToTable)
		}

		if rel.FromColumn != "" && from != nil && from.Column(rel.FromColumn) == nil {
			report.violationf("%s.fromColumn: %q is not a column of %q", path, rel.FromColumn, rel.FromTable)
		}
		if rel.ToColumn != "" && to != nil && to.Column(rel.ToColumn) == nil {
			report.violationf("%s.toColumn: %q is not a column of %q", path, rel.ToColumn, rel.ToTable)
		}
	}
}

func validateUI(bp *models.Blueprint, report *ValidationReport) {
	pageIDs := make(map[string]bool, len(bp.UI.Pages))
	routes := make(map[string]bool, len(bp.UI.Pages))

	for i := range bp.UI.Pages {
		page := &bp.UI.Pages[i]
		path := fmt.Sprintf("ui.pages[%d]", i)

		if page.ID == "" {
			report.violationf("%s.id: page id is required", path)
		} else if pageIDs[page.ID] {
			report.violationf("%s.id: duplicate page id %q", path, page.ID)
		}
		pageIDs[page.ID] = true

		if page.Route != "" {
			if routes[page.Route] {
				report.violationf("%s.route: duplicate route %q", path, page.Route)
			}
			routes[page.Route] = true
		}

		validateLayout(page.Layout, path, report)
		validateBlocks(bp, page.Blocks, path, make(map[string]bool), report)
	}

	modalIDs := make(map[string]bool, len(bp.UI.Modals))
	for i := range bp.UI.Modals {
		modal := &bp.UI.Modals[i]
		path := fmt.Sprintf("ui.modals[%d]", i)

		if modal.ID == "" {
			report.violationf("%s.id: modal id is required", path)
		} else if modalIDs[modal.ID] {
			report.violationf("%s.id: duplicate modal id %q", path, modal.ID)
		}
		modalIDs[modal.ID] = true

		validateLayout(modal.Layout, path, report)
		validateBlocks(bp, modal.Blocks, path, make(map[string]bool), report)
	}
}

func validateLayout(layout *models.LayoutConfig, path string, report *ValidationReport) {
	if layout == nil || layout.Type == "" {
		return
	}
	kind := strings.ToLower(strings.TrimSpace(layout.Type))
	for _, known := range constants.GetAllLayoutKinds() {
		if kind == known {
			return
		}
	}
	report.warnf("%s.layout.type: unknown kind %q falls back to single", path, layout.Type)
}

// validateBlocks walks a block tree. Block ids share one namespace per
// containing page or modal, including nested children.
func validateBlocks(bp *models.Blueprint, blocks []models.BlockSpec, path string, ids map[string]bool, report *ValidationReport) {
	for i := range blocks {
		block := &blocks[i]
		blockPath := fmt.Sprintf("%s.blocks[%d]", path, i)

		if block.ID == "" {
			report.violationf("%s.id: block id is required", blockPath)
		} else if ids[block.ID] {
			report.violationf("%s.id: duplicate block id %q", blockPath, block.ID)
		}
		ids[block.ID] = true

		if !knownBlockType(block.Type) {
			report.warnf("%s.type: %q has no renderer and will render as unknown", blockPath, block.Type)
		}

		if block.DataSource != nil {
			entity := block.DataSource.EntityName()
			if entity == "" {
				report.violationf("%s.dataSource: table/entity binding is required when a dataSource is declared", blockPath)
			} else if bp.Table(entity) == nil {
				report.violationf("%s.dataSource: references undeclared table %q", blockPath, entity)
			}

			for j, filter := range block.DataSource.Filters {
				if !constants.IsValidOperator(filter.Operator) {
					report.violationf("%s.dataSource.filters[%d].operator: %q is not in the operator set", blockPath, j, filter.Operator)
				}
			}
		}

		if len(block.Children) > 0 {
			validateBlocks(bp, block.Children, blockPath, ids, report)
		}
	}
}

func knownBlockType(raw string) bool {
	folded := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := constants.BlockTypeAliases[folded]; ok {
		folded = string(alias)
	}
	for _, known := range constants.GetAllBlockTypes() {
		if folded == known {
			return true
		}
	}
	return false
}

func validateSecurity(bp *models.Blueprint, report *ValidationReport) {
	roles := make(map[string]bool, len(bp.Security.Roles))
	for _, role := range bp.Security.Roles {
		roles[role.Name] = true
	}

	for i, perm := range bp.Security.Permissions {
		path := fmt.Sprintf("security.permissions[%d]", i)
		if !roles[perm.Role] {
			report.violationf("%s.role: references undeclared role %q", path, perm.Role)
		}
		if entity := perm.EntityName(); entity == "" || bp.Table(entity) == nil {
			report.violationf("%s.resource: references undeclared table %q", path, entity)
		}
	}

	for i, rf := range bp.Security.RowFilters {
		path := fmt.Sprintf("security.rowFilters[%d]", i)
		if !roles[rf.Role] {
			report.violationf("%s.role: references undeclared role %q", path, rf.Role)
		}
		if entity := rf.EntityName(); entity == "" || bp.Table(entity) == nil {
			report.violationf("%s.entity: references undeclared table %q", path, entity)
		}
	}
}

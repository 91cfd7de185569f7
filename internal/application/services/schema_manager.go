package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// TableDropper is implemented by record stores that can tear down per-app
// tables themselves (the in-memory store). The MySQL path drops via DDL.
type TableDropper interface {
	DropPrefix(prefix string)
}

// SchemaManager renders and executes the DDL that provisions one app's
// physical tables from its blueprint's data section. With no database bound
// (DATA_BACKEND=memory) provisioning is a no-op: the memory store creates
// tables lazily on first write and tears down by prefix.
type SchemaManager struct {
	db *sql.DB
}

// NewSchemaManager creates a new schema manager. db may be nil for the
// memory backend.
func NewSchemaManager(db *sql.DB) *SchemaManager {
	return &SchemaManager{db: db}
}

// ProvisionApp creates every table the blueprint declares, referenced tables
// first so a later migration can add real foreign keys without reordering.
// CREATE TABLE IF NOT EXISTS makes re-starting an app idempotent.
func (sm *SchemaManager) ProvisionApp(ctx context.Context, app *models.App, bp *models.Blueprint) error {
	if sm.db == nil {
		log.Printf("📐 Schema: memory backend, skipping DDL for %s", app.Slug)
		return nil
	}

	ordered := TablesInDependencyOrder(bp)
	log.Printf("📐 Schema: provisioning %d table(s) for %s", len(ordered), app.Slug)

	for _, name := range ordered {
		table := bp.Table(name)
		if table == nil {
			continue
		}
		ddl := sm.BuildCreateTableDDL(app.Slug, bp, table)
		physical := PhysicalTable(app.Slug, table.Name)

		log.Printf("📝 Schema: executing DDL for %s", physical)
		if _, err := sm.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", physical, err)
		}
	}

	log.Printf("✅ Schema: %s provisioned", app.Slug)
	return nil
}

// TeardownApp drops the app's tables in reverse dependency order. Missing
// tables are fine; teardown after a half-failed provision must still succeed.
func (sm *SchemaManager) TeardownApp(ctx context.Context, app *models.App, bp *models.Blueprint, store interface{}) error {
	if sm.db == nil {
		if dropper, ok := store.(TableDropper); ok {
			dropper.DropPrefix(constants.AppTablePrefix + strings.ReplaceAll(app.Slug, "-", "_") + "__")
		}
		return nil
	}

	ordered := TablesInDependencyOrder(bp)
	for i := len(ordered) - 1; i >= 0; i-- {
		physical := PhysicalTable(app.Slug, ordered[i])
		if _, err := sm.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS `%s`", physical)); err != nil {
			return fmt.Errorf("drop table %s: %w", physical, err)
		}
		log.Printf("🧹 Schema: dropped %s", physical)
	}
	return nil
}

// BuildCreateTableDDL renders the CREATE TABLE statement for one declared
// table. Column names are used verbatim (the record write path addresses
// them by their authored names); only the table name is snake_cased into the
// physical prefix form.
func (sm *SchemaManager) BuildCreateTableDDL(slug string, bp *models.Blueprint, table *models.TableSpec) string {
	physical := PhysicalTable(slug, table.Name)
	pk := table.PrimaryKey
	if pk == "" {
		pk = constants.FieldID
	}

	var ddl strings.Builder
	ddl.WriteString(fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (\n", physical))

	var constraints []string
	constraints = append(constraints, fmt.Sprintf("PRIMARY KEY (`%s`)", pk))

	for _, col := range table.Columns {
		ddl.WriteString("  ")
		ddl.WriteString(sm.buildColumnDDL(col, col.Name == pk))
		ddl.WriteString(",\n")

		if col.Name == pk {
			continue
		}
		if col.Unique {
			constraints = append(constraints, fmt.Sprintf("UNIQUE KEY `uk_%s_%s` (`%s`)",
				utils.ToSnakeCase(table.Name), utils.ToSnakeCase(col.Name), col.Name))
		} else if col.Indexed {
			constraints = append(constraints, fmt.Sprintf("KEY `idx_%s_%s` (`%s`)",
				utils.ToSnakeCase(table.Name), utils.ToSnakeCase(col.Name), col.Name))
		}
	}

	ddl.WriteString("  " + strings.Join(constraints, ",\n  "))
	ddl.WriteString("\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci")
	return ddl.String()
}

// buildColumnDDL generates DDL for a single column.
func (sm *SchemaManager) buildColumnDDL(col models.ColumnSpec, isPK bool) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("`%s` %s", col.Name, columnSQLType(col.Type)))

	if isPK || col.Required {
		sb.WriteString(" NOT NULL")
	} else {
		sb.WriteString(" NULL")
	}
	if def := defaultLiteral(col); def != "" {
		sb.WriteString(" DEFAULT " + def)
	}
	return sb.String()
}

// columnSQLType maps a blueprint column type onto its MySQL storage type.
// Unrecognized types (pre-validation input) store as TEXT rather than fail.
func columnSQLType(t constants.ColumnType) string {
	switch t {
	case constants.ColumnTypeUUID:
		return "CHAR(36)"
	case constants.ColumnTypeText:
		return "TEXT"
	case constants.ColumnTypeInt:
		return "BIGINT"
	case constants.ColumnTypeFloat:
		return "DOUBLE"
	case constants.ColumnTypeBool:
		return "TINYINT(1)"
	case constants.ColumnTypeDate:
		return "DATE"
	case constants.ColumnTypeTimestampTZ:
		return "TIMESTAMP(6)"
	case constants.ColumnTypeJSONB:
		return "JSON"
	default:
		return "TEXT"
	}
}

// defaultLiteral renders a declared default as an inline SQL literal.
// TEXT and JSON columns cannot carry defaults in MySQL, so those are applied
// by the write path instead and skipped here.
func defaultLiteral(col models.ColumnSpec) string {
	if col.Default == nil {
		return ""
	}
	switch col.Type {
	case constants.ColumnTypeText, constants.ColumnTypeJSONB:
		return ""
	case constants.ColumnTypeBool:
		if utils.ToBool(col.Default) {
			return "1"
		}
		return "0"
	case constants.ColumnTypeInt, constants.ColumnTypeFloat:
		if f, ok := utils.ToFloat(col.Default); ok {
			if f == float64(int64(f)) {
				return fmt.Sprintf("%d", int64(f))
			}
			return fmt.Sprintf("%g", f)
		}
		return ""
	default:
		s := utils.ToString(col.Default)
		if s == "" {
			return ""
		}
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
}

package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/brnikita/refine-supabase-apps-builder/internal/domain/ports"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	apperrors "github.com/brnikita/refine-supabase-apps-builder/pkg/errors"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

// AppRepository is the MySQL-backed app registry. Apps live in _system_apps,
// their immutable blueprint versions in _system_blueprints; the blueprint
// document is stored as the normalized JSON the service validated.
type AppRepository struct {
	db *sql.DB
}

var _ ports.AppRegistry = (*AppRepository)(nil)

func NewAppRepository(db *sql.DB) *AppRepository {
	return &AppRepository{db: db}
}

var appColumns = []string{
	"id", "name", "slug", "description", "status",
	"current_version", "runtime_config", "last_status_reason",
	"created_at", "updated_at",
}

var blueprintColumns = []string{
	"id", "app_id", "version", "document", "content_hash", "created_at",
}

// EnsureSystemTables creates the registry's own tables. Idempotent; called
// once at startup before any request is served.
func (r *AppRepository) EnsureSystemTables(ctx context.Context) error {
	appsDDL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS `+"`%s`"+` (
  `+"`id`"+` CHAR(36) NOT NULL,
  `+"`name`"+` VARCHAR(255) NOT NULL,
  `+"`slug`"+` VARCHAR(64) NOT NULL,
  `+"`description`"+` TEXT NULL,
  `+"`status`"+` VARCHAR(16) NOT NULL,
  `+"`current_version`"+` INT NOT NULL DEFAULT 0,
  `+"`runtime_config`"+` JSON NULL,
  `+"`last_status_reason`"+` TEXT NULL,
  `+"`created_at`"+` TIMESTAMP(6) NOT NULL,
  `+"`updated_at`"+` TIMESTAMP(6) NOT NULL,
  PRIMARY KEY (`+"`id`"+`),
  UNIQUE KEY `+"`uk_system_apps_slug`"+` (`+"`slug`"+`)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`, constants.TableApps)

	blueprintsDDL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS `+"`%s`"+` (
  `+"`id`"+` CHAR(36) NOT NULL,
  `+"`app_id`"+` CHAR(36) NOT NULL,
  `+"`version`"+` INT NOT NULL,
  `+"`document`"+` JSON NOT NULL,
  `+"`content_hash`"+` CHAR(64) NOT NULL,
  `+"`created_at`"+` TIMESTAMP(6) NOT NULL,
  PRIMARY KEY (`+"`id`"+`),
  UNIQUE KEY `+"`uk_system_blueprints_app_version`"+` (`+"`app_id`"+`, `+"`version`"+`)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`, constants.TableBlueprints)

	if _, err := r.db.ExecContext(ctx, appsDDL); err != nil {
		return fmt.Errorf("create %s: %w", constants.TableApps, err)
	}
	if _, err := r.db.ExecContext(ctx, blueprintsDDL); err != nil {
		return fmt.Errorf("create %s: %w", constants.TableBlueprints, err)
	}
	return nil
}

func (r *AppRepository) CreateApp(ctx context.Context, app *models.App) error {
	runtimeConfig, err := json.Marshal(app.RuntimeConfig)
	if err != nil {
		return fmt.Errorf("marshal runtime config: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO `%s` (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		constants.TableApps, strings.Join(appColumns, ", "))

	_, err = r.db.ExecContext(ctx, insert,
		app.ID, app.Name, app.Slug, app.Description, string(app.Status),
		app.CurrentVersion, string(runtimeConfig), app.LastStatusReason,
		app.CreatedAt, app.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return apperrors.NewConflictError("app", "slug", app.Slug)
		}
		return fmt.Errorf("insert app %s: %w", app.Slug, err)
	}
	return nil
}

func (r *AppRepository) GetApp(ctx context.Context, id string) (*models.App, error) {
	q := fmt.Sprintf("SELECT %s FROM `%s` WHERE id = ?", strings.Join(appColumns, ", "), constants.TableApps)
	return r.scanApp(r.db.QueryRowContext(ctx, q, id))
}

func (r *AppRepository) GetAppBySlug(ctx context.Context, slug string) (*models.App, error) {
	q := fmt.Sprintf("SELECT %s FROM `%s` WHERE slug = ?", strings.Join(appColumns, ", "), constants.TableApps)
	return r.scanApp(r.db.QueryRowContext(ctx, q, slug))
}

func (r *AppRepository) ListApps(ctx context.Context) ([]*models.App, error) {
	q := fmt.Sprintf("SELECT %s FROM `%s` ORDER BY created_at DESC",
		strings.Join(appColumns, ", "), constants.TableApps)

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	defer rows.Close()

	apps := make([]*models.App, 0)
	for rows.Next() {
		app, err := r.scanApp(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func (r *AppRepository) UpdateApp(ctx context.Context, app *models.App) error {
	runtimeConfig, err := json.Marshal(app.RuntimeConfig)
	if err != nil {
		return fmt.Errorf("marshal runtime config: %w", err)
	}

	q := fmt.Sprintf(`UPDATE `+"`%s`"+` SET
  name = ?, description = ?, status = ?, current_version = ?,
  runtime_config = ?, last_status_reason = ?, updated_at = ?
WHERE id = ?`, constants.TableApps)

	result, err := r.db.ExecContext(ctx, q,
		app.Name, app.Description, string(app.Status), app.CurrentVersion,
		string(runtimeConfig), app.LastStatusReason, time.Now().UTC(), app.ID)
	if err != nil {
		return fmt.Errorf("update app %s: %w", app.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError("app", app.ID)
	}
	return nil
}

// DeleteApp removes the app row and its stored blueprint versions in one
// transaction so a crash can't leave orphaned versions behind.
func (r *AppRepository) DeleteApp(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete app: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM `%s` WHERE app_id = ?", constants.TableBlueprints), id); err != nil {
		return fmt.Errorf("delete blueprints for app %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM `%s` WHERE id = ?", constants.TableApps), id); err != nil {
		return fmt.Errorf("delete app %s: %w", id, err)
	}
	return tx.Commit()
}

func (r *AppRepository) SaveBlueprint(ctx context.Context, rec *models.BlueprintRecord) error {
	document, err := json.Marshal(rec.Blueprint)
	if err != nil {
		return fmt.Errorf("marshal blueprint document: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO `%s` (%s) VALUES (?, ?, ?, ?, ?, ?)",
		constants.TableBlueprints, strings.Join(blueprintColumns, ", "))

	_, err = r.db.ExecContext(ctx, insert,
		rec.ID, rec.AppID, rec.Version, string(document), rec.BlueprintHash, rec.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return apperrors.NewConflictError("blueprint version", "version", fmt.Sprintf("%d", rec.Version))
		}
		return fmt.Errorf("insert blueprint v%d for app %s: %w", rec.Version, rec.AppID, err)
	}
	return nil
}

func (r *AppRepository) GetBlueprintVersion(ctx context.Context, appID string, version int) (*models.BlueprintRecord, error) {
	q := fmt.Sprintf("SELECT %s FROM `%s` WHERE app_id = ? AND version = ?",
		strings.Join(blueprintColumns, ", "), constants.TableBlueprints)
	return r.scanBlueprint(r.db.QueryRowContext(ctx, q, appID, version))
}

func (r *AppRepository) LatestBlueprint(ctx context.Context, appID string) (*models.BlueprintRecord, error) {
	q := fmt.Sprintf("SELECT %s FROM `%s` WHERE app_id = ? ORDER BY version DESC LIMIT 1",
		strings.Join(blueprintColumns, ", "), constants.TableBlueprints)
	return r.scanBlueprint(r.db.QueryRowContext(ctx, q, appID))
}

// rowScanner lets the scan helpers accept both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *AppRepository) scanApp(row rowScanner) (*models.App, error) {
	var app models.App
	var description, runtimeConfig, statusReason sql.NullString
	var status string

	err := row.Scan(&app.ID, &app.Name, &app.Slug, &description, &status,
		&app.CurrentVersion, &runtimeConfig, &statusReason,
		&app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan app: %w", err)
	}

	app.Status = constants.AppStatus(status)
	app.Description = description.String
	app.LastStatusReason = statusReason.String
	if runtimeConfig.Valid && runtimeConfig.String != "" {
		if err := json.Unmarshal([]byte(runtimeConfig.String), &app.RuntimeConfig); err != nil {
			return nil, fmt.Errorf("decode runtime config for %s: %w", app.ID, err)
		}
	}
	return &app, nil
}

func (r *AppRepository) scanBlueprint(row rowScanner) (*models.BlueprintRecord, error) {
	var rec models.BlueprintRecord
	var document string

	err := row.Scan(&rec.ID, &rec.AppID, &rec.Version, &document, &rec.BlueprintHash, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan blueprint: %w", err)
	}

	var bp models.Blueprint
	if err := json.Unmarshal([]byte(document), &bp); err != nil {
		return nil, fmt.Errorf("decode blueprint document %s: %w", rec.ID, err)
	}
	rec.Blueprint = &bp
	return &rec, nil
}

// isDuplicateKey matches the driver's unique-violation error without binding
// to its error type.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate")
}

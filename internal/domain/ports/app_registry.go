package ports

import (
	"context"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

// AppRegistry persists registered apps and their blueprint versions. Backed by
// the system tables on MySQL and by an in-memory map for demo/test runs.
// Lookups return (nil, nil) on miss; uniqueness violations return ConflictError.
type AppRegistry interface {
	// CreateApp inserts a new app row. Slug must be unique.
	CreateApp(ctx context.Context, app *models.App) error

	// GetApp resolves an app by id.
	GetApp(ctx context.Context, id string) (*models.App, error)

	// GetAppBySlug resolves an app by its unique slug.
	GetAppBySlug(ctx context.Context, slug string) (*models.App, error)

	// ListApps returns all registered apps, newest first.
	ListApps(ctx context.Context) ([]*models.App, error)

	// UpdateApp persists mutable app fields (status, version pointer,
	// runtime config, status reason).
	UpdateApp(ctx context.Context, app *models.App) error

	// DeleteApp removes the app row and its stored blueprint versions.
	DeleteApp(ctx context.Context, id string) error

	// SaveBlueprint stores one immutable blueprint version for an app.
	SaveBlueprint(ctx context.Context, rec *models.BlueprintRecord) error

	// GetBlueprintVersion loads one stored version.
	GetBlueprintVersion(ctx context.Context, appID string, version int) (*models.BlueprintRecord, error)

	// LatestBlueprint loads the highest stored version for an app.
	LatestBlueprint(ctx context.Context, appID string) (*models.BlueprintRecord, error)
}

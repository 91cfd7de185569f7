package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	apperrors "github.com/brnikita/refine-supabase-apps-builder/pkg/errors"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryApp(id, slug string, createdAt time.Time) *models.App {
	return &models.App{
		ID:        id,
		Name:      slug,
		Slug:      slug,
		Status:    constants.AppStatusDraft,
		CreatedAt: createdAt,
	}
}

func TestMemoryRegistryCreateAndLookup(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	require.NoError(t, reg.CreateApp(ctx, registryApp("a-1", "crm", time.Now())))

	byID, err := reg.GetApp(ctx, "a-1")
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "crm", byID.Slug)

	bySlug, err := reg.GetAppBySlug(ctx, "crm")
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, "a-1", bySlug.ID)

	missing, err := reg.GetApp(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing, "a miss is (nil, nil), not an error")

	t.Logf("✅ app resolvable by id and slug")
}

func TestMemoryRegistryRejectsDuplicateSlugs(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	require.NoError(t, reg.CreateApp(ctx, registryApp("a-1", "crm", time.Now())))

	err := reg.CreateApp(ctx, registryApp("a-2", "crm", time.Now()))
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	err = reg.CreateApp(ctx, registryApp("a-1", "other", time.Now()))
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err), "duplicate id is also a conflict")
}

func TestMemoryRegistryReadsReturnCopies(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	require.NoError(t, reg.CreateApp(ctx, registryApp("a-1", "crm", time.Now())))

	got, err := reg.GetApp(ctx, "a-1")
	require.NoError(t, err)
	got.Status = constants.AppStatusRunning

	again, err := reg.GetApp(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, constants.AppStatusDraft, again.Status, "mutating a read does not touch the registry")
}

func TestMemoryRegistryListOrdersNewestFirst(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, reg.CreateApp(ctx, registryApp("a-1", "oldest", base.Add(-2*time.Hour))))
	require.NoError(t, reg.CreateApp(ctx, registryApp("a-2", "newest", base)))
	require.NoError(t, reg.CreateApp(ctx, registryApp("a-3", "middle", base.Add(-time.Hour))))

	apps, err := reg.ListApps(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 3)
	assert.Equal(t, "newest", apps[0].Slug)
	assert.Equal(t, "middle", apps[1].Slug)
	assert.Equal(t, "oldest", apps[2].Slug)

	t.Logf("✅ list is newest-first across %d apps", len(apps))
}

func TestMemoryRegistryUpdateMovesSlugIndex(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	require.NoError(t, reg.CreateApp(ctx, registryApp("a-1", "crm", time.Now())))

	app, err := reg.GetApp(ctx, "a-1")
	require.NoError(t, err)
	app.Slug = "renamed"
	require.NoError(t, reg.UpdateApp(ctx, app))

	gone, err := reg.GetAppBySlug(ctx, "crm")
	require.NoError(t, err)
	assert.Nil(t, gone, "old slug no longer resolves")

	found, err := reg.GetAppBySlug(ctx, "renamed")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "a-1", found.ID)

	err = reg.UpdateApp(ctx, registryApp("ghost", "x", time.Now()))
	assert.Error(t, err, "updating an unknown app fails")
}

func TestMemoryRegistryDeleteDropsBlueprintsToo(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	require.NoError(t, reg.CreateApp(ctx, registryApp("a-1", "crm", time.Now())))
	require.NoError(t, reg.SaveBlueprint(ctx, &models.BlueprintRecord{ID: "b-1", AppID: "a-1", Version: 1}))

	require.NoError(t, reg.DeleteApp(ctx, "a-1"))
	require.NoError(t, reg.DeleteApp(ctx, "a-1"), "delete is idempotent")

	rec, err := reg.LatestBlueprint(ctx, "a-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryRegistryBlueprintVersioning(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	require.NoError(t, reg.CreateApp(ctx, registryApp("a-1", "crm", time.Now())))

	// Insert out of order; versions are kept ascending internally.
	require.NoError(t, reg.SaveBlueprint(ctx, &models.BlueprintRecord{ID: "b-2", AppID: "a-1", Version: 2}))
	require.NoError(t, reg.SaveBlueprint(ctx, &models.BlueprintRecord{ID: "b-1", AppID: "a-1", Version: 1}))

	err := reg.SaveBlueprint(ctx, &models.BlueprintRecord{ID: "b-dup", AppID: "a-1", Version: 2})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err), "a version can only be written once")

	latest, err := reg.LatestBlueprint(ctx, "a-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.Version)

	v1, err := reg.GetBlueprintVersion(ctx, "a-1", 1)
	require.NoError(t, err)
	require.NotNil(t, v1)
	assert.Equal(t, "b-1", v1.ID)

	missing, err := reg.GetBlueprintVersion(ctx, "a-1", 9)
	require.NoError(t, err)
	assert.Nil(t, missing)

	t.Logf("✅ blueprint versions stay ordered and unique")
}

package services

import (
	"context"
	"testing"

	"github.com/brnikita/refine-supabase-apps-builder/internal/infrastructure/persistence"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	apperrors "github.com/brnikita/refine-supabase-apps-builder/pkg/errors"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataFixtureBlueprint() *models.Blueprint {
	return &models.Blueprint{
		Version: 3,
		App:     models.AppInfo{Name: "Task Tracker", Slug: "task-tracker"},
		Data: models.DataSpec{
			Tables: []models.TableSpec{
				{
					Name: "tasks",
					Columns: []models.ColumnSpec{
						{Name: "id", Type: constants.ColumnTypeUUID},
						{Name: "title", Type: constants.ColumnTypeText},
						{Name: "assigneeId", Type: constants.ColumnTypeUUID},
					},
				},
				{
					Name: "members",
					Columns: []models.ColumnSpec{
						{Name: "id", Type: constants.ColumnTypeUUID},
						{Name: "name", Type: constants.ColumnTypeText},
					},
				},
				{
					Name: "comments",
					Columns: []models.ColumnSpec{
						{Name: "id", Type: constants.ColumnTypeUUID},
						{Name: "taskId", Type: constants.ColumnTypeUUID},
						{Name: "body", Type: constants.ColumnTypeText},
					},
				},
			},
			Relationships: []models.RelationshipSpec{
				{
					Name:       "assignee",
					Type:       constants.RelManyToOne,
					FromTable:  "tasks",
					FromColumn: "assigneeId",
					ToTable:    "members",
					ToColumn:   "id",
				},
				{
					Name:     "comments",
					Type:     constants.RelOneToMany,
					FromTable: "tasks",
					ToTable:   "comments",
					ToColumn:  "taskId",
				},
			},
		},
		Security: models.SecuritySpec{
			Roles: []models.RoleSpec{{Name: "admin"}, {Name: "viewer"}},
			RowFilters: []models.RowFilterRule{
				{Role: "viewer", Entity: "tasks", Filter: map[string]interface{}{"assigneeId": "{{$user.id}}"}},
			},
		},
	}
}

func newDataFixture(user models.UserSession) (*AppData, *persistence.MemoryStore) {
	store := persistence.NewMemoryStore()
	svc := NewDataService(store, NewEventBus())
	app := &models.App{ID: "a-1", Slug: "task-tracker", Status: constants.AppStatusRunning}
	return svc.ForApp(app, dataFixtureBlueprint(), user), store
}

func adminUser() models.UserSession {
	return models.UserSession{ID: "u-admin", Name: "Admin", Role: "admin"}
}

func TestPhysicalTableNaming(t *testing.T) {
	assert.Equal(t, "app_task_tracker__tasks", PhysicalTable("task-tracker", "tasks"))
	assert.Equal(t, "app_crm__task_item", PhysicalTable("crm", "TaskItem"), "entities snake_case on disk")
}

func TestCreateStampsSystemColumns(t *testing.T) {
	adapter, store := newDataFixture(adminUser())
	ctx := context.Background()

	rec, err := adapter.Create(ctx, "tasks", models.Record{"title": "Write tests"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.GetString("id"), "missing id is generated")
	assert.True(t, rec.Has("createdAt"), "v3 stamps camelCase timestamps")
	assert.True(t, rec.Has("updatedAt"))

	stored, err := store.Get(ctx, "app_task_tracker__tasks", rec.GetString("id"))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Write tests", stored.GetString("title"))

	// A caller-provided id survives.
	rec2, err := adapter.Create(ctx, "tasks", models.Record{"id": "t-fixed", "title": "Pinned"})
	require.NoError(t, err)
	assert.Equal(t, "t-fixed", rec2.GetString("id"))

	t.Logf("✅ create stamped id and timestamps")
}

func TestCreateRejectsUndeclaredEntities(t *testing.T) {
	adapter, _ := newDataFixture(adminUser())

	_, err := adapter.Create(context.Background(), "ghosts", models.Record{"title": "boo"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err), "a typo in the entity is a miss, not a storage error")
}

func TestUpdateMergesAndRestamps(t *testing.T) {
	adapter, _ := newDataFixture(adminUser())
	ctx := context.Background()

	created, err := adapter.Create(ctx, "tasks", models.Record{"id": "t-1", "title": "Old", "assigneeId": "m-1"})
	require.NoError(t, err)
	createdAt := created.GetString("createdAt")

	merged, err := adapter.Update(ctx, "tasks", "t-1", models.Record{
		"id":        "t-other", // pk changes are dropped
		"title":     "New",
		"createdAt": "1999-01-01T00:00:00Z", // creation stamp is immutable
	})
	require.NoError(t, err)
	assert.Equal(t, "t-1", merged.GetString("id"))
	assert.Equal(t, "New", merged.GetString("title"))
	assert.Equal(t, "m-1", merged.GetString("assigneeId"), "untouched fields survive")
	assert.Equal(t, createdAt, merged.GetString("createdAt"))

	_, err = adapter.Update(ctx, "tasks", "ghost", models.Record{"title": "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	t.Logf("✅ update merged fields and kept the creation stamp")
}

func TestDeleteRemovesRow(t *testing.T) {
	adapter, store := newDataFixture(adminUser())
	ctx := context.Background()

	_, err := adapter.Create(ctx, "tasks", models.Record{"id": "t-1", "title": "Temp"})
	require.NoError(t, err)

	require.NoError(t, adapter.Delete(ctx, "tasks", "t-1"))

	gone, err := store.Get(ctx, "app_task_tracker__tasks", "t-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRowFiltersScopeFetchesByRole(t *testing.T) {
	viewer := models.UserSession{ID: "m-1", Name: "Viewer", Role: "viewer"}
	adapter, store := newDataFixture(viewer)
	ctx := context.Background()

	seed := []models.Record{
		{"id": "t-1", "title": "Mine", "assigneeId": "m-1"},
		{"id": "t-2", "title": "Theirs", "assigneeId": "m-2"},
		{"id": "t-3", "title": "Also mine", "assigneeId": "m-1"},
	}
	for _, rec := range seed {
		require.NoError(t, store.Insert(ctx, "app_task_tracker__tasks", rec))
	}

	rs, err := adapter.FetchRecords(ctx, "tasks", models.FetchQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, rs.Total, "the {{$user.id}} filter resolved against the session")
	for _, rec := range rs.Data {
		assert.Equal(t, "m-1", rec.GetString("assigneeId"))
	}

	// Single-record reads honor the same scope.
	_, err = adapter.Get(ctx, "tasks", "t-2")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err), "rows outside the filter read as absent")

	mine, err := adapter.Get(ctx, "tasks", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "Mine", mine.GetString("title"))

	t.Logf("✅ viewer sees %d of %d rows", rs.Total, len(seed))
}

func TestAdminBypassesRowFilters(t *testing.T) {
	adapter, store := newDataFixture(adminUser())
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "app_task_tracker__tasks", models.Record{"id": "t-1", "assigneeId": "m-9"}))

	rs, err := adapter.FetchRecords(ctx, "tasks", models.FetchQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, rs.Total, "no filter rule is declared for admin")
}

func TestFetchHydratesManyToOneInclude(t *testing.T) {
	adapter, store := newDataFixture(adminUser())
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "app_task_tracker__members", models.Record{"id": "m-1", "name": "Ada"}))
	require.NoError(t, store.Insert(ctx, "app_task_tracker__tasks", models.Record{"id": "t-1", "title": "A", "assigneeId": "m-1"}))
	require.NoError(t, store.Insert(ctx, "app_task_tracker__tasks", models.Record{"id": "t-2", "title": "B"}))

	rs, err := adapter.FetchRecords(ctx, "tasks", models.FetchQuery{Include: []string{"assignee"}})
	require.NoError(t, err)
	require.Equal(t, 2, rs.Total)

	var withParent, without models.Record
	for _, rec := range rs.Data {
		if rec.GetString("id") == "t-1" {
			withParent = rec
		} else {
			without = rec
		}
	}

	parent, ok := withParent["assignee"].(models.Record)
	require.True(t, ok, "the related member is nested under the include key")
	assert.Equal(t, "Ada", parent.GetString("name"))
	assert.Nil(t, without["assignee"], "rows without a key stay bare")

	t.Logf("✅ many_to_one include nested the parent record")
}

func TestFetchHydratesOneToManyInclude(t *testing.T) {
	adapter, store := newDataFixture(adminUser())
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "app_task_tracker__tasks", models.Record{"id": "t-1", "title": "A"}))
	require.NoError(t, store.Insert(ctx, "app_task_tracker__comments", models.Record{"id": "c-1", "taskId": "t-1", "body": "first"}))
	require.NoError(t, store.Insert(ctx, "app_task_tracker__comments", models.Record{"id": "c-2", "taskId": "t-1", "body": "second"}))

	rs, err := adapter.FetchRecords(ctx, "tasks", models.FetchQuery{Include: []string{"comments"}})
	require.NoError(t, err)
	require.Equal(t, 1, rs.Total)

	children, ok := rs.Data[0]["comments"].([]models.Record)
	require.True(t, ok)
	assert.Len(t, children, 2)

	t.Logf("✅ one_to_many include grouped %d children", len(children))
}

func TestFetchIgnoresUnknownIncludes(t *testing.T) {
	adapter, store := newDataFixture(adminUser())
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "app_task_tracker__tasks", models.Record{"id": "t-1"}))

	rs, err := adapter.FetchRecords(ctx, "tasks", models.FetchQuery{Include: []string{"nonsense"}})
	require.NoError(t, err, "an unmatched include logs and degrades, never fails the fetch")
	assert.Equal(t, 1, rs.Total)
}

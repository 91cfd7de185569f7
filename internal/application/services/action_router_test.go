package services

import (
	"testing"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routerBlueprint() *models.Blueprint {
	return &models.Blueprint{
		UI: models.UISpec{
			Pages: []models.PageSpec{
				{
					ID:    "tasks-page",
					Route: "/tasks",
					Title: "Tasks",
					Blocks: []models.BlockSpec{
						{
							ID:   "task-table",
							Type: "table",
							Actions: []models.ActionConfig{
								{Trigger: "rowClick", Action: "openModal", Config: map[string]interface{}{"modal": "task-detail"}},
								{Trigger: "createClick", Action: "openModal", Config: map[string]interface{}{"modal": "task-create"}},
							},
						},
					},
				},
				{
					ID:    "reports-page",
					Route: "/reports",
					Title: "Reports",
					Variables: map[string]interface{}{
						"period": "weekly",
					},
				},
			},
			Modals: []models.ModalSpec{
				{ID: "task-detail", Title: "Task"},
				{ID: "task-create", Title: "New Task"},
			},
		},
	}
}

func routerSession() *models.SessionState {
	return &models.SessionState{
		ID:            "sess-1",
		ActivePageID:  "tasks-page",
		PageVariables: map[string]interface{}{},
	}
}

func TestDispatchOpenThenCloseModal(t *testing.T) {
	router := NewActionRouter()
	bp := routerBlueprint()
	state := routerSession()

	router.Dispatch(bp, state, &models.ActionRequest{
		Action: "openModal",
		Config: map[string]interface{}{"modal": "task-detail"},
		Context: map[string]interface{}{
			"selectedRecord": map[string]interface{}{"id": "7"},
		},
	})

	assert.Equal(t, "task-detail", state.ActiveModalID)
	require.NotNil(t, state.SelectedRecord)
	assert.Equal(t, "7", state.SelectedRecord.GetString("id"))

	router.Dispatch(bp, state, &models.ActionRequest{Action: "closeModal"})

	assert.Equal(t, "", state.ActiveModalID)
	require.NotNil(t, state.SelectedRecord, "closeModal must not touch the selected record")
	assert.Equal(t, "7", state.SelectedRecord.GetString("id"))

	t.Logf("✅ openModal/closeModal round trip keeps the selected record")
}

func TestDispatchNavigate(t *testing.T) {
	router := NewActionRouter()
	bp := routerBlueprint()

	tests := []struct {
		name         string
		route        string
		expectedPage string
	}{
		{"match by route", "/reports", "reports-page"},
		{"match by page id", "reports-page", "reports-page"},
		{"unknown route is a no-op", "/nowhere", "tasks-page"},
		{"empty route is a no-op", "", "tasks-page"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := routerSession()
			router.Dispatch(bp, state, &models.ActionRequest{
				Action: "navigate",
				Config: map[string]interface{}{"route": tc.route},
			})
			assert.Equal(t, tc.expectedPage, state.ActivePageID)
		})
	}
}

func TestNavigateSeedsPageVariableDefaults(t *testing.T) {
	router := NewActionRouter()
	bp := routerBlueprint()

	state := routerSession()
	router.Dispatch(bp, state, &models.ActionRequest{
		Action: "navigate",
		Config: map[string]interface{}{"route": "/reports"},
	})
	assert.Equal(t, "weekly", state.PageVariables["period"], "missing variable takes the page default")

	state = routerSession()
	state.PageVariables["period"] = "monthly"
	router.Dispatch(bp, state, &models.ActionRequest{
		Action: "navigate",
		Config: map[string]interface{}{"route": "/reports"},
	})
	assert.Equal(t, "monthly", state.PageVariables["period"], "existing variable is never clobbered")

	t.Logf("✅ navigate seeds page variable defaults without overwriting")
}

func TestDispatchSetVariable(t *testing.T) {
	router := NewActionRouter()
	bp := routerBlueprint()
	state := routerSession()

	router.Dispatch(bp, state, &models.ActionRequest{
		Action: "setVariable",
		Config: map[string]interface{}{"name": "statusFilter", "value": "done"},
	})
	assert.Equal(t, "done", state.PageVariables["statusFilter"])

	router.Dispatch(bp, state, &models.ActionRequest{
		Action: "setVariable",
		Config: map[string]interface{}{"name": "limit", "value": float64(25)},
	})
	assert.Equal(t, float64(25), state.PageVariables["limit"], "non-string values pass through untouched")

	before := len(state.PageVariables)
	router.Dispatch(bp, state, &models.ActionRequest{
		Action: "setVariable",
		Config: map[string]interface{}{"value": "orphan"},
	})
	assert.Len(t, state.PageVariables, before, "setVariable without a name is a no-op")
}

func TestRecordActionsSelectAndOpenDetail(t *testing.T) {
	router := NewActionRouter()
	bp := routerBlueprint()

	for _, action := range []string{"view", "edit", "cardClick"} {
		t.Run(action, func(t *testing.T) {
			state := routerSession()
			router.Dispatch(bp, state, &models.ActionRequest{
				Action: action,
				Context: map[string]interface{}{
					"selectedRecord": map[string]interface{}{"id": "42", "title": "Ship it"},
				},
			})
			require.NotNil(t, state.SelectedRecord)
			assert.Equal(t, "42", state.SelectedRecord.GetString("id"))
			assert.Equal(t, "task-detail", state.ActiveModalID, "first modal containing 'detail' or 'edit' opens")
		})
	}

	t.Run("without a record the transition is a no-op", func(t *testing.T) {
		state := routerSession()
		router.Dispatch(bp, state, &models.ActionRequest{Action: "view"})
		assert.Nil(t, state.SelectedRecord)
		assert.Equal(t, "", state.ActiveModalID)
	})
}

func TestCreateActionsClearSelectionAndOpenCreateModal(t *testing.T) {
	router := NewActionRouter()
	bp := routerBlueprint()

	for _, action := range []string{"create", "createClick"} {
		t.Run(action, func(t *testing.T) {
			state := routerSession()
			state.SelectedRecord = models.Record{"id": "old"}
			router.Dispatch(bp, state, &models.ActionRequest{Action: action})
			assert.Nil(t, state.SelectedRecord, "create starts from a blank record")
			assert.Equal(t, "task-create", state.ActiveModalID)
		})
	}
}

func TestSubmitAndCancelCloseTheActiveModal(t *testing.T) {
	router := NewActionRouter()
	bp := routerBlueprint()

	for _, action := range []string{"submit", "cancel"} {
		t.Run(action, func(t *testing.T) {
			state := routerSession()
			state.ActiveModalID = "task-create"
			router.Dispatch(bp, state, &models.ActionRequest{Action: action})
			assert.Equal(t, "", state.ActiveModalID)
		})
	}
}

func TestDispatchResolvesBlockTriggers(t *testing.T) {
	router := NewActionRouter()
	bp := routerBlueprint()
	state := routerSession()

	// rowClick is declared on task-table as openModal(task-detail)
	router.Dispatch(bp, state, &models.ActionRequest{
		BlockID: "task-table",
		Trigger: "rowClick",
		Context: map[string]interface{}{
			"selectedRecord": map[string]interface{}{"id": "9"},
		},
	})
	assert.Equal(t, "task-detail", state.ActiveModalID)
	require.NotNil(t, state.SelectedRecord)
	assert.Equal(t, "9", state.SelectedRecord.GetString("id"))

	t.Logf("✅ declared trigger binding resolved to openModal")
}

func TestDispatchRequestConfigOverlaysDeclaredConfig(t *testing.T) {
	router := NewActionRouter()
	bp := routerBlueprint()
	state := routerSession()

	// The request redirects the declared openModal binding to another modal.
	router.Dispatch(bp, state, &models.ActionRequest{
		BlockID: "task-table",
		Trigger: "rowClick",
		Config:  map[string]interface{}{"modal": "task-create"},
	})
	assert.Equal(t, "task-create", state.ActiveModalID)
}

func TestDispatchForwardsUndeclaredTriggersRaw(t *testing.T) {
	router := NewActionRouter()
	bp := routerBlueprint()
	state := routerSession()
	state.ActiveModalID = "task-detail"

	// task-table declares no "cancel" binding, so the trigger itself is the action.
	router.Dispatch(bp, state, &models.ActionRequest{
		BlockID: "task-table",
		Trigger: "cancel",
	})
	assert.Equal(t, "", state.ActiveModalID)
}

func TestDispatchFailSoft(t *testing.T) {
	router := NewActionRouter()
	bp := routerBlueprint()

	tests := []struct {
		name string
		req  *models.ActionRequest
	}{
		{"unrecognized action", &models.ActionRequest{Action: "explode"}},
		{"openModal with unknown target", &models.ActionRequest{Action: "openModal", Config: map[string]interface{}{"modal": "ghost"}}},
		{"openModal without target", &models.ActionRequest{Action: "openModal"}},
		{"trigger from unknown block", &models.ActionRequest{BlockID: "ghost-block", Trigger: "explode"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := routerSession()
			router.Dispatch(bp, state, tc.req)

			assert.Equal(t, "tasks-page", state.ActivePageID)
			assert.Equal(t, "", state.ActiveModalID)
			assert.Nil(t, state.SelectedRecord)
		})
	}

	t.Logf("✅ every malformed dispatch left the session untouched")
}

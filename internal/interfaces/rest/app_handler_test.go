package rest_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brnikita/refine-supabase-apps-builder/internal/application/services"
	"github.com/brnikita/refine-supabase-apps-builder/internal/infrastructure/persistence"
	"github.com/brnikita/refine-supabase-apps-builder/internal/interfaces/rest"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

const trackerDocTemplate = `{
	"version": 3,
	"app": {"name": "Task Tracker", "slug": %q},
	"data": {"tables": [{"name": "tasks", "columns": [
		{"name": "title", "type": "text", "required": true}%s
	]}]},
	"security": {
		"roles": ["admin", "viewer"],
		"permissions": [
			{"role": "viewer", "entity": "tasks", "actions": {"list": true, "read": true}}
		]
	},
	"ui": {"pages": [{"id": "home", "route": "/", "blocks": [
		{"id": "task-table", "type": "table", "dataSource": {"table": "tasks"}}
	]}]}
}`

func trackerDoc(slug string, extraColumns ...string) json.RawMessage {
	var extra string
	for _, col := range extraColumns {
		extra += ",\n\t\t" + col
	}
	return json.RawMessage(fmt.Sprintf(trackerDocTemplate, slug, extra))
}

func newTestManager(t *testing.T) *services.ServiceManager {
	t.Helper()
	svc, err := services.NewServiceManager(
		persistence.NewMemoryRegistry(),
		persistence.NewMemoryStore(),
		nil,
		services.ServiceManagerOptions{},
	)
	require.NoError(t, err)
	return svc
}

func jsonBody(t *testing.T, payload interface{}) *bytes.Buffer {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewBuffer(raw)
}

func TestAppHandlerLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := newTestManager(t)
	handler := rest.NewAppHandler(svc)

	var appID string

	t.Run("Create", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/api/apps",
			jsonBody(t, gin.H{"blueprint": trackerDoc("task-tracker")}))

		handler.CreateApp(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp struct {
			App models.App `json:"app"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "task-tracker", resp.App.Slug)
		assert.Equal(t, "DRAFT", string(resp.App.Status))
		appID = resp.App.ID
		require.NotEmpty(t, appID)
	})

	t.Run("Get", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/api/apps/"+appID, nil)
		c.Params = gin.Params{{Key: "id", Value: appID}}

		handler.GetApp(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			App models.App `json:"app"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Task Tracker", resp.App.Name)
	})

	t.Run("Get Missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/api/apps/ghost", nil)
		c.Params = gin.Params{{Key: "id", Value: "ghost"}}

		handler.GetApp(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Start", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/api/apps/"+appID+"/start", nil)
		c.Params = gin.Params{{Key: "id", Value: appID}}

		handler.StartApp(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			App models.App `json:"app"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "RUNNING", string(resp.App.Status))
		assert.Equal(t, 1, resp.App.CurrentVersion)
	})

	t.Run("Start Twice", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/api/apps/"+appID+"/start", nil)
		c.Params = gin.Params{{Key: "id", Value: appID}}

		handler.StartApp(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		var resp struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "INVALID_TRANSITION", resp.Code)
	})

	t.Run("Update Blueprint Wrapped", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		next := trackerDoc("task-tracker", `{"name": "priority", "type": "int"}`)
		c.Request = httptest.NewRequest("PUT", "/api/apps/"+appID+"/blueprint",
			jsonBody(t, gin.H{"blueprint": next}))
		c.Params = gin.Params{{Key: "id", Value: appID}}

		handler.UpdateBlueprint(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Blueprint struct {
				Version int `json:"version"`
			} `json:"blueprint"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Blueprint.Version)
	})

	t.Run("Update Blueprint Bare Document", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		next := trackerDoc("task-tracker",
			`{"name": "priority", "type": "int"}`,
			`{"name": "dueDate", "type": "timestamptz"}`)
		c.Request = httptest.NewRequest("PUT", "/api/apps/"+appID+"/blueprint",
			bytes.NewBufferString(string(next)))
		c.Params = gin.Params{{Key: "id", Value: appID}}

		handler.UpdateBlueprint(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Blueprint struct {
				Version int `json:"version"`
			} `json:"blueprint"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Blueprint.Version, "the body may skip the wrapper")
	})

	t.Run("List", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/api/apps", nil)

		handler.ListApps(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Apps []models.App `json:"apps"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Apps, 1)
	})

	t.Run("Stop", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/api/apps/"+appID+"/stop", nil)
		c.Params = gin.Params{{Key: "id", Value: appID}}

		handler.StopApp(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("DELETE", "/api/apps/"+appID, nil)
		c.Params = gin.Params{{Key: "id", Value: appID}}

		handler.DeleteApp(c)

		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		c, _ = gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/api/apps/"+appID, nil)
		c.Params = gin.Params{{Key: "id", Value: appID}}
		handler.GetApp(c)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAppHandlerRejectsBadRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := newTestManager(t)
	handler := rest.NewAppHandler(svc)

	t.Run("Malformed Body", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/api/apps", bytes.NewBufferString("{not json"))

		handler.CreateApp(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid Document", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/api/apps",
			jsonBody(t, gin.H{"blueprint": trackerDoc("NOT A SLUG")}))

		handler.CreateApp(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var resp struct {
			Code    string   `json:"code"`
			Details []string `json:"details"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "BLUEPRINT_INVALID", resp.Code)
		assert.NotEmpty(t, resp.Details, "every violation is reported at once")
	})

	t.Run("Duplicate Slug", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/api/apps",
			jsonBody(t, gin.H{"blueprint": trackerDoc("task-tracker")}))
		handler.CreateApp(c)
		require.Equal(t, http.StatusCreated, w.Code)

		w = httptest.NewRecorder()
		c, _ = gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/api/apps",
			jsonBody(t, gin.H{"blueprint": trackerDoc("task-tracker")}))
		handler.CreateApp(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

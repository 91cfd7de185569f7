package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brnikita/refine-supabase-apps-builder/internal/application/services"
	"github.com/brnikita/refine-supabase-apps-builder/internal/interfaces/rest"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

const opsDoc = `{
	"version": 3,
	"app": {"name": "Field Ops", "slug": "field-ops"},
	"data": {"tables": [{"name": "jobs", "columns": [
		{"name": "title", "type": "text", "required": true},
		{"name": "status", "type": "text"}
	]}]},
	"security": {"roles": ["admin", "viewer"]},
	"ui": {"pages": [
		{"id": "home", "route": "/", "title": "Jobs", "blocks": [
			{"id": "job-table", "type": "table", "dataSource": {"table": "jobs"}}
		]},
		{"id": "stats", "route": "/stats", "title": "Stats", "blocks": [
			{"id": "job-count", "type": "stat_card", "dataSource": {"table": "jobs"},
				"props": {"title": "All jobs"}}
		]}
	]}
}`

func startOpsApp(t *testing.T, svc *services.ServiceManager) {
	t.Helper()
	app, err := svc.Apps.CreateApp(context.Background(),
		&services.CreateAppRequest{Blueprint: json.RawMessage(opsDoc)})
	require.NoError(t, err)
	_, err = svc.Apps.StartApp(context.Background(), app.ID)
	require.NoError(t, err)
}

func TestRuntimeHandlerResolvesApps(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := newTestManager(t)
	startOpsApp(t, svc)
	_, err := svc.Apps.CreateApp(context.Background(),
		&services.CreateAppRequest{Blueprint: trackerDoc("still-draft")})
	require.NoError(t, err)

	handler := rest.NewRuntimeHandler(svc)

	t.Run("Running App", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/api/runtime/apps/field-ops", nil)
		c.Params = gin.Params{{Key: "slug", Value: "field-ops"}}

		handler.GetRuntimeApp(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Status    string            `json:"status"`
			App       models.AppSummary `json:"app"`
			Blueprint *models.Blueprint `json:"blueprint"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "RUNNING", resp.Status)
		assert.Equal(t, "field-ops", resp.App.Slug)
		require.NotNil(t, resp.Blueprint, "runtime clients render straight from the blueprint")
		assert.Len(t, resp.Blueprint.UI.Pages, 2)
	})

	t.Run("Draft App Hidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/api/runtime/apps/still-draft", nil)
		c.Params = gin.Params{{Key: "slug", Value: "still-draft"}}

		handler.GetRuntimeApp(c)

		assert.Equal(t, http.StatusNotFound, w.Code, "only RUNNING apps resolve")
	})

	t.Run("Unknown Slug", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/api/runtime/apps/ghost", nil)
		c.Params = gin.Params{{Key: "slug", Value: "ghost"}}

		handler.GetRuntimeApp(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRuntimeHandlerSessionFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := newTestManager(t)
	startOpsApp(t, svc)
	handler := rest.NewRuntimeHandler(svc)

	var sid string

	t.Run("Open Session", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		asUser(c, "u-admin", "Ada", "admin")
		c.Request = httptest.NewRequest("POST", "/api/runtime/apps/field-ops/sessions", nil)
		c.Params = gin.Params{{Key: "slug", Value: "field-ops"}}

		handler.CreateSession(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp struct {
			Session models.SessionState `json:"session"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "field-ops", resp.Session.AppSlug)
		assert.Equal(t, "home", resp.Session.ActivePageID, "sessions start on the first page")
		sid = resp.Session.ID
		require.NotEmpty(t, sid)
	})

	t.Run("Render Page", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/api/runtime/sessions/"+sid+"/page", nil)
		c.Params = gin.Params{{Key: "sid", Value: sid}}

		handler.GetPage(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Page models.RenderedPage `json:"page"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "home", resp.Page.PageID)
		assert.Equal(t, "Jobs", resp.Page.Title)
		require.Len(t, resp.Page.Blocks, 1)
		assert.Equal(t, "table", resp.Page.Blocks[0].Type)
		assert.True(t, resp.Page.Blocks[0].Visible)
	})

	t.Run("Set Variable", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/api/runtime/sessions/"+sid+"/actions",
			jsonBody(t, gin.H{
				"action": "setVariable",
				"config": gin.H{"name": "region", "value": "west"},
			}))
		c.Params = gin.Params{{Key: "sid", Value: sid}}

		handler.DispatchAction(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			State models.SessionState `json:"state"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "west", resp.State.PageVariables["region"])
	})

	t.Run("Navigate", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/api/runtime/sessions/"+sid+"/navigate",
			jsonBody(t, gin.H{"route": "/stats"}))
		c.Params = gin.Params{{Key: "sid", Value: sid}}

		handler.Navigate(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			State models.SessionState `json:"state"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "stats", resp.State.ActivePageID)
	})

	t.Run("Render After Navigate", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/api/runtime/sessions/"+sid+"/page", nil)
		c.Params = gin.Params{{Key: "sid", Value: sid}}

		handler.GetPage(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Page models.RenderedPage `json:"page"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "stats", resp.Page.PageID)
		require.Len(t, resp.Page.Blocks, 1)
		assert.Equal(t, "stat_card", resp.Page.Blocks[0].Type)
	})

	t.Run("Rejects Empty Dispatch", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/api/runtime/sessions/"+sid+"/actions",
			jsonBody(t, gin.H{}))
		c.Params = gin.Params{{Key: "sid", Value: sid}}

		handler.DispatchAction(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	})

	t.Run("End Session", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("DELETE", "/api/runtime/sessions/"+sid, nil)
		c.Params = gin.Params{{Key: "sid", Value: sid}}

		handler.EndSession(c)
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		c, _ = gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/api/runtime/sessions/"+sid+"/page", nil)
		c.Params = gin.Params{{Key: "sid", Value: sid}}
		handler.GetPage(c)

		assert.Equal(t, http.StatusGone, w.Code)
		var resp struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "SESSION_GONE", resp.Code)
	})

	t.Run("Unknown App", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/api/runtime/apps/ghost/sessions", nil)
		c.Params = gin.Params{{Key: "slug", Value: "ghost"}}

		handler.CreateSession(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

package rest

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/brnikita/refine-supabase-apps-builder/internal/application/services"
	apperrors "github.com/brnikita/refine-supabase-apps-builder/pkg/errors"
)

// AppHandler is the builder surface: registering apps, versioning their
// blueprints and driving the lifecycle machine.
type AppHandler struct {
	svc *services.ServiceManager
}

func NewAppHandler(svc *services.ServiceManager) *AppHandler {
	return &AppHandler{svc: svc}
}

// CreateApp handles POST /api/apps
func (h *AppHandler) CreateApp(c *gin.Context) {
	var req services.CreateAppRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleCreateEnvelope(c, "app", "App created successfully", func() (interface{}, error) {
		return h.svc.Apps.CreateApp(c.Request.Context(), &req)
	})
}

// ListApps handles GET /api/apps
func (h *AppHandler) ListApps(c *gin.Context) {
	HandleGetEnvelope(c, "apps", func() (interface{}, error) {
		return h.svc.Apps.ListApps(c.Request.Context())
	})
}

// GetApp handles GET /api/apps/:id
func (h *AppHandler) GetApp(c *gin.Context) {
	HandleGetEnvelope(c, "app", func() (interface{}, error) {
		return h.svc.Apps.GetApp(c.Request.Context(), c.Param("id"))
	})
}

// UpdateBlueprint handles PUT /api/apps/:id/blueprint. The body is either the
// blueprint document itself or wrapped as {"blueprint": {...}}.
func (h *AppHandler) UpdateBlueprint(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		RespondAppError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}
	var wrapper struct {
		Blueprint json.RawMessage `json:"blueprint"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Blueprint) > 0 {
		raw = wrapper.Blueprint
	}
	HandleUpdateEnvelope(c, "blueprint", "Blueprint version saved", func() (interface{}, error) {
		return h.svc.Apps.UpdateBlueprint(c.Request.Context(), c.Param("id"), raw)
	})
}

// StartApp handles POST /api/apps/:id/start
func (h *AppHandler) StartApp(c *gin.Context) {
	HandleUpdateEnvelope(c, "app", "App started successfully", func() (interface{}, error) {
		return h.svc.Apps.StartApp(c.Request.Context(), c.Param("id"))
	})
}

// StopApp handles POST /api/apps/:id/stop
func (h *AppHandler) StopApp(c *gin.Context) {
	HandleUpdateEnvelope(c, "app", "App stopped successfully", func() (interface{}, error) {
		return h.svc.Apps.StopApp(c.Request.Context(), c.Param("id"))
	})
}

// DeleteApp handles DELETE /api/apps/:id
func (h *AppHandler) DeleteApp(c *gin.Context) {
	HandleDeleteEnvelope(c, "App deleted successfully", func() error {
		return h.svc.Apps.DeleteApp(c.Request.Context(), c.Param("id"))
	})
}

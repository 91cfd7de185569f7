package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brnikita/refine-supabase-apps-builder/internal/application/services"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

// RuntimeHandler is the runtime surface: resolving published apps and driving
// sessions over plain HTTP. The websocket handler shares the same session
// service, so state moved here shows up on attached sockets too.
type RuntimeHandler struct {
	svc *services.ServiceManager
}

func NewRuntimeHandler(svc *services.ServiceManager) *RuntimeHandler {
	return &RuntimeHandler{svc: svc}
}

// GetRuntimeApp handles GET /api/runtime/apps/:slug
func (h *RuntimeHandler) GetRuntimeApp(c *gin.Context) {
	resp, err := h.svc.Apps.GetRuntimeApp(c.Request.Context(), c.Param("slug"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateSession handles POST /api/runtime/apps/:slug/sessions
func (h *RuntimeHandler) CreateSession(c *gin.Context) {
	user := GetUserFromContext(c)
	HandleCreateEnvelope(c, "session", "Session opened", func() (interface{}, error) {
		return h.svc.Sessions.Create(c.Request.Context(), c.Param("slug"), user)
	})
}

// GetPage handles GET /api/runtime/sessions/:sid/page. ?tab= selects the
// active tab for tab layouts; it is UI-local and never touches session state.
func (h *RuntimeHandler) GetPage(c *gin.Context) {
	tab := 0
	if raw := c.Query(constants.ParamTab); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			tab = parsed
		}
	}
	HandleGetEnvelope(c, "page", func() (interface{}, error) {
		return h.svc.Sessions.RenderPage(c.Request.Context(), c.Param("sid"), tab)
	})
}

// DispatchAction handles POST /api/runtime/sessions/:sid/actions
func (h *RuntimeHandler) DispatchAction(c *gin.Context) {
	var req models.ActionRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleGetEnvelope(c, "state", func() (interface{}, error) {
		return h.svc.Sessions.DispatchAction(c.Request.Context(), c.Param("sid"), &req)
	})
}

// Navigate handles POST /api/runtime/sessions/:sid/navigate
func (h *RuntimeHandler) Navigate(c *gin.Context) {
	var req struct {
		Route string `json:"route"`
	}
	if !BindJSON(c, &req) {
		return
	}
	HandleGetEnvelope(c, "state", func() (interface{}, error) {
		return h.svc.Sessions.Navigate(c.Request.Context(), c.Param("sid"), req.Route)
	})
}

// EndSession handles DELETE /api/runtime/sessions/:sid
func (h *RuntimeHandler) EndSession(c *gin.Context) {
	HandleDeleteEnvelope(c, "Session ended", func() error {
		h.svc.Sessions.End(c.Param("sid"))
		return nil
	})
}

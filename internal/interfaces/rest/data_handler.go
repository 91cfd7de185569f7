package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/brnikita/refine-supabase-apps-builder/internal/application/services"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	apperrors "github.com/brnikita/refine-supabase-apps-builder/pkg/errors"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

// DataHandler is the record CRUD surface under a running app. Every request
// rebinds slug → (app, blueprint, identity) so it always sees the live
// version, and the blueprint's permission rules gate each action before the
// adapter touches storage. Row filters apply inside the adapter itself.
type DataHandler struct {
	svc *services.ServiceManager
}

func NewDataHandler(svc *services.ServiceManager) *DataHandler {
	return &DataHandler{svc: svc}
}

// ListRecords handles GET /api/runtime/apps/:slug/data/:entity
func (h *DataHandler) ListRecords(c *gin.Context) {
	adapter, entity, err := h.bind(c, constants.PermActionList)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	query := models.FetchQuery{
		Page:     intQuery(c, constants.ParamPage, 1),
		PageSize: intQuery(c, constants.ParamPageSize, constants.DefaultPageSize),
		Sort:     c.Query(constants.ParamSort),
		Order:    c.Query(constants.ParamOrder),
	}
	if query.PageSize > constants.MaxPageSize {
		query.PageSize = constants.MaxPageSize
	}
	if raw := c.Query("include"); raw != "" {
		for _, inc := range strings.Split(raw, ",") {
			if inc = strings.TrimSpace(inc); inc != "" {
				query.Include = append(query.Include, inc)
			}
		}
	}

	rs, err := adapter.FetchRecords(c.Request.Context(), entity, query)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		constants.ResponseData:  rs.Data,
		constants.ResponseTotal: rs.Total,
	})
}

// GetRecord handles GET /api/runtime/apps/:slug/data/:entity/:id
func (h *DataHandler) GetRecord(c *gin.Context) {
	adapter, entity, err := h.bind(c, constants.PermActionRead)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	HandleGetEnvelope(c, "record", func() (interface{}, error) {
		return adapter.Get(c.Request.Context(), entity, c.Param("id"))
	})
}

// CreateRecord handles POST /api/runtime/apps/:slug/data/:entity
func (h *DataHandler) CreateRecord(c *gin.Context) {
	adapter, entity, err := h.bind(c, constants.PermActionCreate)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	data := make(models.Record)
	if !BindJSON(c, &data) {
		return
	}
	HandleCreateEnvelope(c, "record", "Record created successfully", func() (interface{}, error) {
		return adapter.Create(c.Request.Context(), entity, data)
	})
}

// UpdateRecord handles PUT /api/runtime/apps/:slug/data/:entity/:id
func (h *DataHandler) UpdateRecord(c *gin.Context) {
	adapter, entity, err := h.bind(c, constants.PermActionUpdate)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	updates := make(models.Record)
	if !BindJSON(c, &updates) {
		return
	}
	HandleUpdateEnvelope(c, "record", "Record updated successfully", func() (interface{}, error) {
		return adapter.Update(c.Request.Context(), entity, c.Param("id"), updates)
	})
}

// DeleteRecord handles DELETE /api/runtime/apps/:slug/data/:entity/:id
func (h *DataHandler) DeleteRecord(c *gin.Context) {
	adapter, entity, err := h.bind(c, constants.PermActionDelete)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	HandleDeleteEnvelope(c, "Record deleted successfully", func() error {
		return adapter.Delete(c.Request.Context(), entity, c.Param("id"))
	})
}

// bind resolves the slug to its running app, gates the requested action for
// the caller's role and returns the identity-bound adapter.
func (h *DataHandler) bind(c *gin.Context, action string) (*services.AppData, string, error) {
	user := GetUserFromContext(c)
	entity := c.Param("entity")

	app, bp, err := h.svc.Apps.RuntimeBinding(c.Request.Context(), c.Param("slug"))
	if err != nil {
		return nil, "", err
	}
	if !bp.Security.Allows(user.Role, entity, action) {
		return nil, "", apperrors.NewPermissionError(action, entity)
	}
	return h.svc.Data.ForApp(app, bp, user), entity, nil
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

package services

import (
	"log"
	"strings"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

// ActionRouter applies symbolic UI actions to session state. It is a state
// machine over (activePageId, activeModalId, selectedRecord, pageVariables)
// and is total over its symbol set: unrecognized actions and missed lookups
// log and no-op, they never fail the session. The session service serializes
// calls per session, so the router itself holds no locks.
type ActionRouter struct{}

func NewActionRouter() *ActionRouter {
	return &ActionRouter{}
}

// Dispatch resolves the request to a symbolic action and applies its
// transition to state in place. A request carrying a raw block trigger is
// first mapped through the block's declared ActionConfig bindings; a trigger
// the block does not declare is forwarded unchanged as the action name.
func (r *ActionRouter) Dispatch(bp *models.Blueprint, state *models.SessionState, req *models.ActionRequest) {
	if bp == nil || state == nil || req == nil {
		return
	}

	action := req.Action
	config := req.Config
	if action == "" {
		action, config = r.resolveTrigger(bp, state, req)
	}

	switch action {
	case constants.ActionNavigate:
		r.applyNavigate(bp, state, config)
	case constants.ActionOpenModal:
		r.applyOpenModal(bp, state, config, req.Context)
	case constants.ActionCloseModal:
		state.ActiveModalID = ""
	case constants.ActionSetVariable:
		r.applySetVariable(state, config)
	case constants.ActionView, constants.ActionEdit, constants.ActionCardClick:
		r.applySelectRecord(bp, state, req.Context)
	case constants.ActionCreate, constants.ActionCreateClick:
		r.applyStartCreate(bp, state)
	case constants.ActionSubmit, constants.ActionCancel:
		state.ActiveModalID = ""
	default:
		log.Printf("⚠️ Action router: unrecognized action %q ignored", action)
	}
}

// resolveTrigger maps a raw block trigger onto the action the block declares
// for it. The declared config is the base and the request config overlays it.
// A trigger with no declared binding forwards unchanged so block
// implementations stay reusable across blueprints with different wiring.
func (r *ActionRouter) resolveTrigger(bp *models.Blueprint, state *models.SessionState, req *models.ActionRequest) (string, map[string]interface{}) {
	block := r.findActiveBlock(bp, state, req.BlockID)
	if block != nil {
		for _, binding := range block.Actions {
			if binding.Trigger != req.Trigger {
				continue
			}
			merged := make(map[string]interface{}, len(binding.Config)+len(req.Config))
			for k, v := range binding.Config {
				merged[k] = v
			}
			for k, v := range req.Config {
				merged[k] = v
			}
			return binding.Action, merged
		}
	}
	return req.Trigger, req.Config
}

// findActiveBlock locates a block by id within the active page and, when one
// is open, the active modal. Children are searched depth-first.
func (r *ActionRouter) findActiveBlock(bp *models.Blueprint, state *models.SessionState, blockID string) *models.BlockSpec {
	if blockID == "" {
		return nil
	}
	if page := bp.Page(state.ActivePageID); page != nil {
		if found := findBlock(page.Blocks, blockID); found != nil {
			return found
		}
	}
	if state.ActiveModalID != "" {
		if modal := bp.Modal(state.ActiveModalID); modal != nil {
			if found := findBlock(modal.Blocks, blockID); found != nil {
				return found
			}
		}
	}
	return nil
}

func findBlock(blocks []models.BlockSpec, id string) *models.BlockSpec {
	for i := range blocks {
		if blocks[i].ID == id {
			return &blocks[i]
		}
		if found := findBlock(blocks[i].Children, id); found != nil {
			return found
		}
	}
	return nil
}

func (r *ActionRouter) applyNavigate(bp *models.Blueprint, state *models.SessionState, config map[string]interface{}) {
	route := GetConfigString(config, constants.ConfigRoute)
	if route == "" {
		log.Printf("⚠️ Action router: navigate without a route ignored")
		return
	}
	page := bp.PageByRoute(route)
	if page == nil {
		log.Printf("⚠️ Action router: no page matches route %q", route)
		return
	}
	state.ActivePageID = page.ID
	seedPageVariables(state, page)
}

func (r *ActionRouter) applyOpenModal(bp *models.Blueprint, state *models.SessionState, config map[string]interface{}, actionCtx map[string]interface{}) {
	modalID := GetConfigString(config, constants.ConfigModal)
	if modalID == "" {
		log.Printf("⚠️ Action router: openModal without a modal id ignored")
		return
	}
	if bp.Modal(modalID) == nil {
		log.Printf("⚠️ Action router: no modal with id %q", modalID)
		return
	}
	state.ActiveModalID = modalID
	if rec := recordFromContext(actionCtx); rec != nil {
		state.SelectedRecord = rec
	}
}

func (r *ActionRouter) applySetVariable(state *models.SessionState, config map[string]interface{}) {
	name := GetConfigString(config, constants.ConfigName)
	if name == "" {
		log.Printf("⚠️ Action router: setVariable without a name ignored")
		return
	}
	if state.PageVariables == nil {
		state.PageVariables = make(map[string]interface{})
	}
	state.PageVariables[name] = config[constants.ConfigValue]
}

// applySelectRecord handles the record-centric triggers (view, edit,
// cardClick): without a selected record in the action context the whole
// transition is a no-op.
func (r *ActionRouter) applySelectRecord(bp *models.Blueprint, state *models.SessionState, actionCtx map[string]interface{}) {
	rec := recordFromContext(actionCtx)
	if rec == nil {
		log.Printf("⚠️ Action router: record action without selectedRecord ignored")
		return
	}
	state.SelectedRecord = rec
	if modalID := findModalByHints(bp, constants.ModalHintDetail, constants.ModalHintEdit); modalID != "" {
		state.ActiveModalID = modalID
	}
}

func (r *ActionRouter) applyStartCreate(bp *models.Blueprint, state *models.SessionState) {
	state.SelectedRecord = nil
	if modalID := findModalByHints(bp, constants.ModalHintCreate, constants.ModalHintNew); modalID != "" {
		state.ActiveModalID = modalID
	}
}

// findModalByHints returns the first declared modal whose id contains any of
// the given fragments, or "".
func findModalByHints(bp *models.Blueprint, hints ...string) string {
	for i := range bp.UI.Modals {
		id := strings.ToLower(bp.UI.Modals[i].ID)
		for _, hint := range hints {
			if strings.Contains(id, hint) {
				return bp.UI.Modals[i].ID
			}
		}
	}
	return ""
}

// recordFromContext extracts actionContext.selectedRecord when present.
func recordFromContext(actionCtx map[string]interface{}) models.Record {
	if actionCtx == nil {
		return nil
	}
	switch v := actionCtx[constants.ContextKeySelectedRecord].(type) {
	case models.Record:
		return v
	case map[string]interface{}:
		return models.Record(v)
	default:
		return nil
	}
}

// seedPageVariables merges the page's declared variable defaults for keys the
// session has not set yet. Values already present are never clobbered.
func seedPageVariables(state *models.SessionState, page *models.PageSpec) {
	if len(page.Variables) == 0 {
		return
	}
	if state.PageVariables == nil {
		state.PageVariables = make(map[string]interface{}, len(page.Variables))
	}
	for k, v := range page.Variables {
		if _, exists := state.PageVariables[k]; !exists {
			state.PageVariables[k] = v
		}
	}
}

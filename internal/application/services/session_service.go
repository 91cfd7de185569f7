package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/brnikita/refine-supabase-apps-builder/internal/domain/events"
	"github.com/brnikita/refine-supabase-apps-builder/internal/domain/ports"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	apperrors "github.com/brnikita/refine-supabase-apps-builder/pkg/errors"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/template"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// PushFunc delivers one typed server frame to an attached transport (the
// websocket handler wraps its connection in one). Implementations must not
// block: a slow consumer drops frames, it never stalls the session.
type PushFunc func(messageType string, payload interface{})

// runtimeSession is one live session. The state field is the single mutable
// owner of UI state and every mutation happens under mu; app, bp, user and
// adapter are fixed at creation and read lock-free.
type runtimeSession struct {
	mu    sync.Mutex
	state *models.SessionState

	app     *models.App
	bp      *models.Blueprint
	user    models.UserSession
	adapter *AppData

	pushers    map[int]PushFunc
	nextPushID int
}

// push fans a frame out to the transports attached at call time. The pusher
// set is snapshotted under the lock and invoked outside it.
func (rs *runtimeSession) push(messageType string, payload interface{}) {
	rs.mu.Lock()
	targets := make([]PushFunc, 0, len(rs.pushers))
	for _, p := range rs.pushers {
		targets = append(targets, p)
	}
	rs.mu.Unlock()

	for _, p := range targets {
		p(messageType, payload)
	}
}

// SessionService owns the live sessions of all running apps. It is the only
// component that mutates session state, always through the action router and
// always under the session's own lock; rendering happens on defensive copies
// so a slow fetch never blocks action dispatch.
type SessionService struct {
	registry   ports.AppRegistry
	blueprints ports.BlueprintSource
	data       *DataService
	renderer   *BlockRenderService
	layout     *LayoutEngine
	router     *ActionRouter
	bus        *EventBus
	engine     *template.Engine
	ttl        time.Duration

	mu       sync.RWMutex
	sessions map[string]*runtimeSession
}

// NewSessionService creates the session registry and subscribes it to record
// and app lifecycle events. ttl <= 0 falls back to the default idle TTL.
func NewSessionService(
	registry ports.AppRegistry,
	blueprints ports.BlueprintSource,
	data *DataService,
	renderer *BlockRenderService,
	layout *LayoutEngine,
	router *ActionRouter,
	bus *EventBus,
	engine *template.Engine,
	ttl time.Duration,
) *SessionService {
	if ttl <= 0 {
		ttl = time.Duration(constants.DefaultSessionTTLMinutes) * time.Minute
	}
	s := &SessionService{
		registry:   registry,
		blueprints: blueprints,
		data:       data,
		renderer:   renderer,
		layout:     layout,
		router:     router,
		bus:        bus,
		engine:     engine,
		ttl:        ttl,
		sessions:   make(map[string]*runtimeSession),
	}
	if bus != nil {
		bus.Subscribe(events.RecordCreated, s.onRecordEvent)
		bus.Subscribe(events.RecordUpdated, s.onRecordEvent)
		bus.Subscribe(events.RecordDeleted, s.onRecordEvent)
		bus.Subscribe(events.AppStopped, s.onAppHalted)
		bus.Subscribe(events.AppDeleted, s.onAppHalted)
	}
	return s
}

// Create opens a session against a running app. The identity is bound once
// here and never changes for the session's lifetime. The session starts on
// the first navigation route that resolves to a page, else the first page.
func (s *SessionService) Create(ctx context.Context, slug string, user models.UserSession) (*models.SessionState, error) {
	app, err := s.registry.GetAppBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if app == nil || app.Status != constants.AppStatusRunning {
		return nil, apperrors.NewNotFoundError("app", slug)
	}
	bp, err := s.blueprints.GetBlueprint(ctx, slug)
	if err != nil {
		return nil, err
	}

	page := initialPage(bp)
	if page == nil {
		return nil, apperrors.NewValidationError("ui.pages", "blueprint declares no pages")
	}

	now := time.Now().UTC()
	state := &models.SessionState{
		ID:            utils.GenerateID(),
		AppSlug:       slug,
		ActivePageID:  page.ID,
		PageVariables: make(map[string]interface{}, len(page.Variables)),
		CreatedAt:     now,
		LastSeenAt:    now,
	}
	for k, v := range page.Variables {
		state.PageVariables[k] = v
	}

	sess := &runtimeSession{
		state:   state,
		app:     app,
		bp:      bp,
		user:    user,
		adapter: s.data.ForApp(app, bp, user),
		pushers: make(map[int]PushFunc),
	}

	s.mu.Lock()
	s.sessions[state.ID] = sess
	s.mu.Unlock()

	log.Printf("✅ Session %s opened for app %s (user=%s role=%s)", state.ID, slug, user.Name, user.Role)
	return state.Clone(), nil
}

// Get returns a copy of the session's current state, touching its idle clock.
func (s *SessionService) Get(sessionID string) (*models.SessionState, error) {
	sess, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state.Clone(), nil
}

// RenderPage derives the session's active page (and open modal, if any) into
// a rendered tree. activeTab only affects tab layouts: the selected tab is
// view-local and travels with the render request, never in session state.
func (s *SessionService) RenderPage(ctx context.Context, sessionID string, activeTab int) (*models.RenderedPage, error) {
	sess, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	state := sess.state.Clone()
	sess.mu.Unlock()

	return s.renderForState(ctx, sess, state, activeTab)
}

// DispatchAction applies one symbolic action. Data-bearing triggers (submit,
// dragDrop) persist through the CRUD adapter first; persistence failures
// surface to the caller and leave session state untouched. The transition
// itself runs under the session lock and the new state fans out to attached
// transports.
func (s *SessionService) DispatchAction(ctx context.Context, sessionID string, req *models.ActionRequest) (*models.SessionState, error) {
	if req == nil || (req.Action == "" && req.Trigger == "") {
		return nil, apperrors.NewValidationError("action", "either action or trigger is required")
	}
	sess, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.applyDataTrigger(ctx, sess, req); err != nil {
		return nil, err
	}

	sess.mu.Lock()
	s.router.Dispatch(sess.bp, sess.state, req)
	sess.state.LastSeenAt = time.Now().UTC()
	state := sess.state.Clone()
	sess.mu.Unlock()

	sess.push(constants.WSTypeSessionState, state)
	return state, nil
}

// Navigate is shorthand for dispatching a navigate action to the given route.
func (s *SessionService) Navigate(ctx context.Context, sessionID, route string) (*models.SessionState, error) {
	if route == "" {
		return nil, apperrors.NewValidationError("route", "route is required")
	}
	return s.DispatchAction(ctx, sessionID, &models.ActionRequest{
		Action: constants.ActionNavigate,
		Config: map[string]interface{}{constants.ConfigRoute: route},
	})
}

// End discards a session. Ending an unknown session is a no-op.
func (s *SessionService) End(sessionID string) {
	s.mu.Lock()
	sess := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if sess != nil {
		log.Printf("🧹 Session %s ended", sessionID)
	}
}

// Attach registers a push target for the session and returns its detach
// function. Frames are fanned out to every attached target.
func (s *SessionService) Attach(sessionID string, push PushFunc) (func(), error) {
	sess, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.nextPushID++
	id := sess.nextPushID
	sess.pushers[id] = push
	sess.mu.Unlock()

	return func() {
		sess.mu.Lock()
		delete(sess.pushers, id)
		sess.mu.Unlock()
	}, nil
}

// Count reports the number of live sessions.
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SweepIdle evicts every session idle past the TTL and returns how many went.
// The janitor calls this on its schedule.
func (s *SessionService) SweepIdle() int {
	cutoff := time.Now().UTC().Add(-s.ttl)

	s.mu.Lock()
	var expired []*runtimeSession
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.state.LastSeenAt.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			expired = append(expired, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.push(constants.WSTypeSystem, map[string]interface{}{"reason": "session expired"})
	}
	return len(expired)
}

// resolve looks a session up and touches its idle clock. A session past its
// TTL is evicted on contact and reported as gone.
func (s *SessionService) resolve(sessionID string) (*runtimeSession, error) {
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()

	if sess == nil {
		return nil, apperrors.NewSessionError(sessionID, "session not found")
	}

	sess.mu.Lock()
	expired := time.Since(sess.state.LastSeenAt) > s.ttl
	if !expired {
		sess.state.LastSeenAt = time.Now().UTC()
	}
	sess.mu.Unlock()

	if expired {
		s.End(sessionID)
		return nil, apperrors.NewSessionError(sessionID, "session expired")
	}
	return sess, nil
}

// renderForState renders a page tree from a state snapshot. It runs entirely
// on the copy, so concurrent dispatches against the live state are safe.
func (s *SessionService) renderForState(ctx context.Context, sess *runtimeSession, state *models.SessionState, activeTab int) (*models.RenderedPage, error) {
	page := sess.bp.Page(state.ActivePageID)
	if page == nil {
		return nil, apperrors.NewNotFoundError("page", state.ActivePageID)
	}

	tctx := sessionTemplateContext(sess.user, state)
	rctx := &RenderContext{Blueprint: sess.bp, Fetcher: sess.adapter, Template: tctx}

	arranged := s.layout.Arrange(page.Layout, topLevelBlockIDs(page.Blocks), activeTab)
	out := &models.RenderedPage{
		PageID: page.ID,
		Title:  s.engine.ResolveTemplate(page.Title, tctx),
		Layout: &arranged,
		Blocks: s.renderer.RenderBlocks(ctx, rctx, page.Blocks),
	}

	if state.ActiveModalID != "" {
		if modal := sess.bp.Modal(state.ActiveModalID); modal != nil {
			marranged := s.layout.Arrange(modal.Layout, topLevelBlockIDs(modal.Blocks), 0)
			out.Modal = &models.RenderedModal{
				ModalID: modal.ID,
				Title:   s.engine.ResolveTemplate(modal.Title, tctx),
				Size:    modal.Size,
				Layout:  &marranged,
				Blocks:  s.renderer.RenderBlocks(ctx, rctx, modal.Blocks),
			}
		} else {
			log.Printf("⚠️ Session %s references unknown modal %q, rendering page only", state.ID, state.ActiveModalID)
		}
	}
	return out, nil
}

// applyDataTrigger runs the persistence half of data-bearing triggers before
// the router applies the state transition. Triggers without data to write
// pass straight through.
func (s *SessionService) applyDataTrigger(ctx context.Context, sess *runtimeSession, req *models.ActionRequest) error {
	switch req.Trigger {
	case constants.TriggerSubmit:
		return s.applySubmit(ctx, sess, req)
	case constants.TriggerDragDrop:
		return s.applyDragDrop(ctx, sess, req)
	default:
		return nil
	}
}

// applySubmit persists form values: update when the session holds a selected
// record, create otherwise. A submit carrying no values only closes the
// modal, which the router handles.
func (s *SessionService) applySubmit(ctx context.Context, sess *runtimeSession, req *models.ActionRequest) error {
	values := valuesFromContext(req.Context)
	if len(values) == 0 {
		return nil
	}

	sess.mu.Lock()
	entity := GetConfigString(req.Config, constants.ConfigEntity)
	if entity == "" {
		if block := s.router.findActiveBlock(sess.bp, sess.state, req.BlockID); block != nil {
			entity = block.DataSource.EntityName()
		}
	}
	var recordID string
	if entity != "" && sess.state.SelectedRecord != nil {
		recordID = sess.state.SelectedRecord.GetString(sess.adapter.primaryKey(entity))
	}
	sess.mu.Unlock()

	if entity == "" {
		log.Printf("⚠️ Session %s: submit carries values but no entity binding, skipping persist", sess.state.ID)
		return nil
	}

	if recordID == "" {
		_, err := sess.adapter.Create(ctx, entity, values)
		return err
	}
	_, err := sess.adapter.Update(ctx, entity, recordID, values)
	return err
}

// applyDragDrop moves a record between kanban groups by writing the block's
// groupByField. Missing pieces degrade to a logged no-op; only the write
// itself can fail the dispatch.
func (s *SessionService) applyDragDrop(ctx context.Context, sess *runtimeSession, req *models.ActionRequest) error {
	recordID, _ := req.Context[constants.ContextKeyRecordID].(string)
	value, hasValue := req.Context[constants.ContextKeyValue]
	if recordID == "" || !hasValue {
		log.Printf("⚠️ Session %s: dragDrop without recordId/value ignored", sess.state.ID)
		return nil
	}

	sess.mu.Lock()
	block := s.router.findActiveBlock(sess.bp, sess.state, req.BlockID)
	sess.mu.Unlock()
	if block == nil {
		log.Printf("⚠️ Session %s: dragDrop from unknown block %q ignored", sess.state.ID, req.BlockID)
		return nil
	}

	entity := block.DataSource.EntityName()
	field := GetConfigString(block.Props, "groupByField")
	if entity == "" || field == "" {
		log.Printf("⚠️ Session %s: dragDrop on block %s lacks entity or groupByField, ignored", sess.state.ID, block.ID)
		return nil
	}

	_, err := sess.adapter.Update(ctx, entity, recordID, models.Record{field: value})
	return err
}

// onRecordEvent refreshes realtime blocks in sessions of the event's app.
// Delivery is already async (the bus publishes record events off the request
// path), so the handler can render inline.
func (s *SessionService) onRecordEvent(ctx context.Context, payload interface{}) error {
	evt, ok := payload.(events.RecordEvent)
	if !ok {
		return nil
	}
	for _, sess := range s.sessionsForApp(evt.AppSlug) {
		s.refreshRealtimeBlocks(ctx, sess, evt.Entity)
	}
	return nil
}

// onAppHalted ends every session of an app that stopped or was deleted.
func (s *SessionService) onAppHalted(ctx context.Context, payload interface{}) error {
	evt, ok := payload.(events.AppEvent)
	if !ok {
		return nil
	}
	ended := 0
	for _, sess := range s.sessionsForApp(evt.Slug) {
		sess.push(constants.WSTypeSystem, map[string]interface{}{
			"reason":  "app " + string(evt.Status),
			"appSlug": evt.Slug,
		})
		s.End(sess.state.ID)
		ended++
	}
	if ended > 0 {
		log.Printf("🧹 Sessions: ended %d for app %s (%s)", ended, evt.Slug, evt.Status)
	}
	return nil
}

// sessionsForApp snapshots the sessions bound to an app slug. The app binding
// is immutable per session, so it reads lock-free.
func (s *SessionService) sessionsForApp(slug string) []*runtimeSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*runtimeSession
	for _, sess := range s.sessions {
		if sess.app.Slug == slug {
			out = append(out, sess)
		}
	}
	return out
}

// refreshRealtimeBlocks re-renders the realtime blocks bound to entity on the
// session's active page (and open modal) and pushes block_refreshed frames.
// The page id is captured at issue time; a result arriving after the session
// navigated away is discarded rather than committed against the wrong page.
func (s *SessionService) refreshRealtimeBlocks(ctx context.Context, sess *runtimeSession, entity string) {
	sess.mu.Lock()
	attached := len(sess.pushers) > 0
	state := sess.state.Clone()
	sess.mu.Unlock()
	if !attached {
		return
	}

	page := sess.bp.Page(state.ActivePageID)
	if page == nil {
		return
	}
	blocks := realtimeBlocks(page.Blocks, entity)
	if state.ActiveModalID != "" {
		if modal := sess.bp.Modal(state.ActiveModalID); modal != nil {
			blocks = append(blocks, realtimeBlocks(modal.Blocks, entity)...)
		}
	}
	if len(blocks) == 0 {
		return
	}

	tctx := sessionTemplateContext(sess.user, state)
	rctx := &RenderContext{Blueprint: sess.bp, Fetcher: sess.adapter, Template: tctx}

	for _, block := range blocks {
		rendered := s.renderer.RenderBlock(ctx, rctx, block)

		sess.mu.Lock()
		stale := sess.state.ActivePageID != state.ActivePageID
		sess.mu.Unlock()
		if stale {
			log.Printf("⚠️ Session %s: discarding stale refresh of block %s", state.ID, block.ID)
			return
		}
		sess.push(constants.WSTypeBlockRefreshed, rendered)
	}
}

// sessionTemplateContext builds the expression context from a state snapshot.
func sessionTemplateContext(user models.UserSession, state *models.SessionState) *template.Context {
	return &template.Context{
		User:           user.ToMap(),
		PageVariables:  state.PageVariables,
		RouteParams:    state.RouteParams,
		SelectedRecord: state.SelectedRecord,
	}
}

// initialPage picks the session's starting page: the first navigation entry
// whose route resolves to a page, else the first declared page.
func initialPage(bp *models.Blueprint) *models.PageSpec {
	var fromNav func(items []models.NavItem) *models.PageSpec
	fromNav = func(items []models.NavItem) *models.PageSpec {
		for i := range items {
			if items[i].Route != "" {
				if page := bp.PageByRoute(items[i].Route); page != nil {
					return page
				}
			}
			if page := fromNav(items[i].Children); page != nil {
				return page
			}
		}
		return nil
	}
	if page := fromNav(bp.UI.Navigation); page != nil {
		return page
	}
	if len(bp.UI.Pages) > 0 {
		return &bp.UI.Pages[0]
	}
	return nil
}

// topLevelBlockIDs lists a container's direct block ids in declaration order
// for the layout engine; children arrange inside their parent.
func topLevelBlockIDs(blocks []models.BlockSpec) []string {
	ids := make([]string, len(blocks))
	for i := range blocks {
		ids[i] = blocks[i].ID
	}
	return ids
}

// realtimeBlocks collects blocks, children included, whose data source is
// realtime-bound to the entity.
func realtimeBlocks(blocks []models.BlockSpec, entity string) []*models.BlockSpec {
	var out []*models.BlockSpec
	for i := range blocks {
		if ds := blocks[i].DataSource; ds != nil && ds.Realtime && ds.EntityName() == entity {
			out = append(out, &blocks[i])
		}
		out = append(out, realtimeBlocks(blocks[i].Children, entity)...)
	}
	return out
}

// valuesFromContext extracts the submit payload map from the action context.
func valuesFromContext(actionCtx map[string]interface{}) models.Record {
	if actionCtx == nil {
		return nil
	}
	switch v := actionCtx[constants.ContextKeyValues].(type) {
	case models.Record:
		return v.Clone()
	case map[string]interface{}:
		return models.Record(v).Clone()
	default:
		return nil
	}
}

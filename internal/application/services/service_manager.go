package services

import (
	"database/sql"
	"time"

	"github.com/brnikita/refine-supabase-apps-builder/internal/domain/ports"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/template"
)

// ServiceManagerOptions carries the runtime knobs the manager cannot derive
// from its collaborators.
type ServiceManagerOptions struct {
	SessionTTL      time.Duration
	JanitorSchedule string
}

// ServiceManager wires all engine services with dependency injection. The db
// handle is nil on the memory backend; services that issue DDL degrade to
// no-ops in that case.
type ServiceManager struct {
	registry ports.AppRegistry
	store    ports.RecordStore

	// Core services
	EventBus   *EventBus
	Schema     *SchemaManager
	Blueprints *BlueprintService
	Data       *DataService
	Apps       *AppService
	Blocks     *BlockRegistry
	Template   *template.Engine
	Renderer   *BlockRenderService
	Layout     *LayoutEngine
	Router     *ActionRouter
	Sessions   *SessionService
	Janitor    *JanitorService
}

// NewServiceManager creates a service manager with all dependencies wired in
// order. It only fails on a malformed janitor schedule.
func NewServiceManager(registry ports.AppRegistry, store ports.RecordStore, db *sql.DB, opts ServiceManagerOptions) (*ServiceManager, error) {
	sm := &ServiceManager{
		registry: registry,
		store:    store,
	}

	// Initialize services in dependency order
	sm.EventBus = NewEventBus()
	sm.Schema = NewSchemaManager(db)
	sm.Blueprints = NewBlueprintService(registry)
	sm.Data = NewDataService(store, sm.EventBus)
	sm.Apps = NewAppService(registry, sm.Blueprints, sm.Schema, store, sm.EventBus)

	sm.Blocks = NewBlockRegistry()
	sm.Template = template.NewEngine()
	sm.Renderer = NewBlockRenderService(sm.Blocks, sm.Template)
	sm.Layout = NewLayoutEngine()
	sm.Router = NewActionRouter()

	sm.Sessions = NewSessionService(
		registry,
		sm.Blueprints,
		sm.Data,
		sm.Renderer,
		sm.Layout,
		sm.Router,
		sm.EventBus,
		sm.Template,
		opts.SessionTTL,
	)

	janitor, err := NewJanitorService(sm.Sessions, opts.JanitorSchedule)
	if err != nil {
		return nil, err
	}
	sm.Janitor = janitor

	return sm, nil
}

// StartJanitor starts the session janitor loop. Call during server startup.
func (sm *ServiceManager) StartJanitor() {
	go sm.Janitor.Start()
}

// StopJanitor stops the janitor gracefully. Call during server shutdown.
func (sm *ServiceManager) StopJanitor() {
	sm.Janitor.Stop()
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/brnikita/refine-supabase-apps-builder/internal/domain"
	"github.com/brnikita/refine-supabase-apps-builder/internal/domain/events"
	"github.com/brnikita/refine-supabase-apps-builder/internal/domain/ports"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	apperrors "github.com/brnikita/refine-supabase-apps-builder/pkg/errors"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// AppService owns the app registry and the lifecycle state machine around
// it. Every status change goes through the machine; a transition the machine
// rejects never reaches storage. Start is the expensive edge: it validates
// the latest blueprint and provisions physical tables before the status
// flips, and a provisioning failure lands the app in ERROR with the reason
// recorded on the row.
type AppService struct {
	registry   ports.AppRegistry
	blueprints *BlueprintService
	schema     *SchemaManager
	store      ports.RecordStore
	bus        *EventBus
	fsm        *domain.AppStateMachine
}

func NewAppService(registry ports.AppRegistry, blueprints *BlueprintService, schema *SchemaManager, store ports.RecordStore, bus *EventBus) *AppService {
	return &AppService{
		registry:   registry,
		blueprints: blueprints,
		schema:     schema,
		store:      store,
		bus:        bus,
		fsm:        domain.NewAppStateMachine(),
	}
}

// CreateAppRequest is the payload for registering a new app. The blueprint
// document is the source of truth for identity; name/description may
// override its values, but a slug that contradicts the document is rejected
// so the registry row and the document can never drift apart.
type CreateAppRequest struct {
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Blueprint   json.RawMessage `json:"blueprint" binding:"required"`
}

// CreateApp validates and stores the blueprint as version 1 and registers
// the app in DRAFT. Nothing is provisioned until Start.
func (s *AppService) CreateApp(ctx context.Context, req *CreateAppRequest) (*models.App, error) {
	if len(req.Blueprint) == 0 {
		return nil, apperrors.NewValidationError("blueprint", "document is required")
	}

	bp, err := s.blueprints.Normalize(req.Slug, req.Blueprint)
	if err != nil {
		return nil, err
	}
	if req.Slug != "" && req.Slug != bp.App.Slug {
		return nil, apperrors.NewValidationError("slug",
			fmt.Sprintf("request slug %q contradicts blueprint app.slug %q", req.Slug, bp.App.Slug))
	}

	if existing, err := s.registry.GetAppBySlug(ctx, bp.App.Slug); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperrors.NewConflictError("app", "slug", bp.App.Slug)
	}

	name := req.Name
	if name == "" {
		name = bp.App.Name
	}
	description := req.Description
	if description == "" {
		description = bp.App.Description
	}

	now := time.Now().UTC()
	app := &models.App{
		ID:          utils.GenerateID(),
		Name:        name,
		Slug:        bp.App.Slug,
		Description: description,
		Status:      constants.AppStatusDraft,
		RuntimeConfig: models.RuntimeConfig{
			DBSchema: constants.AppTablePrefix + strings.ReplaceAll(bp.App.Slug, "-", "_"),
			BasePath: "/apps/" + bp.App.Slug,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.registry.CreateApp(ctx, app); err != nil {
		return nil, err
	}
	if _, err := s.blueprints.SaveNewVersion(ctx, app, bp); err != nil {
		// Creating without a stored document would leave an unusable row.
		if delErr := s.registry.DeleteApp(ctx, app.ID); delErr != nil {
			log.Printf("⚠️ App: cleanup after failed blueprint save for %s: %v", app.Slug, delErr)
		}
		return nil, err
	}

	log.Printf("✅ App %s registered as %s (DRAFT)", app.Slug, app.ID)
	return app, nil
}

// UpdateBlueprint validates and stores the next blueprint version. For a
// RUNNING app the new tables are provisioned immediately (table creation is
// idempotent) and the version pointer advances; otherwise the version waits
// for the next Start.
func (s *AppService) UpdateBlueprint(ctx context.Context, appID string, raw []byte) (*models.BlueprintRecord, error) {
	app, err := s.GetApp(ctx, appID)
	if err != nil {
		return nil, err
	}

	bp, err := s.blueprints.Normalize(app.Slug, raw)
	if err != nil {
		return nil, err
	}
	if bp.App.Slug != app.Slug {
		return nil, apperrors.NewValidationError("app.slug",
			fmt.Sprintf("blueprint slug %q does not match app %q; register a new app instead", bp.App.Slug, app.Slug))
	}

	rec, err := s.blueprints.SaveNewVersion(ctx, app, bp)
	if err != nil {
		return nil, err
	}

	if app.Status == constants.AppStatusRunning && rec.Version > app.CurrentVersion {
		if err := s.schema.ProvisionApp(ctx, app, bp); err != nil {
			s.fail(ctx, app, fmt.Sprintf("provisioning version %d: %v", rec.Version, err))
			return nil, apperrors.NewInternalError("provisioning new blueprint version", err)
		}
		app.CurrentVersion = rec.Version
		if err := s.registry.UpdateApp(ctx, app); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// StartApp brings an app online: validate the stored blueprint, provision
// its tables, flip the status. DRAFT, STOPPED and ERROR rows may start;
// anything else is an invalid transition.
func (s *AppService) StartApp(ctx context.Context, id string) (*models.App, error) {
	app, err := s.GetApp(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.fsm.Transition(app.Status, domain.TransitionStart)
	if err != nil {
		return nil, apperrors.NewTransitionError(string(app.Status), string(domain.TransitionStart))
	}

	latest, err := s.registry.LatestBlueprint(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.Blueprint == nil {
		return nil, apperrors.NewValidationError("blueprint", "app has no stored blueprint version")
	}

	if report := ValidateBlueprint(latest.Blueprint); !report.Valid() {
		return nil, apperrors.NewBlueprintError(app.Slug, report.Violations)
	}

	if err := s.schema.ProvisionApp(ctx, app, latest.Blueprint); err != nil {
		s.fail(ctx, app, fmt.Sprintf("provisioning: %v", err))
		return nil, apperrors.NewInternalError("provisioning app storage", err)
	}

	app.Status = next
	app.CurrentVersion = latest.Version
	app.LastStatusReason = ""
	app.UpdatedAt = time.Now().UTC()
	if err := s.registry.UpdateApp(ctx, app); err != nil {
		return nil, err
	}

	s.blueprints.Invalidate(app.Slug)
	s.publishLifecycle(events.AppStarted, app, "")
	log.Printf("🚀 App %s started (version %d)", app.Slug, app.CurrentVersion)
	return app, nil
}

// StopApp takes the app offline. Provisioned tables and stored versions stay
// untouched; only new sessions are refused.
func (s *AppService) StopApp(ctx context.Context, id string) (*models.App, error) {
	app, err := s.GetApp(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.fsm.Transition(app.Status, domain.TransitionStop)
	if err != nil {
		return nil, apperrors.NewTransitionError(string(app.Status), string(domain.TransitionStop))
	}

	app.Status = next
	app.UpdatedAt = time.Now().UTC()
	if err := s.registry.UpdateApp(ctx, app); err != nil {
		return nil, err
	}

	s.publishLifecycle(events.AppStopped, app, "")
	log.Printf("✅ App %s stopped", app.Slug)
	return app, nil
}

// DeleteApp tears the app down: mark DELETING, drop its tables, remove the
// registry row and stored versions. Sessions die via the published event.
func (s *AppService) DeleteApp(ctx context.Context, id string) error {
	app, err := s.GetApp(ctx, id)
	if err != nil {
		return err
	}
	next, err := s.fsm.Transition(app.Status, domain.TransitionDelete)
	if err != nil {
		return apperrors.NewTransitionError(string(app.Status), string(domain.TransitionDelete))
	}

	app.Status = next
	app.UpdatedAt = time.Now().UTC()
	if err := s.registry.UpdateApp(ctx, app); err != nil {
		return err
	}

	if latest, err := s.registry.LatestBlueprint(ctx, app.ID); err == nil && latest != nil && latest.Blueprint != nil {
		if err := s.schema.TeardownApp(ctx, app, latest.Blueprint, s.store); err != nil {
			// Row removal still proceeds; orphaned tables are recoverable,
			// a half-deleted registry row is not.
			log.Printf("⚠️ App: teardown for %s left tables behind: %v", app.Slug, err)
		}
	}

	if err := s.registry.DeleteApp(ctx, app.ID); err != nil {
		return err
	}

	s.blueprints.Invalidate(app.Slug)
	s.publishLifecycle(events.AppDeleted, app, "")
	log.Printf("🧹 App %s deleted", app.Slug)
	return nil
}

// GetApp resolves an app by id, turning a registry miss into NotFound.
func (s *AppService) GetApp(ctx context.Context, id string) (*models.App, error) {
	app, err := s.registry.GetApp(ctx, id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, apperrors.NewNotFoundError("app", id)
	}
	return app, nil
}

// GetAppBySlug resolves an app by slug regardless of status.
func (s *AppService) GetAppBySlug(ctx context.Context, slug string) (*models.App, error) {
	app, err := s.registry.GetAppBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, apperrors.NewNotFoundError("app", slug)
	}
	return app, nil
}

// ListApps returns all registered apps, newest first.
func (s *AppService) ListApps(ctx context.Context) ([]*models.App, error) {
	return s.registry.ListApps(ctx)
}

// GetRuntimeApp resolves a slug for runtime clients. Only RUNNING apps are
// visible here; anything else reads as absent so stopped apps don't leak
// their existence to anonymous visitors.
func (s *AppService) GetRuntimeApp(ctx context.Context, slug string) (*models.RuntimeAppResponse, error) {
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

	return &models.RuntimeAppResponse{
		Status:        app.Status,
		App:           models.AppSummary{ID: app.ID, Name: app.Name, Slug: app.Slug},
		RuntimeConfig: app.RuntimeConfig,
		Blueprint:     bp,
	}, nil
}

// RuntimeBinding resolves a slug to its app row and live blueprint for data
// access, with the same visibility rule as GetRuntimeApp: only RUNNING apps.
func (s *AppService) RuntimeBinding(ctx context.Context, slug string) (*models.App, *models.Blueprint, error) {
	app, err := s.registry.GetAppBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	if app == nil || app.Status != constants.AppStatusRunning {
		return nil, nil, apperrors.NewNotFoundError("app", slug)
	}
	bp, err := s.blueprints.GetBlueprint(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	return app, bp, nil
}

// fail records a failure on the row via the Fail transition. Best effort:
// a row that can't even record its failure only logs.
func (s *AppService) fail(ctx context.Context, app *models.App, reason string) {
	next, err := s.fsm.Transition(app.Status, domain.TransitionFail)
	if err != nil {
		log.Printf("❌ App %s failed while %s: %s", app.Slug, app.Status, reason)
		return
	}
	app.Status = next
	app.LastStatusReason = reason
	app.UpdatedAt = time.Now().UTC()
	if err := s.registry.UpdateApp(ctx, app); err != nil {
		log.Printf("⚠️ App: recording failure for %s: %v", app.Slug, err)
	}
	s.publishLifecycle(events.AppFailed, app, reason)
	log.Printf("❌ App %s marked ERROR: %s", app.Slug, reason)
}

func (s *AppService) publishLifecycle(eventType events.EventType, app *models.App, reason string) {
	if s.bus == nil {
		return
	}
	s.bus.PublishAsync(eventType, events.AppEvent{
		AppID:  app.ID,
		Slug:   app.Slug,
		Status: app.Status,
		Reason: reason,
	})
}

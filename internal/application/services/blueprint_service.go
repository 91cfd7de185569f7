package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/brnikita/refine-supabase-apps-builder/internal/domain/ports"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	apperrors "github.com/brnikita/refine-supabase-apps-builder/pkg/errors"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/versioning"
)

// BlueprintService owns blueprint versions: normalization, semantic
// validation, content hashing and the per-slug cache sessions resolve
// against. Documents are immutable once stored; a new version replaces the
// old one wholesale.
type BlueprintService struct {
	registry ports.AppRegistry
	mu       sync.RWMutex

	// Cache keyed by app slug; entries pin the version they were loaded at.
	cache map[string]*cachedBlueprint
}

type cachedBlueprint struct {
	version   int
	blueprint *models.Blueprint
}

var _ ports.BlueprintSource = (*BlueprintService)(nil)

// NewBlueprintService creates a new BlueprintService
func NewBlueprintService(registry ports.AppRegistry) *BlueprintService {
	return &BlueprintService{
		registry: registry,
		cache:    make(map[string]*cachedBlueprint),
	}
}

// Normalize parses a raw blueprint document (any supported version) into the
// canonical in-memory model and validates it semantically. Warnings are
// logged; violations are returned as one BlueprintError carrying them all.
func (bs *BlueprintService) Normalize(slug string, raw []byte) (*models.Blueprint, error) {
	bp, err := versioning.Normalize(raw)
	if err != nil {
		return nil, apperrors.NewBlueprintError(slug, []string{err.Error()})
	}

	report := ValidateBlueprint(bp)
	for _, warning := range report.Warnings {
		log.Printf("⚠️ Blueprint %s: %s", bp.App.Slug, warning)
	}
	if !report.Valid() {
		return nil, apperrors.NewBlueprintError(bp.App.Slug, report.Violations)
	}
	return bp, nil
}

// SaveNewVersion stores a validated blueprint as the app's next version.
// Saving a document whose content hash equals the latest stored version is a
// no-op returning the existing record, so repeated idempotent PUTs do not
// inflate the version counter.
func (bs *BlueprintService) SaveNewVersion(ctx context.Context, app *models.App, bp *models.Blueprint) (*models.BlueprintRecord, error) {
	hash, err := utils.HashJSON(bp)
	if err != nil {
		return nil, apperrors.NewInternalError("hashing blueprint", err)
	}

	latest, err := bs.registry.LatestBlueprint(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.BlueprintHash == hash {
		log.Printf("✅ Blueprint for %s unchanged (hash %.12s), keeping version %d", app.Slug, hash, latest.Version)
		return latest, nil
	}

	version := 1
	if latest != nil {
		version = latest.Version + 1
	}

	rec := &models.BlueprintRecord{
		ID:            utils.GenerateID(),
		AppID:         app.ID,
		Version:       version,
		Blueprint:     bp,
		BlueprintHash: hash,
		CreatedAt:     time.Now().UTC(),
	}
	if err := bs.registry.SaveBlueprint(ctx, rec); err != nil {
		return nil, err
	}

	bs.Invalidate(app.Slug)
	log.Printf("📦 Blueprint for %s stored as version %d (%d tables, %d pages)",
		app.Slug, version, len(bp.Data.Tables), len(bp.UI.Pages))
	return rec, nil
}

// GetBlueprint resolves the latest stored blueprint for a slug. Implements
// ports.BlueprintSource; sessions call this once at creation and hold the
// document for their lifetime.
func (bs *BlueprintService) GetBlueprint(ctx context.Context, slug string) (*models.Blueprint, error) {
	bs.mu.RLock()
	entry := bs.cache[slug]
	bs.mu.RUnlock()
	if entry != nil {
		return entry.blueprint, nil
	}

	app, err := bs.registry.GetAppBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, apperrors.NewNotFoundError("app", slug)
	}

	latest, err := bs.registry.LatestBlueprint(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.Blueprint == nil {
		return nil, apperrors.NewNotFoundError("blueprint", slug)
	}

	bs.mu.Lock()
	bs.cache[slug] = &cachedBlueprint{version: latest.Version, blueprint: latest.Blueprint}
	bs.mu.Unlock()

	return latest.Blueprint, nil
}

// GetVersion loads one stored blueprint version, bypassing the cache.
func (bs *BlueprintService) GetVersion(ctx context.Context, appID string, version int) (*models.BlueprintRecord, error) {
	rec, err := bs.registry.GetBlueprintVersion(ctx, appID, version)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NewNotFoundError("blueprint version", fmt.Sprintf("%s@v%d", appID, version))
	}
	return rec, nil
}

// Invalidate drops the cached document for a slug. Called after a new version
// is stored and when the app is deleted.
func (bs *BlueprintService) Invalidate(slug string) {
	bs.mu.Lock()
	delete(bs.cache, slug)
	bs.mu.Unlock()
}

// TablesInDependencyOrder returns table names ordered so that every
// many_to_one target precedes its referrer, which is the order storage
// provisioning must create them in. Cycles do not error: the offending edge
// is skipped with a warning and declaration order breaks the tie, so a
// self-referencing blueprint still provisions.
func TablesInDependencyOrder(bp *models.Blueprint) []string {
	deps := make(map[string][]string, len(bp.Data.Tables))
	for _, rel := range bp.Data.Relationships {
		if rel.Type != constants.RelManyToOne {
			continue
		}
		if bp.Table(rel.FromTable) == nil || bp.Table(rel.ToTable) == nil {
			continue
		}
		if rel.FromTable == rel.ToTable {
			continue // self-reference needs no ordering
		}
		deps[rel.FromTable] = append(deps[rel.FromTable], rel.ToTable)
	}
	for _, targets := range deps {
		sort.Strings(targets)
	}

	ordered := make([]string, 0, len(bp.Data.Tables))
	visited := make(map[string]bool, len(bp.Data.Tables))
	inStack := make(map[string]bool)

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		if inStack[name] {
			log.Printf("⚠️ Schema: circular relationship chain at table %q, breaking by declaration order", name)
			return
		}
		inStack[name] = true
		for _, dep := range deps[name] {
			visit(dep)
		}
		inStack[name] = false
		visited[name] = true
		ordered = append(ordered, name)
	}

	for _, table := range bp.Data.Tables {
		visit(table.Name)
	}
	return ordered
}

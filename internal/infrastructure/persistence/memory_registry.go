package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/brnikita/refine-supabase-apps-builder/internal/domain/ports"
	apperrors "github.com/brnikita/refine-supabase-apps-builder/pkg/errors"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

// MemoryRegistry is the in-process app registry used for demo/test runs
// (DATA_BACKEND=memory). Semantics mirror AppRepository: misses return
// (nil, nil), slug and version uniqueness return ConflictError, reads hand
// out copies so callers never alias registry state.
type MemoryRegistry struct {
	mu         sync.RWMutex
	apps       map[string]*models.App
	bySlug     map[string]string
	blueprints map[string][]*models.BlueprintRecord // keyed by app id, ascending version
}

var _ ports.AppRegistry = (*MemoryRegistry)(nil)

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		apps:       make(map[string]*models.App),
		bySlug:     make(map[string]string),
		blueprints: make(map[string][]*models.BlueprintRecord),
	}
}

func (m *MemoryRegistry) CreateApp(_ context.Context, app *models.App) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.bySlug[app.Slug]; exists {
		return apperrors.NewConflictError("app", "slug", app.Slug)
	}
	if _, exists := m.apps[app.ID]; exists {
		return apperrors.NewConflictError("app", "id", app.ID)
	}

	stored := *app
	m.apps[app.ID] = &stored
	m.bySlug[app.Slug] = app.ID
	return nil
}

func (m *MemoryRegistry) GetApp(_ context.Context, id string) (*models.App, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	app, ok := m.apps[id]
	if !ok {
		return nil, nil
	}
	out := *app
	return &out, nil
}

func (m *MemoryRegistry) GetAppBySlug(_ context.Context, slug string) (*models.App, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.bySlug[slug]
	if !ok {
		return nil, nil
	}
	out := *m.apps[id]
	return &out, nil
}

func (m *MemoryRegistry) ListApps(_ context.Context) ([]*models.App, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	apps := make([]*models.App, 0, len(m.apps))
	for _, app := range m.apps {
		out := *app
		apps = append(apps, &out)
	}
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].ID > apps[j].ID
		}
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})
	return apps, nil
}

func (m *MemoryRegistry) UpdateApp(_ context.Context, app *models.App) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.apps[app.ID]
	if !ok {
		return apperrors.NewNotFoundError("app", app.ID)
	}
	if existing.Slug != app.Slug {
		delete(m.bySlug, existing.Slug)
		m.bySlug[app.Slug] = app.ID
	}
	stored := *app
	m.apps[app.ID] = &stored
	return nil
}

func (m *MemoryRegistry) DeleteApp(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return nil
	}
	delete(m.bySlug, app.Slug)
	delete(m.apps, id)
	delete(m.blueprints, id)
	return nil
}

func (m *MemoryRegistry) SaveBlueprint(_ context.Context, rec *models.BlueprintRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.blueprints[rec.AppID] {
		if existing.Version == rec.Version {
			return apperrors.NewConflictError("blueprint version", "version", "")
		}
	}
	stored := *rec
	m.blueprints[rec.AppID] = append(m.blueprints[rec.AppID], &stored)
	sort.Slice(m.blueprints[rec.AppID], func(i, j int) bool {
		return m.blueprints[rec.AppID][i].Version < m.blueprints[rec.AppID][j].Version
	})
	return nil
}

func (m *MemoryRegistry) GetBlueprintVersion(_ context.Context, appID string, version int) (*models.BlueprintRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.blueprints[appID] {
		if rec.Version == version {
			out := *rec
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MemoryRegistry) LatestBlueprint(_ context.Context, appID string) (*models.BlueprintRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := m.blueprints[appID]
	if len(versions) == 0 {
		return nil, nil
	}
	out := *versions[len(versions)-1]
	return &out, nil
}

package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/brnikita/refine-supabase-apps-builder/internal/domain/events"
	"github.com/brnikita/refine-supabase-apps-builder/internal/domain/ports"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/errors"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/pipeline"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/template"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// DataService turns the physical record store into per-app, entity-addressed
// data adapters. Binding happens per session: the bound adapter resolves
// entities onto the app's tables, merges the blueprint's row filters for the
// session role, hydrates relationship includes, stamps system columns on
// writes and publishes record events for realtime refresh.
type DataService struct {
	store  ports.RecordStore
	bus    *EventBus
	engine *template.Engine
}

func NewDataService(store ports.RecordStore, bus *EventBus) *DataService {
	return &DataService{
		store:  store,
		bus:    bus,
		engine: template.NewEngine(),
	}
}

// Store exposes the underlying physical store for provisioning-time seeding.
func (s *DataService) Store() ports.RecordStore {
	return s.store
}

// PhysicalTable maps a declared table name onto per-app storage:
// app_<slug>__<snake(table)>, with slug hyphens folded to underscores so the
// result is a valid unquoted MySQL identifier.
func PhysicalTable(slug, table string) string {
	prefix := strings.ReplaceAll(slug, "-", "_")
	return constants.AppTablePrefix + prefix + "__" + utils.ToSnakeCase(table)
}

// ForApp binds the service to one app, blueprint and session identity.
func (s *DataService) ForApp(app *models.App, bp *models.Blueprint, user models.UserSession) *AppData {
	return &AppData{svc: s, app: app, bp: bp, user: user}
}

// AppData is the app-bound adapter handed to sessions and data handlers.
type AppData struct {
	svc  *DataService
	app  *models.App
	bp   *models.Blueprint
	user models.UserSession
}

var (
	_ ports.DataFetcher = (*AppData)(nil)
	_ ports.CRUDAdapter = (*AppData)(nil)
)

// FetchRecords loads one page of an entity's rows. Row filters declared for
// the session role are merged ahead of any caller filters, so a block can
// never widen what the blueprint's security section allows it to see.
func (a *AppData) FetchRecords(ctx context.Context, entity string, query models.FetchQuery) (*models.ResultSet, error) {
	table, err := a.physicalTable(entity)
	if err != nil {
		return nil, err
	}

	if rowFilters := a.rowFilters(entity); len(rowFilters) > 0 {
		query.Filters = append(rowFilters, query.Filters...)
	}

	records, total, err := a.svc.store.List(ctx, table, query)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", entity, err)
	}

	for _, include := range query.Include {
		a.hydrateInclude(ctx, entity, records, include)
	}

	return &models.ResultSet{Data: records, Total: total}, nil
}

// Get loads a single record by id, applying the same row filters as a fetch.
func (a *AppData) Get(ctx context.Context, entity string, id string) (models.Record, error) {
	table, err := a.physicalTable(entity)
	if err != nil {
		return nil, err
	}
	rec, err := a.svc.store.Get(ctx, table, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.NewNotFoundError(entity, id)
	}
	for _, filter := range a.rowFilters(entity) {
		if !pipeline.Matches(rec, filter) {
			return nil, errors.NewNotFoundError(entity, id)
		}
	}
	return rec, nil
}

func (a *AppData) Create(ctx context.Context, entity string, data models.Record) (models.Record, error) {
	table, err := a.physicalTable(entity)
	if err != nil {
		return nil, err
	}

	rec := data.Clone()
	pk := a.primaryKey(entity)
	a.stampCreate(rec, pk)

	if err := a.svc.store.Insert(ctx, table, rec); err != nil {
		return nil, fmt.Errorf("create %s: %w", entity, err)
	}

	a.publishRecordEvent(events.RecordCreated, entity, utils.ToString(rec[pk]), rec)
	return rec, nil
}

func (a *AppData) Update(ctx context.Context, entity string, id string, data models.Record) (models.Record, error) {
	table, err := a.physicalTable(entity)
	if err != nil {
		return nil, err
	}

	existing, err := a.svc.store.Get(ctx, table, id)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", entity, err)
	}
	if existing == nil {
		return nil, errors.NewNotFoundError(entity, id)
	}

	pk := a.primaryKey(entity)
	updates := data.Clone()
	delete(updates, pk)
	a.stampUpdate(updates)

	if err := a.svc.store.Update(ctx, table, id, updates); err != nil {
		return nil, fmt.Errorf("update %s: %w", entity, err)
	}

	merged := existing.Clone()
	for k, v := range updates {
		merged[k] = v
	}

	a.publishRecordEvent(events.RecordUpdated, entity, id, merged)
	return merged, nil
}

func (a *AppData) Delete(ctx context.Context, entity string, id string) error {
	table, err := a.physicalTable(entity)
	if err != nil {
		return err
	}
	if err := a.svc.store.Delete(ctx, table, id); err != nil {
		return fmt.Errorf("delete %s: %w", entity, err)
	}
	a.publishRecordEvent(events.RecordDeleted, entity, id, nil)
	return nil
}

// physicalTable validates the entity against the blueprint before resolving
// it, so a typo in a data source reads as a missing entity, not a SQL error.
func (a *AppData) physicalTable(entity string) (string, error) {
	if a.bp.Table(entity) == nil {
		return "", errors.NewNotFoundError("entity", entity)
	}
	return PhysicalTable(a.app.Slug, entity), nil
}

func (a *AppData) primaryKey(entity string) string {
	if t := a.bp.Table(entity); t != nil && t.PrimaryKey != "" {
		return t.PrimaryKey
	}
	return constants.FieldID
}

// rowFilters resolves the row filter rules declared for the session role on
// this entity into eq filters. Filter values support templates, so
// {"created_by": "{{$user.id}}"} scopes rows to the signed-in user.
func (a *AppData) rowFilters(entity string) []models.FilterSpec {
	var filters []models.FilterSpec
	tmplCtx := &template.Context{User: a.user.ToMap()}
	for i := range a.bp.Security.RowFilters {
		rule := &a.bp.Security.RowFilters[i]
		if rule.EntityName() != entity || !strings.EqualFold(rule.Role, a.user.Role) {
			continue
		}
		for field, raw := range rule.Filter {
			filters = append(filters, models.FilterSpec{
				Field:    field,
				Operator: constants.OperatorEq,
				Value:    a.svc.engine.ResolveValue(raw, tmplCtx),
			})
		}
	}
	return filters
}

func (a *AppData) stampCreate(rec models.Record, pk string) {
	if utils.ToString(rec[pk]) == "" {
		rec[pk] = utils.GenerateID()
	}
	now := NowTimestamp()
	if a.bp.Version >= constants.BlueprintVersionV3 {
		rec[constants.SystemColCreatedAtV3] = now
		rec[constants.SystemColUpdatedAtV3] = now
		return
	}
	rec[constants.SystemColCreatedAtV2] = now
	rec[constants.SystemColUpdatedAtV2] = now
	if a.user.ID != "" {
		rec[constants.SystemColCreatedByV2] = a.user.ID
	}
}

func (a *AppData) stampUpdate(updates models.Record) {
	now := NowTimestamp()
	if a.bp.Version >= constants.BlueprintVersionV3 {
		updates[constants.SystemColUpdatedAtV3] = now
		delete(updates, constants.SystemColCreatedAtV3)
		return
	}
	updates[constants.SystemColUpdatedAtV2] = now
	delete(updates, constants.SystemColCreatedAtV2)
	delete(updates, constants.SystemColCreatedByV2)
}

func (a *AppData) publishRecordEvent(eventType events.EventType, entity, id string, rec models.Record) {
	if a.svc.bus == nil {
		return
	}
	a.svc.bus.PublishAsync(eventType, events.RecordEvent{
		AppSlug:  a.app.Slug,
		Entity:   entity,
		RecordID: id,
		Record:   rec,
	})
}

// relEdge is a relationship normalized onto its foreign-key edge: fkTable
// rows carry fkColumn pointing at parentTable.parentKey.
type relEdge struct {
	parentTable string
	parentKey   string
	fkTable     string
	fkColumn    string
}

// hydrateInclude attaches related records under the include key:
// rows on the foreign-key side get their parent nested, parents get a slice
// of their children. Hydration failures log and leave the rows bare; they
// never fail the fetch that requested them.
func (a *AppData) hydrateInclude(ctx context.Context, entity string, records []models.Record, include string) {
	if len(records) == 0 || include == "" {
		return
	}

	edge, entityHoldsFK, ok := a.findRelationship(entity, include)
	if !ok {
		log.Printf("⚠️ Data: include %q does not match any relationship of %s", include, entity)
		return
	}

	if entityHoldsFK {
		a.hydrateParent(ctx, records, include, edge)
	} else {
		a.hydrateChildren(ctx, records, include, edge)
	}
}

// findRelationship matches an include name against the declared
// relationships of entity, by relationship name first and by the opposite
// table's name second. Declaration order breaks ties.
func (a *AppData) findRelationship(entity, include string) (relEdge, bool, bool) {
	for i := range a.bp.Data.Relationships {
		rel := &a.bp.Data.Relationships[i]
		edge := a.normalizeRelationship(rel)

		var otherTable string
		var entityHoldsFK bool
		switch entity {
		case edge.fkTable:
			otherTable, entityHoldsFK = edge.parentTable, true
		case edge.parentTable:
			otherTable, entityHoldsFK = edge.fkTable, false
		default:
			continue
		}

		if include == rel.Name || include == otherTable ||
			utils.ToSnakeCase(include) == utils.ToSnakeCase(otherTable) {
			return edge, entityHoldsFK, true
		}
	}
	return relEdge{}, false, false
}

// normalizeRelationship reduces both declared directions to one FK edge.
// many_to_one: fromTable carries the key. one_to_many: toTable carries it.
func (a *AppData) normalizeRelationship(rel *models.RelationshipSpec) relEdge {
	if rel.Type == constants.RelOneToMany {
		return relEdge{
			parentTable: rel.FromTable,
			parentKey:   a.keyOrPrimary(rel.FromColumn, rel.FromTable),
			fkTable:     rel.ToTable,
			fkColumn:    a.fkColumn(rel.ToColumn, rel.ToTable, rel.FromTable),
		}
	}
	return relEdge{
		parentTable: rel.ToTable,
		parentKey:   a.keyOrPrimary(rel.ToColumn, rel.ToTable),
		fkTable:     rel.FromTable,
		fkColumn:    a.fkColumn(rel.FromColumn, rel.FromTable, rel.ToTable),
	}
}

func (a *AppData) keyOrPrimary(declared, table string) string {
	if declared != "" {
		return declared
	}
	return a.primaryKey(table)
}

// fkColumn picks the foreign-key column on holderTable pointing at
// targetTable. When the blueprint does not declare one, the version's field
// naming convention decides: camelCase "<target>Id" for v3, snake_case
// "<target>_id" otherwise; a candidate actually declared on the holder wins.
func (a *AppData) fkColumn(declared, holderTable, targetTable string) string {
	if declared != "" {
		return declared
	}
	camel := lowerFirst(targetTable) + "Id"
	snake := utils.ToSnakeCase(targetTable) + "_id"

	if holder := a.bp.Table(holderTable); holder != nil {
		for _, candidate := range []string{camel, snake} {
			if holder.Column(candidate) != nil {
				return candidate
			}
		}
	}
	if a.bp.Version >= constants.BlueprintVersionV3 {
		return camel
	}
	return snake
}

func (a *AppData) hydrateParent(ctx context.Context, records []models.Record, include string, edge relEdge) {
	keys := distinctValues(records, edge.fkColumn)
	if len(keys) == 0 {
		return
	}

	parents, _, err := a.svc.store.List(ctx, PhysicalTable(a.app.Slug, edge.parentTable), models.FetchQuery{
		Filters: []models.FilterSpec{{Field: edge.parentKey, Operator: constants.OperatorIn, Value: keys}},
	})
	if err != nil {
		log.Printf("⚠️ Data: include %q hydration failed: %v", include, err)
		return
	}

	byKey := make(map[string]models.Record, len(parents))
	for _, parent := range parents {
		byKey[utils.ToString(parent[edge.parentKey])] = parent
	}
	for _, rec := range records {
		if parent, ok := byKey[utils.ToString(rec[edge.fkColumn])]; ok {
			rec[include] = parent
		}
	}
}

func (a *AppData) hydrateChildren(ctx context.Context, records []models.Record, include string, edge relEdge) {
	keys := distinctValues(records, edge.parentKey)
	if len(keys) == 0 {
		return
	}

	children, _, err := a.svc.store.List(ctx, PhysicalTable(a.app.Slug, edge.fkTable), models.FetchQuery{
		Filters: []models.FilterSpec{{Field: edge.fkColumn, Operator: constants.OperatorIn, Value: keys}},
	})
	if err != nil {
		log.Printf("⚠️ Data: include %q hydration failed: %v", include, err)
		return
	}

	grouped := make(map[string][]models.Record)
	for _, child := range children {
		key := utils.ToString(child[edge.fkColumn])
		grouped[key] = append(grouped[key], child)
	}
	for _, rec := range records {
		group := grouped[utils.ToString(rec[edge.parentKey])]
		if group == nil {
			group = []models.Record{}
		}
		rec[include] = group
	}
}

func distinctValues(records []models.Record, field string) []interface{} {
	seen := make(map[string]struct{}, len(records))
	var out []interface{}
	for _, rec := range records {
		val, ok := rec[field]
		if !ok || val == nil {
			continue
		}
		key := utils.ToString(val)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, val)
	}
	return out
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

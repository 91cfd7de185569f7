package ports

import (
	"context"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

// DataFetcher loads records for a logical entity. Implementations are bound
// to one app and resolve the entity onto its physical table, so renderers
// never see table-routing concerns. Failures surface as a per-block error
// state; a fetch error never fails a whole page render.
type DataFetcher interface {
	// FetchRecords returns one page of rows plus the unpaged total.
	FetchRecords(ctx context.Context, entity string, query models.FetchQuery) (*models.ResultSet, error)
}

// CRUDAdapter mutates records of a logical entity. Bound to one app like
// DataFetcher. Failures surface at the block that invoked them.
type CRUDAdapter interface {
	Create(ctx context.Context, entity string, data models.Record) (models.Record, error)
	Update(ctx context.Context, entity string, id string, data models.Record) (models.Record, error)
	Delete(ctx context.Context, entity string, id string) error
}

package ports

import (
	"context"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

// RecordStore is the physical storage contract for provisioned app tables.
// It speaks physical table names; entity-to-table mapping is the data
// service's concern. Get returns (nil, nil) when the row does not exist so
// callers decide whether absence is an error.
type RecordStore interface {
	// List returns one page of rows and the unpaged total after filters.
	List(ctx context.Context, table string, query models.FetchQuery) ([]models.Record, int, error)
	Get(ctx context.Context, table string, id string) (models.Record, error)
	Insert(ctx context.Context, table string, record models.Record) error
	Update(ctx context.Context, table string, id string, updates models.Record) error
	Delete(ctx context.Context, table string, id string) error
}

package ports

import (
	"context"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

// BlueprintSource supplies the current blueprint for an app. Documents are
// already normalized (version detected, system columns injected) and are
// treated as read-only for the lifetime of a session.
type BlueprintSource interface {
	// GetBlueprint resolves the latest blueprint by app slug.
	GetBlueprint(ctx context.Context, slug string) (*models.Blueprint, error)
}

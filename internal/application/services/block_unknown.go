package services

import (
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
)

// UnknownBlock is the deterministic fallback for unrecognized block types.
// It renders the raw type and block id so the authoring mistake is visible
// on the page instead of failing the whole render.
type UnknownBlock struct{}

func (b *UnknownBlock) Type() constants.BlockType {
	return constants.BlockTypeUnknown
}

func (b *UnknownBlock) Render(in *RenderInput) (map[string]interface{}, error) {
	return map[string]interface{}{
		"rawType": in.Block.Type,
		"blockId": in.Block.ID,
		"message": "unsupported block type",
	}, nil
}

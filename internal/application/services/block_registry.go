package services

import (
	"strings"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/template"
)

// RenderInput carries everything a block renderer needs to produce its
// payload. Records have already been shaped by the data pipeline; Total is
// the adapter-reported count before shaping.
type RenderInput struct {
	Block   models.BlockSpec
	Entity  string
	Records []models.Record
	Total   int
	Table   *models.TableSpec
	Engine  *template.Engine
	Tmpl    *template.Context
}

// BlockRenderer produces the type-specific payload for one block. Renderers
// validate their props at the point of use; a renderer error degrades that
// block, never the page.
type BlockRenderer interface {
	Type() constants.BlockType
	Render(in *RenderInput) (map[string]interface{}, error)
}

// BlockRegistry resolves raw block type strings to renderer implementations.
// It is built once at process start and read-only afterwards; sessions share
// it by reference. Resolve never fails: unrecognized types land on the
// unknown renderer so a single unsupported block cannot take down a page.
type BlockRegistry struct {
	renderers map[constants.BlockType]BlockRenderer
	unknown   BlockRenderer
}

// NewBlockRegistry creates a registry with every built-in block type
// registered.
func NewBlockRegistry() *BlockRegistry {
	r := &BlockRegistry{
		renderers: make(map[constants.BlockType]BlockRenderer),
		unknown:   &UnknownBlock{},
	}

	r.Register(&TableBlock{})
	r.Register(&FormBlock{})
	r.Register(&DetailBlock{})
	r.Register(&StatCardBlock{})
	r.Register(&ChartBlock{})
	r.Register(&KanbanBlock{})
	r.Register(&CalendarBlock{})
	r.Register(&TimelineBlock{})
	r.Register(&ChatBlock{})
	r.Register(&GalleryBlock{})

	return r
}

// Register adds a renderer under its canonical type. Call during process
// startup only; the registry is not synchronized for later mutation.
func (r *BlockRegistry) Register(renderer BlockRenderer) {
	r.renderers[renderer.Type()] = renderer
}

// Canonicalize case-folds a raw type string and collapses known aliases.
// Anything unrecognized maps to the unknown block type.
func (r *BlockRegistry) Canonicalize(rawType string) constants.BlockType {
	folded := strings.ToLower(strings.TrimSpace(rawType))
	if alias, ok := constants.BlockTypeAliases[folded]; ok {
		return alias
	}
	if _, ok := r.renderers[constants.BlockType(folded)]; ok {
		return constants.BlockType(folded)
	}
	return constants.BlockTypeUnknown
}

// Resolve returns the renderer for a raw type string, falling back to the
// unknown renderer. The result is deterministic for any input.
func (r *BlockRegistry) Resolve(rawType string) BlockRenderer {
	canonical := r.Canonicalize(rawType)
	if renderer, ok := r.renderers[canonical]; ok {
		return renderer
	}
	return r.unknown
}

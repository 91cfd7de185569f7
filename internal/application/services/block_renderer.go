package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/brnikita/refine-supabase-apps-builder/internal/domain/ports"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/pipeline"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/template"
)

// BlockRenderService resolves blocks end to end: entity canonicalization,
// data fetch, pipeline projection, visibility gating and renderer dispatch.
// Every failure mode degrades the single block it occurred in; siblings and
// the page itself are never taken down by one bad block.
type BlockRenderService struct {
	registry *BlockRegistry
	pipeline *pipeline.Pipeline
	engine   *template.Engine
}

// RenderContext is the ambient state shared by every block of one render
// pass: the blueprint for schema lookups, the app-bound fetch adapter, and
// the template context derived from the session.
type RenderContext struct {
	Blueprint *models.Blueprint
	Fetcher   ports.DataFetcher
	Template  *template.Context
}

func NewBlockRenderService(registry *BlockRegistry, engine *template.Engine) *BlockRenderService {
	return &BlockRenderService{
		registry: registry,
		pipeline: pipeline.NewPipeline(engine),
		engine:   engine,
	}
}

// RenderBlocks resolves sibling blocks concurrently. The result preserves
// declaration order regardless of fetch completion order; each goroutine
// writes only its own slot.
func (s *BlockRenderService) RenderBlocks(ctx context.Context, rctx *RenderContext, blocks []models.BlockSpec) []*models.RenderedBlock {
	out := make([]*models.RenderedBlock, len(blocks))
	var wg sync.WaitGroup
	for i := range blocks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i] = s.RenderBlock(ctx, rctx, &blocks[i])
		}(i)
	}
	wg.Wait()
	return out
}

// RenderBlock resolves one block:
//  1. canonicalize the entity binding (legacy "table" and newer "entity" keys)
//  2. fetch the record set and project it through the data pipeline
//  3. gate on the visibility rule (an invisible block renders nothing further)
//  4. dispatch to the registered renderer for the block's type
//
// Container blocks render their children recursively; a child failure stays
// inside that child.
func (s *BlockRenderService) RenderBlock(ctx context.Context, rctx *RenderContext, block *models.BlockSpec) *models.RenderedBlock {
	entity := block.DataSource.EntityName()
	rendered := &models.RenderedBlock{
		BlockID: block.ID,
		Type:    string(s.registry.Canonicalize(block.Type)),
		Entity:  entity,
		Visible: true,
	}

	var records []models.Record
	total := 0
	if entity != "" && rctx.Fetcher != nil {
		result, err := rctx.Fetcher.FetchRecords(ctx, entity, models.FetchQuery{
			Include: block.DataSource.Include,
		})
		if err != nil {
			rendered.Errors = append(rendered.Errors, fmt.Sprintf("fetch %s: %v", entity, err))
		} else if result != nil {
			records = result.Data
			total = result.Total
		}
	}

	shaped, warnings := s.pipeline.Apply(records, block.DataSource, rctx.Template)
	rendered.Errors = append(rendered.Errors, warnings...)

	if block.VisibleIf != "" && !s.engine.EvaluateCondition(block.VisibleIf, rctx.Template) {
		return &models.RenderedBlock{
			BlockID: rendered.BlockID,
			Type:    rendered.Type,
			Entity:  entity,
			Visible: false,
		}
	}

	rendered.Data = shaped
	rendered.Total = total

	var table *models.TableSpec
	if rctx.Blueprint != nil && entity != "" {
		table = rctx.Blueprint.Table(entity)
	}

	payload, err := s.registry.Resolve(block.Type).Render(&RenderInput{
		Block:   *block,
		Entity:  entity,
		Records: shaped,
		Total:   total,
		Table:   table,
		Engine:  s.engine,
		Tmpl:    rctx.Template,
	})
	if err != nil {
		rendered.Errors = append(rendered.Errors, err.Error())
	} else {
		rendered.Payload = payload
	}

	if len(block.Children) > 0 {
		rendered.Children = s.RenderBlocks(ctx, rctx, block.Children)
	}

	return rendered
}

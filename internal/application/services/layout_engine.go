package services

import (
	"fmt"
	"strings"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// LayoutEngine partitions a page's blocks into presentation groups. It is
// total: any config, including none at all, yields a usable arrangement, and
// unrecognized layout kinds degrade to single-column stacking.
type LayoutEngine struct{}

// NewLayoutEngine creates a layout engine
func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{}
}

// Arrange computes the arrangement for blocks in declaration order.
// activeTab only matters for tab layouts and is clamped into range; tab
// selection is view-local state, never part of the session.
func (e *LayoutEngine) Arrange(layout *models.LayoutConfig, blockIDs []string, activeTab int) models.ArrangedLayout {
	kind := constants.LayoutSingle
	var config map[string]interface{}
	if layout != nil {
		config = layout.Config
		switch strings.ToLower(layout.Type) {
		case constants.LayoutGrid:
			kind = constants.LayoutGrid
		case constants.LayoutSplit:
			kind = constants.LayoutSplit
		case constants.LayoutTabs:
			kind = constants.LayoutTabs
		}
	}

	switch kind {
	case constants.LayoutGrid:
		return e.arrangeGrid(config, blockIDs)
	case constants.LayoutSplit:
		return e.arrangeSplit(config, blockIDs)
	case constants.LayoutTabs:
		return e.arrangeTabs(config, blockIDs, activeTab)
	default:
		return models.ArrangedLayout{
			Type:   constants.LayoutSingle,
			Groups: []models.LayoutGroup{{BlockIDs: blockIDs}},
		}
	}
}

func (e *LayoutEngine) arrangeGrid(config map[string]interface{}, blockIDs []string) models.ArrangedLayout {
	columns := GetConfigInt(config, "columns", constants.DefaultGridColumns)
	if columns <= 0 {
		columns = constants.DefaultGridColumns
	}
	return models.ArrangedLayout{
		Type:    constants.LayoutGrid,
		Columns: columns,
		Groups:  []models.LayoutGroup{{BlockIDs: blockIDs}},
	}
}

// arrangeSplit partitions by index midpoint: ceil(n/2) blocks in the first
// panel, the rest in the second.
func (e *LayoutEngine) arrangeSplit(config map[string]interface{}, blockIDs []string) models.ArrangedLayout {
	mid := (len(blockIDs) + 1) / 2
	first := blockIDs[:mid]
	second := blockIDs[mid:]

	sizes := []int{constants.DefaultSplitSize, constants.DefaultSplitSize}
	if raw := GetConfigSlice(config, "sizes"); len(raw) == 2 {
		parsed := make([]int, 0, 2)
		for _, v := range raw {
			if f, ok := utils.ToFloat(v); ok && f > 0 {
				parsed = append(parsed, int(f))
			}
		}
		if len(parsed) == 2 {
			sizes = parsed
		}
	}

	direction := GetConfigString(config, "direction")
	if direction != constants.SplitVertical {
		direction = constants.SplitHorizontal
	}

	return models.ArrangedLayout{
		Type:      constants.LayoutSplit,
		Groups:    []models.LayoutGroup{{BlockIDs: first}, {BlockIDs: second}},
		Sizes:     sizes,
		Direction: direction,
	}
}

// arrangeTabs shows exactly one block at a time. Without an explicit tabs
// list, one synthetic tab per block is generated with a positional label.
func (e *LayoutEngine) arrangeTabs(config map[string]interface{}, blockIDs []string, activeTab int) models.ArrangedLayout {
	var tabs []models.TabSpec
	for _, raw := range GetConfigSlice(config, "tabs") {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		tabs = append(tabs, models.TabSpec{
			Label:   GetConfigString(entry, "label"),
			BlockID: GetConfigString(entry, "blockId"),
		})
	}
	if len(tabs) == 0 {
		tabs = make([]models.TabSpec, 0, len(blockIDs))
		for i, id := range blockIDs {
			tabs = append(tabs, models.TabSpec{
				Label:   fmt.Sprintf("Tab %d", i+1),
				BlockID: id,
			})
		}
	}

	if activeTab < 0 || activeTab >= len(tabs) {
		activeTab = 0
	}

	groups := make([]models.LayoutGroup, 0, len(tabs))
	for _, tab := range tabs {
		groups = append(groups, models.LayoutGroup{BlockIDs: []string{tab.BlockID}})
	}

	return models.ArrangedLayout{
		Type:      constants.LayoutTabs,
		Groups:    groups,
		Tabs:      tabs,
		ActiveTab: activeTab,
	}
}

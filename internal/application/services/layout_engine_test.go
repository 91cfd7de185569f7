package services

import (
	"testing"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrangeSingleIsTheDefault(t *testing.T) {
	engine := NewLayoutEngine()
	ids := []string{"a", "b", "c"}

	tests := []struct {
		name   string
		layout *models.LayoutConfig
	}{
		{"nil layout", nil},
		{"explicit single", &models.LayoutConfig{Type: "single"}},
		{"unrecognized kind falls back", &models.LayoutConfig{Type: "masonry"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			arranged := engine.Arrange(tc.layout, ids, 0)
			assert.Equal(t, "single", arranged.Type)
			require.Len(t, arranged.Groups, 1)
			assert.Equal(t, ids, arranged.Groups[0].BlockIDs, "declaration order preserved")
		})
	}
}

func TestArrangeGrid(t *testing.T) {
	engine := NewLayoutEngine()
	ids := []string{"a", "b", "c", "d", "e"}

	arranged := engine.Arrange(&models.LayoutConfig{Type: "grid"}, ids, 0)
	assert.Equal(t, "grid", arranged.Type)
	assert.Equal(t, 4, arranged.Columns, "grid defaults to 4 columns")
	require.Len(t, arranged.Groups, 1)
	assert.Equal(t, ids, arranged.Groups[0].BlockIDs)

	arranged = engine.Arrange(&models.LayoutConfig{
		Type:   "GRID",
		Config: map[string]interface{}{"columns": float64(2)},
	}, ids, 0)
	assert.Equal(t, 2, arranged.Columns, "explicit column count wins, kind is case-folded")

	arranged = engine.Arrange(&models.LayoutConfig{
		Type:   "grid",
		Config: map[string]interface{}{"columns": float64(-3)},
	}, ids, 0)
	assert.Equal(t, 4, arranged.Columns, "nonsense column count falls back to the default")
}

func TestArrangeSplitPartitionsAtIndexMidpoint(t *testing.T) {
	engine := NewLayoutEngine()

	tests := []struct {
		name           string
		ids            []string
		expectedFirst  []string
		expectedSecond []string
	}{
		{"five blocks split 3+2", []string{"a", "b", "c", "d", "e"}, []string{"a", "b", "c"}, []string{"d", "e"}},
		{"four blocks split 2+2", []string{"a", "b", "c", "d"}, []string{"a", "b"}, []string{"c", "d"}},
		{"one block split 1+0", []string{"a"}, []string{"a"}, []string{}},
		{"zero blocks", []string{}, []string{}, []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			arranged := engine.Arrange(&models.LayoutConfig{Type: "split"}, tc.ids, 0)
			assert.Equal(t, "split", arranged.Type)
			require.Len(t, arranged.Groups, 2)
			assert.Equal(t, tc.expectedFirst, arranged.Groups[0].BlockIDs)
			assert.Equal(t, tc.expectedSecond, arranged.Groups[1].BlockIDs)
		})
	}

	t.Logf("✅ split always puts ceil(n/2) blocks in the first panel")
}

func TestArrangeSplitSizesAndDirection(t *testing.T) {
	engine := NewLayoutEngine()
	ids := []string{"a", "b"}

	arranged := engine.Arrange(&models.LayoutConfig{Type: "split"}, ids, 0)
	assert.Equal(t, []int{50, 50}, arranged.Sizes)
	assert.Equal(t, "horizontal", arranged.Direction)

	arranged = engine.Arrange(&models.LayoutConfig{
		Type: "split",
		Config: map[string]interface{}{
			"sizes":     []interface{}{float64(70), float64(30)},
			"direction": "vertical",
		},
	}, ids, 0)
	assert.Equal(t, []int{70, 30}, arranged.Sizes)
	assert.Equal(t, "vertical", arranged.Direction)

	arranged = engine.Arrange(&models.LayoutConfig{
		Type: "split",
		Config: map[string]interface{}{
			"sizes": []interface{}{float64(70), float64(-5)},
		},
	}, ids, 0)
	assert.Equal(t, []int{50, 50}, arranged.Sizes, "invalid sizes fall back to the default")
}

func TestArrangeTabsSynthesizesPositionalTabs(t *testing.T) {
	engine := NewLayoutEngine()
	ids := []string{"a", "b", "c"}

	arranged := engine.Arrange(&models.LayoutConfig{Type: "tabs"}, ids, 1)
	assert.Equal(t, "tabs", arranged.Type)
	require.Len(t, arranged.Tabs, 3)
	assert.Equal(t, "Tab 1", arranged.Tabs[0].Label)
	assert.Equal(t, "Tab 2", arranged.Tabs[1].Label)
	assert.Equal(t, "a", arranged.Tabs[0].BlockID)
	assert.Equal(t, 1, arranged.ActiveTab)

	require.Len(t, arranged.Groups, 3)
	assert.Equal(t, []string{"b"}, arranged.Groups[1].BlockIDs, "one block per tab group")
}

func TestArrangeTabsExplicitList(t *testing.T) {
	engine := NewLayoutEngine()
	ids := []string{"overview", "activity"}

	arranged := engine.Arrange(&models.LayoutConfig{
		Type: "tabs",
		Config: map[string]interface{}{
			"tabs": []interface{}{
				map[string]interface{}{"label": "Overview", "blockId": "overview"},
				map[string]interface{}{"label": "Activity", "blockId": "activity"},
			},
		},
	}, ids, 0)

	require.Len(t, arranged.Tabs, 2)
	assert.Equal(t, "Overview", arranged.Tabs[0].Label)
	assert.Equal(t, "activity", arranged.Tabs[1].BlockID)
}

func TestArrangeTabsClampsActiveTab(t *testing.T) {
	engine := NewLayoutEngine()
	ids := []string{"a", "b"}

	for _, idx := range []int{-1, 2, 99} {
		arranged := engine.Arrange(&models.LayoutConfig{Type: "tabs"}, ids, idx)
		assert.Equal(t, 0, arranged.ActiveTab, "out-of-range tab index %d clamps to 0", idx)
	}
}

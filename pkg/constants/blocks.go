package constants

// BlockType identifies a renderable block implementation
type BlockType string

const (
	BlockTypeTable    BlockType = "table"
	BlockTypeForm     BlockType = "form"
	BlockTypeDetail   BlockType = "detail"
	BlockTypeStatCard BlockType = "stat_card"
	BlockTypeChart    BlockType = "chart"
	BlockTypeKanban   BlockType = "kanban"
	BlockTypeCalendar BlockType = "calendar"
	BlockTypeTimeline BlockType = "timeline"
	BlockTypeChat     BlockType = "chat"
	BlockTypeGallery  BlockType = "gallery"
	BlockTypeUnknown  BlockType = "unknown"
)

// BlockTypeAliases collapses known synonyms onto canonical block types.
// Lookups happen after case-folding, so every key here is lowercase.
var BlockTypeAliases = map[string]BlockType{
	"data-table":   BlockTypeTable,
	"datatable":    BlockTypeTable,
	"list":         BlockTypeTable,
	"board":        BlockTypeKanban,
	"kanban-board": BlockTypeKanban,
	"stat":         BlockTypeStatCard,
	"stat-card":    BlockTypeStatCard,
	"statcard":     BlockTypeStatCard,
	"graph":        BlockTypeChart,
	"images":       BlockTypeGallery,
	"image-grid":   BlockTypeGallery,
}

// GetAllBlockTypes returns every canonical block type as a slice of strings
func GetAllBlockTypes() []string {
	return []string{
		string(BlockTypeTable),
		string(BlockTypeForm),
		string(BlockTypeDetail),
		string(BlockTypeStatCard),
		string(BlockTypeChart),
		string(BlockTypeKanban),
		string(BlockTypeCalendar),
		string(BlockTypeTimeline),
		string(BlockTypeChat),
		string(BlockTypeGallery),
	}
}

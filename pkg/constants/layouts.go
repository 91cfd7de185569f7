package constants

// Layout kinds understood by the layout engine
const (
	LayoutSingle = "single"
	LayoutGrid   = "grid"
	LayoutSplit  = "split"
	LayoutTabs   = "tabs"
)

// Split directions
const (
	SplitHorizontal = "horizontal"
	SplitVertical   = "vertical"
)

// Layout defaults
const (
	DefaultGridColumns = 4
	DefaultSplitSize   = 50
)

// GetAllLayoutKinds returns every recognized layout kind
func GetAllLayoutKinds() []string {
	return []string{LayoutSingle, LayoutGrid, LayoutSplit, LayoutTabs}
}

package models

// UISpec declares the app's navigation, pages and modals
type UISpec struct {
	Navigation []NavItem   `json:"navigation,omitempty"`
	Pages      []PageSpec  `json:"pages"`
	Modals     []ModalSpec `json:"modals,omitempty"`
}

// NavItem is one navigation entry
type NavItem struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Icon     string    `json:"icon,omitempty"`
	Route    string    `json:"route,omitempty"`
	Children []NavItem `json:"children,omitempty"`
}

// PageSpec describes one routable page
type PageSpec struct {
	ID        string                 `json:"id"`
	Route     string                 `json:"route"`
	Title     string                 `json:"title"`
	Icon      string                 `json:"icon,omitempty"`
	Layout    *LayoutConfig          `json:"layout,omitempty"`
	Blocks    []BlockSpec            `json:"blocks"`
	Variables map[string]interface{} `json:"variables,omitempty"` // page-scoped variable defaults
}

// ModalSpec is like a page but has no route; addressed only by id
type ModalSpec struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Size   string        `json:"size,omitempty"` // small | medium | large
	Layout *LayoutConfig `json:"layout,omitempty"`
	Blocks []BlockSpec   `json:"blocks"`
}

// LayoutConfig selects how a page's blocks are arranged
type LayoutConfig struct {
	Type   string                 `json:"type"`
	Config map[string]interface{} `json:"config,omitempty"`
}

// BlockSpec is one renderable, independently data-bound UI unit
type BlockSpec struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	DataSource *DataSourceSpec        `json:"dataSource,omitempty"`
	Props      map[string]interface{} `json:"props,omitempty"`
	Actions    []ActionConfig         `json:"actions,omitempty"`
	VisibleIf  string                 `json:"visibleIf,omitempty"`
	Children   []BlockSpec            `json:"children,omitempty"`
}

// DataSourceSpec binds a block to an entity plus filter/order/limit/include parameters.
// Legacy blueprints bind with "table", newer ones with "entity"; EntityName canonicalizes.
type DataSourceSpec struct {
	Table    string       `json:"table,omitempty"`
	Entity   string       `json:"entity,omitempty"`
	Filters  []FilterSpec `json:"filters,omitempty"`
	OrderBy  []OrderSpec  `json:"orderBy,omitempty"`
	Limit    int          `json:"limit,omitempty"`
	Include  []string     `json:"include,omitempty"`
	Realtime bool         `json:"realtime,omitempty"`
}

// EntityName canonicalizes the legacy table key and the newer entity key
func (d *DataSourceSpec) EntityName() string {
	if d == nil {
		return ""
	}
	if d.Entity != "" {
		return d.Entity
	}
	return d.Table
}

// FilterSpec is one predicate; the value may itself be a template string
type FilterSpec struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value,omitempty"`
}

// OrderSpec is one sort key
type OrderSpec struct {
	Field     string `json:"field"`
	Direction string `json:"direction,omitempty"` // asc | desc, default asc
}

// ActionConfig binds a block trigger to a symbolic action
type ActionConfig struct {
	Trigger string                 `json:"trigger"`
	Action  string                 `json:"action"`
	Config  map[string]interface{} `json:"config,omitempty"`
}

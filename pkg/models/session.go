package models

import "time"

// SessionState is the mutable UI state of one live session. It is created at
// session start, mutated exclusively by the action router, and discarded at
// session end; it is never partially persisted.
type SessionState struct {
	ID             string                 `json:"id"`
	AppSlug        string                 `json:"appSlug"`
	ActivePageID   string                 `json:"activePageId"`
	ActiveModalID  string                 `json:"activeModalId,omitempty"`
	SelectedRecord Record                 `json:"selectedRecord,omitempty"`
	PageVariables  map[string]interface{} `json:"pageVariables"`
	RouteParams    map[string]string      `json:"routeParams,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	LastSeenAt     time.Time              `json:"lastSeenAt"`
}

// Clone returns a deep-enough copy for handing out without exposing the
// session's own mutable maps
func (s *SessionState) Clone() *SessionState {
	out := *s
	out.PageVariables = make(map[string]interface{}, len(s.PageVariables))
	for k, v := range s.PageVariables {
		out.PageVariables[k] = v
	}
	if s.RouteParams != nil {
		out.RouteParams = make(map[string]string, len(s.RouteParams))
		for k, v := range s.RouteParams {
			out.RouteParams[k] = v
		}
	}
	if s.SelectedRecord != nil {
		out.SelectedRecord = s.SelectedRecord.Clone()
	}
	return &out
}

// ActionRequest is a symbolic action dispatched from a block (or raw from the client)
type ActionRequest struct {
	BlockID string                 `json:"blockId,omitempty"`
	Trigger string                 `json:"trigger,omitempty"`
	Action  string                 `json:"action,omitempty"`
	Config  map[string]interface{} `json:"config,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// RenderedPage is the engine's output for one page or modal derivation
type RenderedPage struct {
	PageID string           `json:"pageId"`
	Title  string           `json:"title"`
	Layout *ArrangedLayout  `json:"layout"`
	Blocks []*RenderedBlock `json:"blocks"`
	Modal  *RenderedModal   `json:"modal,omitempty"`
}

// RenderedModal is the active modal's rendered content, if one is open
type RenderedModal struct {
	ModalID string           `json:"modalId"`
	Title   string           `json:"title"`
	Size    string           `json:"size,omitempty"`
	Layout  *ArrangedLayout  `json:"layout"`
	Blocks  []*RenderedBlock `json:"blocks"`
}

// RenderedBlock is one block's resolved output: its records, its presentation
// payload and any block-scoped errors. A failed block degrades alone; siblings
// are unaffected.
type RenderedBlock struct {
	BlockID  string                 `json:"blockId"`
	Type     string                 `json:"type"`
	Entity   string                 `json:"entity,omitempty"`
	Visible  bool                   `json:"visible"`
	Data     []Record               `json:"data,omitempty"`
	Total    int                    `json:"total,omitempty"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
	Errors   []string               `json:"errors,omitempty"`
	Children []*RenderedBlock       `json:"children,omitempty"`
}

// ArrangedLayout is the layout engine's positioned collection
type ArrangedLayout struct {
	Type      string        `json:"type"`
	Groups    []LayoutGroup `json:"groups"`
	Tabs      []TabSpec     `json:"tabs,omitempty"`
	ActiveTab int           `json:"activeTab,omitempty"`
	Columns   int           `json:"columns,omitempty"`
	Sizes     []int         `json:"sizes,omitempty"`
	Direction string        `json:"direction,omitempty"`
}

// LayoutGroup is one ordered cell/panel of block ids
type LayoutGroup struct {
	BlockIDs []string `json:"blockIds"`
}

// TabSpec labels one tab in a tabs layout
type TabSpec struct {
	Label   string `json:"label"`
	BlockID string `json:"blockId"`
}

package models

import (
	"encoding/json"
	"strings"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
)

// ColumnType is defined in pkg/constants
type ColumnType = constants.ColumnType

// Blueprint is the versioned root document describing an application.
// It is immutable for the duration of a session; a new version replaces it wholesale.
type Blueprint struct {
	Version  int          `json:"version"`
	App      AppInfo      `json:"app"`
	Data     DataSpec     `json:"data"`
	Security SecuritySpec `json:"security"`
	UI       UISpec       `json:"ui"`
}

// AppInfo carries application identity and theming
type AppInfo struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	Theme       *ThemeSpec `json:"theme,omitempty"`
}

// ThemeSpec is a presentation hint only; the engine passes it through untouched
type ThemeSpec struct {
	PrimaryColor string `json:"primaryColor,omitempty"`
	Mode         string `json:"mode,omitempty"` // light | dark
}

// DataSpec declares the app's tables and relationships
type DataSpec struct {
	Tables        []TableSpec        `json:"tables"`
	Relationships []RelationshipSpec `json:"relationships,omitempty"`
}

// TableSpec describes one table's schema. Consumed to validate field references
// and to provision storage; the pipeline never enforces storage constraints.
type TableSpec struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"displayName,omitempty"`
	PrimaryKey  string       `json:"primaryKey,omitempty"`
	Columns     []ColumnSpec `json:"columns"`
}

// Column returns the column spec by name, or nil
func (t *TableSpec) Column(name string) *ColumnSpec {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// ColumnSpec describes one column
type ColumnSpec struct {
	Name     string      `json:"name"`
	Type     ColumnType  `json:"type"`
	Required bool        `json:"required,omitempty"`
	Default  interface{} `json:"default,omitempty"`
	Unique   bool        `json:"unique,omitempty"`
	Indexed  bool        `json:"indexed,omitempty"`
}

// RelationshipSpec links two declared tables
type RelationshipSpec struct {
	Name              string `json:"name,omitempty"`
	Type              string `json:"type"` // many_to_one | one_to_many
	FromTable         string `json:"fromTable"`
	FromColumn        string `json:"fromColumn,omitempty"`
	ToTable           string `json:"toTable"`
	ToColumn          string `json:"toColumn,omitempty"`
	LookupLabelColumn string `json:"lookupLabelColumn,omitempty"`
}

// SecuritySpec declares roles and their grants. Row filters are merged into
// every fetch by the data adapter; permission rules gate the data surface.
type SecuritySpec struct {
	Roles       []RoleSpec       `json:"roles,omitempty"`
	Permissions []PermissionRule `json:"permissions,omitempty"`
	RowFilters  []RowFilterRule  `json:"rowFilters,omitempty"`
}

// Allows reports whether role may perform action on entity. A role with no
// matching rule is unrestricted; once a rule names the role and entity, only
// the actions it grants pass.
func (s *SecuritySpec) Allows(role, entity, action string) bool {
	matched := false
	for i := range s.Permissions {
		rule := &s.Permissions[i]
		if !strings.EqualFold(rule.Role, role) || rule.EntityName() != entity {
			continue
		}
		matched = true
		if rule.Actions[action] {
			return true
		}
	}
	return !matched
}

// RoleSpec names a role. Version 1/2 blueprints carry bare strings,
// version 3 carries objects; both decode into this struct.
type RoleSpec struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
}

// UnmarshalJSON accepts both the legacy string form and the object form
func (r *RoleSpec) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Name = s
		return nil
	}
	type alias RoleSpec
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = RoleSpec(a)
	return nil
}

// PermissionRule grants a role a set of actions on one entity.
// Legacy blueprints name the target "resource", newer ones "entity".
type PermissionRule struct {
	Role     string          `json:"role"`
	Resource string          `json:"resource,omitempty"`
	Entity   string          `json:"entity,omitempty"`
	Actions  map[string]bool `json:"actions"`
}

// EntityName canonicalizes the legacy resource key and the newer entity key
func (p *PermissionRule) EntityName() string {
	if p.Entity != "" {
		return p.Entity
	}
	return p.Resource
}

// RowFilterRule restricts the rows a role may see on one entity
type RowFilterRule struct {
	Role     string                 `json:"role"`
	Resource string                 `json:"resource,omitempty"`
	Entity   string                 `json:"entity,omitempty"`
	Filter   map[string]interface{} `json:"filter,omitempty"`
}

// EntityName canonicalizes the legacy resource key and the newer entity key
func (r *RowFilterRule) EntityName() string {
	if r.Entity != "" {
		return r.Entity
	}
	return r.Resource
}

// Table returns the table spec by name, or nil
func (b *Blueprint) Table(name string) *TableSpec {
	for i := range b.Data.Tables {
		if b.Data.Tables[i].Name == name {
			return &b.Data.Tables[i]
		}
	}
	return nil
}

// Page returns the page spec by id, or nil
func (b *Blueprint) Page(id string) *PageSpec {
	for i := range b.UI.Pages {
		if b.UI.Pages[i].ID == id {
			return &b.UI.Pages[i]
		}
	}
	return nil
}

// PageByRoute returns the page whose route or id matches, or nil
func (b *Blueprint) PageByRoute(route string) *PageSpec {
	for i := range b.UI.Pages {
		if b.UI.Pages[i].Route == route || b.UI.Pages[i].ID == route {
			return &b.UI.Pages[i]
		}
	}
	return nil
}

// Modal returns the modal spec by id, or nil
func (b *Blueprint) Modal(id string) *ModalSpec {
	for i := range b.UI.Modals {
		if b.UI.Modals[i].ID == id {
			return &b.UI.Modals[i]
		}
	}
	return nil
}

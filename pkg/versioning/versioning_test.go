package versioning

import (
	"encoding/json"
	"testing"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectVersion(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want int
	}{
		{"explicit version wins", `{"version": 2, "ui": {"resources": [{}]}}`, 2},
		{"resources shape is v1", `{"ui": {"resources": [{"name": "tasks"}]}}`, 1},
		{"table binding is v2", `{"ui": {"pages": [{"blocks": [{"dataSource": {"table": "tasks"}}]}]}}`, 2},
		{"entity binding is v3", `{"ui": {"pages": [{"blocks": [{"dataSource": {"entity": "Task"}}]}]}}`, 3},
		{"bare document defaults to v3", `{"ui": {"pages": []}}`, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &raw))
			assert.Equal(t, tt.want, DetectVersion(raw))
			t.Logf("✅ detected v%d", tt.want)
		})
	}
}

func TestNormalizeV3InjectsCamelCaseSystemColumns(t *testing.T) {
	doc := `{
		"version": 3,
		"app": {"name": "Tasks", "slug": "tasks"},
		"data": {"tables": [{"name": "Task", "columns": [{"name": "title", "type": "text"}]}]},
		"security": {"roles": [{"name": "admin", "displayName": "Admin"}]},
		"ui": {"pages": [{"id": "home", "route": "/", "blocks": []}]}
	}`

	bp, err := Normalize([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 3, bp.Version)

	table := bp.Data.Tables[0]
	names := columnNames(table)
	assert.Equal(t, []string{"id", "createdAt", "updatedAt", "title"}, names)
	assert.NotContains(t, names, "created_by", "v3 has no author column")
	t.Log("✅ v3 system columns injected ahead of user columns")
}

func TestNormalizeV2InjectsSnakeCaseSystemColumns(t *testing.T) {
	doc := `{
		"version": 2,
		"app": {"name": "Tasks", "slug": "tasks"},
		"data": {"tables": [{"name": "tasks", "columns": [{"name": "title", "type": "text"}]}]},
		"security": {"roles": ["Admin"]},
		"ui": {"pages": [{"id": "home", "route": "/", "blocks": [{"id": "b1", "type": "TABLE", "dataSource": {"table": "tasks"}}]}]}
	}`

	bp, err := Normalize([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, bp.Version)
	assert.Equal(t, []string{"id", "created_at", "updated_at", "created_by", "title"}, columnNames(bp.Data.Tables[0]))

	require.Len(t, bp.Security.Roles, 1)
	assert.Equal(t, "Admin", bp.Security.Roles[0].Name, "string roles parse into role objects")
}

func TestNormalizeRejectsMalformedJSON(t *testing.T) {
	_, err := Normalize([]byte("{not json"))
	assert.Error(t, err)
}

func TestInjectSystemColumnsIsIdempotent(t *testing.T) {
	bp := &models.Blueprint{
		Version: 3,
		Data: models.DataSpec{Tables: []models.TableSpec{{
			Name: "Task",
			Columns: []models.ColumnSpec{
				{Name: "id", Type: constants.ColumnTypeUUID},
				{Name: "title", Type: constants.ColumnTypeText},
			},
		}}},
	}

	InjectSystemColumns(bp)
	InjectSystemColumns(bp)

	assert.Equal(t, []string{"createdAt", "updatedAt", "id", "title"}, columnNames(bp.Data.Tables[0]))
	t.Log("✅ declared columns are never duplicated")
}

func TestNormalizeV1SynthesizesPagesAndModals(t *testing.T) {
	doc := `{
		"app": {"name": "Projects", "slug": "projects"},
		"data": {"tables": [{"name": "projects", "columns": [{"name": "title", "type": "text"}, {"name": "status", "type": "text"}]}]},
		"security": {"roles": ["Admin"], "permissions": []},
		"ui": {
			"navigation": [{"name": "projects", "label": "Projects", "route": "/projects"}],
			"resources": [{
				"name": "projects",
				"table": "projects",
				"label": "Projects",
				"views": {"list": true, "create": true, "edit": true, "show": true},
				"list": {"columns": ["title", "status"]},
				"forms": {"createFields": [{"name": "title", "widget": "text"}, {"name": "status", "widget": "select", "options": ["open", "done"]}]}
			}]
		}
	}`

	bp, err := Normalize([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, bp.Version)

	require.Len(t, bp.UI.Pages, 1)
	page := bp.UI.Pages[0]
	assert.Equal(t, "projects-list", page.ID)
	assert.Equal(t, "/projects", page.Route)
	require.Len(t, page.Blocks, 1)

	block := page.Blocks[0]
	assert.Equal(t, "table", block.Type)
	assert.Equal(t, "projects", block.DataSource.Table)

	require.Len(t, bp.UI.Modals, 2)
	assert.Equal(t, "projects-detail", bp.UI.Modals[0].ID)
	assert.Equal(t, "detail", bp.UI.Modals[0].Blocks[0].Type)
	assert.Equal(t, "projects-create", bp.UI.Modals[1].ID)
	assert.Equal(t, "form", bp.UI.Modals[1].Blocks[0].Type)

	require.Len(t, block.Actions, 2)
	assert.Equal(t, "rowClick", block.Actions[0].Trigger)
	assert.Equal(t, "projects-detail", block.Actions[0].Config["modal"])
	assert.Equal(t, "createClick", block.Actions[1].Trigger)
	t.Log("✅ v1 resources become a table page with detail and create modals")
}

func columnNames(table models.TableSpec) []string {
	names := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		names = append(names, c.Name)
	}
	return names
}

package bootstrap

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/brnikita/refine-supabase-apps-builder/internal/application/services"
	apperrors "github.com/brnikita/refine-supabase-apps-builder/pkg/errors"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

//go:embed demo_blueprint.json
var demoBlueprintJSON []byte

// seedIdentity stamps the demo rows. Role admin so no permission rule can
// reject the seed writes.
var seedIdentity = models.UserSession{ID: "seed", Name: "Demo Seeder", Role: "admin"}

// InitializeDemoApp ensures the Task Tracker demo app exists, is RUNNING and
// holds a small seed dataset. Safe to call on every startup: the app is only
// created once, start is skipped when it already runs, and rows are only
// seeded into an empty table.
func InitializeDemoApp(ctx context.Context, svc *services.ServiceManager) error {
	log.Println("🔧 Initializing demo app...")

	var doc struct {
		App struct {
			Name        string `json:"name"`
			Slug        string `json:"slug"`
			Description string `json:"description"`
		} `json:"app"`
	}
	if err := json.Unmarshal(demoBlueprintJSON, &doc); err != nil {
		return fmt.Errorf("failed to parse demo_blueprint.json: %w", err)
	}
	slug := doc.App.Slug

	app, err := svc.Apps.CreateApp(ctx, &services.CreateAppRequest{
		Name:        doc.App.Name,
		Slug:        slug,
		Description: doc.App.Description,
		Blueprint:   demoBlueprintJSON,
	})
	switch {
	case err == nil:
		log.Printf("   ✅ %s app created", slug)
	case apperrors.IsConflict(err):
		log.Printf("   🔄 %s app already exists", slug)
		if app, err = svc.Apps.GetAppBySlug(ctx, slug); err != nil {
			return fmt.Errorf("failed to load existing demo app: %w", err)
		}
	default:
		return fmt.Errorf("failed to create demo app: %w", err)
	}

	if _, err := svc.Apps.StartApp(ctx, app.ID); err != nil {
		if !apperrors.IsTransition(err) {
			return fmt.Errorf("failed to start demo app: %w", err)
		}
		log.Printf("   ✅ %s app already running", slug)
	} else {
		log.Printf("   ✅ %s app started", slug)
	}

	runtimeApp, bp, err := svc.Apps.RuntimeBinding(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to bind demo app runtime: %w", err)
	}
	return seedDemoRecords(ctx, svc.Data.ForApp(runtimeApp, bp, seedIdentity))
}

// seedDemoRecords inserts members, tasks and comments through the data
// adapter so ids, timestamps and change events apply exactly as they would
// for API writes. A non-empty tasks table means a previous run (or a user)
// already owns the data.
func seedDemoRecords(ctx context.Context, data *services.AppData) error {
	existing, err := data.FetchRecords(ctx, "tasks", models.FetchQuery{PageSize: 1})
	if err != nil {
		return fmt.Errorf("failed to probe demo tasks: %w", err)
	}
	if existing.Total > 0 {
		log.Printf("   ✅ Demo data already seeded (%d tasks)", existing.Total)
		return nil
	}

	memberIDs := make([]string, 0, 3)
	for _, m := range []models.Record{
		{"name": "Ada Park", "role": "Engineering", "avatar": "https://i.pravatar.cc/150?u=ada"},
		{"name": "Boris Chen", "role": "Design", "avatar": "https://i.pravatar.cc/150?u=boris"},
		{"name": "Carla Reyes", "role": "Product", "avatar": "https://i.pravatar.cc/150?u=carla"},
	} {
		rec, err := data.Create(ctx, "members", m)
		if err != nil {
			return fmt.Errorf("failed to seed member: %w", err)
		}
		memberIDs = append(memberIDs, fmt.Sprintf("%v", rec["id"]))
	}

	now := time.Now().UTC()
	due := func(days int) string { return now.AddDate(0, 0, days).Format(time.RFC3339) }
	tasks := []models.Record{
		{
			"title": "Ship onboarding flow", "status": "in_progress", "priority": 1,
			"dueDate": due(2), "assigneeId": memberIDs[0],
			"coverImage": "https://picsum.photos/seed/onboarding/640/360",
		},
		{
			"title": "Fix calendar drag offset", "status": "todo", "priority": 2,
			"dueDate": due(5), "assigneeId": memberIDs[1],
		},
		{
			"title": "Write release notes", "status": "done", "priority": 3,
			"dueDate": due(-1), "assigneeId": memberIDs[2],
			"coverImage": "https://picsum.photos/seed/release/640/360",
		},
		{
			"title": "Audit board permissions", "status": "todo", "priority": 1,
			"dueDate": due(7), "assigneeId": memberIDs[0],
		},
		// Deliberately unset status: grouping and ordering must tolerate it.
		{"title": "Triage inbox", "status": nil, "priority": 4},
	}
	taskIDs := make([]string, 0, len(tasks))
	for _, t := range tasks {
		rec, err := data.Create(ctx, "tasks", t)
		if err != nil {
			return fmt.Errorf("failed to seed task: %w", err)
		}
		taskIDs = append(taskIDs, fmt.Sprintf("%v", rec["id"]))
	}

	for _, c := range []models.Record{
		{"taskId": taskIDs[0], "author": "Ada Park", "body": "Design handoff is in Figma, link on the ticket."},
		{"taskId": taskIDs[0], "author": "Boris Chen", "body": "Copy review done, ready for build."},
		{"taskId": taskIDs[1], "author": "Carla Reyes", "body": "Repros on Safari only, video attached."},
	} {
		if _, err := data.Create(ctx, "comments", c); err != nil {
			return fmt.Errorf("failed to seed comment: %w", err)
		}
	}

	log.Printf("   ✅ Seeded %d members, %d tasks, 3 comments", len(memberIDs), len(taskIDs))
	return nil
}

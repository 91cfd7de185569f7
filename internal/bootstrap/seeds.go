package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brnikita/refine-supabase-apps-builder/internal/application/services"
	apperrors "github.com/brnikita/refine-supabase-apps-builder/pkg/errors"
)

// LoadBlueprintDir registers and starts every blueprint document found in
// dir (*.json, *.yaml, *.yml). Apps whose slug is already registered are
// left untouched, so the directory can stay mounted across restarts.
func LoadBlueprintDir(ctx context.Context, svc *services.ServiceManager, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("   ⚠️  Blueprint seed directory %s not found (skipping)", dir)
			return nil
		}
		return fmt.Errorf("failed to read blueprint dir %s: %w", dir, err)
	}

	log.Printf("🔧 Loading blueprints from %s...", dir)
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		raw, err := blueprintBytes(path, ext)
		if err != nil {
			log.Printf("   ⚠️  Skipping %s: %v", entry.Name(), err)
			continue
		}
		if err := registerAndStart(ctx, svc, entry.Name(), raw); err != nil {
			log.Printf("   ⚠️  Skipping %s: %v", entry.Name(), err)
			continue
		}
		loaded++
	}
	log.Printf("   ✅ Loaded %d blueprint(s)", loaded)
	return nil
}

// blueprintBytes reads a seed file and returns it as JSON. YAML documents
// are decoded and re-encoded; yaml.v3 produces string-keyed maps so the
// round trip is lossless for blueprint shapes.
func blueprintBytes(path, ext string) (json.RawMessage, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if ext == ".json" {
		return content, nil
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return json.Marshal(doc)
}

func registerAndStart(ctx context.Context, svc *services.ServiceManager, name string, raw json.RawMessage) error {
	var doc struct {
		App struct {
			Name        string `json:"name"`
			Slug        string `json:"slug"`
			Description string `json:"description"`
		} `json:"app"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid blueprint JSON: %w", err)
	}

	app, err := svc.Apps.CreateApp(ctx, &services.CreateAppRequest{
		Name:        doc.App.Name,
		Slug:        doc.App.Slug,
		Description: doc.App.Description,
		Blueprint:   raw,
	})
	if apperrors.IsConflict(err) {
		log.Printf("   🔄 %s: slug %s already registered", name, doc.App.Slug)
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := svc.Apps.StartApp(ctx, app.ID); err != nil {
		return fmt.Errorf("registered but failed to start: %w", err)
	}
	log.Printf("   ✅ %s → %s running", name, app.Slug)
	return nil
}

package models

import (
	"time"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
)

// AppStatus is defined in pkg/constants
type AppStatus = constants.AppStatus

// App is one registered application row
type App struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Slug             string        `json:"slug"`
	Description      string        `json:"description,omitempty"`
	Status           AppStatus     `json:"status"`
	CurrentVersion   int           `json:"current_version"`
	RuntimeConfig    RuntimeConfig `json:"runtime_config"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	LastStatusReason string        `json:"last_status_reason,omitempty"`
}

// RuntimeConfig tells clients where a running app's data lives
type RuntimeConfig struct {
	DBSchema string `json:"db_schema"`
	BasePath string `json:"base_path"`
}

// BlueprintRecord is one stored blueprint version for an app
type BlueprintRecord struct {
	ID            string     `json:"id"`
	AppID         string     `json:"app_id"`
	Version       int        `json:"version"`
	Blueprint     *Blueprint `json:"blueprint"`
	BlueprintHash string     `json:"blueprint_hash"`
	CreatedAt     time.Time  `json:"created_at"`
}

// RuntimeAppResponse is the payload served to runtime clients resolving an app by slug
type RuntimeAppResponse struct {
	Status        AppStatus     `json:"status"`
	App           AppSummary    `json:"app"`
	RuntimeConfig RuntimeConfig `json:"runtime_config"`
	Blueprint     *Blueprint    `json:"blueprint"`
}

// AppSummary is the minimal app identity block in runtime responses
type AppSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

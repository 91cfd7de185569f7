package events

import (
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

// EventType defines the type of event in the system
type EventType string

const (
	// Record Events
	RecordCreated EventType = "record.created"
	RecordUpdated EventType = "record.updated"
	RecordDeleted EventType = "record.deleted"

	// App lifecycle events
	AppStarted EventType = "app.started"
	AppStopped EventType = "app.stopped"
	AppDeleted EventType = "app.deleted"
	AppFailed  EventType = "app.failed"
)

// String returns the string representation of the event type
func (e EventType) String() string {
	return string(e)
}

// RecordEvent is the payload for record.* events. Sessions holding a
// realtime-bound block on the same app and entity refresh from it.
type RecordEvent struct {
	AppSlug  string
	Entity   string
	RecordID string
	Record   models.Record // nil for deletions
}

// AppEvent is the payload for app.* events
type AppEvent struct {
	AppID  string
	Slug   string
	Status constants.AppStatus
	Reason string
}

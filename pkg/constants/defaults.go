package constants

// Default values for runtime operations
const (
	DefaultUserName = "Anonymous"
	SystemUserName  = "System" // Used when operations are performed without a user context

	// Session lifecycle
	DefaultSessionTTLMinutes = 60
	JanitorSchedule          = "*/5 * * * *" // sweep idle sessions every five minutes

	// Storage
	AppTablePrefix  = "app_" // per-app record tables are named app_<slug>__<table>
	TableApps       = "_system_apps"
	TableBlueprints = "_system_blueprints"
)

package constants

// Configuration keys for action configs
const (
	ConfigRoute  = "route"
	ConfigModal  = "modal"
	ConfigName   = "name"
	ConfigValue  = "value"
	ConfigEntity = "entity"
)

// Context keys
const (
	ContextKeyUser  = "user"
	ContextKeyToken = "token"

	// Action context key carrying the record a block trigger refers to
	ContextKeySelectedRecord = "selectedRecord"

	// Action context keys for data-bearing triggers (submit, dragDrop)
	ContextKeyValues   = "values"
	ContextKeyRecordID = "recordId"
	ContextKeyValue    = "value"
)

// Data source keys - legacy blueprints bind blocks with "table", newer ones with "entity"
const (
	DataSourceKeyTable  = "table"
	DataSourceKeyEntity = "entity"
)

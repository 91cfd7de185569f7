package constants

// AppStatus represents the lifecycle state of an application
type AppStatus string

const (
	AppStatusDraft    AppStatus = "DRAFT"
	AppStatusRunning  AppStatus = "RUNNING"
	AppStatusStopped  AppStatus = "STOPPED"
	AppStatusError    AppStatus = "ERROR"
	AppStatusDeleting AppStatus = "DELETING"
)

// Blueprint schema versions
const (
	BlueprintVersionV1 = 1
	BlueprintVersionV2 = 2
	BlueprintVersionV3 = 3
)

package constants

// HTTP and API constants
const (
	// Content types
	ContentTypeJSON = "application/json"

	// HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	// Auth
	BearerPrefix = "Bearer "

	// Response Keys
	ResponseError   = "error"
	ResponseSuccess = "success"
	ResponseData    = "data"
	ResponseItems   = "items"
	ResponseTotal   = "total"

	FieldMessage = "message"
)

// Query parameter constants
const (
	ParamPage     = "page"
	ParamPageSize = "pageSize"
	ParamSort     = "sort"
	ParamOrder    = "order"
	ParamTab      = "tab"

	// Pagination defaults
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Websocket message types
const (
	WSTypeSessionState   = "session_state"
	WSTypePageRendered   = "page_rendered"
	WSTypeBlockRefreshed = "block_refreshed"
	WSTypeAction         = "action"
	WSTypeNavigate       = "navigate"
	WSTypePing           = "ping"
	WSTypePong           = "pong"
	WSTypeError          = "error"
	WSTypeSystem         = "system"
)

package constants

// Symbolic UI action names routed by the action router - single source of truth
const (
	ActionNavigate    = "navigate"
	ActionOpenModal   = "openModal"
	ActionCloseModal  = "closeModal"
	ActionSetVariable = "setVariable"
	ActionView        = "view"
	ActionEdit        = "edit"
	ActionCardClick   = "cardClick"
	ActionCreate      = "create"
	ActionCreateClick = "createClick"
	ActionSubmit      = "submit"
	ActionCancel      = "cancel"
)

// Block trigger names emitted by block implementations
const (
	TriggerRowClick    = "rowClick"
	TriggerCardClick   = "cardClick"
	TriggerItemClick   = "itemClick"
	TriggerEventClick  = "eventClick"
	TriggerImageClick  = "imageClick"
	TriggerCreateClick = "createClick"
	TriggerSubmit      = "submit"
	TriggerCancel      = "cancel"
	TriggerReply       = "reply"
	TriggerDragDrop    = "dragDrop"
)

// Modal id fragments used by record-centric actions to locate a target modal
const (
	ModalHintDetail = "detail"
	ModalHintEdit   = "edit"
	ModalHintCreate = "create"
	ModalHintNew    = "new"
)

// Data-surface actions checked against blueprint permission rules
const (
	PermActionList   = "list"
	PermActionRead   = "read"
	PermActionCreate = "create"
	PermActionUpdate = "update"
	PermActionDelete = "delete"
)

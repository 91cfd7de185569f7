package constants

// ColumnType represents the primitive type of a blueprint column
type ColumnType string

const (
	ColumnTypeUUID        ColumnType = "uuid"
	ColumnTypeText        ColumnType = "text"
	ColumnTypeInt         ColumnType = "int"
	ColumnTypeFloat       ColumnType = "float"
	ColumnTypeBool        ColumnType = "bool"
	ColumnTypeDate        ColumnType = "date"
	ColumnTypeTimestampTZ ColumnType = "timestamptz"
	ColumnTypeJSONB       ColumnType = "jsonb"
)

// GetAllColumnTypes returns all valid column types as a slice of strings
func GetAllColumnTypes() []string {
	return []string{
		string(ColumnTypeUUID),
		string(ColumnTypeText),
		string(ColumnTypeInt),
		string(ColumnTypeFloat),
		string(ColumnTypeBool),
		string(ColumnTypeDate),
		string(ColumnTypeTimestampTZ),
		string(ColumnTypeJSONB),
	}
}

// IsValidColumnType reports whether t is a recognized column type
func IsValidColumnType(t string) bool {
	switch ColumnType(t) {
	case ColumnTypeUUID, ColumnTypeText, ColumnTypeInt, ColumnTypeFloat,
		ColumnTypeBool, ColumnTypeDate, ColumnTypeTimestampTZ, ColumnTypeJSONB:
		return true
	}
	return false
}

// System column names appended to every table at blueprint load time.
// Version 2 blueprints use snake_case and carry created_by; version 3 uses camelCase.
const (
	FieldID = "id"

	SystemColCreatedAtV2 = "created_at"
	SystemColUpdatedAtV2 = "updated_at"
	SystemColCreatedByV2 = "created_by"

	SystemColCreatedAtV3 = "createdAt"
	SystemColUpdatedAtV3 = "updatedAt"
)

// Relationship types between declared tables
const (
	RelManyToOne = "many_to_one"
	RelOneToMany = "one_to_many"
)

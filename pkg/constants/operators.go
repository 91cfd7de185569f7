package constants

// Filter operators - the closed set accepted by data source specs
const (
	OperatorEq        = "eq"
	OperatorNeq       = "neq"
	OperatorGt        = "gt"
	OperatorGte       = "gte"
	OperatorLt        = "lt"
	OperatorLte       = "lte"
	OperatorLike      = "like"
	OperatorIn        = "in"
	OperatorIsNull    = "is_null"
	OperatorIsNotNull = "is_not_null"
)

// GetAllOperators returns every valid filter operator
func GetAllOperators() []string {
	return []string{
		OperatorEq,
		OperatorNeq,
		OperatorGt,
		OperatorGte,
		OperatorLt,
		OperatorLte,
		OperatorLike,
		OperatorIn,
		OperatorIsNull,
		OperatorIsNotNull,
	}
}

// IsValidOperator reports whether op belongs to the closed operator set
func IsValidOperator(op string) bool {
	switch op {
	case OperatorEq, OperatorNeq, OperatorGt, OperatorGte, OperatorLt, OperatorLte,
		OperatorLike, OperatorIn, OperatorIsNull, OperatorIsNotNull:
		return true
	}
	return false
}

// Sort directions
const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

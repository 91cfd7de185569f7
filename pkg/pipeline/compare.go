package pipeline

import (
	"strings"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// compareValues orders two non-nil values deterministically:
//  1. both coerce to a number -> numeric comparison
//  2. both are booleans -> false sorts before true
//  3. otherwise -> comparison of the string-coerced forms
//
// Mixed types therefore always take the string branch, so "10" compared with
// the string "abc" is lexicographic every build, never numeric in one and
// textual in another.
func compareValues(a, b interface{}) int {
	if af, aok := utils.ToFloat(a); aok {
		if bf, bok := utils.ToFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}

	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			switch {
			case ab == bb:
				return 0
			case bb:
				return -1
			default:
				return 1
			}
		}
	}

	return strings.Compare(utils.ToString(a), utils.ToString(b))
}

// looseEqual is the identity test behind eq/neq and `in` membership: nulls
// only equal nulls, numbers compare numerically when both sides coerce, and
// everything else falls back to string-coerced equality.
func looseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := utils.ToFloat(a); aok {
		if bf, bok := utils.ToFloat(b); bok {
			return af == bf
		}
	}
	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			return ab == bb
		}
	}
	return utils.ToString(a) == utils.ToString(b)
}

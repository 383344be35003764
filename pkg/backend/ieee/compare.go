package ieee

import "github.com/mca-tools/interflop-go/pkg/backend"

// Compare implements the 16 ordered/unordered comparison predicates
// (§4.3 supplemental). Ordered predicates return false if either operand
// is NaN; unordered predicates return true in that case.
func Compare(op backend.CmpOp, a, b float64) bool {
	nan := a != a || b != b
	switch op {
	case backend.CmpFalse:
		return false
	case backend.CmpTrue:
		return true
	case backend.CmpOrd:
		return !nan
	case backend.CmpUnord:
		return nan
	case backend.CmpEQ:
		return !nan && a == b
	case backend.CmpNE:
		return !nan && a != b
	case backend.CmpLT:
		return !nan && a < b
	case backend.CmpLE:
		return !nan && a <= b
	case backend.CmpGT:
		return !nan && a > b
	case backend.CmpGE:
		return !nan && a >= b
	case backend.CmpUEQ:
		return nan || a == b
	case backend.CmpUNE:
		return nan || a != b
	case backend.CmpULT:
		return nan || a < b
	case backend.CmpULE:
		return nan || a <= b
	case backend.CmpUGT:
		return nan || a > b
	case backend.CmpUGE:
		return nan || a >= b
	default:
		return false
	}
}

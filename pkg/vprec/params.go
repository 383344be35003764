// Package vprec implements the scalar VPREC rounding primitive (§4.8):
// re-encoding a finite value as if it lived in a reduced-precision,
// reduced-range IEEE-like format. The mcaquad backend does not call it:
// its absolute-error term is additive noise, not a VPREC rounding.
//
// Only the scalar primitive is in scope; the call-graph function
// instrumentation and external precision-profile file format of the
// original VPREC backend are explicitly excluded.
package vprec

// Params configures one VPREC rounding call.
type Params struct {
	Precision int   // p: target mantissa bits, 1..pman_size
	RangeBits int   // r: target exponent width in bits, >= 2
	DAZ       bool  // flush subnormal inputs before rounding
	FTZ       bool  // flush subnormal outputs after rounding
	UseRel    bool  // honor Precision
	UseAbs    bool  // honor AbsErrExp
	AbsErrExp int32 // target absolute-error exponent
}

// emaxFor returns the largest unbiased exponent representable at r bits.
func emaxFor(rangeBits int) int32 {
	return int32(1)<<uint(rangeBits-1) - 1
}

// resolvePrecision resolves the tighter of the relative and absolute
// precision constraints at unbiased exponent e, per §4.8's final
// paragraph. forceZero/forceExact mean the value collapses to signed
// zero or to exactly ±2^AbsErrExp before any bit-level rounding runs.
func (p Params) resolvePrecision(e int32) (precision int, forceZero, forceExact bool) {
	precision = p.Precision
	if !p.UseAbs {
		return precision, false, false
	}
	d := e - p.AbsErrExp
	switch {
	case d == 0:
		return precision, false, true
	case d < 0:
		return precision, true, false
	default:
		if !p.UseRel || int(d) < precision {
			precision = int(d)
		}
		return precision, false, false
	}
}

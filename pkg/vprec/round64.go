package vprec

import (
	"math"

	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
)

// Round64 applies VPREC scalar rounding to a finite binary64 value. NaN
// and Inf pass through unchanged; callers that need to flush those
// should do so before calling Round64.
func Round64(x float64, p Params) float64 {
	switch ieeefloat.Classify64(x) {
	case ieeefloat.NaN, ieeefloat.Inf:
		return x
	}
	negative := ieeefloat.SignBits64(x) == 1
	if ieeefloat.Classify64(x) == ieeefloat.Zero {
		return x
	}

	e := ieeefloat.UnbiasedExponent64(x)
	precision, forceZero, forceExact := p.resolvePrecision(e)
	if forceZero {
		return ieeefloat.SignedZero64(negative)
	}
	if forceExact {
		return signedPow2_64(negative, p.AbsErrExp)
	}

	emax := emaxFor(p.RangeBits)
	emin := 1 - emax

	if e > emax {
		return ieeefloat.Inf64(negative)
	}
	if e < emin {
		if p.DAZ || p.FTZ {
			return ieeefloat.SignedZero64(negative)
		}
		return denormalRound64(x, negative, emin)
	}
	return roundNormal64(x, negative, e, precision, emax)
}

func signedPow2_64(negative bool, e int32) float64 {
	v := ieeefloat.FastPow2_64(e)
	if negative {
		return ieeefloat.Neg64(v)
	}
	return v
}

// roundNormal64 implements the k/low/r_bit formula of §4.8 step 4.
func roundNormal64(x float64, negative bool, e int32, precision int, emax int32) float64 {
	if precision <= 0 {
		return ieeefloat.SignedZero64(negative)
	}
	if precision >= ieeefloat.Float64PmanSize {
		return x
	}
	k := uint(ieeefloat.Float64PmanSize - precision)
	mant := ieeefloat.PmanBits64(x)

	low := mant & (uint64(1)<<k - 1)
	half := uint64(1) << (k - 1)
	rBit := (mant >> (k - 1)) & 1
	roundUp := low > half || (low == half && rBit == 1)

	newMant := mant &^ (uint64(1)<<k - 1)
	if roundUp {
		newMant += uint64(1) << k
	}
	if newMant > ieeefloat.Float64PmanMask {
		newMant = 0
		e++
		if e > emax {
			return ieeefloat.Inf64(negative)
		}
	}
	return ieeefloat.Encode64(negative, e, newMant)
}

// denormalRound64 rounds x (already known to lie below the target
// format's normal range) to the subnormal grid at emin, ties away from
// zero on the exact half-ulp boundary, matching the "add half-ulp then
// truncate" behavior described in §4.8 step 3. The rounded value is
// still stored as an ordinary (possibly normal) binary64: the target
// format's emin is rarely anywhere near binary64's own -1022, so "target
// subnormal" commonly remains a real binary64 normal number.
func denormalRound64(x float64, negative bool, emin int32) float64 {
	e := ieeefloat.UnbiasedExponent64(x)
	full := uint64(1)<<ieeefloat.Float64PmanSize | ieeefloat.PmanBits64(x)

	shift := emin - e // > 0: x sits below the target's normal range
	if shift >= ieeefloat.Float64PmanSize+2 {
		return ieeefloat.SignedZero64(negative)
	}

	kept := full >> uint(shift)
	if shift > 0 {
		remainder := full & (uint64(1)<<uint(shift) - 1)
		half := uint64(1) << uint(shift-1)
		if remainder >= half {
			kept++
		}
	}
	if kept == 0 {
		return ieeefloat.SignedZero64(negative)
	}

	mag := math.Ldexp(float64(kept), int(emin)-ieeefloat.Float64PmanSize)
	if negative {
		return -mag
	}
	return mag
}

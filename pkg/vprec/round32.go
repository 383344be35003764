package vprec

import (
	"math"

	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
)

// Round32 applies VPREC scalar rounding to a finite binary32 value. NaN
// and Inf pass through unchanged.
func Round32(x float32, p Params) float32 {
	switch ieeefloat.Classify32(x) {
	case ieeefloat.NaN, ieeefloat.Inf, ieeefloat.Zero:
		return x
	}
	negative := ieeefloat.SignBits32(x) == 1

	e := ieeefloat.UnbiasedExponent32(x)
	precision, forceZero, forceExact := p.resolvePrecision(e)
	if forceZero {
		return ieeefloat.SignedZero32(negative)
	}
	if forceExact {
		return signedPow2_32(negative, p.AbsErrExp)
	}

	emax := emaxFor(p.RangeBits)
	emin := 1 - emax

	if e > emax {
		return ieeefloat.Inf32(negative)
	}
	if e < emin {
		if p.DAZ || p.FTZ {
			return ieeefloat.SignedZero32(negative)
		}
		return denormalRound32(x, negative, emin)
	}
	return roundNormal32(x, negative, e, precision, emax)
}

func signedPow2_32(negative bool, e int32) float32 {
	v := ieeefloat.FastPow2_32(e)
	if negative {
		return ieeefloat.Neg32(v)
	}
	return v
}

func roundNormal32(x float32, negative bool, e int32, precision int, emax int32) float32 {
	if precision <= 0 {
		return ieeefloat.SignedZero32(negative)
	}
	if precision >= ieeefloat.Float32PmanSize {
		return x
	}
	k := uint(ieeefloat.Float32PmanSize - precision)
	mant := ieeefloat.PmanBits32(x)

	low := mant & (uint32(1)<<k - 1)
	half := uint32(1) << (k - 1)
	rBit := (mant >> (k - 1)) & 1
	roundUp := low > half || (low == half && rBit == 1)

	newMant := mant &^ (uint32(1)<<k - 1)
	if roundUp {
		newMant += uint32(1) << k
	}
	if newMant > ieeefloat.Float32PmanMask {
		newMant = 0
		e++
		if e > emax {
			return ieeefloat.Inf32(negative)
		}
	}
	return ieeefloat.Encode32(negative, e, newMant)
}

func denormalRound32(x float32, negative bool, emin int32) float32 {
	e := ieeefloat.UnbiasedExponent32(x)
	full := uint32(1)<<ieeefloat.Float32PmanSize | ieeefloat.PmanBits32(x)

	shift := emin - e
	if shift >= ieeefloat.Float32PmanSize+2 {
		return ieeefloat.SignedZero32(negative)
	}

	kept := full >> uint(shift)
	if shift > 0 {
		remainder := full & (uint32(1)<<uint(shift) - 1)
		half := uint32(1) << uint(shift-1)
		if remainder >= half {
			kept++
		}
	}
	if kept == 0 {
		return ieeefloat.SignedZero32(negative)
	}

	mag := float32(math.Ldexp(float64(kept), int(emin)-ieeefloat.Float32PmanSize))
	if negative {
		return -mag
	}
	return mag
}

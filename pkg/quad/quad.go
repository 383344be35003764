// Package quad implements arithmetic on ieeefloat.Binary128 values.
//
// No example in the corpus ships a native quad-precision float type, so
// operations are carried out as exact math/big.Rat arithmetic (every
// binary128 operand is an exact dyadic rational) and rounded to the
// 113-bit significand once at the end, the same single-rounding
// discipline an FMA instruction gives for free. This gives backends a
// correctly-rounded wide intermediate type to perturb without pulling in
// a fabricated quad-math dependency.
package quad

import (
	"math/big"

	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
)

const (
	mantissaBits = ieeefloat.Float128PmanSize // 112 explicit bits
	emax         = ieeefloat.Float128ExpBias
	emin         = 1 - ieeefloat.Float128ExpBias
)

// ToRat converts a finite, non-NaN, non-zero binary128 value to its
// exact rational value. Callers are expected to special-case Zero, Inf
// and NaN before calling this.
func ToRat(x ieeefloat.Binary128) *big.Rat {
	hi, lo := ieeefloat.MantissaBits128(x)
	mant := new(big.Int).Lsh(new(big.Int).SetUint64(hi), 64)
	mant.Or(mant, new(big.Int).SetUint64(lo))

	e := ieeefloat.UnbiasedExponent128(x)
	if ieeefloat.Classify128(x) == ieeefloat.Normal {
		mant.Or(mant, new(big.Int).Lsh(big.NewInt(1), mantissaBits))
	}
	shift := int(e) - mantissaBits

	r := new(big.Rat).SetInt(mant)
	r = scaleByPow2(r, shift)
	if ieeefloat.SignBit128(x) == 1 {
		r.Neg(r)
	}
	return r
}

// FromRat rounds an exact rational value to the nearest binary128,
// ties to even, handling overflow to infinity and gradual underflow to
// subnormals and zero. An exact-zero result always rounds to +0; the
// corpus never needs negative-zero fidelity through this path since
// backends short-circuit on zero operands before reaching quad math.
func FromRat(r *big.Rat) ieeefloat.Binary128 {
	if r.Sign() == 0 {
		return ieeefloat.Binary128{}
	}

	negative := r.Sign() < 0
	abs := new(big.Rat).Abs(r)

	e := exponentOf(abs)
	if e > emax {
		return ieeefloat.Inf128(negative)
	}

	shift := int(e) - mantissaBits
	if e < emin {
		shift = emin - mantissaBits
	}

	sig := roundToNearestEvenInt(scaleByPow2(abs, -shift))

	// Rounding may carry the significand up by a bit (e.g. 1.111.. -> 10.00).
	full := new(big.Int).Lsh(big.NewInt(1), mantissaBits+1)
	if sig.Cmp(full) >= 0 {
		sig.Rsh(sig, 1)
		e++
		if e > emax {
			return ieeefloat.Inf128(negative)
		}
	}

	normalThreshold := new(big.Int).Lsh(big.NewInt(1), mantissaBits)
	if sig.Cmp(normalThreshold) >= 0 {
		// Normal range: strip the implicit leading bit.
		mant := new(big.Int).Sub(sig, normalThreshold)
		return encode(negative, uint64(e+emax), mant)
	}

	if e < emin {
		// Still subnormal: raw exponent field is zero.
		return encode(negative, 0, sig)
	}

	// sig rounded down below the implicit bit at the normal boundary: the
	// true value sits exactly at the smallest normal or just under it.
	return encode(negative, 0, sig)
}

func encode(negative bool, rawExp uint64, mant *big.Int) ieeefloat.Binary128 {
	lo := mant.Uint64()
	hi := new(big.Int).Rsh(mant, 64).Uint64() & ieeefloat.Float128HiPmanMask
	x := ieeefloat.Binary128{Hi: rawExp << ieeefloat.Float128HiPmanSize, Lo: lo}
	x.Hi |= hi
	if negative {
		x.Hi |= 1 << 63
	}
	return x
}

func scaleByPow2(r *big.Rat, shift int) *big.Rat {
	out := new(big.Rat).Set(r)
	if shift >= 0 {
		return out.Mul(out, new(big.Rat).SetInt(new(big.Int).Lsh(big.NewInt(1), uint(shift))))
	}
	return out.Quo(out, new(big.Rat).SetInt(new(big.Int).Lsh(big.NewInt(1), uint(-shift))))
}

// roundToNearestEvenInt rounds a non-negative rational to the nearest
// integer, ties to even.
func roundToNearestEvenInt(r *big.Rat) *big.Int {
	num, den := r.Num(), r.Denom()
	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	twiceRem := new(big.Int).Lsh(rem, 1)
	switch twiceRem.Cmp(den) {
	case 1:
		q.Add(q, big.NewInt(1))
	case 0:
		if q.Bit(0) == 1 {
			q.Add(q, big.NewInt(1))
		}
	}
	return q
}

// exponentOf returns the integer e such that 2^e <= r < 2^(e+1), for a
// positive rational r.
func exponentOf(r *big.Rat) int32 {
	num, den := r.Num(), r.Denom()
	e := num.BitLen() - den.BitLen()
	for {
		if cmpPow2(num, den, e) < 0 {
			e--
			continue
		}
		if cmpPow2(num, den, e+1) >= 0 {
			e++
			continue
		}
		return int32(e)
	}
}

// cmpPow2 compares num/den against 2^e without floating point.
func cmpPow2(num, den *big.Int, e int) int {
	if e >= 0 {
		return num.Cmp(new(big.Int).Lsh(den, uint(e)))
	}
	return new(big.Int).Lsh(num, uint(-e)).Cmp(den)
}

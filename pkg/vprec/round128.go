package vprec

import (
	"math/big"

	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
	"github.com/mca-tools/interflop-go/pkg/quad"
)

// Round128 applies VPREC scalar rounding to a finite binary128 value.
// The 112-bit mantissa doesn't fit a machine word, so this operates on
// math/big.Int the same way pkg/quad does for its own rounding.
func Round128(x ieeefloat.Binary128, p Params) ieeefloat.Binary128 {
	switch ieeefloat.Classify128(x) {
	case ieeefloat.NaN, ieeefloat.Inf, ieeefloat.Zero:
		return x
	}
	negative := ieeefloat.SignBit128(x) == 1

	e := ieeefloat.UnbiasedExponent128(x)
	precision, forceZero, forceExact := p.resolvePrecision(e)
	if forceZero {
		return ieeefloat.SignedZero128(negative)
	}
	if forceExact {
		return signedPow2_128(negative, p.AbsErrExp)
	}

	emax := emaxFor(p.RangeBits)
	emin := 1 - emax

	if e > emax {
		return ieeefloat.Inf128(negative)
	}
	if e < emin {
		if p.DAZ || p.FTZ {
			return ieeefloat.SignedZero128(negative)
		}
		return denormalRound128(x, negative, emin)
	}
	return roundNormal128(x, negative, e, precision, emax)
}

func signedPow2_128(negative bool, e int32) ieeefloat.Binary128 {
	v := ieeefloat.FastPow2_128(e)
	if negative {
		return ieeefloat.Neg128(v)
	}
	return v
}

func mantissaInt128(x ieeefloat.Binary128) *big.Int {
	hi, lo := ieeefloat.MantissaBits128(x)
	m := new(big.Int).Lsh(new(big.Int).SetUint64(hi), 64)
	return m.Or(m, new(big.Int).SetUint64(lo))
}

func splitMantissa128(m *big.Int) (hi48, lo64 uint64) {
	lo64 = m.Uint64()
	hi48 = new(big.Int).Rsh(m, 64).Uint64() & ieeefloat.Float128HiPmanMask
	return
}

func roundNormal128(x ieeefloat.Binary128, negative bool, e int32, precision int, emax int32) ieeefloat.Binary128 {
	if precision <= 0 {
		return ieeefloat.SignedZero128(negative)
	}
	if precision >= ieeefloat.Float128PmanSize {
		return x
	}
	k := uint(ieeefloat.Float128PmanSize - precision)
	mant := mantissaInt128(x)

	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), k), big.NewInt(1))
	low := new(big.Int).And(mant, mask)
	half := new(big.Int).Lsh(big.NewInt(1), k-1)
	rBit := new(big.Int).Rsh(mant, k-1)
	rBit.And(rBit, big.NewInt(1))
	roundUp := low.Cmp(half) > 0 || (low.Cmp(half) == 0 && rBit.Cmp(big.NewInt(1)) == 0)

	newMant := new(big.Int).AndNot(mant, mask)
	if roundUp {
		newMant.Add(newMant, new(big.Int).Lsh(big.NewInt(1), k))
	}
	full := new(big.Int).Lsh(big.NewInt(1), ieeefloat.Float128PmanSize)
	if newMant.Cmp(full) >= 0 {
		newMant.SetInt64(0)
		e++
		if e > emax {
			return ieeefloat.Inf128(negative)
		}
	}
	hi, lo := splitMantissa128(newMant)
	return ieeefloat.Encode128(negative, e, hi, lo)
}

// denormalRound128 rounds x to the target format's subnormal grid at
// emin. Unlike the real binary128 emin, the target emin may sit far
// inside the representable range, so the rounded magnitude is commonly
// still a real binary128 normal number; pkg/quad's exact rational
// rounding handles that renormalization rather than assuming the target
// grid lines up with the container format's own subnormal encoding.
func denormalRound128(x ieeefloat.Binary128, negative bool, emin int32) ieeefloat.Binary128 {
	e := ieeefloat.UnbiasedExponent128(x)
	full := new(big.Int).Or(new(big.Int).Lsh(big.NewInt(1), ieeefloat.Float128PmanSize), mantissaInt128(x))

	shift := emin - e
	if shift >= ieeefloat.Float128PmanSize+2 {
		return ieeefloat.SignedZero128(negative)
	}

	kept := new(big.Int).Rsh(full, uint(shift))
	if shift > 0 {
		mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(shift)), big.NewInt(1))
		remainder := new(big.Int).And(full, mask)
		half := new(big.Int).Lsh(big.NewInt(1), uint(shift-1))
		if remainder.Cmp(half) >= 0 {
			kept.Add(kept, big.NewInt(1))
		}
	}
	if kept.Sign() == 0 {
		return ieeefloat.SignedZero128(negative)
	}

	r := new(big.Rat).SetInt(kept)
	if emin-ieeefloat.Float128PmanSize >= 0 {
		r.Mul(r, new(big.Rat).SetInt(new(big.Int).Lsh(big.NewInt(1), uint(emin-ieeefloat.Float128PmanSize))))
	} else {
		r.Quo(r, new(big.Rat).SetInt(new(big.Int).Lsh(big.NewInt(1), uint(ieeefloat.Float128PmanSize-emin))))
	}
	result := quad.FromRat(r)
	if negative {
		return ieeefloat.Neg128(result)
	}
	return result
}

package quad

import (
	"math"
	"math/big"

	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
)

// FromFloat64 widens a float64 into its exact binary128 representation.
func FromFloat64(x float64) ieeefloat.Binary128 {
	switch ieeefloat.Classify64(x) {
	case ieeefloat.Zero:
		return ieeefloat.SignedZero128(math.Signbit(x))
	case ieeefloat.Inf:
		return ieeefloat.Inf128(math.Signbit(x))
	case ieeefloat.NaN:
		return ieeefloat.NaN128()
	}
	bits := math.Float64bits(x)
	mant := bits & ieeefloat.Float64PmanMask
	rawExp := (bits >> ieeefloat.Float64PmanSize) & (1<<ieeefloat.Float64ExpSize - 1)

	var e int
	var sig *big.Int
	if rawExp == 0 {
		e = 1 - ieeefloat.Float64ExpBias
		sig = new(big.Int).SetUint64(mant)
	} else {
		e = int(rawExp) - ieeefloat.Float64ExpBias
		sig = new(big.Int).SetUint64(mant | (uint64(1) << ieeefloat.Float64PmanSize))
	}
	r := new(big.Rat).SetInt(sig)
	r = scaleByPow2(r, e-ieeefloat.Float64PmanSize)
	if math.Signbit(x) {
		r.Neg(r)
	}
	return FromRat(r)
}

// FromFloat32 widens a float32 into its exact binary128 representation.
func FromFloat32(x float32) ieeefloat.Binary128 {
	return FromFloat64(float64(x))
}

// ToFloat64 narrows x to the nearest float64, rounding to nearest even,
// saturating to infinity on overflow.
func ToFloat64(x ieeefloat.Binary128) float64 {
	switch ieeefloat.Classify128(x) {
	case ieeefloat.Zero:
		if ieeefloat.SignBit128(x) == 1 {
			return math.Copysign(0, -1)
		}
		return 0
	case ieeefloat.Inf:
		if ieeefloat.SignBit128(x) == 1 {
			return math.Inf(-1)
		}
		return math.Inf(1)
	case ieeefloat.NaN:
		return math.NaN()
	}
	r := ToRat(x)
	f, _ := new(big.Float).SetPrec(128).SetRat(r).Float64()
	return f
}

// ToFloat32 narrows x to the nearest float32.
func ToFloat32(x ieeefloat.Binary128) float32 {
	return float32(ToFloat64(x))
}

package quad

import (
	"math/big"

	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
)

func sign(x ieeefloat.Binary128) bool { return ieeefloat.SignBit128(x) == 1 }

// Add returns a+b, correctly rounded.
func Add(a, b ieeefloat.Binary128) ieeefloat.Binary128 {
	ca, cb := ieeefloat.Classify128(a), ieeefloat.Classify128(b)
	switch {
	case ca == ieeefloat.NaN || cb == ieeefloat.NaN:
		return ieeefloat.NaN128()
	case ca == ieeefloat.Inf && cb == ieeefloat.Inf:
		if sign(a) != sign(b) {
			return ieeefloat.NaN128()
		}
		return a
	case ca == ieeefloat.Inf:
		return a
	case cb == ieeefloat.Inf:
		return b
	case ca == ieeefloat.Zero && cb == ieeefloat.Zero:
		if sign(a) && sign(b) {
			return ieeefloat.SignedZero128(true)
		}
		return ieeefloat.SignedZero128(false)
	case ca == ieeefloat.Zero:
		return b
	case cb == ieeefloat.Zero:
		return a
	}
	return FromRat(new(big.Rat).Add(ToRat(a), ToRat(b)))
}

// Sub returns a-b, correctly rounded.
func Sub(a, b ieeefloat.Binary128) ieeefloat.Binary128 {
	return Add(a, ieeefloat.Neg128(b))
}

// Mul returns a*b, correctly rounded.
func Mul(a, b ieeefloat.Binary128) ieeefloat.Binary128 {
	ca, cb := ieeefloat.Classify128(a), ieeefloat.Classify128(b)
	resultSign := sign(a) != sign(b)
	switch {
	case ca == ieeefloat.NaN || cb == ieeefloat.NaN:
		return ieeefloat.NaN128()
	case ca == ieeefloat.Inf || cb == ieeefloat.Inf:
		if ca == ieeefloat.Zero || cb == ieeefloat.Zero {
			return ieeefloat.NaN128()
		}
		return ieeefloat.Inf128(resultSign)
	case ca == ieeefloat.Zero || cb == ieeefloat.Zero:
		return ieeefloat.SignedZero128(resultSign)
	}
	return FromRat(new(big.Rat).Mul(ToRat(a), ToRat(b)))
}

// Div returns a/b, correctly rounded.
func Div(a, b ieeefloat.Binary128) ieeefloat.Binary128 {
	ca, cb := ieeefloat.Classify128(a), ieeefloat.Classify128(b)
	resultSign := sign(a) != sign(b)
	switch {
	case ca == ieeefloat.NaN || cb == ieeefloat.NaN:
		return ieeefloat.NaN128()
	case ca == ieeefloat.Inf && cb == ieeefloat.Inf:
		return ieeefloat.NaN128()
	case ca == ieeefloat.Zero && cb == ieeefloat.Zero:
		return ieeefloat.NaN128()
	case cb == ieeefloat.Zero:
		return ieeefloat.Inf128(resultSign)
	case ca == ieeefloat.Inf:
		return ieeefloat.Inf128(resultSign)
	case cb == ieeefloat.Inf:
		return ieeefloat.SignedZero128(resultSign)
	case ca == ieeefloat.Zero:
		return ieeefloat.SignedZero128(resultSign)
	}
	return FromRat(new(big.Rat).Quo(ToRat(a), ToRat(b)))
}

// FMA returns a*b+c with a single final rounding.
func FMA(a, b, c ieeefloat.Binary128) ieeefloat.Binary128 {
	ca, cb, cc := ieeefloat.Classify128(a), ieeefloat.Classify128(b), ieeefloat.Classify128(c)
	if ca == ieeefloat.NaN || cb == ieeefloat.NaN || cc == ieeefloat.NaN {
		return ieeefloat.NaN128()
	}
	productIsInvalid := (ca == ieeefloat.Inf && cb == ieeefloat.Zero) || (ca == ieeefloat.Zero && cb == ieeefloat.Inf)
	if productIsInvalid {
		return ieeefloat.NaN128()
	}
	productIsInf := ca == ieeefloat.Inf || cb == ieeefloat.Inf
	if productIsInf {
		productSign := sign(a) != sign(b)
		if cc == ieeefloat.Inf && sign(c) != productSign {
			return ieeefloat.NaN128()
		}
		return ieeefloat.Inf128(productSign)
	}
	if cc == ieeefloat.Inf {
		return c
	}
	productIsZero := ca == ieeefloat.Zero || cb == ieeefloat.Zero
	if productIsZero {
		return Add(ieeefloat.SignedZero128(sign(a) != sign(b)), c)
	}
	prod := new(big.Rat).Mul(ToRat(a), ToRat(b))
	if cc == ieeefloat.Zero {
		return FromRat(prod)
	}
	return FromRat(new(big.Rat).Add(prod, ToRat(c)))
}

package ieee

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
)

// DebugBinary32 renders x per the debug-binary grammar (§6): `s i.m x
// 2^e`. Subnormals follow printSubnormalNormalized's convention.
func DebugBinary32(x float32, printSubnormalNormalized bool) string {
	switch ieeefloat.Classify32(x) {
	case ieeefloat.Inf:
		return signChar32(x) + "inf"
	case ieeefloat.NaN:
		return "+nan"
	case ieeefloat.Zero:
		return signChar32(x) + "0 x 2^0"
	}
	m := ieeefloat.PmanBits32(x)
	if ieeefloat.Classify32(x) == ieeefloat.Subnormal {
		if printSubnormalNormalized {
			ctz := ieeefloat.Ctz32(x)
			shifted := m << uint(ctz+1)
			e := ieeefloat.UnbiasedExponent32(x) - int32(ctz) - 1
			return fmt.Sprintf("%s1.%s x 2^%d", signChar32(x), trimMantissaBits(uint64(shifted), ieeefloat.Float32PmanSize), e)
		}
		e := ieeefloat.UnbiasedExponent32(x)
		return fmt.Sprintf("%s0.%s x 2^%d", signChar32(x), trimMantissaBits(uint64(m), ieeefloat.Float32PmanSize), e)
	}
	e := ieeefloat.UnbiasedExponent32(x)
	return fmt.Sprintf("%s1.%s x 2^%d", signChar32(x), trimMantissaBits(uint64(m), ieeefloat.Float32PmanSize), e)
}

// DebugBinary64 is the binary64 counterpart of DebugBinary32.
func DebugBinary64(x float64, printSubnormalNormalized bool) string {
	switch ieeefloat.Classify64(x) {
	case ieeefloat.Inf:
		return signChar64(x) + "inf"
	case ieeefloat.NaN:
		return "+nan"
	case ieeefloat.Zero:
		return signChar64(x) + "0 x 2^0"
	}
	m := ieeefloat.PmanBits64(x)
	if ieeefloat.Classify64(x) == ieeefloat.Subnormal {
		if printSubnormalNormalized {
			ctz := ieeefloat.Ctz64(x)
			shifted := m << uint(ctz+1)
			e := ieeefloat.UnbiasedExponent64(x) - int32(ctz) - 1
			return fmt.Sprintf("%s1.%s x 2^%d", signChar64(x), trimMantissaBits(shifted, ieeefloat.Float64PmanSize), e)
		}
		e := ieeefloat.UnbiasedExponent64(x)
		return fmt.Sprintf("%s0.%s x 2^%d", signChar64(x), trimMantissaBits(m, ieeefloat.Float64PmanSize), e)
	}
	e := ieeefloat.UnbiasedExponent64(x)
	return fmt.Sprintf("%s1.%s x 2^%d", signChar64(x), trimMantissaBits(m, ieeefloat.Float64PmanSize), e)
}

func signChar32(x float32) string {
	if ieeefloat.SignBits32(x) == 1 {
		return "-"
	}
	return "+"
}

func signChar64(x float64) string {
	if ieeefloat.SignBits64(x) == 1 {
		return "-"
	}
	return "+"
}

// trimMantissaBits renders the top pmanSize bits of m, trimming trailing
// zeros down to the last 1-bit (or "0" if m is zero).
func trimMantissaBits(m uint64, pmanSize int) string {
	if m == 0 {
		return "0"
	}
	full := strconv.FormatUint(m, 2)
	full = strings.Repeat("0", pmanSize-len(full)) + full
	tz := bits.TrailingZeros64(m)
	return full[:pmanSize-tz]
}

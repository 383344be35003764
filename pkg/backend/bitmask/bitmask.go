// Package bitmask implements the bitmask perturbation backend (§4.4):
// masking the trailing mantissa bits of inputs, outputs, or both, with
// zero/one/random fill. Grounded on chaos-utils' fuzz.Sampler for the
// per-operation RNG draw and on pkg/ieeefloat's bit-level accessors for
// the mask arithmetic itself.
package bitmask

import (
	"math"
	"math/bits"

	"github.com/mca-tools/interflop-go/pkg/backend"
	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
	"github.com/mca-tools/interflop-go/pkg/interrors"
	"github.com/mca-tools/interflop-go/pkg/prng"
	"github.com/mca-tools/interflop-go/pkg/telemetry"
)

// Mode selects which operands the mask is applied to.
type Mode int

const (
	ModeIEEE Mode = iota // no-op
	ModeIB                // inputs only
	ModeOB                // output only (default)
	ModeFull              // both
)

// Operator selects how masked-out bits are replaced.
type Operator int

const (
	OpZero Operator = iota // AND with the mask
	OpOne                   // OR with the complement of the mask
	OpRand                  // XOR mantissa with ~mask AND random
)

// Config is the typed configuration record for a bitmask instance.
type Config struct {
	Mode      Mode
	Operator  Operator
	Precision32 int
	Precision64 int
	DAZ       bool
	FTZ       bool
	Seed      uint64
	UseSeed   bool
}

// Backend is a loaded bitmask backend instance.
type Backend struct {
	backend.Instance
	cfg  Config
	rng  prng.State
}

// New runs pre_init and configure in one step.
func New(logger *telemetry.Logger, onPanic interrors.PanicHandler, cfg Config) *Backend {
	b := &Backend{}
	b.PreInit("bitmask", onPanic, logger)
	b.Configure(cfg)
	return b
}

// Configure validates cfg and moves the backend to Configured.
func (b *Backend) Configure(cfg Config) {
	if cfg.Precision32 < 0 || cfg.Precision32 > ieeefloat.Float32PmanSize {
		interrors.Invariant(b.OnPanic, "bitmask", "precision32 %d out of range", cfg.Precision32)
	}
	if cfg.Precision64 < 0 || cfg.Precision64 > ieeefloat.Float64PmanSize {
		interrors.Invariant(b.OnPanic, "bitmask", "precision64 %d out of range", cfg.Precision64)
	}
	b.cfg = cfg
	b.rng.Configure(cfg.Seed, cfg.UseSeed)
	b.MarkConfigured()
}

// Init prints the load banner and returns the interface table.
func (b *Backend) Init() *backend.Table {
	b.Logger.LoadBanner("bitmask", map[string]interface{}{
		"mode": b.cfg.Mode, "operator": b.cfg.Operator,
	})
	b.MarkInitialized()
	return &backend.Table{
		AddFloat32: func(a, c float32) float32 { return b.op32(a, c, func(x, y float32) float32 { return x + y }) },
		SubFloat32: func(a, c float32) float32 { return b.op32(a, c, func(x, y float32) float32 { return x - y }) },
		MulFloat32: func(a, c float32) float32 { return b.op32(a, c, func(x, y float32) float32 { return x * y }) },
		DivFloat32: func(a, c float32) float32 { return b.op32(a, c, func(x, y float32) float32 { return x / y }) },

		AddFloat64: func(a, c float64) float64 { return b.op64(a, c, func(x, y float64) float64 { return x + y }) },
		SubFloat64: func(a, c float64) float64 { return b.op64(a, c, func(x, y float64) float64 { return x - y }) },
		MulFloat64: func(a, c float64) float64 { return b.op64(a, c, func(x, y float64) float64 { return x * y }) },
		DivFloat64: func(a, c float64) float64 { return b.op64(a, c, func(x, y float64) float64 { return x / y }) },

		CastDoubleToFloat: func(x float64) float32 {
			if b.inputApplies() {
				x = b.maskDouble(x, false)
			}
			r := float32(x)
			if b.outputApplies() {
				r = b.mask32(r, b.cfg.FTZ)
			}
			return r
		},

		FmaFloat32: func(a, c, d float32) float32 { return b.fma32(a, c, d) },
		FmaFloat64: func(a, c, d float64) float64 { return b.fma64(a, c, d) },

		Finalize: b.MarkFinalized,
	}
}

func (b *Backend) inputApplies() bool { return b.cfg.Mode == ModeIB || b.cfg.Mode == ModeFull }
func (b *Backend) outputApplies() bool { return b.cfg.Mode == ModeOB || b.cfg.Mode == ModeFull }

func (b *Backend) op32(a, c float32, f func(a, c float32) float32) float32 {
	if b.inputApplies() {
		a, c = b.mask32(a, false), b.mask32(c, false)
	}
	r := f(a, c)
	if b.outputApplies() {
		r = b.mask32(r, b.cfg.FTZ)
	}
	return r
}

func (b *Backend) op64(a, c float64, f func(a, c float64) float64) float64 {
	if b.inputApplies() {
		a, c = b.maskDouble(a, false), b.maskDouble(c, false)
	}
	r := f(a, c)
	if b.outputApplies() {
		r = b.maskDouble(r, b.cfg.FTZ)
	}
	return r
}

func (b *Backend) fma32(a, c, d float32) float32 {
	if b.inputApplies() {
		a, c, d = b.mask32(a, false), b.mask32(c, false), b.mask32(d, false)
	}
	r := float32(fmaFloat64(float64(a), float64(c), float64(d)))
	if b.outputApplies() {
		r = b.mask32(r, b.cfg.FTZ)
	}
	return r
}

func (b *Backend) fma64(a, c, d float64) float64 {
	if b.inputApplies() {
		a, c, d = b.maskDouble(a, false), b.maskDouble(c, false), b.maskDouble(d, false)
	}
	r := fmaFloat64(a, c, d)
	if b.outputApplies() {
		r = b.maskDouble(r, b.cfg.FTZ)
	}
	return r
}

func fmaFloat64(a, c, d float64) float64 { return math.FMA(a, c, d) }

// mask32 applies the configured operator to x's mantissa at the
// configured virtual precision, reducing the effective precision for
// subnormals by their leading-zero count (§4.4). ftz is applied only
// when this call is masking an output, never an input.
func (b *Backend) mask32(x float32, ftz bool) float32 {
	if b.cfg.DAZ {
		x = ieeefloat.Daz32(x)
	}
	class := ieeefloat.Classify32(x)
	if class.IsSpecial() || class == ieeefloat.Zero {
		return x
	}
	p := b.cfg.Precision32
	if class == ieeefloat.Subnormal {
		lz := ieeefloat.Float32PmanSize - 1 - msb32(ieeefloat.PmanBits32(x))
		if lz+p > ieeefloat.Float32PmanSize {
			if ftz {
				return ieeefloat.Ftz32(x)
			}
			return x
		}
		p -= lz
		if p < 0 {
			p = 0
		}
	}
	mask := uint32(ieeefloat.Float32PmanMask) << uint(ieeefloat.Float32PmanSize-p)
	mant := ieeefloat.PmanBits32(x)
	var newMant uint32
	switch b.cfg.Operator {
	case OpZero:
		newMant = mant & mask
	case OpOne:
		newMant = mant | (^mask & ieeefloat.Float32PmanMask)
	case OpRand:
		r := uint32(b.rng.NextU64()) & ieeefloat.Float32PmanMask
		newMant = mant ^ (r &^ mask)
	default:
		newMant = mant
	}
	r := ieeefloat.WithMantissa32(x, newMant)
	if ftz {
		r = ieeefloat.Ftz32(r)
	}
	return r
}

// maskDouble is mask32's binary64 counterpart; ftz is applied only when
// masking an output.
func (b *Backend) maskDouble(x float64, ftz bool) float64 {
	if b.cfg.DAZ {
		x = ieeefloat.Daz64(x)
	}
	class := ieeefloat.Classify64(x)
	if class.IsSpecial() || class == ieeefloat.Zero {
		return x
	}
	p := b.cfg.Precision64
	if class == ieeefloat.Subnormal {
		lz := ieeefloat.Float64PmanSize - 1 - msb64(ieeefloat.PmanBits64(x))
		if lz+p > ieeefloat.Float64PmanSize {
			if ftz {
				return ieeefloat.Ftz64(x)
			}
			return x
		}
		p -= lz
		if p < 0 {
			p = 0
		}
	}
	mask := ieeefloat.Float64PmanMask << uint(ieeefloat.Float64PmanSize-p)
	mant := ieeefloat.PmanBits64(x)
	var newMant uint64
	switch b.cfg.Operator {
	case OpZero:
		newMant = mant & mask
	case OpOne:
		newMant = mant | (^mask & ieeefloat.Float64PmanMask)
	case OpRand:
		r := b.rng.NextU64() & ieeefloat.Float64PmanMask
		newMant = mant ^ (r &^ mask)
	default:
		newMant = mant
	}
	r := ieeefloat.WithMantissa64(x, newMant)
	if ftz {
		r = ieeefloat.Ftz64(r)
	}
	return r
}

// msb32 returns the index of the highest set bit of m, or -1 if m is zero.
func msb32(m uint32) int { return bits.Len32(m) - 1 }

func msb64(m uint64) int { return bits.Len64(m) - 1 }

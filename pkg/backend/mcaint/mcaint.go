// Package mcaint implements the integer-perturbation Monte Carlo
// Arithmetic backend (§4.7): functionally parallel to mcaquad but
// restricted to relative noise at a fixed default precision, computed by
// adding a signed integer directly to the wide-type intermediate's raw
// bit pattern instead of building a floating noise value. Grounded on
// pkg/quad for the binary128 wide-type narrowing and pkg/backend/mcaquad
// for the shared mode/sparsity structure.
package mcaint

import (
	"math"
	"math/big"

	"github.com/mca-tools/interflop-go/pkg/backend"
	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
	"github.com/mca-tools/interflop-go/pkg/interrors"
	"github.com/mca-tools/interflop-go/pkg/prng"
	"github.com/mca-tools/interflop-go/pkg/quad"
	"github.com/mca-tools/interflop-go/pkg/telemetry"
)

// Mode selects which side of an operation is perturbed, same vocabulary
// as mcaquad's.
type Mode int

const (
	ModeIEEE Mode = iota
	ModePB
	ModeRR
	ModeMCA
)

// defaultPrecision32/64 are the fixed virtual precisions mcaint operates
// at; §4.7 forbids changing them at runtime.
const (
	defaultPrecision32 = ieeefloat.Float32PmanSize + 1
	defaultPrecision64 = ieeefloat.Float64PmanSize + 1
)

// Config is the typed configuration record for an mcaint instance.
type Config struct {
	Mode     Mode
	Sparsity float64
	DAZ      bool
	FTZ      bool
	Seed     uint64
	UseSeed  bool
}

// Backend is a loaded mcaint backend instance.
type Backend struct {
	backend.Instance
	cfg Config
	rng prng.State
}

// New runs pre_init and configure in one step.
func New(logger *telemetry.Logger, onPanic interrors.PanicHandler, cfg Config) *Backend {
	b := &Backend{}
	b.PreInit("mcaint", onPanic, logger)
	b.Configure(cfg)
	return b
}

// Configure validates cfg and moves the backend to Configured.
func (b *Backend) Configure(cfg Config) {
	if cfg.Sparsity <= 0 {
		interrors.Invariant(b.OnPanic, "mcaint", "sparsity %v must be > 0", cfg.Sparsity)
	}
	b.cfg = cfg
	b.rng.Configure(cfg.Seed, cfg.UseSeed)
	b.MarkConfigured()
}

// Init prints the load banner and returns the interface table.
func (b *Backend) Init() *backend.Table {
	b.Logger.LoadBanner("mcaint", map[string]interface{}{"mode": b.cfg.Mode})
	b.MarkInitialized()
	return &backend.Table{
		AddFloat32: func(a, c float32) float32 { return b.op32(a, c, func(x, y float64) float64 { return x + y }) },
		SubFloat32: func(a, c float32) float32 { return b.op32(a, c, func(x, y float64) float64 { return x - y }) },
		MulFloat32: func(a, c float32) float32 { return b.op32(a, c, func(x, y float64) float64 { return x * y }) },
		DivFloat32: func(a, c float32) float32 { return b.op32(a, c, func(x, y float64) float64 { return x / y }) },

		AddFloat64: func(a, c float64) float64 { return b.op64(a, c, quad.Add) },
		SubFloat64: func(a, c float64) float64 { return b.op64(a, c, quad.Sub) },
		MulFloat64: func(a, c float64) float64 { return b.op64(a, c, quad.Mul) },
		DivFloat64: func(a, c float64) float64 { return b.op64(a, c, quad.Div) },

		CastDoubleToFloat: func(x float64) float32 { return float32(x) },

		FmaFloat32: func(a, c, d float32) float32 { return b.fma32(a, c, d) },
		FmaFloat64: func(a, c, d float64) float64 { return b.fma64(a, c, d) },

		UserCall: b.userCall,
		Finalize: b.MarkFinalized,
	}
}

func (b *Backend) op32(a, c float32, f func(x, y float64) float64) float32 {
	x, y := float64(a), float64(c)
	if b.cfg.DAZ {
		x, y = ieeefloat.Daz64(x), ieeefloat.Daz64(y)
	}
	if b.applyInput() {
		x = b.perturbWide64(x, defaultPrecision32)
		y = b.perturbWide64(y, defaultPrecision32)
	}
	r := f(x, y)
	if b.applyOutput64(r, defaultPrecision32) {
		r = b.perturbWide64(r, defaultPrecision32)
	}
	r32 := float32(r)
	if b.cfg.FTZ {
		r32 = ieeefloat.Ftz32(r32)
	}
	return r32
}

func (b *Backend) op64(a, c float64, f func(x, y ieeefloat.Binary128) ieeefloat.Binary128) float64 {
	x, y := quad.FromFloat64(a), quad.FromFloat64(c)
	if b.cfg.DAZ {
		x, y = ieeefloat.Daz128(x), ieeefloat.Daz128(y)
	}
	if b.applyInput() {
		x = b.perturbWide128(x, defaultPrecision64)
		y = b.perturbWide128(y, defaultPrecision64)
	}
	r := f(x, y)
	if b.applyOutput128(r, defaultPrecision64) {
		r = b.perturbWide128(r, defaultPrecision64)
	}
	result := quad.ToFloat64(r)
	if b.cfg.FTZ {
		result = ieeefloat.Ftz64(result)
	}
	return result
}

func (b *Backend) fma32(a, c, d float32) float32 {
	x, y, z := float64(a), float64(c), float64(d)
	if b.cfg.DAZ {
		x, y, z = ieeefloat.Daz64(x), ieeefloat.Daz64(y), ieeefloat.Daz64(z)
	}
	if b.applyInput() {
		x, y, z = b.perturbWide64(x, defaultPrecision32), b.perturbWide64(y, defaultPrecision32), b.perturbWide64(z, defaultPrecision32)
	}
	r := math.FMA(x, y, z)
	if b.applyOutput64(r, defaultPrecision32) {
		r = b.perturbWide64(r, defaultPrecision32)
	}
	r32 := float32(r)
	if b.cfg.FTZ {
		r32 = ieeefloat.Ftz32(r32)
	}
	return r32
}

func (b *Backend) fma64(a, c, d float64) float64 {
	x, y, z := quad.FromFloat64(a), quad.FromFloat64(c), quad.FromFloat64(d)
	if b.cfg.DAZ {
		x, y, z = ieeefloat.Daz128(x), ieeefloat.Daz128(y), ieeefloat.Daz128(z)
	}
	if b.applyInput() {
		x = b.perturbWide128(x, defaultPrecision64)
		y = b.perturbWide128(y, defaultPrecision64)
		z = b.perturbWide128(z, defaultPrecision64)
	}
	r := quad.FMA(x, y, z)
	if b.applyOutput128(r, defaultPrecision64) {
		r = b.perturbWide128(r, defaultPrecision64)
	}
	result := quad.ToFloat64(r)
	if b.cfg.FTZ {
		result = ieeefloat.Ftz64(result)
	}
	return result
}

func (b *Backend) applyInput() bool {
	return (b.cfg.Mode == ModePB || b.cfg.Mode == ModeMCA) && !b.rng.SkipEval(b.cfg.Sparsity)
}

func (b *Backend) applyOutput64(r float64, p int) bool {
	if b.cfg.Mode != ModeRR && b.cfg.Mode != ModeMCA {
		return false
	}
	class := ieeefloat.Classify64(r)
	if class.IsSpecial() || class == ieeefloat.Zero {
		return false
	}
	if b.cfg.Mode == ModeRR && ieeefloat.IsRepresentableAt64(r, p) {
		return false
	}
	return !b.rng.SkipEval(b.cfg.Sparsity)
}

func (b *Backend) applyOutput128(r ieeefloat.Binary128, p int) bool {
	if b.cfg.Mode != ModeRR && b.cfg.Mode != ModeMCA {
		return false
	}
	class := ieeefloat.Classify128(r)
	if class.IsSpecial() || class == ieeefloat.Zero {
		return false
	}
	if b.cfg.Mode == ModeRR && ieeefloat.IsRepresentableAt128(r, p) {
		return false
	}
	return !b.rng.SkipEval(b.cfg.Sparsity)
}

// shiftFor computes the §4.7 shift amount 1 + exp_size_of_wide_type -
// noise_exponent. noise_exponent is fixed at 1-p, the operand's
// configured virtual precision, not its runtime exponent: relative-noise
// scaling falls out of adding a fixed raw-bit delta to the wide type's
// own bit pattern, matching _noise_binary64/_noise_binary128's constant
// exp argument (derived only from VIRTUAL_PRECISION, never from the
// operand itself). Unclamped; callers bound it to their own word width.
func shiftFor(p, wideExpSize int) int {
	return wideExpSize + p
}

// perturbWide64 adds a signed integer noise term to x's raw bit pattern,
// reinterpreted as int64 (§4.7).
func (b *Backend) perturbWide64(x float64, p int) float64 {
	class := ieeefloat.Classify64(x)
	if class.IsSpecial() || class == ieeefloat.Zero {
		return x
	}
	shift := shiftFor(p, ieeefloat.Float64ExpSize)
	if shift < 0 {
		shift = 0
	}
	if shift > 63 {
		shift = 63
	}
	signedRandom := int64(b.rng.NextU64())
	delta := signedRandom >> uint(shift)
	raw := int64(math.Float64bits(x))
	return math.Float64frombits(uint64(raw + delta))
}

// perturbWide128 is perturbWide64's binary128 counterpart. The 64 random
// bits are placed in the high word of a 128-bit signed integer (low word
// zero), matching _noise_binary128's words64.high embedding, then the
// full (unclamped) shift is applied as a 128-bit arithmetic right shift
// before the noise is added to x's raw bit pattern.
func (b *Backend) perturbWide128(x ieeefloat.Binary128, p int) ieeefloat.Binary128 {
	class := ieeefloat.Classify128(x)
	if class.IsSpecial() || class == ieeefloat.Zero {
		return x
	}
	shift := shiftFor(p, ieeefloat.Float128ExpSize)
	signedRandom := int64(b.rng.NextU64())

	noise := new(big.Int).Lsh(big.NewInt(signedRandom), 64)
	if shift > 0 {
		noise.Rsh(noise, uint(shift))
	}

	raw := new(big.Int).Lsh(new(big.Int).SetUint64(x.Hi), 64)
	raw.Or(raw, new(big.Int).SetUint64(x.Lo))
	raw.Add(raw, noise)

	mask128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	raw.And(raw, mask128)
	lo := new(big.Int).And(raw, new(big.Int).SetUint64(^uint64(0))).Uint64()
	hi := new(big.Int).Rsh(raw, 64).Uint64()
	return ieeefloat.Binary128{Hi: hi, Lo: lo}
}

// userCall accepts CallInexact (applied at the fixed default precision
// for the operand's type) and rejects any attempt to change precision,
// per §4.7.
func (b *Backend) userCall(call backend.Call) error {
	switch call.ID {
	case backend.CallInexact:
		switch call.Type {
		case backend.TypeFloat32:
			if call.Float32 == nil {
				return interrors.Configuration("mcaint", "inexact", "missing float32 operand")
			}
			*call.Float32 = float32(b.perturbWide64(float64(*call.Float32), defaultPrecision32))
		case backend.TypeFloat64:
			if call.Float64 == nil {
				return interrors.Configuration("mcaint", "inexact", "missing float64 operand")
			}
			x := quad.FromFloat64(*call.Float64)
			x = b.perturbWide128(x, defaultPrecision64)
			*call.Float64 = quad.ToFloat64(x)
		default:
			return interrors.Configuration("mcaint", "inexact", "unsupported type tag %d", call.Type)
		}
		return nil
	case backend.CallSetPrecisionBinary32, backend.CallSetPrecisionBinary64:
		return interrors.Configuration("mcaint", "precision", "mcaint uses fixed default precisions; runtime changes are rejected")
	default:
		return interrors.Configuration("mcaint", "call_id", "unsupported call id %d", call.ID)
	}
}

// Package mcaquad implements the quad-intermediate Monte Carlo Arithmetic
// backend (§4.6): binary32 ops are perturbed in binary64, binary64 ops in
// binary128 via pkg/quad. Grounded on chaos-utils' fuzz.Sampler for the
// per-operation noise draw. The absolute-error term is added as noise;
// pkg/vprec rounding is not used.
package mcaquad

import (
	"math"

	"github.com/mca-tools/interflop-go/pkg/backend"
	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
	"github.com/mca-tools/interflop-go/pkg/interrors"
	"github.com/mca-tools/interflop-go/pkg/prng"
	"github.com/mca-tools/interflop-go/pkg/quad"
	"github.com/mca-tools/interflop-go/pkg/telemetry"
)

// Mode selects which side of an operation is perturbed.
type Mode int

const (
	ModeIEEE Mode = iota
	ModePB        // perturb inputs
	ModeRR        // perturb output (round only when unrepresentable)
	ModeMCA       // both (default)
)

// ErrorMode selects which noise term(s) are added.
type ErrorMode int

const (
	ErrorRel ErrorMode = iota // default
	ErrorAbs
	ErrorAll
)

// Config is the typed configuration record for an mcaquad instance.
type Config struct {
	Mode        Mode
	ErrorMode   ErrorMode
	Precision32 int
	Precision64 int
	AbsErrExp32 int32
	AbsErrExp64 int32
	Sparsity    float64 // (0,1], 1 = always perturb
	DAZ         bool
	FTZ         bool
	Seed        uint64
	UseSeed     bool
}

// Backend is a loaded mcaquad backend instance.
type Backend struct {
	backend.Instance
	cfg         Config
	rng         prng.State
	precision32 int
	precision64 int
}

// New runs pre_init and configure in one step.
func New(logger *telemetry.Logger, onPanic interrors.PanicHandler, cfg Config) *Backend {
	b := &Backend{}
	b.PreInit("mcaquad", onPanic, logger)
	b.Configure(cfg)
	return b
}

// Configure validates cfg and moves the backend to Configured.
func (b *Backend) Configure(cfg Config) {
	if cfg.Sparsity <= 0 {
		interrors.Invariant(b.OnPanic, "mcaquad", "sparsity %v must be > 0", cfg.Sparsity)
	}
	if cfg.Precision32 < 0 || cfg.Precision32 > ieeefloat.Float32PmanSize {
		interrors.Invariant(b.OnPanic, "mcaquad", "precision32 %d out of range", cfg.Precision32)
	}
	if cfg.Precision64 < 0 || cfg.Precision64 > ieeefloat.Float64PmanSize {
		interrors.Invariant(b.OnPanic, "mcaquad", "precision64 %d out of range", cfg.Precision64)
	}
	b.cfg = cfg
	b.precision32 = cfg.Precision32
	b.precision64 = cfg.Precision64
	b.rng.Configure(cfg.Seed, cfg.UseSeed)
	b.MarkConfigured()
}

// Init prints the load banner and returns the interface table.
func (b *Backend) Init() *backend.Table {
	b.Logger.LoadBanner("mcaquad", map[string]interface{}{
		"mode": b.cfg.Mode, "error_mode": b.cfg.ErrorMode,
	})
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
		x = b.perturbFloat64(x, b.precision32)
		y = b.perturbFloat64(y, b.precision32)
	}
	r := f(x, y)
	if b.applyOutput(r, b.precision32) {
		r = b.perturbFloat64(r, b.precision32)
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
		x = b.perturbBinary128(x, b.precision64)
		y = b.perturbBinary128(y, b.precision64)
	}
	r := f(x, y)
	if b.applyOutput128(r, b.precision64) {
		r = b.perturbBinary128(r, b.precision64)
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
		x, y, z = b.perturbFloat64(x, b.precision32), b.perturbFloat64(y, b.precision32), b.perturbFloat64(z, b.precision32)
	}
	r := math.FMA(x, y, z)
	if b.applyOutput(r, b.precision32) {
		r = b.perturbFloat64(r, b.precision32)
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
		x = b.perturbBinary128(x, b.precision64)
		y = b.perturbBinary128(y, b.precision64)
		z = b.perturbBinary128(z, b.precision64)
	}
	r := quad.FMA(x, y, z)
	if b.applyOutput128(r, b.precision64) {
		r = b.perturbBinary128(r, b.precision64)
	}
	result := quad.ToFloat64(r)
	if b.cfg.FTZ {
		result = ieeefloat.Ftz64(result)
	}
	return result
}

func (b *Backend) applyInput() bool {
	return (b.cfg.Mode == ModePB || b.cfg.Mode == ModeMCA) && !b.skip()
}

func (b *Backend) applyOutput(r float64, p int) bool {
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
	return !b.skip()
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
	return !b.skip()
}

func (b *Backend) skip() bool {
	return b.rng.SkipEval(b.cfg.Sparsity)
}

// perturbFloat64 adds the configured relative and/or absolute noise term
// to a binary64 intermediate holding a perturbed binary32 operand; the
// absolute term uses AbsErrExp32, the exponent tuned for that source
// type, not AbsErrExp64 (which perturbBinary128 uses for binary64 ops).
func (b *Backend) perturbFloat64(x float64, p int) float64 {
	class := ieeefloat.Classify64(x)
	if class.IsSpecial() || class == ieeefloat.Zero {
		return x
	}
	e := ieeefloat.UnbiasedExponent64(x)
	noise := 0.0
	if b.cfg.ErrorMode == ErrorRel || b.cfg.ErrorMode == ErrorAll {
		u := b.rng.NextUnitOpen() - 0.5
		noise += u * math.Ldexp(1, int(e)-p+1)
	}
	if b.cfg.ErrorMode == ErrorAbs || b.cfg.ErrorMode == ErrorAll {
		u := b.rng.NextUnitOpen() - 0.5
		noise += u * math.Ldexp(1, int(b.cfg.AbsErrExp32))
	}
	return x + noise
}

// perturbBinary128 is perturbFloat64's binary128 counterpart, using
// pkg/quad's exact arithmetic so the noise addition itself introduces
// no extra rounding beyond the single final narrowing.
func (b *Backend) perturbBinary128(x ieeefloat.Binary128, p int) ieeefloat.Binary128 {
	class := ieeefloat.Classify128(x)
	if class.IsSpecial() || class == ieeefloat.Zero {
		return x
	}
	e := ieeefloat.UnbiasedExponent128(x)
	r := x
	if b.cfg.ErrorMode == ErrorRel || b.cfg.ErrorMode == ErrorAll {
		u := b.rng.NextUnitOpen() - 0.5
		noise := quad.FromFloat64(u * math.Ldexp(1, int(e)-p+1))
		r = quad.Add(r, noise)
	}
	if b.cfg.ErrorMode == ErrorAbs || b.cfg.ErrorMode == ErrorAll {
		u := b.rng.NextUnitOpen() - 0.5
		noise := quad.FromFloat64(u * math.Ldexp(1, int(b.cfg.AbsErrExp64)))
		r = quad.Add(r, noise)
	}
	return r
}

// userCall implements the single-value perturbation and runtime
// precision override calls (§4.6).
func (b *Backend) userCall(call backend.Call) error {
	switch call.ID {
	case backend.CallInexact:
		return b.inexact(call)
	case backend.CallSetPrecisionBinary32:
		b.precision32 = resolvePrecision(call.IntArg, b.cfg.Precision32, ieeefloat.Float32PmanSize)
		return nil
	case backend.CallSetPrecisionBinary64:
		b.precision64 = resolvePrecision(call.IntArg, b.cfg.Precision64, ieeefloat.Float64PmanSize)
		return nil
	default:
		return interrors.Configuration("mcaquad", "call_id", "unsupported call id %d", call.ID)
	}
}

// resolvePrecision interprets the §4.6 user_call convention: positive
// means an absolute precision, <= 0 means an offset from the active one.
func resolvePrecision(arg, current, max int) int {
	p := arg
	if arg <= 0 {
		p = current + arg
	}
	if p < 0 {
		p = 0
	}
	if p > max {
		p = max
	}
	return p
}

func (b *Backend) inexact(call backend.Call) error {
	switch call.Type {
	case backend.TypeFloat32:
		if call.Float32 == nil {
			return interrors.Configuration("mcaquad", "inexact", "missing float32 operand")
		}
		p := resolvePrecision(call.Precision, b.precision32, ieeefloat.Float32PmanSize)
		x := float64(*call.Float32)
		x = b.perturbFloat64(x, p)
		*call.Float32 = float32(x)
	case backend.TypeFloat64:
		if call.Float64 == nil {
			return interrors.Configuration("mcaquad", "inexact", "missing float64 operand")
		}
		p := resolvePrecision(call.Precision, b.precision64, ieeefloat.Float64PmanSize)
		x := quad.FromFloat64(*call.Float64)
		x = b.perturbBinary128(x, p)
		*call.Float64 = quad.ToFloat64(x)
	default:
		return interrors.Configuration("mcaquad", "inexact", "unsupported type tag %d", call.Type)
	}
	return nil
}

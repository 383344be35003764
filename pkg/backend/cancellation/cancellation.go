// Package cancellation implements the catastrophic-cancellation
// detection backend (§4.5): flags additions/subtractions that lose
// significant bits of precision and injects noise scaled to the lost
// bits. Grounded on chaos-utils' failure_detector threshold-and-log
// pattern and pkg/fuzz.Sampler for the per-event random draw.
package cancellation

import (
	"math"

	"github.com/mca-tools/interflop-go/pkg/backend"
	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
	"github.com/mca-tools/interflop-go/pkg/interrors"
	"github.com/mca-tools/interflop-go/pkg/prng"
	"github.com/mca-tools/interflop-go/pkg/telemetry"
)

// Config is the typed configuration record for a cancellation instance.
type Config struct {
	Tolerance int // minimum cancellation in bits that triggers noise
	Warning   bool
	Seed      uint64
	UseSeed   bool
}

// Backend is a loaded cancellation backend instance.
type Backend struct {
	backend.Instance
	cfg   Config
	rng   prng.State
	count int
}

// New runs pre_init and configure in one step.
func New(logger *telemetry.Logger, onPanic interrors.PanicHandler, cfg Config) *Backend {
	b := &Backend{}
	b.PreInit("cancellation", onPanic, logger)
	b.Configure(cfg)
	return b
}

// Configure validates cfg and moves the backend to Configured.
func (b *Backend) Configure(cfg Config) {
	if cfg.Tolerance < 0 {
		interrors.Invariant(b.OnPanic, "cancellation", "tolerance %d must be >= 0", cfg.Tolerance)
	}
	b.cfg = cfg
	b.rng.Configure(cfg.Seed, cfg.UseSeed)
	b.MarkConfigured()
}

// Init prints the load banner and returns the interface table.
func (b *Backend) Init() *backend.Table {
	b.Logger.LoadBanner("cancellation", map[string]interface{}{
		"tolerance": b.cfg.Tolerance, "warning": b.cfg.Warning,
	})
	b.MarkInitialized()
	return &backend.Table{
		AddFloat32: func(a, c float32) float32 { return b.addSub32("add", a, c, func(x, y float32) float32 { return x + y }) },
		SubFloat32: func(a, c float32) float32 { return b.addSub32("sub", a, c, func(x, y float32) float32 { return x - y }) },
		MulFloat32: func(a, c float32) float32 { return a * c },
		DivFloat32: func(a, c float32) float32 { return a / c },

		AddFloat64: func(a, c float64) float64 { return b.addSub64("add", a, c, func(x, y float64) float64 { return x + y }) },
		SubFloat64: func(a, c float64) float64 { return b.addSub64("sub", a, c, func(x, y float64) float64 { return x - y }) },
		MulFloat64: func(a, c float64) float64 { return a * c },
		DivFloat64: func(a, c float64) float64 { return a / c },

		CastDoubleToFloat: func(x float64) float32 { return float32(x) },

		FmaFloat32: func(a, c, d float32) float32 { return float32(math.FMA(float64(a), float64(c), float64(d))) },
		FmaFloat64: func(a, c, d float64) float64 { return math.FMA(a, c, d) },

		Finalize: b.Finalize,
	}
}

func (b *Backend) addSub32(op string, a, c float32, f func(a, c float32) float32) float32 {
	r := f(a, c)
	if ieeefloat.Classify32(a).IsSpecial() || ieeefloat.Classify32(c).IsSpecial() || ieeefloat.Classify32(r).IsSpecial() {
		return r
	}
	ea, ec := ieeefloat.UnbiasedExponent32(a), ieeefloat.UnbiasedExponent32(c)
	er := ieeefloat.UnbiasedExponent32(r)
	cancellation := maxInt32(ea, ec) - er
	if cancellation < int32(b.cfg.Tolerance) {
		return r
	}
	if b.cfg.Warning {
		b.count++
		b.Logger.Warn("catastrophic cancellation detected", "op", op, "bits", cancellation)
	}
	u := b.rng.NextUnitOpen() - 0.5
	noise := float32(float64(u) * math.Ldexp(1, int(er-cancellation+1)))
	return r + noise
}

func (b *Backend) addSub64(op string, a, c float64, f func(a, c float64) float64) float64 {
	r := f(a, c)
	if ieeefloat.Classify64(a).IsSpecial() || ieeefloat.Classify64(c).IsSpecial() || ieeefloat.Classify64(r).IsSpecial() {
		return r
	}
	ea, ec := ieeefloat.UnbiasedExponent64(a), ieeefloat.UnbiasedExponent64(c)
	er := ieeefloat.UnbiasedExponent64(r)
	cancellation := maxInt32(ea, ec) - er
	if cancellation < int32(b.cfg.Tolerance) {
		return r
	}
	if b.cfg.Warning {
		b.count++
		b.Logger.Warn("catastrophic cancellation detected", "op", op, "bits", cancellation)
	}
	u := b.rng.NextUnitOpen() - 0.5
	noise := u * math.Ldexp(1, int(er-cancellation+1))
	return r + noise
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// Finalize logs the total cancellation count observed, if warnings were
// enabled.
func (b *Backend) Finalize() {
	if b.cfg.Warning {
		b.Logger.Info("cancellation backend finalize", "total_cancellations", b.count)
	}
	b.MarkFinalized()
}

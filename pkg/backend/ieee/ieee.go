// Package ieee implements the reference no-op backend: plain IEEE-754
// arithmetic with optional decimal/binary tracing and operation
// counting (§4.3). Grounded on chaos-utils' failure_detector, whose
// threshold-evaluate-and-record shape becomes trace-or-count-then-pass.
package ieee

import (
	"fmt"
	"math"

	"github.com/mca-tools/interflop-go/pkg/backend"
	"github.com/mca-tools/interflop-go/pkg/interrors"
	"github.com/mca-tools/interflop-go/pkg/telemetry"
)

// Config is the typed configuration record accepted by Configure,
// mirroring the backend's CLI options.
type Config struct {
	Debug                    bool
	DebugBinary              bool
	PrintNewLine             bool
	PrintSubnormalNormalized bool
	NoBackendName            bool
	CountOp                  bool
}

// Backend is a loaded ieee backend instance.
type Backend struct {
	backend.Instance
	cfg      Config
	counters *telemetry.OpCounters
}

// New runs pre_init and configure in one step for callers that already
// have a validated Config (the typed-configuration path of §4.9).
func New(logger *telemetry.Logger, onPanic interrors.PanicHandler, cfg Config) *Backend {
	b := &Backend{}
	b.PreInit("ieee", onPanic, logger)
	b.Configure(cfg)
	return b
}

// Configure validates cfg and moves the backend to Configured.
func (b *Backend) Configure(cfg Config) {
	b.cfg = cfg
	if cfg.CountOp {
		b.counters = telemetry.NewOpCounters("ieee")
	}
	b.MarkConfigured()
}

// Init prints the load banner (unless silenced) and returns the
// interface table.
func (b *Backend) Init() *backend.Table {
	b.Logger.LoadBanner("ieee", map[string]interface{}{
		"debug": b.cfg.Debug, "count_op": b.cfg.CountOp,
	})
	b.MarkInitialized()
	return &backend.Table{
		AddFloat32: func(a, bb float32) float32 { return b.op32("add", a, bb, func(x, y float32) float32 { return x + y }) },
		SubFloat32: func(a, bb float32) float32 { return b.op32("sub", a, bb, func(x, y float32) float32 { return x - y }) },
		MulFloat32: func(a, bb float32) float32 { return b.op32("mul", a, bb, func(x, y float32) float32 { return x * y }) },
		DivFloat32: func(a, bb float32) float32 { return b.op32("div", a, bb, func(x, y float32) float32 { return x / y }) },

		AddFloat64: func(a, bb float64) float64 { return b.op64("add", a, bb, func(x, y float64) float64 { return x + y }) },
		SubFloat64: func(a, bb float64) float64 { return b.op64("sub", a, bb, func(x, y float64) float64 { return x - y }) },
		MulFloat64: func(a, bb float64) float64 { return b.op64("mul", a, bb, func(x, y float64) float64 { return x * y }) },
		DivFloat64: func(a, bb float64) float64 { return b.op64("div", a, bb, func(x, y float64) float64 { return x / y }) },

		CmpFloat32: func(op backend.CmpOp, a, bb float32) bool { return Compare(op, float64(a), float64(bb)) },
		CmpFloat64: func(op backend.CmpOp, a, bb float64) bool { return Compare(op, a, bb) },

		CastDoubleToFloat: func(x float64) float32 { return float32(x) },

		FmaFloat32: func(a, c, d float32) float32 { return b.fma32(a, c, d) },
		FmaFloat64: func(a, c, d float64) float64 { return b.fma64(a, c, d) },

		UserCall: b.userCall,
		Finalize: b.Finalize,
	}
}

func (b *Backend) op32(name string, a, c float32, f func(a, c float32) float32) float32 {
	r := f(a, c)
	b.trace32(name, a, c, r)
	if b.counters != nil {
		b.counters.Inc(name, "binary32")
	}
	return r
}

func (b *Backend) op64(name string, a, c float64, f func(a, c float64) float64) float64 {
	r := f(a, c)
	b.trace64(name, a, c, r)
	if b.counters != nil {
		b.counters.Inc(name, "binary64")
	}
	return r
}

func (b *Backend) fma32(a, c, d float32) float32 {
	r := float32(fmaFloat64(float64(a), float64(c), float64(d)))
	b.trace32("fma", a, c, r)
	if b.counters != nil {
		b.counters.Inc("fma", "binary32")
	}
	return r
}

func (b *Backend) fma64(a, c, d float64) float64 {
	r := fmaFloat64(a, c, d)
	b.trace64("fma", a, c, r)
	if b.counters != nil {
		b.counters.Inc("fma", "binary64")
	}
	return r
}

func (b *Backend) trace32(op string, a, c, r float32) {
	if !b.cfg.Debug && !b.cfg.DebugBinary {
		return
	}
	psn := b.cfg.PrintSubnormalNormalized
	b.emitTrace(op, fmt.Sprintf("%v", a), fmt.Sprintf("%v", c), fmt.Sprintf("%v", r),
		DebugBinary32(a, psn), DebugBinary32(c, psn), DebugBinary32(r, psn))
}

func (b *Backend) trace64(op string, a, c, r float64) {
	if !b.cfg.Debug && !b.cfg.DebugBinary {
		return
	}
	psn := b.cfg.PrintSubnormalNormalized
	b.emitTrace(op, fmt.Sprintf("%v", a), fmt.Sprintf("%v", c), fmt.Sprintf("%v", r),
		DebugBinary64(a, psn), DebugBinary64(c, psn), DebugBinary64(r, psn))
}

func (b *Backend) emitTrace(op, aDec, cDec, rDec, aBin, cBin, rBin string) {
	name := "ieee"
	if b.cfg.NoBackendName {
		name = ""
	}
	suffix := ""
	if b.cfg.PrintNewLine {
		suffix = "\n"
	}
	if b.cfg.DebugBinary {
		b.Logger.Debug("op"+suffix, "backend", name, "op", op, "a", aBin, "b", cBin, "result", rBin)
		return
	}
	b.Logger.Debug("op"+suffix, "backend", name, "op", op, "a", aDec, "b", cDec, "result", rDec)
}

func (b *Backend) userCall(call backend.Call) error {
	switch call.ID {
	case backend.CallSetPrecisionBinary32, backend.CallSetPrecisionBinary64,
		backend.CallSetRangeBinary32, backend.CallSetRangeBinary64, backend.CallInexact:
		// the reference backend has no virtual precision or noise to
		// adjust; these calls are accepted as no-ops rather than errors
		// so instrumented programs can run unmodified against ieee.
		return nil
	default:
		return interrors.Configuration("ieee", "call_id", "unknown call id %d", call.ID)
	}
}

// Finalize emits accumulated counters to the log stream.
func (b *Backend) Finalize() {
	if b.counters != nil {
		var fields []interface{}
		if families, err := b.counters.Registry().Gather(); err == nil {
			for _, mf := range families {
				for _, m := range mf.GetMetric() {
					key := mf.GetName()
					for _, lp := range m.GetLabel() {
						key += "_" + lp.GetValue()
					}
					fields = append(fields, key, m.GetCounter().GetValue())
				}
			}
		}
		b.Logger.Info("ieee backend finalize: operation counts", fields...)
	}
	b.MarkFinalized()
}

// fmaFloat64 is the correctly-rounded FMA primitive the contract
// requires (§4.3); math.FMA already provides single rounding.
func fmaFloat64(a, c, d float64) float64 {
	return math.FMA(a, c, d)
}

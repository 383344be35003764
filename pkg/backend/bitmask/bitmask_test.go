package bitmask_test

import (
	"math"
	"testing"

	"github.com/mca-tools/interflop-go/pkg/backend/bitmask"
	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
	"github.com/mca-tools/interflop-go/pkg/telemetry"
)

func newBackend(t *testing.T, cfg bitmask.Config) *bitmask.Backend {
	t.Helper()
	logger := telemetry.NewLogger(telemetry.LoggerConfig{})
	return bitmask.New(logger, nil, cfg)
}

func TestIEEEModeNoOp(t *testing.T) {
	b := newBackend(t, bitmask.Config{Mode: bitmask.ModeIEEE, Operator: bitmask.OpZero, Precision64: 10})
	table := b.Init()
	got := table.AddFloat64(1.0, 2.0)
	if got != 3.0 {
		t.Errorf("ieee mode changed result: got %v, want 3.0", got)
	}
}

func TestZeroOperatorClearsTrailingBits(t *testing.T) {
	b := newBackend(t, bitmask.Config{Mode: bitmask.ModeOB, Operator: bitmask.OpZero, Precision64: 4})
	table := b.Init()
	r := table.AddFloat64(1.0, 0.0)
	mant := ieeefloat.PmanBits64(r)
	if mant&(ieeefloat.Float64PmanMask>>4) != 0 {
		t.Errorf("zero operator left low bits set: mantissa %x", mant)
	}
}

func TestOneOperatorSetsTrailingBits(t *testing.T) {
	b := newBackend(t, bitmask.Config{Mode: bitmask.ModeOB, Operator: bitmask.OpOne, Precision64: 4})
	table := b.Init()
	r := table.AddFloat64(1.0, 0.0)
	mant := ieeefloat.PmanBits64(r)
	low := ieeefloat.Float64PmanMask >> 4
	if mant&low != low {
		t.Errorf("one operator did not set all low bits: mantissa %x", mant)
	}
}

func TestFullPrecisionNoOp(t *testing.T) {
	b := newBackend(t, bitmask.Config{Mode: bitmask.ModeFull, Operator: bitmask.OpZero, Precision64: ieeefloat.Float64PmanSize})
	table := b.Init()
	a, c := 1.23456789, 9.87654321
	got := table.MulFloat64(a, c)
	want := a * c
	if got != want {
		t.Errorf("full precision mask changed result: got %v, want %v", got, want)
	}
}

func TestSpecialValuesPassThrough(t *testing.T) {
	b := newBackend(t, bitmask.Config{Mode: bitmask.ModeFull, Operator: bitmask.OpZero, Precision64: 4})
	table := b.Init()
	got := table.DivFloat64(1.0, 0.0)
	if got != ieeefloat.Inf64(false) {
		t.Errorf("bitmask perturbed an infinite result: got %v", got)
	}
}

// FTZ must apply only to the final output, never to a masked input
// (§4.4's data flow runs daz -> perturb inputs -> op -> perturb output
// -> ftz). With ModeIB, masking only ever touches inputs, so a backend
// that (incorrectly) flushed masked inputs too would collapse this
// still-subnormal, still-nonzero operand to exact zero.
func TestFTZNotAppliedToMaskedInput64(t *testing.T) {
	b := newBackend(t, bitmask.Config{Mode: bitmask.ModeIB, Operator: bitmask.OpZero, Precision64: 4, FTZ: true})
	table := b.Init()
	x := math.Float64frombits(1 << 51) // subnormal, mantissa's top bit set
	got := table.AddFloat64(x, 0.0)
	if got == 0 {
		t.Errorf("FTZ flushed a masked subnormal input to zero: x=%v got=%v", x, got)
	}
	if got != x {
		t.Errorf("masking at precision 4 should have kept the top mantissa bit: got %v, want %v", got, x)
	}
}

func TestFTZNotAppliedToMaskedInput32(t *testing.T) {
	b := newBackend(t, bitmask.Config{Mode: bitmask.ModeIB, Operator: bitmask.OpZero, Precision32: 4, FTZ: true})
	table := b.Init()
	x := math.Float32frombits(1 << 22) // subnormal, mantissa's top bit set
	got := table.AddFloat32(x, 0.0)
	if got == 0 {
		t.Errorf("FTZ flushed a masked subnormal input to zero: x=%v got=%v", x, got)
	}
	if got != x {
		t.Errorf("masking at precision 4 should have kept the top mantissa bit: got %v, want %v", got, x)
	}
}

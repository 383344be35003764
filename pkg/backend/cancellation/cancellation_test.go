package cancellation_test

import (
	"math"
	"testing"

	"github.com/mca-tools/interflop-go/pkg/backend/cancellation"
	"github.com/mca-tools/interflop-go/pkg/telemetry"
)

func newBackend(t *testing.T, cfg cancellation.Config) *cancellation.Backend {
	t.Helper()
	logger := telemetry.NewLogger(telemetry.LoggerConfig{})
	return cancellation.New(logger, nil, cfg)
}

func TestBelowToleranceUnperturbed(t *testing.T) {
	b := newBackend(t, cancellation.Config{Tolerance: 100, UseSeed: true, Seed: 1})
	table := b.Init()
	got := table.AddFloat64(1.0, 2.0)
	if got != 3.0 {
		t.Errorf("add below tolerance perturbed: got %v, want 3.0", got)
	}
}

func TestCatastrophicCancellationPerturbsResult(t *testing.T) {
	b := newBackend(t, cancellation.Config{Tolerance: 1, UseSeed: true, Seed: 42})
	table := b.Init()
	x := 1.0000000001
	y := 1.0
	got := table.SubFloat64(x, y)
	exact := x - y
	if got == exact {
		t.Errorf("catastrophic cancellation was not perturbed")
	}
}

func TestMulDivPassThrough(t *testing.T) {
	b := newBackend(t, cancellation.Config{Tolerance: 0})
	table := b.Init()
	if got := table.MulFloat64(3.0, 4.0); got != 12.0 {
		t.Errorf("mul perturbed: got %v, want 12.0", got)
	}
}

func TestSpecialValuesUnperturbed(t *testing.T) {
	b := newBackend(t, cancellation.Config{Tolerance: 0})
	table := b.Init()
	got := table.AddFloat64(math.Inf(1), -math.Inf(1))
	if !math.IsNaN(got) {
		t.Errorf("inf-inf should stay NaN, got %v", got)
	}
}

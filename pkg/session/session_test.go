package session_test

import (
	"testing"

	"github.com/mca-tools/interflop-go/pkg/config"
	"github.com/mca-tools/interflop-go/pkg/session"
	"github.com/mca-tools/interflop-go/pkg/telemetry"
)

func TestBuildEachBackend(t *testing.T) {
	logger := telemetry.NewLogger(telemetry.LoggerConfig{})
	for _, name := range []string{"ieee", "bitmask", "cancellation", "mcaquad", "mcaint"} {
		cfg := config.Default()
		cfg.Backend = name
		cfg.UseSeed = true
		cfg.Seed = 1
		loaded, err := session.Build(cfg, logger, nil)
		if err != nil {
			t.Fatalf("Build(%q) error: %v", name, err)
		}
		if loaded.Table.AddFloat64 == nil {
			t.Errorf("%s: AddFloat64 hook missing", name)
		}
		if got := loaded.Table.AddFloat64(1.0, 1.0); got < 1.5 || got > 2.5 {
			t.Errorf("%s: AddFloat64(1,1) = %v, implausible", name, got)
		}
	}
}

func TestBuildUnknownBackend(t *testing.T) {
	logger := telemetry.NewLogger(telemetry.LoggerConfig{})
	cfg := config.Default()
	cfg.Backend = "nonexistent"
	if _, err := session.Build(cfg, logger, nil); err == nil {
		t.Errorf("expected an error for an unknown backend")
	}
}

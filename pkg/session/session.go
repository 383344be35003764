// Package session wires a config.Config's backend selection into a
// loaded backend.Table, mirroring the backend loading contract's
// pre_init -> configure -> init sequence (§4.9) for whichever backend a
// session picked.
package session

import (
	"fmt"

	"github.com/mca-tools/interflop-go/pkg/backend"
	"github.com/mca-tools/interflop-go/pkg/backend/bitmask"
	"github.com/mca-tools/interflop-go/pkg/backend/cancellation"
	"github.com/mca-tools/interflop-go/pkg/backend/ieee"
	"github.com/mca-tools/interflop-go/pkg/backend/mcaint"
	"github.com/mca-tools/interflop-go/pkg/backend/mcaquad"
	"github.com/mca-tools/interflop-go/pkg/config"
	"github.com/mca-tools/interflop-go/pkg/interrors"
	"github.com/mca-tools/interflop-go/pkg/telemetry"
)

// Loaded bundles a backend's interface table with its name, for the
// demo driver's reporting.
type Loaded struct {
	Name  string
	Table *backend.Table
}

// Build constructs and initializes the backend named by cfg.Backend.
func Build(cfg *config.Config, logger *telemetry.Logger, onPanic interrors.PanicHandler) (*Loaded, error) {
	switch cfg.Backend {
	case "ieee":
		b := ieee.New(logger, onPanic, ieee.Config{
			Debug: cfg.IEEE.Debug, DebugBinary: cfg.IEEE.DebugBinary,
			PrintNewLine: cfg.IEEE.PrintNewLine, PrintSubnormalNormalized: cfg.IEEE.PrintSubnormalNormalized,
			NoBackendName: cfg.IEEE.NoBackendName, CountOp: cfg.IEEE.CountOp,
		})
		return &Loaded{Name: "ieee", Table: b.Init()}, nil

	case "bitmask":
		mode, err := bitmaskMode(cfg.Bitmask.Mode)
		if err != nil {
			return nil, err
		}
		op, err := bitmaskOperator(cfg.Bitmask.Operator)
		if err != nil {
			return nil, err
		}
		b := bitmask.New(logger, onPanic, bitmask.Config{
			Mode: mode, Operator: op,
			Precision32: cfg.Bitmask.Precision32, Precision64: cfg.Bitmask.Precision64,
			DAZ: cfg.Bitmask.DAZ, FTZ: cfg.Bitmask.FTZ,
			Seed: cfg.Seed, UseSeed: cfg.UseSeed,
		})
		return &Loaded{Name: "bitmask", Table: b.Init()}, nil

	case "cancellation":
		b := cancellation.New(logger, onPanic, cancellation.Config{
			Tolerance: cfg.Cancellation.Tolerance, Warning: cfg.Cancellation.Warning,
			Seed: cfg.Seed, UseSeed: cfg.UseSeed,
		})
		return &Loaded{Name: "cancellation", Table: b.Init()}, nil

	case "mcaquad":
		mode, err := mcaMode(cfg.MCAQuad.Mode)
		if err != nil {
			return nil, err
		}
		errMode, err := errorMode(cfg.MCAQuad.ErrorMode)
		if err != nil {
			return nil, err
		}
		b := mcaquad.New(logger, onPanic, mcaquad.Config{
			Mode: mcaquad.Mode(mode), ErrorMode: mcaquad.ErrorMode(errMode),
			Precision32: cfg.MCAQuad.Precision32, Precision64: cfg.MCAQuad.Precision64,
			AbsErrExp32: cfg.MCAQuad.AbsErrExp32, AbsErrExp64: cfg.MCAQuad.AbsErrExp64,
			Sparsity: cfg.MCAQuad.Sparsity, DAZ: cfg.MCAQuad.DAZ, FTZ: cfg.MCAQuad.FTZ,
			Seed: cfg.Seed, UseSeed: cfg.UseSeed,
		})
		return &Loaded{Name: "mcaquad", Table: b.Init()}, nil

	case "mcaint":
		mode, err := mcaMode(cfg.MCAInt.Mode)
		if err != nil {
			return nil, err
		}
		b := mcaint.New(logger, onPanic, mcaint.Config{
			Mode: mcaint.Mode(mode), Sparsity: cfg.MCAInt.Sparsity,
			DAZ: cfg.MCAInt.DAZ, FTZ: cfg.MCAInt.FTZ,
			Seed: cfg.Seed, UseSeed: cfg.UseSeed,
		})
		return &Loaded{Name: "mcaint", Table: b.Init()}, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func bitmaskMode(s string) (bitmask.Mode, error) {
	switch s {
	case "ieee":
		return bitmask.ModeIEEE, nil
	case "ib":
		return bitmask.ModeIB, nil
	case "ob", "":
		return bitmask.ModeOB, nil
	case "full":
		return bitmask.ModeFull, nil
	default:
		return 0, fmt.Errorf("bitmask.mode %q is not one of ieee|ib|ob|full", s)
	}
}

func bitmaskOperator(s string) (bitmask.Operator, error) {
	switch s {
	case "zero", "":
		return bitmask.OpZero, nil
	case "one":
		return bitmask.OpOne, nil
	case "rand":
		return bitmask.OpRand, nil
	default:
		return 0, fmt.Errorf("bitmask.operator %q is not one of zero|one|rand", s)
	}
}

// mcaMode is shared by mcaquad and mcaint, whose Mode types share a
// vocabulary (ieee|pb|rr|mca) but are distinct Go types; callers convert
// this int back to their own Mode type.
func mcaMode(s string) (int, error) {
	switch s {
	case "ieee":
		return 0, nil
	case "pb":
		return 1, nil
	case "rr":
		return 2, nil
	case "mca", "":
		return 3, nil
	default:
		return 0, fmt.Errorf("mode %q is not one of ieee|pb|rr|mca", s)
	}
}

func errorMode(s string) (int, error) {
	switch s {
	case "rel", "":
		return 0, nil
	case "abs":
		return 1, nil
	case "all":
		return 2, nil
	default:
		return 0, fmt.Errorf("error_mode %q is not one of rel|abs|all", s)
	}
}

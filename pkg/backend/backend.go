// Package backend defines the interface table every perturbation backend
// exposes and the pre_init -> configure/cli -> init -> run -> finalize
// lifecycle that loads it (§4.9, §6). Grounded on chaos-utils' injector
// dispatch-by-kind pattern and orchestrator state machine, generalized
// from a single test-run lifecycle to a per-backend loading contract.
package backend

import (
	"github.com/mca-tools/interflop-go/pkg/interrors"
	"github.com/mca-tools/interflop-go/pkg/telemetry"
)

// LifecycleState mirrors the loading contract's stages.
type LifecycleState int

const (
	StateUnloaded LifecycleState = iota
	StatePreInit
	StateConfigured
	StateInitialized
	StateFinalized
)

func (s LifecycleState) String() string {
	switch s {
	case StateUnloaded:
		return "UNLOADED"
	case StatePreInit:
		return "PRE_INIT"
	case StateConfigured:
		return "CONFIGURED"
	case StateInitialized:
		return "INITIALIZED"
	case StateFinalized:
		return "FINALIZED"
	default:
		return "UNKNOWN"
	}
}

// CallID enumerates the well-known user_call operations (§6). Modeled as
// a sum type (Call) rather than C-style varargs.
type CallID int

const (
	CallInexact CallID = iota + 1
	CallSetPrecisionBinary32
	CallSetPrecisionBinary64
	CallSetRangeBinary32
	CallSetRangeBinary64
)

// TypeTag identifies the operand width for INEXACT and the interface
// table's per-type hooks.
type TypeTag int

const (
	TypeFloat32 TypeTag = iota
	TypeFloat64
	TypeFloat128
)

// Call is the argument payload for user_call, one field set populated
// per CallID.
type Call struct {
	ID CallID

	// CallInexact
	Type      TypeTag
	Float32   *float32
	Float64   *float64
	Precision int // 0 or negative means "offset from the active precision"

	// CallSetPrecisionBinary32/64, CallSetRangeBinary32/64
	IntArg int
}

// Table is the per-backend interface table (§6). Every entry may be nil
// if the backend opts out; callers must check before invoking.
type Table struct {
	AddFloat32 func(a, b float32) float32
	SubFloat32 func(a, b float32) float32
	MulFloat32 func(a, b float32) float32
	DivFloat32 func(a, b float32) float32

	AddFloat64 func(a, b float64) float64
	SubFloat64 func(a, b float64) float64
	MulFloat64 func(a, b float64) float64
	DivFloat64 func(a, b float64) float64

	CmpFloat32 func(op CmpOp, a, b float32) bool
	CmpFloat64 func(op CmpOp, a, b float64) bool

	CastDoubleToFloat func(x float64) float32

	FmaFloat32 func(a, b, c float32) float32
	FmaFloat64 func(a, b, c float64) float64

	EnterFunction func(name string)
	ExitFunction  func(name string)

	UserCall func(call Call) error

	Finalize func()
}

// CmpOp enumerates the 16 IEEE comparison predicates supplemented into
// the ieee backend (§ supplemental features): every combination of
// ordered/unordered and {eq,lt,le,gt,ge,neq}, the ord/unord tests and the
// two unconditional predicates, matching the fcmp predicate family.
type CmpOp int

const (
	CmpEQ CmpOp = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
	CmpOrd
	CmpUnord
	CmpUEQ
	CmpUNE
	CmpULT
	CmpULE
	CmpUGT
	CmpUGE
	CmpTrue
	CmpFalse
)

// Instance is a loaded backend: its table, context handle, lifecycle
// state, logger and panic handler. Backends embed Instance and add their
// own context fields (mode, seed, virtual precision, ...).
type Instance struct {
	Name    string
	State   LifecycleState
	Logger  *telemetry.Logger
	OnPanic interrors.PanicHandler
}

// PreInit moves Unloaded -> PreInit, registering the panic handler and
// logger the way pre_init(panic_handler, log_stream, &ctx) does.
func (i *Instance) PreInit(name string, handler interrors.PanicHandler, logger *telemetry.Logger) {
	i.Name = name
	i.OnPanic = handler
	i.Logger = logger
	i.State = StatePreInit
}

// MarkConfigured moves PreInit -> Configured; callers invoke this after
// cli() or configure() validates and populates backend-specific fields.
func (i *Instance) MarkConfigured() {
	i.requireState(StatePreInit)
	i.State = StateConfigured
}

// MarkInitialized moves Configured -> Initialized, after init() prints
// its load banner (unless silenced) and lazily seeds the RNG.
func (i *Instance) MarkInitialized() {
	i.requireState(StateConfigured)
	i.State = StateInitialized
}

// MarkFinalized moves Initialized -> Finalized; hooks must not be called
// again afterward.
func (i *Instance) MarkFinalized() {
	i.State = StateFinalized
}

func (i *Instance) requireState(want LifecycleState) {
	if i.State != want {
		interrors.Invariant(i.OnPanic, i.Name, "lifecycle violation: in state %s, expected %s", i.State, want)
	}
}

package vprec_test

import (
	"math"
	"testing"

	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
	"github.com/mca-tools/interflop-go/pkg/vprec"
)

func TestRound64FullPrecisionNoOp(t *testing.T) {
	p := vprec.Params{Precision: ieeefloat.Float64PmanSize, RangeBits: ieeefloat.Float64ExpSize, UseRel: true}
	x := 3.14159265358979
	if got := vprec.Round64(x, p); got != x {
		t.Errorf("Round64 at full precision changed value: got %v, want %v", got, x)
	}
}

func TestRound64TruncatesMantissa(t *testing.T) {
	p := vprec.Params{Precision: 1, RangeBits: ieeefloat.Float64ExpSize, UseRel: true}
	// 1.75 = 1.11 binary; at 1 bit of precision the tie rounds up to 2.0.
	got := vprec.Round64(1.75, p)
	if got != 2.0 {
		t.Errorf("Round64(1.75, p=1) = %v, want 2.0", got)
	}
	// 1.5 = 1.1 binary is already exactly representable at 1 bit.
	if got := vprec.Round64(1.5, p); got != 1.5 {
		t.Errorf("Round64(1.5, p=1) = %v, want 1.5 (exact)", got)
	}
}

func TestRound64Overflow(t *testing.T) {
	p := vprec.Params{Precision: 10, RangeBits: 3, UseRel: true} // emax = 3
	got := vprec.Round64(1e10, p)
	if !math.IsInf(got, 1) {
		t.Errorf("Round64 overflow should saturate to +Inf, got %v", got)
	}
}

func TestRound64NaNInfPassThrough(t *testing.T) {
	p := vprec.Params{Precision: 10, RangeBits: 8, UseRel: true}
	if got := vprec.Round64(math.NaN(), p); !math.IsNaN(got) {
		t.Errorf("Round64(NaN) = %v, want NaN", got)
	}
	if got := vprec.Round64(math.Inf(1), p); !math.IsInf(got, 1) {
		t.Errorf("Round64(+Inf) = %v, want +Inf", got)
	}
}

func TestRound64AbsoluteExact(t *testing.T) {
	p := vprec.Params{RangeBits: ieeefloat.Float64ExpSize, UseAbs: true, AbsErrExp: 0}
	got := vprec.Round64(1.0, p) // e=0, absErrExp=0 -> d=0 -> exactly 2^0
	if got != 1.0 {
		t.Errorf("Round64 absolute-exact case = %v, want 1.0", got)
	}
}

func TestRound64DenormalFlushesOnDAZFTZ(t *testing.T) {
	p := vprec.Params{Precision: 20, RangeBits: 4, DAZ: true, UseRel: true} // narrow range forces denormal path
	got := vprec.Round64(1e-10, p)
	if got != 0 {
		t.Errorf("Round64 with DAZ below target emin should flush to zero, got %v", got)
	}
}

func TestRound32Basic(t *testing.T) {
	p := vprec.Params{Precision: ieeefloat.Float32PmanSize, RangeBits: ieeefloat.Float32ExpSize, UseRel: true}
	x := float32(2.718281828)
	if got := vprec.Round32(x, p); got != x {
		t.Errorf("Round32 at full precision changed value: got %v, want %v", got, x)
	}
}

func TestRound128Basic(t *testing.T) {
	p := vprec.Params{Precision: ieeefloat.Float128PmanSize, RangeBits: ieeefloat.Float128ExpSize, UseRel: true}
	x := ieeefloat.FastPow2_128(5)
	if got := vprec.Round128(x, p); got != x {
		t.Errorf("Round128 at full precision changed value: got %+v, want %+v", got, x)
	}
}

func TestRound128TruncatesMantissa(t *testing.T) {
	p := vprec.Params{Precision: 1, RangeBits: ieeefloat.Float128ExpSize, UseRel: true}
	// 1.75 = 1.11 binary128; at 1 bit of precision the tie rounds up to 2.0.
	x := ieeefloat.WithMantissa128(ieeefloat.FastPow2_128(0), (1<<47)|(1<<46), 0)
	got := vprec.Round128(x, p)
	want := ieeefloat.FastPow2_128(1)
	if got != want {
		t.Errorf("Round128(1.75, p=1) = %+v, want %+v", got, want)
	}
}

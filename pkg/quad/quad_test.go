package quad_test

import (
	"math"
	"testing"

	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
	"github.com/mca-tools/interflop-go/pkg/quad"
)

func TestRoundTripFloat64(t *testing.T) {
	values := []float64{0, 1, -1, 1.5, 3.14159265358979, 1e300, 1e-300, math.MaxFloat64, math.SmallestNonzeroFloat64}
	for _, v := range values {
		x := quad.FromFloat64(v)
		got := quad.ToFloat64(x)
		if got != v {
			t.Errorf("round trip %v: got %v", v, got)
		}
	}
}

func TestAddMatchesFloat64(t *testing.T) {
	tests := []struct{ a, b float64 }{
		{1.0, 2.0},
		{0.1, 0.2},
		{1e300, 1e300},
		{-1.5, 1.5},
		{123456.789, -0.000123},
	}
	for _, tt := range tests {
		got := quad.ToFloat64(quad.Add(quad.FromFloat64(tt.a), quad.FromFloat64(tt.b)))
		want := tt.a + tt.b
		if got != want {
			t.Errorf("Add(%v,%v) = %v, want %v", tt.a, tt.b, got, want)
		}
	}
}

func TestMulDivMatchFloat64(t *testing.T) {
	a, b := quad.FromFloat64(7.5), quad.FromFloat64(3.25)
	if got, want := quad.ToFloat64(quad.Mul(a, b)), 7.5*3.25; got != want {
		t.Errorf("Mul = %v, want %v", got, want)
	}
	if got, want := quad.ToFloat64(quad.Div(a, b)), 7.5/3.25; got != want {
		t.Errorf("Div = %v, want %v", got, want)
	}
}

func TestFMASingleRounding(t *testing.T) {
	a := quad.FromFloat64(1.0000000000000002)
	b := quad.FromFloat64(1.0000000000000002)
	c := quad.FromFloat64(-1.0)
	got := quad.ToFloat64(quad.FMA(a, b, c))
	want := math.FMA(1.0000000000000002, 1.0000000000000002, -1.0)
	if got != want {
		t.Errorf("FMA = %v, want %v", got, want)
	}
}

func TestSpecialValues(t *testing.T) {
	inf := ieeefloat.Inf128(false)
	negInf := ieeefloat.Inf128(true)
	zero := ieeefloat.SignedZero128(false)
	one := quad.FromFloat64(1.0)

	if got := quad.Add(inf, negInf); ieeefloat.Classify128(got) != ieeefloat.NaN {
		t.Errorf("inf + -inf should be NaN, got %+v", got)
	}
	if got := quad.Mul(inf, zero); ieeefloat.Classify128(got) != ieeefloat.NaN {
		t.Errorf("inf * 0 should be NaN, got %+v", got)
	}
	if got := quad.Div(one, zero); ieeefloat.Classify128(got) != ieeefloat.Inf {
		t.Errorf("1/0 should be Inf, got %+v", got)
	}
	if got := quad.Add(one, inf); ieeefloat.Classify128(got) != ieeefloat.Inf {
		t.Errorf("1 + inf should be Inf, got %+v", got)
	}
}

func TestSubnormalRoundTrip(t *testing.T) {
	x := math.Float64frombits(3) // small subnormal
	got := quad.ToFloat64(quad.FromFloat64(x))
	if got != x {
		t.Errorf("subnormal round trip: got %v want %v", got, x)
	}
}

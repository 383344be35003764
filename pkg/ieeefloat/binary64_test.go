package ieeefloat_test

import (
	"math"
	"testing"

	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
)

func TestClassify64(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		want ieeefloat.Class
	}{
		{"zero", 0, ieeefloat.Zero},
		{"normal", 1.5, ieeefloat.Normal},
		{"subnormal", math.Float64frombits(1), ieeefloat.Subnormal},
		{"inf", math.Inf(1), ieeefloat.Inf},
		{"nan", math.NaN(), ieeefloat.NaN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ieeefloat.Classify64(tt.x); got != tt.want {
				t.Errorf("Classify64(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestIsRepresentableAt64(t *testing.T) {
	if !ieeefloat.IsRepresentableAt64(1.0, 1) {
		t.Error("1.0 should be representable at precision 1")
	}
	x := ieeefloat.WithMantissa64(1.0, 1)
	if ieeefloat.IsRepresentableAt64(x, ieeefloat.Float64PmanSize-1) {
		t.Error("value with lsb set should not be representable one bit short of full precision")
	}
}

func TestCtz64Zero(t *testing.T) {
	if got := ieeefloat.Ctz64(0); got != ieeefloat.Float64PmanSize {
		t.Errorf("Ctz64(0) = %d, want %d", got, ieeefloat.Float64PmanSize)
	}
}

func TestFastPow2_64(t *testing.T) {
	for _, e := range []int32{-52, -1, 0, 1, 52, 1000} {
		got := ieeefloat.FastPow2_64(e)
		want := math.Pow(2, float64(e))
		if got != want {
			t.Errorf("FastPow2_64(%d) = %v, want %v", e, got, want)
		}
	}
}

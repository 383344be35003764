package ieeefloat_test

import (
	"math"
	"testing"

	"github.com/mca-tools/interflop-go/pkg/ieeefloat"
)

func TestClassify32(t *testing.T) {
	tests := []struct {
		name string
		x    float32
		want ieeefloat.Class
	}{
		{"zero", 0, ieeefloat.Zero},
		{"neg zero", float32(math.Copysign(0, -1)), ieeefloat.Zero},
		{"normal", 1.5, ieeefloat.Normal},
		{"subnormal", math.Float32frombits(1), ieeefloat.Subnormal},
		{"inf", float32(math.Inf(1)), ieeefloat.Inf},
		{"neg inf", float32(math.Inf(-1)), ieeefloat.Inf},
		{"nan", float32(math.NaN()), ieeefloat.NaN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ieeefloat.Classify32(tt.x); got != tt.want {
				t.Errorf("Classify32(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestIsRepresentableAt32(t *testing.T) {
	// 1.0 has a zero mantissa: representable at any precision.
	if !ieeefloat.IsRepresentableAt32(1.0, 1) {
		t.Error("1.0 should be representable at precision 1")
	}
	// A value with its lowest mantissa bit set needs full precision.
	x := ieeefloat.WithMantissa32(1.0, 1)
	if ieeefloat.IsRepresentableAt32(x, ieeefloat.Float32PmanSize-1) {
		t.Error("value with lsb set should not be representable one bit short of full precision")
	}
	if !ieeefloat.IsRepresentableAt32(x, ieeefloat.Float32PmanSize) {
		t.Error("value with lsb set should be representable at full precision")
	}
}

func TestDazFtz32(t *testing.T) {
	sub := math.Float32frombits(1)
	if got := ieeefloat.Daz32(sub); got != 0 {
		t.Errorf("Daz32(subnormal) = %v, want 0", got)
	}
	negSub := math.Float32frombits(1 | (1 << 31))
	got := ieeefloat.Daz32(negSub)
	if got != 0 || math.Signbit(float64(got)) != true {
		t.Errorf("Daz32(negative subnormal) = %v, want signed -0", got)
	}
	if got := ieeefloat.Ftz32(1.5); got != 1.5 {
		t.Errorf("Ftz32(normal) should pass through, got %v", got)
	}
}

func TestFastPow2_32(t *testing.T) {
	for _, e := range []int32{-10, -1, 0, 1, 10, 100} {
		got := ieeefloat.FastPow2_32(e)
		want := float32(math.Pow(2, float64(e)))
		if got != want {
			t.Errorf("FastPow2_32(%d) = %v, want %v", e, got, want)
		}
	}
}

func TestUnbiasedExponent32(t *testing.T) {
	if e := ieeefloat.UnbiasedExponent32(1.0); e != 0 {
		t.Errorf("UnbiasedExponent32(1.0) = %d, want 0", e)
	}
	if e := ieeefloat.UnbiasedExponent32(4.0); e != 2 {
		t.Errorf("UnbiasedExponent32(4.0) = %d, want 2", e)
	}
}

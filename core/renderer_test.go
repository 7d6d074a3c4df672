package core

import (
	"math"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestClampImageCount(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name     string
		min, max uint32
		want     uint32
	}{{
		name: "preferred count inside bounds",
		min:  2, max: 8,
		want: 3,
	}, {
		name: "raised to minimum",
		min:  4, max: 4,
		want: 4,
	}, {
		name: "zero maximum means unbounded",
		min:  1, max: 0,
		want: 3,
	}, {
		name: "lowered to maximum",
		min:  1, max: 2,
		want: 2,
	}, {
		name: "unbounded with high minimum",
		min:  5, max: 0,
		want: 5,
	}}

	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			c.Assert(clampImageCount(test.min, test.max), qt.Equals, test.want)
		})
	}
}

func TestClearFlash(t *testing.T) {
	c := qt.New(t)

	c.Assert(clearFlash(0), qt.Equals, float32(0))

	// the flash follows a rectified sine over the frame counter
	for _, frame := range []uint64{1, 50, 78, 157, 314, 1000, 123456} {
		want := float32(math.Abs(math.Sin(float64(frame) / 50)))
		c.Assert(clearFlash(frame), qt.Equals, want)
	}
}

func TestClearFlashStaysInUnitRange(t *testing.T) {
	for frame := uint64(0); frame < 100000; frame++ {
		flash := clearFlash(frame)
		if flash < 0 || flash > 1 {
			t.Fatalf("flash %f out of range at frame %d", flash, frame)
		}
	}
}

func TestFrameNumberStartsAtZero(t *testing.T) {
	var renderer VulkanRenderer
	if renderer.FrameNumber() != 0 {
		t.Error("frame counter must start at zero")
	}
}

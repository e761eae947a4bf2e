package restore

import (
	"math"
	"testing"
)

func nanFilled(w, h int, v float32) []float32 {
	data := make([]float32, w*h)
	for i := range data {
		data[i] = v
	}
	return data
}

func TestContinuousNoOpWhenAllValid(t *testing.T) {
	data := nanFilled(20, 20, 5.0)
	got := Continuous(data, 20, 20, 8, 5)
	for i, v := range got {
		if v != 5.0 {
			t.Fatalf("cell %d = %v, want 5.0 (no-op on fully valid grid)", i, v)
		}
	}
}

func TestContinuousSingleHoleFilledWithAverage(t *testing.T) {
	const w, h = 10, 10
	data := nanFilled(w, h, 5.0)
	data[5*w+5] = float32(math.NaN())

	got := Continuous(data, w, h, 8, 5)
	if v := got[5*w+5]; v != 5.0 {
		t.Errorf("single hole filled to %v, want 5.0 (average of constant 5.0 neighborhood)", v)
	}
}

func TestContinuousIdempotent(t *testing.T) {
	const w, h = 30, 30
	data := nanFilled(w, h, 1.0)
	for y := 10; y < 15; y++ {
		for x := 10; x < 15; x++ {
			data[y*w+x] = float32(math.NaN())
		}
	}
	once := Continuous(append([]float32(nil), data...), w, h, 8, 5)
	twice := Continuous(append([]float32(nil), once...), w, h, 8, 5)
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("cell %d: once=%v twice=%v, want idempotent", i, once[i], twice[i])
		}
	}
}

func TestContinuousLargeVoidBlock(t *testing.T) {
	const w, h = 100, 100
	data := nanFilled(w, h, 5.0)
	for y := 45; y < 55; y++ {
		for x := 45; x < 55; x++ {
			data[y*w+x] = float32(math.NaN())
		}
	}
	got := Continuous(data, w, h, 8, 5)
	for y := 45; y < 55; y++ {
		for x := 45; x < 55; x++ {
			if v := got[y*w+x]; v != 5.0 {
				t.Fatalf("cell (%d,%d) = %v, want 5.0", x, y, v)
			}
		}
	}
}

func byteFilled(w, h int, v byte) []byte {
	data := make([]byte, w*h)
	for i := range data {
		data[i] = v
	}
	return data
}

const discreteAbsent = 255

func TestDiscreteNoOpWhenAllValid(t *testing.T) {
	data := byteFilled(20, 20, 2)
	got := Discrete(data, 20, 20, 8, 5, discreteAbsent)
	for i, v := range got {
		if v != 2 {
			t.Fatalf("cell %d = %v, want 2 (no-op)", i, v)
		}
	}
}

func TestDiscreteSingleHoleFilledWithMode(t *testing.T) {
	const w, h = 5, 5
	data := byteFilled(w, h, 2)
	data[2*w+2] = discreteAbsent

	got := Discrete(data, w, h, 8, 5, discreteAbsent)
	if v := got[2*w+2]; v != 2 {
		t.Errorf("centre = %v, want 2 (mode of Moore stencil)", v)
	}
}

func TestDiscreteIdempotent(t *testing.T) {
	const w, h = 30, 30
	data := byteFilled(w, h, 1)
	for y := 10; y < 15; y++ {
		for x := 10; x < 15; x++ {
			data[y*w+x] = discreteAbsent
		}
	}
	once := Discrete(append([]byte(nil), data...), w, h, 8, 5, discreteAbsent)
	twice := Discrete(append([]byte(nil), once...), w, h, 8, 5, discreteAbsent)
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("cell %d: once=%v twice=%v, want idempotent", i, once[i], twice[i])
		}
	}
}

func TestMedianSmoothPassesThroughEdges(t *testing.T) {
	const w, h = 5, 5
	data := nanFilled(w, h, 3.0)
	data[0] = 999
	out := MedianSmooth(data, w, h)
	if out[0] != 999 {
		t.Errorf("edge cell changed to %v, want unchanged 999", out[0])
	}
}

func TestMedianSmoothInteriorTakesTrueMedian(t *testing.T) {
	const w, h = 3, 3
	data := []float32{
		1, 2, 3,
		4, 100, 6,
		7, 8, 9,
	}
	out := MedianSmooth(data, w, h)
	// sorted window {1,2,3,4,6,7,8,9,100}, median index 4 -> 6
	if out[4] != 6 {
		t.Errorf("center median = %v, want 6", out[4])
	}
}

package physics

import (
	"math"
	"sync/atomic"

	"github.com/lattice-gis/terrainfuse/internal/progress"
)

// absentDownstream marks a cell with no qualifying drain target: border
// cells, absent-elevation cells, and local minima/plateaus.
const absentDownstream = -1

// accumulateFlow runs the three-phase D8 single-flow-direction
// accumulation: a parallel downstream map, a parallel in-degree count, and
// a sequential topological worklist drain.
func accumulateFlow(elevation []float32, w, h int) []uint32 {
	n := w * h
	downstream := computeDownstream(elevation, w, h)
	indeg := computeInDegree(downstream, n)
	return drainAccumulation(downstream, indeg, elevation, w, h)
}

// computeDownstream finds, for every interior non-absent cell, the Moore
// neighbor with strictly the lowest elevation; border and absent cells, and
// cells with no strictly-lower neighbor, get absentDownstream.
func computeDownstream(elevation []float32, w, h int) []int32 {
	n := w * h
	downstream := make([]int32, n)
	progress.Parallel(h, 0, func(rowStart, rowEnd int) {
		for y := rowStart; y < rowEnd; y++ {
			for x := 0; x < w; x++ {
				idx := y*w + x
				if y == 0 || y == h-1 || x == 0 || x == w-1 || math.IsNaN(float64(elevation[idx])) {
					downstream[idx] = absentDownstream
					continue
				}

				best := int32(absentDownstream)
				bestVal := elevation[idx]
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						nidx := (y+dy)*w + (x + dx)
						nv := elevation[nidx]
						if math.IsNaN(float64(nv)) {
							continue
						}
						if nv < bestVal {
							bestVal = nv
							best = int32(nidx)
						}
					}
				}
				downstream[idx] = best
			}
		}
	})
	return downstream
}

// computeInDegree counts, for every cell, how many cells drain directly
// into it. Each cell has at most 8 potential contributors, so the counters
// never exceed 8.
func computeInDegree(downstream []int32, n int) []int32 {
	indeg := make([]int32, n)
	progress.Parallel(n, 0, func(start, end int) {
		for i := start; i < end; i++ {
			if j := downstream[i]; j != absentDownstream {
				atomic.AddInt32(&indeg[j], 1)
			}
		}
	})
	return indeg
}

// drainAccumulation seeds every cell with accumulation 1, pushes
// zero-in-degree interior non-absent cells onto a stack, and drains the
// worklist:
// each pop adds its accumulation to its downstream cell and, if that drops
// the downstream's in-degree to zero, pushes it in turn.
func drainAccumulation(downstream []int32, indeg []int32, elevation []float32, w, h int) []uint32 {
	n := w * h
	acc := make([]uint32, n)
	for i := range acc {
		acc[i] = 1
	}

	stack := make([]int32, 0, n)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			idx := y*w + x
			if math.IsNaN(float64(elevation[idx])) {
				continue
			}
			if indeg[idx] == 0 {
				stack = append(stack, int32(idx))
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		j := downstream[i]
		if j == absentDownstream {
			continue
		}
		acc[j] += acc[i]
		indeg[j]--
		if indeg[j] == 0 {
			stack = append(stack, j)
		}
	}

	return acc
}

// computeTWI derives the topographic wetness index from accumulation and
// slope: ln(acc / max(tan(slope), 1e-3)), floored at zero.
func computeTWI(acc []uint32, slope, twi []float32) {
	const minTan = 1e-3
	for i := range twi {
		tanSlope := math.Tan(float64(slope[i]))
		if tanSlope < minTan {
			tanSlope = minTan
		}
		v := math.Log(float64(acc[i]) / tanSlope)
		if v < 0 {
			v = 0
		}
		twi[i] = float32(v)
	}
}

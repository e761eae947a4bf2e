// Package restore implements the multi-resolution void-filling engine: a
// continuous (average-reducer) pipeline for float layers and a discrete
// (mode-reducer) pipeline for the land-cover layer, sharing one pyramid
// recursion and iterative in-fill core.
package restore

import (
	"math"
	"sync/atomic"

	"github.com/lattice-gis/terrainfuse/internal/progress"
)

// DefaultUnitLen is the pyramid recursion base side.
const DefaultUnitLen = 256

// DefaultSmoothIterations is the iterate_core budget applied after each
// level's upsample-merge.
const DefaultSmoothIterations = 5

// baseIterations is the iterate_core budget used at the pyramid's base
// case, where no coarser level exists to merge from.
const baseIterations = 256

func isAbsentFloat(v float32) bool { return math.IsNaN(float64(v)) }

// Continuous fills a float32 grid's NaN cells in place-equivalent fashion,
// returning the restored grid. w, h must match len(data) == w*h.
func Continuous(data []float32, w, h, unitLen, smoothIterations int) []float32 {
	if unitLen <= 0 {
		unitLen = DefaultUnitLen
	}
	if smoothIterations <= 0 {
		smoothIterations = DefaultSmoothIterations
	}
	return restoreContinuous(data, w, h, unitLen, smoothIterations)
}

func restoreContinuous(data []float32, w, h, unitLen, smoothIterations int) []float32 {
	if w < unitLen || h < unitLen {
		return iterateCoreFloat(data, w, h, baseIterations, averageReducer)
	}

	cw, ch := (w+1)/2, (h+1)/2
	coarse := downsampleAverage(data, w, h, cw, ch)
	coarse = restoreContinuous(coarse, cw, ch, unitLen, smoothIterations)

	merged := upsampleMergeBilinear(data, w, h, coarse, cw, ch)
	return iterateCoreFloat(merged, w, h, smoothIterations, averageReducer)
}

// averageReducer averages the valid values among the 8 Moore neighbors of
// (x, y) in a w x h grid. Returns NaN if none are valid.
func averageReducer(data []float32, w, h, x, y int) float32 {
	var sum float32
	var count int
	forMooreNeighbors(w, h, x, y, func(nx, ny int) {
		v := data[ny*w+nx]
		if !isAbsentFloat(v) {
			sum += v
			count++
		}
	})
	if count == 0 {
		return float32(math.NaN())
	}
	return sum / float32(count)
}

// forMooreNeighbors invokes fn for each of the up-to-8 neighbors of (x, y)
// that lie within [0,w) x [0,h).
func forMooreNeighbors(w, h, x, y int, fn func(nx, ny int)) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			fn(nx, ny)
		}
	}
}

// iterateCoreFloat runs up to budget double-buffered in-fill iterations.
// Each iteration copies valid source cells through unchanged and applies
// reduce to the Moore neighborhood of each absent cell; an iteration with
// no writes is terminal. The most recently written buffer is returned
// regardless of budget parity.
func iterateCoreFloat(data []float32, w, h, budget int, reduce func([]float32, int, int, int, int) float32) []float32 {
	cur := append([]float32(nil), data...)
	aux := make([]float32, len(data))

	for iter := 0; iter < budget; iter++ {
		var changed atomic.Bool
		progress.Parallel(h, 0, func(rowStart, rowEnd int) {
			localChanged := false
			for y := rowStart; y < rowEnd; y++ {
				for x := 0; x < w; x++ {
					idx := y*w + x
					v := cur[idx]
					if !isAbsentFloat(v) {
						aux[idx] = v
						continue
					}
					filled := reduce(cur, w, h, x, y)
					aux[idx] = filled
					if !isAbsentFloat(filled) {
						localChanged = true
					}
				}
			}
			if localChanged {
				changed.Store(true)
			}
		})
		cur, aux = aux, cur
		if !changed.Load() {
			break
		}
	}
	return cur
}

// downsampleAverage builds a cw x ch level by averaging each 2x2 block of
// data, skipping absent contributors; a block with no valid contributor
// yields an absent coarse cell.
func downsampleAverage(data []float32, w, h, cw, ch int) []float32 {
	out := make([]float32, cw*ch)
	progress.Parallel(ch, 0, func(rowStart, rowEnd int) {
		for cy := rowStart; cy < rowEnd; cy++ {
			for cx := 0; cx < cw; cx++ {
				var sum float32
				var count int
				for dy := 0; dy < 2; dy++ {
					y := cy*2 + dy
					if y >= h {
						continue
					}
					for dx := 0; dx < 2; dx++ {
						x := cx*2 + dx
						if x >= w {
							continue
						}
						v := data[y*w+x]
						if !isAbsentFloat(v) {
							sum += v
							count++
						}
					}
				}
				if count == 0 {
					out[cy*cw+cx] = float32(math.NaN())
				} else {
					out[cy*cw+cx] = sum / float32(count)
				}
			}
		}
	})
	return out
}

// upsampleMergeBilinear fills every still-absent cell of the fine grid with
// a bilinear sample from the coarse grid, weighted by corner validity, and
// leaves already-valid fine cells untouched.
func upsampleMergeBilinear(fine []float32, w, h int, coarse []float32, cw, ch int) []float32 {
	out := append([]float32(nil), fine...)
	progress.Parallel(h, 0, func(rowStart, rowEnd int) {
		for y := rowStart; y < rowEnd; y++ {
			for x := 0; x < w; x++ {
				idx := y*w + x
				if !isAbsentFloat(out[idx]) {
					continue
				}
				u := (float64(x)+0.5)/2 - 0.5
				v := (float64(y)+0.5)/2 - 0.5
				val, ok := weightedBilinear(coarse, cw, ch, u, v)
				if ok {
					out[idx] = val
				}
			}
		}
	})
	return out
}

// weightedBilinear blends the 4 corners around (u, v), weighting each
// corner's contribution by its own validity so that partially-absent
// neighborhoods still contribute. Returns ok=false only if the combined
// weight is zero (no valid corner at all).
func weightedBilinear(data []float32, w, h int, u, v float64) (float32, bool) {
	col := int(math.Floor(u))
	row := int(math.Floor(v))
	fx := u - float64(col)
	fy := v - float64(row)

	type corner struct {
		x, y int
		wght float64
	}
	corners := [4]corner{
		{col, row, (1 - fx) * (1 - fy)},
		{col + 1, row, fx * (1 - fy)},
		{col, row + 1, (1 - fx) * fy},
		{col + 1, row + 1, fx * fy},
	}

	var sum, wsum float64
	for _, c := range corners {
		if c.x < 0 || c.y < 0 || c.x >= w || c.y >= h {
			continue
		}
		val := data[c.y*w+c.x]
		if isAbsentFloat(val) {
			continue
		}
		sum += c.wght * float64(val)
		wsum += c.wght
	}
	if wsum <= 0 {
		return 0, false
	}
	return float32(sum / wsum), true
}

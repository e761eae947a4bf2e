package restore

import (
	"sort"

	"github.com/lattice-gis/terrainfuse/internal/progress"
)

// MedianSmooth applies a single double-buffered true-median pass over the
// 3x3 stencil of every non-edge, non-absent cell; edges pass through
// unchanged. Used once, after filling, on the sand/clay/soc/ph layers.
func MedianSmooth(data []float32, w, h int) []float32 {
	out := append([]float32(nil), data...)
	if w < 3 || h < 3 {
		return out
	}

	progress.Parallel(h, 0, func(rowStart, rowEnd int) {
		var window []float32
		for y := rowStart; y < rowEnd; y++ {
			if y == 0 || y == h-1 {
				continue
			}
			for x := 1; x < w-1; x++ {
				idx := y*w + x
				if isAbsentFloat(data[idx]) {
					continue
				}
				window = window[:0]
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						v := data[(y+dy)*w+(x+dx)]
						if !isAbsentFloat(v) {
							window = append(window, v)
						}
					}
				}
				sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
				out[idx] = window[len(window)/2]
			}
		}
	})
	return out
}

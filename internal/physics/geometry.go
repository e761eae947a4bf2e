package physics

import (
	"math"

	"github.com/lattice-gis/terrainfuse/internal/progress"
)

// computeGeometry derives slope (radians), aspect (radians, wrapped to
// [0, 2pi)), and TPI for every interior cell via Horn's method over the 3x3
// Moore stencil. Edge cells keep their zero placeholder.
func computeGeometry(elevation []float32, w, h int, slope, aspect, tpi []float32, workers int, bar *progress.Bar) {
	if w < 3 || h < 3 {
		return
	}
	progress.ParallelTracked(h, workers, bar, func(rowStart, rowEnd int) {
		for y := rowStart; y < rowEnd; y++ {
			if y == 0 || y == h-1 {
				continue
			}
			for x := 1; x < w-1; x++ {
				idx := y*w + x
				z := mooreStencil(elevation, w, x, y)

				dzdx := ((z[2] + 2*z[5] + z[8]) - (z[0] + 2*z[3] + z[6])) / 8
				dzdy := ((z[6] + 2*z[7] + z[8]) - (z[0] + 2*z[1] + z[2])) / 8

				slope[idx] = float32(math.Atan(math.Sqrt(float64(dzdx*dzdx + dzdy*dzdy))))
				a := math.Atan2(float64(dzdy), float64(-dzdx))
				if a < 0 {
					a += 2 * math.Pi
				}
				aspect[idx] = float32(a)

				sum := z[0] + z[1] + z[2] + z[3] + z[5] + z[6] + z[7] + z[8]
				tpi[idx] = z[4] - sum/8
			}
		}
	})
}

// mooreStencil returns z1..z9 (row-major, z5 = center) for cell (x, y),
// substituting the center value for any neighbor index that would fall
// outside the grid or whose source cell is absent.
func mooreStencil(elevation []float32, w, x, y int) [9]float32 {
	center := elevation[y*w+x]
	var z [9]float32
	k := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			v := elevation[(y+dy)*w+(x+dx)]
			if math.IsNaN(float64(v)) {
				v = center
			}
			z[k] = v
			k++
		}
	}
	return z
}

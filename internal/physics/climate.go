package physics

import (
	"math"

	"github.com/lattice-gis/terrainfuse/internal/progress"
	"github.com/lattice-gis/terrainfuse/internal/spatial"
)

// sunAzimuthRad and sunElevationRad fix the heat-load sun position at
// azimuth 225 degrees, elevation 45 degrees.
var (
	sunAzimuthRad   = 225.0 * math.Pi / 180
	sunElevationRad = 45.0 * math.Pi / 180
)

// flatSlopeThreshold is the slope below which a cell receives no
// directional preference.
const flatSlopeThreshold = 0.01

// computeHLI fills the heat-load index using the fixed sun vector, the
// per-cell convergence-angle-corrected aspect, and the surface normal
// derived from slope/aspect.
func computeHLI(elevation []float32, w, h int, ctx *spatial.Context, slope, aspect, hli []float32, workers int) {
	sx := math.Cos(sunElevationRad) * math.Sin(sunAzimuthRad)
	sy := math.Cos(sunElevationRad) * math.Cos(sunAzimuthRad)
	sz := math.Sin(sunElevationRad)

	progress.Parallel(h, workers, func(rowStart, rowEnd int) {
		for y := rowStart; y < rowEnd; y++ {
			for x := 0; x < w; x++ {
				idx := y*w + x
				s := float64(slope[idx])
				if s < flatSlopeThreshold {
					hli[idx] = 0.5
					continue
				}

				geoPt := ctx.GeoCoord(x, y)
				gamma := ctx.Projection().ConvergenceAngle(geoPt.Lon, geoPt.Lat)
				a := float64(aspect[idx]) - gamma

				nx := math.Sin(s) * math.Sin(a)
				ny := math.Sin(s) * math.Cos(a)
				nz := math.Cos(s)

				dot := sx*nx + sy*ny + sz*nz
				if dot < 0 {
					dot = 0
				}
				hli[idx] = float32(dot)
			}
		}
	})
}

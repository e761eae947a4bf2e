package terrain

import (
	"math"

	"github.com/lattice-gis/terrainfuse/internal/progress"
	"github.com/lattice-gis/terrainfuse/internal/raster"
	"github.com/lattice-gis/terrainfuse/internal/spatial"
)

// Bundle holds the per-layer mosaic sources the sampler reads from. A nil
// mosaic leaves the corresponding layer entirely absent.
type Bundle struct {
	Elevation     *raster.Mosaic
	HH            *raster.Mosaic
	HV            *raster.Mosaic
	Incidence     *raster.Mosaic
	LayoverShadow *raster.Mosaic

	SandTop, ClayTop, PHTop, SOCTop *raster.Mosaic
	SandSub, ClaySub, PHSub         *raster.Mosaic

	LandCover *raster.Mosaic
}

// session is the per-worker sampling state: one MosaicSession per present
// layer. The sessions of all workers share their mosaics' TileReaders, so
// each reader's preloaded array or block cache is shared across workers,
// not held per worker.
type session struct {
	fields    []boundField
	landCover *raster.MosaicSession
}

type boundField struct {
	sess   *raster.MosaicSession
	out    []float32
	kernel raster.Kernel
}

func newSession(b Bundle, g *Grid) session {
	s := session{}
	add := func(m *raster.Mosaic, out []float32, k raster.Kernel) {
		if m == nil {
			return
		}
		s.fields = append(s.fields, boundField{sess: m.Session(), out: out, kernel: k})
	}
	add(b.Elevation, g.Elevation, raster.Bicubic)
	add(b.HH, g.HH, raster.Bilinear)
	add(b.HV, g.HV, raster.Bilinear)
	add(b.Incidence, g.Incidence, raster.Bilinear)
	add(b.LayoverShadow, g.LayoverShadow, raster.Bilinear)
	add(b.SandTop, g.SandTop, raster.Bilinear)
	add(b.ClayTop, g.ClayTop, raster.Bilinear)
	add(b.PHTop, g.PHTop, raster.Bilinear)
	add(b.SOCTop, g.SOCTop, raster.Bilinear)
	add(b.SandSub, g.SandSub, raster.Bilinear)
	add(b.ClaySub, g.ClaySub, raster.Bilinear)
	add(b.PHSub, g.PHSub, raster.Bilinear)
	if b.LandCover != nil {
		s.landCover = b.LandCover.Session()
	}
	return s
}

// AlignAndResample allocates a Grid sized by ctx and fills it by walking
// every output pixel across a row-striped worker pool, projecting with ctx
// and dispatching each layer through its own mosaic session. bar, if
// non-nil, is incremented by each stripe's row count as it completes.
func AlignAndResample(b Bundle, ctx *spatial.Context, landCover *raster.Mosaic, workers int, bar *progress.Bar) *Grid {
	g := NewGrid(ctx.Width(), ctx.Height())
	b.LandCover = landCover

	progress.ParallelTracked(ctx.Height(), workers, bar, func(rowStart, rowEnd int) {
		sess := newSession(b, g)
		w := ctx.Width()
		for y := rowStart; y < rowEnd; y++ {
			for x := 0; x < w; x++ {
				idx := y*w + x
				geoPt := ctx.GeoCoord(x, y)

				for _, f := range sess.fields {
					v, ok := f.sess.Sample(geoPt.Lon, geoPt.Lat, f.kernel)
					if ok {
						f.out[idx] = v
					}
				}

				if sess.landCover != nil {
					v, ok := sess.landCover.Sample(geoPt.Lon, geoPt.Lat, raster.Nearest)
					if ok {
						g.LandCover[idx] = byte(math.Round(float64(v)))
					}
				}
			}
		}
	})

	return g
}

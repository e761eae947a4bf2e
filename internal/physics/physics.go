// Package physics derives slope/aspect/topographic-position geometry,
// single-flow-direction hydrology, and heat-load climate fields from an
// elevation grid.
package physics

import (
	"golang.org/x/sync/errgroup"

	"github.com/lattice-gis/terrainfuse/internal/progress"
	"github.com/lattice-gis/terrainfuse/internal/spatial"
)

// Map holds the five derived fields, one value per grid cell.
type Map struct {
	Width, Height int
	Slope         []float32
	Aspect        []float32
	TPI           []float32
	TWI           []float32
	HLI           []float32
}

// Compute derives slope/aspect/TPI and HLI on one worker group while
// hydrology's flow accumulation runs concurrently on another, then combines
// slope and accumulation into TWI. bar, if non-nil, tracks the geometry
// pass's row-striped progress.
func Compute(elevation []float32, w, h int, ctx *spatial.Context, workers int, bar *progress.Bar) *Map {
	m := &Map{
		Width: w, Height: h,
		Slope: make([]float32, w*h),
		Aspect: make([]float32, w*h),
		TPI:    make([]float32, w*h),
		TWI:    make([]float32, w*h),
		HLI:    make([]float32, w*h),
	}

	var acc []uint32
	var g errgroup.Group

	g.Go(func() error {
		computeGeometry(elevation, w, h, m.Slope, m.Aspect, m.TPI, workers, bar)
		computeHLI(elevation, w, h, ctx, m.Slope, m.Aspect, m.HLI, workers)
		return nil
	})
	g.Go(func() error {
		acc = accumulateFlow(elevation, w, h)
		return nil
	})
	g.Wait()

	computeTWI(acc, m.Slope, m.TWI)
	return m
}

package terrain

import (
	"testing"

	"github.com/lattice-gis/terrainfuse/internal/geo"
	"github.com/lattice-gis/terrainfuse/internal/raster"
	"github.com/lattice-gis/terrainfuse/internal/raster/testdataset"
	"github.com/lattice-gis/terrainfuse/internal/spatial"
)

func TestAlignAndResampleFillsElevationAndLandCover(t *testing.T) {
	roi := geo.Rect{MinLon: 8.0, MinLat: 47.0, MaxLon: 8.002, MaxLat: 47.001}
	ctx := spatial.Analyze(roi)
	center := roi.Center()

	elevDS := testdataset.Fill(ctx.Width()+20, ctx.Height()+20, center, 123.0)
	elevMosaic := raster.BuildMosaic([]raster.MosaicSource{
		raster.NewMosaicSource("elev-a", elevDS.Bounds(), elevDS),
	}, raster.Options{})

	lcDS := testdataset.Fill(ctx.Width()+20, ctx.Height()+20, center, 7)
	lcMosaic := raster.BuildMosaic([]raster.MosaicSource{
		raster.NewMosaicSource("lc-a", lcDS.Bounds(), lcDS),
	}, raster.Options{})

	bundle := Bundle{Elevation: elevMosaic}
	grid := AlignAndResample(bundle, ctx, lcMosaic, 2, nil)

	if grid.Width != ctx.Width() || grid.Height != ctx.Height() {
		t.Fatalf("grid dims = %dx%d, want %dx%d", grid.Width, grid.Height, ctx.Width(), ctx.Height())
	}

	cx, cy := grid.Width/2, grid.Height/2
	idx := cy*grid.Width + cx
	if v := grid.Elevation[idx]; v < 122 || v > 124 {
		t.Errorf("Elevation[center] = %v, want ~123", v)
	}
	if v := grid.LandCover[idx]; v != 7 {
		t.Errorf("LandCover[center] = %v, want 7", v)
	}
}

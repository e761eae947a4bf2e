package raster

import "github.com/lattice-gis/terrainfuse/internal/geo"

// Dataset is the external raster-I/O boundary this module consumes. A real
// implementation (GDAL bindings, a GeoTIFF decoder, ...) lives outside this
// repository, per the specification's framing of raster I/O as an external
// collaborator — see internal/raster/testdataset for an in-memory stand-in
// used by tests and the CLI's -synthetic mode.
type Dataset interface {
	// Bounds returns the dataset's geographic extent in WGS84, as reported
	// by the adapter's SRS reprojection of its corner pixels.
	Bounds() geo.Rect
	// Transform returns the 6-coefficient affine pixel<->geo mapping.
	Transform() geo.Transform
	// PixelIsArea reports whether the AREA_OR_POINT metadatum is "Area",
	// which requires a half-pixel shift before sampling (see TileReader.Sample).
	PixelIsArea() bool
	// NoData returns the raster's no-data sentinel, if one is defined.
	NoData() (value float64, ok bool)
	// Size returns the raster's pixel dimensions.
	Size() (width, height int)
	// ReadWindow reads a rectangular pixel window as single-precision
	// floats, row-major, width*height long. Implementations may clip or
	// zero-fill out-of-range requests; TileReader never requests a window
	// outside [0,width)x[0,height).
	ReadWindow(xoff, yoff, xsize, ysize int) ([]float32, error)
}

// Package testdataset provides a small in-memory raster.Dataset used by the
// raster, terrain and pipeline tests and by the CLI's -synthetic demo mode,
// standing in for the GeoTIFF/SRS adapter this module treats as an external boundary.
package testdataset

import (
	"fmt"

	"github.com/lattice-gis/terrainfuse/internal/geo"
)

// Dataset is a row-major []float32 band with a fixed geotransform.
type Dataset struct {
	width, height int
	transform     geo.Transform
	pixelIsArea   bool
	noData        float64
	hasNoData     bool
	data          []float32
}

// New builds a Dataset from a row-major width*height buffer.
func New(width, height int, transform geo.Transform, pixelIsArea bool, data []float32) *Dataset {
	if len(data) != width*height {
		panic(fmt.Sprintf("testdataset: data length %d, want %d", len(data), width*height))
	}
	return &Dataset{width: width, height: height, transform: transform, pixelIsArea: pixelIsArea, data: data}
}

// WithNoData sets the no-data sentinel value.
func (d *Dataset) WithNoData(v float64) *Dataset {
	d.noData = v
	d.hasNoData = true
	return d
}

// Fill constructs a constant-valued dataset of the given size, one meter per
// pixel, centered on the given geographic point.
func Fill(width, height int, center geo.Point, value float32) *Dataset {
	data := make([]float32, width*height)
	for i := range data {
		data[i] = value
	}
	tr := transformFor(width, height, center)
	return New(width, height, tr, true, data)
}

// Ramp builds a dataset whose value at (col, row) is float32(col), useful
// for exact-interpolation tests.
func Ramp(width, height int, center geo.Point) *Dataset {
	data := make([]float32, width*height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			data[row*width+col] = float32(col)
		}
	}
	tr := transformFor(width, height, center)
	return New(width, height, tr, true, data)
}

// degreesPerPixel approximates one meter per pixel near the equator, close
// enough for synthetic fixtures that never compare against real imagery.
const degreesPerPixel = 1.0 / 111320.0

func transformFor(width, height int, center geo.Point) geo.Transform {
	lon0 := center.Lon - float64(width)/2*degreesPerPixel
	lat0 := center.Lat + float64(height)/2*degreesPerPixel
	tr, err := geo.NewTransform(lon0, degreesPerPixel, 0, lat0, 0, -degreesPerPixel)
	if err != nil {
		panic(err)
	}
	return tr
}

func (d *Dataset) Bounds() geo.Rect {
	x0, y0 := d.transform.Forward(0, 0)
	x1, y1 := d.transform.Forward(float64(d.width), float64(d.height))
	return geo.Rect{MinLon: x0, MinLat: y1, MaxLon: x1, MaxLat: y0}.Normalized()
}

func (d *Dataset) Transform() geo.Transform { return d.transform }
func (d *Dataset) PixelIsArea() bool        { return d.pixelIsArea }
func (d *Dataset) NoData() (float64, bool)  { return d.noData, d.hasNoData }
func (d *Dataset) Size() (int, int)         { return d.width, d.height }

func (d *Dataset) ReadWindow(xoff, yoff, xsize, ysize int) ([]float32, error) {
	if xoff < 0 || yoff < 0 || xoff+xsize > d.width || yoff+ysize > d.height {
		return nil, fmt.Errorf("testdataset: window [%d,%d]+[%d,%d] out of bounds %dx%d", xoff, yoff, xsize, ysize, d.width, d.height)
	}
	out := make([]float32, xsize*ysize)
	for row := 0; row < ysize; row++ {
		srcOff := (yoff+row)*d.width + xoff
		copy(out[row*xsize:(row+1)*xsize], d.data[srcOff:srcOff+xsize])
	}
	return out, nil
}

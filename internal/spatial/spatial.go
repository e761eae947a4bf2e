// Package spatial turns a geographic region of interest into the metric
// grid geometry the rest of the pipeline samples against.
package spatial

import (
	"math"

	"github.com/lattice-gis/terrainfuse/internal/geo"
)

// Context centers a projection at the ROI's centroid and derives the
// integer grid dimensions that cover it at one meter per pixel.
type Context struct {
	proj   *geo.AdaptiveLtm
	minX   float64
	minY   float64
	width  int
	height int
}

// Analyze centers an AdaptiveLtm at roi's centroid, projects both corners,
// and rounds the resulting metric extent to integer grid dimensions.
func Analyze(roi geo.Rect) *Context {
	roi = roi.Normalized()
	center := roi.Center()
	proj := geo.NewAdaptiveLtm(center)

	x0, y0 := proj.Project(roi.MinLon, roi.MinLat)
	x1, y1 := proj.Project(roi.MaxLon, roi.MaxLat)

	minX, maxX := x0, x1
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := y0, y1
	if minY > maxY {
		minY, maxY = maxY, minY
	}

	width := int(math.Round(maxX - minX))
	height := int(math.Round(maxY - minY))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	return &Context{proj: proj, minX: minX, minY: minY, width: width, height: height}
}

// Width returns the grid's column count.
func (c *Context) Width() int { return c.width }

// Height returns the grid's row count.
func (c *Context) Height() int { return c.height }

// Projection exposes the centered projection, e.g. for convergence-angle
// lookups in the climate stage.
func (c *Context) Projection() *geo.AdaptiveLtm { return c.proj }

// GeoCoord returns the geographic coordinate of pixel (x, y)'s center.
func (c *Context) GeoCoord(x, y int) geo.Point {
	mx := c.minX + float64(x) + 0.5
	my := c.minY + float64(y) + 0.5
	lon, lat := c.proj.Unproject(mx, my)
	return geo.Point{Lon: lon, Lat: lat}
}

package raster

// PixelSource exposes bounded integer-indexed pixel access. Interpolators
// operate purely through this contract, never touching a concrete dataset
// directly — mirroring the teacher's separation between cog.Reader (I/O) and
// the per-pixel sampling functions in internal/tile/resample.go that only
// ever call into it through a handful of read methods.
type PixelSource interface {
	Width() int
	Height() int
	// At returns the value at (col, row), or ok=false if the coordinate is
	// out of range, matches the no-data sentinel, or could not be read.
	At(col, row int) (value float32, ok bool)
}

// Kernel selects an interpolation method.
type Kernel int

const (
	Nearest Kernel = iota
	Bilinear
	Bicubic
)

// Sample evaluates src at continuous pixel coordinates (u, v) using the
// given kernel. u, v are already in pixel-center semantics (any
// registration shift has been applied by the caller).
func Sample(src PixelSource, kernel Kernel, u, v float64) (float32, bool) {
	switch kernel {
	case Nearest:
		return sampleNearest(src, u, v)
	case Bicubic:
		return sampleBicubic(src, u, v)
	default:
		return sampleBilinear(src, u, v)
	}
}

func floorInt(f float64) int {
	i := int(f)
	if f < float64(i) {
		i--
	}
	return i
}

func roundInt(f float64) int {
	if f >= 0 {
		return int(f + 0.5)
	}
	return -int(-f + 0.5)
}

func sampleNearest(src PixelSource, u, v float64) (float32, bool) {
	return src.At(roundInt(u), roundInt(v))
}

func sampleBilinear(src PixelSource, u, v float64) (float32, bool) {
	col := floorInt(u)
	row := floorInt(v)
	fx := u - float64(col)
	fy := v - float64(row)

	p00, ok := src.At(col, row)
	if !ok {
		return 0, false
	}
	p10, ok := src.At(col+1, row)
	if !ok {
		return 0, false
	}
	p01, ok := src.At(col, row+1)
	if !ok {
		return 0, false
	}
	p11, ok := src.At(col+1, row+1)
	if !ok {
		return 0, false
	}

	top := float64(p00)*(1-fx) + float64(p10)*fx
	bot := float64(p01)*(1-fx) + float64(p11)*fx
	return float32(top*(1-fy) + bot*fy), true
}

// sampleBicubic anchors at the floor pixel and requires a 4x4 window
// [col-1..col+2] x [row-1..row+2]. Whenever that window would touch the
// outer two-pixel ring of the source (i.e. any sampled coordinate would be
// out of range), it falls back to bilinear rather than attempting a
// degraded cubic fit.
func sampleBicubic(src PixelSource, u, v float64) (float32, bool) {
	col := floorInt(u)
	row := floorInt(v)
	fx := u - float64(col)
	fy := v - float64(row)

	w, h := src.Width(), src.Height()
	if col-1 < 0 || col+2 >= w || row-1 < 0 || row+2 >= h {
		return sampleBilinear(src, u, v)
	}

	var rows [4]float64
	for j := -1; j <= 2; j++ {
		var p [4]float64
		for i := -1; i <= 2; i++ {
			val, ok := src.At(col+i, row+j)
			if !ok {
				return sampleBilinear(src, u, v)
			}
			p[i+1] = float64(val)
		}
		rows[j+1] = cubicHermite(p, fx)
	}
	return float32(cubicHermite(rows, fy)), true
}

// cubicHermite evaluates the one-parameter cubic Hermite spline through four
// equally spaced samples p0..p3 at parameter t in [0,1), anchored between p1
// and p2.
func cubicHermite(p [4]float64, t float64) float64 {
	a := -0.5*p[0] + 1.5*p[1] - 1.5*p[2] + 0.5*p[3]
	b := p[0] - 2.5*p[1] + 2*p[2] - 0.5*p[3]
	c := -0.5*p[0] + 0.5*p[2]
	d := p[1]
	return ((a*t+b)*t+c)*t + d
}

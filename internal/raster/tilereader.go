package raster

import (
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lattice-gis/terrainfuse/internal/geo"
)

const (
	// DefaultPreloadThresholdBytes is the raster size above which a
	// TileReader switches from full preload to a bounded block cache.
	DefaultPreloadThresholdBytes = 4 << 30 // 4 GiB
	// DefaultBlockSide is the square side, in pixels, of a cached block.
	DefaultBlockSide = 512
	// DefaultMaxCacheBlocks bounds the block cache's MRU depth.
	DefaultMaxCacheBlocks = 8
	// DefaultNoDataEpsilon is the absolute tolerance used to match a
	// pixel's value against the dataset's no-data sentinel.
	DefaultNoDataEpsilon = 1e-6
)

// Options configures a TileReader's caching behavior. The zero value selects
// every package default.
type Options struct {
	PreloadThresholdBytes int64
	BlockSide             int
	MaxCacheBlocks        int
	NoDataEpsilon         float64
}

func (o Options) withDefaults() Options {
	if o.PreloadThresholdBytes == 0 {
		o.PreloadThresholdBytes = DefaultPreloadThresholdBytes
	}
	if o.BlockSide == 0 {
		o.BlockSide = DefaultBlockSide
	}
	if o.MaxCacheBlocks == 0 {
		o.MaxCacheBlocks = DefaultMaxCacheBlocks
	}
	if o.NoDataEpsilon == 0 {
		o.NoDataEpsilon = DefaultNoDataEpsilon
	}
	return o
}

// blockKey identifies a cached block by its 512-aligned origin.
type blockKey struct{ bx, by int }

type block struct {
	originX, originY int
	w, h             int
	data             []float32
}

// TileReader is a single-raster reader holding either a fully preloaded
// array or an MRU block cache, never both. A Mosaic keeps one TileReader per
// tile and every MosaicSession over it uses that same reader, so the
// preloaded array and the block cache are shared by all workers; each Open
// call reads or caches independently.
type TileReader struct {
	ds     Dataset
	opts   Options
	width  int
	height int
	noData float64
	hasND  bool
	isArea bool
	tr     geo.Transform

	preloaded []float32 // non-nil when the dataset was small enough to preload
	cache     *lru.Cache[blockKey, *block]
}

// Open constructs a TileReader session over ds, deciding between full
// preload and a bounded block cache based on raster size.
func Open(ds Dataset, opts Options) (*TileReader, error) {
	opts = opts.withDefaults()
	w, h := ds.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("tilereader: invalid dataset size %dx%d", w, h)
	}

	nd, hasND := ds.NoData()

	r := &TileReader{
		ds:     ds,
		opts:   opts,
		width:  w,
		height: h,
		noData: nd,
		hasND:  hasND,
		isArea: ds.PixelIsArea(),
		tr:     ds.Transform(),
	}

	sizeBytes := int64(w) * int64(h) * 4
	if sizeBytes < opts.PreloadThresholdBytes {
		data, err := ds.ReadWindow(0, 0, w, h)
		if err != nil {
			return nil, fmt.Errorf("tilereader: preload: %w", err)
		}
		r.preloaded = data
		return r, nil
	}

	cache, err := lru.New[blockKey, *block](opts.MaxCacheBlocks)
	if err != nil {
		return nil, fmt.Errorf("tilereader: creating block cache: %w", err)
	}
	r.cache = cache
	return r, nil
}

// Width implements PixelSource.
func (r *TileReader) Width() int { return r.width }

// Height implements PixelSource.
func (r *TileReader) Height() int { return r.height }

// At implements PixelSource: out-of-range coordinates, no-data matches, and
// read failures all yield ok=false.
func (r *TileReader) At(col, row int) (float32, bool) {
	if col < 0 || row < 0 || col >= r.width || row >= r.height {
		return 0, false
	}

	var v float32
	if r.preloaded != nil {
		v = r.preloaded[row*r.width+col]
	} else {
		b, err := r.blockFor(col, row)
		if err != nil {
			return 0, false
		}
		v = b.data[(row-b.originY)*b.w+(col-b.originX)]
	}

	if r.hasND && math.Abs(float64(v)-r.noData) < r.opts.NoDataEpsilon {
		return 0, false
	}
	return v, true
}

func (r *TileReader) blockFor(col, row int) (*block, error) {
	side := r.opts.BlockSide
	bx := (col / side) * side
	by := (row / side) * side
	key := blockKey{bx, by}

	if b, ok := r.cache.Get(key); ok {
		return b, nil
	}

	w := side
	if bx+w > r.width {
		w = r.width - bx
	}
	h := side
	if by+h > r.height {
		h = r.height - by
	}

	data, err := r.ds.ReadWindow(bx, by, w, h)
	if err != nil {
		return nil, err
	}
	b := &block{originX: bx, originY: by, w: w, h: h, data: data}
	r.cache.Add(key, b)
	return b, nil
}

// Sample applies the inverse geotransform to (lon, lat) — already expected
// to be in the dataset's native projected coordinates, which for this
// module are always WGS84 degrees since the external adapter is required to
// reproject samples — and resamples with the requested kernel. A half-pixel
// shift is applied first when the dataset's registration is Area rather
// than Point.
func (r *TileReader) Sample(lon, lat float64, kernel Kernel) (float32, bool) {
	u, v, err := r.tr.Inverse(lon, lat)
	if err != nil {
		return 0, false
	}
	if r.isArea {
		u -= 0.5
		v -= 0.5
	}
	return Sample(r, kernel, u, v)
}

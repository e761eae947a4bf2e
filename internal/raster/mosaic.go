package raster

import (
	"sort"

	"github.com/lattice-gis/terrainfuse/internal/geo"
)

// TileEntry is one bounded tile within a layer's mosaic.
type TileEntry struct {
	ID     string
	Bounds geo.Rect
	Reader *TileReader
}

// MosaicSource builds the ordered, immutable tile list for one layer. Tiles
// whose TileReader failed to open are dropped silently — a malformed or
// missing tile degrades coverage rather than aborting the run, per the
// error-handling policy (ConfigInvalid is fatal only to the affected tile).
type MosaicSource struct {
	id     string
	path   string
	bounds geo.Rect
	ds     Dataset
}

// NewMosaicSource wraps the inputs needed to lazily open one catalog entry.
func NewMosaicSource(id string, bounds geo.Rect, ds Dataset) MosaicSource {
	return MosaicSource{id: id, bounds: bounds, ds: ds}
}

// BuildMosaic opens a TileReader for every source, drops failures, and
// returns the lexicographically sorted, immutable tile set for the layer.
func BuildMosaic(sources []MosaicSource, opts Options) *Mosaic {
	entries := make([]TileEntry, 0, len(sources))
	for _, s := range sources {
		r, err := Open(s.ds, opts)
		if err != nil {
			continue
		}
		entries = append(entries, TileEntry{ID: s.id, Bounds: s.bounds, Reader: r})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return &Mosaic{entries: entries}
}

// Mosaic is the immutable, cheaply shared tile set for one layer.
type Mosaic struct {
	entries []TileEntry
}

// Entries exposes the lex-sorted tile list, e.g. for coverage validation.
func (m *Mosaic) Entries() []TileEntry { return m.entries }

// Session returns a fresh per-worker dispatch session over this mosaic.
func (m *Mosaic) Session() *MosaicSession {
	return &MosaicSession{mosaic: m, activeIdx: -1}
}

// MosaicSession is per-worker state: the index of the tile that served the
// most recent sample.
type MosaicSession struct {
	mosaic    *Mosaic
	activeIdx int
}

// Sample dispatches (lon, lat) to the covering tile by scanning the
// lex-sorted entries in reverse order and selecting the first whose bounds
// contain the point — so among overlapping tiles, the lexicographically
// greatest id wins. A failed inner sample, or no covering tile, yields
// absent; the pipeline never aborts on this path.
func (s *MosaicSession) Sample(lon, lat float64, kernel Kernel) (float32, bool) {
	entries := s.mosaic.entries
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Bounds.Contains(lon, lat) {
			s.activeIdx = i
			return entries[i].Reader.Sample(lon, lat, kernel)
		}
	}
	return 0, false
}

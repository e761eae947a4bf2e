// Package catalog defines the typed boundary between the external dataset
// scanner and the core pipeline: an ordered collection of tile identity,
// bounds, and path per layer family.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lattice-gis/terrainfuse/internal/geo"
)

// Entry is one catalog tuple: a tile's id, its WGS84 bounds, and the
// filesystem path the external raster adapter should open.
type Entry struct {
	ID     string   `json:"id"`
	Bounds geo.Rect `json:"bounds"`
	Path   string   `json:"path"`
}

// Family maps a layer-family name (e.g. "elevation", "sand_top") to its
// ordered catalog entries.
type Family map[string][]Entry

// LoadDir reads one JSON catalog file per family from dir. Each file is
// named "<family>.json" and decodes to a []Entry.
func LoadDir(dir string) (Family, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("catalog: listing %s: %w", dir, err)
	}

	families := make(Family, len(matches))
	for _, path := range matches {
		name := fileBaseWithoutExt(path)
		entries, err := loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: loading %s: %w", path, err)
		}
		families[name] = entries
	}
	return families, nil
}

func loadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func fileBaseWithoutExt(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

// Bounds extracts the bounds of every entry in a family, e.g. for coverage
// validation.
func Bounds(entries []Entry) []geo.Rect {
	out := make([]geo.Rect, len(entries))
	for i, e := range entries {
		out[i] = e.Bounds
	}
	return out
}

// Dataset bucket names, matching the three physical providers coverage
// validation is gated on. Each provider ships one scene covering several of
// our layer families at once, so a family going short doesn't mean much on
// its own — what matters is whether the provider's scene as a whole covers
// the ROI.
const (
	DatasetALOSPalsar    = "ALOS Palsar"
	DatasetESAWorldCover = "ESA WorldCover"
	DatasetSoilGrids     = "SoilGrid"
)

// datasetFamilies lists, for each physical dataset, the family names its
// scenes cover.
var datasetFamilies = map[string][]string{
	DatasetALOSPalsar:    {"elevation", "hh", "hv", "incidence", "layover_shadow"},
	DatasetESAWorldCover: {"land_cover"},
	DatasetSoilGrids:     {"sand_top", "clay_top", "ph_top", "soc_top", "sand_sub", "clay_sub", "ph_sub"},
}

// BoundsByDataset pools a Family's per-layer entries into the three
// physical-dataset buckets, so coverage can be checked against what each
// provider actually shipped rather than per layer.
func BoundsByDataset(families Family) map[string][]geo.Rect {
	out := make(map[string][]geo.Rect, len(datasetFamilies))
	for dataset, names := range datasetFamilies {
		var bounds []geo.Rect
		for _, name := range names {
			bounds = append(bounds, Bounds(families[name])...)
		}
		out[dataset] = bounds
	}
	return out
}

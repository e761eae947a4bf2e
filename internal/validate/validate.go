// Package validate implements the pipeline's two fatal-or-pass checks:
// catalog coverage before sampling, and grid completeness after
// restoration.
package validate

import (
	"fmt"
	"math"
	"sort"

	"github.com/lattice-gis/terrainfuse/internal/geo"
)

// DefaultCoverageThreshold is the minimum area ratio each coverage bundle
// must meet to pass coverage validation.
const DefaultCoverageThreshold = 0.999

// Coverage checks, for each named rectangle bundle, that the union of its
// tile bounds intersected with roi covers at least threshold of roi's area.
// Callers group entries into whatever bundles the go/no-go check should
// cover — in this pipeline, one bundle per physical dataset provider rather
// than one per individual layer (see catalog.BoundsByDataset), since a
// provider ships several layers in one scene and it's the scene's coverage
// that matters. It returns the ratio for every bundle and an error naming
// every bundle that fell short.
func Coverage(roi geo.Rect, bundles map[string][]geo.Rect, threshold float64) (ratios map[string]float64, err error) {
	roi = roi.Normalized()
	roiArea := roi.Area()
	ratios = make(map[string]float64, len(bundles))

	var failed []string
	for name, bounds := range bundles {
		covered := unionArea(roi, bounds)
		ratio := 1.0
		if roiArea > 0 {
			ratio = covered / roiArea
		}
		ratios[name] = ratio
		if ratio < threshold {
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		return ratios, fmt.Errorf("coverage insufficient for %v (ratios %v)", failed, ratios)
	}
	return ratios, nil
}

// unionArea approximates the area of the union of bounds intersected with
// roi by summing each tile's roi-clipped area. This overcounts overlapping
// tiles, which only makes coverage validation more permissive in the
// presence of redundant tiles — acceptable since coverage is a go/no-go
// gate, not an exact measurement.
func unionArea(roi geo.Rect, bounds []geo.Rect) float64 {
	var total float64
	for _, b := range bounds {
		if clipped, ok := roi.Intersect(b.Normalized()); ok {
			total += clipped.Area()
		}
	}
	if total > roi.Area() {
		total = roi.Area()
	}
	return total
}

// Completeness counts, per named continuous layer, how many cells are
// non-NaN, and fails with the first layer that isn't fully populated.
func Completeness(layers map[string][]float32, width, height int) error {
	want := width * height
	names := make([]string, 0, len(layers))
	for name := range layers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		data := layers[name]
		count := 0
		for _, v := range data {
			if !math.IsNaN(float64(v)) {
				count++
			}
		}
		if count != want {
			return fmt.Errorf("layer %q incomplete after restoration: %d/%d cells valid", name, count, want)
		}
	}
	return nil
}

// CompletenessDiscrete is Completeness's counterpart for the byte-encoded
// land-cover layer.
func CompletenessDiscrete(name string, data []byte, absent byte, width, height int) error {
	want := width * height
	count := 0
	for _, v := range data {
		if v != absent {
			count++
		}
	}
	if count != want {
		return fmt.Errorf("layer %q incomplete after restoration: %d/%d cells valid", name, count, want)
	}
	return nil
}

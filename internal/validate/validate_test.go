package validate

import (
	"math"
	"testing"

	"github.com/lattice-gis/terrainfuse/internal/geo"
)

func TestCoveragePassesWhenFullyCovered(t *testing.T) {
	roi := geo.Rect{MinLon: 0, MinLat: 0, MaxLon: 10, MaxLat: 10}
	families := map[string][]geo.Rect{
		"ALOS Palsar": {{MinLon: -1, MinLat: -1, MaxLon: 11, MaxLat: 11}},
	}
	ratios, err := Coverage(roi, families, DefaultCoverageThreshold)
	if err != nil {
		t.Fatalf("Coverage() error = %v", err)
	}
	if ratios["ALOS Palsar"] < DefaultCoverageThreshold {
		t.Errorf("ratio = %v, want >= %v", ratios["ALOS Palsar"], DefaultCoverageThreshold)
	}
}

func TestCoverageFailsWhenPartial(t *testing.T) {
	roi := geo.Rect{MinLon: 0, MinLat: 0, MaxLon: 10, MaxLat: 10}
	families := map[string][]geo.Rect{
		"SoilGrid": {{MinLon: 0, MinLat: 0, MaxLon: 5, MaxLat: 10}},
	}
	_, err := Coverage(roi, families, DefaultCoverageThreshold)
	if err == nil {
		t.Fatal("Coverage() error = nil, want error for half-covered family")
	}
}

func TestCompletenessPassesWhenNoNaN(t *testing.T) {
	layers := map[string][]float32{"elevation": {1, 2, 3, 4}}
	if err := Completeness(layers, 2, 2); err != nil {
		t.Errorf("Completeness() error = %v, want nil", err)
	}
}

func TestCompletenessFailsWithFirstIncompleteLayer(t *testing.T) {
	layers := map[string][]float32{
		"elevation": {1, 2, 3, 4},
		"hh":        {1, float32(math.NaN()), 3, 4},
	}
	err := Completeness(layers, 2, 2)
	if err == nil {
		t.Fatal("Completeness() error = nil, want error")
	}
}

func TestCompletenessDiscrete(t *testing.T) {
	data := []byte{1, 2, 255, 4}
	if err := CompletenessDiscrete("landcover", data, 255, 2, 2); err == nil {
		t.Fatal("CompletenessDiscrete() error = nil, want error for absent cell")
	}
}

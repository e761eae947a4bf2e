package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lattice-gis/terrainfuse/internal/catalog"
	"github.com/lattice-gis/terrainfuse/internal/geo"
	"github.com/lattice-gis/terrainfuse/internal/raster"
	"github.com/lattice-gis/terrainfuse/internal/raster/testdataset"
)

func writeCatalog(t *testing.T, dir string, families []string, bounds geo.Rect) {
	t.Helper()
	for _, f := range families {
		entries := []catalog.Entry{{ID: "tile-a", Bounds: bounds, Path: "mem://" + f}}
		data, err := json.Marshal(entries)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, f+".json"), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunEndToEndOverSyntheticCatalog(t *testing.T) {
	roi := geo.Rect{MinLon: 8.0, MinLat: 47.0, MaxLon: 8.0006, MaxLat: 47.0006}
	bounds := geo.Rect{MinLon: 7.99, MinLat: 46.99, MaxLon: 8.01, MaxLat: 47.01}
	center := bounds.Center()

	catalogDir := t.TempDir()
	writeCatalog(t, catalogDir, []string{
		FamilyElevation, FamilyHH, FamilyHV, FamilyIncidence, FamilyLayoverShadow,
		FamilySandTop, FamilyClayTop, FamilyPHTop, FamilySOCTop,
		FamilySandSub, FamilyClaySub, FamilyPHSub, FamilyLandCover,
	}, bounds)

	open := func(path string) (raster.Dataset, error) {
		family := strings.TrimPrefix(path, "mem://")
		switch family {
		case FamilyElevation:
			return testdataset.Ramp(400, 400, center), nil
		case FamilyLandCover:
			return testdataset.Fill(400, 400, center, 2), nil
		default:
			return testdataset.Fill(400, 400, center, 0.25), nil
		}
	}

	cfg := DefaultConfig()
	cfg.ROI = roi
	cfg.CatalogDir = catalogDir
	cfg.OutDir = t.TempDir()
	cfg.Workers = 2
	cfg.RestorationUnitLen = 8
	cfg.RestorationIterations = 2

	summary, err := Run(cfg, open)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.RegionCount < 1 {
		t.Errorf("RegionCount = %d, want >= 1", summary.RegionCount)
	}
	if summary.MaxElevation <= summary.MinElevation && summary.MaxElevation == 0 {
		t.Errorf("elevation range looks uninitialized: min=%v max=%v", summary.MinElevation, summary.MaxElevation)
	}

	matches, err := filepath.Glob(filepath.Join(cfg.OutDir, "r.*.mca"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != summary.RegionCount {
		t.Errorf("wrote %d region files, summary says %d", len(matches), summary.RegionCount)
	}
}

func TestRunRejectsEmptyConfig(t *testing.T) {
	_, err := Run(Config{}, nil)
	if err == nil {
		t.Fatal("Run() error = nil, want ErrConfigInvalid")
	}
}

func TestRunFailsCoverageForPartialCatalog(t *testing.T) {
	roi := geo.Rect{MinLon: 8.0, MinLat: 47.0, MaxLon: 8.01, MaxLat: 47.01}
	partial := geo.Rect{MinLon: 8.0, MinLat: 47.0, MaxLon: 8.005, MaxLat: 47.01}

	catalogDir := t.TempDir()
	writeCatalog(t, catalogDir, []string{FamilyElevation}, partial)

	cfg := DefaultConfig()
	cfg.ROI = roi
	cfg.CatalogDir = catalogDir
	cfg.OutDir = t.TempDir()

	_, err := Run(cfg, func(string) (raster.Dataset, error) { return nil, nil })
	if err == nil {
		t.Fatal("Run() error = nil, want coverage failure")
	}
}

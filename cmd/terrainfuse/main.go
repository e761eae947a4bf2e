// Command terrainfuse runs the raster-fusion-to-voxel pipeline over a
// geographic region of interest.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/lattice-gis/terrainfuse/internal/catalog"
	"github.com/lattice-gis/terrainfuse/internal/geo"
	"github.com/lattice-gis/terrainfuse/internal/pipeline"
	"github.com/lattice-gis/terrainfuse/internal/raster"
	"github.com/lattice-gis/terrainfuse/internal/raster/testdataset"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		roiFlag     string
		catalogDir  string
		outDir      string
		workers     int
		verbose     bool
		synthetic   bool
		showVersion bool
		cpuProfile  string
		memProfile  string
	)

	flag.StringVar(&roiFlag, "roi", "", "Region of interest: lonMin,latMin,lonMax,latMax")
	flag.StringVar(&catalogDir, "catalog", "", "Directory of per-family catalog JSON files")
	flag.StringVar(&outDir, "out", "", "Output directory for .mca region files")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "Number of parallel workers")
	flag.BoolVar(&verbose, "verbose", false, "Verbose progress output")
	flag.BoolVar(&synthetic, "synthetic", false, "Run against an in-memory synthetic dataset instead of -catalog")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	flag.StringVar(&memProfile, "memprofile", "", "Write memory profile to file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: terrainfuse -roi=lonMin,latMin,lonMax,latMax -catalog=<dir> -out=<dir>\n\n")
		fmt.Fprintf(os.Stderr, "Fuse a raster catalog into a voxel region export.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("terrainfuse %s (commit %s)\n", version, commit)
		os.Exit(0)
	}

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			log.Fatalf("Creating CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("Starting CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}
	if memProfile != "" {
		defer func() {
			f, err := os.Create(memProfile)
			if err != nil {
				log.Fatalf("Creating memory profile: %v", err)
			}
			defer f.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.Fatalf("Writing memory profile: %v", err)
			}
		}()
	}

	if roiFlag == "" || outDir == "" || (!synthetic && catalogDir == "") {
		flag.Usage()
		os.Exit(1)
	}

	roi, err := parseROI(roiFlag)
	if err != nil {
		log.Fatalf("Parsing -roi: %v", err)
	}

	cfg := pipeline.DefaultConfig()
	cfg.ROI = roi
	cfg.OutDir = outDir
	cfg.Workers = workers
	cfg.Verbose = verbose
	cfg.Synthetic = synthetic

	var open pipeline.DatasetOpener
	if synthetic {
		dir, cleanup, err := writeSyntheticCatalog(roi)
		if err != nil {
			log.Fatalf("Building synthetic catalog: %v", err)
		}
		defer cleanup()
		cfg.CatalogDir = dir
		open = openSynthetic(roi)
	} else {
		cfg.CatalogDir = catalogDir
		open = openGeoTIFF
	}

	if verbose {
		log.Printf("Running pipeline: roi=%v catalog=%s out=%s workers=%d", roi, cfg.CatalogDir, cfg.OutDir, cfg.Workers)
	}

	summary, err := pipeline.Run(cfg, open)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrConfigInvalid):
			log.Fatalf("Invalid configuration: %v", err)
		case errors.Is(err, pipeline.ErrCoverageInsufficient):
			log.Fatalf("Catalog coverage insufficient: %v", err)
		case errors.Is(err, pipeline.ErrIncompleteAfterRestoration):
			log.Fatalf("Grid incomplete after restoration: %v", err)
		case errors.Is(err, pipeline.ErrExportOverflow):
			log.Fatalf("Export ceiling exceeded: %v", err)
		default:
			log.Fatalf("Pipeline failed: %v", err)
		}
	}

	if summary.ExportWarning != "" {
		log.Printf("Warning: %s", summary.ExportWarning)
	}
	fmt.Printf("Elevation range: %.2f to %.2f m\n", summary.MinElevation, summary.MaxElevation)
	fmt.Printf("World Y range: %d to %d (offset %.2f)\n", summary.WorldMinY, summary.WorldMinY+summary.WorldHeight, summary.VerticalOffset)
	fmt.Printf("Regions written: %d\n", summary.RegionCount)
	for name, ratio := range summary.CoverageRatios {
		fmt.Printf("Coverage %-16s %.4f\n", name, ratio)
	}
}

func parseROI(s string) (geo.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.Rect{}, fmt.Errorf("want 4 comma-separated values, got %d", len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.Rect{}, fmt.Errorf("parsing %q: %w", p, err)
		}
		v[i] = f
	}
	return geo.Rect{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}.Normalized(), nil
}

// openGeoTIFF is the production raster.Dataset opener. The concrete
// GeoTIFF/GDAL decoder is an external collaborator this module never ships
// (see internal/raster.Dataset); wire a real implementation in here to run
// against real imagery.
func openGeoTIFF(path string) (raster.Dataset, error) {
	return nil, fmt.Errorf("terrainfuse: no GeoTIFF decoder wired in; rerun with -synthetic, or path %s", path)
}

const syntheticPrefix = "synthetic://"

// syntheticFamilies mirrors pipeline's catalog family names.
var syntheticFamilies = []string{
	pipeline.FamilyElevation, pipeline.FamilyHH, pipeline.FamilyHV,
	pipeline.FamilyIncidence, pipeline.FamilyLayoverShadow,
	pipeline.FamilySandTop, pipeline.FamilyClayTop, pipeline.FamilyPHTop, pipeline.FamilySOCTop,
	pipeline.FamilySandSub, pipeline.FamilyClaySub, pipeline.FamilyPHSub,
	pipeline.FamilyLandCover,
}

// writeSyntheticCatalog emits one per-family JSON catalog file into a fresh
// temp directory, each listing a single entry whose bounds comfortably
// cover roi, for -synthetic's self-contained demo path.
func writeSyntheticCatalog(roi geo.Rect) (dir string, cleanup func(), err error) {
	dir, err = os.MkdirTemp("", "terrainfuse-synthetic-catalog")
	if err != nil {
		return "", nil, err
	}
	cleanup = func() { os.RemoveAll(dir) }

	margin := 0.01
	bounds := geo.Rect{
		MinLon: roi.MinLon - margin, MinLat: roi.MinLat - margin,
		MaxLon: roi.MaxLon + margin, MaxLat: roi.MaxLat + margin,
	}

	for _, family := range syntheticFamilies {
		entries := []catalog.Entry{{ID: "synthetic", Bounds: bounds, Path: syntheticPrefix + family}}
		data, err := json.Marshal(entries)
		if err != nil {
			cleanup()
			return "", nil, err
		}
		if err := os.WriteFile(filepath.Join(dir, family+".json"), data, 0o644); err != nil {
			cleanup()
			return "", nil, err
		}
	}
	return dir, cleanup, nil
}

const syntheticDegreesPerPixel = 1.0 / 111320.0
const syntheticMaxSide = 2048

// openSynthetic returns a DatasetOpener serving in-memory rasters covering
// roi (with margin) for every synthetic family path, sized to the ROI but
// capped to keep the demo path's memory bounded.
func openSynthetic(roi geo.Rect) pipeline.DatasetOpener {
	center := roi.Center()
	lonSpan := roi.MaxLon - roi.MinLon + 0.02
	latSpan := roi.MaxLat - roi.MinLat + 0.02
	width := clampInt(int(lonSpan/syntheticDegreesPerPixel)+1, 64, syntheticMaxSide)
	height := clampInt(int(latSpan/syntheticDegreesPerPixel)+1, 64, syntheticMaxSide)

	return func(path string) (raster.Dataset, error) {
		family := strings.TrimPrefix(path, syntheticPrefix)
		switch family {
		case pipeline.FamilyElevation:
			return testdataset.Ramp(width, height, center), nil
		case pipeline.FamilyLandCover:
			return testdataset.Fill(width, height, center, 1), nil
		default:
			return testdataset.Fill(width, height, center, 0.3), nil
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

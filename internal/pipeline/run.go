package pipeline

import (
	"fmt"

	"github.com/lattice-gis/terrainfuse/internal/catalog"
	"github.com/lattice-gis/terrainfuse/internal/geo"
	"github.com/lattice-gis/terrainfuse/internal/physics"
	"github.com/lattice-gis/terrainfuse/internal/progress"
	"github.com/lattice-gis/terrainfuse/internal/raster"
	"github.com/lattice-gis/terrainfuse/internal/restore"
	"github.com/lattice-gis/terrainfuse/internal/spatial"
	"github.com/lattice-gis/terrainfuse/internal/terrain"
	"github.com/lattice-gis/terrainfuse/internal/validate"
	"github.com/lattice-gis/terrainfuse/internal/voxel"
)

// Catalog family names, matching the per-layer catalog JSON files expected
// under Config.CatalogDir.
const (
	FamilyElevation     = "elevation"
	FamilyHH            = "hh"
	FamilyHV            = "hv"
	FamilyIncidence     = "incidence"
	FamilyLayoverShadow = "layover_shadow"
	FamilySandTop       = "sand_top"
	FamilyClayTop       = "clay_top"
	FamilyPHTop         = "ph_top"
	FamilySOCTop        = "soc_top"
	FamilySandSub       = "sand_sub"
	FamilyClaySub       = "clay_sub"
	FamilyPHSub         = "ph_sub"
	FamilyLandCover     = "land_cover"
)

// DatasetOpener opens the raster.Dataset a catalog entry's path refers to.
// The concrete GeoTIFF/GDAL decoder lives outside this module; callers pass
// their own opener (the CLI's -synthetic mode passes one backed by
// internal/raster/testdataset).
type DatasetOpener func(path string) (raster.Dataset, error)

// Summary reports the run's headline numbers, mirroring the original
// implementation's end-of-run console report.
type Summary struct {
	MinElevation float32
	MaxElevation float32

	WorldMinY      int32
	WorldHeight    int32
	VerticalOffset float32
	ExportWarning  string

	RegionCount int

	CoverageRatios map[string]float64

	RestorationUnitLen    int
	RestorationIterations int
}

// Run executes the full pipeline: catalog load, coverage validation,
// grid sampling, restoration, completeness validation, physics (whose
// fields are checked for completeness as well), and voxel export, in that
// order.
func Run(cfg Config, open DatasetOpener) (*Summary, error) {
	if cfg.ROI == (geo.Rect{}) || cfg.CatalogDir == "" || cfg.OutDir == "" {
		return nil, fmt.Errorf("%w: roi, catalog dir, and output dir are all required", ErrConfigInvalid)
	}

	families, err := catalog.LoadDir(cfg.CatalogDir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: loading catalog: %w", err)
	}

	ratios, err := validate.Coverage(cfg.ROI, catalog.BoundsByDataset(families), cfg.CoverageThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCoverageInsufficient, err)
	}

	ctx := spatial.Analyze(cfg.ROI)
	ropts := cfg.rasterOptions()

	mosaicFor := func(name string) *raster.Mosaic {
		entries := families[name]
		if len(entries) == 0 {
			return nil
		}
		sources := make([]raster.MosaicSource, 0, len(entries))
		for _, e := range entries {
			ds, err := open(e.Path)
			if err != nil {
				continue
			}
			sources = append(sources, raster.NewMosaicSource(e.ID, e.Bounds, ds))
		}
		return raster.BuildMosaic(sources, ropts)
	}

	bundle := terrain.Bundle{
		Elevation:     mosaicFor(FamilyElevation),
		HH:            mosaicFor(FamilyHH),
		HV:            mosaicFor(FamilyHV),
		Incidence:     mosaicFor(FamilyIncidence),
		LayoverShadow: mosaicFor(FamilyLayoverShadow),
		SandTop:       mosaicFor(FamilySandTop),
		ClayTop:       mosaicFor(FamilyClayTop),
		PHTop:         mosaicFor(FamilyPHTop),
		SOCTop:        mosaicFor(FamilySOCTop),
		SandSub:       mosaicFor(FamilySandSub),
		ClaySub:       mosaicFor(FamilyClaySub),
		PHSub:         mosaicFor(FamilyPHSub),
	}
	landCover := mosaicFor(FamilyLandCover)

	reporter := progress.NewReporter(!cfg.Verbose)
	sampleBar := reporter.NewBar("sampling", int64(ctx.Height()))
	physicsBar := reporter.NewBar("physics", int64(ctx.Height()))
	reporter.Start()
	defer reporter.Stop()

	grid := terrain.AlignAndResample(bundle, ctx, landCover, cfg.Workers, sampleBar)

	restoreBar := reporter.NewBar("restoration", int64(len(grid.ContinuousLayers())+1))
	for _, layer := range grid.ContinuousLayers() {
		copy(layer.Data, restore.Continuous(layer.Data, grid.Width, grid.Height, cfg.RestorationUnitLen, cfg.RestorationIterations))
		restoreBar.Increment(1)
	}
	grid.LandCover = restore.Discrete(grid.LandCover, grid.Width, grid.Height, cfg.RestorationUnitLen, cfg.RestorationIterations, terrain.AbsentLandCover)
	restoreBar.Increment(1)
	for _, layer := range grid.MedianSmoothedLayers() {
		copy(layer.Data, restore.MedianSmooth(layer.Data, grid.Width, grid.Height))
	}

	grid.ComputeElevationBounds()

	continuous := make(map[string][]float32, len(grid.ContinuousLayers()))
	for _, l := range grid.ContinuousLayers() {
		continuous[l.Name] = l.Data
	}
	if err := validate.Completeness(continuous, grid.Width, grid.Height); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteAfterRestoration, err)
	}
	if err := validate.CompletenessDiscrete(FamilyLandCover, grid.LandCover, terrain.AbsentLandCover, grid.Width, grid.Height); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteAfterRestoration, err)
	}

	phys := physics.Compute(grid.Elevation, grid.Width, grid.Height, ctx, cfg.Workers, physicsBar)
	physLayers := map[string][]float32{
		"slope": phys.Slope, "aspect": phys.Aspect, "tpi": phys.TPI,
		"twi": phys.TWI, "hli": phys.HLI,
	}
	if err := validate.Completeness(physLayers, grid.Width, grid.Height); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteAfterRestoration, err)
	}

	exportCfg, warning, err := voxel.CalculateExportConfig(grid.MinElevation, grid.MaxElevation)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	if err := voxel.WriteRegions(cfg.OutDir, grid, exportCfg); err != nil {
		return nil, fmt.Errorf("pipeline: writing regions: %w", err)
	}

	regionCount := ceilDiv(grid.Width, 512) * ceilDiv(grid.Height, 512)

	return &Summary{
		MinElevation:          grid.MinElevation,
		MaxElevation:          grid.MaxElevation,
		WorldMinY:             exportCfg.WorldMinY,
		WorldHeight:           exportCfg.WorldHeight,
		VerticalOffset:        exportCfg.VerticalOffset,
		ExportWarning:         warning,
		RegionCount:           regionCount,
		CoverageRatios:        ratios,
		RestorationUnitLen:    cfg.RestorationUnitLen,
		RestorationIterations: cfg.RestorationIterations,
	}, nil
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

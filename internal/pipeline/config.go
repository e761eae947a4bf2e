// Package pipeline orchestrates the full raster-fusion pipeline: coverage
// validation, grid sampling, restoration, physics, and voxel export.
package pipeline

import (
	"github.com/lattice-gis/terrainfuse/internal/geo"
	"github.com/lattice-gis/terrainfuse/internal/raster"
	"github.com/lattice-gis/terrainfuse/internal/restore"
	"github.com/lattice-gis/terrainfuse/internal/validate"
)

// Config holds every recognised pipeline option, mirroring the
// configuration table in the specification. The zero value is invalid;
// use DefaultConfig and override only what the caller needs to change.
type Config struct {
	ROI        geo.Rect
	CatalogDir string
	OutDir     string
	Workers    int
	Verbose    bool
	Synthetic  bool

	PreloadThresholdBytes int64
	BlockSide             int
	MaxCacheEntries       int
	NoDataEpsilon         float64

	CoverageThreshold float64

	RestorationUnitLen     int
	RestorationIterations  int
}

// DefaultConfig returns a Config with every documented default applied;
// ROI, CatalogDir, and OutDir are left zero and must be set by the caller.
func DefaultConfig() Config {
	return Config{
		Workers:                0,
		PreloadThresholdBytes:  raster.DefaultPreloadThresholdBytes,
		BlockSide:              raster.DefaultBlockSide,
		MaxCacheEntries:        raster.DefaultMaxCacheBlocks,
		NoDataEpsilon:          raster.DefaultNoDataEpsilon,
		CoverageThreshold:      validate.DefaultCoverageThreshold,
		RestorationUnitLen:     restore.DefaultUnitLen,
		RestorationIterations:  restore.DefaultSmoothIterations,
	}
}

func (c Config) rasterOptions() raster.Options {
	return raster.Options{
		PreloadThresholdBytes: c.PreloadThresholdBytes,
		BlockSide:             c.BlockSide,
		MaxCacheBlocks:        c.MaxCacheEntries,
		NoDataEpsilon:         c.NoDataEpsilon,
	}
}

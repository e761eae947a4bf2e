// Package voxel maps a continuous elevation field into a fixed-capacity
// vertical range and serializes it into Minecraft-style anvil region files.
package voxel

import (
	"errors"
	"fmt"
	"math"
)

const (
	// AbsMinY is the absolute floor of the addressable vertical space.
	AbsMinY = -2032
	// MaxCapacity is the total addressable vertical span.
	MaxCapacity = 4064
	absMaxY     = AbsMinY + MaxCapacity

	// SectorSize is the anvil region file's sector granularity, in bytes.
	SectorSize = 4096
	// DataVersion is the chunk format version stamped into every chunk.
	DataVersion = 4671
	// CompressionLZ4 is the anvil compression-type byte for LZ4 payloads.
	CompressionLZ4 = 4

	regionBlockSize = 512
	sectionHeight   = 16
)

// ErrExportOverflow reports that the mapped elevation maximum exceeds the
// voxel ceiling; fatal for the run.
var ErrExportOverflow = errors.New("voxel: mapped elevation exceeds export ceiling")

// ExportConfig is the computed vertical mapping from elevation to voxel Y.
type ExportConfig struct {
	WorldMinY      int32
	WorldHeight    int32
	VerticalOffset float32
}

// MapHeight converts an elevation value to an integer world Y.
func (c ExportConfig) MapHeight(elevation float32) int32 {
	return int32(math.Floor(float64(elevation - c.VerticalOffset)))
}

// CalculateExportConfig decides the vertical mapping for the grid's
// elevation range. If the span fits within 384 blocks it anchors at
// y=-64; otherwise it anchors the top near the absolute ceiling and
// quantizes the floor down to a multiple of 16. It returns a warning
// string (non-fatal) when the resulting world exceeds the vanilla 384
// block height or drops below y=-64, and ErrExportOverflow when the
// mapped maximum would exceed the computed ceiling.
func CalculateExportConfig(minElevation, maxElevation float32) (ExportConfig, string, error) {
	totalSpan := maxElevation - minElevation

	targetMinY := int32(-64)
	if totalSpan > 384 {
		targetMaxY := int32(absMaxY - 16)
		calculatedMinY := float32(targetMaxY) - totalSpan
		if calculatedMinY < AbsMinY {
			targetMinY = AbsMinY
		} else {
			targetMinY = (int32(calculatedMinY) / 16) * 16
		}
	}

	verticalOffset := minElevation - float32(targetMinY)
	mappedTop := maxElevation - verticalOffset
	reqTopY := (int32(math.Ceil(float64(mappedTop))) + 15) / 16 * 16

	height := reqTopY - targetMinY
	if height < 384 {
		height = 384
	}
	if height > MaxCapacity {
		height = MaxCapacity
	}

	cfg := ExportConfig{WorldMinY: targetMinY, WorldHeight: height, VerticalOffset: verticalOffset}

	limitMax := float32(targetMinY + height - 1)
	mappedMax := maxElevation - verticalOffset
	if mappedMax > limitMax {
		return cfg, "", fmt.Errorf("%w: mapped max %.2f exceeds ceiling %.2f", ErrExportOverflow, mappedMax, limitMax)
	}

	var warning string
	if height > 384 || targetMinY < -64 {
		warning = "map height exceeds 384 blocks; requires an extended world-height datapack"
	}
	return cfg, warning, nil
}

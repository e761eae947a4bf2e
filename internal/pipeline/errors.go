package pipeline

import (
	"errors"

	"github.com/lattice-gis/terrainfuse/internal/voxel"
)

// ErrConfigInvalid marks a Config that fails validation before any work
// starts (empty ROI, missing catalog or output directory).
var ErrConfigInvalid = errors.New("pipeline: invalid configuration")

// ErrCoverageInsufficient marks a fatal abort: at least one provider
// dataset's catalog tiles (pooled across its layer families) don't cover
// the requested ROI closely enough to proceed.
var ErrCoverageInsufficient = errors.New("pipeline: coverage insufficient")

// ErrIncompleteAfterRestoration marks a fatal abort: a layer still has
// absent cells after the restoration pass, which should never happen for a
// family that passed coverage validation and indicates a restoration bug
// rather than a data gap.
var ErrIncompleteAfterRestoration = errors.New("pipeline: incomplete after restoration")

// ErrExportOverflow re-exports voxel.ErrExportOverflow so callers can
// recognize a fatal export-ceiling failure without importing internal/voxel
// directly.
var ErrExportOverflow = voxel.ErrExportOverflow

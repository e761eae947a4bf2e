package voxel

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"

	"github.com/lattice-gis/terrainfuse/internal/terrain"
)

func TestWriteRegionsProducesReadableWireFormat(t *testing.T) {
	grid := terrain.NewGrid(20, 20)
	for i := range grid.Elevation {
		grid.Elevation[i] = 50.0
	}
	cfg, _, err := CalculateExportConfig(0, 100)
	if err != nil {
		t.Fatalf("CalculateExportConfig() error = %v", err)
	}

	dir := t.TempDir()
	if err := WriteRegions(dir, grid, cfg); err != nil {
		t.Fatalf("WriteRegions() error = %v", err)
	}

	path := filepath.Join(dir, "r.0.0.mca")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	loc0 := binary.BigEndian.Uint32(data[0:4])
	startSector := loc0 >> 8
	if startSector != 2 {
		t.Fatalf("chunk(0,0) starting sector = %d, want 2", startSector)
	}

	offset := int(startSector) * SectorSize
	payloadLen := binary.BigEndian.Uint32(data[offset : offset+4])
	compressionType := data[offset+4]
	if compressionType != CompressionLZ4 {
		t.Fatalf("compression type = %d, want %d", compressionType, CompressionLZ4)
	}

	compressed := data[offset+5 : offset+5+int(payloadLen)-1]
	decompressed := make([]byte, 1<<20)
	n, err := lz4.UncompressBlock(compressed, decompressed)
	if err != nil {
		t.Fatalf("UncompressBlock() error = %v", err)
	}
	decompressed = decompressed[:n]

	dv := readChunkDataVersion(t, decompressed)
	if dv != DataVersion {
		t.Errorf("DataVersion = %d, want %d", dv, DataVersion)
	}
}

// readChunkDataVersion parses just far enough into the hand-rolled NBT
// stream to read the first field, DataVersion, relying on the known fixed
// field order from buildChunk.
func readChunkDataVersion(t *testing.T, data []byte) int32 {
	t.Helper()
	// [[tagCompound][nameLen=0]] [[tagInt][nameLen=11]["DataVersion"]][value]
	pos := 1 + 2 // root compound tag + empty name length
	pos += 1     // DataVersion tag id
	nameLen := int(binary.BigEndian.Uint16(data[pos : pos+2]))
	pos += 2 + nameLen
	return int32(binary.BigEndian.Uint32(data[pos : pos+4]))
}

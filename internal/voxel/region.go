package voxel

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"

	"github.com/lattice-gis/terrainfuse/internal/terrain"
)

// WriteRegions emits every r.<rx>.<rz>.mca region file covering grid's
// extent into dir.
func WriteRegions(dir string, grid *terrain.Grid, cfg ExportConfig) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("voxel: creating output dir: %w", err)
	}

	regionsX := ceilDiv(grid.Width, regionBlockSize)
	regionsZ := ceilDiv(grid.Height, regionBlockSize)

	for rx := 0; rx < regionsX; rx++ {
		for rz := 0; rz < regionsZ; rz++ {
			if err := writeRegion(dir, rx, rz, grid, cfg); err != nil {
				return fmt.Errorf("voxel: region r.%d.%d: %w", rx, rz, err)
			}
		}
	}
	return nil
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

func writeRegion(dir string, rx, rz int, grid *terrain.Grid, cfg ExportConfig) error {
	path := filepath.Join(dir, fmt.Sprintf("r.%d.%d.mca", rx, rz))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(make([]byte, 2*SectorSize)); err != nil {
		return err
	}

	locations := make([]uint32, 1024)
	currentSector := uint32(2)

	for cz := 0; cz < 32; cz++ {
		for cx := 0; cx < 32; cx++ {
			globalX := rx*regionBlockSize + cx*sectionHeight
			globalZ := rz*regionBlockSize + cz*sectionHeight

			chunkBytes := buildChunk(grid, globalX, globalZ, cfg)
			compressed, err := compressLZ4(chunkBytes)
			if err != nil {
				return err
			}

			payloadLen := uint32(len(compressed) + 1)
			if err := binary.Write(f, binary.BigEndian, payloadLen); err != nil {
				return err
			}
			if _, err := f.Write([]byte{CompressionLZ4}); err != nil {
				return err
			}
			if _, err := f.Write(compressed); err != nil {
				return err
			}

			totalWritten := 4 + 1 + len(compressed)
			padding := (SectorSize - totalWritten%SectorSize) % SectorSize
			if padding > 0 {
				if _, err := f.Write(make([]byte, padding)); err != nil {
					return err
				}
			}

			sectorsUsed := uint32((totalWritten + padding) / SectorSize)
			locations[cz*32+cx] = (currentSector << 8) | sectorsUsed
			currentSector += sectorsUsed
		}
	}

	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	for _, loc := range locations {
		if err := binary.Write(f, binary.BigEndian, loc); err != nil {
			return err
		}
	}
	return nil
}

// compressLZ4 produces a single LZ4 block for payload, the anvil format's
// compression-type-4 encoding.
func compressLZ4(payload []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(payload)))
	var compressor lz4.Compressor
	n, err := compressor.CompressBlock(payload, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 && len(payload) > 0 {
		return nil, fmt.Errorf("lz4 compress: empty output for %d-byte input", len(payload))
	}
	return dst[:n], nil
}

// heightMap computes the 256 per-column ground heights for the 16x16 chunk
// anchored at (gx, gz), plus the chunk's min/max for section pruning.
func heightMap(grid *terrain.Grid, gx, gz int, cfg ExportConfig) (heights [256]int32, minH, maxH int32) {
	minH = math.MaxInt32
	maxH = math.MinInt32
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			curX, curZ := gx+x, gz+z
			h := cfg.WorldMinY
			if curX < grid.Width && curZ < grid.Height {
				idx := curZ*grid.Width + curX
				v := grid.Elevation[idx]
				if !math.IsNaN(float64(v)) {
					h = cfg.MapHeight(v)
				}
			}
			heights[z*16+x] = h
			if h < minH {
				minH = h
			}
			if h > maxH {
				maxH = h
			}
		}
	}
	return
}

func buildChunk(grid *terrain.Grid, gx, gz int, cfg ExportConfig) []byte {
	minY := cfg.WorldMinY
	maxY := minY + cfg.WorldHeight

	heights, chunkMinH, chunkMaxH := heightMap(grid, gx, gz, cfg)

	minSection := minY >> 4
	maxSection := (maxY >> 4) - 1

	type sectionSpec struct {
		y       int32
		stoneOnly bool
		data    []int64
	}
	var sections []sectionSpec

	for sy := minSection; sy <= maxSection; sy++ {
		baseY := sy * 16
		topY := baseY + 15
		if baseY > chunkMaxH {
			continue
		}
		if topY <= chunkMinH {
			sections = append(sections, sectionSpec{y: sy, stoneOnly: true})
			continue
		}

		indices := make([]int, 0, 4096)
		for y := int32(0); y < 16; y++ {
			absY := baseY + y
			for z := 0; z < 16; z++ {
				for x := 0; x < 16; x++ {
					if absY <= heights[z*16+x] {
						indices = append(indices, 1)
					} else {
						indices = append(indices, 0)
					}
				}
			}
		}
		sections = append(sections, sectionSpec{y: sy, data: packStates(indices, 4)})
	}

	w := &nbtWriter{}
	w.startCompound("")
	w.int32("DataVersion", DataVersion)
	w.int32("xPos", int32(gx/16))
	w.int32("zPos", int32(gz/16))
	w.int32("yPos", minY)
	w.str("Status", "minecraft:features")

	w.startListOfCompounds("sections", len(sections))
	for _, s := range sections {
		w.int8("Y", int8(s.y))

		w.startCompound("block_states")
		if s.stoneOnly {
			w.startListOfCompounds("palette", 1)
			w.str("Name", "minecraft:stone")
			w.endCompound()
			w.longArray("data", []int64{})
		} else {
			w.startListOfCompounds("palette", 2)
			w.str("Name", "minecraft:air")
			w.endCompound()
			w.str("Name", "minecraft:stone")
			w.endCompound()
			w.longArray("data", s.data)
		}
		w.endCompound() // block_states

		w.startCompound("biomes")
		w.startStringList("palette", 1)
		w.listStringElem("minecraft:plains")
		w.endCompound() // biomes

		w.endCompound() // section element
	}
	w.endCompound() // root

	return w.bytes()
}

// packStates bit-packs palette indices, bitsPerBlock bits each, into
// little-endian-within-word 64-bit longs, y->z->x ordering already baked
// into the caller's index order.
func packStates(states []int, bitsPerBlock int) []int64 {
	blocksPerLong := 64 / bitsPerBlock
	longCount := ceilDiv(len(states), blocksPerLong)
	data := make([]int64, longCount)

	for i, state := range states {
		longIndex := i / blocksPerLong
		subIndex := i % blocksPerLong
		bitOffset := subIndex * bitsPerBlock
		data[longIndex] |= int64(state) << bitOffset
	}
	return data
}

package restore

import (
	"sync/atomic"

	"github.com/lattice-gis/terrainfuse/internal/progress"
)

// Discrete fills a byte grid's absent cells (marked by the absent value) in
// place-equivalent fashion using a mode-reducer pyramid mirroring
// Continuous's structure: mode downsample, nearest upsample, mode in-fill.
func Discrete(data []byte, w, h, unitLen, smoothIterations int, absent byte) []byte {
	if unitLen <= 0 {
		unitLen = DefaultUnitLen
	}
	if smoothIterations <= 0 {
		smoothIterations = DefaultSmoothIterations
	}
	return restoreDiscrete(data, w, h, unitLen, smoothIterations, absent)
}

func restoreDiscrete(data []byte, w, h, unitLen, smoothIterations int, absent byte) []byte {
	if w < unitLen || h < unitLen {
		return iterateCoreByte(data, w, h, baseIterations, absent, modeReducer(absent))
	}

	cw, ch := (w+1)/2, (h+1)/2
	coarse := downsampleMode(data, w, h, cw, ch, absent)
	coarse = restoreDiscrete(coarse, cw, ch, unitLen, smoothIterations, absent)

	merged := upsampleMergeNearest(data, w, h, coarse, cw, ch, absent)
	return iterateCoreByte(merged, w, h, smoothIterations, absent, modeReducer(absent))
}

// modeReducer returns a reducer that picks the most frequent valid Moore
// neighbor, ties broken by order of first occurrence.
func modeReducer(absent byte) func([]byte, int, int, int, int) byte {
	return func(data []byte, w, h, x, y int) byte {
		var order []byte
		counts := make(map[byte]int)
		forMooreNeighbors(w, h, x, y, func(nx, ny int) {
			v := data[ny*w+nx]
			if v == absent {
				return
			}
			if _, seen := counts[v]; !seen {
				order = append(order, v)
			}
			counts[v]++
		})
		if len(order) == 0 {
			return absent
		}
		best := order[0]
		bestCount := counts[best]
		for _, v := range order[1:] {
			if counts[v] > bestCount {
				best = v
				bestCount = counts[v]
			}
		}
		return best
	}
}

func iterateCoreByte(data []byte, w, h, budget int, absent byte, reduce func([]byte, int, int, int, int) byte) []byte {
	cur := append([]byte(nil), data...)
	aux := make([]byte, len(data))

	for iter := 0; iter < budget; iter++ {
		var changed atomic.Bool
		progress.Parallel(h, 0, func(rowStart, rowEnd int) {
			localChanged := false
			for y := rowStart; y < rowEnd; y++ {
				for x := 0; x < w; x++ {
					idx := y*w + x
					v := cur[idx]
					if v != absent {
						aux[idx] = v
						continue
					}
					filled := reduce(cur, w, h, x, y)
					aux[idx] = filled
					if filled != absent {
						localChanged = true
					}
				}
			}
			if localChanged {
				changed.Store(true)
			}
		})
		cur, aux = aux, cur
		if !changed.Load() {
			break
		}
	}
	return cur
}

func downsampleMode(data []byte, w, h, cw, ch int, absent byte) []byte {
	out := make([]byte, cw*ch)
	progress.Parallel(ch, 0, func(rowStart, rowEnd int) {
		for cy := rowStart; cy < rowEnd; cy++ {
			for cx := 0; cx < cw; cx++ {
				var order []byte
				counts := make(map[byte]int)
				for dy := 0; dy < 2; dy++ {
					y := cy*2 + dy
					if y >= h {
						continue
					}
					for dx := 0; dx < 2; dx++ {
						x := cx*2 + dx
						if x >= w {
							continue
						}
						v := data[y*w+x]
						if v == absent {
							continue
						}
						if _, seen := counts[v]; !seen {
							order = append(order, v)
						}
						counts[v]++
					}
				}
				if len(order) == 0 {
					out[cy*cw+cx] = absent
					continue
				}
				best := order[0]
				bestCount := counts[best]
				for _, v := range order[1:] {
					if counts[v] > bestCount {
						best = v
						bestCount = counts[v]
					}
				}
				out[cy*cw+cx] = best
			}
		}
	})
	return out
}

// upsampleMergeNearest fills every still-absent fine cell with the nearest
// coarse cell's value, if that coarse cell is valid.
func upsampleMergeNearest(fine []byte, w, h int, coarse []byte, cw, ch int, absent byte) []byte {
	out := append([]byte(nil), fine...)
	progress.Parallel(h, 0, func(rowStart, rowEnd int) {
		for y := rowStart; y < rowEnd; y++ {
			for x := 0; x < w; x++ {
				idx := y*w + x
				if out[idx] != absent {
					continue
				}
				u := (float64(x)+0.5)/2 - 0.5
				v := (float64(y)+0.5)/2 - 0.5
				cx := roundHalfAwayFromZero(u)
				cy := roundHalfAwayFromZero(v)
				if cx < 0 || cy < 0 || cx >= cw || cy >= ch {
					continue
				}
				cv := coarse[cy*cw+cx]
				if cv != absent {
					out[idx] = cv
				}
			}
		}
	})
	return out
}

func roundHalfAwayFromZero(f float64) int {
	if f >= 0 {
		return int(f + 0.5)
	}
	return -int(-f + 0.5)
}

package raster

import (
	"sort"

	"github.com/pkg/errors"
)

// FillMethod selects how missing pixels are interpolated.
type FillMethod uint8

const (
	// FillNearest copies the value of the closest occupied pixel. Ties break
	// to the occupied pixel with the lowest (U, V), so fills are
	// deterministic.
	FillNearest = FillMethod(iota)
	// FillIDW blends all occupied pixels weighted by inverse squared
	// distance. Cost is O(missing * occupied); intended for the hole sizes
	// left after squashing, not for mostly-empty rasters.
	FillIDW
)

// ErrInvalidFillMethod is returned for an unknown fill method.
var ErrInvalidFillMethod = errors.New("unknown fill method")

// Interpolate returns a copy of the raster with every missing pixel inside
// the occupied bounding rectangle filled in. The input raster is not
// modified. An empty raster comes back empty.
func Interpolate(r *Raster, method FillMethod) (*Raster, error) {
	if method > FillIDW {
		return nil, errors.Wrapf(ErrInvalidFillMethod, "got %d", method)
	}

	out := &Raster{Meta: r.Meta, Cells: make(map[PixelCoords]float64, len(r.Cells))}
	for p, v := range r.Cells {
		out.Cells[p] = v
	}
	minU, minV, maxU, maxV, ok := r.Bounds()
	if !ok {
		return out, nil
	}

	occupied := make([]PixelCoords, 0, len(r.Cells))
	for p := range r.Cells {
		occupied = append(occupied, p)
	}
	sort.Slice(occupied, func(i, j int) bool {
		if occupied[i].U != occupied[j].U {
			return occupied[i].U < occupied[j].U
		}
		return occupied[i].V < occupied[j].V
	})

	for u := minU; u <= maxU; u++ {
		for v := minV; v <= maxV; v++ {
			p := PixelCoords{U: u, V: v}
			if _, filled := r.Cells[p]; filled {
				continue
			}
			switch method {
			case FillNearest:
				out.Cells[p] = nearestValue(r, occupied, p)
			case FillIDW:
				out.Cells[p] = idwValue(r, occupied, p)
			}
		}
	}
	return out, nil
}

func nearestValue(r *Raster, occupied []PixelCoords, p PixelCoords) float64 {
	best := occupied[0]
	bestDist := sqDist(best, p)
	for _, q := range occupied[1:] {
		if d := sqDist(q, p); d < bestDist {
			best, bestDist = q, d
		}
	}
	return r.Cells[best]
}

func idwValue(r *Raster, occupied []PixelCoords, p PixelCoords) float64 {
	var weighted, total float64
	for _, q := range occupied {
		d := float64(sqDist(q, p))
		w := 1 / d
		weighted += w * r.Cells[q]
		total += w
	}
	return weighted / total
}

func sqDist(a, b PixelCoords) int64 {
	du := a.U - b.U
	dv := a.V - b.V
	return du*du + dv*dv
}

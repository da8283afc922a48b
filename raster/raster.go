// Package raster collapses voxel feature grids into sparse 2D rasters by
// squashing one axis, and fills holes in the result. It is the bridge from
// per-cell 3D features to surface products like digital surface models.
package raster

import (
	"github.com/vxgrid/vxgrid/voxel"
)

// PixelCoords identifies a raster pixel on the 2D lattice left after
// squashing one grid axis.
type PixelCoords struct {
	U, V int64
}

// Meta describes how a raster was produced and links back to the voxel
// feature map metadata it came from, so pixel geometry stays reconstructible.
type Meta struct {
	Source voxel.Meta
	Axis   int
	Method Method
}

// Raster is a sparse 2D raster: only pixels with data carry a key. Absent
// pixels are "no data", not zero.
type Raster struct {
	Meta  Meta
	Cells map[PixelCoords]float64
}

// Len returns the number of pixels carrying a value.
func (r *Raster) Len() int {
	return len(r.Cells)
}

// At returns the value at the given pixel, if present.
func (r *Raster) At(p PixelCoords) (float64, bool) {
	v, ok := r.Cells[p]
	return v, ok
}

// Bounds returns the inclusive pixel-coordinate bounding rectangle of the
// occupied pixels. ok is false for an empty raster.
func (r *Raster) Bounds() (minU, minV, maxU, maxV int64, ok bool) {
	first := true
	for p := range r.Cells {
		if first {
			minU, maxU = p.U, p.U
			minV, maxV = p.V, p.V
			first = false
			continue
		}
		if p.U < minU {
			minU = p.U
		}
		if p.U > maxU {
			maxU = p.U
		}
		if p.V < minV {
			minV = p.V
		}
		if p.V > maxV {
			maxV = p.V
		}
	}
	return minU, minV, maxU, maxV, !first
}

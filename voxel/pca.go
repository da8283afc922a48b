package voxel

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/vxgrid/vxgrid/pointcloud"
)

// MinOrientationPoints is the number of points a cell needs before its
// principal axes or surface normal are defined.
const MinOrientationPoints = 3

// Orientation returns the principal axes of the 3D point coordinates within
// each cell, ordered by decreasing eigenvalue of the covariance. Cells with
// fewer than MinOrientationPoints points yield the explicit undefined marker
// rather than a degenerate computation.
func (a *Aggregator) Orientation() *OrientationMap {
	cells := mapCells(a.grid, a.workers, func(c *Cell) OrientationValue {
		axes, eigenvalues, ok := a.principalAxes(c)
		if !ok {
			return OrientationValue{Undefined: true}
		}
		return OrientationValue{Axes: axes, Eigenvalues: eigenvalues}
	})
	return &OrientationMap{Meta: a.meta("", pointcloud.FieldNumeric, "orientation"), Cells: cells}
}

// Normals estimates a surface normal per cell from the cell's local point
// geometry: the eigenvector of the smallest covariance eigenvalue,
// sign-normalized toward the up semantic axis so repeated runs agree.
// The minimum point requirement is the same as for Orientation.
func (a *Aggregator) Normals() *VectorMap {
	cells := mapCells(a.grid, a.workers, func(c *Cell) VectorValue {
		axes, _, ok := a.principalAxes(c)
		if !ok {
			return VectorValue{Undefined: true}
		}
		return VectorValue{Vec: a.orientUp(axes[2])}
	})
	return &VectorMap{Meta: a.meta("", pointcloud.FieldNumeric, "normal"), Cells: cells}
}

// principalAxes runs PCA over a cell's point positions. Axes come back in
// decreasing eigenvalue order, each sign-normalized so its largest-magnitude
// component is positive (eigenvector signs are otherwise arbitrary).
func (a *Aggregator) principalAxes(c *Cell) ([3]r3.Vector, [3]float64, bool) {
	var axes [3]r3.Vector
	var eigenvalues [3]float64
	if len(c.Indices) < MinOrientationPoints {
		return axes, eigenvalues, false
	}

	center := r3.Vector{}
	for _, idx := range c.Indices {
		center = center.Add(a.cloud.At(idx))
	}
	center = center.Mul(1. / float64(len(c.Indices)))

	var xx, xy, xz, yy, yz, zz float64
	for _, idx := range c.Indices {
		d := a.cloud.At(idx).Sub(center)
		xx += d.X * d.X
		xy += d.X * d.Y
		xz += d.X * d.Z
		yy += d.Y * d.Y
		yz += d.Y * d.Z
		zz += d.Z * d.Z
	}
	n := float64(len(c.Indices))
	cov := mat.NewSymDense(3, []float64{
		xx / n, xy / n, xz / n,
		xy / n, yy / n, yz / n,
		xz / n, yz / n, zz / n,
	})

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return axes, eigenvalues, false
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// gonum returns eigenvalues in ascending order.
	for i := 0; i < 3; i++ {
		col := 2 - i
		eigenvalues[i] = vals[col]
		axes[i] = canonicalSign(r3.Vector{
			X: vecs.At(0, col),
			Y: vecs.At(1, col),
			Z: vecs.At(2, col),
		})
	}
	return axes, eigenvalues, true
}

// canonicalSign flips v so that its largest-magnitude component is positive.
func canonicalSign(v r3.Vector) r3.Vector {
	lead := v.X
	for _, comp := range []float64{v.Y, v.Z} {
		if math.Abs(comp) > math.Abs(lead) {
			lead = comp
		}
	}
	if lead < 0 {
		return v.Mul(-1)
	}
	return v
}

// orientUp flips n into the hemisphere of the up semantic axis.
func (a *Aggregator) orientUp(n r3.Vector) r3.Vector {
	if pointcloud.Component(n, a.up) < 0 {
		return n.Mul(-1)
	}
	return n
}

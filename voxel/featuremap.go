package voxel

import (
	"github.com/golang/geo/r3"

	"github.com/vxgrid/vxgrid/pointcloud"
)

// Meta is the metadata accompanying a sparse feature map. Together with the
// cell coordinate keys it is sufficient to reconstruct cell geometry, since
// no dense matrix or cell-bounds array is ever stored.
type Meta struct {
	Origin    r3.Vector
	Step      r3.Vector
	Field     string
	Kind      pointcloud.FieldKind
	Reduction string
}

// CellBounds returns the spatial extent [min, max) of a cell reconstructed
// from the metadata.
func (m Meta) CellBounds(coords CellCoords) (r3.Vector, r3.Vector) {
	min := r3.Vector{
		X: m.Origin.X + float64(coords.I)*m.Step.X,
		Y: m.Origin.Y + float64(coords.J)*m.Step.Y,
		Z: m.Origin.Z + float64(coords.K)*m.Step.Z,
	}
	return min, min.Add(m.Step)
}

// Advisory flags high within-cell disagreement on a Mode result: the field's
// entropy within the cell exceeded the configured threshold. It accompanies
// the computed value, it never replaces it.
type Advisory struct {
	EntropyBits float64
	Threshold   float64
}

// CellValue is one cell's scalar reduction result. Undefined marks cells
// where the reduction could not be computed (for example too few points);
// such cells keep their key in the map so consumers can tell "no data" apart
// from an absent (empty) cell.
type CellValue struct {
	Value       float64
	Undefined   bool
	Approximate bool
	Advisory    *Advisory
}

// FeatureMap is a sparse mapping from cell coordinates to a scalar reduction
// result. Every key corresponds to a non-empty cell of the source grid;
// absent keys are implicitly "no data", not zero.
type FeatureMap struct {
	Meta  Meta
	Cells map[CellCoords]CellValue
}

// Len returns the number of cells carrying a result.
func (fm *FeatureMap) Len() int {
	return len(fm.Cells)
}

// At returns the result for the given cell, if present.
func (fm *FeatureMap) At(coords CellCoords) (CellValue, bool) {
	v, ok := fm.Cells[coords]
	return v, ok
}

// VectorValue is one cell's vector-valued reduction result.
type VectorValue struct {
	Vec       r3.Vector
	Undefined bool
}

// VectorMap is a sparse mapping from cell coordinates to a vector result,
// e.g. estimated surface normals.
type VectorMap struct {
	Meta  Meta
	Cells map[CellCoords]VectorValue
}

// OrientationValue holds the principal axes of a cell's points, ordered by
// decreasing eigenvalue, with the matching eigenvalues of the covariance.
type OrientationValue struct {
	Axes        [3]r3.Vector
	Eigenvalues [3]float64
	Undefined   bool
}

// OrientationMap is a sparse mapping from cell coordinates to a PCA
// orientation result.
type OrientationMap struct {
	Meta  Meta
	Cells map[CellCoords]OrientationValue
}

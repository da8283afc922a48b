// Package voxel partitions point clouds into a sparse, axis-aligned voxel
// grid and computes per-cell reductions over point fields.
//
// A voxel represents a value on a regular grid in three-dimensional space.
// As with pixels in a 2D bitmap, voxels do not have their position encoded
// with their values; a cell is identified by its integer coordinates on the
// grid lattice. Only occupied cells are materialized, so empty space costs
// nothing and no dense matrix ever exists.
package voxel

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/vxgrid/vxgrid/pointcloud"
)

var (
	// ErrInvalidStep is returned when a grid step is not positive on every axis.
	ErrInvalidStep = errors.New("step must be positive on every axis")
	// ErrEmptyCloud is returned when a grid build is asked to run over a
	// cloud with zero points. Callers that want to treat this as an empty
	// result must do so explicitly.
	ErrEmptyCloud = errors.New("point cloud has no points")
	// ErrNotBuilt is returned when an operation needs a built grid.
	ErrNotBuilt = errors.New("grid has not been built from a cloud")
)

// CellCoords stores a cell's integer coordinates on the grid lattice.
type CellCoords struct {
	I, J, K int64
}

// IsEqual tests if two CellCoords are the same.
func (c CellCoords) IsEqual(c2 CellCoords) bool {
	return c.I == c2.I && c.J == c2.J && c.K == c2.K
}

// Cell groups the indices of the points that fall inside one voxel. It owns
// no point data; indices refer into the cloud the grid was built from.
type Cell struct {
	Key     CellCoords
	Indices []int
}

// Size returns the number of points in the cell.
func (c *Cell) Size() int {
	return len(c.Indices)
}

// Grid is a sparse voxel grid. It is anchored at a fixed-reference origin
// rather than the data's bounding box, so different clouds voxelized at the
// same step align on a shared lattice.
type Grid struct {
	origin r3.Vector
	step   r3.Vector
	cells  map[CellCoords]*Cell
	total  int
	logger golog.Logger
}

// NewGrid creates an empty grid with the given origin and per-axis step.
// The step may be anisotropic; it must be positive on every axis.
func NewGrid(origin, step r3.Vector, logger golog.Logger) (*Grid, error) {
	if !(step.X > 0 && step.Y > 0 && step.Z > 0) {
		return nil, errors.Wrapf(ErrInvalidStep, "step (%v, %v, %v)", step.X, step.Y, step.Z)
	}
	return &Grid{
		origin: origin,
		step:   step,
		cells:  map[CellCoords]*Cell{},
		logger: logger,
	}, nil
}

// NewUniformGrid creates a grid with an all-zero origin and the same step on
// every axis.
func NewUniformGrid(step float64, logger golog.Logger) (*Grid, error) {
	return NewGrid(r3.Vector{}, r3.Vector{X: step, Y: step, Z: step}, logger)
}

// Origin returns the grid's anchor point.
func (g *Grid) Origin() r3.Vector {
	return g.origin
}

// Step returns the per-axis cell size.
func (g *Grid) Step() r3.Vector {
	return g.step
}

// Size returns the total number of points assigned across all cells.
func (g *Grid) Size() int {
	return g.total
}

// NumCells returns the number of occupied cells.
func (g *Grid) NumCells() int {
	return len(g.cells)
}

// CellOf computes the cell containing the given position. Cells cover the
// half-open interval [k*step, (k+1)*step) on each axis, so a point exactly on
// a boundary falls into the cell on the positive side.
func (g *Grid) CellOf(p r3.Vector) CellCoords {
	return CellCoords{
		I: int64(math.Floor((p.X - g.origin.X) / g.step.X)),
		J: int64(math.Floor((p.Y - g.origin.Y) / g.step.Y)),
		K: int64(math.Floor((p.Z - g.origin.Z) / g.step.Z)),
	}
}

// CellAt returns the cell at the given coordinates, if occupied.
func (g *Grid) CellAt(coords CellCoords) (*Cell, bool) {
	c, ok := g.cells[coords]
	return c, ok
}

// CellBounds returns the spatial extent [min, max) of a cell, reconstructed
// from the grid's origin and step.
func (g *Grid) CellBounds(coords CellCoords) (r3.Vector, r3.Vector) {
	min := r3.Vector{
		X: g.origin.X + float64(coords.I)*g.step.X,
		Y: g.origin.Y + float64(coords.J)*g.step.Y,
		Z: g.origin.Z + float64(coords.K)*g.step.Z,
	}
	return min, min.Add(g.step)
}

// CellCenter returns the center of a cell's spatial extent.
func (g *Grid) CellCenter(coords CellCoords) r3.Vector {
	min, max := g.CellBounds(coords)
	return min.Add(max).Mul(0.5)
}

// Iterate calls fn for every occupied cell until fn returns false. Cell
// order is unspecified.
func (g *Grid) Iterate(fn func(c *Cell) bool) {
	for _, c := range g.cells {
		if !fn(c) {
			return
		}
	}
}

// AdjacentCells returns the occupied cells adjacent to the given cell in
// 26-connectivity.
func (g *Grid) AdjacentCells(coords CellCoords) []CellCoords {
	neighborKeys := make([]CellCoords, 0)
	for _, i := range []int64{coords.I - 1, coords.I, coords.I + 1} {
		for _, j := range []int64{coords.J - 1, coords.J, coords.J + 1} {
			for _, k := range []int64{coords.K - 1, coords.K, coords.K + 1} {
				c := CellCoords{i, j, k}
				if _, ok := g.cells[c]; ok && !c.IsEqual(coords) {
					neighborKeys = append(neighborKeys, c)
				}
			}
		}
	}
	return neighborKeys
}

// Build assigns every point of the cloud to exactly one cell, grouping point
// indices by cell coordinates. Assignment is deterministic: re-running on an
// identical cloud yields an identical grouping. A grid can be built once.
func (g *Grid) Build(cloud pointcloud.PointCloud) error {
	if g.total > 0 || len(g.cells) > 0 {
		return errors.New("grid already built")
	}
	if cloud.Size() == 0 {
		return ErrEmptyCloud
	}
	cloud.Iterate(0, 0, func(i int, p r3.Vector) bool {
		g.assign(i, p)
		return true
	})
	g.total = cloud.Size()
	if g.logger != nil {
		g.logger.Debugf("assigned %d points into %d cells", g.total, len(g.cells))
	}
	return nil
}

func (g *Grid) assign(i int, p r3.Vector) {
	coords := g.CellOf(p)
	cell, ok := g.cells[coords]
	if !ok {
		g.cells[coords] = &Cell{Key: coords, Indices: []int{i}}
		return
	}
	cell.Indices = append(cell.Indices, i)
}

package voxel

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/vxgrid/vxgrid/pointcloud"
)

func TestNewGridInvalidStep(t *testing.T) {
	for _, step := range []r3.Vector{
		{X: 0, Y: 1, Z: 1},
		{X: 1, Y: -0.5, Z: 1},
		{X: 1, Y: 1, Z: 0},
		{},
	} {
		_, err := NewGrid(r3.Vector{}, step, nil)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, errors.Is(err, ErrInvalidStep), test.ShouldBeTrue)
	}

	_, err := NewUniformGrid(-1, nil)
	test.That(t, errors.Is(err, ErrInvalidStep), test.ShouldBeTrue)
}

func TestBuildEmptyCloud(t *testing.T) {
	g, err := NewUniformGrid(1, nil)
	test.That(t, err, test.ShouldBeNil)
	err = g.Build(pointcloud.New())
	test.That(t, errors.Is(err, ErrEmptyCloud), test.ShouldBeTrue)
}

func TestBuildScenario(t *testing.T) {
	pc := pointcloud.New()
	test.That(t, pc.Append(pointcloud.NewVector(0, 0, 0)), test.ShouldBeNil)
	test.That(t, pc.Append(pointcloud.NewVector(0, 0, 0.5)), test.ShouldBeNil)
	test.That(t, pc.Append(pointcloud.NewVector(1, 1, 1)), test.ShouldBeNil)

	g, err := NewUniformGrid(1, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Build(pc), test.ShouldBeNil)

	test.That(t, g.NumCells(), test.ShouldEqual, 2)
	test.That(t, g.Size(), test.ShouldEqual, 3)

	origin, ok := g.CellAt(CellCoords{0, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, origin.Size(), test.ShouldEqual, 2)
	test.That(t, origin.Indices, test.ShouldResemble, []int{0, 1})

	far, ok := g.CellAt(CellCoords{1, 1, 1})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, far.Size(), test.ShouldEqual, 1)

	_, ok = g.CellAt(CellCoords{5, 5, 5})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestCellOfBoundary(t *testing.T) {
	g, err := NewUniformGrid(1, nil)
	test.That(t, err, test.ShouldBeNil)

	// half-open intervals: a point exactly on a boundary falls on the
	// positive side
	test.That(t, g.CellOf(pointcloud.NewVector(1, 0, 0)), test.ShouldResemble, CellCoords{1, 0, 0})
	test.That(t, g.CellOf(pointcloud.NewVector(0.999, 0, 0)), test.ShouldResemble, CellCoords{0, 0, 0})
	test.That(t, g.CellOf(pointcloud.NewVector(-0.001, 0, 0)), test.ShouldResemble, CellCoords{-1, 0, 0})
	test.That(t, g.CellOf(pointcloud.NewVector(-1, -1, -1)), test.ShouldResemble, CellCoords{-1, -1, -1})
}

func TestCellOfAnisotropic(t *testing.T) {
	g, err := NewGrid(r3.Vector{}, r3.Vector{X: 1, Y: 2, Z: 0.5}, nil)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, g.CellOf(pointcloud.NewVector(1.5, 1.5, 1.5)), test.ShouldResemble, CellCoords{1, 0, 3})

	min, max := g.CellBounds(CellCoords{1, 0, 3})
	test.That(t, min, test.ShouldResemble, pointcloud.NewVector(1, 0, 1.5))
	test.That(t, max, test.ShouldResemble, pointcloud.NewVector(2, 2, 2))
	test.That(t, g.CellCenter(CellCoords{1, 0, 3}), test.ShouldResemble, pointcloud.NewVector(1.5, 1, 1.75))
}

func TestGridFixedOrigin(t *testing.T) {
	// two clouds voxelized at the same step share a lattice because the grid
	// anchors at the reference origin, not the data's bounding box
	pcA := pointcloud.New()
	test.That(t, pcA.Append(pointcloud.NewVector(0.25, 0.25, 0.25)), test.ShouldBeNil)
	pcB := pointcloud.New()
	test.That(t, pcB.Append(pointcloud.NewVector(7.5, 0.25, 0.25)), test.ShouldBeNil)
	test.That(t, pcB.Append(pointcloud.NewVector(0.75, 0.75, 0.75)), test.ShouldBeNil)

	gA, err := NewUniformGrid(1, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gA.Build(pcA), test.ShouldBeNil)
	gB, err := NewUniformGrid(1, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gB.Build(pcB), test.ShouldBeNil)

	_, ok := gA.CellAt(CellCoords{0, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
	_, ok = gB.CellAt(CellCoords{0, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
}

func randomCloud(t *testing.T, n int, seed int64) pointcloud.PointCloud {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	pc := pointcloud.NewWithPrealloc(n)
	for i := 0; i < n; i++ {
		p := pointcloud.NewVector(r.Float64()*20-10, r.Float64()*20-10, r.Float64()*10)
		test.That(t, pc.Append(p), test.ShouldBeNil)
	}
	return pc
}

func TestBuildPartition(t *testing.T) {
	pc := randomCloud(t, 500, 42)

	g, err := NewUniformGrid(2, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Build(pc), test.ShouldBeNil)

	// every point appears in exactly one cell
	seen := map[int]int{}
	total := 0
	g.Iterate(func(c *Cell) bool {
		for _, idx := range c.Indices {
			seen[idx]++
		}
		total += c.Size()
		return true
	})
	test.That(t, total, test.ShouldEqual, pc.Size())
	test.That(t, len(seen), test.ShouldEqual, pc.Size())
	for _, count := range seen {
		test.That(t, count, test.ShouldEqual, 1)
	}
}

func TestBuildDeterministic(t *testing.T) {
	pc := randomCloud(t, 300, 7)

	g1, err := NewUniformGrid(1.5, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g1.Build(pc), test.ShouldBeNil)

	g2, err := NewUniformGrid(1.5, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g2.Build(pc), test.ShouldBeNil)

	test.That(t, g1.NumCells(), test.ShouldEqual, g2.NumCells())
	g1.Iterate(func(c *Cell) bool {
		other, ok := g2.CellAt(c.Key)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, other.Indices, test.ShouldResemble, c.Indices)
		return true
	})
}

func TestBuildTwice(t *testing.T) {
	pc := randomCloud(t, 10, 1)
	g, err := NewUniformGrid(1, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Build(pc), test.ShouldBeNil)
	test.That(t, g.Build(pc), test.ShouldNotBeNil)
}

func TestAdjacentCells(t *testing.T) {
	pc := pointcloud.New()
	test.That(t, pc.Append(pointcloud.NewVector(0.5, 0.5, 0.5)), test.ShouldBeNil)
	test.That(t, pc.Append(pointcloud.NewVector(1.5, 0.5, 0.5)), test.ShouldBeNil)
	test.That(t, pc.Append(pointcloud.NewVector(1.5, 1.5, 1.5)), test.ShouldBeNil)
	test.That(t, pc.Append(pointcloud.NewVector(5.5, 5.5, 5.5)), test.ShouldBeNil)

	g, err := NewUniformGrid(1, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Build(pc), test.ShouldBeNil)

	neighbors := g.AdjacentCells(CellCoords{0, 0, 0})
	test.That(t, len(neighbors), test.ShouldEqual, 2)
	test.That(t, g.AdjacentCells(CellCoords{5, 5, 5}), test.ShouldResemble, []CellCoords{})
}

package voxel

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/vxgrid/vxgrid/pointcloud"
)

func TestBuildParallelMatchesSerial(t *testing.T) {
	pc := randomCloud(t, 1000, 99)

	serial, err := NewUniformGrid(1, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, serial.Build(pc), test.ShouldBeNil)

	for _, shards := range []int{1, 2, 3, 7, 16} {
		parallel, err := NewUniformGrid(1, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parallel.BuildParallel(context.Background(), pc, shards), test.ShouldBeNil)

		test.That(t, parallel.Size(), test.ShouldEqual, serial.Size())
		test.That(t, parallel.NumCells(), test.ShouldEqual, serial.NumCells())
		serial.Iterate(func(c *Cell) bool {
			other, ok := parallel.CellAt(c.Key)
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, other.Indices, test.ShouldResemble, c.Indices)
			return true
		})
	}
}

func TestBuildParallelEmptyCloud(t *testing.T) {
	g, err := NewUniformGrid(1, nil)
	test.That(t, err, test.ShouldBeNil)
	err = g.BuildParallel(context.Background(), pointcloud.New(), 4)
	test.That(t, errors.Is(err, ErrEmptyCloud), test.ShouldBeTrue)
}

func TestAggregateWorkersDeterministic(t *testing.T) {
	pc := randomCloud(t, 400, 3)
	g, err := NewUniformGrid(2, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Build(pc), test.ShouldBeNil)

	serialAgg, err := NewAggregator(g, pc, nil)
	test.That(t, err, test.ShouldBeNil)
	want, err := serialAgg.Mean(CoordFieldZ)
	test.That(t, err, test.ShouldBeNil)

	parallelAgg, err := NewAggregator(g, pc, nil)
	test.That(t, err, test.ShouldBeNil)
	parallelAgg.SetWorkers(8)
	got, err := parallelAgg.Mean(CoordFieldZ)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, got.Cells, test.ShouldResemble, want.Cells)
	test.That(t, got.Meta, test.ShouldResemble, want.Meta)
}

package voxel

import (
	"context"
	"runtime"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vxgrid/vxgrid/pointcloud"
)

// BuildParallel is Build sharded over the cloud's batch iteration. Each shard
// produces a partial cell grouping; merging concatenates index sets per cell,
// which is commutative, and the final per-cell index sets are sorted so the
// result is identical to a serial Build for any shard count.
func (g *Grid) BuildParallel(ctx context.Context, cloud pointcloud.PointCloud, shards int) error {
	if shards <= 0 {
		shards = runtime.NumCPU()
	}
	if g.total > 0 || len(g.cells) > 0 {
		return errors.New("grid already built")
	}
	if cloud.Size() == 0 {
		return ErrEmptyCloud
	}

	partials := make([]map[CellCoords][]int, shards)
	group, _ := errgroup.WithContext(ctx)
	for shard := 0; shard < shards; shard++ {
		group.Go(func() error {
			local := map[CellCoords][]int{}
			cloud.Iterate(shards, shard, func(i int, p r3.Vector) bool {
				coords := g.CellOf(p)
				local[coords] = append(local[coords], i)
				return true
			})
			partials[shard] = local
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for _, partial := range partials {
		for coords, indices := range partial {
			cell, ok := g.cells[coords]
			if !ok {
				g.cells[coords] = &Cell{Key: coords, Indices: indices}
				continue
			}
			cell.Indices = append(cell.Indices, indices...)
		}
	}
	for _, cell := range g.cells {
		sort.Ints(cell.Indices)
	}
	g.total = cloud.Size()
	if g.logger != nil {
		g.logger.Debugf("assigned %d points into %d cells across %d shards", g.total, len(g.cells), shards)
	}
	return nil
}

// mapCells runs fn over every occupied cell, with up to workers cells in
// flight at once, and collects the results keyed by cell coordinates.
// Distinct cells share no state beyond read-only access to the cloud, so the
// result does not depend on scheduling.
func mapCells[T any](g *Grid, workers int, fn func(c *Cell) T) map[CellCoords]T {
	cells := make([]*Cell, 0, len(g.cells))
	for _, c := range g.cells {
		cells = append(cells, c)
	}

	values := make([]T, len(cells))
	if workers <= 1 {
		for i, c := range cells {
			values[i] = fn(c)
		}
	} else {
		var group errgroup.Group
		group.SetLimit(workers)
		for i, c := range cells {
			group.Go(func() error {
				values[i] = fn(c)
				return nil
			})
		}
		//nolint:errcheck // the per-cell closures never return an error
		group.Wait()
	}

	out := make(map[CellCoords]T, len(cells))
	for i, c := range cells {
		out[c.Key] = values[i]
	}
	return out
}

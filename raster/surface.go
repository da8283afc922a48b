package raster

import (
	"github.com/edaniels/golog"

	"github.com/vxgrid/vxgrid/pointcloud"
	"github.com/vxgrid/vxgrid/voxel"
)

// SurfaceModel rasterizes a point cloud into a surface model: voxelize at
// cellSize, average elevation per cell, squash along the up axis of the
// given convention, and fill holes with inverse-distance weighting.
// With last set, the lowest cell of each column wins instead of the highest,
// which approximates a last-echo surface.
func SurfaceModel(
	cloud pointcloud.PointCloud,
	conv pointcloud.Convention,
	cellSize float64,
	last bool,
	logger golog.Logger,
) (*Raster, error) {
	if err := conv.Valid(); err != nil {
		return nil, err
	}
	up := conv.UpAxis()

	grid, err := voxel.NewUniformGrid(cellSize, logger)
	if err != nil {
		return nil, err
	}
	if err := grid.Build(cloud); err != nil {
		return nil, err
	}
	agg, err := voxel.NewAggregator(grid, cloud, logger)
	if err != nil {
		return nil, err
	}
	if err := agg.SetConvention(conv); err != nil {
		return nil, err
	}

	elevation := [3]string{voxel.CoordFieldX, voxel.CoordFieldY, voxel.CoordFieldZ}[up]
	fm, err := agg.Mean(elevation)
	if err != nil {
		return nil, err
	}

	method := SquashTop
	if last {
		method = SquashBottom
	}
	squashed, err := Squash(fm, up, method)
	if err != nil {
		return nil, err
	}
	return Interpolate(squashed, FillIDW)
}

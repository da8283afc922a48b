// Package pointcloud defines a point cloud of LiDAR returns and provides a
// columnar implementation for one.
//
// A cloud is an ordered sequence of 3D positions, each carrying zero or more
// named scalar fields (intensity, label, number of returns, ...). Points are
// addressed by index so that derived structures, like a voxel grid, can group
// points without copying them. Once filled, a cloud is treated as read-only
// input by everything downstream.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// PointCloud is a general purpose container of points. It does not dictate
// whether or not the cloud is sparse or dense. The basic implementation is
// columnar.
type PointCloud interface {
	// Size returns the number of points in the cloud.
	Size() int

	// MetaData returns the bounds accumulated over all appended points.
	MetaData() MetaData

	// At returns the position of the point at the given index.
	At(i int) r3.Vector

	// Fields returns the field descriptors of the cloud, in declaration order.
	Fields() []Field

	// HasField reports whether a field with the given name exists.
	HasField(name string) bool

	// Column returns the per-point values of the named field, in point order.
	// The returned slice is the cloud's backing storage and must not be
	// modified. Returns ErrUnknownField for names the cloud does not carry.
	Column(name string) ([]float64, error)

	// Append places a point with its field values (one per declared field,
	// in declaration order) at the end of the cloud.
	Append(p r3.Vector, values ...float64) error

	// Iterate iterates over all points in the cloud and calls the given
	// function for each point. If the supplied function returns false,
	// iteration will stop after the function returns.
	// numBatches lets you divide up the work. 0 means don't divide.
	// myBatch is used iff numBatches > 0 and is which batch you want.
	Iterate(numBatches, myBatch int, fn func(i int, p r3.Vector) bool)
}

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData creates a new MetaData with bounds ready for merging.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge updates the bounds with the given point.
func (meta *MetaData) Merge(p r3.Vector) {
	if p.X > meta.MaxX {
		meta.MaxX = p.X
	}
	if p.Y > meta.MaxY {
		meta.MaxY = p.Y
	}
	if p.Z > meta.MaxZ {
		meta.MaxZ = p.Z
	}
	if p.X < meta.MinX {
		meta.MinX = p.X
	}
	if p.Y < meta.MinY {
		meta.MinY = p.Y
	}
	if p.Z < meta.MinZ {
		meta.MinZ = p.Z
	}
}

// NewVector is a convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// CloudCentroid returns the centroid of all points in the cloud, or the zero
// vector for an empty cloud.
func CloudCentroid(pc PointCloud) r3.Vector {
	if pc.Size() == 0 {
		return r3.Vector{}
	}
	sum := r3.Vector{}
	pc.Iterate(0, 0, func(i int, p r3.Vector) bool {
		sum = sum.Add(p)
		return true
	})
	return sum.Mul(1. / float64(pc.Size()))
}

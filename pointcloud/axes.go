package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// SemanticAxis is the meaning of a storage axis, independent of where in the
// storage order it sits.
type SemanticAxis uint8

const (
	// Easting is the west-east semantic axis.
	Easting = SemanticAxis(iota)
	// Northing is the south-north semantic axis.
	Northing
	// Altitude is the up semantic axis.
	Altitude
)

// Convention declares which semantic axis each storage component (X, Y, Z in
// storage order) carries. Translating between conventions relabels
// coordinates at the boundary; it never mutates a cloud's stored positions.
type Convention [3]SemanticAxis

var (
	// ConventionLidar is the LiDAR/geographic convention: storage order is
	// (easting, northing, altitude), as in LAS-style clouds.
	ConventionLidar = Convention{Easting, Northing, Altitude}
	// ConventionArray is the array convention used by raster tooling:
	// storage order is (northing, easting, altitude), so the first two
	// components line up with row/column indexing.
	ConventionArray = Convention{Northing, Easting, Altitude}
)

// UpAxis returns the storage component index (0, 1 or 2) holding Altitude.
func (c Convention) UpAxis() int {
	for i, s := range c {
		if s == Altitude {
			return i
		}
	}
	return 2
}

// Valid reports whether the convention names each semantic axis exactly once.
func (c Convention) Valid() error {
	var seen [3]bool
	for _, s := range c {
		if int(s) > 2 || seen[s] {
			return errors.Errorf("convention %v does not name each semantic axis exactly once", c)
		}
		seen[s] = true
	}
	return nil
}

// Relabel translates a position from one convention to another. It is a pure
// permutation of components; applying the reverse translation restores the
// input exactly.
func Relabel(p r3.Vector, from, to Convention) r3.Vector {
	var bySemantic [3]float64
	for i, s := range from {
		bySemantic[s] = Component(p, i)
	}
	out := r3.Vector{}
	for i, s := range to {
		switch i {
		case 0:
			out.X = bySemantic[s]
		case 1:
			out.Y = bySemantic[s]
		case 2:
			out.Z = bySemantic[s]
		}
	}
	return out
}

// Component returns the storage component of p at the given index.
func Component(p r3.Vector, axis int) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

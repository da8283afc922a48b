package raster

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vxgrid/vxgrid/voxel"
)

// Method selects how a column of occupied cells collapses into one pixel.
type Method uint8

const (
	// SquashTop keeps the value of the highest occupied cell along the axis.
	SquashTop = Method(iota)
	// SquashCenter keeps the value of the middle occupied cell.
	SquashCenter
	// SquashBottom keeps the value of the lowest occupied cell.
	SquashBottom
	// SquashMin keeps the smallest value in the column.
	SquashMin
	// SquashMax keeps the largest value in the column.
	SquashMax
	// SquashMean keeps the arithmetic mean of the column's values.
	SquashMean
	// SquashMedian keeps the median of the column's values.
	SquashMedian
	// SquashStd keeps the population standard deviation of the column's values.
	SquashStd
)

// String returns the metadata name of the method.
func (m Method) String() string {
	switch m {
	case SquashTop:
		return "top"
	case SquashCenter:
		return "center"
	case SquashBottom:
		return "bottom"
	case SquashMin:
		return "min"
	case SquashMax:
		return "max"
	case SquashMean:
		return "mean"
	case SquashMedian:
		return "median"
	case SquashStd:
		return "std"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidAxis is returned when the squash axis is not 0, 1 or 2.
	ErrInvalidAxis = errors.New("squash axis must be 0, 1 or 2")
	// ErrInvalidMethod is returned for an unknown squash method.
	ErrInvalidMethod = errors.New("unknown squash method")
)

type columnEntry struct {
	k     int64
	value float64
}

// Squash collapses a voxel feature map along one storage axis into a sparse
// raster. Cells carrying the undefined marker contribute nothing; a column
// made entirely of undefined cells produces no pixel at all.
func Squash(fm *voxel.FeatureMap, axis int, method Method) (*Raster, error) {
	if axis < 0 || axis > 2 {
		return nil, errors.Wrapf(ErrInvalidAxis, "got %d", axis)
	}
	if method > SquashStd {
		return nil, errors.Wrapf(ErrInvalidMethod, "got %d", method)
	}

	columns := map[PixelCoords][]columnEntry{}
	for coords, v := range fm.Cells {
		if v.Undefined {
			continue
		}
		pixel, k := project(coords, axis)
		columns[pixel] = append(columns[pixel], columnEntry{k: k, value: v.Value})
	}

	out := &Raster{
		Meta:  Meta{Source: fm.Meta, Axis: axis, Method: method},
		Cells: make(map[PixelCoords]float64, len(columns)),
	}
	for pixel, column := range columns {
		sort.Slice(column, func(i, j int) bool { return column[i].k < column[j].k })
		out.Cells[pixel] = squashColumn(column, method)
	}
	return out, nil
}

// project splits cell coordinates into the kept pixel coordinates and the
// coordinate along the squashed axis.
func project(c voxel.CellCoords, axis int) (PixelCoords, int64) {
	switch axis {
	case 0:
		return PixelCoords{U: c.J, V: c.K}, c.I
	case 1:
		return PixelCoords{U: c.I, V: c.K}, c.J
	default:
		return PixelCoords{U: c.I, V: c.J}, c.K
	}
}

func squashColumn(column []columnEntry, method Method) float64 {
	switch method {
	case SquashTop:
		return column[len(column)-1].value
	case SquashBottom:
		return column[0].value
	case SquashCenter:
		return column[len(column)/2].value
	}

	vals := make([]float64, len(column))
	for i, e := range column {
		vals[i] = e.value
	}
	switch method {
	case SquashMin:
		return floats.Min(vals)
	case SquashMax:
		return floats.Max(vals)
	case SquashMean:
		return stat.Mean(vals, nil)
	case SquashMedian:
		sort.Float64s(vals)
		mid := len(vals) / 2
		if len(vals)%2 == 1 {
			return vals[mid]
		}
		return (vals[mid-1] + vals[mid]) / 2
	default: // SquashStd
		mean := stat.Mean(vals, nil)
		var ss float64
		for _, v := range vals {
			d := v - mean
			ss += d * d
		}
		return math.Sqrt(ss / float64(len(vals)))
	}
}

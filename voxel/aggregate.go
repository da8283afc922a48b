package voxel

import (
	"sort"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vxgrid/vxgrid/pointcloud"
)

// ErrInvalidQuantile is returned when a quantile fraction is outside [0, 1].
var ErrInvalidQuantile = errors.New("quantile must be in [0, 1]")

// Reserved field names resolving to point coordinates when the cloud carries
// no field of the same name, so callers can reduce over position axes
// (e.g. min/max of "z") the same way they reduce over measured fields.
const (
	CoordFieldX = "x"
	CoordFieldY = "y"
	CoordFieldZ = "z"
)

// Aggregator computes per-cell reductions over a built grid and the cloud it
// was built from. All reductions are pure functions of a cell's point set and
// the requested field; distinct cells never share state, so per-cell work may
// run concurrently (see SetWorkers).
type Aggregator struct {
	grid    *Grid
	cloud   pointcloud.PointCloud
	logger  golog.Logger
	workers int
	up      int
}

// NewAggregator creates an aggregator for a built grid.
func NewAggregator(grid *Grid, cloud pointcloud.PointCloud, logger golog.Logger) (*Aggregator, error) {
	if grid.Size() == 0 {
		return nil, ErrNotBuilt
	}
	if grid.Size() != cloud.Size() {
		return nil, errors.Errorf("grid was built from %d points but cloud has %d", grid.Size(), cloud.Size())
	}
	return &Aggregator{grid: grid, cloud: cloud, logger: logger, workers: 1, up: 2}, nil
}

// SetWorkers sets how many cells may be reduced concurrently. Values below 2
// keep aggregation serial. The output never depends on the worker count.
func (a *Aggregator) SetWorkers(n int) {
	a.workers = n
}

// SetConvention declares the axis convention of the cloud's stored
// coordinates, which determines the up axis used to orient normals.
func (a *Aggregator) SetConvention(conv pointcloud.Convention) error {
	if err := conv.Valid(); err != nil {
		return err
	}
	a.up = conv.UpAxis()
	return nil
}

// Density returns the point count of every occupied cell. It is always
// available and field-independent.
func (a *Aggregator) Density() *FeatureMap {
	cells := mapCells(a.grid, a.workers, func(c *Cell) CellValue {
		return CellValue{Value: float64(c.Size())}
	})
	return &FeatureMap{Meta: a.meta("", pointcloud.FieldNumeric, "density"), Cells: cells}
}

// Mean returns the arithmetic mean of a numeric field over each cell.
func (a *Aggregator) Mean(field string) (*FeatureMap, error) {
	return a.scalarReduce(field, "mean", func(vals []float64) CellValue {
		return CellValue{Value: stat.Mean(vals, nil)}
	})
}

// Variance returns the population variance of a numeric field over each cell.
func (a *Aggregator) Variance(field string) (*FeatureMap, error) {
	return a.scalarReduce(field, "variance", func(vals []float64) CellValue {
		mean := stat.Mean(vals, nil)
		var ss float64
		for _, v := range vals {
			d := v - mean
			ss += d * d
		}
		return CellValue{Value: ss / float64(len(vals))}
	})
}

// Min returns the minimum of a field over each cell.
func (a *Aggregator) Min(field string) (*FeatureMap, error) {
	return a.scalarReduce(field, "min", func(vals []float64) CellValue {
		return CellValue{Value: floats.Min(vals)}
	})
}

// Max returns the maximum of a field over each cell.
func (a *Aggregator) Max(field string) (*FeatureMap, error) {
	return a.scalarReduce(field, "max", func(vals []float64) CellValue {
		return CellValue{Value: floats.Max(vals)}
	})
}

// Quantile returns the q-quantile (q in [0, 1]) of a numeric field over each
// cell, using empirical interpolation over the cell's sorted values.
func (a *Aggregator) Quantile(field string, q float64) (*FeatureMap, error) {
	if q < 0 || q > 1 {
		return nil, errors.Wrapf(ErrInvalidQuantile, "got %v", q)
	}
	return a.scalarReduce(field, "quantile", func(vals []float64) CellValue {
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		return CellValue{Value: stat.Quantile(q, stat.Empirical, sorted, nil)}
	})
}

// Entropy returns the Shannon entropy, in bits, of the field's empirical
// distribution within each cell.
func (a *Aggregator) Entropy(field string) (*FeatureMap, error) {
	return a.scalarReduce(field, "entropy", func(vals []float64) CellValue {
		return CellValue{Value: entropyBits(histogram(vals), len(vals))}
	})
}

// scalarReduce validates the field up front, then runs perCell over every
// occupied cell. Field-existence errors surface before any per-cell work.
func (a *Aggregator) scalarReduce(field, reduction string, perCell func(vals []float64) CellValue) (*FeatureMap, error) {
	valueAt, kind, err := a.column(field)
	if err != nil {
		return nil, err
	}
	cells := mapCells(a.grid, a.workers, func(c *Cell) CellValue {
		vals := make([]float64, len(c.Indices))
		for i, idx := range c.Indices {
			vals[i] = valueAt(idx)
		}
		return perCell(vals)
	})
	return &FeatureMap{Meta: a.meta(field, kind, reduction), Cells: cells}, nil
}

// column resolves a field name to a per-point accessor. Measured fields win
// over the reserved coordinate names.
func (a *Aggregator) column(field string) (func(i int) float64, pointcloud.FieldKind, error) {
	if a.cloud.HasField(field) {
		col, err := a.cloud.Column(field)
		if err != nil {
			return nil, 0, err
		}
		kind := pointcloud.FieldNumeric
		for _, f := range a.cloud.Fields() {
			if f.Name == field {
				kind = f.Kind
				break
			}
		}
		return func(i int) float64 { return col[i] }, kind, nil
	}
	switch field {
	case CoordFieldX:
		return func(i int) float64 { return a.cloud.At(i).X }, pointcloud.FieldNumeric, nil
	case CoordFieldY:
		return func(i int) float64 { return a.cloud.At(i).Y }, pointcloud.FieldNumeric, nil
	case CoordFieldZ:
		return func(i int) float64 { return a.cloud.At(i).Z }, pointcloud.FieldNumeric, nil
	}
	return nil, 0, errors.Wrapf(pointcloud.ErrUnknownField, "field %q", field)
}

func (a *Aggregator) meta(field string, kind pointcloud.FieldKind, reduction string) Meta {
	return Meta{
		Origin:    a.grid.Origin(),
		Step:      a.grid.Step(),
		Field:     field,
		Kind:      kind,
		Reduction: reduction,
	}
}

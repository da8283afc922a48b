package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// basicPointCloud is the columnar implementation of the PointCloud interface:
// a slice of positions plus one float64 column per declared field.
type basicPointCloud struct {
	positions []r3.Vector
	fields    []Field
	columns   map[string][]float64
	meta      MetaData
}

// New returns an empty PointCloud carrying the given fields.
func New(fields ...Field) PointCloud {
	return NewWithPrealloc(0, fields...)
}

// NewWithPrealloc returns an empty, preallocated PointCloud carrying the
// given fields.
func NewWithPrealloc(size int, fields ...Field) PointCloud {
	columns := make(map[string][]float64, len(fields))
	for _, f := range fields {
		columns[f.Name] = make([]float64, 0, size)
	}
	return &basicPointCloud{
		positions: make([]r3.Vector, 0, size),
		fields:    fields,
		columns:   columns,
		meta:      NewMetaData(),
	}
}

func (cloud *basicPointCloud) Size() int {
	return len(cloud.positions)
}

func (cloud *basicPointCloud) MetaData() MetaData {
	return cloud.meta
}

func (cloud *basicPointCloud) At(i int) r3.Vector {
	return cloud.positions[i]
}

func (cloud *basicPointCloud) Fields() []Field {
	return cloud.fields
}

func (cloud *basicPointCloud) HasField(name string) bool {
	_, ok := cloud.columns[name]
	return ok
}

func (cloud *basicPointCloud) Column(name string) ([]float64, error) {
	col, ok := cloud.columns[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownField, "field %q", name)
	}
	return col, nil
}

// Append validates that one value per declared field was supplied before
// storing the point.
func (cloud *basicPointCloud) Append(p r3.Vector, values ...float64) error {
	if len(values) != len(cloud.fields) {
		return errors.Errorf("expected %d field values but got %d", len(cloud.fields), len(values))
	}
	cloud.positions = append(cloud.positions, p)
	for i, f := range cloud.fields {
		cloud.columns[f.Name] = append(cloud.columns[f.Name], values[i])
	}
	cloud.meta.Merge(p)
	return nil
}

func (cloud *basicPointCloud) Iterate(numBatches, myBatch int, fn func(i int, p r3.Vector) bool) {
	lowerBound := 0
	upperBound := len(cloud.positions)
	if numBatches > 0 {
		batchSize := (len(cloud.positions) + numBatches - 1) / numBatches
		lowerBound = myBatch * batchSize
		upperBound = (myBatch + 1) * batchSize
	}
	if upperBound > len(cloud.positions) {
		upperBound = len(cloud.positions)
	}
	for i := lowerBound; i < upperBound; i++ {
		if !fn(i, cloud.positions[i]) {
			return
		}
	}
}

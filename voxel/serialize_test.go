package voxel

import (
	"bytes"
	"testing"

	"go.viam.com/test"

	"github.com/vxgrid/vxgrid/pointcloud"
)

func TestSnapshotRoundTrip(t *testing.T) {
	fm := &FeatureMap{
		Meta: Meta{
			Origin:    pointcloud.NewVector(0, 0, 0),
			Step:      pointcloud.NewVector(1, 2, 0.5),
			Field:     "label",
			Kind:      pointcloud.FieldCategorical,
			Reduction: "mode",
		},
		Cells: map[CellCoords]CellValue{
			{0, 0, 0}:   {Value: 4},
			{1, -2, 3}:  {Value: 7, Approximate: true},
			{-5, 5, -5}: {Undefined: true},
			{2, 2, 2}:   {Value: 1, Advisory: &Advisory{EntropyBits: 1.5, Threshold: 1}},
		},
	}

	var buf bytes.Buffer
	test.That(t, WriteSnapshot(&buf, fm), test.ShouldBeNil)

	got, err := ReadSnapshot(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Meta, test.ShouldResemble, fm.Meta)
	test.That(t, got.Cells, test.ShouldResemble, fm.Cells)
}

func TestSnapshotFromAggregation(t *testing.T) {
	pc, g := labeledCloud(t)
	agg, err := NewAggregator(g, pc, nil)
	test.That(t, err, test.ShouldBeNil)
	fm, err := agg.Mode("label", ModeOptions{EntropyThresholdBits: 0.5})
	test.That(t, err, test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, WriteSnapshot(&buf, fm), test.ShouldBeNil)
	got, err := ReadSnapshot(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Meta, test.ShouldResemble, fm.Meta)
	test.That(t, got.Cells, test.ShouldResemble, fm.Cells)
}

func TestSnapshotBadHeader(t *testing.T) {
	_, err := ReadSnapshot(bytes.NewReader([]byte("not a snapshot at all")))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not a feature map snapshot")

	_, err = ReadSnapshot(bytes.NewReader([]byte{'V', 'X', 'F', 'M', 99}))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported snapshot version")

	_, err = ReadSnapshot(bytes.NewReader([]byte{'V', 'X'}))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSnapshotTruncated(t *testing.T) {
	fm := &FeatureMap{
		Meta:  Meta{Field: "intensity", Reduction: "mean"},
		Cells: map[CellCoords]CellValue{{0, 0, 0}: {Value: 1}},
	}
	var buf bytes.Buffer
	test.That(t, WriteSnapshot(&buf, fm), test.ShouldBeNil)

	_, err := ReadSnapshot(bytes.NewReader(buf.Bytes()[:buf.Len()/2]))
	test.That(t, err, test.ShouldNotBeNil)
}

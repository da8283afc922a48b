package voxel

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/vxgrid/vxgrid/pointcloud"
)

// Snapshot format: a 5-byte header (magic + version) followed by a
// zstd-compressed body holding the reconstruction metadata (origin, per-axis
// step, field name, field kind, reduction) and one record per occupied cell.
// Only sparse cell records are written; the dense matrix is never
// materialized on disk either.
var snapshotMagic = [4]byte{'V', 'X', 'F', 'M'}

const snapshotVersion = uint8(1)

const (
	flagUndefined = uint8(1 << iota)
	flagApproximate
	flagAdvisory
)

// WriteSnapshot persists a feature map to w.
func WriteSnapshot(w io.Writer, fm *FeatureMap) error {
	if _, err := w.Write(snapshotMagic[:]); err != nil {
		return errors.Wrap(err, "writing snapshot magic")
	}
	if _, err := w.Write([]byte{snapshotVersion}); err != nil {
		return errors.Wrap(err, "writing snapshot version")
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "creating zstd writer")
	}
	if err := writeSnapshotBody(enc, fm); err != nil {
		//nolint:errcheck // the write error is the one to surface
		enc.Close()
		return err
	}
	return errors.Wrap(enc.Close(), "flushing snapshot")
}

func writeSnapshotBody(w io.Writer, fm *FeatureMap) error {
	meta := fm.Meta
	for _, v := range []float64{
		meta.Origin.X, meta.Origin.Y, meta.Origin.Z,
		meta.Step.X, meta.Step.Y, meta.Step.Z,
	} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return errors.Wrap(err, "writing grid geometry")
		}
	}
	if err := writeString(w, meta.Field); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(meta.Kind)); err != nil {
		return errors.Wrap(err, "writing field kind")
	}
	if err := writeString(w, meta.Reduction); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(fm.Cells))); err != nil {
		return errors.Wrap(err, "writing cell count")
	}

	for coords, v := range fm.Cells {
		if err := binary.Write(w, binary.LittleEndian, []int64{coords.I, coords.J, coords.K}); err != nil {
			return errors.Wrap(err, "writing cell coordinates")
		}
		var flags uint8
		if v.Undefined {
			flags |= flagUndefined
		}
		if v.Approximate {
			flags |= flagApproximate
		}
		if v.Advisory != nil {
			flags |= flagAdvisory
		}
		record := []float64{v.Value}
		if v.Advisory != nil {
			record = append(record, v.Advisory.EntropyBits, v.Advisory.Threshold)
		}
		if err := binary.Write(w, binary.LittleEndian, flags); err != nil {
			return errors.Wrap(err, "writing cell flags")
		}
		if err := binary.Write(w, binary.LittleEndian, record); err != nil {
			return errors.Wrap(err, "writing cell record")
		}
	}
	return nil
}

// ReadSnapshot reads back a feature map persisted with WriteSnapshot.
func ReadSnapshot(r io.Reader) (*FeatureMap, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, errors.Wrap(err, "reading snapshot header")
	}
	if [4]byte(header[:4]) != snapshotMagic {
		return nil, errors.New("not a feature map snapshot")
	}
	if header[4] != snapshotVersion {
		return nil, errors.Errorf("unsupported snapshot version %d", header[4])
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "creating zstd reader")
	}
	defer dec.Close()
	return readSnapshotBody(dec)
}

func readSnapshotBody(r io.Reader) (*FeatureMap, error) {
	geometry := make([]float64, 6)
	if err := binary.Read(r, binary.LittleEndian, geometry); err != nil {
		return nil, errors.Wrap(err, "reading grid geometry")
	}
	field, err := readString(r)
	if err != nil {
		return nil, err
	}
	var kind uint8
	if err := binary.Read(r, binary.LittleEndian, &kind); err != nil {
		return nil, errors.Wrap(err, "reading field kind")
	}
	reduction, err := readString(r)
	if err != nil {
		return nil, err
	}
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, errors.Wrap(err, "reading cell count")
	}
	if count > math.MaxUint32 {
		return nil, errors.Errorf("implausible cell count %d", count)
	}

	fm := &FeatureMap{
		Meta: Meta{
			Origin:    pointcloud.NewVector(geometry[0], geometry[1], geometry[2]),
			Step:      pointcloud.NewVector(geometry[3], geometry[4], geometry[5]),
			Field:     field,
			Kind:      pointcloud.FieldKind(kind),
			Reduction: reduction,
		},
		Cells: make(map[CellCoords]CellValue, count),
	}
	for n := uint64(0); n < count; n++ {
		coords := make([]int64, 3)
		if err := binary.Read(r, binary.LittleEndian, coords); err != nil {
			return nil, errors.Wrap(err, "reading cell coordinates")
		}
		var flags uint8
		if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
			return nil, errors.Wrap(err, "reading cell flags")
		}
		var value float64
		if err := binary.Read(r, binary.LittleEndian, &value); err != nil {
			return nil, errors.Wrap(err, "reading cell value")
		}
		v := CellValue{
			Value:       value,
			Undefined:   flags&flagUndefined != 0,
			Approximate: flags&flagApproximate != 0,
		}
		if flags&flagAdvisory != 0 {
			advisory := make([]float64, 2)
			if err := binary.Read(r, binary.LittleEndian, advisory); err != nil {
				return nil, errors.Wrap(err, "reading cell advisory")
			}
			v.Advisory = &Advisory{EntropyBits: advisory[0], Threshold: advisory[1]}
		}
		fm.Cells[CellCoords{coords[0], coords[1], coords[2]}] = v
	}
	return fm, nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		return errors.Errorf("string of length %d too long for snapshot", len(s))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return errors.Wrap(err, "writing string length")
	}
	_, err := w.Write([]byte(s))
	return errors.Wrap(err, "writing string")
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", errors.Wrap(err, "reading string length")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", errors.Wrap(err, "reading string")
	}
	return string(buf), nil
}

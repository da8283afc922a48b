package pointcloud

import "github.com/pkg/errors"

// ErrUnknownField is returned when a named field is not carried by the cloud.
var ErrUnknownField = errors.New("unknown field")

// FieldKind describes how the values of a field are to be interpreted.
type FieldKind uint8

const (
	// FieldNumeric is a continuous measurement, e.g. intensity.
	FieldNumeric = FieldKind(iota)
	// FieldCategorical is a discrete code, e.g. a classification label.
	// Categorical fields are still stored as float64 columns; the kind only
	// records intent for consumers and persisted metadata.
	FieldCategorical
)

// String returns the metadata name of the kind.
func (k FieldKind) String() string {
	switch k {
	case FieldCategorical:
		return "categorical"
	default:
		return "numeric"
	}
}

// Field describes a named per-point scalar field.
type Field struct {
	Name string
	Kind FieldKind
}

// NumericField is a convenience constructor for a numeric field descriptor.
func NumericField(name string) Field {
	return Field{Name: name, Kind: FieldNumeric}
}

// CategoricalField is a convenience constructor for a categorical field
// descriptor.
func CategoricalField(name string) Field {
	return Field{Name: name, Kind: FieldCategorical}
}

package voxel

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ModeStrategy selects how Mode scans a cell's value distribution.
type ModeStrategy uint8

const (
	// ModeUsual scans every point of the cell. Exact.
	ModeUsual = ModeStrategy(iota)
	// ModeQuick bounds the per-cell cost: the scan stops as soon as the
	// leading value can no longer be overtaken, and an optional sample cap
	// limits how many points are looked at in the first place. The result is
	// deterministic for a given cloud (points are scanned in index order) but
	// approximate whenever the whole cell was not seen: a capped scan may
	// miss the true mode, and the entropy driving the advisory reflects only
	// the scanned points.
	ModeQuick
)

// ModeOptions configures a Mode aggregation.
type ModeOptions struct {
	Strategy ModeStrategy

	// SampleCap limits how many points of a cell ModeQuick scans.
	// 0 means no cap. Ignored by ModeUsual.
	SampleCap int

	// EntropyThresholdBits is the within-cell entropy, in bits, above which a
	// Mode result gets a high-disagreement advisory attached. Negative
	// disables advisories; zero flags any mixed cell.
	EntropyThresholdBits float64
}

// DefaultModeOptions returns exact Mode with advisories above 1 bit of
// within-cell entropy.
func DefaultModeOptions() ModeOptions {
	return ModeOptions{Strategy: ModeUsual, EntropyThresholdBits: 1}
}

func (o ModeOptions) validate() error {
	var err error
	if o.Strategy > ModeQuick {
		err = multierr.Append(err, errors.Errorf("unknown mode strategy %d", o.Strategy))
	}
	if o.SampleCap < 0 {
		err = multierr.Append(err, errors.Errorf("sample cap must be non-negative, got %d", o.SampleCap))
	}
	return err
}

// Mode returns the most frequent value of a field over each cell. Ties break
// to the lowest tied value, so results are deterministic across runs. Cells
// whose within-cell entropy exceeds the configured threshold carry an
// Advisory alongside (never instead of) the value.
func (a *Aggregator) Mode(field string, opts ModeOptions) (*FeatureMap, error) {
	valueAt, kind, colErr := a.column(field)
	if err := multierr.Combine(opts.validate(), colErr); err != nil {
		return nil, err
	}

	cells := mapCells(a.grid, a.workers, func(c *Cell) CellValue {
		if opts.Strategy == ModeQuick {
			return quickMode(c, valueAt, opts)
		}
		return usualMode(c, valueAt, opts)
	})
	advisories := 0
	for _, v := range cells {
		if v.Advisory != nil {
			advisories++
		}
	}
	if advisories > 0 && a.logger != nil {
		a.logger.Warnf("mode of %q: %d of %d cells above %v bits of within-cell entropy",
			field, advisories, len(cells), opts.EntropyThresholdBits)
	}
	return &FeatureMap{Meta: a.meta(field, kind, "mode"), Cells: cells}, nil
}

// usualMode scans the full per-cell distribution.
func usualMode(c *Cell, valueAt func(i int) float64, opts ModeOptions) CellValue {
	hist := make(map[float64]int, len(c.Indices))
	for _, idx := range c.Indices {
		hist[valueAt(idx)]++
	}
	bestVal, bestCount := math.Inf(1), 0
	for v, n := range hist {
		if n > bestCount || (n == bestCount && v < bestVal) {
			bestVal, bestCount = v, n
		}
	}
	out := CellValue{Value: bestVal}
	attachAdvisory(&out, hist, len(c.Indices), opts.EntropyThresholdBits)
	return out
}

// quickMode scans at most SampleCap points and stops early once the leading
// value's margin over the runner-up exceeds the points left to scan.
func quickMode(c *Cell, valueAt func(i int) float64, opts ModeOptions) CellValue {
	limit := len(c.Indices)
	capped := opts.SampleCap > 0 && opts.SampleCap < limit
	if capped {
		limit = opts.SampleCap
	}

	hist := make(map[float64]int, limit)
	bestVal, bestCount, second := math.Inf(1), 0, 0
	scanned := limit
	for i := 0; i < limit; i++ {
		v := valueAt(c.Indices[i])
		hist[v]++
		n := hist[v]
		switch {
		case v == bestVal:
			bestCount = n
		case n > bestCount || (n == bestCount && v < bestVal):
			second = bestCount
			bestVal, bestCount = v, n
		case n > second:
			second = n
		}
		if bestCount-second > limit-i-1 {
			scanned = i + 1
			break
		}
	}

	out := CellValue{Value: bestVal, Approximate: capped || scanned < len(c.Indices)}
	attachAdvisory(&out, hist, scanned, opts.EntropyThresholdBits)
	return out
}

func attachAdvisory(v *CellValue, hist map[float64]int, n int, threshold float64) {
	if threshold < 0 {
		return
	}
	if bits := entropyBits(hist, n); bits > threshold {
		v.Advisory = &Advisory{EntropyBits: bits, Threshold: threshold}
	}
}

// histogram counts occurrences of each distinct value.
func histogram(vals []float64) map[float64]int {
	hist := make(map[float64]int, len(vals))
	for _, v := range vals {
		hist[v]++
	}
	return hist
}

// entropyBits is the Shannon entropy, in bits, of the empirical distribution
// described by a histogram over n samples.
func entropyBits(hist map[float64]int, n int) float64 {
	if n == 0 {
		return 0
	}
	var h float64
	for _, count := range hist {
		if count == 0 {
			continue
		}
		p := float64(count) / float64(n)
		h -= p * math.Log2(p)
	}
	return h
}

package report

import (
	"math"
	"sort"

	"github.com/KaramelBytes/segloom/internal/dataset"
	"github.com/KaramelBytes/segloom/internal/features"
	"gonum.org/v1/gonum/stat"
)

// OutlierThreshold is the robust |z| above which a value counts as an outlier.
const OutlierThreshold = 3.5

// ColumnProfile summarises one numeric feature column.
type ColumnProfile struct {
	Name     string  `json:"name"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Median   float64 `json:"median"`
	Outliers int     `json:"outliers"`
	MaxAbsZ  float64 `json:"max_abs_z,omitempty"`
}

// Profile computes per-column statistics for the numeric features. The
// gender column is skipped since its codes are labels, not magnitudes.
func Profile(enc *features.Encoded) []ColumnProfile {
	var out []ColumnProfile
	for _, name := range features.FeatureNames {
		if name == dataset.ColGender {
			continue
		}
		vals := enc.Column(name)
		if len(vals) == 0 {
			continue
		}
		out = append(out, profileColumn(name, vals))
	}
	return out
}

func profileColumn(name string, vals []float64) ColumnProfile {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	if math.IsNaN(std) {
		std = 0
	}
	p := ColumnProfile{
		Name: name,
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: mean,
		Std:  std,
	}
	median, mad := medianMAD(sorted)
	p.Median = median
	if mad == 0 {
		return p
	}
	for _, v := range vals {
		z := math.Abs(0.6745 * (v - median) / mad)
		if z > OutlierThreshold {
			p.Outliers++
		}
		if z > p.MaxAbsZ {
			p.MaxAbsZ = z
		}
	}
	return p
}

// medianMAD returns the median and median absolute deviation of sorted.
func medianMAD(sorted []float64) (median, mad float64) {
	median = quantile(sorted, 0.5)
	dev := make([]float64, len(sorted))
	for i, v := range sorted {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return median, mad
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo, hi := int(math.Floor(pos)), int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

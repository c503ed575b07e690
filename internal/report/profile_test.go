package report

import (
	"math"
	"testing"

	"github.com/KaramelBytes/segloom/internal/dataset"
	"github.com/KaramelBytes/segloom/internal/features"
)

func TestProfile_SkipsGenderAndFlagsOutliers(t *testing.T) {
	ds := &dataset.Dataset{Name: "p.csv"}
	incomes := []float64{40000, 41000, 42000, 43000, 44000, 45000, 500000}
	for i, inc := range incomes {
		ds.Rows = append(ds.Rows, dataset.Row{Age: float64(20 + i), Gender: "Male", Income: inc, SpendingScore: 50})
	}
	enc, err := features.Encode(ds)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	prof := Profile(enc)
	if len(prof) != 3 {
		t.Fatalf("expected 3 numeric columns, got %d", len(prof))
	}
	byName := map[string]ColumnProfile{}
	for _, p := range prof {
		byName[p.Name] = p
	}
	if _, ok := byName[dataset.ColGender]; ok {
		t.Fatalf("gender must not be profiled")
	}
	age := byName[dataset.ColAge]
	if age.Min != 20 || age.Max != 26 || age.Median != 23 || age.Outliers != 0 {
		t.Fatalf("age profile: %+v", age)
	}
	inc := byName[dataset.ColIncome]
	if inc.Outliers != 1 || inc.Median != 43000 {
		t.Fatalf("income profile: %+v", inc)
	}
	score := byName[dataset.ColSpendingScore]
	if score.Std != 0 || score.Outliers != 0 || math.IsNaN(score.Mean) {
		t.Fatalf("constant column profile: %+v", score)
	}
}

package render

import (
	"image/color"
	"math"

	"github.com/KaramelBytes/segloom/internal/cluster"
	"github.com/KaramelBytes/segloom/internal/dataset"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
)

const (
	densityGridSize = 80
	densityLevels   = 10
	// densityCut extends the grid this many bandwidths past the data.
	densityCut = 3
)

// Grid is a density surface sampled on a regular lattice. It implements
// plotter.GridXYZ.
type Grid struct {
	Xs, Ys []float64
	// Zs is indexed [row][col], row following Ys.
	Zs [][]float64
}

func (g *Grid) Dims() (c, r int)   { return len(g.Xs), len(g.Ys) }
func (g *Grid) Z(c, r int) float64 { return g.Zs[r][c] }
func (g *Grid) X(c int) float64    { return g.Xs[c] }
func (g *Grid) Y(r int) float64    { return g.Ys[r] }

// Range returns the smallest and largest sampled density.
func (g *Grid) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range g.Zs {
		for _, z := range row {
			lo = math.Min(lo, z)
			hi = math.Max(hi, z)
		}
	}
	return lo, hi
}

// scottBandwidth is Scott's rule for a 2-D Gaussian kernel. A constant axis
// gets a unit bandwidth.
func scottBandwidth(v []float64) float64 {
	sd := stat.StdDev(v, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 1
	}
	return sd * math.Pow(float64(len(v)), -1.0/6.0)
}

// KDE evaluates a product-Gaussian kernel density estimate of (xs, ys) on an
// n×n grid.
func KDE(xs, ys []float64, n int) *Grid {
	bx, by := scottBandwidth(xs), scottBandwidth(ys)
	g := &Grid{Xs: axis(xs, bx, n), Ys: axis(ys, by, n), Zs: make([][]float64, n)}
	norm := 1 / (2 * math.Pi * bx * by * float64(len(xs)))
	for r, y := range g.Ys {
		row := make([]float64, n)
		for c, x := range g.Xs {
			sum := 0.0
			for i := range xs {
				dx := (x - xs[i]) / bx
				dy := (y - ys[i]) / by
				sum += math.Exp(-0.5 * (dx*dx + dy*dy))
			}
			row[c] = sum * norm
		}
		g.Zs[r] = row
	}
	return g
}

func axis(v []float64, bw float64, n int) []float64 {
	lo, hi := v[0], v[0]
	for _, x := range v {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	lo -= densityCut * bw
	hi += densityCut * bw
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	return out
}

// levels is a palette.Palette built from a slice of colours.
type levels []color.Color

func (l levels) Colors() []color.Color { return l }

// densityPlot draws a filled KDE of Income against Spending Score: banded
// cool-warm fill with contour lines at the band edges, lowest band blank.
func densityPlot(c *cluster.Clustered) (*plot.Plot, error) {
	p := newPlot("Income vs Spending Score Density", dataset.ColIncome, dataset.ColSpendingScore)
	g := KDE(c.Column(dataset.ColIncome), c.Column(dataset.ColSpendingScore), densityGridSize)
	lo, hi := g.Range()
	if hi <= lo {
		hi = lo + 1
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(lo)
	cmap.SetMax(hi)
	fill := levels(cmap.Palette(densityLevels).Colors())
	fill[0] = color.White

	hm := plotter.NewHeatMap(g, fill)
	hm.Min, hm.Max = lo, hi
	p.Add(hm)

	edges := make([]float64, 0, densityLevels-1)
	for i := 1; i < densityLevels; i++ {
		edges = append(edges, lo+(hi-lo)*float64(i)/densityLevels)
	}
	lines := cmap.Palette(len(edges))
	p.Add(plotter.NewContour(g, edges, lines))
	return p, nil
}

var _ palette.Palette = levels(nil)

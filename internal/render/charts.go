package render

import (
	"fmt"
	"image/color"

	"github.com/KaramelBytes/segloom/internal/cluster"
	"github.com/KaramelBytes/segloom/internal/dataset"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	skyBlue = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	green   = color.RGBA{G: 128, A: 255}
)

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = x
	p.Y.Label.Text = y
	return p
}

func scatter(pts plotter.XYs, c color.Color) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(3)
	return s, nil
}

// segmentationPlot draws Income against Spending Score, one series per cluster.
func segmentationPlot(c *cluster.Clustered) (*plot.Plot, error) {
	p := newPlot("Customer Segmentation", dataset.ColIncome, dataset.ColSpendingScore)
	p.Legend.Top = true
	for _, k := range c.Present() {
		members := c.Members(k)
		pts := make(plotter.XYs, len(members))
		for i, r := range members {
			pts[i].X = r.Income
			pts[i].Y = r.SpendingScore
		}
		s, err := scatter(pts, plotutil.Color(k))
		if err != nil {
			return nil, fmt.Errorf("cluster %d: %w", k, err)
		}
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("Cluster %d", k), s)
	}
	return p, nil
}

// agePlot draws a 10-bin histogram of Age.
func agePlot(c *cluster.Clustered) (*plot.Plot, error) {
	p := newPlot("Age Distribution", dataset.ColAge, "Count")
	h, err := plotter.NewHist(plotter.Values(c.Column(dataset.ColAge)), 10)
	if err != nil {
		return nil, err
	}
	h.FillColor = skyBlue
	p.Add(h)
	return p, nil
}

// spendingAgePlot draws Age against Spending Score in one colour.
func spendingAgePlot(c *cluster.Clustered) (*plot.Plot, error) {
	p := newPlot("Spending Score vs Age", dataset.ColAge, dataset.ColSpendingScore)
	pts := make(plotter.XYs, len(c.Rows))
	for i, r := range c.Rows {
		pts[i].X = r.Age
		pts[i].Y = r.SpendingScore
	}
	s, err := scatter(pts, green)
	if err != nil {
		return nil, err
	}
	p.Add(s)
	return p, nil
}

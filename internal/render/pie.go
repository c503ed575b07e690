package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/KaramelBytes/segloom/internal/cluster"
	"github.com/KaramelBytes/segloom/internal/features"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Slice is one wedge of a pie chart.
type Slice struct {
	Label string
	Count int
}

// pieStartAngle is where the first wedge begins, in degrees counterclockwise
// from the positive x axis.
const pieStartAngle = 140

var genderAliases = map[string]string{
	"male":   "Male",
	"m":      "Male",
	"female": "Female",
	"f":      "Female",
}

// GenderSlices counts rows per gender. Male and Female always lead in that
// order, whatever their frequency or code; other observed labels follow in
// code order under their own name.
func GenderSlices(enc *features.Encoded) []Slice {
	slices := []Slice{{Label: "Male"}, {Label: "Female"}}
	counts := enc.GenderCounts()
	for code, label := range enc.Gender.Classes {
		switch genderAliases[strings.ToLower(label)] {
		case "Male":
			slices[0].Count += counts[code]
		case "Female":
			slices[1].Count += counts[code]
		default:
			slices = append(slices, Slice{Label: label, Count: counts[code]})
		}
	}
	return slices
}

var errNoRows = errors.New("no rows to chart")

func genderPlot(c *cluster.Clustered) (*plot.Plot, error) {
	slices := GenderSlices(c.Encoded)
	total := 0
	for _, s := range slices {
		total += s.Count
	}
	if total == 0 {
		return nil, errNoRows
	}
	p := plot.New()
	p.Title.Text = "Gender Distribution"
	p.HideAxes()
	p.Legend.Top = true
	pc := &pieChart{Slices: slices, Start: pieStartAngle}
	p.Add(pc)
	for i, s := range slices {
		p.Legend.Add(s.Label, swatch{plotutil.Color(i)})
	}
	return p, nil
}

// pieChart implements plot.Plotter.
type pieChart struct {
	Slices []Slice
	// Start is in degrees.
	Start float64
}

func (pc *pieChart) DataRange() (xmin, xmax, ymin, ymax float64) { return -1, 1, -1, 1 }

func (pc *pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	total := 0
	for _, s := range pc.Slices {
		total += s.Count
	}
	if total == 0 {
		return
	}
	w, h := c.Max.X-c.Min.X, c.Max.Y-c.Min.Y
	center := vg.Point{X: c.Min.X + w/2, Y: c.Min.Y + h/2}
	r := w
	if h < r {
		r = h
	}
	r *= 0.4

	sty := plt.Legend.TextStyle
	sty.XAlign = draw.XCenter
	sty.YAlign = draw.YCenter

	at := func(theta float64, dist vg.Length) vg.Point {
		return vg.Point{X: center.X + dist*vg.Length(math.Cos(theta)), Y: center.Y + dist*vg.Length(math.Sin(theta))}
	}

	theta := pc.Start * math.Pi / 180
	for i, s := range pc.Slices {
		if s.Count == 0 {
			continue
		}
		frac := float64(s.Count) / float64(total)
		sweep := 2 * math.Pi * frac
		steps := int(math.Ceil(sweep / (math.Pi / 180)))
		if steps < 2 {
			steps = 2
		}
		pts := []vg.Point{center}
		for j := 0; j <= steps; j++ {
			pts = append(pts, at(theta+sweep*float64(j)/float64(steps), r))
		}
		c.FillPolygon(plotutil.Color(i), pts)

		mid := theta + sweep/2
		c.FillText(sty, at(mid, r*0.6), fmt.Sprintf("%.1f%%", frac*100))
		c.FillText(sty, at(mid, r*1.15), s.Label)
		theta += sweep
	}
}

// swatch is a filled legend thumbnail.
type swatch struct{ color color.Color }

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.color, c.ClipPolygonY(pts))
}

package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/KaramelBytes/segloom/internal/cluster"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Artifact keys. A successful render always carries all of them.
const (
	KeySegmentation   = "segmentation"
	KeyAgeDistrib     = "age_distribution"
	KeyGenderPie      = "gender_pie"
	KeySpendingVsAge  = "spending_vs_age"
	KeyIncomeSpending = "income_spending_heatmap"
)

// Keys lists the artifact keys in render order.
var Keys = []string{KeySegmentation, KeyAgeDistrib, KeyGenderPie, KeySpendingVsAge, KeyIncomeSpending}

// Artifacts maps an artifact key to a base64 PNG.
type Artifacts map[string]string

// ChartError reports which chart failed.
type ChartError struct {
	Chart string
	Err   error
}

func (e *ChartError) Error() string { return fmt.Sprintf("render %s: %v", e.Chart, e.Err) }
func (e *ChartError) Unwrap() error { return e.Err }

type chart struct {
	key    string
	width  vg.Length
	height vg.Length
	build  func(*cluster.Clustered) (*plot.Plot, error)
}

var charts = []chart{
	{KeySegmentation, 6 * vg.Inch, 5 * vg.Inch, segmentationPlot},
	{KeyAgeDistrib, 6 * vg.Inch, 4 * vg.Inch, agePlot},
	{KeyGenderPie, 5 * vg.Inch, 5 * vg.Inch, genderPlot},
	{KeySpendingVsAge, 6 * vg.Inch, 5 * vg.Inch, spendingAgePlot},
	{KeyIncomeSpending, 6 * vg.Inch, 5 * vg.Inch, densityPlot},
}

// Render draws every chart for c. Either all charts are returned or none.
func Render(c *cluster.Clustered) (Artifacts, error) {
	out := make(Artifacts, len(charts))
	for _, ch := range charts {
		s, err := renderOne(ch, c)
		if err != nil {
			return nil, &ChartError{Chart: ch.key, Err: err}
		}
		out[ch.key] = s
	}
	return out, nil
}

// renderOne builds a chart on its own plot and canvas, so no drawing state
// survives between charts or leaks across concurrent runs.
func renderOne(ch chart, c *cluster.Clustered) (s string, err error) {
	defer func() {
		// gonum/plot panics on some degenerate inputs.
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	p, err := ch.build(c)
	if err != nil {
		return "", err
	}
	b, err := encodePNG(p, ch.width, ch.height)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func encodePNG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	canvas := vgimg.New(w, h)
	p.Draw(draw.New(canvas))
	img := cropToContent(canvas.Image(), cropMargin)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// cropMargin is the blank border in pixels kept around the drawn content.
const cropMargin = 4

// cropToContent trims the uniform background around the drawing, keeping
// margin pixels on each side. A blank image is returned unchanged.
func cropToContent(img image.Image, margin int) image.Image {
	b := img.Bounds()
	bg := color.RGBAModel.Convert(img.At(b.Min.X, b.Min.Y))
	box := image.Rectangle{Min: b.Max, Max: b.Min}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.RGBAModel.Convert(img.At(x, y)) == bg {
				continue
			}
			if x < box.Min.X {
				box.Min.X = x
			}
			if y < box.Min.Y {
				box.Min.Y = y
			}
			if x >= box.Max.X {
				box.Max.X = x + 1
			}
			if y >= box.Max.Y {
				box.Max.Y = y + 1
			}
		}
	}
	if box.Empty() {
		return img
	}
	box = image.Rect(box.Min.X-margin, box.Min.Y-margin, box.Max.X+margin, box.Max.Y+margin).Intersect(b)
	sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	})
	if !ok {
		return img
	}
	return sub.SubImage(box)
}

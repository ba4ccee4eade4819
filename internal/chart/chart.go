// Package chart renders actual-versus-predicted consumption line charts as
// PNG images.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Width and Height are the rendered image dimensions.
const (
	Width  = 1400
	Height = 500
)

const (
	marginLeft   = 90
	marginRight  = 30
	marginTop    = 60
	marginBottom = 60

	lineWidth = 1.5
	xTicks    = 6
	yTicks    = 5
)

var ErrNoData = errors.New("chart: no points to plot")

var (
	background = color.RGBA{255, 255, 255, 255}
	axisColor  = color.RGBA{60, 60, 60, 255}
	gridColor  = color.RGBA{225, 225, 225, 255}
	textColor  = color.RGBA{30, 30, 30, 255}

	// Premultiplied at 70% opacity.
	ActualColor    = color.RGBA{22, 84, 126, 179}
	PredictedColor = color.RGBA{179, 89, 10, 179}
)

var (
	fontTitle font.Face
	fontLabel font.Face
	fontOnce  sync.Once
	fontErr   error
)

func loadFonts() {
	fontOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse Go Regular: %w", err)
			return
		}
		fontTitle, err = opentype.NewFace(f, &opentype.FaceOptions{Size: 20, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			fontErr = fmt.Errorf("create title face: %w", err)
			return
		}
		fontLabel, err = opentype.NewFace(f, &opentype.FaceOptions{Size: 13, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			fontErr = fmt.Errorf("create label face: %w", err)
		}
	})
}

// Plot is one building's validation window.
type Plot struct {
	Title     string
	Times     []time.Time
	Actual    []float64
	Predicted []float64
}

// FileName is the chart file for a building.
func FileName(building string) string {
	r := strings.NewReplacer("/", "_", `\`, "_")
	return r.Replace(building) + "_prediction.png"
}

// Title is the chart heading for a building.
func Title(building string) string {
	return "XGBoost Regression: " + building
}

// WriteFile renders p and writes it to path.
func WriteFile(path string, p Plot) error {
	data, err := Render(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Render draws the actual and predicted series against time.
func Render(p Plot) ([]byte, error) {
	if len(p.Times) == 0 {
		return nil, ErrNoData
	}
	if len(p.Actual) != len(p.Times) || len(p.Predicted) != len(p.Times) {
		return nil, fmt.Errorf("chart: %d times, %d actual, %d predicted", len(p.Times), len(p.Actual), len(p.Predicted))
	}
	loadFonts()
	if fontErr != nil {
		return nil, fmt.Errorf("load fonts: %w", fontErr)
	}

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	ax := newAxes(p)
	ax.drawGrid(img)
	drawLine(img, ax, p.Times, p.Actual, ActualColor)
	drawLine(img, ax, p.Times, p.Predicted, PredictedColor)
	ax.drawFrame(img)

	title := p.Title
	drawText(img, title, (Width-textWidth(fontTitle, title))/2, marginTop-25, textColor, fontTitle)
	drawText(img, "Timestamp", (Width-textWidth(fontLabel, "Timestamp"))/2, Height-12, textColor, fontLabel)
	drawText(img, "Electricity (kWh)", 10, marginTop-8, textColor, fontLabel)
	drawLegend(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

// axes maps data coordinates into the plot rectangle.
type axes struct {
	t0, t1 time.Time
	y0, y1 float64
	rect   image.Rectangle
}

func newAxes(p Plot) axes {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range [][]float64{p.Actual, p.Predicted} {
		for _, v := range s {
			if math.IsNaN(v) {
				continue
			}
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	switch {
	case math.IsInf(lo, 1):
		lo, hi = 0, 1
	case lo == hi:
		lo, hi = lo-1, hi+1
	default:
		pad := (hi - lo) * 0.05
		lo, hi = lo-pad, hi+pad
	}
	return axes{
		t0:   p.Times[0],
		t1:   p.Times[len(p.Times)-1],
		y0:   lo,
		y1:   hi,
		rect: image.Rect(marginLeft, marginTop, Width-marginRight, Height-marginBottom),
	}
}

func (a axes) x(t time.Time) float32 {
	span := a.t1.Sub(a.t0)
	if span <= 0 {
		return float32(a.rect.Min.X+a.rect.Max.X) / 2
	}
	f := float64(t.Sub(a.t0)) / float64(span)
	return float32(float64(a.rect.Min.X) + f*float64(a.rect.Dx()))
}

func (a axes) y(v float64) float32 {
	f := (v - a.y0) / (a.y1 - a.y0)
	return float32(float64(a.rect.Max.Y) - f*float64(a.rect.Dy()))
}

func (a axes) drawGrid(img *image.RGBA) {
	for i := 0; i <= yTicks; i++ {
		v := a.y0 + (a.y1-a.y0)*float64(i)/yTicks
		py := int(a.y(v))
		hline(img, a.rect.Min.X, a.rect.Max.X, py, gridColor)
		label := fmt.Sprintf("%.1f", v)
		drawText(img, label, a.rect.Min.X-8-textWidth(fontLabel, label), py+4, textColor, fontLabel)
	}
	span := a.t1.Sub(a.t0)
	for i := 0; i <= xTicks; i++ {
		t := a.t0.Add(span * time.Duration(i) / xTicks)
		px := int(a.x(t))
		vline(img, px, a.rect.Min.Y, a.rect.Max.Y, gridColor)
		label := t.Format(time.DateOnly)
		drawText(img, label, px-textWidth(fontLabel, label)/2, a.rect.Max.Y+20, textColor, fontLabel)
		if span <= 0 {
			break
		}
	}
}

func (a axes) drawFrame(img *image.RGBA) {
	hline(img, a.rect.Min.X, a.rect.Max.X, a.rect.Max.Y, axisColor)
	vline(img, a.rect.Min.X, a.rect.Min.Y, a.rect.Max.Y, axisColor)
}

// drawLine strokes a polyline as one quad per segment. Missing values break
// the line.
func drawLine(img *image.RGBA, a axes, times []time.Time, values []float64, col color.RGBA) {
	z := vector.NewRasterizer(Width, Height)
	prev := -1
	for i, v := range values {
		if math.IsNaN(v) {
			prev = -1
			continue
		}
		if prev >= 0 {
			segment(z, a.x(times[prev]), a.y(values[prev]), a.x(times[i]), a.y(v))
		}
		prev = i
	}
	if len(values) == 1 && !math.IsNaN(values[0]) {
		x, y := a.x(times[0]), a.y(values[0])
		segment(z, x-2, y, x+2, y)
	}
	z.Draw(img, img.Bounds(), image.NewUniform(col), image.Point{})
}

func segment(z *vector.Rasterizer, x0, y0, x1, y1 float32) {
	dx, dy := x1-x0, y1-y0
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	nx, ny := -dy/l*lineWidth/2, dx/l*lineWidth/2
	z.MoveTo(x0+nx, y0+ny)
	z.LineTo(x1+nx, y1+ny)
	z.LineTo(x1-nx, y1-ny)
	z.LineTo(x0-nx, y0-ny)
	z.ClosePath()
}

func drawLegend(img *image.RGBA) {
	entries := []struct {
		label string
		col   color.RGBA
	}{
		{"Actual", ActualColor},
		{"Predicted (XGBoost)", PredictedColor},
	}
	x := Width - marginRight - 200
	y := marginTop + 12
	for _, e := range entries {
		swatch := image.Rect(x, y-6, x+24, y-2)
		draw.Draw(img, swatch, image.NewUniform(e.col), image.Point{}, draw.Over)
		drawText(img, e.label, x+32, y, textColor, fontLabel)
		y += 20
	}
}

func hline(img *image.RGBA, x0, x1, y int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y, col)
	}
}

func vline(img *image.RGBA, x, y0, y1 int, col color.RGBA) {
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x, y, col)
	}
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func textWidth(face font.Face, text string) int {
	return font.MeasureString(face, text).Ceil()
}

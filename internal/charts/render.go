package charts

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	defaultWidth  = 640
	defaultHeight = 320
)

var (
	seriesColors = []drawing.Color{
		drawing.ColorFromHex("7aa2f7"),
		drawing.ColorFromHex("e0af68"),
		drawing.ColorFromHex("9ece6a"),
	}
	placeholderColor = drawing.ColorFromHex("565f89")
)

// render draws c as a PNG. A go-chart failure (degenerate ranges and the
// like) yields a blank image of the same size so the surface still updates;
// the error is returned alongside it.
func render(c *Chart, width, height int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch c.Kind {
	case Emotion:
		err = renderPie(c, width, height, &buf)
	case Posture:
		err = renderBar(c, width, height, &buf)
	default:
		err = renderLine(c, width, height, &buf)
	}
	if err == nil {
		return buf.Bytes(), nil
	}
	err = fmt.Errorf("render %s: %w", c.Kind, err)
	img, berr := blank(width, height)
	if berr != nil {
		return img, errors.Join(err, berr)
	}
	return img, err
}

func renderPie(c *Chart, width, height int, buf *bytes.Buffer) error {
	values := make([]chart.Value, len(c.Labels))
	for i, label := range c.Labels {
		values[i] = chart.Value{Label: label, Value: c.Values[i]}
		if c.Placeholder {
			values[i].Style = chart.Style{FillColor: placeholderColor}
		}
	}
	pie := chart.PieChart{
		Title:  c.Title,
		Width:  width,
		Height: height,
		Values: values,
	}
	return pie.Render(chart.PNG, buf)
}

func renderBar(c *Chart, width, height int, buf *bytes.Buffer) error {
	bars := make([]chart.Value, len(c.Labels))
	for i, label := range c.Labels {
		bars[i] = chart.Value{Label: label, Value: c.Values[i]}
	}
	bar := chart.BarChart{
		Title:    c.Title,
		Width:    width,
		Height:   height,
		BarWidth: barWidth(width, len(bars)),
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: c.YMin, Max: c.YMax},
		},
		Bars: bars,
	}
	return bar.Render(chart.PNG, buf)
}

func renderLine(c *Chart, width, height int, buf *bytes.Buffer) error {
	series := make([]chart.Series, 0, len(c.Series))
	for i, s := range c.Series {
		xs, ys := s.X, s.Y
		// go-chart rejects a zero-width x range.
		if len(xs) == 1 {
			xs = []float64{xs[0], xs[0] + 1}
			ys = []float64{ys[0], ys[0]}
		}
		st := chart.Style{StrokeColor: seriesColors[i%len(seriesColors)], StrokeWidth: 2}
		if c.Placeholder {
			st.StrokeColor = placeholderColor
		}
		series = append(series, chart.ContinuousSeries{Name: s.Name, XValues: xs, YValues: ys, Style: st})
	}
	ch := chart.Chart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: c.YMin, Max: c.YMax}},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, buf)
}

func barWidth(width, n int) int {
	if n == 0 {
		return 40
	}
	w := (width - 80) / (n * 2)
	switch {
	case w < 8:
		return 8
	case w > 60:
		return 60
	}
	return w
}

func blank(width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("blank %dx%d: %w", width, height, err)
	}
	return buf.Bytes(), nil
}

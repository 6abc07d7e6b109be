package tour

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

var palette = []string{"#1E88E5", "#FF9800", "#4CAF50"}

type Series struct {
	Name   string
	Color  string
	Values []float64
}

// Chart is a set of series sharing one x axis.
type Chart struct {
	Labels []string
	Series []Series
}

type Point struct {
	X, Y float64
}

type Charts struct {
	Line    Chart
	Bar     Chart
	Area    Chart
	Scatter []Point
}

// NewCharts builds the demo data: 20x3 normal samples, fixed bars, a 20x3
// cumulative random walk and 50 normal points.
func NewCharts(rng *rand.Rand) Charts {
	return Charts{
		Line:    randomChart(rng, []string{"A", "B", "C"}, 20, false),
		Bar:     Chart{Labels: []string{"A", "B", "C", "D", "E"}, Series: []Series{{Name: "Value", Color: palette[0], Values: []float64{10, 25, 15, 30, 20}}}},
		Area:    randomChart(rng, []string{"X", "Y", "Z"}, 20, true),
		Scatter: randomPoints(rng, 50),
	}
}

func randomChart(rng *rand.Rand, names []string, rows int, cumulative bool) Chart {
	c := Chart{Labels: make([]string, rows)}
	for i := range c.Labels {
		c.Labels[i] = fmt.Sprint(i)
	}
	for i, name := range names {
		values := make([]float64, rows)
		var sum float64
		for r := range values {
			v := rng.NormFloat64()
			if cumulative {
				sum += v
				v = sum
			}
			values[r] = v
		}
		c.Series = append(c.Series, Series{Name: name, Color: palette[i%len(palette)], Values: values})
	}
	return c
}

func randomPoints(rng *rand.Rand, n int) []Point {
	points := make([]Point, n)
	for i := range points {
		points[i] = Point{X: rng.NormFloat64(), Y: rng.NormFloat64()}
	}
	return points
}

// Range returns the min and max over all series, always including 0.
func (c Chart) Range() (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, s := range c.Series {
		for _, v := range s.Values {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}

// Polyline is one series mapped into an SVG viewport.
type Polyline struct {
	Name   string
	Color  string
	Points string
	// Area closes the line down to the zero baseline.
	Area string
}

// Polylines maps each series into a width x height viewport, y growing down.
func (c Chart) Polylines(width, height float64) []Polyline {
	lo, hi := c.Range()
	zero := scale(0, lo, hi, height)
	lines := make([]Polyline, 0, len(c.Series))
	for _, s := range c.Series {
		var pts []string
		step := 0.0
		if len(s.Values) > 1 {
			step = width / float64(len(s.Values)-1)
		}
		for i, v := range s.Values {
			pts = append(pts, fmt.Sprintf("%.1f,%.1f", float64(i)*step, scale(v, lo, hi, height)))
		}
		line := Polyline{Name: s.Name, Color: s.Color, Points: strings.Join(pts, " ")}
		if len(pts) > 0 {
			line.Area = fmt.Sprintf("0.0,%.1f %s %.1f,%.1f", zero, line.Points, float64(len(s.Values)-1)*step, zero)
		}
		lines = append(lines, line)
	}
	return lines
}

type Bar struct {
	Label      string
	Value      float64
	X, Y, W, H float64
}

// Bars maps the first series into evenly spaced bars.
func (c Chart) Bars(width, height float64) []Bar {
	if len(c.Series) == 0 || len(c.Series[0].Values) == 0 {
		return nil
	}
	values := c.Series[0].Values
	lo, hi := c.Range()
	zero := scale(0, lo, hi, height)
	slot := width / float64(len(values))
	bars := make([]Bar, len(values))
	for i, v := range values {
		y := scale(v, lo, hi, height)
		label := ""
		if i < len(c.Labels) {
			label = c.Labels[i]
		}
		bars[i] = Bar{
			Label: label,
			Value: v,
			X:     float64(i)*slot + slot*0.1,
			Y:     math.Min(y, zero),
			W:     slot * 0.8,
			H:     math.Abs(zero - y),
		}
	}
	return bars
}

type Dot struct {
	CX, CY float64
}

// ScatterDots maps points into the viewport, padding the range by 10%.
func ScatterDots(points []Point, width, height float64) []Dot {
	if len(points) == 0 {
		return nil
	}
	minX, maxX, minY, maxY := points[0].X, points[0].X, points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	padX, padY := (maxX-minX)*0.1+1e-9, (maxY-minY)*0.1+1e-9
	minX, maxX, minY, maxY = minX-padX, maxX+padX, minY-padY, maxY+padY

	dots := make([]Dot, len(points))
	for i, p := range points {
		dots[i] = Dot{
			CX: (p.X - minX) / (maxX - minX) * width,
			CY: scale(p.Y, minY, maxY, height),
		}
	}
	return dots
}

func scale(v, lo, hi, height float64) float64 {
	return height - (v-lo)/(hi-lo)*height
}

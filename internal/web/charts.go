package web

import (
	"fmt"
	"math"
	"strings"

	"github.com/marsesrobotics/dashboard/internal/dashboard"
)

const (
	donutRadius  = 70.0
	trendWidth   = 360
	trendHeight  = 160
	trendPadding = 8.0
)

type DonutSegment struct {
	Color  string
	Dash   string
	Gap    string
	Offset string
}

// Donut is the pie chart laid out as stroked circle segments
type Donut struct {
	Radius   string
	Segments []DonutSegment
}

type TrendLine struct {
	Color  string
	Points string
}

// TrendChart is the trend series projected onto an SVG viewport
type TrendChart struct {
	Width  int
	Height int
	Lines  []TrendLine
}

func newDonut(pie dashboard.PieChart) Donut {
	d := Donut{Radius: fmtFloat(donutRadius)}
	if pie.Total <= 0 {
		return d
	}

	circumference := 2 * math.Pi * donutRadius
	offset := 0.0
	for _, s := range pie.Slices {
		if s.Value <= 0 {
			continue
		}
		length := s.Value / pie.Total * circumference
		d.Segments = append(d.Segments, DonutSegment{
			Color:  s.Color,
			Dash:   fmtFloat(length),
			Gap:    fmtFloat(circumference - length),
			Offset: fmtFloat(offset),
		})
		offset -= length
	}
	return d
}

func newTrendChart(series []dashboard.TrendSeries) TrendChart {
	c := TrendChart{Width: trendWidth, Height: trendHeight}

	maxY := 0
	for _, s := range series {
		for _, p := range s.Data {
			if p.Y > maxY {
				maxY = p.Y
			}
		}
	}
	if maxY == 0 {
		maxY = 1
	}

	for _, s := range series {
		if len(s.Data) == 0 {
			continue
		}

		step := 0.0
		if len(s.Data) > 1 {
			step = (trendWidth - 2*trendPadding) / float64(len(s.Data)-1)
		}

		points := make([]string, 0, len(s.Data))
		for i, p := range s.Data {
			x := trendPadding + step*float64(i)
			y := trendHeight - trendPadding - float64(p.Y)/float64(maxY)*(trendHeight-2*trendPadding)
			points = append(points, fmtFloat(x)+","+fmtFloat(y))
		}

		c.Lines = append(c.Lines, TrendLine{Color: s.Color, Points: strings.Join(points, " ")})
	}
	return c
}

func fmtFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

package dashboard

import (
	"fmt"
	"sort"
	"time"
)

// ColorScheme is shared by the pie chart, the map and the trend lines so a
// series keeps its colour across panels.
var ColorScheme = []string{
	"#2563EB", // blue
	"#10B981", // green
	"#F59E0B", // yellow
	"#EF4444", // red
	"#8B5CF6", // purple
	"#EC4899", // pink
	"#14B8A6", // teal
	"#F97316", // orange
}

var (
	HeaderTitles = []string{"Creating and submitting your EOI", "Approval of new requests"}
	DetailTitles = []string{"Opened Request", "Engaged", "EOI Sent"}
)

const (
	pieChartType = "pie"
	barChartType = "bar"
	trendMonths  = 12
)

type StatCard struct {
	Title   string `json:"title"`
	Value   string `json:"value"`
	Display string `json:"display"`
}

type PieSlice struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Color   string  `json:"color"`
	Display string  `json:"display"`
}

type PieChart struct {
	Slices       []PieSlice `json:"slices"`
	Total        float64    `json:"total"`
	TotalDisplay string     `json:"totalDisplay"`
}

type MapRegion struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Color   string  `json:"color"`
	Display string  `json:"display"`
}

type TrendPoint struct {
	X string `json:"x"`
	Y int    `json:"y"`
}

type TrendSeries struct {
	ID      string       `json:"id"`
	Color   string       `json:"color"`
	Data    []TrendPoint `json:"data"`
	Average int          `json:"average"`
}

// View is the dashboard reshaped for the page's panels
type View struct {
	Header  []StatCard    `json:"header"`
	Details []StatCard    `json:"details"`
	Pie     PieChart      `json:"pie"`
	Regions []MapRegion   `json:"regions"`
	Trend   []TrendSeries `json:"trend"`
}

// BuildView filters and reshapes raw data. now picks the year of the trend axis.
func BuildView(data *Data, now time.Time) View {
	if data == nil {
		data = &Data{}
	}

	view := View{
		Header:  statCards(data.Statistics, HeaderTitles),
		Details: statCards(data.Statistics, DetailTitles),
		Regions: mapRegions(data.Regions),
		Pie:     PieChart{Slices: []PieSlice{}, TotalDisplay: FormatCurrency(0)},
		Trend:   []TrendSeries{},
	}

	if pie := findChart(data.Charts, pieChartType); pie != nil {
		view.Pie = pieChart(pie)
	}
	if bar := findChart(data.Charts, barChartType); bar != nil {
		view.Trend = trendSeries(bar.Data, now.Year())
	}

	return view
}

// statCards keeps statistics whose title is in titles, in stored order
func statCards(stats []Statistic, titles []string) []StatCard {
	wanted := make(map[string]bool, len(titles))
	for _, t := range titles {
		wanted[t] = true
	}

	cards := []StatCard{}
	for _, s := range stats {
		if !wanted[s.Title] {
			continue
		}
		cards = append(cards, StatCard{Title: s.Title, Value: s.Value, Display: FormatNumber(s.Value)})
	}
	return cards
}

func findChart(charts []Chart, chartType string) *Chart {
	for i := range charts {
		if charts[i].ChartType == chartType {
			return &charts[i]
		}
	}
	return nil
}

func pieChart(c *Chart) PieChart {
	pie := PieChart{Slices: make([]PieSlice, 0, len(c.Data))}

	for i, s := range c.Data {
		value := s.Value
		if latest, ok := latestValue(s.Values); ok {
			value = latest
		}

		pie.Slices = append(pie.Slices, PieSlice{
			ID:      s.Name,
			Label:   s.Name,
			Value:   value,
			Color:   colorAt(i),
			Display: FormatCurrency(value),
		})
		pie.Total += value
	}

	pie.TotalDisplay = FormatCurrency(pie.Total)
	return pie
}

func mapRegions(regions []Region) []MapRegion {
	out := make([]MapRegion, 0, len(regions))
	for i, r := range regions {
		value, _ := latestValue(r.Values)
		out = append(out, MapRegion{
			Name:    r.Name,
			Value:   value,
			Color:   colorAt(i),
			Display: FormatCurrency(value),
		})
	}
	return out
}

// trendSeries turns each bar into twelve monthly points rising linearly
// from half its value to its full value.
func trendSeries(bars []Series, year int) []TrendSeries {
	out := make([]TrendSeries, 0, len(bars))

	for i, s := range bars {
		points := make([]TrendPoint, 0, trendMonths)
		sum := 0
		for m := 0; m < trendMonths; m++ {
			progress := float64(m) / float64(trendMonths-1)
			y := int(roundHalfUp(s.Value/2 + s.Value/2*progress))
			sum += y
			points = append(points, TrendPoint{X: fmt.Sprintf("%d-%02d", year, m+1), Y: y})
		}

		out = append(out, TrendSeries{
			ID:      s.Name,
			Color:   colorAt(i),
			Data:    points,
			Average: int(roundHalfUp(float64(sum) / trendMonths)),
		})
	}
	return out
}

// latestValue returns the value with the most recent date. Undated or
// unparseable points sort after dated ones; ties keep stored order.
func latestValue(points []Point) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}

	sorted := make([]Point, len(points))
	copy(sorted, points)

	sort.SliceStable(sorted, func(i, j int) bool {
		ti, okI := parseDate(sorted[i].Date)
		tj, okJ := parseDate(sorted[j].Date)
		if okI != okJ {
			return okI
		}
		return ti.After(tj)
	})
	return sorted[0].Value, true
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func colorAt(i int) string {
	return ColorScheme[i%len(ColorScheme)]
}

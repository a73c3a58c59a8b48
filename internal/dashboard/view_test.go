package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func sampleData() *Data {
	return &Data{
		Statistics: []Statistic{
			{ID: "1", Title: "Creating and submitting your EOI", Value: "120"},
			{ID: "2", Title: "Opened Request", Value: "22.8k"},
			{ID: "3", Title: "Something else", Value: "1"},
			{ID: "4", Title: "Engaged", Value: "67%"},
			{ID: "5", Title: "Approval of new requests", Value: "45"},
			{ID: "6", Title: "EOI Sent", Value: "24%"},
		},
		Charts: []Chart{
			{ID: "c1", ChartType: "bar", Data: []Series{
				{Name: "Development", Value: 100},
				{Name: "Investment", Value: 0},
			}},
			{ID: "c2", ChartType: "pie", Data: []Series{
				{Name: "NSW", Value: 5, Values: []Point{
					{Date: "2024-01-01", Value: 10},
					{Date: "2024-03-01", Value: 30},
					{Date: "2024-02-01", Value: 20},
				}},
				{Name: "VIC", Value: 7},
			}},
		},
		Regions: []Region{
			{ID: "r1", Name: "NSW", Values: []Point{{Date: "2024-02", Value: 2}, {Date: "2024-05", Value: 5}}},
			{ID: "r2", Name: "VIC"},
		},
	}
}

func TestBuildViewStatistics(t *testing.T) {
	v := BuildView(sampleData(), testNow)

	require.Len(t, v.Header, 2)
	assert.Equal(t, "Creating and submitting your EOI", v.Header[0].Title)
	assert.Equal(t, "Approval of new requests", v.Header[1].Title)

	require.Len(t, v.Details, 3)
	assert.Equal(t, []string{"Opened Request", "Engaged", "EOI Sent"},
		[]string{v.Details[0].Title, v.Details[1].Title, v.Details[2].Title})
	assert.Equal(t, "22,800", v.Details[0].Display)
	assert.Equal(t, "67%", v.Details[1].Display)
}

func TestBuildViewPie(t *testing.T) {
	v := BuildView(sampleData(), testNow)

	require.Len(t, v.Pie.Slices, 2)
	assert.Equal(t, 30.0, v.Pie.Slices[0].Value, "latest dated value wins")
	assert.Equal(t, 7.0, v.Pie.Slices[1].Value, "series value when undated")
	assert.Equal(t, "#2563EB", v.Pie.Slices[0].Color)
	assert.Equal(t, "#10B981", v.Pie.Slices[1].Color)
	assert.Equal(t, 37.0, v.Pie.Total)
	assert.Equal(t, "$37.00", v.Pie.TotalDisplay)
}

func TestBuildViewRegions(t *testing.T) {
	v := BuildView(sampleData(), testNow)

	require.Len(t, v.Regions, 2)
	assert.Equal(t, MapRegion{Name: "NSW", Value: 5, Color: "#2563EB", Display: "$5.00"}, v.Regions[0])
	assert.Equal(t, 0.0, v.Regions[1].Value)
}

func TestBuildViewTrend(t *testing.T) {
	v := BuildView(sampleData(), testNow)

	require.Len(t, v.Trend, 2)
	dev := v.Trend[0]
	assert.Equal(t, "Development", dev.ID)
	require.Len(t, dev.Data, 12)
	assert.Equal(t, TrendPoint{X: "2026-01", Y: 50}, dev.Data[0])
	assert.Equal(t, TrendPoint{X: "2026-12", Y: 100}, dev.Data[11])
	for i := 1; i < len(dev.Data); i++ {
		assert.GreaterOrEqual(t, dev.Data[i].Y, dev.Data[i-1].Y)
	}
	assert.Equal(t, 75, dev.Average)

	assert.Equal(t, 0, v.Trend[1].Average)
}

func TestBuildViewEmpty(t *testing.T) {
	v := BuildView(nil, testNow)

	assert.Empty(t, v.Header)
	assert.Empty(t, v.Details)
	assert.Empty(t, v.Pie.Slices)
	assert.Empty(t, v.Regions)
	assert.Empty(t, v.Trend)
	assert.Equal(t, "$0.00", v.Pie.TotalDisplay)
}

func TestLatestValue(t *testing.T) {
	_, ok := latestValue(nil)
	assert.False(t, ok)

	v, ok := latestValue([]Point{{Date: "garbage", Value: 1}, {Date: "2023-01-01", Value: 2}})
	assert.True(t, ok)
	assert.Equal(t, 2.0, v, "dated points beat unparseable ones")

	v, _ = latestValue([]Point{{Date: "2024-01-01T10:00:00Z", Value: 1}, {Date: "2024-01-01T12:00:00Z", Value: 3}})
	assert.Equal(t, 3.0, v)
}

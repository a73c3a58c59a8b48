package dashboard

// Point is one dated sample of a series
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Statistic is a titled headline figure. Value is stored preformatted ("22.8k", "67%").
type Statistic struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// Series is one named entry of a chart
type Series struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Values []Point `json:"values,omitempty"`
}

// Chart holds the series for one chart type ("pie", "bar", ...)
type Chart struct {
	ID        string   `json:"_id"`
	ChartType string   `json:"chart_type"`
	Data      []Series `json:"data"`
}

// Region is a named geographic area with dated values
type Region struct {
	ID     string  `json:"_id"`
	Name   string  `json:"name"`
	Values []Point `json:"values"`
}

// Data is the raw content of the three aggregate collections
type Data struct {
	Charts     []Chart     `json:"charts"`
	Statistics []Statistic `json:"statistics"`
	Regions    []Region    `json:"regions"`
}

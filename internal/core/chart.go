package core

import (
	"strconv"
)

const UnsupportedChartNotice = "unsupported type"

type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartView is what the page needs to draw a chart. Bar and Line use
// Categories and Series, Pie uses Slices.
type ChartView struct {
	Type       ChartType `json:"type,omitempty"`
	Title      string    `json:"title"`
	Categories []string  `json:"categories,omitempty"`
	Series     []Series  `json:"series,omitempty"`
	Slices     []Slice   `json:"slices,omitempty"`
	Notice     string    `json:"notice,omitempty"`
}

// SelectChart lays records out for the requested chart type. An unknown type
// yields a view carrying only UnsupportedChartNotice.
func SelectChart(chartType, title string, records []ChartRecord) ChartView {
	kind, ok := ParseChartType(chartType)
	if !ok {
		return ChartView{Title: title, Notice: UnsupportedChartNotice}
	}

	view := ChartView{Type: kind, Title: title}
	if kind == ChartPie {
		for _, record := range records {
			label := record.Oldest()
			if label == nil || label.Next() == nil {
				continue
			}
			value, _ := label.Next().Value.(float64)
			view.Slices = append(view.Slices, Slice{Label: formatCategory(label.Value), Value: value})
		}
		return view
	}

	// Series names come from every record in first-seen order; a record
	// missing a series contributes zero.
	index := map[string]int{}
	for _, record := range records {
		first := record.Oldest()
		if first == nil {
			continue
		}
		for pair := first.Next(); pair != nil; pair = pair.Next() {
			if _, seen := index[pair.Key]; !seen {
				index[pair.Key] = len(view.Series)
				view.Series = append(view.Series, Series{Name: pair.Key})
			}
		}
	}
	for i := range view.Series {
		view.Series[i].Values = make([]float64, len(records))
	}

	view.Categories = make([]string, len(records))
	for row, record := range records {
		first := record.Oldest()
		if first == nil {
			continue
		}
		view.Categories[row] = formatCategory(first.Value)
		for pair := first.Next(); pair != nil; pair = pair.Next() {
			if value, ok := pair.Value.(float64); ok {
				view.Series[index[pair.Key]].Values[row] = value
			}
		}
	}
	return view
}

func formatCategory(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	return ""
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply_Text(t *testing.T) {
	reply, err := ParseReply(`{"type":"text","response":"Hola"}`)
	require.NoError(t, err)

	assert.Equal(t, ReplyText, reply.Kind)
	assert.Equal(t, "Hola", reply.Text)
	assert.Nil(t, reply.Chart)
}

func TestParseReply_TextWithEmptyChartFields(t *testing.T) {
	reply, err := ParseReply(`{"type":"text","response":"Hola","chartType":"","title":"","data":""}`)
	require.NoError(t, err)
	assert.Equal(t, "Hola", reply.Text)
}

func TestParseReply_Chart(t *testing.T) {
	reply, err := ParseReply(`{"type":"chart","chartType":"BarChart","title":"T","data":"[{\"name\":\"A\",\"v\":1}]"}`)
	require.NoError(t, err)

	assert.Equal(t, ReplyChart, reply.Kind)
	assert.Empty(t, reply.Text)
	require.NotNil(t, reply.Chart)
	assert.Equal(t, ChartBar, reply.Chart.Type)
	assert.Equal(t, "T", reply.Chart.Title)
	assert.JSONEq(t, `[{"name":"A","v":1}]`, string(reply.Chart.Data))

	require.Len(t, reply.Chart.Records, 1)
	record := reply.Chart.Records[0]
	assert.Equal(t, "name", record.Oldest().Key)
	assert.Equal(t, "A", record.Oldest().Value)
	v, ok := record.Get("v")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestParseReply_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":              `Hola`,
		"empty":                 ``,
		"null":                  `null`,
		"array":                 `[]`,
		"missing type":          `{"response":"Hola"}`,
		"unknown type":          `{"type":"table","response":"Hola"}`,
		"unknown field":         `{"type":"text","response":"Hola","extra":1}`,
		"text without response": `{"type":"text"}`,
		"blank response":        `{"type":"text","response":"  "}`,
		"text with chart data":  `{"type":"text","response":"Hola","data":"[{\"a\":\"x\",\"b\":1}]"}`,
		"chart with response":   `{"type":"chart","response":"Hola","chartType":"BarChart","title":"T","data":"[{\"a\":\"x\",\"b\":1}]"}`,
		"chart without data":    `{"type":"chart","chartType":"BarChart","title":"T"}`,
		"chart without title":   `{"type":"chart","chartType":"BarChart","data":"[{\"a\":\"x\",\"b\":1}]"}`,
		"bad chart type":        `{"type":"chart","chartType":"ScatterChart","title":"T","data":"[{\"a\":\"x\",\"b\":1}]"}`,
		"data not json":         `{"type":"chart","chartType":"BarChart","title":"T","data":"[{oops"}`,
		"data not array":        `{"type":"chart","chartType":"BarChart","title":"T","data":"{\"a\":\"x\",\"b\":1}"}`,
		"data empty":            `{"type":"chart","chartType":"BarChart","title":"T","data":"[]"}`,
		"record not object":     `{"type":"chart","chartType":"BarChart","title":"T","data":"[1,2]"}`,
		"record single field":   `{"type":"chart","chartType":"BarChart","title":"T","data":"[{\"a\":\"x\"}]"}`,
		"nested value":          `{"type":"chart","chartType":"BarChart","title":"T","data":"[{\"a\":\"x\",\"b\":{\"c\":1}}]"}`,
		"string series":         `{"type":"chart","chartType":"BarChart","title":"T","data":"[{\"a\":\"x\",\"b\":\"1\"}]"}`,
		"bool value":            `{"type":"chart","chartType":"BarChart","title":"T","data":"[{\"a\":\"x\",\"b\":true}]"}`,
		"null record":           `{"type":"chart","chartType":"BarChart","title":"T","data":"[null]"}`,
		"trailing data":         `{"type":"text","response":"Hola"} {"type":"text","response":"Adiós"}`,
		"wrong field type":      `{"type":"text","response":42}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseReply(raw)
			assert.ErrorIs(t, err, ErrMalformedReply)
		})
	}
}

func TestParseChartType(t *testing.T) {
	cases := map[string]ChartType{
		"BarChart":  ChartBar,
		"Bar":       ChartBar,
		"LineChart": ChartLine,
		"line":      ChartLine,
		"PieChart":  ChartPie,
		" Pie ":     ChartPie,
	}
	for in, want := range cases {
		got, ok := ParseChartType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "Chart", "Scatter", "AreaChart"} {
		_, ok := ParseChartType(in)
		assert.False(t, ok, in)
	}
}

func TestParseChartData_NumericCategory(t *testing.T) {
	records, err := ParseChartData([]byte(`[{"year":2023,"gdp":1.5},{"year":2024,"gdp":1.7}]`))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2024.0, records[1].Oldest().Value)
}

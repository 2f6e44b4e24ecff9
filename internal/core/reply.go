package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type ReplyKind string

const (
	ReplyText  ReplyKind = "text"
	ReplyChart ReplyKind = "chart"
)

type ChartType string

const (
	ChartBar  ChartType = "Bar"
	ChartLine ChartType = "Line"
	ChartPie  ChartType = "Pie"
)

// ParseChartType accepts both the short names and the "<Name>Chart" form the
// model is asked to produce.
func ParseChartType(s string) (ChartType, bool) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "chart") {
	case "bar":
		return ChartBar, true
	case "line":
		return ChartLine, true
	case "pie":
		return ChartPie, true
	}
	return "", false
}

// ChartRecord is one row of chart data with its fields in source order.
type ChartRecord = *orderedmap.OrderedMap[string, any]

type Chart struct {
	Type    ChartType
	Title   string
	Data    json.RawMessage
	Records []ChartRecord
}

// Reply is the decoded model answer. Exactly one of Text and Chart is set.
type Reply struct {
	Kind  ReplyKind
	Text  string
	Chart *Chart
}

type wireReply struct {
	Type      *string `json:"type"`
	Response  *string `json:"response"`
	ChartType *string `json:"chartType"`
	Title     *string `json:"title"`
	Data      *string `json:"data"`
}

// ParseReply decodes a structured model answer. Anything that does not match
// one of the two variants exactly yields ErrMalformedReply.
func ParseReply(raw string) (Reply, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var w wireReply
	if err := dec.Decode(&w); err != nil {
		return Reply{}, malformed("decode: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Reply{}, malformed("trailing data after reply object")
	}
	if w.Type == nil {
		return Reply{}, malformed("missing type")
	}

	switch ReplyKind(*w.Type) {
	case ReplyText:
		if nonEmpty(w.ChartType) || nonEmpty(w.Data) || nonEmpty(w.Title) {
			return Reply{}, malformed("text reply carries chart fields")
		}
		if !nonEmpty(w.Response) {
			return Reply{}, malformed("text reply without response")
		}
		return Reply{Kind: ReplyText, Text: *w.Response}, nil

	case ReplyChart:
		if nonEmpty(w.Response) {
			return Reply{}, malformed("chart reply carries a response")
		}
		if w.ChartType == nil || w.Title == nil || w.Data == nil {
			return Reply{}, malformed("chart reply missing chartType, title or data")
		}
		chartType, ok := ParseChartType(*w.ChartType)
		if !ok {
			return Reply{}, malformed("unknown chart type %q", *w.ChartType)
		}
		data := json.RawMessage(strings.TrimSpace(*w.Data))
		records, err := ParseChartData(data)
		if err != nil {
			return Reply{}, err
		}
		return Reply{
			Kind:  ReplyChart,
			Chart: &Chart{Type: chartType, Title: *w.Title, Data: data, Records: records},
		}, nil
	}

	return Reply{}, malformed("unknown type %q", *w.Type)
}

// ParseChartData decodes a non-empty JSON array of flat records. The first
// field of each record is the category (string or number), every other field
// must be a number.
func ParseChartData(data []byte) ([]ChartRecord, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, malformed("chart data is not a JSON array: %v", err)
	}
	if len(items) == 0 {
		return nil, malformed("chart data is empty")
	}

	records := make([]ChartRecord, 0, len(items))
	for i, item := range items {
		if !bytes.HasPrefix(bytes.TrimSpace(item), []byte("{")) {
			return nil, malformed("chart record %d is not an object", i)
		}
		record := orderedmap.New[string, any]()
		if err := json.Unmarshal(item, record); err != nil {
			return nil, malformed("chart record %d: %v", i, err)
		}
		if record.Len() < 2 {
			return nil, malformed("chart record %d needs a category and a value", i)
		}

		first := true
		for pair := record.Oldest(); pair != nil; pair = pair.Next() {
			switch pair.Value.(type) {
			case float64:
			case string:
				if !first {
					return nil, malformed("chart record %d field %q is not a number", i, pair.Key)
				}
			default:
				return nil, malformed("chart record %d field %q has unsupported type %T", i, pair.Key, pair.Value)
			}
			first = false
		}
		records = append(records, record)
	}
	return records, nil
}

func nonEmpty(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedReply, fmt.Sprintf(format, args...))
}

package preview

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrIncompleteGrammar marks configuration objects that do not (yet) describe a
// renderable chart. Editors hit this constantly while typing.
var ErrIncompleteGrammar = errors.New("preview: incomplete chart grammar")

const defaultTableName = "table"

// ChartSpec is the subset of the visualization grammar the preview understands.
type ChartSpec struct {
	Type     string
	Title    string
	Subtitle string
	Labels   []string
	Series   []ChartSeries
	Width    int
	Height   int
}

// ChartSeries represents a set of values plotted for a given legend entry.
type ChartSeries struct {
	Name   string
	Points []ChartPoint
}

// ChartPoint is a single datum.
type ChartPoint struct {
	Label string
	Value float64
	Pair  []float64
}

var markChartTypes = map[string]string{
	"rect":   "bar",
	"line":   "line",
	"area":   "line",
	"arc":    "pie",
	"symbol": "scatter",
}

// ParseGrammar reads a Vega-like document: a "data" array with named value
// tables and a "marks" array whose first mark type selects the chart.
func ParseGrammar(cfg map[string]any) (ChartSpec, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return ChartSpec{}, fmt.Errorf("%w: %v", ErrIncompleteGrammar, err)
	}
	rawData, ok := cfg["data"].([]any)
	if !ok || len(rawData) == 0 {
		return ChartSpec{}, fmt.Errorf("%w: data must be a non-empty array", ErrIncompleteGrammar)
	}
	name, rows := pickTable(rawData)
	if len(rows) == 0 {
		return ChartSpec{}, fmt.Errorf("%w: no data values", ErrIncompleteGrammar)
	}

	chartType, err := chartTypeFromMarks(cfg["marks"])
	if err != nil {
		return ChartSpec{}, err
	}

	spec := ChartSpec{
		Type:     chartType,
		Title:    titleOf(cfg["title"]),
		Subtitle: stringValue(cfg["description"]),
		Width:    intValue(cfg["width"]),
		Height:   intValue(cfg["height"]),
	}

	seriesIndex := map[string]int{}
	labelSeen := map[string]bool{}
	for i, raw := range rows {
		row, ok := raw.(map[string]any)
		if !ok {
			return ChartSpec{}, fmt.Errorf("%w: row %d is not an object", ErrIncompleteGrammar, i)
		}
		label := firstString(row, "x", "category", "label", "name")
		value, ok := firstNumber(row, "y", "value", "count")
		if !ok {
			return ChartSpec{}, fmt.Errorf("%w: row %d has no numeric value", ErrIncompleteGrammar, i)
		}
		seriesName := firstString(row, "c", "series")
		if seriesName == "" {
			seriesName = name
		}
		idx, exists := seriesIndex[seriesName]
		if !exists {
			idx = len(spec.Series)
			seriesIndex[seriesName] = idx
			spec.Series = append(spec.Series, ChartSeries{Name: seriesName})
		}
		point := ChartPoint{Label: label, Value: value}
		if x, ok := firstNumber(row, "x"); ok {
			point.Pair = []float64{x, value}
		}
		spec.Series[idx].Points = append(spec.Series[idx].Points, point)
		if label != "" && !labelSeen[label] {
			labelSeen[label] = true
			spec.Labels = append(spec.Labels, label)
		}
	}
	return spec, nil
}

func pickTable(data []any) (string, []any) {
	var (
		fallbackName string
		fallbackRows []any
	)
	for _, raw := range data {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		values, _ := entry["values"].([]any)
		if len(values) == 0 {
			continue
		}
		name := stringValue(entry["name"])
		if name == defaultTableName {
			return name, values
		}
		if fallbackRows == nil {
			fallbackName, fallbackRows = name, values
		}
	}
	if fallbackName == "" {
		fallbackName = defaultTableName
	}
	return fallbackName, fallbackRows
}

func chartTypeFromMarks(raw any) (string, error) {
	marks, ok := raw.([]any)
	if !ok || len(marks) == 0 {
		return "bar", nil
	}
	mark, ok := marks[0].(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: mark is not an object", ErrIncompleteGrammar)
	}
	markType := strings.ToLower(stringValue(mark["type"]))
	chartType, ok := markChartTypes[markType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported mark %q", ErrIncompleteGrammar, markType)
	}
	return chartType, nil
}

func titleOf(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case map[string]any:
		return stringValue(v["text"])
	}
	return ""
}

func firstString(row map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := row[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

func firstNumber(row map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := row[key].(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func stringValue(raw any) string {
	if s, ok := raw.(string); ok {
		return s
	}
	return ""
}

func intValue(raw any) int {
	switch v := raw.(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// normalizeConfig round-trips the document through JSON so Go literals and
// decoded payloads share one shape ([]any, map[string]any, float64).
func normalizeConfig(cfg map[string]any) (map[string]any, error) {
	if cfg == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

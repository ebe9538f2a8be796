package domain

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Color is a display color name accepted in target configuration and
// rendered by the dashboard consumers.
type Color string

const (
	ColorRed     Color = "red"
	ColorGreen   Color = "green"
	ColorYellow  Color = "yellow"
	ColorCyan    Color = "cyan"
	ColorMagenta Color = "magenta"
	ColorBlue    Color = "blue"
	ColorWhite   Color = "white"
)

// ParseColor validates a configured color name. The empty string is valid
// and means "no explicit color".
func ParseColor(s string) (Color, bool) {
	switch c := Color(s); c {
	case "", ColorRed, ColorGreen, ColorYellow, ColorCyan, ColorMagenta, ColorBlue, ColorWhite:
		return c, true
	default:
		return "", false
	}
}

// MetricValue holds a single reading, which is either numeric or textual
// (e.g. a replication role). Thresholds only ever apply to numeric values.
type MetricValue struct {
	number  float64
	text    string
	numeric bool
}

// Number wraps a numeric reading.
func Number(v float64) MetricValue {
	return MetricValue{number: v, numeric: true}
}

// Text wraps a textual reading.
func Text(s string) MetricValue {
	return MetricValue{text: s}
}

// IsNumber reports whether the value is numeric.
func (v MetricValue) IsNumber() bool { return v.numeric }

// Float returns the numeric reading; ok is false for textual values.
func (v MetricValue) Float() (float64, bool) { return v.number, v.numeric }

// String returns the raw textual form of the value, without grouping.
func (v MetricValue) String() string {
	if v.numeric {
		if v.number == math.Trunc(v.number) {
			return fmt.Sprintf("%d", int64(v.number))
		}
		return fmt.Sprintf("%g", v.number)
	}
	return v.text
}

// MarshalJSON encodes numeric values as JSON numbers and textual values as
// JSON strings, matching the wire contract consumed by renderers.
func (v MetricValue) MarshalJSON() ([]byte, error) {
	if v.numeric {
		return json.Marshal(v.number)
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (v *MetricValue) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("metric value must be a number or a string: %w", err)
	}
	*v = Text(s)
	return nil
}

// MetricSample is one presentation-ready metric belonging to a Snapshot.
//
// Color, when set, always wins over threshold classification. WarnAbove and
// WarnBelow are pointers so that "no threshold" and "threshold of zero" stay
// distinguishable (deadlocks warn above zero, for example).
type MetricSample struct {
	Key       string      `json:"key"`
	Label     string      `json:"label"`
	Value     MetricValue `json:"value"`
	Unit      string      `json:"unit,omitempty"`
	Color     Color       `json:"color,omitempty"`
	WarnAbove *float64    `json:"warn_above,omitempty"`
	WarnBelow *float64    `json:"warn_below,omitempty"`
	History   []float64   `json:"history,omitempty"`
}

// Threshold is a convenience for building WarnAbove / WarnBelow values.
func Threshold(v float64) *float64 { return &v }

// DisplayColor computes the effective color for rendering.
// Precedence: explicit color, then warn thresholds, then green.
// Thresholds never fire for textual values.
func (m MetricSample) DisplayColor() Color {
	if m.Color != "" {
		return m.Color
	}
	if v, ok := m.Value.Float(); ok {
		if m.WarnAbove != nil && v > *m.WarnAbove {
			return ColorRed
		}
		if m.WarnBelow != nil && v < *m.WarnBelow {
			return ColorRed
		}
	}
	return ColorGreen
}

// DisplayValue formats the value for rendering: whole numbers get thousands
// separators, fractional numbers are shown with one decimal place, and
// textual values pass through unchanged.
func (m MetricSample) DisplayValue() string {
	v, ok := m.Value.Float()
	if !ok {
		return m.Value.String()
	}
	if v == math.Trunc(v) {
		return humanize.Comma(int64(v))
	}
	return humanize.CommafWithDigits(v, 1)
}

// Percent derives a percentage from part / whole, rounded to the given
// number of decimals. ok is false when the denominator is zero or negative;
// callers must then omit the derived metric entirely rather than report it
// as zero.
func Percent(part, whole float64, decimals int) (float64, bool) {
	if whole <= 0 {
		return 0, false
	}
	shift := math.Pow(10, float64(decimals))
	return math.Round(part/whole*100*shift) / shift, true
}

// DegradedSample builds the error entry emitted when one optional
// sub-measurement fails while the rest of the fetch succeeded.
func DegradedSample(label string, err error) MetricSample {
	return MetricSample{
		Key:   "query_error_" + SlugKey(label),
		Label: label + " (error)",
		Value: Text(err.Error()),
		Color: ColorRed,
	}
}

// SlugKey derives a stable metric key from a display label.
func SlugKey(label string) string {
	out := make([]byte, 0, len(label))
	for i := 0; i < len(label); i++ {
		ch := label[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
			out = append(out, ch+'a'-'A')
		case (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9'):
			out = append(out, ch)
		case ch == ' ' || ch == '-' || ch == '_':
			out = append(out, '_')
		}
	}
	return string(out)
}

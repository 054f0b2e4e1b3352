// Package query turns grid selections into one parameterized read statement
// and materializes its result.
package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Text and number filter operators.
const (
	FilterTypeText   = "text"
	FilterTypeNumber = "number"

	OpContains    = "contains"
	OpEquals      = "equals"
	OpStartsWith  = "startsWith"
	OpEndsWith    = "endsWith"
	OpGreaterThan = "greaterThan"
	OpLessThan    = "lessThan"
)

// Options are the grid selections for one read.
type Options struct {
	Offset      int             `json:"offset"`
	Limit       int             `json:"limit"`
	Sort        *SortSpec       `json:"sort,omitempty"`
	GroupBy     GroupBy         `json:"groupBy,omitempty"`
	Aggregates  []AggregateSpec `json:"aggregates,omitempty"`
	FilterModel FilterModel     `json:"filterModel,omitempty"`
}

// SortSpec orders the result by one column or output label.
type SortSpec struct {
	Column    string `json:"column"`
	Direction string `json:"direction,omitempty"`
}

// AggregateSpec applies Function to Column. The output label is FUNC_column.
type AggregateSpec struct {
	Column   string `json:"column"`
	Function string `json:"agg"`
}

// FilterCondition is one column filter in grid wire shape.
type FilterCondition struct {
	Filter     any    `json:"filter"`
	FilterType string `json:"filterType"`
	Type       string `json:"type,omitempty"`
}

// FilterModel maps column name to its condition; all conditions are ANDed.
type FilterModel map[string]FilterCondition

// GroupBy is an ordered list of grouping columns. It decodes from either a
// single JSON string or an array of strings.
type GroupBy []string

// UnmarshalJSON implements json.Unmarshaler.
func (g *GroupBy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*g = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*g = nil
		} else {
			*g = GroupBy{s}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("groupBy must be a string or an array of strings: %w", err)
	}
	*g = list
	return nil
}

// DecodeOptions decodes Options keeping numeric filter values exact.
func DecodeOptions(data []byte) (Options, error) {
	var opts Options
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&opts); err != nil {
		return Options{}, fmt.Errorf("invalid query options: %w", err)
	}
	return opts, nil
}

package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"integral json number", json.Number("42"), int64(42)},
		{"fractional json number", json.Number("12.5"), 12.5},
		{"integral float", 3.0, int64(3)},
		{"fractional float", 3.25, 3.25},
		{"string untouched", "T1", "T1"},
		{"nil untouched", nil, nil},
		{"bool untouched", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeValue(tt.in))
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   any
		wantOK bool
	}{
		{"json number", json.Number("100"), int64(100), true},
		{"float", 99.5, 99.5, true},
		{"int", 7, int64(7), true},
		{"numeric string", " 250 ", int64(250), true},
		{"decimal string", "1.5", 1.5, true},
		{"non numeric string", "abc", nil, false},
		{"injection string", "1 OR 1=1", nil, false},
		{"nan string", "NaN", nil, false},
		{"bool", true, nil, false},
		{"nil", nil, nil, false},
		{"list", []any{1}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

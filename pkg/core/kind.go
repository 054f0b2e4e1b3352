package core

import "strings"

// ColumnKind is the scalar family a column's declared type falls into.
type ColumnKind string

const (
	KindText    ColumnKind = "text"
	KindNumber  ColumnKind = "number"
	KindDate    ColumnKind = "date"
	KindBoolean ColumnKind = "boolean"
)

// InferKind maps a driver-reported data type to a ColumnKind.
// Anything unrecognized is treated as text.
func InferKind(dataType string) ColumnKind {
	// Substring matching also covers wrappers such as DECIMAL(10,2) and Nullable(Int64).
	t := strings.ToUpper(strings.TrimSpace(dataType))

	switch {
	case strings.Contains(t, "BOOL"):
		return KindBoolean
	case strings.Contains(t, "INTERVAL"):
		return KindText
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIME"):
		return KindDate
	case strings.Contains(t, "INT"),
		strings.Contains(t, "DEC"),
		strings.Contains(t, "NUM"),
		strings.Contains(t, "REAL"),
		strings.Contains(t, "FLOAT"),
		strings.Contains(t, "DOUBLE"),
		strings.Contains(t, "MONEY"):
		return KindNumber
	default:
		return KindText
	}
}

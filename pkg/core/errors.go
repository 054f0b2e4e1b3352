package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLimitRequired is returned when a read is requested without a positive limit.
var ErrLimitRequired = errors.New("a positive limit is required")

// ErrNegativeOffset is returned when a read is requested with a negative offset.
var ErrNegativeOffset = errors.New("offset must not be negative")

// UnknownTableError is returned when a table name is not in the reflected catalog.
type UnknownTableError struct {
	Table string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("unknown table %q", e.Table)
}

// UnknownColumnError is returned when a column name does not exist on a reflected table.
type UnknownColumnError struct {
	Table  string
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("column %q does not exist in table %q", e.Column, e.Table)
}

// MalformedFilterError is returned for an unsupported filterType/operator
// combination or a value the operator cannot take.
type MalformedFilterError struct {
	Column     string
	FilterType string
	Operator   string
	Reason     string
}

func (e *MalformedFilterError) Error() string {
	msg := fmt.Sprintf("malformed filter on column %q (filterType=%q, type=%q)", e.Column, e.FilterType, e.Operator)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// InvalidAggregateError is returned for an aggregate function outside the supported set.
type InvalidAggregateError struct {
	Column    string
	Function  string
	Supported []string
}

func (e *InvalidAggregateError) Error() string {
	return fmt.Sprintf("unsupported aggregate %q on column %q (supported: %s)",
		e.Function, e.Column, strings.Join(e.Supported, ", "))
}

// UnknownCheckError is returned when a data-quality check name is not registered.
type UnknownCheckError struct {
	Name      string
	Available []string
}

func (e *UnknownCheckError) Error() string {
	return fmt.Sprintf("unknown check %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// DataSourceError wraps a connection or execution failure from the driver.
type DataSourceError struct {
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source error during %s: %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// WrapDataSource wraps err as a DataSourceError unless it already is one.
func WrapDataSource(op string, err error) error {
	if err == nil {
		return nil
	}
	var dsErr *DataSourceError
	if errors.As(err, &dsErr) {
		return err
	}
	return &DataSourceError{Op: op, Err: err}
}

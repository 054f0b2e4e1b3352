// Package dberror classifies data-source errors for user-facing responses.
package dberror

import (
	"context"
	"errors"
	"net"
	"strings"
)

// ErrorType classifies database errors for appropriate handling.
type ErrorType int

const (
	// ErrorTypeUnknown is an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeConnectivity indicates the database is unreachable.
	ErrorTypeConnectivity
	// ErrorTypeTimeout indicates the operation timed out.
	ErrorTypeTimeout
	// ErrorTypeAuth indicates authentication/authorization failure.
	ErrorTypeAuth
	// ErrorTypeQuery indicates the data source rejected the statement.
	ErrorTypeQuery
	// ErrorTypeCanceled indicates the caller went away.
	ErrorTypeCanceled
)

// String returns the wire name used in API error bodies.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeConnectivity:
		return "connectivity"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeAuth:
		return "auth"
	case ErrorTypeQuery:
		return "query"
	case ErrorTypeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

var (
	connectivityPatterns = []string{
		"connection refused",
		"connection reset",
		"connection closed",
		"no such host",
		"dial tcp",
		"dial unix",
		"eof",
		"broken pipe",
		"network is unreachable",
		"no route to host",
		"read/write on closed",
		"server shutdown",
		"pool is closed",
		"driver is closed",
		"sql: database is closed",
		"not connected",
	}

	timeoutPatterns = []string{
		"timeout",
		"deadline exceeded",
		"timed out",
		"max_execution_time",
	}

	authPatterns = []string{
		"unauthorized",
		"authentication failed",
		"invalid credentials",
		"access denied",
		"permission denied",
		"password authentication",
		"invalid access token",
	}

	queryPatterns = []string{
		"syntax error",
		"no such table",
		"no such column",
		"does not exist",
		"unknown column",
		"unknown table",
		"table not found",
		"type mismatch",
		"cannot parse",
		"conversion",
		"constraint",
		"readonly",
		"read-only",
	}
)

// IsTransient returns true if the error is likely transient, so a user
// can reasonably try again.
func IsTransient(err error) bool {
	switch Classify(err) {
	case ErrorTypeConnectivity, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// Classify determines the type of database error.
func Classify(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	if errors.Is(err, context.Canceled) {
		return ErrorTypeCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorTypeTimeout
		}
		return ErrorTypeConnectivity
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case containsAny(errStr, authPatterns):
		return ErrorTypeAuth
	case containsAny(errStr, timeoutPatterns):
		return ErrorTypeTimeout
	case containsAny(errStr, connectivityPatterns):
		return ErrorTypeConnectivity
	case containsAny(errStr, queryPatterns):
		return ErrorTypeQuery
	}
	return ErrorTypeUnknown
}

// UserMessage returns a user-friendly error message based on the error type.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch Classify(err) {
	case ErrorTypeConnectivity:
		return "Data source temporarily unavailable. Please try again in a moment."
	case ErrorTypeTimeout:
		return "Request timed out. Please try again."
	case ErrorTypeAuth:
		return "Data source rejected the credentials. Check the target configuration."
	case ErrorTypeQuery:
		return "The data source rejected the statement."
	case ErrorTypeCanceled:
		return "Request canceled."
	default:
		return "An unexpected data source error occurred."
	}
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

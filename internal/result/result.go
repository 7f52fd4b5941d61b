// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package result holds the decoded shape of a query response: an execution
// status, a message, optional exception text and timing, and an optional
// table view. Values are built once, either by Decode from a response payload
// or by NewQueryResult, and never change afterwards.
package result

import (
	"errors"
	"fmt"
)

// QueryExecutionStatus is the closed set of outcomes a server reports.
type QueryExecutionStatus int

const (
	StatusOK QueryExecutionStatus = iota + 1
	StatusSyntaxError
	StatusServerError
	StatusMiddlewareError
)

// ErrUnknownStatus is wrapped when a status name is not one of the four known ones.
var ErrUnknownStatus = errors.New("unknown execution status")

var statusNames = map[QueryExecutionStatus]string{
	StatusOK:              "OK",
	StatusSyntaxError:     "SYNTAX_ERROR",
	StatusServerError:     "SERVER_ERROR",
	StatusMiddlewareError: "MIDDLEWARE_ERROR",
}

// Statuses lists every status in declaration order.
func Statuses() []QueryExecutionStatus {
	return []QueryExecutionStatus{StatusOK, StatusSyntaxError, StatusServerError, StatusMiddlewareError}
}

// ParseStatus resolves a wire name by exact, case-sensitive match.
func ParseStatus(name string) (QueryExecutionStatus, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownStatus, name)
}

// String returns the wire name of the status.
func (s QueryExecutionStatus) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("QueryExecutionStatus(%d)", int(s))
}

// QueryResult is the outcome of one query.
type QueryResult struct {
	status    QueryExecutionStatus
	message   string
	exception string
	timeMs    int64
	table     TableView
}

// Option sets an optional QueryResult field.
type Option func(*QueryResult)

// WithException sets the exception text. Default: "" (absent).
func WithException(text string) Option {
	return func(r *QueryResult) { r.exception = text }
}

// WithTime sets the elapsed server time in milliseconds. Default: 0, which
// callers display as "less than 1 ms".
func WithTime(ms int64) Option {
	return func(r *QueryResult) { r.timeMs = ms }
}

// WithTable sets the table view. Default: EmptyTable().
func WithTable(t TableView) Option {
	return func(r *QueryResult) { r.table = t }
}

// NewQueryResult builds a result from its required fields plus options.
func NewQueryResult(status QueryExecutionStatus, message string, opts ...Option) QueryResult {
	r := QueryResult{
		status:    status,
		message:   message,
		exception: "",
		timeMs:    0,
		table:     EmptyTable(),
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Status is the execution status.
func (r QueryResult) Status() QueryExecutionStatus { return r.status }

// Message is the human-readable message from the server.
func (r QueryResult) Message() string { return r.message }

// Exception is the exception text, or "" when the server sent none.
func (r QueryResult) Exception() string { return r.exception }

// TimeMillis is the elapsed server time in milliseconds.
func (r QueryResult) TimeMillis() int64 { return r.timeMs }

// Table is the table view; EmptyTable() when the response had no table.
func (r QueryResult) Table() TableView { return r.table }

// HasTable reports whether the result has at least one row. A present but
// empty table counts as no table.
func (r QueryResult) HasTable() bool { return r.table.RowCount() > 0 }

// HasException reports whether exception text is present.
func (r QueryResult) HasException() bool { return r.exception != "" }

// OK reports whether the status is StatusOK.
func (r QueryResult) OK() bool { return r.status == StatusOK }

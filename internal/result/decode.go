// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package result

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	qerrors "quark/cli/internal/errors"
)

var (
	// ErrMissingField is wrapped when a required response field is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidField is wrapped when a field is present but has the wrong shape.
	ErrInvalidField = errors.New("invalid field")
)

// Response field names.
const (
	FieldStatus    = "status"
	FieldMessage   = "message"
	FieldException = "exception"
	FieldTime      = "time"
	FieldTable     = "table"
	FieldHeader    = "header"
	FieldRecords   = "records"
)

// DecodeString is Decode for a text payload.
func DecodeString(payload string) (QueryResult, error) {
	return Decode([]byte(payload))
}

// Decode validates a response payload and converts it into a QueryResult.
// Any problem fails the whole decode with a MalformedResult error; a partially
// filled result is never returned.
func Decode(payload []byte) (QueryResult, error) {
	r, err := decode(payload)
	if err != nil {
		return QueryResult{}, qerrors.Wrap(qerrors.MalformedResult, "decode response", err)
	}
	return r, nil
}

func decode(payload []byte) (QueryResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return QueryResult{}, fmt.Errorf("response is not a JSON object: %w", err)
	}
	if fields == nil {
		return QueryResult{}, errors.New("response is not a JSON object")
	}

	// Presence of the required fields is checked before anything else.
	for _, name := range []string{FieldStatus, FieldMessage} {
		if _, ok := fields[name]; !ok {
			return QueryResult{}, fmt.Errorf("%w '%s'", ErrMissingField, name)
		}
	}

	statusName, err := requiredString(fields, FieldStatus)
	if err != nil {
		return QueryResult{}, err
	}
	status, err := ParseStatus(statusName)
	if err != nil {
		return QueryResult{}, err
	}

	message, err := requiredString(fields, FieldMessage)
	if err != nil {
		return QueryResult{}, err
	}

	var opts []Option

	if raw, ok := optional(fields, FieldException); ok {
		var exception string
		if err := json.Unmarshal(raw, &exception); err != nil {
			return QueryResult{}, invalid(FieldException, "must be a string")
		}
		opts = append(opts, WithException(exception))
	}

	if raw, ok := optional(fields, FieldTime); ok {
		ms, err := decodeTime(raw)
		if err != nil {
			return QueryResult{}, err
		}
		opts = append(opts, WithTime(ms))
	}

	if raw, ok := optional(fields, FieldTable); ok {
		table, err := decodeTable(raw)
		if err != nil {
			return QueryResult{}, err
		}
		opts = append(opts, WithTable(table))
	}

	return NewQueryResult(status, message, opts...), nil
}

func requiredString(fields map[string]json.RawMessage, name string) (string, error) {
	raw := fields[name]
	if isNull(raw) {
		return "", invalid(name, "must be a string, got null")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", invalid(name, "must be a string")
	}
	return s, nil
}

// optional returns a field's raw value, treating JSON null as absent.
func optional(fields map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

// decodeTime accepts a JSON number or a numeric string. Fractions are
// truncated toward zero; negative values are rejected.
func decodeTime(raw json.RawMessage) (int64, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return 0, invalid(FieldTime, "must be a number")
	}

	var text string
	switch t := v.(type) {
	case json.Number:
		text = t.String()
	case string:
		text = strings.TrimSpace(t)
	default:
		return 0, invalid(FieldTime, "must be a number")
	}

	if ms, err := strconv.ParseInt(text, 10, 64); err == nil {
		if ms < 0 {
			return 0, invalid(FieldTime, "must not be negative")
		}
		return ms, nil
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalid(FieldTime, fmt.Sprintf("%q is not a number", text))
	}
	f = math.Trunc(f)
	if f < 0 {
		return 0, invalid(FieldTime, "must not be negative")
	}
	if f > math.MaxInt64 {
		return 0, invalid(FieldTime, "out of range")
	}
	return int64(f), nil
}

func decodeTable(raw json.RawMessage) (TableView, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return TableView{}, invalid(FieldTable, "must be an object")
	}

	rawHeader, ok := fields[FieldHeader]
	if !ok {
		return TableView{}, fmt.Errorf("%w '%s.%s'", ErrMissingField, FieldTable, FieldHeader)
	}
	rawRecords, ok := fields[FieldRecords]
	if !ok {
		return TableView{}, fmt.Errorf("%w '%s.%s'", ErrMissingField, FieldTable, FieldRecords)
	}

	var names []string
	if isNull(rawHeader) || json.Unmarshal(rawHeader, &names) != nil {
		return TableView{}, invalid(FieldTable+"."+FieldHeader, "must be an array of strings")
	}
	for i, n := range names {
		// json.Unmarshal turns a null element into "".
		if n == "" && hasNullElement(rawHeader, i) {
			return TableView{}, invalid(FieldTable+"."+FieldHeader, fmt.Sprintf("column %d is null", i))
		}
	}
	header := NewTableViewHeader(names...)

	var rows []json.RawMessage
	if isNull(rawRecords) || json.Unmarshal(rawRecords, &rows) != nil {
		return TableView{}, invalid(FieldTable+"."+FieldRecords, "must be an array of arrays")
	}

	records := make([][]string, 0, len(rows))
	for i, rawRow := range rows {
		var rawCells []json.RawMessage
		if isNull(rawRow) || json.Unmarshal(rawRow, &rawCells) != nil {
			return TableView{}, invalid(FieldTable+"."+FieldRecords, fmt.Sprintf("row %d must be an array", i))
		}
		cells := make([]string, len(rawCells))
		for j, rawCell := range rawCells {
			cell, err := decodeCell(rawCell)
			if err != nil {
				return TableView{}, invalid(FieldTable+"."+FieldRecords, fmt.Sprintf("row %d, cell %d: %v", i, j, err))
			}
			cells[j] = cell
		}
		records = append(records, cells)
	}

	return NewTableView(header, records...)
}

// decodeCell accepts strings as-is and keeps the literal text of numbers and booleans.
func decodeCell(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", errors.New("empty value")
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	case 'n':
		return "", errors.New("null is not a cell value")
	case '{', '[':
		return "", errors.New("nested values are not cell values")
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	}
}

func hasNullElement(rawArray json.RawMessage, i int) bool {
	var elems []json.RawMessage
	if json.Unmarshal(rawArray, &elems) != nil || i >= len(elems) {
		return false
	}
	return isNull(elems[i])
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func invalid(field, reason string) error {
	return fmt.Errorf("%w '%s': %s", ErrInvalidField, field, reason)
}

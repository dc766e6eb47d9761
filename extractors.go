package tableboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// RowsExtractor pulls the row array out of a JSON response body.
//
// RowsExtractor follows the same rules as [Row] decoding: each array
// element must be a JSON object, and its key order is preserved. An
// extractor returns an error wrapping [ErrNoRows] when the payload does
// not contain a row array where it looks, so extractors can be composed
// with [FirstMatchRows].
//
// Several built-in extractors are provided: [RootArrayRows],
// [JSONPathRows], [FirstMatchRows], and [DefaultRowsExtractor].
type RowsExtractor func(body []byte) ([]Row, error)

// RootArrayRows is a [RowsExtractor] for payloads that are a bare JSON
// array of objects.
var RootArrayRows RowsExtractor = func(body []byte) ([]Row, error) {
	return decodeRowArray(bytes.TrimSpace(body))
}

// JSONPathRows returns a [RowsExtractor] that reads the row array at a
// dot-separated path of object keys.
//
// Example:
//
//	// For response: {"data": {"items": [{"id": 1}]}}
//	extractor := tableboard.JSONPathRows("data.items")
func JSONPathRows(path string) RowsExtractor {
	parts := strings.Split(path, ".")

	return func(body []byte) ([]Row, error) {
		current := json.RawMessage(bytes.TrimSpace(body))
		for _, part := range parts {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(current, &obj); err != nil || obj == nil {
				return nil, fmt.Errorf("%w: %q is not inside an object", ErrNoRows, path)
			}
			next, ok := obj[part]
			if !ok {
				return nil, fmt.Errorf("%w: no field %q", ErrNoRows, path)
			}
			current = bytes.TrimSpace(next)
		}
		return decodeRowArray(current)
	}
}

// decodeRowArray decodes a JSON array of objects. Anything other than an
// array is reported as [ErrNoRows]; a malformed element is [ErrInvalidRow].
func decodeRowArray(data []byte) ([]Row, error) {
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("%w: payload is not an array", ErrNoRows)
	}

	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		if errors.Is(err, ErrInvalidRow) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRow, err)
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

// FirstMatchRows returns a [RowsExtractor] that tries extractors in order
// and returns the first result that is not an [ErrNoRows] error.
//
// Example:
//
//	// Try {"items": [...]} first, then a bare array
//	extractor := tableboard.FirstMatchRows(
//	    tableboard.JSONPathRows("items"),
//	    tableboard.RootArrayRows,
//	)
func FirstMatchRows(extractors ...RowsExtractor) RowsExtractor {
	return func(body []byte) ([]Row, error) {
		for _, extractor := range extractors {
			rows, err := extractor(body)
			if err == nil || !errors.Is(err, ErrNoRows) {
				return rows, err
			}
		}
		return nil, fmt.Errorf("%w: no extractor matched", ErrNoRows)
	}
}

var defaultChain = FirstMatchRows(
	RootArrayRows,
	JSONPathRows("data"),
	JSONPathRows("results"),
)

// DefaultRowsExtractor is the [RowsExtractor] used when a source does not
// set one.
//
// It accepts a bare array, an object with a "data" array, or an object
// with a "results" array, in that order. Any other valid JSON payload
// yields no rows (an empty table, not an error).
var DefaultRowsExtractor RowsExtractor = func(body []byte) ([]Row, error) {
	rows, err := defaultChain(body)
	if err == nil {
		return rows, nil
	}
	if errors.Is(err, ErrNoRows) && json.Valid(body) {
		return []Row{}, nil
	}
	if errors.Is(err, ErrNoRows) {
		return nil, errors.New("response body is not valid JSON")
	}
	return nil, err
}

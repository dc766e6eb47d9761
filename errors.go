package tableboard

import "errors"

// Sentinel errors returned by the tableboard package.
var (
	// ErrInvalidRow is returned when a record cannot be decoded into a [Row].
	ErrInvalidRow = errors.New("invalid row")

	// ErrUnknownFormatter is returned when a formatter spec names a
	// formatter that is not registered.
	ErrUnknownFormatter = errors.New("unknown formatter")

	// ErrTableNotFound is returned when a table name is not registered on a [Board].
	ErrTableNotFound = errors.New("table not found")

	// ErrUnsupportedFormat is returned for unknown file or export formats.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrNoRows is returned by a [RowsExtractor] when the payload holds no row array.
	ErrNoRows = errors.New("no rows found in payload")
)

// ErrRowNotFound is returned when a row ID is not in the table's dataset.
var ErrRowNotFound = errors.New("row not found")

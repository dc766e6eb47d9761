// Package export writes a table's filtered rows as CSV or Parquet.
//
// The package works on [Data], a presentation-neutral copy of the rows
// that the dashboard server and the CLI build from a table. CSV carries
// the formatted cell text exactly as displayed. Parquet carries the raw
// values typed by column kind, Snappy-compressed, with the Arrow schema
// stored in the file metadata.
package export

package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// WriteParquet writes d as a single-row-group Parquet file.
//
// Field names are column keys. Number columns whose values are all
// integers become int64 fields, other number columns float64; bool
// columns become boolean; everything else is written as its display text.
// Every field is nullable and a missing or mistyped value is written as
// null.
func WriteParquet(w io.Writer, d Data) error {
	schema := arrowSchema(d)

	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for ri := range d.Values {
		for ci, field := range schema.Fields() {
			appendValue(b.Field(ci), field.Type, d.Values[ri][ci], d.Text[ri][ci])
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(schema, w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.Write(rec); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

func arrowSchema(d Data) *arrow.Schema {
	fields := make([]arrow.Field, len(d.Columns))
	for ci, c := range d.Columns {
		fields[ci] = arrow.Field{Name: c.Key, Type: fieldType(c.Kind, d.Values, ci), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func fieldType(kind string, values [][]any, ci int) arrow.DataType {
	switch kind {
	case KindBool:
		return arrow.FixedWidthTypes.Boolean
	case KindNumber:
		for _, row := range values {
			if _, isFloat := row[ci].(float64); isFloat {
				return arrow.PrimitiveTypes.Float64
			}
		}
		return arrow.PrimitiveTypes.Int64
	default:
		return arrow.BinaryTypes.String
	}
}

func appendValue(b array.Builder, typ arrow.DataType, v any, text string) {
	switch fb := b.(type) {
	case *array.Int64Builder:
		if n, ok := v.(int64); ok {
			fb.Append(n)
			return
		}
	case *array.Float64Builder:
		switch n := v.(type) {
		case float64:
			fb.Append(n)
			return
		case int64:
			fb.Append(float64(n))
			return
		}
	case *array.BooleanBuilder:
		if bv, ok := v.(bool); ok {
			fb.Append(bv)
			return
		}
	case *array.StringBuilder:
		if v != nil {
			fb.Append(text)
			return
		}
	default:
		panic(fmt.Sprintf("export: unexpected builder for %s", typ))
	}
	b.AppendNull()
}

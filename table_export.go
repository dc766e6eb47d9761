package tableboard

import (
	"fmt"
	"io"

	"github.com/jpalmerr/tableboard/internal/export"
)

// Export writes every row passing the current filters, in the current
// sort order and ignoring pagination, as "csv" or "parquet".
//
// Only visible columns are written. CSV cells carry the formatted text
// shown in the table; Parquet cells carry the raw values typed by column
// kind. Returns an error wrapping [ErrUnsupportedFormat] for any other
// format.
func (t *Table) Export(w io.Writer, format string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return export.Write(w, f, t.exportData())
}

func (t *Table) exportData() export.Data {
	cols, rows := t.Filtered()

	d := export.Data{
		Name:    t.name,
		Columns: make([]export.Column, len(cols)),
		Values:  make([][]any, len(rows)),
		Text:    make([][]string, len(rows)),
	}
	for i, c := range cols {
		d.Columns[i] = export.Column{Key: c.key, Header: c.header, Kind: c.kind.String()}
	}
	for ri, r := range rows {
		values := make([]any, len(cols))
		text := make([]string, len(cols))
		for ci, c := range cols {
			v, ok := r.Get(c.key)
			if !ok {
				continue
			}
			values[ci] = v
			text[ci] = c.Format(v)
		}
		d.Values[ri] = values
		d.Text[ri] = text
	}
	return d
}

package engine

// Record is one row as seen by the engine.
type Record interface {
	// Get returns the raw value under key and whether it exists.
	Get(key string) (any, bool)

	// Text returns the unformatted display text under key.
	Text(key string) string
}

// Column is the engine's view of a column descriptor.
type Column struct {
	Key      string
	Sortable bool

	// Format renders a value for display. nil means raw text only.
	Format func(any) string
}

// Features toggles engine operations. A disabled feature turns its
// actions into no-ops.
type Features struct {
	Sorting      bool
	Filtering    bool
	GlobalSearch bool
	Pagination   bool
	RowSelection bool
}

// DefaultFeatures enables sorting, column filtering and pagination.
func DefaultFeatures() Features {
	return Features{
		Sorting:    true,
		Filtering:  true,
		Pagination: true,
	}
}

// Input is the dataset the engine computes over.
type Input struct {
	Columns []Column

	// Rows and IDs are parallel: IDs[i] identifies Rows[i].
	Rows []Record
	IDs  []string

	Features Features
}

func (in Input) column(key string) (Column, bool) {
	for _, c := range in.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

package record

// Column describes one field of a result set. It is immutable once a header
// has been parsed.
type Column struct {
	Name       string
	SourceType string // type name reported by the data source, e.g. "INTEGER"
	Kind       Kind
	Nullable   bool
}

type Schema struct {
	Cols []Column
}

func (s Schema) NumCols() int { return len(s.Cols) }

func (s Schema) Names() []string {
	out := make([]string, len(s.Cols))
	for i, c := range s.Cols {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the first column called name, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s.Cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

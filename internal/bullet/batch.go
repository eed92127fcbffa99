package bullet

import "github.com/bulletdb/bulletdb/internal/enginerr"

// Batch is an ordered collection of equal-length Arrays: the unit every
// compute kernel, operator, and scan source moves. All columns in a Batch
// share the same row count; a Batch of zero columns and some row count is
// valid (e.g. a Filter operator's row-count-only output before projection).
type Batch struct {
	columns []Array
	numRows int
}

// NewBatch builds a Batch from columns that must already agree on row
// count. Returns a SchemaMismatch error if they don't.
func NewBatch(columns []Array) (*Batch, error) {
	n := 0
	if len(columns) > 0 {
		n = columns[0].Len()
	}
	for i, c := range columns {
		if c.Len() != n {
			return nil, enginerr.SchemaMismatchf("batch column %d has %d rows, column 0 has %d", i, c.Len(), n)
		}
	}
	return &Batch{columns: columns, numRows: n}, nil
}

// NewEmptyBatch builds a zero-column batch with the given row count, used by
// operators (Filter, row-count-only projections) that track row presence
// without materializing any column.
func NewEmptyBatch(numRows int) *Batch {
	return &Batch{numRows: numRows}
}

func (b *Batch) NumColumns() int     { return len(b.columns) }
func (b *Batch) NumRows() int        { return b.numRows }
func (b *Batch) Column(i int) Array  { return b.columns[i] }
func (b *Batch) Columns() []Array    { return b.columns }

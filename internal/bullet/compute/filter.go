package compute

import (
	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/enginerr"
)

// SelectionFromBoolean converts a boolean predicate column into the row
// indices where it is both valid and true, the selection vector Filter and
// the Filter physical operator apply to every column of a batch.
func SelectionFromBoolean(pred bullet.Array) ([]int, error) {
	ba, ok := pred.(*bullet.BooleanArray)
	if !ok {
		return nil, enginerr.TypeMismatchf("filter predicate must be Boolean, got %s", pred.DataType())
	}
	sel := make([]int, 0, ba.Len())
	validity := ba.Validity()
	for i := 0; i < ba.Len(); i++ {
		if validity.IsValid(i) && ba.Value(i) {
			sel = append(sel, i)
		}
	}
	return sel, nil
}

// FilterBatch applies a selection vector to every column of a batch,
// producing a new batch of len(selection) rows.
func FilterBatch(batch *bullet.Batch, selection []int) (*bullet.Batch, error) {
	cols := make([]bullet.Array, batch.NumColumns())
	for i := 0; i < batch.NumColumns(); i++ {
		taken, err := Take(batch.Column(i), selection)
		if err != nil {
			return nil, err
		}
		cols[i] = taken
	}
	return bullet.NewBatch(cols)
}

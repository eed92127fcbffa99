package reactive

import (
	"encoding/base64"

	"github.com/bulletdb/bulletdb/internal/bullet"
)

// SerializeBatch turns one result batch into a slice of JSON-friendly row
// maps keyed by column position ("c0", "c1", ...): a physical Batch carries
// no column names of its own (those live on the logical plan's output
// schema, not on bullet.Batch), so positional keys are all a generic
// subscriber can be given without threading schema through every operator.
func SerializeBatch(batch *bullet.Batch) []map[string]any {
	return SerializeBatchNamed(batch, nil)
}

// SerializeBatchNamed is SerializeBatch but keys each row by names[i]
// instead of a positional key, for callers (the one-shot query handler,
// a live query's first batch) that know the plan's output column names.
// A short or nil names falls back to the positional key for the columns
// it doesn't cover.
func SerializeBatchNamed(batch *bullet.Batch, names []string) []map[string]any {
	rows := make([]map[string]any, batch.NumRows())
	for r := range rows {
		rows[r] = make(map[string]any, batch.NumColumns())
	}
	for c := 0; c < batch.NumColumns(); c++ {
		col := batch.Column(c)
		key := columnKey(c)
		if c < len(names) && names[c] != "" {
			key = names[c]
		}
		validity := col.Validity()
		for r := 0; r < batch.NumRows(); r++ {
			if validity != nil && !validity.IsValid(r) {
				rows[r][key] = nil
				continue
			}
			rows[r][key] = cellValue(col, r)
		}
	}
	return rows
}

func columnKey(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return "c" + string(digits[i])
	}
	return "c" + string(digits[i/10]) + string(digits[i%10])
}

// cellValue extracts row i of col as a plain Go value suitable for
// encoding/json, type-switching over every array variant a physical plan
// can currently produce.
func cellValue(col bullet.Array, i int) any {
	switch a := col.(type) {
	case *bullet.BooleanArray:
		return a.Value(i)
	case *bullet.PrimitiveArray[int8]:
		return a.Value(i)
	case *bullet.PrimitiveArray[int16]:
		return a.Value(i)
	case *bullet.PrimitiveArray[int32]:
		return a.Value(i)
	case *bullet.PrimitiveArray[int64]:
		return a.Value(i)
	case *bullet.PrimitiveArray[uint8]:
		return a.Value(i)
	case *bullet.PrimitiveArray[uint16]:
		return a.Value(i)
	case *bullet.PrimitiveArray[uint32]:
		return a.Value(i)
	case *bullet.PrimitiveArray[uint64]:
		return a.Value(i)
	case *bullet.PrimitiveArray[float32]:
		return a.Value(i)
	case *bullet.PrimitiveArray[float64]:
		return a.Value(i)
	case *bullet.Decimal64Array:
		return a.Value(i)
	case *bullet.TimestampArray:
		return a.Value(i)
	case *bullet.VarlenArray[int32]:
		if a.DataType().Kind == bullet.KindUtf8 || a.DataType().Kind == bullet.KindLargeUtf8 {
			return string(a.Value(i))
		}
		return base64.StdEncoding.EncodeToString(a.Value(i))
	case *bullet.VarlenArray[int64]:
		if a.DataType().Kind == bullet.KindUtf8 || a.DataType().Kind == bullet.KindLargeUtf8 {
			return string(a.Value(i))
		}
		return base64.StdEncoding.EncodeToString(a.Value(i))
	case *bullet.NullArray:
		return nil
	default:
		return nil
	}
}

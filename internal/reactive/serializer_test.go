package reactive

import (
	"reflect"
	"testing"

	"github.com/bulletdb/bulletdb/internal/bullet"
)

func TestSerializeBatchPositionalKeys(t *testing.T) {
	col0 := bullet.NewPrimitiveArray(bullet.Simple(bullet.KindInt64), []int64{1, 2}, nil)
	col1 := bullet.NewBooleanArray([]bool{true, false}, nil)
	batch, err := bullet.NewBatch([]bullet.Array{col0, col1})
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}

	rows := SerializeBatch(batch)
	want := []map[string]any{
		{"c0": int64(1), "c1": true},
		{"c0": int64(2), "c1": false},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %#v, want %#v", rows, want)
	}
}

func TestSerializeBatchNamedKeys(t *testing.T) {
	col0 := bullet.NewPrimitiveArray(bullet.Simple(bullet.KindInt64), []int64{7}, nil)
	batch, err := bullet.NewBatch([]bullet.Array{col0})
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}

	rows := SerializeBatchNamed(batch, []string{"id"})
	want := []map[string]any{{"id": int64(7)}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %#v, want %#v", rows, want)
	}
}

func TestSerializeBatchNamedFallsBackToPositional(t *testing.T) {
	col0 := bullet.NewPrimitiveArray(bullet.Simple(bullet.KindInt64), []int64{1}, nil)
	col1 := bullet.NewPrimitiveArray(bullet.Simple(bullet.KindInt64), []int64{2}, nil)
	batch, err := bullet.NewBatch([]bullet.Array{col0, col1})
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}

	// Only one name given for two columns: column 1 falls back to "c1".
	rows := SerializeBatchNamed(batch, []string{"id"})
	want := []map[string]any{{"id": int64(1), "c1": int64(2)}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %#v, want %#v", rows, want)
	}
}

func TestSerializeBatchNullCell(t *testing.T) {
	validity := bullet.NewValidityFromBools([]bool{true, false})
	col0 := bullet.NewPrimitiveArray(bullet.Simple(bullet.KindInt64), []int64{1, 2}, validity)
	batch, err := bullet.NewBatch([]bullet.Array{col0})
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}

	rows := SerializeBatch(batch)
	if rows[0]["c0"] != int64(1) {
		t.Fatalf("row 0 = %v, want 1", rows[0]["c0"])
	}
	if rows[1]["c0"] != nil {
		t.Fatalf("row 1 = %v, want nil (invalid)", rows[1]["c0"])
	}
}

func TestSerializeBatchUtf8AndBinary(t *testing.T) {
	strData, strOffsets := bullet.BuildVarlenOffsets32([][]byte{[]byte("hi")})
	strCol := bullet.NewVarlenArray(bullet.Simple(bullet.KindUtf8), strData, strOffsets, nil)

	binData, binOffsets := bullet.BuildVarlenOffsets32([][]byte{{0xDE, 0xAD}})
	binCol := bullet.NewVarlenArray(bullet.Simple(bullet.KindBinary), binData, binOffsets, nil)

	batch, err := bullet.NewBatch([]bullet.Array{strCol, binCol})
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}

	rows := SerializeBatch(batch)
	if rows[0]["c0"] != "hi" {
		t.Fatalf("c0 = %v, want \"hi\"", rows[0]["c0"])
	}
	if rows[0]["c1"] != "3q0=" {
		t.Fatalf("c1 = %v, want base64 of 0xDEAD", rows[0]["c1"])
	}
}

package pgsource

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/bulletdb/bulletdb/internal/bullet"
)

func TestPgOidToBullet(t *testing.T) {
	cases := []struct {
		oid  uint32
		want bullet.Kind
	}{
		{oidBool, bullet.KindBoolean},
		{oidInt2, bullet.KindInt16},
		{oidInt4, bullet.KindInt32},
		{oidInt8, bullet.KindInt64},
		{oidFloat4, bullet.KindFloat32},
		{oidFloat8, bullet.KindFloat64},
		{oidText, bullet.KindUtf8},
		{oidVarchar, bullet.KindUtf8},
		{oidUUID, bullet.KindUtf8},
		{oidBytea, bullet.KindBinary},
	}
	for _, c := range cases {
		dt, err := pgOidToBullet(c.oid)
		if err != nil {
			t.Fatalf("pgOidToBullet(%d): %v", c.oid, err)
		}
		if dt.Kind != c.want {
			t.Fatalf("pgOidToBullet(%d) = %v, want %v", c.oid, dt.Kind, c.want)
		}
	}
}

func TestPgOidToBulletUnsupported(t *testing.T) {
	if _, err := pgOidToBullet(999999); err == nil {
		t.Fatalf("expected error for unsupported oid")
	}
}

// writeInt32 appends a big-endian int32, matching binary COPY's field
// length prefix encoding.
func writeInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func writeInt16(buf *bytes.Buffer, v int16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	buf.Write(b[:])
}

func TestReadCopyHeader(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("PGCOPY\n\377\r\n\x00")
	writeInt32(&buf, 0) // flags
	writeInt32(&buf, 0) // no header extension

	if err := readCopyHeader(bufio.NewReader(&buf)); err != nil {
		t.Fatalf("readCopyHeader: %v", err)
	}
}

func TestReadCopyHeaderSkipsExtension(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("PGCOPY\n\377\r\n\x00")
	writeInt32(&buf, 0)
	writeInt32(&buf, 3)
	buf.Write([]byte{1, 2, 3})

	if err := readCopyHeader(bufio.NewReader(&buf)); err != nil {
		t.Fatalf("readCopyHeader: %v", err)
	}
}

// TestRowBuilderDecodesFixedWidthRow constructs one binary-COPY row by hand
// (an int8 column, a bool column, and a null text column) and checks the
// rowBuilder decodes it into the matching bullet arrays with the right
// validity.
func TestRowBuilderDecodesFixedWidthRow(t *testing.T) {
	cols := []column{
		{name: "id", oid: oidInt8, typ: bullet.Simple(bullet.KindInt64)},
		{name: "flag", oid: oidBool, typ: bullet.Simple(bullet.KindBoolean)},
		{name: "label", oid: oidText, typ: bullet.Simple(bullet.KindUtf8)},
	}

	var buf bytes.Buffer
	writeInt32(&buf, 8)
	var idBytes [8]byte
	binary.BigEndian.PutUint64(idBytes[:], uint64(42))
	buf.Write(idBytes[:])

	writeInt32(&buf, 1)
	buf.WriteByte(1)

	writeInt32(&buf, -1) // null

	b := newRowBuilder(cols, 1)
	if err := b.readRow(bufio.NewReader(&buf), 3); err != nil {
		t.Fatalf("readRow: %v", err)
	}

	batch, err := b.finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if batch.NumRows() != 1 {
		t.Fatalf("NumRows = %d, want 1", batch.NumRows())
	}

	idCol := batch.Column(0).(*bullet.PrimitiveArray[int64])
	if idCol.Value(0) != 42 {
		t.Fatalf("id = %d, want 42", idCol.Value(0))
	}
	if !idCol.Validity().IsValid(0) {
		t.Fatalf("id validity = false, want true")
	}

	flagCol := batch.Column(1).(*bullet.BooleanArray)
	if !flagCol.Value(0) {
		t.Fatalf("flag = false, want true")
	}

	labelCol := batch.Column(2)
	if labelCol.Validity().IsValid(0) {
		t.Fatalf("label validity = true, want false (null)")
	}
}

func TestRowBuilderRejectsFieldCountMismatch(t *testing.T) {
	cols := []column{{name: "id", oid: oidInt8, typ: bullet.Simple(bullet.KindInt64)}}
	b := newRowBuilder(cols, 1)
	if err := b.readRow(bufio.NewReader(&bytes.Buffer{}), 2); err == nil {
		t.Fatalf("expected error on field count mismatch")
	}
}

func TestReadInt16AndInt32(t *testing.T) {
	var buf bytes.Buffer
	writeInt16(&buf, -7)
	writeInt32(&buf, 1234)

	r := bufio.NewReader(&buf)
	got16, err := readInt16(r)
	if err != nil || got16 != -7 {
		t.Fatalf("readInt16 = (%d, %v), want (-7, nil)", got16, err)
	}
	got32, err := readInt32(r)
	if err != nil || got32 != 1234 {
		t.Fatalf("readInt32 = (%d, %v), want (1234, nil)", got32, err)
	}
}

// Package bullet is the columnar array library at the center of bulletdb:
// typed arrays, validity bitmaps, and the batch they assemble into. It is
// the data model every compute kernel, scan, and operator shares.
package bullet

import "fmt"

// Kind tags the variant of a DataType. Kernels branch once on Kind and then
// work against the concrete array type directly - this is a tagged variant,
// not an interface hierarchy, so that kernels can access physical storage
// layout without going through dynamic dispatch.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindInt128
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindUInt128
	KindFloat32
	KindFloat64
	KindDecimal64
	KindDecimal128
	KindDate32
	KindDate64
	KindTimestamp
	KindInterval
	KindUtf8
	KindLargeUtf8
	KindBinary
	KindLargeBinary
	KindList
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBoolean:
		return "Boolean"
	case KindInt8:
		return "Int8"
	case KindInt16:
		return "Int16"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindInt128:
		return "Int128"
	case KindUInt8:
		return "UInt8"
	case KindUInt16:
		return "UInt16"
	case KindUInt32:
		return "UInt32"
	case KindUInt64:
		return "UInt64"
	case KindUInt128:
		return "UInt128"
	case KindFloat32:
		return "Float32"
	case KindFloat64:
		return "Float64"
	case KindDecimal64:
		return "Decimal64"
	case KindDecimal128:
		return "Decimal128"
	case KindDate32:
		return "Date32"
	case KindDate64:
		return "Date64"
	case KindTimestamp:
		return "Timestamp"
	case KindInterval:
		return "Interval"
	case KindUtf8:
		return "Utf8"
	case KindLargeUtf8:
		return "LargeUtf8"
	case KindBinary:
		return "Binary"
	case KindLargeBinary:
		return "LargeBinary"
	case KindList:
		return "List"
	case KindStruct:
		return "Struct"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// TimeUnit is the resolution of a Timestamp column.
type TimeUnit int

const (
	UnitSecond TimeUnit = iota
	UnitMillisecond
	UnitMicrosecond
	UnitNanosecond
)

func (u TimeUnit) String() string {
	switch u {
	case UnitSecond:
		return "s"
	case UnitMillisecond:
		return "ms"
	case UnitMicrosecond:
		return "us"
	case UnitNanosecond:
		return "ns"
	default:
		return "unknown"
	}
}

// DecimalMeta carries precision/scale for a Decimal(P,S) column. 1 <= S <= P.
type DecimalMeta struct {
	Precision uint8
	Scale     uint8
}

// StructField names and types one field of a Struct array.
type StructField struct {
	Name string
	Type DataType
}

// DataType describes the logical type of an Array. It is a small tagged
// struct rather than an open interface hierarchy: only the fields relevant
// to Kind are populated.
type DataType struct {
	Kind Kind

	// Decimal64 / Decimal128
	Decimal DecimalMeta

	// Timestamp
	Unit TimeUnit

	// List: element type
	Child *DataType

	// Struct: ordered named children
	Fields []StructField
}

func Simple(k Kind) DataType { return DataType{Kind: k} }

func Decimal(k Kind, precision, scale uint8) DataType {
	return DataType{Kind: k, Decimal: DecimalMeta{Precision: precision, Scale: scale}}
}

func Timestamp(unit TimeUnit) DataType {
	return DataType{Kind: KindTimestamp, Unit: unit}
}

func List(child DataType) DataType {
	return DataType{Kind: KindList, Child: &child}
}

func Struct(fields []StructField) DataType {
	return DataType{Kind: KindStruct, Fields: fields}
}

// Equal reports whether two DataTypes name the same logical type, comparing
// variant metadata where it participates in type identity.
func (d DataType) Equal(other DataType) bool {
	if d.Kind != other.Kind {
		return false
	}
	switch d.Kind {
	case KindDecimal64, KindDecimal128:
		return d.Decimal == other.Decimal
	case KindTimestamp:
		return d.Unit == other.Unit
	case KindList:
		if d.Child == nil || other.Child == nil {
			return d.Child == other.Child
		}
		return d.Child.Equal(*other.Child)
	case KindStruct:
		if len(d.Fields) != len(other.Fields) {
			return false
		}
		for i := range d.Fields {
			if d.Fields[i].Name != other.Fields[i].Name || !d.Fields[i].Type.Equal(other.Fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (d DataType) String() string {
	switch d.Kind {
	case KindDecimal64, KindDecimal128:
		return fmt.Sprintf("%s(%d,%d)", d.Kind, d.Decimal.Precision, d.Decimal.Scale)
	case KindTimestamp:
		return fmt.Sprintf("Timestamp(%s)", d.Unit)
	case KindList:
		if d.Child != nil {
			return fmt.Sprintf("List(%s)", d.Child)
		}
		return "List(?)"
	default:
		return d.Kind.String()
	}
}

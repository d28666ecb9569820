package measure

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Kind identifies which representation a Value carries.
type Kind int

const (
	KindUninitialized Kind = iota
	KindInteger
	KindFloat
	KindBool
	KindIllegal
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindUninitialized:
		return "uninitialized"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindIllegal:
		return "illegal"
	case KindRecord:
		return "record"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Numeric reports whether values of this kind can be aggregated.
func (k Kind) Numeric() bool {
	return k == KindInteger || k == KindFloat
}

// Record is a multi-field sample with named columns.
// Values must return one cell per column, in the same order.
type Record interface {
	Columns() []string
	Values() []string
}

// Value is one sampled measurement: either a scalar or a Record.
// The zero Value is uninitialized.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	rec  Record
}

// Int returns an integer Value.
func Int(v int64) Value { return Value{kind: KindInteger, i: v} }

// Float returns a float Value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Illegal marks a sample that was attempted but produced an invalid value.
func Illegal() Value { return Value{kind: KindIllegal} }

// Uninitialized marks a slot that has not been sampled yet.
func Uninitialized() Value { return Value{} }

// RecordOf wraps v as a record Value. v may implement Record directly,
// or be a struct (or pointer to struct) whose exported fields become columns.
// A `csv:"name"` tag renames a column and `csv:"-"` skips the field.
func RecordOf(v any) (Value, error) {
	if r, ok := v.(Record); ok {
		if len(r.Columns()) == 0 {
			return Value{}, fmt.Errorf("record %T has no columns", v)
		}
		return Value{kind: KindRecord, rec: r}, nil
	}
	r, err := newStructRecord(v)
	if err != nil {
		return Value{}, err
	}
	return Value{kind: KindRecord, rec: r}, nil
}

// MustRecord is like RecordOf but panics on error. Intended for fixed struct types.
func MustRecord(v any) Value {
	val, err := RecordOf(v)
	if err != nil {
		panic(err)
	}
	return val
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInteger }

func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }

func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) Record() (Record, bool) { return v.rec, v.kind == KindRecord }

// Number returns the value as float64 for numeric kinds.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInteger:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Columns returns the column names this value occupies in a table.
func (v Value) Columns() []string {
	if v.kind == KindRecord {
		return v.rec.Columns()
	}
	return []string{"value"}
}

// Cells returns the value rendered as table cells, aligned with Columns.
func (v Value) Cells() []string {
	if v.kind == KindRecord {
		return v.rec.Values()
	}
	return []string{v.String()}
}

func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindIllegal:
		return "illegal"
	case KindRecord:
		return fmt.Sprintf("%v", v.rec.Values())
	default:
		return ""
	}
}

// structRecord exposes a struct's exported fields as a Record.
type structRecord struct {
	columns []string
	values  []string
}

func (r structRecord) Columns() []string { return r.columns }
func (r structRecord) Values() []string  { return r.values }

func newStructRecord(v any) (structRecord, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return structRecord{}, fmt.Errorf("nil record %T", v)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return structRecord{}, fmt.Errorf("cannot use %T as a record", v)
	}

	rt := rv.Type()
	var rec structRecord
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("csv"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		rec.columns = append(rec.columns, name)
		rec.values = append(rec.values, formatField(rv.Field(i)))
	}
	if len(rec.columns) == 0 {
		return structRecord{}, fmt.Errorf("record %T has no exported fields", v)
	}
	return rec, nil
}

func formatField(f reflect.Value) string {
	if d, ok := f.Interface().(time.Duration); ok {
		return strconv.FormatInt(d.Nanoseconds(), 10)
	}
	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(f.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(f.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(f.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(f.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(f.Bool())
	case reflect.String:
		return f.String()
	default:
		return fmt.Sprintf("%v", f.Interface())
	}
}

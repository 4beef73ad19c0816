// Package raw models the decoded-but-unresolved form of an archive: a flat,
// id-indexed table of type-tagged records. Records live only between the
// archive reader and the object graph resolver.
package raw

import "fmt"

// FieldKey identifies a field within a record.
type FieldKey uint16

// Value is a decoded field value. The set of implementations is closed:
// Null, Bool, Int, Float, String, Ref, Array and Data.
type Value interface {
	value()
	Type() string
}

type NullValue struct{}

func (NullValue) value()       {}
func (NullValue) Type() string { return "null" }

type BoolValue struct{ V bool }

func (BoolValue) value()       {}
func (BoolValue) Type() string { return "bool" }

type IntValue struct{ V int64 }

func (IntValue) value()       {}
func (IntValue) Type() string { return "int" }

type FloatValue struct{ V float64 }

func (FloatValue) value()       {}
func (FloatValue) Type() string { return "float" }

type StringValue struct{ V string }

func (StringValue) value()       {}
func (StringValue) Type() string { return "string" }

// RefValue references another record by object id.
type RefValue struct{ ID uint32 }

func (RefValue) value()       {}
func (RefValue) Type() string { return "ref" }

type ArrayValue struct{ Items []Value }

func (ArrayValue) value()       {}
func (ArrayValue) Type() string { return "array" }

type DataValue struct{ B []byte }

func (DataValue) value()       {}
func (DataValue) Type() string { return "data" }

// Record is one type-tagged unit decoded from the index stream.
type Record struct {
	ID     uint32
	Tag    Tag
	Fields map[FieldKey]Value

	// Unknown marks a record whose tag was not recognized by the reader.
	// Its fields are still fully decoded so the resolver can preserve
	// bounds and transform when substituting a placeholder.
	Unknown bool
}

// Float returns the field as a float64, coercing integer values.
func (r *Record) Float(key FieldKey) (float64, bool) {
	switch v := r.Fields[key].(type) {
	case FloatValue:
		return v.V, true
	case IntValue:
		return float64(v.V), true
	}
	return 0, false
}

// Int returns the field as an int64.
func (r *Record) Int(key FieldKey) (int64, bool) {
	if v, ok := r.Fields[key].(IntValue); ok {
		return v.V, true
	}
	return 0, false
}

// Bool returns the field as a bool.
func (r *Record) Bool(key FieldKey) (bool, bool) {
	if v, ok := r.Fields[key].(BoolValue); ok {
		return v.V, true
	}
	return false, false
}

// String returns the field as a string.
func (r *Record) String(key FieldKey) (string, bool) {
	if v, ok := r.Fields[key].(StringValue); ok {
		return v.V, true
	}
	return "", false
}

// Ref returns the field as an object reference.
func (r *Record) Ref(key FieldKey) (uint32, bool) {
	if v, ok := r.Fields[key].(RefValue); ok {
		return v.ID, true
	}
	return 0, false
}

// Refs returns the field as a list of object references, accepting either a
// single reference or an array of them.
func (r *Record) Refs(key FieldKey) []uint32 {
	switch v := r.Fields[key].(type) {
	case RefValue:
		return []uint32{v.ID}
	case ArrayValue:
		out := make([]uint32, 0, len(v.Items))
		for _, item := range v.Items {
			if ref, ok := item.(RefValue); ok {
				out = append(out, ref.ID)
			}
		}
		return out
	}
	return nil
}

// Floats returns the field as a list of float64 values.
func (r *Record) Floats(key FieldKey) []float64 {
	arr, ok := r.Fields[key].(ArrayValue)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(arr.Items))
	for _, item := range arr.Items {
		switch v := item.(type) {
		case FloatValue:
			out = append(out, v.V)
		case IntValue:
			out = append(out, float64(v.V))
		}
	}
	return out
}

// Table is the reference-indexed object table produced by the archive
// reader ("arena + index").
type Table struct {
	Records map[uint32]*Record
	Root    uint32
}

// Get returns the record with the given id.
func (t *Table) Get(id uint32) (*Record, bool) {
	rec, ok := t.Records[id]
	return rec, ok
}

// Len returns the number of decoded records.
func (t *Table) Len() int { return len(t.Records) }

func (t *Table) String() string {
	return fmt.Sprintf("raw.Table{%d records, root %d}", len(t.Records), t.Root)
}

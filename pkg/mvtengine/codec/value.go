package codec

import (
	"mvtengine/pkg/mvtengine/errs"
	"mvtengine/pkg/mvtengine/pbf"
)

// Value wire field numbers within a values-dictionary entry message.
const (
	valueFieldString = 1
	valueFieldFloat  = 2
	valueFieldDouble = 3
	valueFieldInt64  = 4
	valueFieldUint64 = 5
	valueFieldSint64 = 6
	valueFieldBool   = 7
)

// encodeValue appends one values-dictionary entry for v, dispatching by
// Go type the way other_examples/5ea80c02_engelsjk-mvt__mvt.go.go's
// encodeValue does, extended here to actually preserve the value's wire
// type instead of collapsing everything to a string.
func encodeValue(w *pbf.Writer, v any) error {
	switch t := v.(type) {
	case string:
		w.String(valueFieldString, t)
	case float32:
		w.Float(valueFieldFloat, t)
	case float64:
		w.Double(valueFieldDouble, t)
	case int64:
		w.Varint(valueFieldSint64, t)
	case int:
		w.Varint(valueFieldSint64, int64(t))
	case int32:
		w.Varint(valueFieldSint64, int64(t))
	case uint64:
		w.Uvarint(valueFieldUint64, t)
	case uint32:
		w.Uvarint(valueFieldUint64, uint64(t))
	case bool:
		w.Bool(valueFieldBool, t)
	default:
		return errs.New(errs.InvalidArgument, "unsupported attribute value type")
	}
	return nil
}

// decodeValue reads one values-dictionary entry message back into its
// Go-typed value.
func decodeValue(body []byte) (any, error) {
	r := pbf.NewReader(body)
	var v any
	haveValue := false
	for r.Next() {
		switch r.Tag() {
		case valueFieldString:
			v, haveValue = r.String(), true
		case valueFieldFloat:
			v, haveValue = r.Float(), true
		case valueFieldDouble:
			v, haveValue = r.Double(), true
		case valueFieldInt64:
			v, haveValue = int64(r.Uvarint()), true
		case valueFieldUint64:
			v, haveValue = r.Uvarint(), true
		case valueFieldSint64:
			v, haveValue = r.Varint(), true
		case valueFieldBool:
			v, haveValue = r.Bool(), true
		default:
			r.Skip()
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if !haveValue {
		return nil, errs.New(errs.CorruptInput, "values-dictionary entry has no recognized value field")
	}
	return v, nil
}

// dictionary interns strings/values into an ordered, deduplicated list,
// the shape both the keys and values dictionaries share.
type stringDict struct {
	index map[string]int
	list  []string
}

func newStringDict() *stringDict {
	return &stringDict{index: make(map[string]int)}
}

func (d *stringDict) intern(s string) int {
	if i, ok := d.index[s]; ok {
		return i
	}
	i := len(d.list)
	d.index[s] = i
	d.list = append(d.list, s)
	return i
}

// valueDict interns typed attribute values by their encoded byte form,
// since values aren't directly comparable (a float64 NaN, for example).
type valueDict struct {
	index map[string]int
	list  [][]byte
}

func newValueDict() *valueDict {
	return &valueDict{index: make(map[string]int)}
}

func (d *valueDict) intern(v any) (int, error) {
	w := pbf.NewWriter()
	if err := encodeValue(w, v); err != nil {
		return 0, err
	}
	key := string(w.Bytes())
	if i, ok := d.index[key]; ok {
		return i, nil
	}
	i := len(d.list)
	d.index[key] = i
	d.list = append(d.list, w.Bytes())
	return i, nil
}

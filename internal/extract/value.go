// Package extract resolves semantic fields from loosely-structured payloads
// and tabular header rows via prioritized key aliases.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
)

// Kind discriminates the payload value variants.
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
)

// Field is one key/value pair of a mapping, with source order preserved.
type Field struct {
	Key   string
	Value Value
}

// Value is a tagged representation of an arbitrary webhook payload:
// a scalar, a sequence, or a mapping. Keeping the variant explicit makes
// the flattening recursion total instead of relying on type switches over
// interface{} shapes.
type Value struct {
	kind   Kind
	scalar string
	seq    []Value
	fields []Field
}

// Scalar wraps a stringified leaf value.
func Scalar(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// Seq wraps a sequence of values.
func Seq(vs ...Value) Value {
	return Value{kind: KindSequence, seq: vs}
}

// Map wraps an ordered list of key/value fields.
func Map(fields ...Field) Value {
	return Value{kind: KindMapping, fields: fields}
}

// Kind reports which variant this value holds.
func (v Value) Kind() Kind { return v.kind }

// AsMap returns v unchanged when it is a mapping; any other shape is wrapped
// under a single "items" key so that downstream aliasing still has a mapping
// to work with.
func (v Value) AsMap() Value {
	if v.kind == KindMapping {
		return v
	}
	return Map(Field{Key: "items", Value: v})
}

// Interface converts the value back to plain Go shapes for JSON encoding
// (mappings become map[string]any, so key order is not preserved).
func (v Value) Interface() any {
	switch v.kind {
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, e := range v.seq {
			out[i] = e.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]any, len(v.fields))
		for _, f := range v.fields {
			out[f.Key] = f.Value.Interface()
		}
		return out
	default:
		return v.scalar
	}
}

// MarshalJSON encodes the value as the equivalent plain JSON shape.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes arbitrary JSON into the tagged form, preserving
// mapping key order as it appears on the wire.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromJSON parses a JSON document into a Value.
func FromJSON(data []byte) (Value, error) {
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return Value{}, eris.Wrap(err, "extract: parse json payload")
	}
	return v, nil
}

// FromAny converts decoded-JSON-style Go values (map[string]any, []any,
// scalars) into the tagged form. Map keys are sorted for determinism since
// Go maps carry no order.
func FromAny(in any) Value {
	switch t := in.(type) {
	case nil:
		return Scalar("")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, Field{Key: k, Value: FromAny(t[k])})
		}
		return Map(fields...)
	case []any:
		vs := make([]Value, len(t))
		for i, e := range t {
			vs[i] = FromAny(e)
		}
		return Seq(vs...)
	case []string:
		vs := make([]Value, len(t))
		for i, e := range t {
			vs[i] = Scalar(e)
		}
		return Seq(vs...)
	case string:
		return Scalar(t)
	case bool:
		return Scalar(strconv.FormatBool(t))
	case json.Number:
		return Scalar(t.String())
	case float64:
		return Scalar(strconv.FormatFloat(t, 'f', -1, 64))
	case int:
		return Scalar(strconv.Itoa(t))
	default:
		return Scalar(fmt.Sprint(t))
	}
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var fields []Field
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, eris.Errorf("extract: unexpected object key token %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				fields = append(fields, Field{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}
			return Map(fields...), nil
		case '[':
			var vs []Value
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				vs = append(vs, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}
			return Seq(vs...), nil
		}
		return Value{}, eris.Errorf("extract: unexpected delimiter %v", t)
	case string:
		return Scalar(t), nil
	case json.Number:
		return Scalar(t.String()), nil
	case bool:
		return Scalar(strconv.FormatBool(t)), nil
	case nil:
		return Scalar(""), nil
	default:
		return Value{}, eris.Errorf("extract: unexpected token %v", tok)
	}
}

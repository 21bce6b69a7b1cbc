// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind tags the variant held by a [Value].
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindBool
	KindList
	KindObject
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is one CRM field value. The variant is fixed when the record is parsed,
// so consumers switch on [Value.Kind] instead of inspecting interface types.
//
// Numbers keep their JSON literal ("2019", "2019.0") so that identifiers and
// years survive without float formatting surprises.
type Value struct {
	kind   Kind
	text   string
	items  []Value
	fields map[string]Value
}

// Constructors

// Null returns the empty value.
func Null() Value { return Value{} }

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number wraps a numeric literal such as "482" or "56.0".
func Number(literal string) Value { return Value{kind: KindNumber, text: literal} }

// Bool wraps a boolean.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, text: "true"}
	}
	return Value{kind: KindBool, text: "false"}
}

// List wraps an ordered list of values.
func List(items ...Value) Value { return Value{kind: KindList, items: items} }

// Object wraps a map of named values.
func Object(fields map[string]Value) Value { return Value{kind: KindObject, fields: fields} }

// FromAny converts a decoded JSON tree (decoded with UseNumber) into a [Value].
func FromAny(v any) Value {
	switch typed := v.(type) {
	case nil:
		return Null()
	case string:
		return Text(typed)
	case json.Number:
		return Number(typed.String())
	case float64:
		return Number(fmt.Sprint(typed))
	case int:
		return Number(fmt.Sprint(typed))
	case int64:
		return Number(fmt.Sprint(typed))
	case bool:
		return Bool(typed)
	case []any:
		items := make([]Value, 0, len(typed))
		for _, item := range typed {
			items = append(items, FromAny(item))
		}
		return List(items...)
	case map[string]any:
		fields := make(map[string]Value, len(typed))
		for key, item := range typed {
			fields[key] = FromAny(item)
		}
		return Object(fields)
	default:
		return Text(fmt.Sprint(typed))
	}
}

// ParseJSON decodes a JSON document into a [Value].
func ParseJSON(data []byte) (Value, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var tree any
	if err := decoder.Decode(&tree); err != nil {
		return Null(), fmt.Errorf("record: parse value: %w", err)
	}
	return FromAny(tree), nil
}

// Accessors

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Items returns the elements of a list value, nil otherwise.
func (v Value) Items() []Value { return v.items }

// Field returns a member of an object value.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Null(), false
	}
	member, ok := v.fields[name]
	return member, ok
}

// Scalar returns the text of a text, number or bool value.
func (v Value) Scalar() (string, bool) {
	switch v.kind {
	case KindText, KindNumber, KindBool:
		return v.text, true
	default:
		return "", false
	}
}

// memberPriority is the order in which an object's display member is picked.
var memberPriority = []string{"value", "id", "title", "name"}

// Unwrap reduces wrappers to the scalar they carry: a list yields its first
// element, an object its value/id/title/name member (in that order).
func (v Value) Unwrap() Value {
	switch v.kind {
	case KindList:
		if len(v.items) == 0 {
			return Null()
		}
		return v.items[0].Unwrap()
	case KindObject:
		for _, name := range memberPriority {
			if member, ok := v.fields[name]; ok && !member.IsNull() {
				return member.Unwrap()
			}
		}
		return Null()
	default:
		return v
	}
}

// String returns the unwrapped scalar text, trimmed. Absent values yield "".
func (v Value) String() string {
	text, _ := v.Unwrap().Scalar()
	return strings.TrimSpace(text)
}

// Filled reports whether the value carries something: a non-blank string,
// any number or bool, or a non-empty list or object.
func (v Value) Filled() bool {
	switch v.kind {
	case KindText:
		return strings.TrimSpace(v.text) != ""
	case KindNumber, KindBool:
		return true
	case KindList:
		return len(v.items) > 0
	case KindObject:
		return len(v.fields) > 0
	default:
		return false
	}
}

// MarshalJSON renders the value back to JSON; object keys are sorted.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindNumber, KindBool:
		return []byte(v.text), nil
	case KindList:
		if len(v.items) == 0 {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	case KindObject:
		keys := make([]string, 0, len(v.fields))
		for key := range v.fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			name, _ := json.Marshal(key)
			member, err := v.fields[key].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(name)
			buf.WriteByte(':')
			buf.Write(member)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return []byte("null"), nil
	}
}

package protocol

import (
	"github.com/tidwall/gjson"
)

// reader pulls typed fields out of a gjson object and remembers the first
// failure. Once a failure is recorded every accessor keeps returning zero
// values, so decoders can read all fields and check err once at the end.
type reader struct {
	err error
}

func (r *reader) fail(field, want string) {
	if r.err == nil {
		r.err = &FieldError{Field: field, Want: want}
	}
}

func (r *reader) str(obj gjson.Result, key string) string {
	v := obj.Get(key)
	if v.Type != gjson.String {
		r.fail(key, "string")
		return ""
	}
	return v.Str
}

func (r *reader) optStr(obj gjson.Result, key string) string {
	v := obj.Get(key)
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	}
	r.fail(key, "string")
	return ""
}

func (r *reader) int(obj gjson.Result, key string) int {
	v := obj.Get(key)
	if v.Type != gjson.Number {
		r.fail(key, "number")
		return 0
	}
	return int(v.Int())
}

func (r *reader) optInt(obj gjson.Result, key string) *int {
	v := obj.Get(key)
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.Number:
		n := int(v.Int())
		return &n
	}
	r.fail(key, "number")
	return nil
}

func (r *reader) bool(obj gjson.Result, key string) bool {
	v := obj.Get(key)
	if v.Type != gjson.True && v.Type != gjson.False {
		r.fail(key, "boolean")
		return false
	}
	return v.Bool()
}

func (r *reader) optBool(obj gjson.Result, key string) *bool {
	v := obj.Get(key)
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.True, gjson.False:
		b := v.Bool()
		return &b
	}
	r.fail(key, "boolean")
	return nil
}

// flag reads an optional boolean where absence means false.
func (r *reader) flag(obj gjson.Result, key string) bool {
	if b := r.optBool(obj, key); b != nil {
		return *b
	}
	return false
}

func (r *reader) object(obj gjson.Result, key string) gjson.Result {
	v := obj.Get(key)
	if !v.IsObject() {
		r.fail(key, "object")
		return gjson.Result{}
	}
	return v
}

func (r *reader) optObject(obj gjson.Result, key string) (gjson.Result, bool) {
	v := obj.Get(key)
	if v.Type == gjson.Null {
		return gjson.Result{}, false
	}
	if !v.IsObject() {
		r.fail(key, "object")
		return gjson.Result{}, false
	}
	return v, true
}

func (r *reader) array(obj gjson.Result, key string) []gjson.Result {
	v := obj.Get(key)
	if !v.IsArray() {
		r.fail(key, "array")
		return nil
	}
	return v.Array()
}

func (r *reader) optArray(obj gjson.Result, key string) []gjson.Result {
	v := obj.Get(key)
	if v.Type == gjson.Null {
		return nil
	}
	if !v.IsArray() {
		r.fail(key, "array")
		return nil
	}
	return v.Array()
}

func (r *reader) strings(obj gjson.Result, key string) []string {
	return r.stringList(key, r.array(obj, key))
}

func (r *reader) optStrings(obj gjson.Result, key string) []string {
	return r.stringList(key, r.optArray(obj, key))
}

func (r *reader) stringList(key string, items []gjson.Result) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.String {
			r.fail(key, "array of strings")
			return nil
		}
		out = append(out, item.Str)
	}
	return out
}

func (r *reader) ints(obj gjson.Result, key string) []int {
	return r.intList(key, r.array(obj, key))
}

func (r *reader) optInts(obj gjson.Result, key string) []int {
	return r.intList(key, r.optArray(obj, key))
}

func (r *reader) intList(key string, items []gjson.Result) []int {
	if items == nil {
		return nil
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.Number {
			r.fail(key, "array of numbers")
			return nil
		}
		out = append(out, int(item.Int()))
	}
	return out
}

// list decodes every element of items with fn. It stops at the first failure.
func list[T any](r *reader, items []gjson.Result, fn func(*reader, gjson.Result) T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		v := fn(r, item)
		if r.err != nil {
			return nil
		}
		out = append(out, v)
	}
	return out
}

// decodeWith runs fn against v and returns its value together with the first
// recorded failure.
func decodeWith[T any](v gjson.Result, fn func(*reader, gjson.Result) T) (T, error) {
	r := &reader{}
	out := fn(r, v)
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return out, nil
}

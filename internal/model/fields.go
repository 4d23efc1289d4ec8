package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var errNotObject = errors.New("expected a JSON object")

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

// fields is a JSON object split into its members. Readers never fail on a
// member of the wrong type; they fall back to a zero value instead.
type fields map[string]json.RawMessage

func objectFields(b []byte) (fields, error) {
	var f fields
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", errNotObject, err)
	}
	if f == nil {
		return nil, errNotObject
	}
	return f, nil
}

// str returns a string member, or "" when it is missing or not a string.
func (f fields) str(key string) string {
	var s string
	if json.Unmarshal(f[key], &s) != nil {
		return ""
	}
	return s
}

// text is str that also accepts numbers and booleans, rendered as written.
func (f fields) text(key string) string {
	raw := f[key]
	if len(raw) == 0 {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if dec.Decode(&v) != nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func (f fields) boolean(key string, def bool) bool {
	var b *bool
	if json.Unmarshal(f[key], &b) != nil || b == nil {
		return def
	}
	return *b
}

func (f fields) millis(key string, def int64) int64 {
	var n *float64
	if json.Unmarshal(f[key], &n) != nil || n == nil {
		return def
	}
	return int64(*n)
}

// list splits an array member. Missing and null members are empty.
func (f fields) list(key string) ([]json.RawMessage, error) {
	raw := f[key]
	if len(raw) == 0 {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return items, nil
}

// origin remembers the JSON a value was decoded from. Encoding through it
// writes back members the model does not know, and members it had to
// coerce, exactly as they came in unless the value changed them.
type origin struct {
	raw     json.RawMessage
	decoded json.RawMessage
}

func newOrigin(raw []byte, plain any) *origin {
	decoded, err := json.Marshal(plain)
	if err != nil {
		return nil
	}
	return &origin{raw: append(json.RawMessage(nil), raw...), decoded: decoded}
}

func (o *origin) encode(plain any) ([]byte, error) {
	cur, err := json.Marshal(plain)
	if err != nil || o == nil {
		return cur, err
	}
	if bytes.Equal(cur, o.decoded) {
		return o.raw, nil
	}

	orig, err := objectFields(o.raw)
	if err != nil {
		return cur, nil
	}
	var was, now fields
	if err := json.Unmarshal(o.decoded, &was); err != nil {
		return cur, nil
	}
	if err := json.Unmarshal(cur, &now); err != nil {
		return nil, err
	}

	out := make(fields, len(orig)+len(now))
	for k, v := range orig {
		out[k] = v
	}
	for k := range was {
		if _, ok := now[k]; !ok {
			delete(out, k)
		}
	}
	for k, v := range now {
		if _, had := orig[k]; had && bytes.Equal(v, was[k]) {
			continue
		}
		out[k] = v
	}
	return json.Marshal(out)
}

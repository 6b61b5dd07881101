package model

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Param is a form parameter. A Param with Children is an array value whose
// children are addressed with bracket notation: key[childKey].
type Param struct {
	Key      string
	Value    string
	Children Params
}

// Params is an ordered parameter list.
type Params []Param

// KeyValue is one flattened parameter.
type KeyValue struct {
	Key   string
	Value string
}

// Scalar builds a single-valued parameter.
func Scalar(key, value string) Param {
	return Param{Key: key, Value: value}
}

// List builds an array parameter from values, indexed from zero.
func List(key string, values ...string) Param {
	children := make(Params, 0, len(values))
	for i, v := range values {
		children = append(children, Scalar(strconv.Itoa(i), v))
	}
	return Param{Key: key, Children: children}
}

// Group builds an array parameter from nested parameters.
func Group(key string, children ...Param) Param {
	if children == nil {
		children = Params{}
	}
	return Param{Key: key, Children: children}
}

// IsArray reports whether p holds nested values.
func (p Param) IsArray() bool {
	return p.Children != nil
}

// Get returns the top-level parameter named key.
func (ps Params) Get(key string) (Param, bool) {
	for _, p := range ps {
		if p.Key == key {
			return p, true
		}
	}
	return Param{}, false
}

// Flatten expands nested parameters into bracket-notation pairs, keeping
// field order.
func (ps Params) Flatten() []KeyValue {
	var out []KeyValue
	for _, p := range ps {
		out = flattenParam(out, p.Key, p)
	}
	return out
}

func flattenParam(out []KeyValue, name string, p Param) []KeyValue {
	if !p.IsArray() {
		return append(out, KeyValue{Key: name, Value: p.Value})
	}
	for _, c := range p.Children {
		out = flattenParam(out, fmt.Sprintf("%s[%s]", name, c.Key), c)
	}
	return out
}

// Encode renders the parameters as an application/x-www-form-urlencoded
// string in field order.
func (ps Params) Encode() string {
	var b strings.Builder
	for i, kv := range ps.Flatten() {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

// ParamsFromValues converts url.Values, sorted by key.
func ParamsFromValues(v url.Values) Params {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(Params, 0, len(keys))
	for _, k := range keys {
		vals := v[k]
		if len(vals) == 1 {
			out = append(out, Scalar(k, vals[0]))
			continue
		}
		out = append(out, List(k, vals...))
	}
	return out
}

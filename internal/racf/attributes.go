package racf

import (
	"sort"
	"strings"
)

// Value is a parsed attribute value: either a single string or an ordered list.
type Value struct {
	scalar string
	list   []string
	isList bool
}

// ScalarValue returns a single-valued attribute.
func ScalarValue(s string) Value {
	return Value{scalar: s}
}

// ListValue returns a multi-valued attribute. The slice is copied.
func ListValue(items []string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{list: cp, isList: true}
}

// IsList reports whether the value is multi-valued.
func (v Value) IsList() bool {
	return v.isList
}

// String returns the scalar, or the list joined with single spaces.
func (v Value) String() string {
	if v.isList {
		return strings.Join(v.list, " ")
	}
	return v.scalar
}

// List returns the items of a list value, or a one-element list for a
// non-empty scalar.
func (v Value) List() []string {
	if v.isList {
		cp := make([]string, len(v.list))
		copy(cp, v.list)
		return cp
	}
	if v.scalar == "" {
		return nil
	}
	return []string{v.scalar}
}

// Equal compares two values including their kind.
func (v Value) Equal(o Value) bool {
	if v.isList != o.isList {
		return false
	}
	if !v.isList {
		return v.scalar == o.scalar
	}
	if len(v.list) != len(o.list) {
		return false
	}
	for i := range v.list {
		if v.list[i] != o.list[i] {
			return false
		}
	}
	return true
}

// Attributes is a case-insensitive mapping from attribute name to value.
// Names keep the spelling of their first Set.
type Attributes struct {
	values map[string]Value
	names  map[string]string
}

// NewAttributes returns an empty attribute set.
func NewAttributes() *Attributes {
	return &Attributes{
		values: make(map[string]Value),
		names:  make(map[string]string),
	}
}

func attrKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Set stores a value under name, replacing any existing value.
func (a *Attributes) Set(name string, v Value) {
	key := attrKey(name)
	if _, ok := a.names[key]; !ok {
		a.names[key] = strings.TrimSpace(name)
	}
	a.values[key] = v
}

// Get returns the value stored under name.
func (a *Attributes) Get(name string) (Value, bool) {
	if a == nil {
		return Value{}, false
	}
	v, ok := a.values[attrKey(name)]
	return v, ok
}

// GetString returns the string form of name, or "" when absent.
func (a *Attributes) GetString(name string) string {
	v, _ := a.Get(name)
	return v.String()
}

// GetList returns the list form of name, or nil when absent.
func (a *Attributes) GetList(name string) []string {
	v, _ := a.Get(name)
	return v.List()
}

// Has reports whether name is present.
func (a *Attributes) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Delete removes name.
func (a *Attributes) Delete(name string) {
	key := attrKey(name)
	delete(a.values, key)
	delete(a.names, key)
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.values)
}

// Names returns attribute names in sorted order.
func (a *Attributes) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.names))
	for _, n := range a.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Merge copies every attribute of other into a, prefixing names with prefix
// when it is not empty (prefix "TSO" turns "SIZE" into "TSO.SIZE").
func (a *Attributes) Merge(other *Attributes, prefix string) {
	if other == nil {
		return
	}
	for key, v := range other.values {
		name := other.names[key]
		if prefix != "" {
			name = prefix + "." + name
		}
		a.Set(name, v)
	}
}

// ToMap returns a plain map of string or []string values, used for JSON output.
func (a *Attributes) ToMap() map[string]any {
	out := make(map[string]any, a.Len())
	if a == nil {
		return out
	}
	for key, v := range a.values {
		if v.IsList() {
			out[a.names[key]] = v.List()
		} else {
			out[a.names[key]] = v.String()
		}
	}
	return out
}

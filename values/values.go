// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package values implements the ordered numeric-or-string argument
// lists used by every tunable in the system, and the named attribute
// registry that cameras, windows, and textures expose. Setters check
// arity and type only; range validation is up to each attribute.
package values

import (
	"sort"
	"strconv"
)

// Kind enumerates the kinds a [Value] can hold.
type Kind int32

const (
	KindFloat Kind = iota
	KindString
	KindList
)

// Value is one element of an ordered argument list: a float64, a
// string, or a nested list.
type Value struct {
	kind Kind
	f    float64
	s    string
	l    Values
}

// Float returns a float [Value].
func Float(x float64) Value { return Value{kind: KindFloat, f: x} }

// Int returns a float [Value] holding the given integer.
func Int(i int) Value { return Float(float64(i)) }

// Bool returns a float [Value] holding 1 or 0.
func Bool(b bool) Value {
	if b {
		return Float(1)
	}
	return Float(0)
}

// String returns a string [Value].
func String(s string) Value { return Value{kind: KindString, s: s} }

// List returns a nested-list [Value].
func List(vals ...Value) Value { return Value{kind: KindList, l: vals} }

// ListOf returns a nested-list [Value] from an existing list.
func ListOf(vals Values) Value { return Value{kind: KindList, l: vals} }

func (v Value) Kind() Kind { return v.kind }

// Float returns the value as a float64, parsing strings and returning
// 0 for lists.
func (v Value) Float() float64 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindString:
		f, err := strconv.ParseFloat(v.s, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// Int returns the value as a truncated int.
func (v Value) Int() int { return int(v.Float()) }

// Bool reports whether the value is numerically positive.
func (v Value) Bool() bool { return v.Float() > 0 }

// Str returns the value as a string, formatting floats.
func (v Value) Str() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	}
	return ""
}

// List returns the nested list, or nil for scalars.
func (v Value) List() Values { return v.l }

// Values is an ordered argument list.
type Values []Value

// Floats returns a list of float values.
func Floats(xs ...float64) Values {
	vs := make(Values, len(xs))
	for i, x := range xs {
		vs[i] = Float(x)
	}
	return vs
}

// AsFloats returns all elements converted to float64.
func (vs Values) AsFloats() []float64 {
	fs := make([]float64, len(vs))
	for i, v := range vs {
		fs[i] = v.Float()
	}
	return fs
}

// AllFloats reports whether every element is a float.
func (vs Values) AllFloats() bool {
	for _, v := range vs {
		if v.kind != KindFloat {
			return false
		}
	}
	return true
}

// SetFunc applies an ordered argument list, reporting whether the
// arguments were acceptable (arity and type checks only).
type SetFunc func(args Values) bool

// GetFunc returns the current value of an attribute.
type GetFunc func() Values

// Attribute is a named get/set pair. Either function may be nil for
// write-only or read-only attributes.
type Attribute struct {
	Set SetFunc
	Get GetFunc
}

// Registry holds the named attributes of one object.
type Registry struct {
	attrs map[string]Attribute
}

// Add registers an attribute under the given name, replacing any
// existing registration.
func (r *Registry) Add(name string, set SetFunc, get GetFunc) {
	if r.attrs == nil {
		r.attrs = make(map[string]Attribute)
	}
	r.attrs[name] = Attribute{Set: set, Get: get}
}

// Set applies args to the named attribute, returning false for an
// unknown or write-incapable attribute or rejected arguments.
func (r *Registry) Set(name string, args Values) bool {
	a, ok := r.attrs[name]
	if !ok || a.Set == nil {
		return false
	}
	return a.Set(args)
}

// Get returns the current value of the named attribute.
func (r *Registry) Get(name string) (Values, bool) {
	a, ok := r.attrs[name]
	if !ok || a.Get == nil {
		return nil, false
	}
	return a.Get(), true
}

// Has reports whether the named attribute exists.
func (r *Registry) Has(name string) bool {
	_, ok := r.attrs[name]
	return ok
}

// Names returns the sorted attribute names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.attrs))
	for n := range r.attrs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

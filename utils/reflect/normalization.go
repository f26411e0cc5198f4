/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package reflect

import (
	"errors"
	"path"
	"reflect"
)

// DefaultMaxUnwrap bounds how many container layers Normalize peels off.
const DefaultMaxUnwrap = 8

var (
	// ErrReflectNilType is returned when a nil reflect.Type is provided.
	ErrReflectNilType = errors.New("reflect: nil reflect.Type provided")
	// ErrReflectTypeNotNamed indicates that the provided type (after unwrapping containers)
	// does not contain a named type (e.g., anonymous struct, func, interface{}).
	ErrReflectTypeNotNamed = errors.New("reflect: type has no name")
)

// Normalize unwraps containers and returns the nearest named inner type, or
// an error if none is found within DefaultMaxUnwrap layers.
//
// Unwrapping policy:
//   - ptr/slice/array/chan  -> Elem()
//   - map[K]V: if V is named, return V; else if K is named, return K;
//     else continue unwrapping V.
//   - default: if t.Name() != "", return t; otherwise ErrReflectTypeNotNamed.
func Normalize(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, ErrReflectNilType
	}

	for i := 0; t != nil && i < DefaultMaxUnwrap; i++ {
		switch t.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Array, reflect.Chan:
			t = t.Elem()

		case reflect.Map:
			et := t.Elem()
			if et.Name() != "" {
				return et, nil
			}
			kt := t.Key()
			if kt.Name() != "" {
				return kt, nil
			}
			// Neither side named: keep unwrapping element
			t = et

		default:
			// Named, return; anonymous -> error
			if t.Name() != "" {
				return t, nil
			}
			return nil, ErrReflectTypeNotNamed
		}
	}

	// After reaching max depth, ensure we ended on a named type.
	if t != nil && t.Name() != "" {
		return t, nil
	}
	return nil, ErrReflectTypeNotNamed
}

// TypeName returns a short diagnostic name for t: "pkg.Type" for the nearest
// named type of a user-defined type, the bare name for builtins, and
// t.String() when no named type can be found. A nil type yields "nil".
func TypeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	nt, err := Normalize(t)
	if err != nil {
		return t.String()
	}
	if nt.PkgPath() == "" {
		return nt.Name()
	}
	return path.Base(nt.PkgPath()) + "." + nt.Name()
}

// NameOf is TypeName for a type parameter, e.g. NameOf[[]users.User]()
// returns "users.User".
func NameOf[T any]() string {
	return TypeName(reflect.TypeFor[T]())
}

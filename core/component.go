package core

import (
	"path"
	"reflect"
	"strings"
)

// ComponentNamer lets a type choose the component tag used in its failures.
type ComponentNamer interface {
	ComponentName() string
}

// NormalizeName lower-cases name and turns namespace separators
// ("::", "/", "\") into dots. Leading and trailing separators are dropped.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("::", ".", "/", ".", "\\", ".").Replace(name)
	parts := strings.Split(name, ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return strings.Join(out, ".")
}

// ComponentName derives the component tag for v. Strings are normalized as-is;
// types implementing ComponentNamer with a non-empty name use it; otherwise
// the tag is "<package>.<type>" of the underlying named type.
func ComponentName(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return NormalizeName(x)
	case ComponentNamer:
		if n := x.ComponentName(); n != "" {
			return NormalizeName(n)
		}
	}
	return TypeName(reflect.TypeOf(v))
}

// TypeName returns the normalized tag for a Go type, dereferencing pointers.
func TypeName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	if t.Name() == "" {
		return NormalizeName(t.String())
	}
	pkg := path.Base(t.PkgPath())
	if pkg == "." || pkg == "" {
		return NormalizeName(t.Name())
	}
	return NormalizeName(pkg + "." + t.Name())
}

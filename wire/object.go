// Package wire implements the recursive-descent parser for the self
// describing, S-expression-like grammar: atoms, quoted strings,
// length-prefixed literals, NIL, nested lists, and the SP / CRLF
// delimiters. It is purely data-driven — only the session package
// decides when to call it.
package wire

import "strings"

// Kind tags which variant an Object holds.
type Kind int

const (
	// KindNil is the empty/absent variant. An empty quoted string, an
	// empty list, and a zero-length literal all parse to Nil,
	// indistinguishably.
	KindNil Kind = iota
	// KindStr is the sole representation for atoms, quoted strings, and
	// literals alike; callers distinguish by context, not by how the
	// string arrived.
	KindStr
	// KindList is a heterogeneous, ordered, possibly nested sequence.
	KindList
	// KindSP is a single inter-token space, materialized only when a
	// caller walks the token stream directly (e.g. the dispatcher's
	// response loop).
	KindSP
	// KindCRLF is the line terminator.
	KindCRLF
)

// Object is a tagged variant representing one parsed grammar node.
type Object struct {
	Kind Kind
	Str  string
	List []*Object
}

// Nil returns the Nil object.
func Nil() *Object { return &Object{Kind: KindNil} }

// Str wraps a string as a Str object.
func Str(s string) *Object { return &Object{Kind: KindStr, Str: s} }

// List wraps a slice of objects as a List object. An empty slice is
// normalized to Nil, preserving the invariant that List is never empty.
func List(items []*Object) *Object {
	if len(items) == 0 {
		return Nil()
	}
	return &Object{Kind: KindList, List: items}
}

// SP returns the inter-token space object.
func SP() *Object { return &Object{Kind: KindSP} }

// CRLF returns the line terminator object.
func CRLF() *Object { return &Object{Kind: KindCRLF} }

// IsNil reports whether o is absent.
func (o *Object) IsNil() bool { return o == nil || o.Kind == KindNil }

// AsStr returns the string payload and true if o is a Str.
func (o *Object) AsStr() (string, bool) {
	if o == nil || o.Kind != KindStr {
		return "", false
	}
	return o.Str, true
}

// AsList returns the element slice and true if o is a List. Nil is not a
// List (it returns false): an empty wire list has already been
// normalized away by the parser.
func (o *Object) AsList() ([]*Object, bool) {
	if o == nil || o.Kind != KindList {
		return nil, false
	}
	return o.List, true
}

// String renders the object for debugging/logging, so a list's tag
// structure is legible in test assertions. Re-parsing the rendering of a
// parsed list yields the same tag structure as long as its strings
// contain no forbidden byte; no escaping is done, and SP and CRLF render
// as <SP> and <CRLF>, which are not wire syntax.
func (o *Object) String() string {
	if o == nil {
		return "NIL"
	}
	switch o.Kind {
	case KindNil:
		return "NIL"
	case KindStr:
		return "\"" + o.Str + "\""
	case KindList:
		parts := make([]string, len(o.List))
		for i, e := range o.List {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	case KindSP:
		return "<SP>"
	case KindCRLF:
		return "<CRLF>"
	default:
		return "<?>"
	}
}

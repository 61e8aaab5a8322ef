// Package schema normalizes and validates JSON values produced by the
// extractor before anything is handed to persistence.
package schema

import (
	"github.com/Tanishka82/nexa-app/internal/extract"
)

// Kind is the declared type of a field.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindInteger
	KindBool
	KindEnum
	KindStringList
	KindObject
	KindObjectList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBool:
		return "boolean"
	case KindEnum:
		return "enum"
	case KindStringList:
		return "string list"
	case KindObject:
		return "object"
	case KindObjectList:
		return "object list"
	default:
		return "unknown"
	}
}

// Rule is a cross-field check run on an already normalized object.
type Rule func(obj map[string]any) error

// Field declares one member of an object.
type Field struct {
	Name     string
	Kind     Kind
	Required bool

	// Enum holds the canonical (upper case) members for KindEnum.
	Enum []string

	// Min and Max bound KindNumber and KindInteger values when set.
	Min *float64
	Max *float64

	// Fields describes the members of KindObject and KindObjectList items.
	Fields []Field
	Rule   Rule

	// DegenerateWhenEmpty marks an optional list whose presence with zero
	// items makes the whole payload degenerate. Required lists always do.
	DegenerateWhenEmpty bool
}

func (f Field) isList() bool {
	return f.Kind == KindStringList || f.Kind == KindObjectList
}

func (f Field) flagsEmpty() bool {
	return f.isList() && (f.Required || f.DegenerateWhenEmpty)
}

// Schema describes the expected payload of one generation kind.
type Schema struct {
	Name  string
	Shape extract.Shape

	// Fields and Rule apply when Shape is object.
	Fields []Field
	Rule   Rule

	// Item describes each element when Shape is array: KindString or
	// KindObject. An empty array is degenerate.
	Item *Field
}

// Result is the envelope returned by Normalize.
type Result struct {
	Value            any      `json:"value"`
	Degenerate       bool     `json:"degenerate"`
	DegenerateFields []string `json:"degenerateFields,omitempty"`
}

// Bound is a convenience for building Min/Max.
func Bound(v float64) *float64 {
	return &v
}

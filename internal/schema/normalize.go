package schema

import (
	"fmt"
	"math"
	"slices"
	"strings"

	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/extract"
)

// Normalize checks value against s and returns a canonical copy.
//
// Enum members are upper-cased and checked against the declared set. Numbers
// are bound checked and integers must be whole. Undeclared members are
// dropped. An empty required list is not an error: it sets Degenerate and is
// listed in DegenerateFields. Any other problem is a validation error and no
// partial value is returned.
func Normalize(value any, s Schema) (Result, error) {
	n := &normalizer{schema: s.Name}

	var out any
	var err error
	switch s.Shape {
	case extract.ShapeArray:
		var list Field
		list, err = arrayField(s)
		if err != nil {
			return Result{}, err
		}
		out, err = n.list(value, list, "$")
	default:
		out, err = n.object(value, s.Fields, s.Rule, "$")
	}
	if err != nil {
		return Result{}, err
	}

	return Result{
		Value:            out,
		Degenerate:       len(n.degenerate) > 0,
		DegenerateFields: n.degenerate,
	}, nil
}

// arrayField turns the item definition of an array schema into the
// equivalent required list field.
func arrayField(s Schema) (Field, error) {
	if s.Item == nil {
		return Field{}, apperrors.NewInternalError(apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("schema %s has no item definition", s.Name), nil)
	}
	switch s.Item.Kind {
	case KindString:
		return Field{Kind: KindStringList, Required: true}, nil
	case KindObject:
		return Field{Kind: KindObjectList, Required: true, Fields: s.Item.Fields, Rule: s.Item.Rule}, nil
	default:
		return Field{}, apperrors.NewInternalError(apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("schema %s: array items of kind %s are not supported", s.Name, s.Item.Kind), nil)
	}
}

type normalizer struct {
	schema     string
	degenerate []string
}

func (n *normalizer) fail(code, path, format string, args ...any) error {
	return apperrors.NewValidationError(code, fmt.Sprintf("%s: %s: %s", n.schema, path, fmt.Sprintf(format, args...)), nil).
		WithContext("schema", n.schema).
		WithContext("path", path)
}

func (n *normalizer) object(value any, fields []Field, rule Rule, path string) (map[string]any, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, n.fail(apperrors.ErrCodeSchemaInvalidType, path, "expected object, got %s", describe(value))
	}

	out := make(map[string]any, len(fields))
	for _, f := range fields {
		fieldPath := joinPath(path, f.Name)
		raw, present := obj[f.Name]
		if !present || raw == nil {
			if f.Required {
				return nil, n.fail(apperrors.ErrCodeSchemaMissingField, fieldPath, "required field is missing")
			}
			continue
		}

		v, err := n.field(raw, f, fieldPath)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}

	if rule != nil {
		if err := rule(out); err != nil {
			return nil, n.fail(apperrors.ErrCodeSchemaOutOfBounds, path, "%v", err)
		}
	}
	return out, nil
}

func (n *normalizer) field(raw any, f Field, path string) (any, error) {
	switch f.Kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, n.fail(apperrors.ErrCodeSchemaInvalidType, path, "expected string, got %s", describe(raw))
		}
		return s, nil

	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, n.fail(apperrors.ErrCodeSchemaInvalidType, path, "expected boolean, got %s", describe(raw))
		}
		return b, nil

	case KindNumber, KindInteger:
		return n.number(raw, f, path)

	case KindEnum:
		s, ok := raw.(string)
		if !ok {
			return nil, n.fail(apperrors.ErrCodeSchemaInvalidType, path, "expected string, got %s", describe(raw))
		}
		canonical := strings.ToUpper(strings.TrimSpace(s))
		if !slices.Contains(f.Enum, canonical) {
			return nil, n.fail(apperrors.ErrCodeSchemaInvalidEnum, path, "%q is not one of %v", s, f.Enum)
		}
		return canonical, nil

	case KindObject:
		return n.object(raw, f.Fields, f.Rule, path)

	case KindStringList, KindObjectList:
		return n.list(raw, f, path)
	}

	return nil, n.fail(apperrors.ErrCodeSchemaInvalidType, path, "unsupported kind %s", f.Kind)
}

func (n *normalizer) number(raw any, f Field, path string) (any, error) {
	v, ok := raw.(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, n.fail(apperrors.ErrCodeSchemaInvalidType, path, "expected number, got %s", describe(raw))
	}
	if f.Kind == KindInteger && v != math.Trunc(v) {
		return nil, n.fail(apperrors.ErrCodeSchemaInvalidType, path, "expected integer, got %v", v)
	}
	if f.Min != nil && v < *f.Min {
		return nil, n.fail(apperrors.ErrCodeSchemaOutOfBounds, path, "%v is below minimum %v", v, *f.Min)
	}
	if f.Max != nil && v > *f.Max {
		return nil, n.fail(apperrors.ErrCodeSchemaOutOfBounds, path, "%v is above maximum %v", v, *f.Max)
	}

	if f.Kind == KindInteger {
		return int64(v), nil
	}
	return v, nil
}

func (n *normalizer) list(raw any, f Field, path string) (any, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, n.fail(apperrors.ErrCodeSchemaInvalidType, path, "expected list, got %s", describe(raw))
	}

	if len(items) == 0 && f.flagsEmpty() {
		n.degenerate = append(n.degenerate, path)
	}

	switch f.Kind {
	case KindStringList:
		out := make([]string, 0, len(items))
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, n.fail(apperrors.ErrCodeSchemaInvalidType, indexPath(path, i), "expected string, got %s", describe(item))
			}
			out = append(out, s)
		}
		return out, nil

	case KindObjectList:
		out := make([]any, 0, len(items))
		for i, item := range items {
			obj, err := n.object(item, f.Fields, f.Rule, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, obj)
		}
		return out, nil
	}

	return nil, n.fail(apperrors.ErrCodeSchemaInvalidType, path, "%s is not a list kind", f.Kind)
}

func joinPath(parent, name string) string {
	if parent == "$" {
		return name
	}
	return parent + "." + name
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Package validate is the declarative input pipeline gating all mutations.
//
// A parser is a pure function from an untrusted value to a parsed value or a
// coded error; parsers never touch entities. Field parsers are small
// configuration structs, and Object composes them as an ordered list that
// short-circuits on the first failing field, reporting the field name as the
// error Key.
package validate

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	dErrors "afya/pkg/domain-errors"
	"afya/pkg/platform/sentinel"
)

// Parser validates and coerces a single untrusted value.
// Implementations must be pure: no entity mutation, no retained state.
type Parser interface {
	Parse(ctx context.Context, value any) (any, error)
}

// String validates free-text input.
type String struct {
	Pattern   *regexp.Regexp
	Required  bool
	MinLength int
	MaxLength int
	Strip     bool
}

func (p String) Parse(_ context.Context, value any) (any, error) {
	if value == nil {
		if p.Required {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "value is required")
		}
		return nil, nil
	}
	s, ok := value.(string)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "value must be a string")
	}
	if p.Strip {
		s = strings.TrimSpace(s)
	}
	if p.Required && s == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "value is required")
	}
	if len([]rune(s)) < p.MinLength {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "value is too short")
	}
	if p.MaxLength > 0 && len([]rune(s)) > p.MaxLength {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "value is too long")
	}
	if p.Pattern != nil && !p.Pattern.MatchString(s) {
		return nil, dErrors.New(dErrors.CodeInvalidPattern, "value does not match pattern")
	}
	return s, nil
}

// Reference resolves an identifier against a referenced entity kind.
// Lookup returns the entity or sentinel.ErrNotFound.
type Reference struct {
	Kind     string
	Required bool
	Lookup   func(ctx context.Context, id string) (any, error)
}

func (p Reference) Parse(ctx context.Context, value any) (any, error) {
	if value == nil {
		if p.Required {
			return nil, dErrors.New(dErrors.CodeInvalidInput, p.Kind+" is required")
		}
		return nil, nil
	}
	id, ok := value.(string)
	if !ok || id == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+p.Kind+" reference")
	}
	entity, err := p.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, p.Kind+" not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve "+p.Kind)
	}
	return entity, nil
}

// List applies an element parser to every item of a sequence. An absent or
// empty sequence yields an empty result unless Required.
type List struct {
	Elem     Parser
	Required bool
}

func (p List) Parse(ctx context.Context, value any) (any, error) {
	if value == nil {
		if p.Required {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "list is required")
		}
		return []any{}, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "value must be a list")
	}
	if p.Required && len(items) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "list cannot be empty")
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		parsed, err := p.Elem.Parse(ctx, item)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}

// Date expects a structured {year, month, day} object. Invalid calendar dates
// are swallowed on purpose: the value parses to nil with no error. The data
// arrives from paper forms where impossible dates are common, and rejecting
// the whole submission over one was judged worse than recording no birthdate.
type Date struct {
	Required bool
}

func (p Date) Parse(_ context.Context, value any) (any, error) {
	if value == nil {
		if p.Required {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "date is required")
		}
		return nil, nil
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "date must be an object")
	}
	year, okY := intField(obj, "year")
	month, okM := intField(obj, "month")
	day, okD := intField(obj, "day")
	if !okY || !okM || !okD {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "date must have year, month, and day")
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil, nil
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range days (Feb 30 → Mar 2); treat any
	// normalization as an invalid calendar date.
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return nil, nil
	}
	return &t, nil
}

func intField(obj map[string]any, key string) (int, bool) {
	switch v := obj[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}

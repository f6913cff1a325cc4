package validate

import (
	"context"
	"errors"

	dErrors "afya/pkg/domain-errors"
)

// Field pairs an input key with its parser. Order matters: Object evaluates
// fields in declaration order and stops at the first failure.
type Field struct {
	Name   string
	Parser Parser
}

// Object validates a mapping of field name to value.
type Object []Field

// Parse applies each field parser to its key, short-circuiting on the first
// failure. The returned error carries the failing field name as its Key.
// Input that is not a mapping, or is empty, is InvalidInput with no key.
func (o Object) Parse(ctx context.Context, value any) (map[string]any, error) {
	obj, ok := value.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "input must be a non-empty object")
	}

	out := make(map[string]any, len(o))
	for _, f := range o {
		parsed, err := f.Parser.Parse(ctx, obj[f.Name])
		if err != nil {
			return nil, withKey(err, f.Name)
		}
		out[f.Name] = parsed
	}
	return out, nil
}

// withKey stamps the field name onto a coded error, keeping any key already
// set by a nested object.
func withKey(err error, key string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		if de.Key == "" {
			return dErrors.NewWithKey(de.Code, key, de.Message)
		}
		return err
	}
	return dErrors.NewWithKey(dErrors.CodeInvalidInput, key, err.Error())
}

package validate

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "afya/pkg/domain-errors"
	"afya/pkg/platform/sentinel"
)

func TestStringParser(t *testing.T) {
	ctx := context.Background()

	t.Run("strips before checking", func(t *testing.T) {
		p := String{Required: true, Strip: true}
		got, err := p.Parse(ctx, "  Amani  ")
		require.NoError(t, err)
		assert.Equal(t, "Amani", got)
	})

	t.Run("whitespace only fails required after strip", func(t *testing.T) {
		p := String{Required: true, Strip: true}
		_, err := p.Parse(ctx, "   ")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("nil is allowed when optional", func(t *testing.T) {
		p := String{Strip: true}
		got, err := p.Parse(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("nil fails when required", func(t *testing.T) {
		p := String{Required: true}
		_, err := p.Parse(ctx, nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("non-string is invalid input", func(t *testing.T) {
		p := String{}
		_, err := p.Parse(ctx, 42)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("pattern mismatch is its own failure class", func(t *testing.T) {
		p := String{Pattern: regexp.MustCompile(`^[0-9]+$`)}
		_, err := p.Parse(ctx, "12a4")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidPattern))
		assert.Equal(t, dErrors.StatusInvalidPattern, dErrors.Status(err))
	})

	t.Run("length limits count runes", func(t *testing.T) {
		p := String{MaxLength: 4}
		_, err := p.Parse(ctx, "habari")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		got, err := p.Parse(ctx, "jambo"[:4])
		require.NoError(t, err)
		assert.Equal(t, "jamb", got)
	})
}

func TestReferenceParser(t *testing.T) {
	ctx := context.Background()
	lookup := func(_ context.Context, id string) (any, error) {
		if id == "known" {
			return "entity", nil
		}
		return nil, sentinel.ErrNotFound
	}

	t.Run("resolves to the entity", func(t *testing.T) {
		p := Reference{Kind: "facility", Lookup: lookup}
		got, err := p.Parse(ctx, "known")
		require.NoError(t, err)
		assert.Equal(t, "entity", got)
	})

	t.Run("unknown reference is invalid input, not not-found", func(t *testing.T) {
		p := Reference{Kind: "facility", Lookup: lookup}
		_, err := p.Parse(ctx, "missing")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("absent optional reference parses to nil", func(t *testing.T) {
		p := Reference{Kind: "facility", Lookup: lookup}
		got, err := p.Parse(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestListParser(t *testing.T) {
	ctx := context.Background()
	lookup := func(_ context.Context, id string) (any, error) {
		if id == "bad" {
			return nil, sentinel.ErrNotFound
		}
		return id, nil
	}

	t.Run("applies the element parser to every item", func(t *testing.T) {
		p := List{Elem: Reference{Kind: "specialty", Lookup: lookup}}
		got, err := p.Parse(ctx, []any{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b"}, got)
	})

	t.Run("one bad element fails the list", func(t *testing.T) {
		p := List{Elem: Reference{Kind: "specialty", Lookup: lookup}}
		_, err := p.Parse(ctx, []any{"a", "bad"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("absent list parses to empty", func(t *testing.T) {
		p := List{Elem: String{}}
		got, err := p.Parse(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []any{}, got)
	})
}

func TestDateParser(t *testing.T) {
	ctx := context.Background()

	t.Run("valid calendar date", func(t *testing.T) {
		got, err := Date{}.Parse(ctx, map[string]any{"year": 1988, "month": 2, "day": 29})
		require.NoError(t, err)
		want := time.Date(1988, time.February, 29, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, &want, got)
	})

	t.Run("json numbers decode as float64", func(t *testing.T) {
		got, err := Date{}.Parse(ctx, map[string]any{"year": float64(1990), "month": float64(6), "day": float64(15)})
		require.NoError(t, err)
		require.NotNil(t, got)
	})

	t.Run("impossible date parses to nil without error", func(t *testing.T) {
		got, err := Date{}.Parse(ctx, map[string]any{"year": 1989, "month": 2, "day": 29})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("out of range month parses to nil without error", func(t *testing.T) {
		got, err := Date{}.Parse(ctx, map[string]any{"year": 1989, "month": 13, "day": 1})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("missing components are invalid input", func(t *testing.T) {
		_, err := Date{}.Parse(ctx, map[string]any{"year": 1989})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("non-object is invalid input", func(t *testing.T) {
		_, err := Date{}.Parse(ctx, "1989-02-28")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestObject(t *testing.T) {
	ctx := context.Background()

	pipeline := Object{
		{Name: "name", Parser: String{Required: true, Strip: true}},
		{Name: "phone", Parser: String{Required: true, Pattern: regexp.MustCompile(`^[0-9+]+$`)}},
		{Name: "birthdate", Parser: Date{}},
	}

	t.Run("valid input yields the parsed field set", func(t *testing.T) {
		got, err := pipeline.Parse(ctx, map[string]any{
			"name":  " Amani ",
			"phone": "+255712345678",
		})
		require.NoError(t, err)
		assert.Equal(t, "Amani", got["name"])
		assert.Equal(t, "+255712345678", got["phone"])
		assert.Nil(t, got["birthdate"])
	})

	t.Run("first failing field short-circuits and names the key", func(t *testing.T) {
		_, err := pipeline.Parse(ctx, map[string]any{
			"phone": "not-a-phone",
		})
		// name fails before phone is ever evaluated
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		assert.Equal(t, "name", dErrors.Key(err))
	})

	t.Run("pattern failure carries the field key and pattern status", func(t *testing.T) {
		_, err := pipeline.Parse(ctx, map[string]any{
			"name":  "Amani",
			"phone": "not-a-phone",
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidPattern))
		assert.Equal(t, "phone", dErrors.Key(err))
		assert.Equal(t, dErrors.StatusInvalidPattern, dErrors.Status(err))
	})

	t.Run("non-object input is invalid with no key", func(t *testing.T) {
		_, err := pipeline.Parse(ctx, "nope")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		assert.Empty(t, dErrors.Key(err))
	})

	t.Run("empty object is invalid", func(t *testing.T) {
		_, err := pipeline.Parse(ctx, map[string]any{})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

package entity

import (
	"errors"
	"strings"
	"testing"

	postentity "github.com/vadim/artflow/internal/domain/post/entity"
)

func TestTemplateValidate(t *testing.T) {
	valid := Template{
		UserID:  "u1",
		Name:    "Print announcement",
		Content: "New print: {title}. Link in bio.",
	}

	t.Run("valid", func(t *testing.T) {
		tmpl := valid
		if err := tmpl.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		tmpl := valid
		tmpl.Name = ""
		if err := tmpl.Validate(); !errors.Is(err, ErrEmptyName) {
			t.Fatalf("got %v, want ErrEmptyName", err)
		}
	})

	t.Run("name too long", func(t *testing.T) {
		tmpl := valid
		tmpl.Name = strings.Repeat("x", MaxNameLength+1)
		if err := tmpl.Validate(); !errors.Is(err, ErrNameTooLong) {
			t.Fatalf("got %v, want ErrNameTooLong", err)
		}
	})

	t.Run("empty content", func(t *testing.T) {
		tmpl := valid
		tmpl.Content = ""
		if err := tmpl.Validate(); !errors.Is(err, ErrEmptyContent) {
			t.Fatalf("got %v, want ErrEmptyContent", err)
		}
	})

	t.Run("content too long", func(t *testing.T) {
		tmpl := valid
		tmpl.Content = strings.Repeat("x", MaxContentLength+1)
		if err := tmpl.Validate(); !errors.Is(err, ErrContentTooLong) {
			t.Fatalf("got %v, want ErrContentTooLong", err)
		}
	})

	t.Run("unknown platform", func(t *testing.T) {
		tmpl := valid
		tmpl.Platforms = []postentity.Platform{"vine"}
		if err := tmpl.Validate(); !errors.Is(err, postentity.ErrInvalidPlatform) {
			t.Fatalf("got %v, want ErrInvalidPlatform", err)
		}
	})
}

func TestHashtagGroupValidate(t *testing.T) {
	valid := HashtagGroup{
		UserID:   "u1",
		Name:     "watercolor",
		Hashtags: []string{"#watercolor", "#art"},
	}

	t.Run("valid", func(t *testing.T) {
		g := valid
		if err := g.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("no hashtags", func(t *testing.T) {
		g := valid
		g.Hashtags = nil
		if err := g.Validate(); !errors.Is(err, ErrNoHashtags) {
			t.Fatalf("got %v, want ErrNoHashtags", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		g := valid
		g.Name = ""
		if err := g.Validate(); !errors.Is(err, ErrEmptyName) {
			t.Fatalf("got %v, want ErrEmptyName", err)
		}
	})
}

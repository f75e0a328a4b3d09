package include

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []Path
		wantErr  bool
	}{
		{
			name:     "empty input yields no paths",
			raw:      "",
			expected: []Path{},
		},
		{
			name:     "single relationship",
			raw:      "author",
			expected: []Path{{"author"}},
		},
		{
			name:     "multiple relationships",
			raw:      "author,comments",
			expected: []Path{{"author"}, {"comments"}},
		},
		{
			name:     "nested path",
			raw:      "author.publisher",
			expected: []Path{{"author", "publisher"}},
		},
		{
			name:     "mixed nested and flat",
			raw:      "author.publisher,comments",
			expected: []Path{{"author", "publisher"}, {"comments"}},
		},
		{
			name:     "underscores and digits",
			raw:      "author_v2.home_address",
			expected: []Path{{"author_v2", "home_address"}},
		},
		{
			name:    "disallowed characters",
			raw:     "author;drop",
			wantErr: true,
		},
		{
			name:    "whitespace rejected",
			raw:     "author, comments",
			wantErr: true,
		},
		{
			name:    "empty segment rejected",
			raw:     "author..publisher",
			wantErr: true,
		},
		{
			name:    "trailing dot rejected",
			raw:     "author.",
			wantErr: true,
		},
		{
			name:    "trailing comma rejected",
			raw:     "author,",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths, err := Parse(tt.raw)

			if tt.wantErr {
				if !errors.Is(err, ErrMalformedInclude) {
					t.Errorf("Parse(%q) error = %v, want ErrMalformedInclude", tt.raw, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.raw, err)
			}
			if !reflect.DeepEqual(paths, tt.expected) {
				t.Errorf("Parse(%q) = %v, want %v", tt.raw, paths, tt.expected)
			}
		})
	}
}

func TestFromRequest(t *testing.T) {
	t.Run("absent parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		paths, err := FromRequest(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(paths) != 0 {
			t.Errorf("expected no paths, got %v", paths)
		}
	})

	t.Run("present parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/posts?include=author.publisher,comments", nil)
		paths, err := FromRequest(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []Path{{"author", "publisher"}, {"comments"}}
		if !reflect.DeepEqual(paths, want) {
			t.Errorf("FromRequest() = %v, want %v", paths, want)
		}
	})
}

func TestPathString(t *testing.T) {
	if got := (Path{"author", "publisher"}).String(); got != "author.publisher" {
		t.Errorf("String() = %q, want %q", got, "author.publisher")
	}
}

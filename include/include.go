// Package include parses the JSON:API include query parameter into
// relationship traversal paths.
package include

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
)

// ErrMalformedInclude is returned when the raw parameter fails boundary
// validation. Segment names are only syntax-checked here; whether a segment
// names a real relationship is decided later, during resolution.
var ErrMalformedInclude = errors.New("malformed include parameter")

// includePattern is the boundary validation for the raw include parameter:
// comma-separated dot-paths of word characters.
var includePattern = regexp.MustCompile(`^([\w.]+)(,[\w.]+)*$`)

// Path is an ordered sequence of relationship names describing a traversal
// from the primary resource, e.g. ["author", "publisher"] for
// "author.publisher". Parsed fresh per request.
type Path []string

// String returns the dotted form of the path
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Parse parses a raw include parameter into traversal paths.
// Example: "author.publisher,comments" returns
// [["author","publisher"], ["comments"]].
// An empty string yields no paths and no error: no inclusions requested.
func Parse(raw string) ([]Path, error) {
	if raw == "" {
		return []Path{}, nil
	}

	if !includePattern.MatchString(raw) {
		return nil, ErrMalformedInclude
	}

	parts := strings.Split(raw, ",")
	paths := make([]Path, 0, len(parts))
	for _, part := range parts {
		segments := strings.Split(part, ".")
		for _, segment := range segments {
			if segment == "" {
				// "a..b" and friends pass the character class but are not
				// valid dot-paths
				return nil, ErrMalformedInclude
			}
		}
		paths = append(paths, Path(segments))
	}

	return paths, nil
}

// FromRequest parses the include parameter of an HTTP request.
// A request without an include parameter yields no paths.
func FromRequest(r *http.Request) ([]Path, error) {
	return Parse(r.URL.Query().Get("include"))
}

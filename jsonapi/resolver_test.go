package jsonapi

import (
	"context"
	"errors"
	"testing"

	"github.com/compoundapi/compound/include"
	"github.com/compoundapi/compound/resource"
)

// fakeSource maps row -> relationship name -> related rows
type fakeSource struct {
	related map[resource.Row]map[string][]resource.Row
	err     error
	calls   int
}

func (s *fakeSource) Related(_ context.Context, row resource.Row, rel *resource.Relationship) ([]resource.Row, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.related[row][rel.Name], nil
}

func mustPaths(t *testing.T, raw string) []include.Path {
	t.Helper()
	paths, err := include.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return paths
}

// blogGraph builds the post -> author -> publisher example with a comments
// branch, plus a back-edge author -> posts to make the schema cyclic.
func blogGraph() (post, author, publisher, comment *resource.Type) {
	post = resource.NewType("post", testAttributes)
	author = resource.NewType("author", testAttributes)
	publisher = resource.NewType("publisher", testAttributes)
	comment = resource.NewType("comment", testAttributes)

	post.Relate("author", author, resource.ToOne)
	post.Relate("comments", comment, resource.ToMany)
	author.Relate("publisher", publisher, resource.ToOne)
	author.Relate("posts", post, resource.ToMany)
	return
}

func TestResolveEndToEnd(t *testing.T) {
	post, _, _, _ := blogGraph()

	post1 := &testRow{id: "1", attrs: map[string]any{"title": "compound documents"}}
	author7 := &testRow{id: "7", attrs: map[string]any{"name": "ann"}}
	pub3 := &testRow{id: "3", attrs: map[string]any{"name": "acme press"}}

	source := &fakeSource{related: map[resource.Row]map[string][]resource.Row{
		post1:   {"author": {author7}},
		author7: {"publisher": {pub3}},
	}}

	resolver := NewResolver(source)
	included, err := resolver.Resolve(context.Background(), One(post1), post, mustPaths(t, "author.publisher"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(included) != 2 {
		t.Fatalf("expected author and publisher, got %v", included)
	}
	if included[0].Type != "author" || included[0].ID != "7" {
		t.Errorf("included[0] = %s/%s, want author/7", included[0].Type, included[0].ID)
	}
	if included[1].Type != "publisher" || included[1].ID != "3" {
		t.Errorf("included[1] = %s/%s, want publisher/3", included[1].Type, included[1].ID)
	}

	doc := Assemble(One(post1), post, included)
	if doc.Data[0].ID != "1" || doc.Data[0].Type != "post" {
		t.Errorf("primary data = %+v", doc.Data[0])
	}
}

func TestResolveDeduplicates(t *testing.T) {
	post, _, _, _ := blogGraph()

	// Two posts by the same author: author7 is discovered twice
	post1 := &testRow{id: "1", attrs: map[string]any{}}
	post2 := &testRow{id: "2", attrs: map[string]any{}}
	author7 := &testRow{id: "7", attrs: map[string]any{"name": "ann"}}

	source := &fakeSource{related: map[resource.Row]map[string][]resource.Row{
		post1: {"author": {author7}},
		post2: {"author": {author7}},
	}}

	included, err := NewResolver(source).Resolve(
		context.Background(), Many([]resource.Row{post1, post2}), post, mustPaths(t, "author"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(included) != 1 {
		t.Fatalf("expected a single deduplicated entry, got %v", included)
	}
	if included[0].ID != "7" || included[0].Type != "author" {
		t.Errorf("included[0] = %s/%s", included[0].Type, included[0].ID)
	}
}

func TestResolveFirstWriteWins(t *testing.T) {
	post, _, _, _ := blogGraph()

	post1 := &testRow{id: "1"}
	// Same identity discovered via two paths; the first discovery's
	// attributes are the ones kept.
	authorA := &testRow{id: "7", attrs: map[string]any{"name": "first"}}
	authorB := &testRow{id: "7", attrs: map[string]any{"name": "second"}}
	comment1 := &testRow{id: "c1", attrs: map[string]any{}}

	source := &fakeSource{related: map[resource.Row]map[string][]resource.Row{
		post1: {"author": {authorA, authorB}, "comments": {comment1}},
	}}

	included, err := NewResolver(source).Resolve(
		context.Background(), One(post1), post, mustPaths(t, "author,comments"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(included) != 2 {
		t.Fatalf("expected author + comment, got %v", included)
	}
	attrs := included[0].Attributes.(map[string]any)
	if attrs["name"] != "first" {
		t.Errorf("expected first discovery to win, got %v", attrs)
	}
}

func TestResolvePathDepthFidelity(t *testing.T) {
	post, _, _, _ := blogGraph()

	post1 := &testRow{id: "1"}
	author7 := &testRow{id: "7", attrs: map[string]any{}}
	pub3 := &testRow{id: "3", attrs: map[string]any{}}

	source := &fakeSource{related: map[resource.Row]map[string][]resource.Row{
		post1:   {"author": {author7}},
		author7: {"publisher": {pub3}},
	}}

	// Path of length 1: the publisher at hop 2 must not be included
	included, err := NewResolver(source).Resolve(
		context.Background(), One(post1), post, mustPaths(t, "author"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(included) != 1 || included[0].Type != "author" {
		t.Errorf("expected only the author at hop 1, got %v", included)
	}
}

func TestResolveCyclicPath(t *testing.T) {
	post, _, _, _ := blogGraph()

	// author -> posts -> author loops back to the same rows; the explicit
	// path bounds the traversal and dedup collapses the repeats.
	post1 := &testRow{id: "1", attrs: map[string]any{}}
	author7 := &testRow{id: "7", attrs: map[string]any{}}

	source := &fakeSource{related: map[resource.Row]map[string][]resource.Row{
		post1:   {"author": {author7}},
		author7: {"posts": {post1}},
	}}

	included, err := NewResolver(source).Resolve(
		context.Background(), One(post1), post, mustPaths(t, "author.posts.author"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(included) != 2 {
		t.Fatalf("expected author/7 and post/1 exactly once each, got %v", included)
	}
	if included[0].Type != "author" || included[1].Type != "post" {
		t.Errorf("unexpected order: %v", included)
	}
}

func TestResolveUnknownRelationship(t *testing.T) {
	post, _, _, _ := blogGraph()
	post1 := &testRow{id: "1"}

	source := &fakeSource{related: map[resource.Row]map[string][]resource.Row{}}

	included, err := NewResolver(source).Resolve(
		context.Background(), One(post1), post, mustPaths(t, "nonexistent"))
	if err != nil {
		t.Fatalf("unknown relationships must not error, got %v", err)
	}
	if len(included) != 0 {
		t.Errorf("expected empty included, got %v", included)
	}
	if source.calls != 0 {
		t.Errorf("source must not be consulted for undeclared relationships, got %d calls", source.calls)
	}
}

func TestResolveUnknownNestedSegment(t *testing.T) {
	post, _, _, _ := blogGraph()

	post1 := &testRow{id: "1"}
	author7 := &testRow{id: "7", attrs: map[string]any{}}

	source := &fakeSource{related: map[resource.Row]map[string][]resource.Row{
		post1: {"author": {author7}},
	}}

	// First hop resolves, second segment is undeclared on author
	included, err := NewResolver(source).Resolve(
		context.Background(), One(post1), post, mustPaths(t, "author.nonexistent"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(included) != 1 || included[0].Type != "author" {
		t.Errorf("expected the author from the valid prefix, got %v", included)
	}
}

func TestResolveNoInclusions(t *testing.T) {
	post, _, _, _ := blogGraph()
	post1 := &testRow{id: "1"}

	source := &fakeSource{}
	included, err := NewResolver(source).Resolve(context.Background(), One(post1), post, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(included) != 0 {
		t.Errorf("expected empty included, got %v", included)
	}
	if source.calls != 0 {
		t.Errorf("no inclusions must mean no source calls, got %d", source.calls)
	}
}

func TestResolveEmptyRelationship(t *testing.T) {
	post, _, _, _ := blogGraph()
	post1 := &testRow{id: "1"}

	// Declared relationship, no related rows: contributes nothing
	source := &fakeSource{related: map[resource.Row]map[string][]resource.Row{
		post1: {"author": nil},
	}}

	included, err := NewResolver(source).Resolve(
		context.Background(), One(post1), post, mustPaths(t, "author.publisher"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(included) != 0 {
		t.Errorf("expected empty included, got %v", included)
	}
}

func TestResolveSourceError(t *testing.T) {
	post, _, _, _ := blogGraph()
	post1 := &testRow{id: "1"}

	wantErr := errors.New("connection reset")
	source := &fakeSource{err: wantErr}

	_, err := NewResolver(source).Resolve(
		context.Background(), One(post1), post, mustPaths(t, "author"))
	if !errors.Is(err, wantErr) {
		t.Errorf("expected the source error to propagate, got %v", err)
	}
}

func TestResolveToManyBranches(t *testing.T) {
	post, _, _, _ := blogGraph()

	post1 := &testRow{id: "1"}
	c1 := &testRow{id: "c1", attrs: map[string]any{}}
	c2 := &testRow{id: "c2", attrs: map[string]any{}}

	source := &fakeSource{related: map[resource.Row]map[string][]resource.Row{
		post1: {"comments": {c1, c2}},
	}}

	included, err := NewResolver(source).Resolve(
		context.Background(), One(post1), post, mustPaths(t, "comments"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(included) != 2 {
		t.Fatalf("expected both comments, got %v", included)
	}
	if included[0].ID != "c1" || included[1].ID != "c2" {
		t.Errorf("discovery order not preserved: %v", included)
	}
}

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compoundapi/compound/resource"
	"github.com/compoundapi/compound/store"
)

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	post := resource.NewType("post", Attributes)
	db := NewDB()
	posts := db.Store(post)

	t.Run("create assigns an id", func(t *testing.T) {
		row, err := posts.Create(ctx, map[string]any{"title": "hello"})
		require.NoError(t, err)
		assert.NotEmpty(t, row.ResourceID())

		got, err := posts.Retrieve(ctx, row.ResourceID())
		require.NoError(t, err)
		assert.Equal(t, "hello", got.(*Row).Attrs()["title"])
	})

	t.Run("retrieve missing", func(t *testing.T) {
		_, err := posts.Retrieve(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list preserves insertion order", func(t *testing.T) {
		db := NewDB()
		posts := db.Store(post)
		db.Put(post, "1", map[string]any{"title": "a"})
		db.Put(post, "2", map[string]any{"title": "b"})

		rows, err := posts.List(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "1", rows[0].ResourceID())
		assert.Equal(t, "2", rows[1].ResourceID())
	})

	t.Run("update merges attributes", func(t *testing.T) {
		db := NewDB()
		posts := db.Store(post)
		db.Put(post, "1", map[string]any{"title": "a", "draft": true})

		row, err := posts.Update(ctx, "1", map[string]any{"draft": false})
		require.NoError(t, err)
		attrs := row.(*Row).Attrs()
		assert.Equal(t, "a", attrs["title"])
		assert.Equal(t, false, attrs["draft"])
	})

	t.Run("update missing", func(t *testing.T) {
		_, err := posts.Update(ctx, "nope", map[string]any{})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete removes row and links", func(t *testing.T) {
		db := NewDB()
		author := resource.NewType("author", Attributes)
		post.Relate("author", author, resource.ToOne)

		posts := db.Store(post)
		db.Put(post, "1", map[string]any{})
		db.Put(author, "7", map[string]any{})
		db.Link(post, "1", "author", "7")

		require.NoError(t, posts.Delete(ctx, "1"))

		_, err := posts.Retrieve(ctx, "1")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, posts.Delete(ctx, "1"), store.ErrNotFound)
	})
}

func TestDBRelated(t *testing.T) {
	ctx := context.Background()

	post := resource.NewType("post", Attributes)
	author := resource.NewType("author", Attributes)
	comment := resource.NewType("comment", Attributes)
	post.Relate("author", author, resource.ToOne)
	post.Relate("comments", comment, resource.ToMany)

	db := NewDB()
	p1 := db.Put(post, "1", map[string]any{})
	db.Put(author, "7", map[string]any{"name": "ann"})
	db.Put(comment, "c1", map[string]any{})
	db.Put(comment, "c2", map[string]any{})
	db.Link(post, "1", "author", "7")
	db.Link(post, "1", "comments", "c1", "c2")

	authorRel, _ := post.Relationship("author")
	commentsRel, _ := post.Relationship("comments")

	t.Run("to-one yields one row", func(t *testing.T) {
		related, err := db.Related(ctx, p1, authorRel)
		require.NoError(t, err)
		require.Len(t, related, 1)
		assert.Equal(t, "7", related[0].ResourceID())
	})

	t.Run("to-many preserves link order", func(t *testing.T) {
		related, err := db.Related(ctx, p1, commentsRel)
		require.NoError(t, err)
		require.Len(t, related, 2)
		assert.Equal(t, "c1", related[0].ResourceID())
		assert.Equal(t, "c2", related[1].ResourceID())
	})

	t.Run("unlinked row yields nothing", func(t *testing.T) {
		p2 := db.Put(post, "2", map[string]any{})
		related, err := db.Related(ctx, p2, authorRel)
		require.NoError(t, err)
		assert.Empty(t, related)
	})

	t.Run("dangling link is skipped", func(t *testing.T) {
		p3 := db.Put(post, "3", map[string]any{})
		db.Link(post, "3", "author", "gone")

		related, err := db.Related(ctx, p3, authorRel)
		require.NoError(t, err)
		assert.Empty(t, related)
	})

	t.Run("repeated calls have no side effects", func(t *testing.T) {
		first, err := db.Related(ctx, p1, commentsRel)
		require.NoError(t, err)
		second, err := db.Related(ctx, p1, commentsRel)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

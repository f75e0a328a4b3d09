// Package store defines the persistence contract the router depends on.
// Implementations live in subpackages; the framework core never fetches data
// itself, it is handed materialized rows.
package store

import (
	"context"
	"errors"

	"github.com/compoundapi/compound/resource"
)

// ErrNotFound is returned by Retrieve, Update, and Delete when no row exists
// under the given id.
var ErrNotFound = errors.New("row not found")

// Store supplies primary rows for one resource type. Attributes maps are the
// resource's declared attribute payload; id assignment on Create is the
// store's concern.
type Store interface {
	Retrieve(ctx context.Context, id string) (resource.Row, error)
	List(ctx context.Context) ([]resource.Row, error)
	Create(ctx context.Context, attrs map[string]any) (resource.Row, error)
	Update(ctx context.Context, id string, attrs map[string]any) (resource.Row, error)
	Delete(ctx context.Context, id string) error
}

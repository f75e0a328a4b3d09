// Package jsonapi assembles JSON:API compound documents: primary data plus a
// deduplicated included section resolved from relationship inclusion paths.
package jsonapi

import (
	"encoding/json"

	"github.com/compoundapi/compound/resource"
)

// ResourceObject is the wire shape of a single resource:
// {"id": ..., "type": ..., "attributes": {...}}. The type field is always
// the statically registered resource name.
type ResourceObject struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes any    `json:"attributes"`
}

// Primary is the tagged variant for a request's primary data. The caller
// decides single vs list at the API boundary; the document's wire shape
// follows the tag, not the row count — Many with one row still renders
// "data" as an array.
type Primary struct {
	single bool
	rows   []resource.Row
}

// One wraps a single resolved row. Not-found handling belongs to the caller;
// the assembler only ever receives a materialized row.
func One(row resource.Row) Primary {
	return Primary{single: true, rows: []resource.Row{row}}
}

// Many wraps a collection of rows. An empty (or nil) collection is valid and
// produces a list document with empty data.
func Many(rows []resource.Row) Primary {
	return Primary{single: false, rows: rows}
}

// Single reports whether the primary data is a single resource
func (p Primary) Single() bool {
	return p.single
}

// Rows returns the underlying rows
func (p Primary) Rows() []resource.Row {
	return p.rows
}

// Document is a JSON:API document. Data holds one object for single-resource
// documents and zero or more for list documents; Included is always present
// on the wire, defaulting to an empty array.
type Document struct {
	single   bool
	Data     []ResourceObject
	Included []ResourceObject
}

// IsSingle reports whether the document uses the single-resource shape
func (d *Document) IsSingle() bool {
	return d.single
}

// MarshalJSON renders "data" as an object or an array depending on the
// document shape, and always emits "included".
func (d *Document) MarshalJSON() ([]byte, error) {
	included := d.Included
	if included == nil {
		included = []ResourceObject{}
	}

	if d.single {
		return json.Marshal(struct {
			Data     ResourceObject   `json:"data"`
			Included []ResourceObject `json:"included"`
		}{
			Data:     d.Data[0],
			Included: included,
		})
	}

	data := d.Data
	if data == nil {
		data = []ResourceObject{}
	}
	return json.Marshal(struct {
		Data     []ResourceObject `json:"data"`
		Included []ResourceObject `json:"included"`
	}{
		Data:     data,
		Included: included,
	})
}

// Assemble builds the final document from primary rows and the resolver's
// included objects. It reads rows through the type's projection and never
// mutates them; included order is the resolver's discovery order.
func Assemble(primary Primary, t *resource.Type, included []ResourceObject) *Document {
	data := make([]ResourceObject, 0, len(primary.Rows()))
	for _, row := range primary.Rows() {
		data = append(data, ResourceObject{
			ID:         row.ResourceID(),
			Type:       t.Name(),
			Attributes: t.Attributes(row),
		})
	}

	if included == nil {
		included = []ResourceObject{}
	}

	return &Document{
		single:   primary.Single(),
		Data:     data,
		Included: included,
	}
}

package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/compoundapi/compound/include"
	"github.com/compoundapi/compound/jsonapi"
	"github.com/compoundapi/compound/resource"
	"github.com/compoundapi/compound/store"
)

// maxBodyBytes caps request payload size
const maxBodyBytes = 1 << 20

// handler serves all CRUD operations for one mounted resource
type handler struct {
	typ      *resource.Type
	store    store.Store
	resolver *jsonapi.Resolver
	union    *jsonapi.Union
	logger   *zap.Logger
}

// requestBody is the accepted write payload:
// {"data": {"type": ..., "attributes": {...}}}
type requestBody struct {
	Data struct {
		Type       string         `json:"type"`
		Attributes map[string]any `json:"attributes"`
	} `json:"data"`
}

func (h *handler) show(w http.ResponseWriter, r *http.Request) {
	paths, ok := h.includePaths(w, r)
	if !ok {
		return
	}

	row, err := h.store.Retrieve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, jsonapi.One(row), paths)
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	paths, ok := h.includePaths(w, r)
	if !ok {
		return
	}

	rows, err := h.store.List(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, jsonapi.Many(rows), paths)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	paths, ok := h.includePaths(w, r)
	if !ok {
		return
	}

	attrs, ok := h.readBody(w, r)
	if !ok {
		return
	}

	row, err := h.store.Create(r.Context(), attrs)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusCreated, jsonapi.One(row), paths)
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	paths, ok := h.includePaths(w, r)
	if !ok {
		return
	}

	attrs, ok := h.readBody(w, r)
	if !ok {
		return
	}

	row, err := h.store.Update(r.Context(), chi.URLParam(r, "id"), attrs)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, jsonapi.One(row), paths)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.storeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// includePaths parses and boundary-validates the include parameter. Unknown
// relationship names pass through here untouched; the resolver treats them as
// empty, and the skip is only worth a debug line.
func (h *handler) includePaths(w http.ResponseWriter, r *http.Request) ([]include.Path, bool) {
	paths, err := include.FromRequest(r)
	if err != nil {
		jsonapi.RenderBadRequest(w, fmt.Sprintf("invalid include parameter: %s", r.URL.Query().Get("include")))
		return nil, false
	}

	for _, path := range paths {
		if _, declared := h.typ.Relationship(path[0]); !declared {
			h.logger.Debug("include names undeclared relationship",
				zap.String("path", path.String()))
		}
	}

	return paths, true
}

// readBody decodes a JSON:API write payload and checks its type member
func (h *handler) readBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		jsonapi.RenderBadRequest(w, "unreadable request body")
		return nil, false
	}

	var payload requestBody
	if err := json.Unmarshal(body, &payload); err != nil {
		jsonapi.RenderBadRequest(w, "request body is not a JSON:API document")
		return nil, false
	}
	if payload.Data.Type != "" && payload.Data.Type != h.typ.Name() {
		jsonapi.RenderError(w, http.StatusConflict, "Conflict",
			fmt.Sprintf("document type %q does not match endpoint type %q", payload.Data.Type, h.typ.Name()))
		return nil, false
	}

	if payload.Data.Attributes == nil {
		payload.Data.Attributes = map[string]any{}
	}
	return payload.Data.Attributes, true
}

// respond resolves inclusions, assembles the document, and renders it
func (h *handler) respond(w http.ResponseWriter, r *http.Request, status int, primary jsonapi.Primary, paths []include.Path) {
	included, err := h.resolver.Resolve(r.Context(), primary, h.typ, paths)
	if err != nil {
		h.logger.Error("inclusion resolution failed", zap.Error(err))
		jsonapi.RenderInternalError(w)
		return
	}

	doc := jsonapi.Assemble(primary, h.typ, included)

	if err := h.union.Check(doc); err != nil {
		h.logger.Error("document violates included union", zap.Error(err))
		jsonapi.RenderInternalError(w)
		return
	}

	// Render marshals before writing, so an error here is either a schema bug
	// (unmarshalable attributes) or a dead client; the response may already be
	// partially written, so only log.
	if err := jsonapi.Render(w, status, doc); err != nil {
		h.logger.Error("render failed", zap.Error(err))
	}
}

// storeError maps store failures onto JSON:API error documents
func (h *handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonapi.RenderNotFound(w, fmt.Sprintf("%s %s not found", h.typ.Name(), chi.URLParam(r, "id")))
		return
	}

	h.logger.Error("store operation failed", zap.Error(err))
	jsonapi.RenderInternalError(w)
}

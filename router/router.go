// Package router links JSON:API CRUD routes for registered resources and
// plumbs inclusion requests through the resolver.
package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/compoundapi/compound/jsonapi"
	"github.com/compoundapi/compound/resource"
	"github.com/compoundapi/compound/store"
)

// Resource bundles everything needed to serve one resource type
type Resource struct {
	// Type is the registered resource type served under the mount path
	Type *resource.Type

	// Store supplies primary rows
	Store store.Store

	// Source resolves relationship hops for inclusion requests. When nil and
	// the Store also implements jsonapi.Source, the Store is used.
	Source jsonapi.Source
}

// Router manages HTTP routing for JSON:API resources using chi
type Router struct {
	mux      chi.Router
	registry *resource.Registry
	logger   *zap.Logger
	mounted  []string
}

// Option configures a Router
type Option func(*Router)

// WithLogger sets the structured logger used for request-level diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// New creates a router over a frozen registry
func New(registry *resource.Registry, opts ...Option) *Router {
	r := &Router{
		mux:      chi.NewRouter(),
		registry: registry,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Use appends middleware to the underlying chi router
func (r *Router) Use(middlewares ...func(http.Handler) http.Handler) {
	r.mux.Use(middlewares...)
}

// Mounted returns the mount paths registered so far
func (r *Router) Mounted() []string {
	paths := make([]string, len(r.mounted))
	copy(paths, r.mounted)
	return paths
}

// Mount registers CRUD routes for a resource under basePath:
//
//	GET    basePath        list
//	POST   basePath        create (201)
//	GET    basePath/{id}   show
//	PATCH  basePath/{id}   update
//	DELETE basePath/{id}   delete (204)
//
// The included union for the resource's routes is computed here, once, from
// the schema closure; it is independent of what any request includes.
func (r *Router) Mount(basePath string, res Resource) error {
	if !r.registry.Frozen() {
		return fmt.Errorf("mount %s: registry must be frozen before routing", basePath)
	}
	if res.Type == nil {
		return fmt.Errorf("mount %s: resource type is nil", basePath)
	}
	if registered, ok := r.registry.Get(res.Type.Name()); !ok || registered != res.Type {
		return fmt.Errorf("mount %s: resource %s is not registered", basePath, res.Type.Name())
	}
	if res.Store == nil {
		return fmt.Errorf("mount %s: resource %s has no store", basePath, res.Type.Name())
	}

	source := res.Source
	if source == nil {
		s, ok := res.Store.(jsonapi.Source)
		if !ok {
			return fmt.Errorf("mount %s: resource %s has no relationship source", basePath, res.Type.Name())
		}
		source = s
	}

	h := &handler{
		typ:      res.Type,
		store:    res.Store,
		resolver: jsonapi.NewResolver(source),
		union:    jsonapi.UnionFor(res.Type),
		logger:   r.logger.With(zap.String("resource", res.Type.Name())),
	}

	idPattern := basePath + "/{id}"
	r.mux.Get(basePath, h.list)
	r.mux.Post(basePath, h.create)
	r.mux.Get(idPattern, h.show)
	r.mux.Patch(idPattern, h.update)
	r.mux.Delete(idPattern, h.delete)

	r.mounted = append(r.mounted, basePath)
	r.logger.Info("mounted resource",
		zap.String("resource", res.Type.Name()),
		zap.String("path", basePath),
		zap.Strings("included_union", h.union.TypeNames()))

	return nil
}

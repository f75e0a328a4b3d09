package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/fatih/color"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/compoundapi/compound/cache"
	"github.com/compoundapi/compound/jsonapi"
	"github.com/compoundapi/compound/resource"
	"github.com/compoundapi/compound/router"
	"github.com/compoundapi/compound/server"
	"github.com/compoundapi/compound/store"
	"github.com/compoundapi/compound/store/memory"
	"github.com/compoundapi/compound/store/sqlstore"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the example blog resources",
	Long:  "Start the JSON:API server with the example blog schema (posts, authors, publishers, comments)",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			config.Server.Addr = serveAddr
		}

		logger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logger.Sync()

		return serve(config, logger)
	},
}

// blogSchema is the example resource graph. It is deliberately cyclic
// (post -> author -> posts) to exercise the closure builder.
type blogSchema struct {
	registry  *resource.Registry
	post      *resource.Type
	author    *resource.Type
	publisher *resource.Type
	comment   *resource.Type
}

func buildSchema(attrs resource.AttributesFunc) (*blogSchema, error) {
	s := &blogSchema{
		registry:  resource.NewRegistry(),
		post:      resource.NewType("post", attrs),
		author:    resource.NewType("author", attrs),
		publisher: resource.NewType("publisher", attrs),
		comment:   resource.NewType("comment", attrs),
	}

	s.post.Relate("author", s.author, resource.ToOne)
	s.post.Relate("comments", s.comment, resource.ToMany)
	s.author.Relate("publisher", s.publisher, resource.ToOne)
	s.author.Relate("posts", s.post, resource.ToMany)

	for _, t := range []*resource.Type{s.post, s.author, s.publisher, s.comment} {
		if err := s.registry.Register(t); err != nil {
			return nil, err
		}
	}
	if err := s.registry.Freeze(); err != nil {
		return nil, err
	}
	return s, nil
}

func serve(config *Config, logger *zap.Logger) error {
	var (
		schema *blogSchema
		stores map[*resource.Type]store.Store
		source jsonapi.Source
		err    error
	)

	switch config.Store.Backend {
	case "postgres":
		schema, err = buildSchema(sqlstore.Attributes)
		if err != nil {
			return err
		}
		stores, source, err = postgresStores(schema, config.Store.PostgresDSN)
	default:
		schema, err = buildSchema(memory.Attributes)
		if err != nil {
			return err
		}
		stores, source = memoryStores(schema)
	}
	if err != nil {
		return err
	}

	r := router.New(schema.registry, router.WithLogger(logger))

	if mw, err := cacheMiddleware(config.Cache); err != nil {
		return err
	} else if mw != nil {
		r.Use(mw)
	}

	mounts := map[string]*resource.Type{
		"/posts":      schema.post,
		"/authors":    schema.author,
		"/publishers": schema.publisher,
		"/comments":   schema.comment,
	}
	for path, typ := range mounts {
		err := r.Mount(path, router.Resource{Type: typ, Store: stores[typ], Source: source})
		if err != nil {
			return fmt.Errorf("mount %s: %w", path, err)
		}
	}

	banner(config)

	serverConfig := server.DefaultConfig(r)
	serverConfig.Address = config.Server.Addr
	serverConfig.Logger = logger

	srv, err := server.New(serverConfig)
	if err != nil {
		return err
	}
	return srv.Run(context.Background())
}

// memoryStores seeds the demo dataset
func memoryStores(s *blogSchema) (map[*resource.Type]store.Store, jsonapi.Source) {
	db := memory.NewDB()

	db.Put(s.publisher, "3", map[string]any{"name": "Acme Press"})
	db.Put(s.author, "7", map[string]any{"name": "Ann Example"})
	db.Put(s.post, "1", map[string]any{"title": "Compound documents in practice"})
	db.Put(s.post, "2", map[string]any{"title": "Schema closures and you"})
	db.Put(s.comment, "c1", map[string]any{"body": "Great read"})

	db.Link(s.author, "7", "publisher", "3")
	db.Link(s.author, "7", "posts", "1", "2")
	db.Link(s.post, "1", "author", "7")
	db.Link(s.post, "2", "author", "7")
	db.Link(s.post, "1", "comments", "c1")

	return map[*resource.Type]store.Store{
		s.post:      db.Store(s.post),
		s.author:    db.Store(s.author),
		s.publisher: db.Store(s.publisher),
		s.comment:   db.Store(s.comment),
	}, db
}

// postgresStores maps the blog schema onto conventional tables
func postgresStores(s *blogSchema, dsn string) (map[*resource.Type]store.Store, jsonapi.Source, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := sqlstore.New(conn)
	db.Map(s.post, sqlstore.Table{Name: "posts", Columns: []string{"title", "author_id"}})
	db.Map(s.author, sqlstore.Table{Name: "authors", Columns: []string{"name", "publisher_id"}})
	db.Map(s.publisher, sqlstore.Table{Name: "publishers", Columns: []string{"name"}})
	db.Map(s.comment, sqlstore.Table{Name: "comments", Columns: []string{"body", "post_id"}})

	stores := make(map[*resource.Type]store.Store, 4)
	for _, t := range []*resource.Type{s.post, s.author, s.publisher, s.comment} {
		st, err := db.Store(t)
		if err != nil {
			return nil, nil, err
		}
		stores[t] = st
	}
	return stores, db, nil
}

// cacheMiddleware builds the document cache middleware, or nil when caching
// is off.
func cacheMiddleware(config CacheConfig) (func(http.Handler) http.Handler, error) {
	var backend cache.Cache

	switch config.Backend {
	case "memory":
		backend = cache.NewMemory()
	case "redis":
		redisConfig := cache.DefaultRedisConfig()
		redisConfig.Addr = config.RedisAddr
		redisCache, err := cache.NewRedis(redisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		backend = redisCache
	default:
		return nil, nil
	}

	mwConfig := cache.DefaultMiddlewareConfig(backend)
	if config.TTL > 0 {
		mwConfig.TTL = config.TTL
	}
	return cache.Middleware(mwConfig), nil
}

func banner(config *Config) {
	color.Cyan("compound %s", Version)
	fmt.Printf("  store: %s\n  cache: %s\n  addr:  %s\n",
		config.Store.Backend, config.Cache.Backend, config.Server.Addr)
}

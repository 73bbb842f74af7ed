// Package vdms is a client for the Intel Visual Data Management System
// used as a vector store: documents with scalar metadata are stored as
// descriptors in a collection and ranked by vector similarity.
package vdms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cwlacewe/vdms-go/internal/db"
	dbRedis "github.com/cwlacewe/vdms-go/internal/db/redis"
	"github.com/cwlacewe/vdms-go/internal/domain"
	"github.com/cwlacewe/vdms-go/internal/metrics"
	"github.com/cwlacewe/vdms-go/internal/query"
	descriptorrepo "github.com/cwlacewe/vdms-go/internal/repository/descriptor"
	descriptorsetrepo "github.com/cwlacewe/vdms-go/internal/repository/descriptorset"
	"github.com/cwlacewe/vdms-go/internal/repository/embcache"
	"github.com/cwlacewe/vdms-go/internal/transport/openai"
	"github.com/cwlacewe/vdms-go/internal/transport/vdmsconn"
	collectionuc "github.com/cwlacewe/vdms-go/internal/usecase/collection"
	documentuc "github.com/cwlacewe/vdms-go/internal/usecase/document"
	searchuc "github.com/cwlacewe/vdms-go/internal/usecase/search"
)

const defaultCacheReadiness = 10 * time.Second

// Embedder vectorizes texts. Implementations must be safe for
// concurrent use.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Client is a connection-managed vector store bound to one collection.
type Client struct {
	conn     *vdmsconn.Conn
	cache    db.Store
	logger   *zap.Logger
	embedder domain.Embedder

	cols      *collectionuc.Service
	docSvc    *documentuc.Service
	searchSvc *searchuc.Service
}

// New connects to a VDMS server and ensures the configured collection
// exists. The returned client is safe for concurrent use.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		collection: DefaultCollection,
		engine:     FaissFlat,
		metric:     L2,
	}
	for _, o := range opts {
		o(cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := vdmsconn.Dial(vdmsconn.Config{
		Host:        cfg.host,
		Port:        cfg.port,
		DialTimeout: cfg.dialTimeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("vdms: connect: %w", err)
	}

	c := &Client{conn: conn, logger: logger}
	if err := c.wire(ctx, cfg); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) wire(ctx context.Context, cfg *clientConfig) error {
	embedder, err := c.buildEmbedder(ctx, cfg)
	if err != nil {
		return err
	}
	c.embedder = embedder

	dims := cfg.dimensions
	if dims == 0 {
		if _, ok := embedder.(noopEmbedder); ok {
			return errors.New("vdms: dimensions required without an embedder (use WithDimensions)")
		}
		dims, err = domain.ProbeDimensions(ctx, embedder)
		if err != nil {
			return fmt.Errorf("vdms: %w", err)
		}
	}

	col := domain.Collection{
		Name:       cfg.collection,
		Engine:     domain.Engine(cfg.engine),
		Metric:     domain.Metric(cfg.metric),
		Dimensions: dims,
	}

	setRepo := descriptorsetrepo.New(c.conn)
	docRepo := descriptorrepo.New(c.conn)
	if cfg.batchSize > 0 {
		docRepo = docRepo.WithBatchSize(cfg.batchSize)
	}

	c.cols = collectionuc.New(setRepo, col, c.logger)
	if err := c.cols.Ensure(ctx); err != nil {
		return fmt.Errorf("vdms: %w", err)
	}

	c.docSvc = documentuc.New(docRepo, c.cols, embedder, c.logger)
	c.searchSvc = searchuc.New(docRepo, c.cols, embedder, c.logger)
	return nil
}

func (c *Client) buildEmbedder(ctx context.Context, cfg *clientConfig) (domain.Embedder, error) {
	var embedder domain.Embedder
	switch {
	case cfg.openaiEmbedder != nil:
		embedder = openai.NewEmbedder(&openai.Config{
			APIKey:     cfg.openaiEmbedder.APIKey,
			BaseURL:    cfg.openaiEmbedder.BaseURL,
			Model:      cfg.openaiEmbedder.Model,
			Dimensions: cfg.openaiEmbedder.Dimensions,
			User:       cfg.openaiEmbedder.User,
			Provider:   "openai",
			Logger:     c.logger,
		})
	case cfg.embedder != nil:
		embedder = cfg.embedder
	default:
		return noopEmbedder{}, nil
	}

	if len(cfg.cacheAddrs) > 0 {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("vdms: create embedding cache: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultCacheReadiness); err != nil {
			store.Close()
			return nil, fmt.Errorf("vdms: embedding cache not ready: %w", err)
		}
		c.cache = store
		embedder = embcache.New(embedder, store, metrics.EmbeddingCacheTotal, c.logger)
	}

	// Instruction prefix is outermost so cache keys include it and a
	// document text never answers for the same text used as a query.
	if cfg.docInstruction != "" || cfg.queryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.docInstruction, cfg.queryInstruction)
	}
	return embedder, nil
}

// Close releases the connection and the embedding cache.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
	if c.cache != nil {
		c.cache.Close()
	}
}

// Ping checks server connectivity with a lookup of the collection.
func (c *Client) Ping(ctx context.Context) error {
	cmd := query.FindDescriptorSet(c.cols.Collection().Name, false)
	if _, _, err := c.conn.Query(ctx, []query.Command{cmd}, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Collection returns the collection name the client is bound to.
func (c *Client) Collection() string {
	return c.cols.Collection().Name
}

// noopEmbedder rejects text operations when no embedder is configured.
type noopEmbedder struct{}

func (noopEmbedder) EmbedDocuments(_ context.Context, _ []string) ([][]float32, error) {
	return nil, errors.New("vdms: embedder not configured (use WithEmbedder or WithOpenAIEmbedder)")
}

func (noopEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("vdms: embedder not configured (use WithEmbedder or WithOpenAIEmbedder)")
}

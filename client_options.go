package vdms

import (
	"time"

	"go.uber.org/zap"
)

// DefaultCollection is used when no collection name is configured.
const DefaultCollection = "langchain"

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	host        string
	port        int
	dialTimeout time.Duration

	collection string
	engine     Engine
	metric     Metric
	dimensions int
	batchSize  int

	embedder         Embedder
	openaiEmbedder   *OpenAIEmbedderConfig
	docInstruction   string
	queryInstruction string

	cacheAddrs    []string
	cachePassword string

	logger *zap.Logger
}

// WithHost sets the server host. Default is localhost.
func WithHost(host string) Option {
	return func(c *clientConfig) { c.host = host }
}

// WithPort sets the server port. Default is 55555.
func WithPort(port int) Option {
	return func(c *clientConfig) { c.port = port }
}

// WithDialTimeout bounds the initial TCP connect.
func WithDialTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.dialTimeout = d }
}

// WithCollection sets the collection (descriptor set) name.
func WithCollection(name string) Option {
	return func(c *clientConfig) { c.collection = name }
}

// WithEngine selects the index engine for a new collection. Default is
// FaissFlat.
func WithEngine(e Engine) Option {
	return func(c *clientConfig) { c.engine = e }
}

// WithMetric selects the distance metric for a new collection. Default
// is L2.
func WithMetric(m Metric) Option {
	return func(c *clientConfig) { c.metric = m }
}

// WithDimensions fixes the vector dimensionality. When unset and an
// embedder is configured, the dimensionality is probed with a sample
// embedding.
func WithDimensions(n int) Option {
	return func(c *clientConfig) { c.dimensions = n }
}

// WithBatchSize caps how many documents travel in one server query.
func WithBatchSize(n int) Option {
	return func(c *clientConfig) { c.batchSize = n }
}

// WithEmbedder sets the embedding provider for text operations. Without
// one, only pre-vectorized operations work.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// OpenAIEmbedderConfig configures the built-in OpenAI-compatible
// embedding provider.
type OpenAIEmbedderConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
}

// WithOpenAIEmbedder uses the built-in OpenAI-compatible embedding
// provider. Overrides WithEmbedder.
func WithOpenAIEmbedder(cfg OpenAIEmbedderConfig) Option {
	return func(c *clientConfig) { c.openaiEmbedder = &cfg }
}

// WithEmbeddingInstructions prefixes document and query texts before
// embedding, for instruction-tuned models.
func WithEmbeddingInstructions(docInstruction, queryInstruction string) Option {
	return func(c *clientConfig) {
		c.docInstruction = docInstruction
		c.queryInstruction = queryInstruction
	}
}

// WithEmbeddingCache caches embeddings in Redis so repeated texts skip
// the provider.
func WithEmbeddingCache(addrs []string, password string) Option {
	return func(c *clientConfig) {
		c.cacheAddrs = addrs
		c.cachePassword = password
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}

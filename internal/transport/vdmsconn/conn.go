// Package vdmsconn owns the TCP connection to a VDMS server. It speaks the
// length-prefixed queryMessage framing and nothing else; command semantics
// live in internal/query and on the server.
package vdmsconn

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cwlacewe/vdms-go/internal/domain"
	"github.com/cwlacewe/vdms-go/internal/metrics"
	"github.com/cwlacewe/vdms-go/internal/query"
)

const (
	// DefaultPort is the server's default listen port.
	DefaultPort = 55555

	defaultDialTimeout = 10 * time.Second

	// maxResponseSize guards against a corrupted length prefix.
	maxResponseSize = 1 << 30
)

// Config holds connection parameters.
type Config struct {
	Host        string
	Port        int
	DialTimeout time.Duration
	Logger      *zap.Logger
}

// Conn is a single synchronous client connection. One query is in flight at a
// time; concurrent callers serialize on the connection mutex.
type Conn struct {
	mu     sync.Mutex
	conn   net.Conn
	addr   string
	logger *zap.Logger
	closed bool
}

// Dial connects to a VDMS server.
func Dial(cfg Config) (*Conn, error) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	conn, err := net.DialTimeout("tcp", addr, cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	logger.Info("Connected to VDMS server", zap.String("addr", addr))
	return &Conn{conn: conn, addr: addr, logger: logger}, nil
}

// Addr returns the remote address.
func (c *Conn) Addr() string { return c.addr }

// Close shuts the connection down. Safe to call twice.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// Query sends a command batch with optional blobs and returns the parsed
// response plus any returned blobs. The context deadline, if set, bounds the
// whole round trip via socket deadlines.
func (c *Conn) Query(
	ctx context.Context, cmds []query.Command, blobs [][]byte,
) (query.Response, [][]byte, error) {
	jsonData, err := json.Marshal(cmds)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal commands: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, nil, domain.ErrConnClosed
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return nil, nil, fmt.Errorf("set deadline: %w", err)
		}
		defer func() { _ = c.conn.SetDeadline(time.Time{}) }()
	}

	start := time.Now()
	cmdName := commandLabel(cmds)

	if err := c.send(jsonData, blobs); err != nil {
		metrics.QueryErrorsTotal.WithLabelValues(cmdName).Inc()
		return nil, nil, err
	}

	respJSON, respBlobs, err := c.receive()
	if err != nil {
		metrics.QueryErrorsTotal.WithLabelValues(cmdName).Inc()
		return nil, nil, err
	}

	metrics.QueriesTotal.WithLabelValues(cmdName).Inc()
	metrics.QueryDuration.WithLabelValues(cmdName).Observe(time.Since(start).Seconds())
	c.logger.Debug("VDMS query",
		zap.String("command", cmdName),
		zap.Int("commands", len(cmds)),
		zap.Int("blobs_sent", len(blobs)),
		zap.Int("blobs_received", len(respBlobs)),
		zap.Duration("took", time.Since(start)),
	)

	resp, err := query.ParseResponse(respJSON)
	if err != nil {
		return nil, nil, err
	}
	return resp, respBlobs, nil
}

func (c *Conn) send(jsonData []byte, blobs [][]byte) error {
	msg := encodeQueryMessage(jsonData, blobs)
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(msg)))
	if _, err := c.conn.Write(header[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := c.conn.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (c *Conn) receive() ([]byte, [][]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(c.conn, header[:]); err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	size := binary.LittleEndian.Uint32(header[:])
	if size > maxResponseSize {
		return nil, nil, fmt.Errorf("response size %d exceeds limit", size)
	}
	msg := make([]byte, size)
	if _, err := io.ReadFull(c.conn, msg); err != nil {
		return nil, nil, fmt.Errorf("read message: %w", err)
	}
	jsonData, blobs, err := decodeQueryMessage(msg)
	if err != nil {
		return nil, nil, err
	}
	return jsonData, blobs, nil
}

// commandLabel picks the metric label for a batch: the first command's name,
// since batches are homogeneous in practice.
func commandLabel(cmds []query.Command) string {
	if len(cmds) == 0 {
		return "empty"
	}
	return cmds[0].Name()
}

package apm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/shogo82148/apm-yasdk-go/apm/apmstats"
	"github.com/shogo82148/apm-yasdk-go/apm/schema"
	"github.com/shogo82148/apm-yasdk-go/internal/envconfig"
	"github.com/shogo82148/go-retry/v2"
)

// Writer receives finished spans.
// Implementations must be safe for concurrent use.
type Writer interface {
	WriteSpan(ctx context.Context, span *schema.Span) error
}

// NullWriter discards all spans.
type NullWriter struct{}

// WriteSpan implements Writer.
func (NullWriter) WriteSpan(ctx context.Context, span *schema.Span) error { return nil }

// StreamWriter writes spans into an io.Writer as newline-delimited JSON.
type StreamWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStreamWriter returns a new StreamWriter that writes into w.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{
		enc: json.NewEncoder(w),
	}
}

// WriteSpan implements Writer.
func (w *StreamWriter) WriteSpan(ctx context.Context, span *schema.Span) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(span)
}

const encodingJSON = "json"

// the names of the metrics reported by AgentWriter.
const (
	statSpans  = "apm.writer.spans"
	statErrors = "apm.writer.errors"
	statWrite  = "apm.writer.write"
)

var header = []byte(`{"format":"json","version":1}` + "\n")

var dialPolicy = &retry.Policy{
	MinDelay: 10 * time.Millisecond,
	MaxDelay: 50 * time.Millisecond,
	MaxCount: 3,
}

// AgentWriter sends each span to the trace agent as a UDP datagram.
type AgentWriter struct {
	addr    string
	timeout time.Duration
	stats   apmstats.Stats
	dialer  net.Dialer

	pool sync.Pool

	mu   sync.Mutex
	conn net.Conn
}

// NewAgentWriter returns a new AgentWriter that sends spans to addr.
// If stats is nil, the metrics are discarded.
func NewAgentWriter(addr string, stats apmstats.Stats) *AgentWriter {
	if stats == nil {
		stats = apmstats.Null{}
	}
	timeout := envconfig.WriteTimeout()
	return &AgentWriter{
		addr:    addr,
		timeout: timeout,
		stats:   stats,
		dialer: net.Dialer{
			Timeout: timeout,
		},
		pool: sync.Pool{
			New: func() any {
				return new(bytes.Buffer)
			},
		},
	}
}

// WriteSpan implements Writer.
func (w *AgentWriter) WriteSpan(ctx context.Context, span *schema.Span) error {
	start := time.Now()
	buf := w.pool.Get().(*bytes.Buffer)
	defer w.pool.Put(buf)
	buf.Reset()
	buf.Write(header)
	if err := json.NewEncoder(buf).Encode(span); err != nil {
		w.stats.Count(statErrors, 1, encodingJSON)
		return fmt.Errorf("apm: failed to encode: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		conn, err := w.dial(ctx)
		if err != nil {
			w.stats.Count(statErrors, 1, encodingJSON)
			return fmt.Errorf("apm: failed to dial: %w", err)
		}
		w.conn = conn
	}
	if _, err := w.conn.Write(buf.Bytes()); err != nil {
		// reconnect on the next span
		w.conn.Close()
		w.conn = nil
		w.stats.Count(statErrors, 1, encodingJSON)
		return fmt.Errorf("apm: failed to write: %w", err)
	}
	w.stats.Count(statSpans, 1, encodingJSON)
	w.stats.Timing(statWrite, time.Since(start), encodingJSON)
	return nil
}

func (w *AgentWriter) dial(ctx context.Context) (net.Conn, error) {
	// the span must be delivered even if the traced request has been canceled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()

	var conn net.Conn
	err := dialPolicy.Do(ctx, func() error {
		var err error
		conn, err = w.dialer.DialContext(ctx, "udp", w.addr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Close closes the connection to the agent.
func (w *AgentWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		err := w.conn.Close()
		w.conn = nil
		return err
	}
	return nil
}

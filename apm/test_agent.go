package apm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/shogo82148/apm-yasdk-go/apm/schema"
)

// TestAgent is the mock server of the trace agent.
type TestAgent struct {
	ch        <-chan *result
	conn      net.PacketConn
	ctx       context.Context
	cancel    context.CancelFunc
	tracer    *Tracer
	closeOnce sync.Once
}

// NewTestAgent starts a new TestAgent and returns an enabled tracer sending spans to it.
func NewTestAgent() (*Tracer, *TestAgent) {
	c := make(chan *result, 200)
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		if conn, err = net.ListenPacket("udp6", "[::1]:0"); err != nil {
			panic(fmt.Sprintf("apm: failed to listen: %v", err))
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	enabled := true
	tracer := New(&Config{
		AgentAddress: conn.LocalAddr().String(),
		Enabled:      &enabled,
	})
	a := &TestAgent{
		ch:     c,
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
		tracer: tracer,
	}

	go a.run(c)
	return tracer, a
}

type result struct {
	Span  *schema.Span
	Error error
}

// Close shutdowns the agent.
func (a *TestAgent) Close() {
	a.closeOnce.Do(func() {
		a.cancel()
		a.tracer.Close()
		a.conn.Close()
	})
}

func (a *TestAgent) run(c chan *result) {
	buffer := make([]byte, 64*1024)
	for {
		n, _, err := a.conn.ReadFrom(buffer)
		if err != nil {
			select {
			case c <- &result{nil, err}:
			case <-a.ctx.Done():
				return
			}
			continue
		}

		idx := bytes.IndexByte(buffer[:n], '\n')
		buffered := buffer[idx+1 : n]

		var span *schema.Span
		err = json.Unmarshal(buffered, &span)
		if err != nil {
			select {
			case c <- &result{nil, err}:
			case <-a.ctx.Done():
				return
			}
			continue
		}

		select {
		case c <- &result{span, nil}:
		case <-a.ctx.Done():
			return
		}
	}
}

// Recv returns the received span.
// It returns an error if no span arrives within 500ms.
func (a *TestAgent) Recv() (*schema.Span, error) {
	ctx, cancel := context.WithTimeout(a.ctx, 500*time.Millisecond)
	defer cancel()
	select {
	case r := <-a.ch:
		return r.Span, r.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

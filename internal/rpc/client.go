package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"user-order-services/internal/apperr"
)

var (
	// ErrTimeout means no reply arrived within the call deadline.
	ErrTimeout = errors.New("rpc: no reply within deadline")
	// ErrConnectionFailed means the connection could not be established or
	// was lost before a reply arrived. Distinct from ErrTimeout, and both
	// are distinct from a valid not-found answer.
	ErrConnectionFailed = errors.New("rpc: connection failed")
)

type Option func(*Client)

func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) { c.dialTimeout = d }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.requestTimeout = d }
}

// Client addresses one remote server by host:port. It dials lazily on the
// first request and redials after a lost connection; a single request is
// never retried.
type Client struct {
	addr           string
	dialTimeout    time.Duration
	requestTimeout time.Duration

	mu   sync.Mutex
	conn *clientConn
}

func NewClient(addr string, opts ...Option) *Client {
	c := &Client{
		addr:           addr,
		dialTimeout:    3 * time.Second,
		requestTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request sends pattern+in to the server and decodes the correlated reply
// into out. It completes in exactly one of three ways: a reply, ErrTimeout,
// or ErrConnectionFailed. Remote handler failures come back as apperr errors
// with their original kind and are not transport failures.
func (c *Client) Request(ctx context.Context, pattern string, in, out any) error {
	conn, err := c.ensureConn()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "failed to marshal %s request", pattern)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	id := uuid.NewString()
	ch := conn.register(id)
	defer conn.unregister(id)

	if err := conn.write(request{ID: id, Pattern: pattern, Payload: payload}); err != nil {
		c.dropConn(conn)
		return apperr.Wrap(apperr.KindTransport, ErrConnectionFailed, "failed to send %s", pattern)
	}

	select {
	case resp := <-ch:
		if resp.Err != nil {
			return apperr.New(apperr.Kind(resp.Err.Kind), "%s", resp.Err.Message)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Payload, out); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "failed to decode %s reply", pattern)
		}
		return nil
	case <-conn.done:
		c.dropConn(conn)
		return apperr.Wrap(apperr.KindTransport, ErrConnectionFailed, "connection lost awaiting %s", pattern)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return apperr.Wrap(apperr.KindTransport, ErrTimeout, "%s to %s", pattern, c.addr)
		}
		return apperr.Wrap(apperr.KindTransport, ctx.Err(), "%s to %s canceled", pattern, c.addr)
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.nc.Close()
	c.conn = nil
	return err
}

func (c *Client) ensureConn() (*clientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		select {
		case <-c.conn.done:
			c.conn = nil
		default:
			return c.conn, nil
		}
	}

	nc, err := net.DialTimeout("tcp", c.addr, c.dialTimeout)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransport, ErrConnectionFailed, "failed to dial %s", c.addr)
	}

	conn := &clientConn{
		nc:      nc,
		pending: make(map[string]chan response),
		done:    make(chan struct{}),
	}
	go conn.readLoop()

	c.conn = conn
	return conn, nil
}

func (c *Client) dropConn(conn *clientConn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		conn.nc.Close()
		c.conn = nil
	}
}

// clientConn demultiplexes replies to pending calls by correlation id.
type clientConn struct {
	nc net.Conn

	wmu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan response

	done chan struct{}
}

func (c *clientConn) register(id string) chan response {
	ch := make(chan response, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	return ch
}

func (c *clientConn) unregister(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *clientConn) write(req request) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return writeFrame(c.nc, req)
}

func (c *clientConn) readLoop() {
	defer close(c.done)
	for {
		body, err := readFrame(c.nc)
		if err != nil {
			return
		}

		var resp response
		if err := json.Unmarshal(body, &resp); err != nil {
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		c.mu.Unlock()
		if ok {
			// Buffered; a late reply after unregister is dropped instead.
			ch <- resp
		}
	}
}

package rpc

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"sync"

	"user-order-services/internal/apperr"
)

// HandlerFunc processes one request payload. A returned error travels back to
// the caller inside the response envelope together with its apperr kind.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

type Server struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	ln        net.Listener
	closing   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	connMu sync.Mutex
	conns  map[net.Conn]struct{}
}

func NewServer() *Server {
	return &Server{
		handlers: make(map[string]HandlerFunc),
		closing:  make(chan struct{}),
		conns:    make(map[net.Conn]struct{}),
	}
}

// Handle registers a handler for a pattern. Registration is explicit; there is
// no global table shared between servers.
func (s *Server) Handle(pattern string, h HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[pattern] = h
}

// Listen binds addr and starts accepting connections in the background.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return apperr.Wrap(apperr.KindTransport, err, "failed to listen on %s", addr)
	}
	s.ln = ln

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listener address, useful when listening on port 0.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Close stops accepting, drops open connections and waits for connection
// goroutines to drain. Safe to call more than once.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closing)
		err = s.ln.Close()

		s.connMu.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.connMu.Unlock()

		s.wg.Wait()
	})
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.closing:
				return
			default:
			}
			log.Printf("[RPC-Server] Accept failed: %v", err)
			return
		}

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	s.connMu.Lock()
	s.conns[conn] = struct{}{}
	s.connMu.Unlock()
	defer func() {
		s.connMu.Lock()
		delete(s.conns, conn)
		s.connMu.Unlock()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Responses from concurrent handlers interleave on one connection, so
	// writes go through a per-connection mutex.
	var wmu sync.Mutex

	for {
		body, err := readFrame(conn)
		if err != nil {
			return
		}

		var req request
		if err := json.Unmarshal(body, &req); err != nil {
			log.Printf("[RPC-Server] Dropping malformed frame from %s: %v", conn.RemoteAddr(), err)
			return
		}

		// Each request runs in its own goroutine so a slow handler does not
		// block other calls multiplexed on this connection.
		go func(req request) {
			resp := s.dispatch(ctx, req)

			wmu.Lock()
			defer wmu.Unlock()
			if err := writeFrame(conn, resp); err != nil {
				log.Printf("[RPC-Server] Failed to write response %s: %v", resp.ID, err)
			}
		}(req)
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	s.mu.RLock()
	h, ok := s.handlers[req.Pattern]
	s.mu.RUnlock()

	if !ok {
		return response{ID: req.ID, Err: &wireError{
			Kind:    string(apperr.KindInternal),
			Message: "unknown pattern " + req.Pattern,
		}}
	}

	result, err := h(ctx, req.Payload)
	if err != nil {
		return response{ID: req.ID, Err: &wireError{
			Kind:    string(apperr.KindOf(err)),
			Message: err.Error(),
		}}
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return response{ID: req.ID, Err: &wireError{
			Kind:    string(apperr.KindInternal),
			Message: "failed to marshal reply: " + err.Error(),
		}}
	}
	return response{ID: req.ID, Payload: payload}
}

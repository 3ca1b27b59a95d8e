package rtmp

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Server accepts connections on a Listener and drives each through a
// Connection built around the caller's Handler and Scope resolver. It is
// the generalized wiring the source this module is grounded on assembles
// through a Spring application context; here it is plain composition.
type Server struct {
	listener Listener
	handler  Handler
	config   ConnectionConfig

	sched Scheduler
	pool  WorkerPool

	nextID atomic.Uint64

	mu    sync.Mutex
	conns map[string]*Connection
}

// ScopeResolver binds an accepted connection's requested app/path to a
// Scope; returning a nil Scope with a non-nil error rejects the connection
// before any stream work begins. A Handler that needs one (DefaultHandler
// does) owns its own resolver.
type ScopeResolver interface {
	Resolve(host, path string) (Scope, error)
}

type ServerOption func(*Server)

func WithWorkerConcurrency(n int64) ServerOption {
	return func(s *Server) {
		s.pool = NewFixedWorkerPool(context.Background(), n)
	}
}

// NewServer wires a Listener already bound to an address into a Server.
// Use Listen to create one.
func NewServer(listener Listener, handler Handler, cfg ConnectionConfig, opts ...ServerOption) *Server {
	cfg.setDefaults()

	s := &Server{
		listener: listener,
		handler:  handler,
		config:   cfg,
		sched:    NewTimerScheduler(),
		conns:    make(map[string]*Connection),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pool == nil {
		s.pool = NewFixedWorkerPool(context.Background(), 32)
	}
	return s
}

// Serve accepts connections until the listener closes or ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}
		go s.handleAccepted(conn)
	}
}

func (s *Server) handleAccepted(wire *Conn) {
	id := fmt.Sprintf("conn-%d", s.nextID.Add(1))
	transport := NewNetTransport(wire)
	rc := NewConnection(id, transport, s.handler, s.sched, s.pool, s.config)

	s.mu.Lock()
	s.conns[id] = rc
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
	}()

	rc.Open()
	if err := rc.Serve(); err != nil {
		Debugf("connection %s ended: %v", id, err)
	}
}

// Lookup returns the currently open connection with id, or nil.
func (s *Server) Lookup(id string) *Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[id]
}

// Close stops accepting new connections and closes every open one.
func (s *Server) Close() error {
	err := s.listener.Close()

	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
	s.pool.Close()
	return err
}

// Package server exposes a read-only HTTP and websocket view of a running
// tree.
package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/nodetree/internal/core/events/bus"
	"github.com/zeusync/nodetree/internal/core/loop"
	"github.com/zeusync/nodetree/internal/core/observability/log"
	"github.com/zeusync/nodetree/internal/core/props"
	"github.com/zeusync/nodetree/internal/core/scene"
)

// Config holds inspector settings.
type Config struct {
	Addr string
	// Token, when set, must be sent as ?token= or a Bearer header.
	Token string

	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	// SendBuffer is the number of events queued per websocket client before
	// new events are dropped for it.
	SendBuffer int
}

func DefaultConfig() Config {
	return Config{
		Addr:              "127.0.0.1:7070",
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      5 * time.Second,
		SendBuffer:        256,
	}
}

// Inspector serves the scene dump, the type catalog and a live event stream.
// Every tree access goes through the loop.
type Inspector struct {
	config  Config
	loop    *loop.Loop
	scenes  *scene.Handler
	catalog *props.Catalog
	bus     bus.EventBus
	logger  log.Log

	mu      sync.Mutex
	clients map[*client]struct{}
	sub     bus.Subscription

	server  *http.Server
	running atomic.Bool
}

func New(config Config, l *loop.Loop, scenes *scene.Handler, catalog *props.Catalog, eb bus.EventBus, logger log.Log) (*Inspector, error) {
	if config.SendBuffer <= 0 {
		config.SendBuffer = DefaultConfig().SendBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Inspector{
		config:  config,
		loop:    l,
		scenes:  scenes,
		catalog: catalog,
		bus:     eb,
		logger:  logger.With(log.String("component", "inspector")),
		clients: make(map[*client]struct{}),
	}
	if eb != nil {
		sub, err := eb.SubscribeAll(s.broadcast)
		if err != nil {
			return nil, err
		}
		s.sub = sub
	}
	return s, nil
}

// Handler returns the inspector routes.
func (s *Inspector) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /scene", s.authorize(http.HandlerFunc(s.handleScene)))
	mux.Handle("GET /types", s.authorize(http.HandlerFunc(s.handleTypes)))
	mux.Handle("GET /ws", s.authorize(http.HandlerFunc(s.handleWebSocket)))
	return mux
}

// Run serves until ctx is done.
func (s *Inspector) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		s.running.Store(false)
		return err
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}
	s.logger.Info("inspector listening", log.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
	defer cancel()
	s.Close()
	if err = s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("inspector stopped")
	return nil
}

// Close stops the event stream and disconnects every websocket client.
func (s *Inspector) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	clients := s.clients
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()

	if sub != nil {
		_ = s.bus.Unsubscribe(sub)
	}
	for c := range clients {
		c.close()
	}
}

func (s *Inspector) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

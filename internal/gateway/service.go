package gateway

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/forward"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/observability"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/validation"
	"github.com/rs/zerolog"
)

// Service accepts connections and runs one exchange per connection.
type Service struct {
	cfg       ServiceConfig
	logger    zerolog.Logger
	metrics   *observability.Metrics
	engine    *validation.Engine
	forwarder forward.Forwarder

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
	wg      sync.WaitGroup
	slots   chan struct{}
	serving atomic.Bool

	stats *counters
}

func NewService(logger zerolog.Logger) *Service {
	return NewServiceWithConfig(DefaultServiceConfig(), logger, nil)
}

// NewServiceWithConfig builds a service. metrics may be nil.
func NewServiceWithConfig(cfg ServiceConfig, logger zerolog.Logger, metrics *observability.Metrics) *Service {
	cfg = cfg.WithDefaults()
	return &Service{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		engine:    validation.New(logger, metrics),
		forwarder: forward.Nop{},
		conns:     make(map[net.Conn]struct{}),
		slots:     make(chan struct{}, cfg.MaxConcurrentExchanges),
		stats:     newCounters(),
	}
}

// SetForwarder replaces the no-op forwarder. Call before Serve.
func (s *Service) SetForwarder(f forward.Forwarder) {
	if f == nil {
		f = forward.Nop{}
	}
	s.forwarder = f
}

func (s *Service) Engine() *validation.Engine {
	return s.engine
}

func (s *Service) Stats() Stats {
	return s.stats.snapshot()
}

// Ready reports whether the accept loop is running.
func (s *Service) Ready() bool {
	return s.serving.Load()
}

func (s *Service) ListenAndServe(ctx context.Context) error {
	ln, err := s.cfg.Session.Listen(s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Bool("tls", s.cfg.Session.TLS.Enabled).
		Int("max_concurrent", s.cfg.MaxConcurrentExchanges).
		Msg("gateway.Service listening")
	return s.Serve(ctx, ln)
}

type deadlineListener interface {
	SetDeadline(t time.Time) error
}

// Serve runs the accept loop on ln until ctx is done, then drains in-flight
// exchanges for up to ShutdownGrace before force-closing them.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stopWatch:
		}
	}()

	s.serving.Store(true)
	err := s.acceptLoop(ctx, ln)
	s.serving.Store(false)
	s.drain()
	return err
}

func (s *Service) acceptLoop(ctx context.Context, ln net.Listener) error {
	dl, canDeadline := ln.(deadlineListener)
	for {
		select {
		case s.slots <- struct{}{}:
		case <-ctx.Done():
			return nil
		}

		if s.cfg.AcceptTimeout > 0 && canDeadline {
			_ = dl.SetDeadline(time.Now().Add(s.cfg.AcceptTimeout))
		}
		conn, err := ln.Accept()
		if err != nil {
			<-s.slots
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Debug().Dur("accept_timeout", s.cfg.AcceptTimeout).Msg("gateway.Serve idle")
				continue
			}
			s.logger.Error().Err(err).Msg("gateway.Serve accept failed")
			return err
		}

		s.trackConn(conn)
		s.wg.Add(1)
		go func() {
			defer func() { <-s.slots }()
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Service) drain() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return
	case <-time.After(s.cfg.ShutdownGrace):
	}
	n := s.closeAllConns()
	s.logger.Warn().Int("conns", n).Dur("grace", s.cfg.ShutdownGrace).Msg("gateway.Serve forced close")
	<-done
}

func (s *Service) trackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Service) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

func (s *Service) closeAllConns() int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	n := len(s.conns)
	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
	return n
}

package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/activation"

	rtsup "chefplan/internal/runtime/supervisor"
	logx "chefplan/pkg/logx"
)

// Service runs the HTTP server under a supervisor restart loop and applies
// config changes live.
type Service struct {
	api *API

	mu  sync.Mutex
	log logx.Logger
	cfg Config

	handler atomic.Pointer[handlerBox]

	ln       net.Listener
	srv      *http.Server
	sup      *rtsup.Supervisor
	stopDone chan struct{}
	ready    chan struct{}

	// systemd passes activated sockets once; keep the files so restarts
	// can build fresh listeners from them.
	sdOnce  sync.Once
	sdFiles []*os.File
}

type handlerBox struct{ h http.Handler }

func NewService(api *API, cfg Config, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{api: api, cfg: cfg, log: log, ready: make(chan struct{})}
	s.handler.Store(&handlerBox{h: api.Handler(cfg)})
	return s
}

// Addr returns the bound listener address, or "" when not serving.
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Ready is closed once the server is listening for the first time.
func (s *Service) Ready() <-chan struct{} { return s.ready }

// Supervisor returns the service's supervisor (nil if not started).
func (s *Service) Supervisor() *rtsup.Supervisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sup
}

// Reconfigure applies cfg. Listener-level changes restart the server;
// everything else swaps the handler in place. ctx must be the long-lived
// context the server runs under.
func (s *Service) Reconfigure(ctx context.Context, cfg Config) {
	s.mu.Lock()
	prev := s.cfg
	running := s.sup != nil
	s.cfg = cfg
	s.mu.Unlock()

	s.handler.Store(&handlerBox{h: s.api.Handler(cfg)})
	if running && needsRestart(prev, cfg) {
		s.log.Info("http config changed; restarting server", logx.String("addr", cfg.addr()))
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		s.Stop(stopCtx)
		cancel()
		s.Start(ctx)
	}
}

// Start is idempotent. ctx bounds the server's lifetime.
func (s *Service) Start(ctx context.Context) {
	for {
		s.mu.Lock()
		// If stopping, wait for it to finish before restarting.
		if s.stopDone != nil {
			done := s.stopDone
			s.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return
			}
			continue
		}
		if s.sup != nil {
			s.mu.Unlock()
			return
		}
		s.sup = rtsup.New(ctx,
			rtsup.WithLogger(s.log),
			rtsup.WithCancelOnError(false),
		)
		sup := s.sup
		s.mu.Unlock()

		sup.GoRestart("http.serve", s.serveOnce,
			rtsup.WithPublishFirstError(true),
			rtsup.WithRestartBackoff(500*time.Millisecond, 10*time.Second),
		)
		return
	}
}

// Stop shuts the server down gracefully, bounded by ctx.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.sup == nil {
		s.mu.Unlock()
		return
	}
	if s.stopDone != nil {
		done := s.stopDone
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return
	}

	done := make(chan struct{})
	s.stopDone = done
	srv := s.srv
	sup := s.sup
	s.mu.Unlock()

	// Shutdown runs asynchronously so callers can time out without leaking state.
	go func() {
		defer close(done)
		if srv != nil {
			_ = srv.Shutdown(ctx)
			_ = srv.Close()
		}
		sup.Cancel()
		_ = sup.Wait(context.Background())

		s.mu.Lock()
		s.ln = nil
		s.srv = nil
		s.sup = nil
		s.stopDone = nil
		s.mu.Unlock()
		s.log.Info("http server stopped")
	}()

	select {
	case <-done:
	case <-ctx.Done():
		sup.Cancel()
	}
}

func (s *Service) listen(cur Config) (net.Listener, error) {
	if !cur.SystemdSocket {
		return net.Listen("tcp", cur.addr())
	}
	s.sdOnce.Do(func() { s.sdFiles = activation.Files(true) })
	if len(s.sdFiles) == 0 {
		return nil, errors.New("http.systemd_socket set but no socket was passed by systemd")
	}
	// FileListener dups the descriptor, so the cached file stays usable.
	return net.FileListener(s.sdFiles[0])
}

func (s *Service) serveOnce(ctx context.Context) error {
	s.mu.Lock()
	cur := s.cfg
	log := s.log
	s.mu.Unlock()

	addr := cur.addr()
	// Safety: prevent accidental public exposure of add-recipe without auth.
	if !cur.SystemdSocket && cur.Token == "" && !isLoopbackAddr(addr) {
		if !cur.AllowInsecure {
			log.Error("http refused to start: non-loopback addr requires token or allow_insecure", logx.String("addr", addr))
			return errors.New("http refused to start: insecure bind")
		}
		log.Warn("http running without token on non-loopback addr (insecure)", logx.String("addr", addr))
	}

	ln, err := s.listen(cur)
	if err != nil {
		log.Error("http listen failed", logx.String("addr", addr), logx.Err(err))
		if ctx.Err() != nil {
			return context.Canceled
		}
		return err
	}
	defer func() { _ = ln.Close() }()

	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.handler.Load().h.ServeHTTP(w, r)
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cur.ReadTimeout,
		WriteTimeout:      cur.WriteTimeout,
		IdleTimeout:       cur.IdleTimeout,
	}
	defer func() { _ = srv.Close() }()

	s.mu.Lock()
	s.ln = ln
	s.srv = srv
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		// Keep this bounded; Stop does the real graceful shutdown.
		cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = srv.Shutdown(cctx)
		cancel()
	}()

	listenAddr := ln.Addr().String()
	log.Info("http started",
		logx.String("addr", listenAddr),
		logx.Bool("token_set", cur.Token != ""),
		logx.Bool("systemd_socket", cur.SystemdSocket),
		logx.String("hint", fmt.Sprintf("http://%s/", listenAddr)),
	)
	select {
	case <-s.ready:
	default:
		close(s.ready)
	}

	err = srv.Serve(ln)

	s.mu.Lock()
	if s.srv == srv {
		s.srv = nil
		s.ln = nil
	}
	stopping := s.stopDone != nil
	s.mu.Unlock()

	if stopping || ctx.Err() != nil {
		return context.Canceled
	}
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return errors.New("http server exited unexpectedly")
	}
	return err
}

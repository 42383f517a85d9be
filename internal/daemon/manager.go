// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package daemon wires the lighting controller together and owns its
// lifecycle: sockets, the DMX port, the worker goroutines and the status
// server.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/chuck/internal/config"
	"github.com/ManuGH/chuck/internal/controller"
	"github.com/ManuGH/chuck/internal/dmx"
	"github.com/ManuGH/chuck/internal/health"
	"github.com/ManuGH/chuck/internal/heartbeat"
	"github.com/ManuGH/chuck/internal/ingest"
	"github.com/ManuGH/chuck/internal/log"
	"github.com/ManuGH/chuck/internal/profile"
	"github.com/ManuGH/chuck/internal/queue"
	"github.com/ManuGH/chuck/internal/scene"
)

// DefaultShutdownTimeout bounds the shutdown hooks once Start is done.
const DefaultShutdownTimeout = 5 * time.Second

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager manages the daemon lifecycle.
type Manager interface {
	// Start opens every resource, runs until ctx ends or a component fails,
	// then shuts down.
	Start(ctx context.Context) error

	// Shutdown runs the shutdown hooks. Start calls it on its way out.
	Shutdown(ctx context.Context) error

	// RegisterShutdownHook registers a function to be called during shutdown
	RegisterShutdownHook(name string, hook ShutdownHook)
}

type manager struct {
	cfg      config.Config
	deps     Deps
	instance string
	logger   zerolog.Logger

	conn       *net.UDPConn
	arbiter    *dmx.Arbiter
	profiles   *profile.Store
	watcher    *profile.Watcher
	scenes     *scene.Store
	queue      *queue.Queue
	heartbeat  *heartbeat.Heartbeat
	receiver   *ingest.Receiver
	controller *controller.Orchestrator
	health     *health.Manager

	httpServer   *http.Server
	httpListener net.Listener

	shutdownHooks []namedHook

	mu       sync.Mutex
	started  bool
	stopping bool
}

// namedHook represents a shutdown hook with a name for logging
type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a daemon manager. Nothing is opened until Start.
func NewManager(cfg config.Config, deps Deps) (Manager, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	id := uuid.NewString()
	return &manager{
		cfg:           cfg,
		deps:          deps,
		instance:      id,
		logger:        log.WithComponent("daemon").With().Str(log.FieldInstanceID, id).Logger(),
		shutdownHooks: make([]namedHook, 0),
	}, nil
}

// Start opens every resource and blocks until ctx is cancelled or a
// component fails. Shutdown hooks run before it returns.
func (m *manager) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("start context is nil")
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrManagerStarted
	}
	m.started = true
	m.mu.Unlock()

	m.logger.Info().
		Str(log.FieldEvent, "daemon.starting").
		Str("version", m.cfg.Version).
		Str("listen", m.cfg.Listen).
		Str("http_listen", m.cfg.HTTP.Listen).
		Str("dmx_driver", m.cfg.DMX.Driver).
		Msg("starting daemon")

	if err := m.open(); err != nil {
		m.logger.Error().Err(err).Str(log.FieldEvent, "daemon.open_failed").Msg("startup failed")
		return errors.Join(err, m.shutdownDetached(ctx))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.receiver.Run(gctx) })
	g.Go(func() error { return m.heartbeat.Run(gctx) })
	g.Go(func() error { return m.controller.Run(gctx) })
	if m.watcher != nil {
		g.Go(func() error {
			// Without the watcher the set only loads at start; not worth dying for.
			if err := m.watcher.Run(gctx); err != nil {
				m.logger.Warn().Err(err).Str(log.FieldEvent, "profiles.watcher_failed").Msg("fixture set watcher stopped")
			}
			return nil
		})
	}
	if m.httpServer != nil {
		g.Go(func() error { return m.serveHTTP(gctx) })
	}

	m.logger.Info().Str(log.FieldEvent, "daemon.started").Msg("daemon running")

	err := g.Wait()
	if err != nil {
		m.logger.Error().Err(err).Str(log.FieldEvent, "daemon.component_failed").Msg("component failed, initiating shutdown")
	} else {
		m.logger.Info().Str(log.FieldEvent, "daemon.stopping").Msg("shutdown signal received")
	}
	if shutdownErr := m.shutdownDetached(ctx); shutdownErr != nil {
		return errors.Join(err, shutdownErr)
	}
	return err
}

// shutdownDetached runs Shutdown with a bounded context that survives the
// cancellation of ctx.
func (m *manager) shutdownDetached(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
	defer cancel()
	return m.Shutdown(shutdownCtx)
}

// open builds the component graph. Each resource registers its own close hook
// as soon as it exists, so a failure halfway is unwound by Shutdown.
func (m *manager) open() error {
	port := m.deps.Port
	if port == nil {
		p, err := openPort(m.cfg.DMX)
		if err != nil {
			return fmt.Errorf("open dmx %s: %w", m.cfg.DMX.Driver, err)
		}
		port = p
	}
	m.arbiter = dmx.NewArbiter(port)
	m.RegisterShutdownHook("dmx_close", func(context.Context) error {
		return m.arbiter.Close()
	})
	m.RegisterShutdownHook("dmx_blackout", func(context.Context) error {
		return m.arbiter.Blackout()
	})

	conn := m.deps.Conn
	if conn == nil {
		c, err := listenCommands(m.cfg.Listen)
		if err != nil {
			return fmt.Errorf("command socket: %w", err)
		}
		conn = c
	}
	m.conn = conn
	m.RegisterShutdownHook("command_socket", func(context.Context) error {
		if err := m.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	})

	lights, err := profile.LoadFile(m.cfg.Profiles.File)
	if err != nil {
		return fmt.Errorf("load fixture set: %w", err)
	}
	if lights == nil {
		m.logger.Warn().
			Str(log.FieldEvent, "profiles.missing").
			Str(log.FieldPath, m.cfg.Profiles.File).
			Msg("fixture set file not found, starting with no fixtures")
	}
	m.profiles = profile.NewStore(lights...)
	if m.cfg.Profiles.Watch {
		m.watcher = profile.NewWatcher(m.cfg.Profiles.File, m.profiles)
	}

	m.scenes = scene.NewStore()
	if err := m.scenes.Load(m.cfg.Scenes.File); err != nil {
		return fmt.Errorf("load scenes: %w", err)
	}

	m.queue = queue.New(m.cfg.Queue.Size)
	m.heartbeat = heartbeat.New(m.conn, m.cfg.Heartbeat.Interval)
	m.receiver = ingest.New(m.conn, m.queue)

	m.controller, err = controller.New(controller.Deps{
		Arbiter:   m.arbiter,
		Profiles:  m.profiles,
		Scenes:    m.scenes,
		Queue:     m.queue,
		Heartbeat: m.heartbeat,
	}, controller.Options{
		ChaseDelay:        m.cfg.Chase.Delay,
		MinChaseDelay:     m.cfg.Chase.MinDelay,
		MaxChaseDelay:     m.cfg.Chase.MaxDelay,
		ChaseStep:         m.cfg.Chase.Step,
		HighlightInterval: m.cfg.Highlight.Interval,
		PresetInterval:    m.cfg.Preset.Interval,
		SceneFile:         m.cfg.Scenes.File,
		PreviewOnNavigate: m.cfg.Scenes.PreviewOnNavigate,
		ContinueOnIOError: !m.cfg.DMX.FatalOnError,
	})
	if err != nil {
		return err
	}

	m.health = health.NewManager(m.cfg.Version)
	m.health.RegisterChecker(health.NewDMXChecker(m.cfg.DMX.Driver, m.arbiter.LastError))
	m.health.RegisterChecker(health.NewControllerChecker(m.heartbeat.Connected))
	m.health.RegisterChecker(health.NewDirChecker("data_dir", m.cfg.DataDir))

	return m.openHTTP()
}

func (m *manager) openHTTP() error {
	ln := m.deps.HTTPListener
	if ln == nil {
		if m.cfg.HTTP.Listen == "" {
			return nil
		}
		l, err := net.Listen("tcp", m.cfg.HTTP.Listen)
		if err != nil {
			return fmt.Errorf("status server: %w", err)
		}
		ln = l
	}
	m.httpListener = ln
	m.httpServer = &http.Server{
		Handler:           m.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}

// serveHTTP runs the status server until ctx ends.
func (m *manager) serveHTTP(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		m.logger.Info().
			Str(log.FieldEvent, "http.listening").
			Str("addr", m.httpListener.Addr().String()).
			Msg("status server listening")
		if err := m.httpServer.Serve(m.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("status server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
	defer cancel()
	if err := m.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	return <-errCh
}

// Shutdown runs the registered hooks in reverse order. It is safe to call
// more than once; only the first call does any work.
func (m *manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}

	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	hooks := append([]namedHook(nil), m.shutdownHooks...)
	m.mu.Unlock()

	var errs []error
	m.logger.Debug().Int("hooks", len(hooks)).Msg("executing shutdown hooks")
	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		hookStart := time.Now()
		if err := hook.hook(ctx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
			continue
		}
		m.logger.Debug().
			Str("hook", hook.name).
			Dur("duration", time.Since(hookStart)).
			Msg("shutdown hook completed")
	}

	if len(errs) > 0 {
		m.logger.Error().Int("error_count", len(errs)).Msg("shutdown completed with errors")
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	m.logger.Info().Str(log.FieldEvent, "daemon.stopped").Msg("daemon stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function to be called during shutdown.
// Hooks are executed in reverse registration order (LIFO).
func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
	m.logger.Debug().Str("hook", name).Msg("registered shutdown hook")
}

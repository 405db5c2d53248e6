package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor"
	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/internal/demo"
	"github.com/vango-dev/reactor/pkg/archive"
	"github.com/vango-dev/reactor/pkg/backend/stream"
	"github.com/vango-dev/reactor/pkg/metrics"
	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/telemetry"
)

func serveCmd(c *cli) *cobra.Command {
	var (
		addr        string
		archiveName string
		origins     []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live todo demo over websockets",
		Long: `Run the todo list on an event loop and stream its patches.

A ticker mutates the list. Every flush becomes one ops frame that is
sent to each client connected at /ws. Clients that connect late first
receive the history, or a snapshot when the history has wrapped.

Endpoints:
  /ws        binary frame stream
  /metrics   Prometheus metrics (serve.metricsPath)
  /history   recent frames as JSON
  /log       complete frame log, readable by reactor replay
  /tree      outline of the streamed tree

Examples:
  reactor serve
  reactor serve --addr :9090 --archive session-1
  reactor serve --allow-origin http://localhost:5173`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Serve.Addr = addr
			}
			c.cfg.Serve.AllowedOrigins = append(c.cfg.Serve.AllowedOrigins, origins...)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := newServer(c.cfg, slog.Default())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printBanner(out)
			info(out, "Streaming session %s", s.hub.Session())
			info(out, "Listening on %s", c.cfg.Serve.Addr)
			info(out, "Press Ctrl+C to stop")

			if err := s.run(ctx, c.cfg.Serve.Addr); err != nil {
				return err
			}
			if archiveName != "" {
				if err := s.archive(context.Background(), c.cfg, archiveName); err != nil {
					return err
				}
				success(out, "Archived %s", archiveName)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from reactor.json)")
	cmd.Flags().StringVar(&archiveName, "archive", "", "Store the frame log under this name on shutdown")
	cmd.Flags().StringSliceVar(&origins, "allow-origin", nil, "Accept websocket clients from this origin (repeatable, \"*\" for any)")

	return cmd
}

// server is the serve command's state. The todo list is only touched on the
// loop goroutine.
// originCheck accepts the listed origins on top of the upgrader's same-origin
// check. It returns nil when nothing is listed so the upgrader default applies.
func originCheck(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimSuffix(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] || set[origin] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

type server struct {
	cfg      *config.Config
	app      *reactor.App
	backend  *stream.Backend
	hub      *stream.Hub
	todos    *demo.Todos
	registry *prometheus.Registry
	metrics  *metrics.Collector
	logger   *slog.Logger
	ticks    int
}

func newServer(cfg *config.Config, logger *slog.Logger) (*server, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New(metrics.WithRegistry(registry))
	tracer := telemetry.New(telemetry.WithTracerName("reactor.serve"))

	hub := stream.NewHub(
		stream.WithHistorySize(cfg.Stream.HistorySize),
		stream.WithClientBuffer(cfg.Stream.ClientBuffer),
		stream.WithWriteTimeout(cfg.WriteTimeout()),
		stream.WithCheckOrigin(originCheck(cfg.Serve.AllowedOrigins)),
		stream.WithHubLogger(logger),
	)
	backend := stream.New(
		stream.WithSink(hub),
		stream.WithSession(hub.Session()),
		stream.WithLogger(logger),
		stream.WithFrameObserver(collector.FrameSent),
	)

	app := reactor.New(
		reactor.WithConfig(cfg),
		reactor.WithBackend(backend),
		reactor.WithExecutor(reactive.NewLoop(0, logger)),
		reactor.WithLogger(logger),
		reactor.WithInstrumentation(collector),
		reactor.WithInstrumentation(tracer),
		reactor.WithOpObserver(collector),
		reactor.WithOpObserver(tracer),
	)

	todos, err := demo.New(app, "Live todos")
	if err != nil {
		return nil, err
	}
	for _, text := range []string{"connect a client", "watch the patches", "check /metrics"} {
		todos.Add(text)
	}
	if err := todos.Mount(nil); err != nil {
		return nil, err
	}
	if err := backend.Flush(context.Background()); err != nil {
		return nil, err
	}

	return &server{
		cfg:      cfg,
		app:      app,
		backend:  backend,
		hub:      hub,
		todos:    todos,
		registry: registry,
		metrics:  collector,
		logger:   logger.With("component", "serve"),
	}, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "reactor %s\nsession %s\nclients %d\n", version, s.hub.Session(), s.hub.Clients())
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/ws", s.hub)
	r.Handle(s.cfg.Serve.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	r.Get("/history", s.handleHistory)
	r.Get("/log", s.handleLog)
	r.Get("/tree", s.handleTree)
	return r
}

// historyEntry is one /history item.
type historyEntry struct {
	Seq    uint64    `json:"seq"`
	Bytes  int       `json:"bytes"`
	SentAt time.Time `json:"sentAt"`
	Frame  string    `json:"frame"`
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries := s.hub.History().Entries()
	out := make([]historyEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntry{
			Seq:    e.Seq,
			Bytes:  len(e.Frame),
			SentAt: e.SentAt,
			Frame:  fmt.Sprintf("%x", e.Frame),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.logger.Warn("write history", "error", err)
	}
}

func (s *server) handleLog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/octet-stream")
	for _, frame := range s.hub.Log() {
		if _, err := w.Write(frame); err != nil {
			return
		}
	}
}

func (s *server) handleTree(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, s.hub.Dump())
}

// tick applies one scripted mutation on the loop and sends the resulting
// frame once the flush has run.
func (s *server) tick(ctx context.Context) error {
	return s.app.Dispatch(func() {
		s.ticks++
		step := demo.Tick(s.todos, s.ticks)
		s.app.NextTick(func() {
			if err := s.backend.Flush(ctx); err != nil {
				s.logger.Warn("flush failed", "error", err)
			}
			s.metrics.SetClients(s.hub.Clients())
			s.metrics.SetTreeSize(s.app.MemoryUsage())
		})
		s.logger.Debug("tick", "n", s.ticks, "step", step)
	})
}

// run serves HTTP and drives the loop until ctx is done.
func (s *server) run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- s.app.Run(ctx) }()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ticker := time.NewTicker(s.cfg.TickInterval())
	defer ticker.Stop()

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err, ok := <-serveErr:
			if ok {
				runErr = err
			}
			break loop
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				s.logger.Warn("tick failed", "error", err)
			}
		}
	}

	s.logger.Info("shutting down")
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	if ctx.Err() != nil {
		if err := <-loopDone; err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}

// archive stores the hub's frame log under name.
func (s *server) archive(ctx context.Context, cfg *config.Config, name string) error {
	if err := archive.ValidName(name); err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	return archive.Save(ctx, store, name, s.hub.Log())
}

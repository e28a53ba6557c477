package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HMasataka/spotlight/internal/handler"
	"github.com/HMasataka/spotlight/internal/observe"
	"github.com/HMasataka/spotlight/pkg/speaker"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sourcegraph/jsonrpc2"
	wsjsonrpc2 "github.com/sourcegraph/jsonrpc2/websocket"
	"golang.org/x/sync/errgroup"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type options struct {
	addr          string
	configPath    string
	debounceDelay time.Duration
	logLevel      slog.Level
}

func parseFlags(args []string) (options, error) {
	var o options

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&o.addr, "addr", ":8080", "server address")
	fs.StringVar(&o.configPath, "config", "", "config file path (.toml, .yaml)")
	fs.DurationVar(&o.debounceDelay, "broadcast-debounce", 100*time.Millisecond, "debounce delay for active speaker broadcasts")
	fs.TextVar(&o.logLevel, "log-level", slog.LevelInfo, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: o.logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(o.addr, o.configPath, o.debounceDelay); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(addr, configPath string, debounceDelay time.Duration) error {
	cfg := speaker.DefaultConfig()
	if configPath != "" {
		loaded, err := speaker.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	promRegistry := prometheus.NewRegistry()
	mp, shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{Registerer: promRegistry})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			slog.Error("failed to shutdown meter provider", "error", err)
		}
	}()

	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		return err
	}

	engine, err := speaker.NewEngine(cfg, speaker.WithRecorder(metrics))
	if err != nil {
		return err
	}
	defer engine.Close()

	broadcaster := handler.NewBroadcaster(debounceDelay)
	broadcaster.Attach(engine)

	registry := handler.NewRegistry()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handleWebSocket(ctx, engine, broadcaster, registry, metrics))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return engine.Run(gctx)
	})

	g.Go(func() error {
		slog.Info("server starting", "addr", addr, "active_speakers", cfg.NumberOfActiveSpeakers)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func handleWebSocket(ctx context.Context, engine *speaker.Engine, broadcaster *handler.Broadcaster, registry *handler.Registry, metrics *observe.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("failed to upgrade connection", "error", err)
			return
		}

		h := handler.NewHandler(engine, handler.WithRecorder(metrics), handler.WithRegistry(registry))
		conn := jsonrpc2.NewConn(ctx, wsjsonrpc2.NewObjectStream(wsConn), h)

		id := broadcaster.Add(conn)
		metrics.RecordConnection(ctx, 1)
		slog.Info("client connected", "client_id", id, "remote_addr", r.RemoteAddr)

		select {
		case <-conn.DisconnectNotify():
		case <-ctx.Done():
			conn.Close()
		}

		broadcaster.Remove(id)
		h.Close()
		metrics.RecordConnection(context.Background(), -1)
		slog.Info("client disconnected", "client_id", id)
	}
}

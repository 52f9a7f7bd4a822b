package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/toyc/toycc/pkg/cache"
	"github.com/toyc/toycc/pkg/config"
	"github.com/toyc/toycc/pkg/errors"
	"github.com/toyc/toycc/pkg/logging"
	"github.com/toyc/toycc/pkg/metrics"
	"github.com/toyc/toycc/pkg/pipeline"
	"github.com/toyc/toycc/pkg/store"
	"github.com/toyc/toycc/pkg/tracing"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the toycc compile daemon (HTTP + WebSocket)",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "override the serve address from config")
	return cmd
}

// streamEvent is the single JSON message /compile/stream sends back per
// request: Stage is "cache" for a cache hit and "emit" otherwise, carrying
// either the assembly text or a diagnostic.
type streamEvent struct {
	Stage string `json:"stage"`
	OK    bool   `json:"ok"`
	Asm   string `json:"asm,omitempty"`
	Error string `json:"error,omitempty"`
}

// upgrader allows all origins, matching the teacher's pkg/websocket
// default (a production deployment would restrict this via config).
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return fatalf("loading config: %w", err)
	}
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.ServeAddr
	}

	logger := logging.New(os.Stderr, logLevelFromString(cfg.LogLevel), logFormatFromString(cfg.LogFormat))
	m := metrics.New()

	exporter := "stdout"
	if cfg.TracingEndpoint != "" {
		exporter = "otlp"
	}
	tp, err := tracing.Init(tracing.Config{Exporter: exporter, OTLPEndpoint: cfg.TracingEndpoint})
	if err != nil {
		return fatalf("initializing tracing: %w", err)
	}
	defer tp.Shutdown(context.Background())

	var redisTier *cache.RedisTier
	if cfg.CacheBackend == "redis" {
		redisTier = cache.NewRedisTier(cfg.RedisAddr, time.Hour)
		defer redisTier.Close()
	}
	compiled := cache.NewCompiled(cfg.CacheCapacity, redisTier)

	ctx := context.Background()
	auditLog, err := store.Open(ctx, cfg.StorePath)
	if err != nil {
		return fatalf("opening audit log: %w", err)
	}
	defer auditLog.Close()

	srv := &server{
		pipeline: pipeline.New(logger, m),
		metrics:  m,
		cache:    compiled,
		store:    auditLog,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealthz)
	mux.Handle(cfg.MetricsPath, m.Handler())
	mux.HandleFunc("/compile/stream", srv.handleCompileStream)

	httpSrv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		printInfo(fmt.Sprintf("toycc serve listening on %s", addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			printError(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

type server struct {
	pipeline *pipeline.Pipeline
	metrics  *metrics.Metrics
	cache    *cache.Compiled
	store    *store.Store
	logger   *logging.Logger
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleCompileStream upgrades to a WebSocket connection, reads a single
// ToyC source payload, runs the whole pipeline (or answers from the
// cache), and writes one terminal JSON event holding the assembly text or
// a structured diagnostic; no per-stage events are sent. Grounded on the teacher's
// pkg/websocket connection handling, repurposed from multi-client
// chat-room broadcast to single-client stage-by-stage streaming.
func (s *server) handleCompileStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	_, payload, err := conn.ReadMessage()
	if err != nil {
		return
	}
	source := string(payload)
	ctx := r.Context()

	compileID := uuid.NewString()
	if asm, ok, err := s.cache.Lookup(ctx, source); err == nil && ok {
		conn.WriteJSON(streamEvent{Stage: "cache", OK: true, Asm: asm})
		s.recordHistory(ctx, compileID, source, "ok", "", asm)
		return
	}

	result, err := s.pipeline.Compile(ctx, compileID, source)
	if err != nil {
		msg := err.Error()
		if ce, ok := err.(*errors.CompileError); ok {
			msg = errors.Format(ce)
		}
		conn.WriteJSON(streamEvent{Stage: "emit", OK: false, Error: msg})
		s.recordHistory(ctx, compileID, source, "error", msg, "")
		return
	}

	conn.WriteJSON(streamEvent{Stage: "emit", OK: true, Asm: result.Asm})
	s.cache.Store(ctx, source, result.Asm)
	s.recordHistory(ctx, compileID, source, "ok", "", result.Asm)
}

func (s *server) recordHistory(ctx context.Context, compileID, source, result, errMsg, asm string) {
	lines := 0
	for _, r := range asm {
		if r == '\n' {
			lines++
		}
	}
	rec := store.Record{
		CompileID:  compileID,
		SourceHash: cache.Key(source),
		StartedAt:  time.Now(),
		Result:     result,
		Error:      errMsg,
		AsmLines:   lines,
	}
	if err := s.store.Record(ctx, rec); err != nil {
		s.logger.Warn("failed to record compile history", map[string]any{"error": err.Error()})
	}
}

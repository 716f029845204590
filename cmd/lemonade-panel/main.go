package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lemonade-panel/internal/action"
	"lemonade-panel/internal/config"
	"lemonade-panel/internal/history"
	"lemonade-panel/internal/lemonade"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(2)
	}

	logger := newLogger(cfg.LogLevel)
	logConfig(logger, cfg)

	metrics := lemonade.NewMetrics()
	client := lemonade.NewClient(cfg, logger, metrics)
	logger.Info("resolved host candidates", "candidates", strings.Join(client.Candidates(), ","))

	store := openHistory(cfg, logger)
	defer store.Close()

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "err", err)
			}
		}()
	}

	// Ctrl-C cancels an in-flight request instead of killing the process
	// mid-write.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	host := &terminalHost{in: bufio.NewReader(os.Stdin), out: os.Stderr, logger: logger}

	// The terminal operator owns the process, so they get the admin role.
	body := &action.Body{
		Messages: []action.Message{{Role: "assistant"}},
		Role:     cfg.AdminRole,
	}

	a := action.New(cfg, client, host, store, logger)
	a.Run(ctx, body)

	fmt.Println(body.Messages[len(body.Messages)-1].Content)

	if metricsSrv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(sctx)
	}
}

// openHistory wires the configured history backend, degrading from sqlite
// to memory when the database cannot be opened.
func openHistory(cfg config.Config, logger *slog.Logger) history.Store {
	switch cfg.History {
	case config.HistorySQLite:
		s, err := history.NewSQLiteStore(cfg.HistoryPath, cfg.HistoryMaxRows, logger)
		if err != nil {
			logger.Warn("sqlite history unavailable, falling back to memory", "err", err)
			return history.NewMemoryStore(cfg.HistoryMaxRows)
		}
		return s
	case config.HistoryMemory:
		return history.NewMemoryStore(cfg.HistoryMaxRows)
	default:
		return history.NopStore{}
	}
}

// terminalHost adapts the panel's host contract to a terminal session:
// prompts read a line from stdin, status and notifications go to the log.
type terminalHost struct {
	in     *bufio.Reader
	out    *os.File
	logger *slog.Logger
}

func (h *terminalHost) ReportStatus(_ context.Context, description string, done bool) {
	h.logger.Info("status", "description", description, "done", done)
}

func (h *terminalHost) Notify(_ context.Context, level action.NotifyLevel, content string) {
	switch level {
	case action.NotifyError:
		h.logger.Error(content)
	case action.NotifyWarning:
		h.logger.Warn(content)
	default:
		h.logger.Info(content)
	}
}

func (h *terminalHost) PromptForText(_ context.Context, p action.Prompt) (string, bool) {
	fmt.Fprintf(h.out, "\n== %s ==\n%s\n", p.Title, p.Message)
	if p.Placeholder != "" {
		fmt.Fprintf(h.out, "[%s]> ", p.Placeholder)
	} else {
		fmt.Fprint(h.out, "> ")
	}

	line, err := h.in.ReadString('\n')
	if err != nil {
		// EOF counts as a cancelled modal.
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

func newLogger(level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	switch level {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "info":
		lvl.Set(slog.LevelInfo)
	case "warn", "warning":
		lvl.Set(slog.LevelWarn)
	case "error":
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelInfo)
	}

	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}

func logConfig(logger *slog.Logger, cfg config.Config) {
	logger.Info("configuration",
		"variant", string(cfg.Variant),
		"base_url", cfg.BaseURL,
		"docker_host_alias", cfg.DockerHostAlias,
		"timeout", cfg.Timeout,
		"pull_timeout", cfg.PullTimeout,
		"delete_timeout", cfg.DeleteTimeout,
		"history", string(cfg.History),
		"history_path", cfg.HistoryPath,
		"history_max_rows", cfg.HistoryMaxRows,
		"metrics_addr", cfg.MetricsAddr,
		"model_list_limit", cfg.ModelListLimit,
		"log_level", cfg.LogLevel,
	)
}

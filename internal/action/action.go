// Package action implements the control panel's command dispatcher.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"lemonade-panel/internal/config"
	"lemonade-panel/internal/history"
	"lemonade-panel/internal/lemonade"
	"lemonade-panel/internal/panel"
)

// fetchFunc issues the single request behind a direct command.
type fetchFunc func(*lemonade.Client, context.Context) (*lemonade.Response, error)

// routes maps known command strings to their endpoint. Commands not listed
// here pass through verbatim as a path suffix under /api/v1.
var routes = map[string]fetchFunc{
	"health": (*lemonade.Client).Health,
	"stats":  (*lemonade.Client).Stats,
	"system": (*lemonade.Client).SystemInfo,
	"live":   (*lemonade.Client).Live,
	"models": func(c *lemonade.Client, ctx context.Context) (*lemonade.Response, error) {
		return c.Models(ctx, false)
	},
}

// Action is one control-panel entry point. All state is per-invocation;
// the struct itself only holds read-only collaborators.
type Action struct {
	cfg    config.Config
	client *lemonade.Client
	host   Host
	store  history.Store
	logger *slog.Logger
}

// New creates the dispatcher. Nil host, store and logger degrade to no-ops.
func New(cfg config.Config, client *lemonade.Client, host Host, store history.Store, logger *slog.Logger) *Action {
	if host == nil {
		host = NopHost{}
	}
	if store == nil {
		store = history.NopStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Action{
		cfg:    cfg,
		client: client,
		host:   host,
		store:  store,
		logger: logger,
	}
}

// Run executes one panel invocation: prompt for a command, dispatch it,
// append the rendered outcome to the chat body.
//
// Run never panics and never returns an error to the host; every failure
// ends up as an error panel or a notification. The terminal "Done" status
// is always emitted.
func (a *Action) Run(ctx context.Context, body *Body) {
	defer a.host.ReportStatus(ctx, "Done", true)
	defer func() {
		// Plugin boundary: the host must never see an unhandled fault.
		if r := recover(); r != nil {
			a.logger.Error("panic in panel invocation", "panic", r)
			a.host.Notify(ctx, NotifyError, fmt.Sprintf("Internal error: %v", r))
		}
	}()

	if a.cfg.Features().AdminGate && body.Role != a.cfg.AdminRole {
		a.logger.Warn("refusing invocation without admin role", "role", body.Role)
		a.host.Notify(ctx, NotifyError, "Admin role required")
		return
	}

	a.host.ReportStatus(ctx, "Waiting for input...", false)

	input, ok := a.host.PromptForText(ctx, Prompt{
		Title:       "Lemonade Control",
		Message:     "Enter command (pull, delete, health, stats) or leave EMPTY for Overview:",
		Placeholder: "Leave empty for full system report",
	})
	cmd := ""
	if ok {
		cmd = strings.ToLower(strings.TrimSpace(input))
	}

	switch cmd {
	case "":
		a.runOverview(ctx, body)
	case "pull", "delete":
		a.runModelCommand(ctx, body, cmd)
	default:
		a.runDirect(ctx, body, cmd)
	}
}

// runOverview fans out across the telemetry endpoints and renders one card
// per probe. A failing probe degrades its own card only.
func (a *Action) runOverview(ctx context.Context, body *Body) {
	a.host.ReportStatus(ctx, "Fetching System Overview...", false)
	start := time.Now()

	probes := a.client.OverviewProbes(a.cfg.Features().LiveProbe)
	results := a.client.FetchAll(ctx, probes)

	body.AppendToLastMessage(panel.RenderOverview(results))
	a.host.ReportStatus(ctx, "Overview Ready", true)

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	errClass := ""
	if failed > 0 {
		errClass = fmt.Sprintf("%d/%d probes failed", failed, len(results))
	}
	a.record(history.Invocation{
		Command:    "overview",
		Endpoint:   "overview",
		Status:     history.StatusSuccess,
		DurationMs: int(time.Since(start).Milliseconds()),
		ErrorClass: errClass,
	})
}

// runModelCommand handles pull and delete: list models, prompt for an ID,
// then issue the one mutating POST. Cancelling the prompt aborts with the
// body untouched and zero requests beyond the listing GET.
func (a *Action) runModelCommand(ctx context.Context, body *Body, cmd string) {
	fetching := "Fetching available models..."
	title := "Pull Model"
	heading := "Available Models to Download:"
	ask := "Enter ID to pull:"
	showAll := true
	if cmd == "delete" {
		fetching = "Fetching installed models..."
		title = "Delete Model"
		heading = "Installed Models:"
		ask = "Enter ID to delete:"
		showAll = false
	}

	a.host.ReportStatus(ctx, fetching, false)

	list, err := a.client.Models(ctx, showAll)
	if err != nil {
		a.logger.Error("failed to list models", "command", cmd, "err", err)
		a.host.Notify(ctx, NotifyError, "Failed to list models: "+err.Error())
		a.record(history.Invocation{
			Command:    cmd,
			Endpoint:   "models",
			Status:     history.StatusTransportError,
			ErrorClass: errorClass(err),
		})
		return
	}

	listStr := fmt.Sprintf("Error fetching list: %d", list.StatusCode)
	if list.StatusCode == http.StatusOK {
		listStr = panel.FormatModelList(list.Body, a.cfg.ModelListLimit)
	}

	name, ok := a.host.PromptForText(ctx, Prompt{
		Title:       title,
		Message:     heading + "\n\n" + listStr + "\n\n" + ask,
		Placeholder: "Qwen3-14B-GGUF",
	})
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		a.record(history.Invocation{Command: cmd, Endpoint: cmd, Status: history.StatusCanceled})
		return
	}

	a.host.ReportStatus(ctx, "Executing "+cmd+"...", false)
	start := time.Now()

	var resp *lemonade.Response
	if cmd == "pull" {
		resp, err = a.client.Pull(ctx, name)
	} else {
		resp, err = a.client.Delete(ctx, name)
	}
	a.finish(ctx, body, cmd, resp, err, start)
}

// runDirect handles every other command via the route table, or verbatim
// pass-through for commands it has never heard of.
func (a *Action) runDirect(ctx context.Context, body *Body, cmd string) {
	a.host.ReportStatus(ctx, "Executing "+cmd+"...", false)
	start := time.Now()

	var resp *lemonade.Response
	var err error
	if fetch, ok := routes[cmd]; ok {
		resp, err = fetch(a.client, ctx)
	} else {
		resp, err = a.client.Get(ctx, cmd)
	}
	a.finish(ctx, body, cmd, resp, err, start)
}

// finish renders the outcome, notifies the host and records the invocation.
func (a *Action) finish(ctx context.Context, body *Body, cmd string, resp *lemonade.Response, err error, start time.Time) {
	durationMs := int(time.Since(start).Milliseconds())

	if err != nil {
		a.logger.Error("request failed", "command", cmd, "err", err)
		body.AppendToLastMessage(panel.RenderError(err.Error()))
		a.host.Notify(ctx, NotifyError, "Connection Failed")
		a.record(history.Invocation{
			Command:    cmd,
			Endpoint:   cmd,
			Status:     history.StatusTransportError,
			DurationMs: durationMs,
			ErrorClass: errorClass(err),
		})
		return
	}

	body.AppendToLastMessage(panel.RenderResponse(cmd, resp))

	level := NotifySuccess
	status := history.StatusSuccess
	if !resp.OK() {
		level = NotifyWarning
		status = history.StatusHTTPError
	}
	a.host.Notify(ctx, level, fmt.Sprintf("Request completed (%d)", resp.StatusCode))
	a.record(history.Invocation{
		Command:    cmd,
		Endpoint:   cmd,
		Status:     status,
		HTTPStatus: resp.StatusCode,
		DurationMs: durationMs,
	})
}

// record stamps and stores one history row. Storage failures are logged,
// never surfaced.
func (a *Action) record(inv history.Invocation) {
	inv.ID = uuid.NewString()
	inv.TS = time.Now().UnixMilli()
	if err := a.store.Insert(&inv); err != nil {
		a.logger.Error("failed to record invocation", "err", err)
	}
}

// errorClass buckets a transport error for history rows.
func errorClass(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "timeout"
	}
	return "transport"
}

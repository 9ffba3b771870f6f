/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cli implements panelctl, the operator tool for a running panel
// server.
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/carverauto/panelsync/pkg/models"
)

const defaultWatchInterval = 500 * time.Millisecond

var subcommands = map[string]SubcommandHandler{
	"status":      noFlagsHandler{name: "status"},
	"health":      noFlagsHandler{name: "health"},
	"sync":        SyncHandler{},
	"progress":    ProgressHandler{},
	"logs":        LogsHandler{},
	"auto-update": noFlagsHandler{name: "auto-update"},
}

// ParseFlags parses the global options and the subcommand in args, which
// excludes the program name.
func ParseFlags(args []string) (*CmdConfig, error) {
	fs := flag.NewFlagSet("panelctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	serverURL := fs.String("server", envOr("PANEL_URL", defaultServerURL), "panel base URL")
	timeout := fs.Duration("timeout", defaultTimeout, "request timeout")
	asJSON := fs.Bool("json", false, "print raw JSON responses")
	help := fs.Bool("help", false, "show help message")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := &CmdConfig{
		Help:      *help,
		ServerURL: *serverURL,
		Timeout:   *timeout,
		JSON:      *asJSON,
		Interval:  defaultWatchInterval,
	}

	rest := fs.Args()
	if len(rest) == 0 {
		cfg.Help = true
		return cfg, nil
	}

	cfg.SubCmd = rest[0]

	handler, ok := subcommands[cfg.SubCmd]
	if !ok {
		return cfg, fmt.Errorf("%w: %s", errUnknownCommand, cfg.SubCmd)
	}

	if err := handler.Parse(rest[1:], cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

type noFlagsHandler struct {
	name string
}

func (h noFlagsHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet(h.name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing %s flags: %w", h.name, err)
	}

	cfg.Args = fs.Args()

	return nil
}

// SyncHandler handles flags for the sync subcommand.
type SyncHandler struct{}

// Parse processes the command-line arguments for the sync subcommand.
func (SyncHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	what := fs.String("what", string(models.SyncAll), "ui, videos or all")
	force := fs.Bool("force", false, "re-download even when unchanged")
	respectTTL := fs.Bool("respect-ttl", false, "skip items fetched within their TTL")
	wait := fs.Bool("wait", false, "block until the job finishes")
	watch := fs.Bool("watch", false, "follow the job with a live view")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing sync flags: %w", err)
	}

	kind, err := models.ParseSyncKind(strings.ToLower(*what))
	if err != nil {
		return err
	}

	cfg.Kind = string(kind)
	cfg.Force = *force
	cfg.RespectTTL = *respectTTL
	cfg.Wait = *wait
	cfg.Watch = *watch
	cfg.Args = fs.Args()

	return nil
}

// ProgressHandler handles flags for the progress subcommand.
type ProgressHandler struct{}

// Parse processes the command-line arguments for the progress subcommand.
func (ProgressHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet("progress", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	id := fs.String("id", "", "sync id")
	watch := fs.Bool("watch", false, "follow the job until it finishes")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing progress flags: %w", err)
	}

	cfg.SyncID = *id
	if cfg.SyncID == "" && fs.NArg() > 0 {
		cfg.SyncID = fs.Arg(0)
	}

	cfg.Watch = *watch

	return nil
}

// LogsHandler handles flags for the logs subcommand.
type LogsHandler struct{}

// Parse processes the command-line arguments for the logs subcommand.
func (LogsHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet("logs", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	n := fs.Int("n", 0, "number of lines")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing logs flags: %w", err)
	}

	cfg.Lines = *n

	return nil
}

// Run executes the parsed command and writes its output to out.
func Run(ctx context.Context, cfg *CmdConfig, out io.Writer) error {
	if cfg.Help {
		ShowHelp(out)
		return nil
	}

	c := NewClient(cfg.ServerURL, cfg.Timeout)

	switch cfg.SubCmd {
	case "status":
		return runStatus(ctx, c, cfg, out)
	case "health":
		return runHealth(ctx, c, cfg, out)
	case "sync":
		return runSync(ctx, c, cfg, out)
	case "progress":
		return runProgress(ctx, c, cfg, out)
	case "logs":
		return runLogs(ctx, c, cfg, out)
	case "auto-update":
		return runAutoUpdate(ctx, c, cfg, out)
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cfg.SubCmd)
	}
}

func runStatus(ctx context.Context, c *Client, cfg *CmdConfig, out io.Writer) error {
	if cfg.JSON {
		return printRaw(ctx, c, out, http.MethodGet, "/api/status", nil)
	}

	st, err := c.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, renderStatus(&st, newStyles()))

	return nil
}

func runHealth(ctx context.Context, c *Client, cfg *CmdConfig, out io.Writer) error {
	if cfg.JSON {
		return printRaw(ctx, c, out, http.MethodGet, "/healthz", nil)
	}

	h, err := c.Health(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, renderHealth(&h, newStyles()))

	return nil
}

func runSync(ctx context.Context, c *Client, cfg *CmdConfig, out io.Writer) error {
	kind := models.SyncKind(cfg.Kind)
	wait := cfg.Wait && !cfg.Watch

	started, err := c.StartSync(ctx, kind, cfg.Force, cfg.RespectTTL, wait)
	if err != nil {
		return err
	}

	if cfg.JSON {
		return json.NewEncoder(out).Encode(started)
	}

	if started.Job != nil {
		fmt.Fprintln(out, renderJob(started.Job, newStyles()))
		return jobError(started.Job)
	}

	if cfg.Watch {
		return watchJob(ctx, c, started.SyncID, cfg.Interval, out)
	}

	fmt.Fprintf(out, "started %s sync %s\n", started.What, started.SyncID)

	return nil
}

func runProgress(ctx context.Context, c *Client, cfg *CmdConfig, out io.Writer) error {
	id := cfg.SyncID
	if id == "" {
		last, err := c.Last(ctx, models.SyncAll)
		if err != nil {
			return err
		}

		if last == "" {
			return errMissingSyncID
		}

		id = last
	}

	if cfg.Watch {
		return watchJob(ctx, c, id, cfg.Interval, out)
	}

	job, err := c.Progress(ctx, id)
	if err != nil {
		return err
	}

	if cfg.JSON {
		return json.NewEncoder(out).Encode(job)
	}

	fmt.Fprintln(out, renderJob(&job, newStyles()))

	return nil
}

func runLogs(ctx context.Context, c *Client, cfg *CmdConfig, out io.Writer) error {
	lines, err := c.Logs(ctx, cfg.Lines)
	if err != nil {
		return err
	}

	for _, l := range lines {
		fmt.Fprintln(out, l)
	}

	return nil
}

func runAutoUpdate(ctx context.Context, c *Client, cfg *CmdConfig, out io.Writer) error {
	var (
		st  models.AutoUpdateStatus
		err error
	)

	action := "status"
	if len(cfg.Args) > 0 {
		action = strings.ToLower(cfg.Args[0])
	}

	switch action {
	case "status":
		st, err = c.AutoUpdate(ctx)
	case "on", "enable":
		st, err = c.SetAutoUpdate(ctx, true)
	case "off", "disable":
		st, err = c.SetAutoUpdate(ctx, false)
	default:
		return fmt.Errorf("%w: %q", errMissingEnable, action)
	}

	if err != nil {
		return err
	}

	if cfg.JSON {
		return json.NewEncoder(out).Encode(st)
	}

	fmt.Fprintln(out, renderAutoUpdate(&st, newStyles()))

	return nil
}

func printRaw(ctx context.Context, c *Client, out io.Writer, method, path string, body interface{}) error {
	data, err := c.Raw(ctx, method, path, nil, body)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, strings.TrimSpace(string(data)))

	return err
}

func jobError(job *models.SyncJob) error {
	if job.Succeeded != nil && !*job.Succeeded {
		if job.Error != "" {
			return fmt.Errorf("%w: %s", errJobFailed, job.Error)
		}

		return errJobFailed
	}

	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}

	return def
}

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

// Package actions drives the local media player and the remote device:
// video playback, the start/stop show flows and IR/GPIO commands.
package actions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/carverauto/panelsync/pkg/device"
	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
)

const (
	// DefaultStartDelay is how long the start show waits before opening YouTube.
	DefaultStartDelay = 45 * time.Second
	// DefaultStopDelay separates the two relays when the show stops.
	DefaultStopDelay = 3 * time.Second

	defaultSettle = 150 * time.Millisecond
	welcomeKey    = "welcome"
	muteCommand   = "MUTE"
	mediaStopKey  = "86"
	youtubeURL    = "https://www.youtube.com"
)

var (
	// ErrInvalidCommand is returned when an IR or GPIO request is missing a field.
	ErrInvalidCommand = errors.New("invalid device command")
	// ErrUnknownRelay is returned for a relay name without a GPIO pin.
	ErrUnknownRelay = errors.New("unknown relay")

	errFileNotFound = errors.New("file not found")
)

var irAliases = map[string]string{
	"UP":   "VOL_UP",
	"DOWN": "VOL_DOWN",
}

// DeviceCommander sends commands to the remote device.
type DeviceCommander interface {
	SendIR(ctx context.Context, zone, command string) (interface{}, error)
	SetGPIO(ctx context.Context, pin int, on bool) (interface{}, error)
}

// VideoLocator resolves a video key to its local path.
type VideoLocator interface {
	Path(key string) (string, error)
}

// StepResult is the outcome of one step of a flow.
type StepResult struct {
	Step   string `json:"step"`
	OK     bool   `json:"ok"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Report is the outcome of a flow. OK covers the required steps only;
// every step runs regardless of earlier failures.
type Report struct {
	OK    bool         `json:"ok"`
	Steps []StepResult `json:"steps"`
}

// PlayResult describes a playback attempt.
type PlayResult struct {
	OK     bool   `json:"ok"`
	Path   string `json:"path"`
	URI    string `json:"uri,omitempty"`
	Method string `json:"method,omitempty"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

type step struct {
	name     string
	required bool
	run      func(ctx context.Context) (string, error)
}

// Runner executes actions. Playback and the show flows hold the action
// mutex so they never interleave.
type Runner struct {
	exec   Executor
	device DeviceCommander
	videos VideoLocator
	store  poller.ConfigStore
	logger logger.Logger

	settle time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
	after  func(d time.Duration, fn func()) func() bool

	mu sync.Mutex

	pendingMu sync.Mutex
	pending   func() bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithSleep replaces the wait used between steps.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) {
		r.sleep = fn
	}
}

// WithScheduler replaces the timer used for delayed steps. fn must return a
// function that cancels the pending call.
func WithScheduler(fn func(d time.Duration, f func()) func() bool) Option {
	return func(r *Runner) {
		r.after = fn
	}
}

// WithSettle sets the pause between stopping the player and starting playback.
func WithSettle(d time.Duration) Option {
	return func(r *Runner) {
		r.settle = d
	}
}

// NewRunner creates a Runner.
func NewRunner(exec Executor, dev DeviceCommander, videos VideoLocator, store poller.ConfigStore, log logger.Logger,
	opts ...Option) *Runner {
	r := &Runner{
		exec:   exec,
		device: dev,
		videos: videos,
		store:  store,
		logger: log,
		settle: defaultSettle,
		sleep:  sleepCtx,
		after: func(d time.Duration, fn func()) func() bool {
			return time.AfterFunc(d, fn).Stop
		},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PlayVideo plays a known video by key.
func (r *Runner) PlayVideo(ctx context.Context, key string) (PlayResult, error) {
	path, err := r.videoPath(key)
	if err != nil {
		return PlayResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.play(ctx, path), nil
}

// PlayFile plays an arbitrary local file.
func (r *Runner) PlayFile(ctx context.Context, path string) PlayResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.play(ctx, path)
}

func (r *Runner) videoPath(key string) (string, error) {
	if key == welcomeKey {
		if p := strings.TrimSpace(r.store.Get().WelcomeVideoPath); p != "" {
			return p, nil
		}
	}

	return r.videos.Path(key)
}

func (r *Runner) play(ctx context.Context, path string) PlayResult {
	res := PlayResult{Path: path}

	abs, err := resolveFile(path)
	if err != nil {
		res.Error = err.Error()
		r.logger.Warn().Str("path", path).Err(err).Msg("Video not playable")

		return res
	}

	r.stopPlayer(ctx)

	if err := r.sleep(ctx, r.settle); err != nil {
		res.Error = err.Error()
		return res
	}

	res.URI = "file:///" + strings.TrimLeft(filepath.ToSlash(abs), "/")

	out, err := r.exec.Run(ctx, viewIntent(res.URI, r.store.Get().VideoPlay.IntentFlags))
	if err == nil && !looksLikeError(out) {
		res.OK, res.Method, res.Output = true, "intent", out
		r.logger.Info().Str("path", abs).Msg("Video started")

		return res
	}

	r.logger.Warn().Str("path", abs).Str("output", out).Err(err).Msg("View intent failed, trying termux-open")

	out, err = r.exec.Run(ctx, []string{"termux-open", abs})
	res.Method, res.Output = "termux-open", out

	if err != nil {
		res.Error = err.Error()
		r.logger.Error().Str("path", abs).Err(err).Msg("Video playback failed")

		return res
	}

	res.OK = true

	return res
}

func resolveFile(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", errFileNotFound, path)
	}

	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", errFileNotFound, path)
	}

	return abs, nil
}

func viewIntent(uri, flags string) []string {
	argv := []string{"am", "start", "-a", "android.intent.action.VIEW", "-d", uri, "-t", "video/mp4"}
	if flags != "" {
		argv = append(argv, "-f", flags)
	}

	return argv
}

func looksLikeError(out string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(out)), "error")
}

// stopPlayer sends the media stop key, optionally returns HOME and
// force-stops the configured packages. Failures are only logged.
func (r *Runner) stopPlayer(ctx context.Context) {
	vp := r.store.Get().VideoPlay

	cmds := [][]string{{"input", "keyevent", mediaStopKey}}
	if vp.PreHome {
		cmds = append(cmds, homeIntent())
	}

	for _, pkg := range vp.ForceStopPkgs {
		cmds = append(cmds, []string{"am", "force-stop", pkg})
	}

	for _, argv := range cmds {
		if out, err := r.exec.Run(ctx, argv); err != nil {
			r.logger.Debug().Strs("argv", argv).Str("output", out).Err(err).Msg("Pre-stop command failed")
		}
	}
}

func homeIntent() []string {
	return []string{"am", "start", "-a", "android.intent.action.MAIN", "-c", "android.intent.category.HOME"}
}

// GoHome returns the kiosk to the launcher.
func (r *Runner) GoHome(ctx context.Context) StepResult {
	return r.runStep(ctx, step{name: "home", run: r.runArgv(homeIntent())})
}

// OpenYouTube opens the YouTube home page.
func (r *Runner) OpenYouTube(ctx context.Context) StepResult {
	return r.runStep(ctx, step{name: "youtube", run: r.runArgv(youtubeIntent())})
}

func youtubeIntent() []string {
	return []string{"am", "start", "-a", "android.intent.action.VIEW", "-d", youtubeURL}
}

func (r *Runner) runArgv(argv []string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		return r.exec.Run(ctx, argv)
	}
}

// StartShow switches both relays on, plays the welcome video and schedules
// YouTube after delay.
func (r *Runner) StartShow(ctx context.Context, delay time.Duration) Report {
	delay = max(0, delay)

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.runSteps(ctx, "start_show", []step{
		{name: "relay_r1_on", run: r.relayStep(models.RelayOne, true)},
		{name: "relay_r2_on", run: r.relayStep(models.RelayTwo, true)},
		{name: "play_welcome", required: true, run: func(ctx context.Context) (string, error) {
			path, err := r.videoPath(welcomeKey)
			if err != nil {
				return "", err
			}

			res := r.play(ctx, path)
			if !res.OK {
				return res.Output, errors.New(res.Error)
			}

			return res.Output, nil
		}},
		{name: "schedule_youtube", required: true, run: func(context.Context) (string, error) {
			r.scheduleYouTube(delay)

			return fmt.Sprintf("youtube in %s", delay), nil
		}},
	})
}

// scheduleYouTube replaces any pending YouTube launch.
func (r *Runner) scheduleYouTube(delay time.Duration) {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()

	if r.pending != nil {
		r.pending()
	}

	r.pending = r.after(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultCommandTimeout)
		defer cancel()

		res := r.runStep(ctx, step{name: "youtube", run: r.runArgv(youtubeIntent())})
		r.logger.Info().Bool("ok", res.OK).Msg("Scheduled YouTube launch")
	})
}

func (r *Runner) cancelYouTube() bool {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()

	if r.pending == nil {
		return false
	}

	stopped := r.pending()
	r.pending = nil

	return stopped
}

// StopShow switches relay r1 off, waits delay, switches relay r2 off and
// returns HOME. A pending YouTube launch is cancelled first.
func (r *Runner) StopShow(ctx context.Context, delay time.Duration) Report {
	delay = max(0, delay)

	if r.cancelYouTube() {
		r.logger.Info().Msg("Cancelled pending YouTube launch")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.runSteps(ctx, "stop_show", []step{
		{name: "relay_r1_off", run: r.relayStep(models.RelayOne, false)},
		{name: "wait", run: func(ctx context.Context) (string, error) {
			return delay.String(), r.sleep(ctx, delay)
		}},
		{name: "relay_r2_off", run: r.relayStep(models.RelayTwo, false)},
		{name: "home", required: true, run: r.runArgv(homeIntent())},
	})
}

func (r *Runner) relayStep(relay string, on bool) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		pin, ok := device.RelayPin(relay)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownRelay, relay)
		}

		if _, err := r.device.SetGPIO(ctx, pin, on); err != nil {
			return "", err
		}

		return fmt.Sprintf("gpio %d %s", pin, onOff(on)), nil
	}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}

	return "OFF"
}

func (r *Runner) runSteps(ctx context.Context, flow string, steps []step) Report {
	rep := Report{OK: true, Steps: make([]StepResult, 0, len(steps))}

	for _, s := range steps {
		res := r.runStep(ctx, s)
		rep.Steps = append(rep.Steps, res)

		if s.required && !res.OK {
			rep.OK = false
		}
	}

	r.logger.Info().Str("flow", flow).Bool("ok", rep.OK).Int("steps", len(rep.Steps)).Msg("Flow finished")

	return rep
}

func (r *Runner) runStep(ctx context.Context, s step) StepResult {
	out, err := s.run(ctx)

	res := StepResult{Step: s.name, OK: err == nil, Output: out}
	if err != nil {
		res.Error = err.Error()
		r.logger.Warn().Str("step", s.name).Err(err).Msg("Step failed")
	}

	return res
}

// SendIR forwards an IR command to zone. MUTE also toggles the zone's mute
// flag, remembering the current volume when muting, and persists it
// immediately.
func (r *Runner) SendIR(ctx context.Context, zone, command string) (interface{}, error) {
	zone = strings.TrimSpace(zone)
	command = strings.TrimSpace(command)

	if zone == "" || command == "" {
		return nil, fmt.Errorf("%w: device and command are required", ErrInvalidCommand)
	}

	if alias, ok := irAliases[strings.ToUpper(command)]; ok {
		command = alias
	}

	r.logger.Info().Str("zone", zone).Str("command", command).Msg("IR command")

	if strings.EqualFold(command, muteCommand) {
		if err := r.toggleMute(zone); err != nil {
			r.logger.Warn().Err(err).Str("zone", zone).Msg("Failed to persist mute state")
		}
	}

	return r.device.SendIR(ctx, zone, command)
}

func (r *Runner) toggleMute(zone string) error {
	key := strings.ToUpper(zone)

	return r.store.Mutate(func(cfg *models.PanelConfig) bool {
		if cfg.MuteState == nil {
			cfg.MuteState = make(map[string]bool)
		}

		if cfg.PrevVolumes == nil {
			cfg.PrevVolumes = make(map[string]int)
		}

		if cfg.MuteState[key] {
			cfg.MuteState[key] = false
			return true
		}

		cfg.PrevVolumes[key] = cfg.ESPState.Volumes[strings.ToLower(zone)]
		cfg.MuteState[key] = true

		return true
	}, true)
}

// SetGPIO drives pin to state. Truthy states ("1", "ON", "HIGH", "TRUE")
// switch it on, anything else switches it off.
func (r *Runner) SetGPIO(ctx context.Context, pin int, state interface{}) (interface{}, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("%w: pin is required", ErrInvalidCommand)
	}

	on := ParseSwitch(state)

	r.logger.Info().Int("pin", pin).Str("state", onOff(on)).Msg("GPIO command")

	return r.device.SetGPIO(ctx, pin, on)
}

// SetRelay drives a named relay.
func (r *Runner) SetRelay(ctx context.Context, relay string, on bool) (interface{}, error) {
	pin, ok := device.RelayPin(relay)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRelay, relay)
	}

	return r.device.SetGPIO(ctx, pin, on)
}

// ParseSwitch interprets a JSON switch value.
func ParseSwitch(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val == 1
	case int:
		return val == 1
	case string:
		switch strings.ToUpper(strings.TrimSpace(val)) {
		case "1", "ON", "HIGH", "TRUE":
			return true
		}
	}

	return false
}

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

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/carverauto/panelsync/pkg/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type progressFetcher interface {
	Progress(ctx context.Context, id string) (models.SyncJob, error)
}

type tickMsg time.Time

type jobMsg models.SyncJob

type fetchErrMsg struct{ err error }

type watchKeys struct {
	Quit key.Binding
}

func defaultWatchKeys() watchKeys {
	return watchKeys{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q", "esc"),
			key.WithHelp("q", "stop watching"),
		),
	}
}

// watchModel follows a sync job until it finishes.
type watchModel struct {
	ctx      context.Context
	client   progressFetcher
	id       string
	interval time.Duration
	keys     watchKeys
	spinner  spinner.Model
	styles   styles

	job     *models.SyncJob
	err     error
	aborted bool
}

func newWatchModel(ctx context.Context, client progressFetcher, id string, interval time.Duration) *watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaPink))

	if interval <= 0 {
		interval = defaultWatchInterval
	}

	return &watchModel{
		ctx:      ctx,
		client:   client,
		id:       id,
		interval: interval,
		keys:     defaultWatchKeys(),
		spinner:  sp,
		styles:   newStyles(),
	}
}

func (m *watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.aborted = true
			return m, tea.Quit
		}
	case jobMsg:
		job := models.SyncJob(msg)
		m.job = &job

		if job.Done {
			return m, tea.Quit
		}

		return m, tick(m.interval)
	case fetchErrMsg:
		m.err = msg.err
		return m, tea.Quit
	case tickMsg:
		return m, m.fetch()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m *watchModel) View() string {
	if m.job == nil {
		return fmt.Sprintf("%s waiting for sync %s\n", m.spinner.View(), m.id)
	}

	head := m.spinner.View() + " "
	if m.job.Done {
		head = ""
	}

	return head + renderJob(m.job, m.styles) + "\n" +
		m.styles.muted.Render(m.keys.Quit.Help().Key+" "+m.keys.Quit.Help().Desc) + "\n"
}

func (m *watchModel) fetch() tea.Cmd {
	return func() tea.Msg {
		job, err := m.client.Progress(m.ctx, m.id)
		if err != nil {
			return fetchErrMsg{err: err}
		}

		return jobMsg(job)
	}
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// watchJob shows a live view on a terminal and polls quietly otherwise. It
// returns an error when the job fails.
func watchJob(ctx context.Context, c progressFetcher, id string, interval time.Duration, out io.Writer) error {
	if !isTerminal(out) {
		return pollJob(ctx, c, id, interval, out)
	}

	m := newWatchModel(ctx, c, id, interval)

	if _, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(out)).Run(); err != nil {
		return err
	}

	if m.err != nil {
		return m.err
	}

	if m.job == nil || m.aborted {
		return nil
	}

	return jobError(m.job)
}

func pollJob(ctx context.Context, c progressFetcher, id string, interval time.Duration, out io.Writer) error {
	if interval <= 0 {
		interval = defaultWatchInterval
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		job, err := c.Progress(ctx, id)
		if err != nil {
			return err
		}

		if job.Done {
			fmt.Fprintln(out, renderJob(&job, newStyles()))
			return jobError(&job)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}

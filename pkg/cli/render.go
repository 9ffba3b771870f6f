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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/carverauto/panelsync/pkg/api"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
	"github.com/charmbracelet/lipgloss"
)

const (
	labelWidth   = 14
	boxPadding   = 1
	barWidth     = 30
	maxShownItem = 6
)

func row(s styles, label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.label.Render(label), s.value.Render(value))
}

func onOff(s styles, on bool, yes, no string) string {
	if on {
		return s.ok.Render(yes)
	}

	return s.fail.Render(no)
}

func renderStatus(st *poller.Status, s styles) string {
	rows := []string{
		s.title.Render("Device"),
		row(s, "online", onOff(s, st.Online, "online", "offline")),
	}

	if st.IP != "" {
		rows = append(rows, row(s, "address", st.IP))
	}

	if st.Via != "" {
		rows = append(rows, row(s, "source", st.Via))
	}

	if st.WiFi {
		wifi := st.SSID
		if st.RSSIdBm != nil {
			wifi += fmt.Sprintf(" (%.0f dBm)", *st.RSSIdBm)
		}

		rows = append(rows, row(s, "wifi", wifi))
	}

	if len(st.Volumes) > 0 {
		rows = append(rows, row(s, "volumes", joinInts(st.Volumes)))
	}

	if len(st.Relays) > 0 {
		rows = append(rows, row(s, "relays", joinInts(st.Relays)))
	}

	if len(st.MuteState) > 0 {
		muted := make([]string, 0, len(st.MuteState))

		for _, k := range sortedKeys(st.MuteState) {
			if st.MuteState[k] {
				muted = append(muted, k)
			}
		}

		if len(muted) > 0 {
			rows = append(rows, row(s, "muted", strings.Join(muted, ", ")))
		}
	}

	rows = append(rows, row(s, "fail streak", fmt.Sprintf("%d", st.FailStreak)))

	if st.LastOKTS > 0 {
		rows = append(rows, row(s, "last ok", time.Unix(st.LastOKTS, 0).Format(time.DateTime)))
	}

	if st.AgeS > 0 {
		rows = append(rows, s.muted.Render(fmt.Sprintf("reading is %.1fs old", st.AgeS)))
	}

	return s.box.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderHealth(h *api.HealthResponse, s styles) string {
	rows := []string{
		s.title.Render("Panel"),
		row(s, "version", h.Version),
		row(s, "uptime", (time.Duration(h.UptimeS) * time.Second).String()),
	}

	if h.DeviceOnline != nil {
		rows = append(rows, row(s, "device", onOff(s, *h.DeviceOnline, "online", "offline")))
	}

	if h.Memory != nil {
		rows = append(rows, row(s, "memory", fmt.Sprintf("%.1f%% used", h.Memory.UsedPercent)))
	}

	if h.Load != nil {
		rows = append(rows, row(s, "load", fmt.Sprintf("%.2f %.2f %.2f", h.Load.Load1, h.Load.Load5, h.Load.Load15)))
	}

	return s.box.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderAutoUpdate(st *models.AutoUpdateStatus, s styles) string {
	rows := []string{
		s.title.Render("Auto-update"),
		row(s, "enabled", onOff(s, st.Enabled, "on", "off")),
	}

	if st.BaseURL != "" {
		rows = append(rows, row(s, "origin", st.BaseURL))
	}

	if st.LastCheck != nil {
		rows = append(rows, row(s, "last check", st.LastCheck.Local().Format(time.DateTime)))
	}

	if st.Enabled {
		rows = append(rows, row(s, "next check", fmt.Sprintf("in %.0fs", st.NextCheckInS)))
	}

	if st.Summary != nil {
		rows = append(rows, row(s, "last result", renderSummary(st.Summary, s)))
	}

	if st.Error != "" {
		rows = append(rows, s.fail.Render(st.Error))
	}

	return s.box.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderJob(job *models.SyncJob, s styles) string {
	state := s.warn.Render("running")

	if job.Done {
		state = s.ok.Render("done")
		if job.Succeeded != nil && !*job.Succeeded {
			state = s.fail.Render("failed")
		}
	}

	summary := job.Summary
	if summary.Total == 0 && len(job.Items) > 0 {
		summary = models.Summarize(job.Items)
	}

	rows := []string{
		s.title.Render(fmt.Sprintf("Sync %s (%s)", job.ID, job.Kind)),
		row(s, "state", state),
		row(s, "progress", progressBar(job.Progress, s)),
		row(s, "items", renderSummary(&summary, s)),
	}

	rows = append(rows, renderItems(job.Items, s)...)

	if job.Error != "" {
		rows = append(rows, s.fail.Render(job.Error))
	}

	return s.box.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderSummary(sum *models.SyncSummary, s styles) string {
	return fmt.Sprintf("%s ok  %s skipped  %s failed  (%d total)",
		s.ok.Render(fmt.Sprint(sum.OK)),
		s.muted.Render(fmt.Sprint(sum.Skipped)),
		s.fail.Render(fmt.Sprint(sum.Failed)),
		sum.Total)
}

// renderItems lists the most recent items, failures first.
func renderItems(items []models.SyncItem, s styles) []string {
	shown := make([]models.SyncItem, 0, maxShownItem)

	for i := len(items) - 1; i >= 0 && len(shown) < maxShownItem; i-- {
		if items[i].Status == models.ItemFailed {
			shown = append(shown, items[i])
		}
	}

	for i := len(items) - 1; i >= 0 && len(shown) < maxShownItem; i-- {
		if items[i].Status != models.ItemFailed {
			shown = append(shown, items[i])
		}
	}

	out := make([]string, 0, len(shown))

	for i := range shown {
		it := &shown[i]

		mark := s.ok.Render("✓")

		switch it.Status {
		case models.ItemSkipped:
			mark = s.muted.Render("-")
		case models.ItemFailed:
			mark = s.fail.Render("✗")
		case models.ItemOK:
		}

		line := fmt.Sprintf("%s %s/%s", mark, it.Kind, it.Name)
		if it.Error != "" {
			line += " " + s.muted.Render(it.Error)
		}

		out = append(out, line)
	}

	return out
}

func progressBar(pct int, s styles) string {
	pct = min(max(pct, 0), 100)
	filled := barWidth * pct / 100

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	return s.ok.Render(bar) + fmt.Sprintf(" %3d%%", pct)
}

func joinInts(m map[string]int) string {
	parts := make([]string, 0, len(m))

	for _, k := range sortedKeys(m) {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}

	return strings.Join(parts, " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/gbarton/yt4kids/internal/api"
	"github.com/gbarton/yt4kids/internal/daemonctl"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

type statusStyle struct {
	label string
	color text.Colors
}

var statusStyles = map[statusKind]statusStyle{
	statusInfo:  {label: "INFO", color: text.Colors{text.FgBlue}},
	statusOK:    {label: "OK", color: text.Colors{text.FgGreen}},
	statusWarn:  {label: "WARN", color: text.Colors{text.FgYellow}},
	statusError: {label: "ERROR", color: text.Colors{text.FgRed}},
}

var headerColor = text.Colors{text.FgBlue, text.Bold}

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

// renderStatusLine formats "  label:   [KIND] message", coloured by kind.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	line := fmt.Sprintf("%s%-*s [%s]", statusIndent, statusLabelWidth, label+":", style.label)
	if message != "" {
		line += " " + message
	}
	if colorize {
		return style.color.Sprint(line)
	}
	return line
}

func statusKindFromSeverity(severity string) statusKind {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "ok":
		return statusOK
	case "warn", "warning":
		return statusWarn
	case "error":
		return statusError
	}
	return statusInfo
}

func renderSectionHeader(title string, colorize bool) []string {
	line := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(line))
	if colorize {
		return []string{headerColor.Sprint(line), headerColor.Sprint(rule)}
	}
	return []string{line, rule}
}

// shouldColorize is true for terminals unless NO_COLOR is set.
func shouldColorize(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func renderStatus(out io.Writer, snapshot *daemonctl.StatusSnapshot, colorize bool) {
	section := func(title string, lines []string) {
		for _, line := range renderSectionHeader(title, colorize) {
			fmt.Fprintln(out, line)
		}
		for _, line := range lines {
			fmt.Fprintln(out, line)
		}
	}
	section("System Status", statusLines(snapshot.SystemChecks, colorize))
	fmt.Fprintln(out)
	section("Dependencies", dependencyLines(snapshot.Dependencies, snapshot.DependencySummary, colorize))
	fmt.Fprintln(out)
	section("Paths", statusLines(snapshot.Paths, colorize))
	fmt.Fprintln(out)

	rows := buildQueueStatusRows(snapshot.Manager.QueueStats)
	if len(rows) == 0 {
		section("Queue Status", []string{"Queue is empty"})
		return
	}
	section("Queue Status", []string{renderTable([]string{"State", "Count"}, rows, 1)})
}

func statusLines(checks []api.StatusLine, colorize bool) []string {
	lines := make([]string, 0, len(checks))
	for _, c := range checks {
		lines = append(lines, renderStatusLine(c.Label, statusKindFromSeverity(c.Severity), c.Detail, colorize))
	}
	return lines
}

func dependencyLines(deps []api.DependencyStatus, summary api.DependencySummary, colorize bool) []string {
	lines := []string{renderStatusLine("Summary", statusKindFromSeverity(summary.Severity), summary.Detail, colorize)}
	var missing []string
	for _, dep := range deps {
		if dep.Available {
			msg := "Ready"
			if dep.Command != "" {
				msg += " (command: " + dep.Command + ")"
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, msg, colorize))
			continue
		}
		severity := valueOr(dep.Severity, api.DependencySeverity(false, dep.Optional))
		lines = append(lines, renderStatusLine(dep.Name, statusKindFromSeverity(severity), valueOr(dep.Detail, "not available"), colorize))
		missing = append(missing, dep.Name)
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}

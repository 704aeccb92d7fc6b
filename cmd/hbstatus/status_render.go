package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"hbstatus/internal/signals"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

var titleCaser = cases.Title(language.Und)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// kindLabel is the panel label for a signal.
func kindLabel(kind signals.Kind) string {
	switch kind {
	case signals.ServiceRunning:
		return "Homebridge"
	case signals.ServiceUpToDate:
		return "Homebridge version"
	case signals.PluginsUpToDate:
		return "Plugins"
	case signals.RuntimeUpToDate:
		return "Node.js"
	default:
		return kind.String()
	}
}

// readingKind maps a reading to a status colour. A stopped service is an
// error; an available update only a warning.
func readingKind(kind signals.Kind, reading signals.Ternary) statusKind {
	switch reading {
	case signals.True:
		return statusOK
	case signals.False:
		if kind == signals.ServiceRunning {
			return statusError
		}
		return statusWarn
	default:
		return statusWarn
	}
}

func titleCase(value string) string {
	return titleCaser.String(strings.ReplaceAll(value, "_", " "))
}

func formatTimestamp(at time.Time, layout string) string {
	if at.IsZero() {
		return "-"
	}
	if strings.TrimSpace(layout) == "" {
		layout = time.RFC3339
	}
	return at.Local().Format(layout)
}

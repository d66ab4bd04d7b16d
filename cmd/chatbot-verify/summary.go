package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/savioxavier/termlink"

	"github.com/integrail/chatbot-verify/pkg/verify"
)

var (
	passedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF3333"))
)

func printSummary(w io.Writer, report *verify.Report) {
	if report == nil {
		return
	}
	status := passedStyle.Render("PASSED")
	if !report.Passed {
		status = failedStyle.Render("FAILED")
	}
	_, _ = fmt.Fprintf(w, "%s run %s with %s in %s\n", status, report.RunID, report.Driver, report.Duration.Round(time.Millisecond))
	if step, ok := report.FailedStep(); ok {
		_, _ = fmt.Fprintf(w, "  step %d (%s): %s\n", step.Index+1, step.Name, step.Error)
	}
	for _, file := range []string{report.Screenshot, report.FailureScreenshot} {
		if file != "" {
			_, _ = fmt.Fprintf(w, "  screenshot: %s\n", fileLink(file))
		}
	}
}

func fileLink(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return termlink.ColorLink(path, "file://"+abs, "italic green")
}

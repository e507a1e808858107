package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/michaelbrown/conceptloop/internal/runner"
	"github.com/michaelbrown/conceptloop/internal/value"
)

var (
	titleColor = color.New(color.Bold, color.FgCyan).SprintFunc()
	hintColor  = color.New(color.FgYellow).SprintFunc()
	passColor  = color.New(color.FgGreen).SprintFunc()
	failColor  = color.New(color.FgRed).SprintFunc()
	dimColor   = color.New(color.FgHiBlack).SprintFunc()
)

// maxLogPreview limits console lines shown per case.
const maxLogPreview = 8

func printReport(w io.Writer, rep *runner.Report) {
	for i, res := range rep.Results {
		printResult(w, i, res)
	}

	summary := fmt.Sprintf("%d/%d tests passed", rep.Passed, rep.Total)
	if rep.AllPassed {
		fmt.Fprintf(w, "\n%s %s\n", passColor("✔"), passColor(summary))
	} else {
		fmt.Fprintf(w, "\n%s %s\n", failColor("✘"), failColor(summary))
	}
}

func printResult(w io.Writer, i int, res runner.TestResult) {
	label := res.Description
	if label == "" {
		label = fmt.Sprintf("Test %d", i+1)
	}

	if res.Passed {
		fmt.Fprintf(w, "%s %s %s\n", passColor("✔"), label, dimColor(res.Duration.Round(10*time.Microsecond)))
	} else {
		fmt.Fprintf(w, "%s %s\n", failColor("✘"), label)
		fmt.Fprintf(w, "    expected: %s\n", value.Format(res.Expected))
		fmt.Fprintf(w, "    received: %s\n", value.Format(res.Received))
		if res.Error != "" {
			fmt.Fprintf(w, "    %s %s\n", failColor("error:"), res.Error)
		}
		if res.Suggestion != "" {
			fmt.Fprintf(w, "    %s\n", hintColor(res.Suggestion))
		}
	}

	logs := res.ConsoleLogs
	if len(logs) > maxLogPreview {
		logs = logs[:maxLogPreview]
	}
	for _, line := range logs {
		fmt.Fprintf(w, "    %s\n", dimColor("│ "+line))
	}
	if len(res.ConsoleLogs) > maxLogPreview {
		fmt.Fprintf(w, "    %s\n", dimColor(fmt.Sprintf("│ ... (%d more lines)", len(res.ConsoleLogs)-maxLogPreview)))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/michaelbrown/conceptloop/internal/challenge"
	"github.com/michaelbrown/conceptloop/internal/runner"
)

// errTestsFailed makes the process exit non-zero when any case fails.
var errTestsFailed = errors.New("some tests failed")

var (
	jsonFlag        bool
	useSolutionFlag bool
)

var runCmd = &cobra.Command{
	Use:   "run <challenge-id> [file]",
	Short: "Run your code against a challenge's test cases",
	Long: `Run a JavaScript file against the test cases of a challenge.

Use "-" as the file to read code from stdin.

Examples:
  conceptloop run essentials-greeting greet.js
  cat greet.js | conceptloop run essentials-greeting -
  conceptloop run essentials-greeting --solution`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the report as JSON")
	runCmd.Flags().BoolVar(&useSolutionFlag, "solution", false, "Run the reference solution instead of a file")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	ch, err := e.catalog.Get(args[0])
	if err != nil {
		return err
	}

	var source string
	switch {
	case useSolutionFlag:
		source = ch.Solution
	case len(args) == 2:
		source, err = readSource(args[1])
		if err != nil {
			return err
		}
	default:
		return errors.New("a file (or --solution) is required")
	}

	rep := verify(e, source, ch.EntryPoint, ch.Cases)
	return finish(rep)
}

// verify runs the cases with a spinner on interactive terminals. Ctrl+C
// cancels the run.
func verify(e *env, source, entry string, cases []challenge.TestCase) *runner.Report {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !jsonFlag && isTerminal(os.Stdout) {
		spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithColor("green"))
		spin.Suffix = fmt.Sprintf(" Running %d test(s)", len(cases))
		spin.Start()
		defer spin.Stop()
	}

	return runner.New(e.sandbox, e.logger).Report(ctx, source, entry, cases)
}

func finish(rep *runner.Report) error {
	if jsonFlag {
		if err := writeJSON(os.Stdout, rep); err != nil {
			return err
		}
	} else {
		printReport(os.Stdout, rep)
	}
	if !rep.AllPassed {
		return errTestsFailed
	}
	return nil
}

func readSource(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading code: %w", err)
	}
	return string(data), nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

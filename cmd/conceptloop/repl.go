package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive JavaScript scratchpad",
	Long: `Evaluate JavaScript snippets in the sandbox, one input at a time.

Each input runs in a fresh scope; end a line with "\" to continue it on the
next line.`,
	RunE: runREPL,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runREPL(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	fmt.Printf("ConceptLoop - JavaScript scratchpad (%s sandbox)\n", e.cfg.Sandbox.Backend)
	fmt.Printf("Type /help for commands, /quit to exit\n\n")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36mjs>\033[0m ",
		HistoryFile:     filepath.Join(os.TempDir(), "conceptloop_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	var pending []string
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt && len(pending) > 0 {
				pending = nil
				rl.SetPrompt("\033[36mjs>\033[0m ")
				continue
			}
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		if len(pending) == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, "/") {
				if quit := handleREPLCommand(trimmed); quit {
					return nil
				}
				continue
			}
		}

		if strings.HasSuffix(line, `\`) {
			pending = append(pending, strings.TrimSuffix(line, `\`))
			rl.SetPrompt("\033[36m...\033[0m ")
			continue
		}
		code := strings.Join(append(pending, line), "\n")
		pending = nil
		rl.SetPrompt("\033[36mjs>\033[0m ")

		for _, out := range snippetOutput(context.Background(), e.sandbox, code) {
			fmt.Println(out)
		}
	}
}

func handleREPLCommand(input string) (quit bool) {
	switch strings.ToLower(strings.Fields(input)[0]) {
	case "/quit", "/exit", "/q":
		fmt.Println("Goodbye!")
		return true
	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /help     - Show this help")
		fmt.Println("  /quit     - Exit")
		fmt.Println()
		fmt.Println("Anything else is evaluated as JavaScript. End a line with \\ to continue it.")
		fmt.Println()
	default:
		fmt.Printf("Unknown command: %s (try /help)\n\n", input)
	}
	return false
}

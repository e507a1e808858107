package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/conceptloop/internal/sandbox"
	"github.com/michaelbrown/conceptloop/internal/value"
)

var lessonCmd = &cobra.Command{
	Use:   "lesson <challenge-id>",
	Short: "Walk through a challenge's lesson",
	Long: `Print the theory for a challenge step by step, running each example
snippet in the sandbox and showing its output, followed by the challenge.`,
	Args: cobra.ExactArgs(1),
	RunE: runLesson,
}

func init() {
	rootCmd.AddCommand(lessonCmd)
}

func runLesson(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	ch, err := e.catalog.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s  %s\n\n", titleColor(ch.Title), dimColor(ch.Category+" · "+string(ch.Difficulty)))
	for i, step := range ch.Theory {
		fmt.Printf("%d. %s\n", i+1, step.Text)
		if step.Code == "" {
			fmt.Println()
			continue
		}
		fmt.Println(indent(step.Code, "     "))
		if step.Runnable {
			fmt.Println(dimColor("   ▶ output:"))
			for _, line := range snippetOutput(cmd.Context(), e.sandbox, step.Code) {
				fmt.Println("     " + line)
			}
		}
		fmt.Println()
	}

	fmt.Println(titleColor("Your turn"))
	printChallenge(ch, false)
	fmt.Printf("\nRun it with: conceptloop run %s <file>\n", ch.ID)
	return nil
}

// snippetOutput evaluates a theory snippet and returns the lines to show.
func snippetOutput(ctx context.Context, sb sandbox.Sandbox, code string) []string {
	if ctx == nil {
		ctx = context.Background()
	}
	out, err := sb.Eval(ctx, code)
	if err != nil {
		return []string{"Error: " + err.Error()}
	}
	if out.Err != nil {
		return append(out.Logs, "Error: "+out.Err.Message)
	}
	if len(out.Logs) > 0 {
		return out.Logs
	}
	if !value.IsUndefined(out.Value) {
		return []string{value.Format(out.Value)}
	}
	return []string{"(no output)"}
}

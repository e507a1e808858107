package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/conceptloop/internal/challenge"
)

var (
	categoryFilter string
	showSolution   bool
)

var challengesCmd = &cobra.Command{
	Use:     "challenges",
	Aliases: []string{"challenge", "c"},
	Short:   "Browse the challenge catalog",
}

var challengesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List challenges",
	RunE:  runChallengesList,
}

var challengesShowCmd = &cobra.Command{
	Use:   "show <challenge-id>",
	Short: "Show a challenge",
	Args:  cobra.ExactArgs(1),
	RunE:  runChallengesShow,
}

func init() {
	rootCmd.AddCommand(challengesCmd)
	challengesCmd.AddCommand(challengesListCmd, challengesShowCmd)

	challengesListCmd.Flags().StringVar(&categoryFilter, "category", "", "Only list challenges in this category")
	challengesShowCmd.Flags().BoolVar(&showSolution, "solution", false, "Include the reference solution")
}

func runChallengesList(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	categories := e.catalog.Categories
	if categoryFilter != "" {
		categories = []string{categoryFilter}
	}

	found := false
	for _, cat := range categories {
		list := e.catalog.ByCategory(cat)
		if len(list) == 0 {
			continue
		}
		found = true

		fmt.Println(titleColor(cat))
		fmt.Printf("  %-32s %-10s %s\n", "ID", "LEVEL", "TITLE")
		fmt.Println("  " + strings.Repeat("─", 70))
		for _, ch := range list {
			fmt.Printf("  %-32s %-10s %s\n", ch.ID, ch.Difficulty, ch.Title)
		}
		fmt.Println()
	}

	if !found {
		fmt.Println("No challenges found.")
	}
	return nil
}

func runChallengesShow(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	ch, err := e.catalog.Get(args[0])
	if err != nil {
		return err
	}
	printChallenge(ch, showSolution)
	return nil
}

func printChallenge(ch *challenge.Challenge, solution bool) {
	fmt.Println(titleColor(ch.Title))
	fmt.Printf("Category:   %s\n", ch.Category)
	fmt.Printf("Difficulty: %s\n", ch.Difficulty)
	fmt.Printf("Function:   %s\n\n", ch.EntryPoint)
	fmt.Println(ch.Description)

	if len(ch.Examples) > 0 {
		fmt.Println("\nExamples:")
		for _, ex := range ch.Examples {
			fmt.Printf("  %s\n", ex)
		}
	}
	if ch.Hint != "" {
		fmt.Printf("\n%s %s\n", hintColor("Hint:"), ch.Hint)
	}

	fmt.Println("\nStarter code:")
	fmt.Println(indent(ch.StarterCode, "  "))

	if solution {
		fmt.Println("\nSolution:")
		fmt.Println(indent(ch.Solution, "  "))
	}
}

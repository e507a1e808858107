package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/conceptloop/internal/challenge"
)

var (
	entryFlag string
	casesFlag string
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Run a file against your own test cases",
	Long: `Run a JavaScript file against test cases from a YAML or JSON file.

The cases file is either a list of cases or a mapping with "entry_point"
and "cases". Each case has "input" (the argument list), "expected" and an
optional "description" and "callbacks".

Examples:
  conceptloop check add.js --entry add --cases add_cases.yaml
  conceptloop check add.js --cases add_cases.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&entryFlag, "entry", "", "Function to call (overrides the cases file)")
	checkCmd.Flags().StringVar(&casesFlag, "cases", "", "YAML or JSON file with test cases")
	checkCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the report as JSON")
	checkCmd.MarkFlagRequired("cases")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	cf, err := challenge.LoadCases(casesFlag)
	if err != nil {
		return err
	}
	entry := cf.EntryPoint
	if entryFlag != "" {
		entry = entryFlag
	}
	if !challenge.ValidIdentifier(entry) {
		return fmt.Errorf("an entry point is required: pass --entry or set entry_point in %s", casesFlag)
	}

	source, err := readSource(args[0])
	if err != nil {
		return err
	}

	return finish(verify(e, source, entry, cf.Cases))
}

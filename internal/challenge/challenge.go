// Package challenge holds the lesson catalog: challenges, their theory
// steps and the test cases learner code is verified against.
package challenge

import (
	"fmt"
	"regexp"

	"github.com/michaelbrown/conceptloop/internal/value"
)

// Difficulty ranks a challenge.
type Difficulty string

const (
	Beginner Difficulty = "Beginner"
	Easy     Difficulty = "Easy"
	Medium   Difficulty = "Medium"
	Hard     Difficulty = "Hard"
)

func (d Difficulty) valid() bool {
	switch d {
	case Beginner, Easy, Medium, Hard:
		return true
	}
	return false
}

// TheoryStep is one paragraph of a lesson, optionally with a code snippet
// the learner can run.
type TheoryStep struct {
	Text     string `yaml:"text" json:"text"`
	Code     string `yaml:"code,omitempty" json:"code,omitempty"`
	Runnable bool   `yaml:"runnable,omitempty" json:"runnable,omitempty"`
}

// Challenge is a single exercise.
type Challenge struct {
	ID          string       `yaml:"id" json:"id"`
	Title       string       `yaml:"title" json:"title"`
	Category    string       `yaml:"category" json:"category"`
	Difficulty  Difficulty   `yaml:"difficulty" json:"difficulty"`
	Theory      []TheoryStep `yaml:"theory" json:"theory"`
	Hint        string       `yaml:"hint" json:"hint"`
	Description string       `yaml:"description" json:"description"`
	Examples    []string     `yaml:"examples" json:"examples"`
	StarterCode string       `yaml:"starter_code" json:"starter_code"`
	EntryPoint  string       `yaml:"entry_point" json:"entry_point"`
	Cases       []TestCase   `yaml:"cases" json:"cases"`
	Solution    string       `yaml:"solution" json:"solution,omitempty"`
}

// Public returns a copy of the challenge without its reference solution.
func (c *Challenge) Public() *Challenge {
	cp := *c
	cp.Solution = ""
	return &cp
}

// TestCase is one verification scenario.
type TestCase struct {
	// Input holds positional arguments in the entry point's parameter order.
	Input       []any       `yaml:"input" json:"input"`
	Expected    any         `yaml:"expected" json:"expected"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Callbacks   []Injection `yaml:"callbacks,omitempty" json:"callbacks,omitempty"`
}

// Injection places a canned callback at a positional argument before the
// entry point is invoked. Arg may point past the end of Input; the gap is
// filled with undefined.
type Injection struct {
	Arg      int      `yaml:"arg" json:"arg"`
	Behavior Callback `yaml:"behavior" json:"behavior"`
}

var identPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ValidIdentifier reports whether name can be used as an entry point.
func ValidIdentifier(name string) bool {
	return identPattern.MatchString(name)
}

// PrepareCases validates cases and converts their values into the value
// model in place.
func PrepareCases(cases []TestCase) error {
	for i := range cases {
		tc := &cases[i]
		for j, in := range tc.Input {
			tc.Input[j] = value.Canonical(in)
		}
		tc.Expected = value.Canonical(tc.Expected)

		seen := make(map[int]bool, len(tc.Callbacks))
		for _, inj := range tc.Callbacks {
			if inj.Arg < 0 {
				return fmt.Errorf("case %d: callback position %d is negative", i, inj.Arg)
			}
			if seen[inj.Arg] {
				return fmt.Errorf("case %d: duplicate callback at position %d", i, inj.Arg)
			}
			seen[inj.Arg] = true
			if !inj.Behavior.Valid() {
				return fmt.Errorf("case %d: unknown callback behavior %q", i, inj.Behavior)
			}
		}
	}
	return nil
}

func (c *Challenge) validate(categories map[string]bool) error {
	if c.ID == "" {
		return fmt.Errorf("challenge %q: missing id", c.Title)
	}
	if !ValidIdentifier(c.EntryPoint) {
		return fmt.Errorf("challenge %s: invalid entry point %q", c.ID, c.EntryPoint)
	}
	if len(categories) > 0 && !categories[c.Category] {
		return fmt.Errorf("challenge %s: unknown category %q", c.ID, c.Category)
	}
	if c.Difficulty != "" && !c.Difficulty.valid() {
		return fmt.Errorf("challenge %s: unknown difficulty %q", c.ID, c.Difficulty)
	}
	if len(c.Cases) == 0 {
		return fmt.Errorf("challenge %s: no test cases", c.ID)
	}
	if err := PrepareCases(c.Cases); err != nil {
		return fmt.Errorf("challenge %s: %w", c.ID, err)
	}
	return nil
}

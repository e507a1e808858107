package challenge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	c := Builtin()
	require.Len(t, c.Challenges, 20)
	assert.Equal(t, []string{
		"Essentials",
		"Decisions & Validation",
		"Loops & Aggregation",
		"Functions & Reuse",
		"Data Shaping",
		"Strings & Parsing",
		"Mini Projects",
	}, c.Categories)

	for _, ch := range c.Challenges {
		assert.NotEmpty(t, ch.Solution, ch.ID)
		assert.NotEmpty(t, ch.StarterCode, ch.ID)
		assert.True(t, ValidIdentifier(ch.EntryPoint), ch.ID)
	}
}

func TestBuiltinCanonicalValues(t *testing.T) {
	ch, err := Builtin().Get("essentials-total-with-tax")
	require.NoError(t, err)
	assert.Equal(t, []any{100.0, 0.25}, ch.Cases[0].Input)
	assert.Equal(t, 125.0, ch.Cases[0].Expected)
}

func TestBuiltinApplyCallback(t *testing.T) {
	ch, err := Builtin().Get("func-apply-callback")
	require.NoError(t, err)
	assert.Equal(t, "applyCallback", ch.EntryPoint)
	for _, tc := range ch.Cases {
		require.Len(t, tc.Callbacks, 1)
		assert.Equal(t, Injection{Arg: 1, Behavior: Double}, tc.Callbacks[0])
	}
}

func TestCatalog_Get(t *testing.T) {
	c := Builtin()

	ch, err := c.Get("essentials-greeting")
	require.NoError(t, err)
	assert.Equal(t, "greetUser", ch.EntryPoint)

	_, err = c.Get("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCatalog_ByCategory(t *testing.T) {
	c := Builtin()
	essentials := c.ByCategory("Essentials")
	require.NotEmpty(t, essentials)
	for _, ch := range essentials {
		assert.Equal(t, "Essentials", ch.Category)
	}
	assert.Len(t, c.ByCategory(""), len(c.Challenges))
	assert.Empty(t, c.ByCategory("Unknown"))
}

func TestChallenge_Public(t *testing.T) {
	ch, err := Builtin().Get("essentials-greeting")
	require.NoError(t, err)
	pub := ch.Public()
	assert.Empty(t, pub.Solution)
	assert.NotEmpty(t, ch.Solution, "original must be untouched")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "duplicate id",
			yaml: `
challenges:
- {id: a, entry_point: f, cases: [{input: [], expected: 1}]}
- {id: a, entry_point: g, cases: [{input: [], expected: 1}]}
`,
			want: "duplicate challenge id",
		},
		{
			name: "bad entry point",
			yaml: `
challenges:
- {id: a, entry_point: "not valid", cases: [{input: [], expected: 1}]}
`,
			want: "invalid entry point",
		},
		{
			name: "unknown category",
			yaml: `
categories: [One]
challenges:
- {id: a, category: Two, entry_point: f, cases: [{input: [], expected: 1}]}
`,
			want: "unknown category",
		},
		{
			name: "unknown callback",
			yaml: `
challenges:
- id: a
  entry_point: f
  cases:
  - {input: [1], expected: 1, callbacks: [{arg: 1, behavior: triple}]}
`,
			want: "unknown callback behavior",
		},
		{
			name: "negative callback position",
			yaml: `
challenges:
- id: a
  entry_point: f
  cases:
  - {input: [1], expected: 1, callbacks: [{arg: -1, behavior: double}]}
`,
			want: "negative",
		},
		{
			name: "no cases",
			yaml: `
challenges:
- {id: a, entry_point: f}
`,
			want: "no test cases",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadCases(t *testing.T) {
	dir := t.TempDir()

	list := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(list, []byte(`
- input: [2, 3]
  expected: 5
  description: small
`), 0o644))

	mapping := filepath.Join(dir, "cases.json")
	require.NoError(t, os.WriteFile(mapping, []byte(`{
  "entry_point": "add",
  "cases": [{"input": [1, 1], "expected": 2}]
}`), 0o644))

	cf, err := LoadCases(list)
	require.NoError(t, err)
	require.Len(t, cf.Cases, 1)
	assert.Equal(t, []any{2.0, 3.0}, cf.Cases[0].Input)
	assert.Equal(t, "small", cf.Cases[0].Description)

	cf, err = LoadCases(mapping)
	require.NoError(t, err)
	assert.Equal(t, "add", cf.EntryPoint)
	assert.Equal(t, 2.0, cf.Cases[0].Expected)

	_, err = LoadCases(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestCallbackSource(t *testing.T) {
	for _, cb := range Callbacks() {
		src, err := cb.Source()
		require.NoError(t, err)
		assert.Contains(t, src, "=>")
	}
	_, err := Callback("triple").Source()
	assert.Error(t, err)
}

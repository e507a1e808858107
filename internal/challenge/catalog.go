package challenge

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a challenge id is not in the catalog.
var ErrNotFound = errors.New("challenge not found")

//go:embed catalog.yaml
var builtinCatalog []byte

// Catalog is an ordered, read-only set of challenges.
type Catalog struct {
	Categories []string     `yaml:"categories" json:"categories"`
	Challenges []*Challenge `yaml:"challenges" json:"challenges"`

	byID map[string]*Challenge
}

var (
	builtinOnce sync.Once
	builtin     *Catalog
)

// Builtin returns the catalog compiled into the binary.
func Builtin() *Catalog {
	builtinOnce.Do(func() {
		c, err := Parse(builtinCatalog)
		if err != nil {
			panic(fmt.Sprintf("challenge: embedded catalog: %v", err))
		}
		builtin = c
	})
	return builtin
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}

	categories := make(map[string]bool, len(c.Categories))
	for _, name := range c.Categories {
		categories[name] = true
	}

	c.byID = make(map[string]*Challenge, len(c.Challenges))
	for _, ch := range c.Challenges {
		if err := ch.validate(categories); err != nil {
			return nil, err
		}
		if _, dup := c.byID[ch.ID]; dup {
			return nil, fmt.Errorf("duplicate challenge id %q", ch.ID)
		}
		c.byID[ch.ID] = ch
	}
	return &c, nil
}

// Get looks up a challenge by id.
func (c *Catalog) Get(id string) (*Challenge, error) {
	ch, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ch, nil
}

// ByCategory returns the challenges in a category, in catalog order. An
// empty category returns every challenge.
func (c *Catalog) ByCategory(category string) []*Challenge {
	if category == "" {
		return c.Challenges
	}
	var out []*Challenge
	for _, ch := range c.Challenges {
		if ch.Category == category {
			out = append(out, ch)
		}
	}
	return out
}

// CaseFile is the on-disk form of an ad-hoc case list.
type CaseFile struct {
	EntryPoint string     `yaml:"entry_point"`
	Cases      []TestCase `yaml:"cases"`
}

// LoadCases reads a case file. The file is either a bare list of cases or a
// mapping with "cases" and an optional "entry_point". JSON works too, being
// valid YAML.
func LoadCases(path string) (*CaseFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cases %s: %w", path, err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing cases %s: %w", path, err)
	}

	var cf CaseFile
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		err = node.Decode(&cf.Cases)
	} else {
		err = node.Decode(&cf)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing cases %s: %w", path, err)
	}
	if len(cf.Cases) == 0 {
		return nil, fmt.Errorf("cases %s: no test cases", path)
	}
	if err := PrepareCases(cf.Cases); err != nil {
		return nil, fmt.Errorf("cases %s: %w", path, err)
	}
	return &cf, nil
}

package evaluator

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/sushrusha/sushrusha/pkg/domain"
	"gopkg.in/yaml.v3"
)

// EndNodeKey marks the end of a scenario graph.
const EndNodeKey = "__end__"

// StartNodeKey is the node every session begins at.
const StartNodeKey = "start"

const defaultCondition = "default"

//go:embed scenarios/*.yaml
var builtinScenarios embed.FS

// Localized maps a language code to a translation. English is the fallback.
type Localized map[string]string

// In returns the translation for lang, falling back to English.
func (l Localized) In(lang string) string {
	if v, ok := l[lang]; ok {
		return v
	}
	return l["en"]
}

// ChecklistItem is one protocol step expected in a worker response.
type ChecklistItem struct {
	Item     string   `yaml:"item"`
	Type     string   `yaml:"type"` // "normal" or "critical"
	Keywords []string `yaml:"keywords"`
}

// Critical reports whether missing the item is a protocol-critical failure.
func (c ChecklistItem) Critical() bool {
	return c.Type == "critical"
}

// Transition moves the conversation to NextNodeKey.
type Transition struct {
	Condition   string `yaml:"condition"`
	NextNodeKey string `yaml:"next_node_key"`
}

// Node is one patient turn of the scenario graph.
type Node struct {
	PatientText       Localized       `yaml:"patient_text"`
	ExpectedChecklist []ChecklistItem `yaml:"expected_checklist"`
	Transitions       []Transition    `yaml:"transitions"`
}

// Scenario is a full dialogue graph with its localized metadata.
type Scenario struct {
	ID                 string          `yaml:"id"`
	SupportedLanguages []string        `yaml:"supported_languages"`
	Title              Localized       `yaml:"title"`
	Category           Localized       `yaml:"category"`
	Description        Localized       `yaml:"description"`
	Difficulty         string          `yaml:"difficulty"`
	EstimatedMinutes   int             `yaml:"estimated_minutes"`
	TotalTurnsEstimate int             `yaml:"total_turns_estimate"`
	Nodes              map[string]Node `yaml:"nodes"`
}

// Meta projects the scenario into the reference data of lang.
func (s *Scenario) Meta(lang string) domain.ScenarioMeta {
	difficulty := s.Difficulty
	if difficulty == "" {
		difficulty = "beginner"
	}
	minutes := s.EstimatedMinutes
	if minutes <= 0 {
		minutes = 10
	}
	return domain.ScenarioMeta{
		ID:               s.ID,
		Title:            s.Title.In(lang),
		Category:         s.Category.In(lang),
		Difficulty:       difficulty,
		EstimatedMinutes: minutes,
		Description:      s.Description.In(lang),
	}
}

// Supports reports whether the scenario is offered in lang.
func (s *Scenario) Supports(lang string) bool {
	for _, l := range s.SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// TurnsEstimate returns the advisory number of turns.
func (s *Scenario) TurnsEstimate() int {
	if s.TotalTurnsEstimate > 0 {
		return s.TotalTurnsEstimate
	}
	return 8
}

// NextNodeKey follows the default transition of nodeKey.
// Unknown nodes and nodes without a default transition end the scenario.
func (s *Scenario) NextNodeKey(nodeKey string) string {
	node, ok := s.Nodes[nodeKey]
	if !ok {
		return EndNodeKey
	}
	for _, t := range node.Transitions {
		if t.Condition == defaultCondition {
			return t.NextNodeKey
		}
	}
	return EndNodeKey
}

// Validate reports structural defects: missing fields, dead ends, dangling
// transitions and checklist items without keywords.
func (s *Scenario) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("[%s] "+format, append([]any{s.ID}, args...)...))
	}

	if s.ID == "" {
		fail("missing required field: id")
	}
	if len(s.Title) == 0 {
		fail("missing required field: title")
	}
	if len(s.SupportedLanguages) == 0 {
		fail("missing required field: supported_languages")
	}
	if _, ok := s.Nodes[StartNodeKey]; !ok {
		fail("missing %q node", StartNodeKey)
	}

	keys := make([]string, 0, len(s.Nodes))
	for k := range s.Nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		node := s.Nodes[key]
		if len(node.PatientText) == 0 {
			fail("node %q missing patient_text", key)
		}
		if len(node.Transitions) == 0 {
			fail("node %q has no transitions (dead-end)", key)
		}
		for _, t := range node.Transitions {
			if t.NextNodeKey == EndNodeKey {
				continue
			}
			if _, ok := s.Nodes[t.NextNodeKey]; !ok {
				fail("node %q transitions to unknown node %q", key, t.NextNodeKey)
			}
		}
		for _, item := range node.ExpectedChecklist {
			if item.Item == "" {
				fail("node %q has checklist item without a name", key)
			}
			if len(item.Keywords) == 0 {
				fail("node %q checklist item %q has no keywords", key, item.Item)
			}
		}
	}
	return errors.Join(errs...)
}

// Catalog holds the scenarios served by the evaluator, keyed by id.
type Catalog struct {
	scenarios map[string]*Scenario
	order     []string
}

// NewCatalog validates scenarios and indexes them by id.
func NewCatalog(scenarios ...*Scenario) (*Catalog, error) {
	c := &Catalog{scenarios: make(map[string]*Scenario, len(scenarios))}
	var errs []error
	for _, s := range scenarios {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.scenarios[s.ID]; dup {
			errs = append(errs, fmt.Errorf("[%s] duplicate scenario id", s.ID))
			continue
		}
		c.scenarios[s.ID] = s
		c.order = append(c.order, s.ID)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	sort.Strings(c.order)
	return c, nil
}

// LoadCatalog reads every .yaml/.yml file at the root of fsys.
func LoadCatalog(fsys fs.FS) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}

	var scenarios []*Scenario
	for _, entry := range entries {
		ext := strings.ToLower(path.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		var s Scenario
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}
		scenarios = append(scenarios, &s)
	}
	return NewCatalog(scenarios...)
}

// BuiltinCatalog returns the scenario pack embedded in the binary.
func BuiltinCatalog() (*Catalog, error) {
	sub, err := fs.Sub(builtinScenarios, "scenarios")
	if err != nil {
		return nil, err
	}
	return LoadCatalog(sub)
}

// Get returns the scenario with id.
func (c *Catalog) Get(id string) (*Scenario, bool) {
	s, ok := c.scenarios[id]
	return s, ok
}

// ForLanguage lists the metadata of scenarios offered in lang, ordered by id.
func (c *Catalog) ForLanguage(lang string) []domain.ScenarioMeta {
	out := []domain.ScenarioMeta{}
	for _, id := range c.order {
		s := c.scenarios[id]
		if s.Supports(lang) {
			out = append(out, s.Meta(lang))
		}
	}
	return out
}

package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/quantq/internal/ir"
)

// Scenario defines a predicate scenario: a dataset, the predicates built
// over it and the verdicts expected from them.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dataset is the relation the predicates range over.
	Dataset DatasetSpec `yaml:"dataset"`

	// Library is an optional CUE predicate library registered before the
	// steps run. Relative paths resolve against the scenario file.
	Library string `yaml:"library,omitempty"`

	// Steps run in order against one session.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final registry and workspace.
	// Supported types: registered, caption, journal_replay
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// DatasetSpec names the dataset: either a CSV file or inline rows.
type DatasetSpec struct {
	// CSV is a path to a CSV file, relative to the scenario file.
	CSV string `yaml:"csv,omitempty"`

	// IDColumn overrides the ID column heuristic.
	IDColumn string `yaml:"id_column,omitempty"`

	// DateColumns lists extra columns parsed as timestamps.
	DateColumns []string `yaml:"date_columns,omitempty"`

	// Rows are inline records. Column types are inferred.
	Rows []map[string]any `yaml:"rows,omitempty"`
}

// Step performs exactly one session operation.
type Step struct {
	Define   *DefineStep   `yaml:"define,omitempty"`
	Compound *CompoundStep `yaml:"compound,omitempty"`
	Rename   *RenameStep   `yaml:"rename,omitempty"`
	Remove   *RemoveStep   `yaml:"remove,omitempty"`
	Eval     *EvalStep     `yaml:"eval,omitempty"`
	Query    *QueryStep    `yaml:"query,omitempty"`
	Matrix   *MatrixStep   `yaml:"matrix,omitempty"`

	// Expect validates the step's result. If nil, the step only has to
	// succeed.
	Expect *Expect `yaml:"expect,omitempty"`

	// ExpectError is the error code the step must fail with, e.g.
	// DUPLICATE_NAME.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// DefineStep registers a simple predicate. Without Const the right operand
// is the other variable.
type DefineStep struct {
	Name      string `yaml:"name"`
	Attribute string `yaml:"attribute"`
	Op        string `yaml:"op"`
	Left      string `yaml:"left,omitempty"`
	Const     any    `yaml:"const,omitempty"`
}

// CompoundStep registers a compound formula.
type CompoundStep struct {
	Name string   `yaml:"name"`
	Op   string   `yaml:"op"`
	Args []string `yaml:"args"`
}

// RenameStep renames an entry.
type RenameStep struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// RemoveStep removes an entry.
type RemoveStep struct {
	Name string `yaml:"name"`
}

// EvalStep evaluates a formula on one binding. An empty X or Y leaves the
// variable unbound.
type EvalStep struct {
	Formula string `yaml:"formula"`
	X       string `yaml:"x,omitempty"`
	Y       string `yaml:"y,omitempty"`
}

// QueryStep resolves a quantified statement.
type QueryStep struct {
	Formula string `yaml:"formula"`
	QX      string `yaml:"qx"`
	QY      string `yaml:"qy"`
}

// MatrixStep generates a truth matrix. With Op set, the matrix is the
// operator applied to the matrices of Args; SaveAs then registers the
// combination as a formula.
type MatrixStep struct {
	Formula string   `yaml:"formula,omitempty"`
	Op      string   `yaml:"op,omitempty"`
	Args    []string `yaml:"args,omitempty"`
	SaveAs  string   `yaml:"save_as,omitempty"`
}

// RowSpec is an expected witness or counterexample row.
type RowSpec struct {
	X string `yaml:"x,omitempty"`
	Y string `yaml:"y,omitempty"`
}

// Expect specifies the expected result of a step. Only the fields that are
// set are validated.
type Expect struct {
	// Caption is checked after define and compound steps.
	Caption string `yaml:"caption,omitempty"`

	// Value is the expected truth value of an eval step.
	Value *bool `yaml:"value,omitempty"`

	// Query expectations.
	Outcome         string    `yaml:"outcome,omitempty"`
	Failures        *int      `yaml:"failures,omitempty"`
	Message         string    `yaml:"message,omitempty"`
	Witnesses       []RowSpec `yaml:"witnesses,omitempty"`
	Counterexamples []RowSpec `yaml:"counterexamples,omitempty"`

	// Matrix expectations: one string of 0/1 per row, in domain order.
	Rows      []string `yaml:"rows,omitempty"`
	Truncated *bool    `yaml:"truncated,omitempty"`
}

// Assertion validates the final state of a scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "registered": the registry holds exactly Names, in registration order
	// - "caption": Name describes as Caption
	// - "journal_replay": replaying the journal rebuilds the registry
	Type string `yaml:"type"`

	Names   []string `yaml:"names,omitempty"`
	Name    string   `yaml:"name,omitempty"`
	Caption string   `yaml:"caption,omitempty"`
}

// Assertion type constants.
const (
	AssertRegistered    = "registered"
	AssertCaption       = "caption"
	AssertJournalReplay = "journal_replay"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// Dataset and library paths are resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario parses scenario YAML, resolving relative paths against
// basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) || basePath == "" {
			return p
		}
		return filepath.Join(basePath, p)
	}
	scenario.Dataset.CSV = resolve(scenario.Dataset.CSV)
	scenario.Library = resolve(scenario.Library)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Dataset.CSV != "" && len(s.Dataset.Rows) > 0:
		return fmt.Errorf("dataset: csv and rows are mutually exclusive")
	case s.Dataset.CSV == "" && len(s.Dataset.Rows) == 0:
		return fmt.Errorf("dataset: csv or rows is required")
	}

	for _, p := range []string{s.Dataset.CSV, s.Library} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

// validateStep checks that a step names exactly one operation with the
// fields it needs.
func validateStep(step Step) error {
	n := 0
	for _, set := range []bool{
		step.Define != nil, step.Compound != nil, step.Rename != nil, step.Remove != nil,
		step.Eval != nil, step.Query != nil, step.Matrix != nil,
	} {
		if set {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("exactly one operation is required, got %d", n)
	}
	if step.Expect != nil && step.ExpectError != "" {
		return fmt.Errorf("expect and expect_error are mutually exclusive")
	}

	switch {
	case step.Define != nil:
		d := step.Define
		if d.Name == "" || d.Attribute == "" || d.Op == "" {
			return fmt.Errorf("define: name, attribute and op are required")
		}
		if _, err := ir.ParseRelOp(d.Op); err != nil {
			return fmt.Errorf("define: %w", err)
		}
	case step.Compound != nil:
		c := step.Compound
		if c.Name == "" || len(c.Args) == 0 {
			return fmt.Errorf("compound: name and args are required")
		}
		if _, err := ir.ParseLogicOp(c.Op); err != nil {
			return fmt.Errorf("compound: %w", err)
		}
	case step.Rename != nil:
		if step.Rename.From == "" || step.Rename.To == "" {
			return fmt.Errorf("rename: from and to are required")
		}
	case step.Remove != nil:
		if step.Remove.Name == "" {
			return fmt.Errorf("remove: name is required")
		}
	case step.Eval != nil:
		if step.Eval.Formula == "" {
			return fmt.Errorf("eval: formula is required")
		}
	case step.Query != nil:
		q := step.Query
		if q.Formula == "" {
			return fmt.Errorf("query: formula is required")
		}
		for _, raw := range []string{q.QX, q.QY} {
			if _, err := ir.ParseQuantifier(raw); err != nil {
				return fmt.Errorf("query: %w", err)
			}
		}
	case step.Matrix != nil:
		m := step.Matrix
		if m.Op == "" {
			if m.Formula == "" {
				return fmt.Errorf("matrix: formula or op is required")
			}
			if m.SaveAs != "" {
				return fmt.Errorf("matrix: save_as requires op")
			}
			break
		}
		if m.Formula != "" {
			return fmt.Errorf("matrix: formula and op are mutually exclusive")
		}
		if _, err := ir.ParseLogicOp(m.Op); err != nil {
			return fmt.Errorf("matrix: %w", err)
		}
		if len(m.Args) == 0 {
			return fmt.Errorf("matrix: op requires args")
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertRegistered:
		if a.Names == nil {
			return fmt.Errorf("registered: names is required (use [] for an empty registry)")
		}
	case AssertCaption:
		if a.Name == "" || a.Caption == "" {
			return fmt.Errorf("caption: name and caption are required")
		}
	case AssertJournalReplay:
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

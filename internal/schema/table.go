package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed toolspecs.yaml
var defaultDocument []byte

//go:embed toolspecs.schema.json
var documentSchema string

// Table is the read-only tool registry. It is never mutated after Load, so a
// single instance is safe to share between concurrent requests.
type Table struct {
	tools []ToolSpec
	index map[string]int
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in table. A broken built-in document is a
// programming error and panics on first use.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(defaultDocument)
		if err != nil {
			panic(fmt.Sprintf("schema: built-in tool table is invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

type document struct {
	Shared yaml.Node `yaml:"shared"`
	Tools  []toolDoc `yaml:"tools"`
}

type toolDoc struct {
	Name     string       `yaml:"name"`
	Features []featureDoc `yaml:"features"`
	Grades   []gradeDoc   `yaml:"grades"`
	Outputs  []string     `yaml:"outputs"`
}

type featureDoc struct {
	Key    string `yaml:"key"`
	Name   string `yaml:"name"`
	Unit   string `yaml:"unit"`
	Note   string `yaml:"note"`
	Kind   string `yaml:"kind"`
	Bounds string `yaml:"bounds"`
	Choice string `yaml:"choice"`
	Gate   string `yaml:"gate"`
}

type gradeDoc struct {
	Label         string `yaml:"label"`
	Tolerance     string `yaml:"tolerance"`
	SurfaceFinish string `yaml:"surface_finish"`
}

// Load parses and validates a tool table document.
func Load(raw []byte) (*Table, error) {
	if err := validateDocument(raw); err != nil {
		return nil, err
	}
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse tool table failed: %w", err)
	}
	t := &Table{
		tools: make([]ToolSpec, 0, len(doc.Tools)),
		index: make(map[string]int, len(doc.Tools)),
	}
	for _, td := range doc.Tools {
		spec, err := buildToolSpec(td)
		if err != nil {
			return nil, err
		}
		if _, dup := t.index[spec.Name]; dup {
			return nil, fmt.Errorf("tool %s declared twice", spec.Name)
		}
		t.index[spec.Name] = len(t.tools)
		t.tools = append(t.tools, spec)
	}
	return t, nil
}

func validateDocument(raw []byte) error {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("parse tool table failed: %w", err)
	}
	// Round-trip through JSON so the validator only sees JSON value types.
	buf, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("tool table is not JSON compatible: %w", err)
	}
	var value any
	if err := json.Unmarshal(buf, &value); err != nil {
		return err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("toolspecs.schema.json", strings.NewReader(documentSchema)); err != nil {
		return err
	}
	compiled, err := compiler.Compile("toolspecs.schema.json")
	if err != nil {
		return fmt.Errorf("compile tool table schema failed: %w", err)
	}
	if err := compiled.Validate(value); err != nil {
		return fmt.Errorf("tool table failed validation: %w", err)
	}
	return nil
}

func buildToolSpec(td toolDoc) (ToolSpec, error) {
	spec := ToolSpec{
		Name:         strings.TrimSpace(td.Name),
		Features:     make([]FeatureSpec, 0, len(td.Features)),
		Grades:       make([]Grade, 0, len(td.Grades)),
		OutputLabels: make([]string, 0, len(td.Outputs)),
	}
	seen := make(map[string]bool, len(td.Features))
	gates := make(map[Gate]bool, 2)
	for _, fd := range td.Features {
		f, err := buildFeatureSpec(fd)
		if err != nil {
			return ToolSpec{}, fmt.Errorf("tool %s: %w", spec.Name, err)
		}
		if seen[f.Key] {
			return ToolSpec{}, fmt.Errorf("tool %s: feature %s declared twice", spec.Name, f.Key)
		}
		seen[f.Key] = true
		if f.Gate != GateNone {
			if gates[f.Gate] {
				return ToolSpec{}, fmt.Errorf("tool %s: more than one %s feature", spec.Name, f.Gate)
			}
			gates[f.Gate] = true
		}
		spec.Features = append(spec.Features, f)
	}
	if !gates[GateTolerance] || !gates[GateSurfaceFinish] {
		return ToolSpec{}, fmt.Errorf("tool %s: needs one tolerance and one surface_finish feature", spec.Name)
	}
	labels := make(map[string]bool, len(td.Grades))
	for _, gd := range td.Grades {
		label := strings.TrimSpace(gd.Label)
		if labels[label] {
			return ToolSpec{}, fmt.Errorf("tool %s: grade %q declared twice", spec.Name, label)
		}
		labels[label] = true
		tol, err := ParseRange(gd.Tolerance)
		if err != nil {
			return ToolSpec{}, fmt.Errorf("tool %s grade %s tolerance: %w", spec.Name, label, err)
		}
		sf, err := ParseRange(gd.SurfaceFinish)
		if err != nil {
			return ToolSpec{}, fmt.Errorf("tool %s grade %s surface finish: %w", spec.Name, label, err)
		}
		spec.Grades = append(spec.Grades, Grade{Label: label, Tolerance: tol, SurfaceFinish: sf})
	}
	for _, out := range td.Outputs {
		spec.OutputLabels = append(spec.OutputLabels, strings.TrimSpace(out))
	}
	return spec, nil
}

func buildFeatureSpec(fd featureDoc) (FeatureSpec, error) {
	f := FeatureSpec{
		Key:    strings.TrimSpace(fd.Key),
		Name:   strings.TrimSpace(fd.Name),
		Unit:   strings.TrimSpace(fd.Unit),
		Note:   strings.TrimSpace(fd.Note),
		Kind:   FeatureKind(fd.Kind),
		Choice: strings.TrimSpace(fd.Choice),
		Gate:   Gate(fd.Gate),
	}
	switch f.Kind {
	case KindFixedChoice:
		if f.Gate != GateNone {
			return FeatureSpec{}, fmt.Errorf("feature %s: only free numeric features can be gated", f.Key)
		}
	case KindBoundedNumeric:
		bounds, err := ParseRange(fd.Bounds)
		if err != nil {
			return FeatureSpec{}, fmt.Errorf("feature %s bounds: %w", f.Key, err)
		}
		f.Bounds = &bounds
		if f.Gate != GateNone {
			return FeatureSpec{}, fmt.Errorf("feature %s: only free numeric features can be gated", f.Key)
		}
	case KindFreeNumeric:
	default:
		return FeatureSpec{}, fmt.Errorf("feature %s: unknown kind %q", f.Key, fd.Kind)
	}
	return f, nil
}

// Tools lists tool names in declaration order.
func (t *Table) Tools() []string {
	out := make([]string, len(t.tools))
	for i, spec := range t.tools {
		out[i] = spec.Name
	}
	return out
}

// Tool returns a copy of the named tool's schema.
func (t *Table) Tool(name string) (ToolSpec, error) {
	spec, err := t.lookup(name)
	if err != nil {
		return ToolSpec{}, err
	}
	return spec.clone(), nil
}

func (t *Table) lookup(name string) (*ToolSpec, error) {
	name = strings.TrimSpace(name)
	if idx, ok := t.index[name]; ok {
		return &t.tools[idx], nil
	}
	for i := range t.tools {
		if strings.EqualFold(t.tools[i].Name, name) {
			return &t.tools[i], nil
		}
	}
	return nil, &UnknownToolError{Tool: name}
}

// ToleranceGrades lists the tool's grade labels in declaration order.
func (t *Table) ToleranceGrades(tool string) ([]string, error) {
	spec, err := t.lookup(tool)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(spec.Grades))
	for i, g := range spec.Grades {
		out[i] = g.Label
	}
	return out, nil
}

func (t *Table) grade(tool, label string) (*ToolSpec, Grade, error) {
	spec, err := t.lookup(tool)
	if err != nil {
		return nil, Grade{}, err
	}
	g, ok := spec.Grade(label)
	if !ok {
		return nil, Grade{}, &UnknownGradeError{Tool: spec.Name, Grade: label}
	}
	return spec, g, nil
}

// ToleranceRange returns the tolerance range registered for (tool, grade).
func (t *Table) ToleranceRange(tool, grade string) (NumericRange, error) {
	_, g, err := t.grade(tool, grade)
	if err != nil {
		return NumericRange{}, err
	}
	return g.Tolerance, nil
}

// SurfaceFinishRange returns the surface finish range that goes with a grade.
func (t *Table) SurfaceFinishRange(tool, grade string) (NumericRange, error) {
	_, g, err := t.grade(tool, grade)
	if err != nil {
		return NumericRange{}, err
	}
	return g.SurfaceFinish, nil
}

// ValidateTolerance checks value against the selected grade only.
func (t *Table) ValidateTolerance(tool, grade string, value float64) error {
	spec, g, err := t.grade(tool, grade)
	if err != nil {
		return err
	}
	if !g.Tolerance.Contains(value) {
		return &OutOfRangeError{Tool: spec.Name, Field: string(GateTolerance), Value: value, Range: g.Tolerance}
	}
	return nil
}

// ValidateSurfaceFinish checks value against the surface finish range of the selected grade.
func (t *Table) ValidateSurfaceFinish(tool, grade string, value float64) error {
	spec, g, err := t.grade(tool, grade)
	if err != nil {
		return err
	}
	if !g.SurfaceFinish.Contains(value) {
		return &OutOfRangeError{Tool: spec.Name, Field: string(GateSurfaceFinish), Value: value, Range: g.SurfaceFinish}
	}
	return nil
}

// WithMaterials returns a copy of the table whose fixed-choice features take
// the given values, keyed by feature key. Empty values keep the current choice.
func (t *Table) WithMaterials(choices map[string]string) (*Table, error) {
	out := &Table{
		tools: make([]ToolSpec, len(t.tools)),
		index: make(map[string]int, len(t.index)),
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	known := make(map[string]bool)
	for i, spec := range t.tools {
		c := spec.clone()
		for j := range c.Features {
			f := &c.Features[j]
			if f.Kind != KindFixedChoice {
				continue
			}
			known[f.Key] = true
			if v := strings.TrimSpace(choices[f.Key]); v != "" {
				f.Choice = v
			}
		}
		out.tools[i] = c
	}
	for key, v := range choices {
		if strings.TrimSpace(v) != "" && !known[key] {
			return nil, fmt.Errorf("no fixed-choice feature %q", key)
		}
	}
	return out, nil
}

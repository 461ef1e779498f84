package schema

import (
	"fmt"
	"strings"
)

// FeatureKind selects how a feature is rendered and validated.
type FeatureKind string

const (
	// KindFixedChoice has exactly one legal value.
	KindFixedChoice FeatureKind = "fixed_choice"
	// KindBoundedNumeric must parse as a number inside Bounds.
	KindBoundedNumeric FeatureKind = "bounded_numeric"
	// KindFreeNumeric must parse as a number; it may still be gated by a grade.
	KindFreeNumeric FeatureKind = "free_numeric"
)

// Gate ties a free numeric feature to one of the ranges of the selected grade.
type Gate string

const (
	GateNone          Gate = ""
	GateTolerance     Gate = "tolerance"
	GateSurfaceFinish Gate = "surface_finish"
)

// FeatureSpec describes a single model input.
type FeatureSpec struct {
	Key    string        `json:"key"`
	Name   string        `json:"name"`
	Unit   string        `json:"unit,omitempty"`
	Note   string        `json:"note,omitempty"`
	Kind   FeatureKind   `json:"kind"`
	Bounds *NumericRange `json:"bounds,omitempty"`
	Choice string        `json:"choice,omitempty"`
	Gate   Gate          `json:"gate,omitempty"`
}

// Label is the human caption, e.g. "Length [mm]".
func (f FeatureSpec) Label() string {
	if f.Unit == "" {
		return f.Name
	}
	return fmt.Sprintf("%s [%s]", f.Name, f.Unit)
}

// Grade is a tolerance class with its tolerance and surface finish ranges.
type Grade struct {
	Label         string       `json:"label"`
	Tolerance     NumericRange `json:"tolerance"`
	SurfaceFinish NumericRange `json:"surface_finish"`
}

// ToolSpec is the full schema of one machined feature type.
type ToolSpec struct {
	Name         string        `json:"name"`
	Features     []FeatureSpec `json:"features"`
	Grades       []Grade       `json:"grades"`
	OutputLabels []string      `json:"output_labels"`
}

// Feature finds a feature by key or display name.
func (t ToolSpec) Feature(ref string) (FeatureSpec, bool) {
	ref = strings.TrimSpace(ref)
	for _, f := range t.Features {
		if f.Key == ref || f.Name == ref {
			return f, true
		}
	}
	return FeatureSpec{}, false
}

// GatedFeature returns the feature carrying the given gate.
func (t ToolSpec) GatedFeature(g Gate) (FeatureSpec, bool) {
	for _, f := range t.Features {
		if f.Gate == g {
			return f, true
		}
	}
	return FeatureSpec{}, false
}

// Grade looks up a grade label for this tool.
func (t ToolSpec) Grade(label string) (Grade, bool) {
	label = strings.TrimSpace(label)
	for _, g := range t.Grades {
		if g.Label == label {
			return g, true
		}
	}
	return Grade{}, false
}

func (t ToolSpec) clone() ToolSpec {
	out := ToolSpec{
		Name:         t.Name,
		Features:     make([]FeatureSpec, len(t.Features)),
		Grades:       append([]Grade(nil), t.Grades...),
		OutputLabels: append([]string(nil), t.OutputLabels...),
	}
	for i, f := range t.Features {
		if f.Bounds != nil {
			b := *f.Bounds
			f.Bounds = &b
		}
		out.Features[i] = f
	}
	return out
}

// FrameField is one accepted input, kept in the tool's declared order.
type FrameField struct {
	Key     string      `json:"key"`
	Name    string      `json:"name"`
	Kind    FeatureKind `json:"kind"`
	Text    string      `json:"text"`
	Number  float64     `json:"number"`
	Numeric bool        `json:"numeric"`
}

// PredictionRequest is a validated, ordered model input for one tool.
type PredictionRequest struct {
	Tool   string       `json:"tool"`
	Grade  string       `json:"grade,omitempty"`
	Fields []FrameField `json:"fields"`
}

// Value returns the field with the given key.
func (r PredictionRequest) Value(key string) (FrameField, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FrameField{}, false
}

// Vector returns the numeric model input in declared order.
func (r PredictionRequest) Vector() ([]float64, error) {
	out := make([]float64, len(r.Fields))
	for i, f := range r.Fields {
		if !f.Numeric {
			return nil, &ParseError{Tool: r.Tool, Field: f.Key, Value: f.Text}
		}
		out[i] = f.Number
	}
	return out, nil
}

// String renders the frame as "key=value" lines, used for payload dumps.
func (r PredictionRequest) String() string {
	var b strings.Builder
	for _, f := range r.Fields {
		b.WriteString(f.Key)
		b.WriteString("=")
		b.WriteString(f.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// LabeledValue pairs an output label with the model's score for it.
type LabeledValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// PredictionResult holds one value per output label, in label order.
type PredictionResult struct {
	Tool   string         `json:"tool"`
	Values []LabeledValue `json:"values"`
}

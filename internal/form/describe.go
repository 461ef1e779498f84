package form

import (
	"machpredict/internal/schema"
)

// Control tells a renderer which input widget to use for a field.
type Control string

const (
	ControlChoice        Control = "choice"
	ControlBoundedNumber Control = "bounded_number"
	ControlNumber        Control = "number"
)

// Display precision of the grade-gated inputs. A formatting hint only; it
// never restricts what can be typed.
const (
	tolerancePrecision     = 3
	surfaceFinishPrecision = 4
)

// Field is a render-ready description of one tool input.
type Field struct {
	Key       string      `json:"key"`
	Label     string      `json:"label"`
	Note      string      `json:"note,omitempty"`
	Control   Control     `json:"control"`
	Choices   []string    `json:"choices,omitempty"`
	Min       *float64    `json:"min,omitempty"`
	Max       *float64    `json:"max,omitempty"`
	Default   string      `json:"default,omitempty"`
	Gate      schema.Gate `json:"gate,omitempty"`
	Precision int         `json:"precision,omitempty"`
}

// GradeOption is one entry of the tolerance grade selector.
type GradeOption struct {
	Label         string              `json:"label"`
	Tolerance     schema.NumericRange `json:"tolerance"`
	SurfaceFinish schema.NumericRange `json:"surface_finish"`
}

// ToolForm is everything a renderer needs to draw one tool's section.
type ToolForm struct {
	Tool         string        `json:"tool"`
	Fields       []Field       `json:"fields"`
	Grades       []GradeOption `json:"grades"`
	OutputLabels []string      `json:"output_labels"`
	Available    bool          `json:"available"`
}

// Describe builds the form description of a tool from its schema.
func (s *Service) Describe(tool string) (ToolForm, error) {
	spec, err := s.table.Tool(tool)
	if err != nil {
		return ToolForm{}, err
	}
	out := ToolForm{
		Tool:         spec.Name,
		Fields:       make([]Field, 0, len(spec.Features)),
		Grades:       make([]GradeOption, 0, len(spec.Grades)),
		OutputLabels: spec.OutputLabels,
		Available:    s.available(spec.Name),
	}
	for _, f := range spec.Features {
		out.Fields = append(out.Fields, describeField(f))
	}
	for _, g := range spec.Grades {
		out.Grades = append(out.Grades, GradeOption{Label: g.Label, Tolerance: g.Tolerance, SurfaceFinish: g.SurfaceFinish})
	}
	return out, nil
}

// DescribeAll describes every tool in table order.
func (s *Service) DescribeAll() []ToolForm {
	tools := s.table.Tools()
	out := make([]ToolForm, 0, len(tools))
	for _, tool := range tools {
		tf, err := s.Describe(tool)
		if err != nil {
			continue
		}
		out = append(out, tf)
	}
	return out
}

func describeField(f schema.FeatureSpec) Field {
	field := Field{Key: f.Key, Label: f.Label(), Note: f.Note, Gate: f.Gate}
	switch f.Kind {
	case schema.KindFixedChoice:
		field.Control = ControlChoice
		field.Choices = []string{f.Choice}
		field.Default = f.Choice
	case schema.KindBoundedNumeric:
		field.Control = ControlBoundedNumber
		lo, hi := f.Bounds.LowFloat(), f.Bounds.HighFloat()
		field.Min, field.Max = &lo, &hi
		field.Default = f.Bounds.Low.String()
	default:
		field.Control = ControlNumber
	}
	switch f.Gate {
	case schema.GateTolerance:
		field.Precision = tolerancePrecision
	case schema.GateSurfaceFinish:
		field.Precision = surfaceFinishPrecision
	}
	return field
}

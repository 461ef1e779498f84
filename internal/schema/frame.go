package schema

import (
	"strings"

	"machpredict/internal/pkg/convert"
	"machpredict/internal/pkg/text"
)

// maxEchoLen caps how much of a rejected input is repeated in error messages.
const maxEchoLen = 40

// BuildPredictionFrame checks that raw supplies every declared feature of the
// tool (by key or display name, any order) and returns them in declared order.
// Bounded fields must lie within their bounds; the first failing field rejects
// the whole frame.
func (t *Table) BuildPredictionFrame(tool string, raw map[string]any) (PredictionRequest, error) {
	spec, err := t.lookup(tool)
	if err != nil {
		return PredictionRequest{}, err
	}
	req := PredictionRequest{Tool: spec.Name, Fields: make([]FrameField, 0, len(spec.Features))}
	for _, f := range spec.Features {
		value, ok := lookupRaw(raw, f)
		if !ok {
			return PredictionRequest{}, &MissingFieldError{Tool: spec.Name, Field: f.Key}
		}
		field, err := coerceField(spec.Name, f, value)
		if err != nil {
			return PredictionRequest{}, err
		}
		req.Fields = append(req.Fields, field)
	}
	return req, nil
}

// ValidateSubmission builds the frame and then checks the tolerance and
// surface finish inputs against the selected grade, in that order.
func (t *Table) ValidateSubmission(tool, grade string, raw map[string]any) (PredictionRequest, error) {
	req, err := t.BuildPredictionFrame(tool, raw)
	if err != nil {
		return PredictionRequest{}, err
	}
	spec, g, err := t.grade(req.Tool, grade)
	if err != nil {
		return PredictionRequest{}, err
	}
	req.Grade = g.Label
	if f, ok := spec.GatedFeature(GateTolerance); ok {
		v, _ := req.Value(f.Key)
		if err := t.ValidateTolerance(spec.Name, g.Label, v.Number); err != nil {
			return PredictionRequest{}, err
		}
	}
	if f, ok := spec.GatedFeature(GateSurfaceFinish); ok {
		v, _ := req.Value(f.Key)
		if err := t.ValidateSurfaceFinish(spec.Name, g.Label, v.Number); err != nil {
			return PredictionRequest{}, err
		}
	}
	return req, nil
}

func lookupRaw(raw map[string]any, f FeatureSpec) (any, bool) {
	if v, ok := raw[f.Key]; ok {
		return v, true
	}
	if v, ok := raw[f.Name]; ok {
		return v, true
	}
	if v, ok := raw[f.Label()]; ok {
		return v, true
	}
	return nil, false
}

func coerceField(tool string, f FeatureSpec, value any) (FrameField, error) {
	field := FrameField{Key: f.Key, Name: f.Name, Kind: f.Kind, Text: convert.ToText(value)}
	switch f.Kind {
	case KindFixedChoice:
		if field.Text == "" {
			field.Text = f.Choice
		}
		if field.Text != f.Choice {
			return FrameField{}, &InvalidChoiceError{Tool: tool, Field: f.Key, Value: text.Truncate(field.Text, maxEchoLen), Want: f.Choice}
		}
		if n, err := convert.ToFloat64(field.Text); err == nil {
			field.Number, field.Numeric = n, true
		}
		return field, nil
	default:
		n, err := convert.ToFloat64(value)
		if err != nil {
			return FrameField{}, &ParseError{Tool: tool, Field: f.Key, Value: text.Truncate(strings.TrimSpace(field.Text), maxEchoLen), Err: err}
		}
		if f.Kind == KindBoundedNumeric && f.Bounds != nil && !f.Bounds.Contains(n) {
			return FrameField{}, &OutOfRangeError{Tool: tool, Field: f.Key, Value: n, Range: *f.Bounds}
		}
		field.Number, field.Numeric = n, true
		return field, nil
	}
}

// Package form turns raw form submissions into per-tool predictions. A bad
// input only blocks its own tool; every selected tool gets an outcome.
package form

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"machpredict/internal/logger"
	"machpredict/internal/schema"

	"github.com/google/uuid"
)

// Predictor runs a validated request against the tool's model.
type Predictor interface {
	Predict(ctx context.Context, req schema.PredictionRequest) (schema.PredictionResult, error)
}

// Availability is optionally implemented by a Predictor that knows which
// tools currently have a model.
type Availability interface {
	Available(tool string) bool
}

// Service validates submissions against the schema table and predicts.
type Service struct {
	table  *schema.Table
	models Predictor
}

func NewService(table *schema.Table, models Predictor) *Service {
	return &Service{table: table, models: models}
}

// Table exposes the schema table the service validates against.
func (s *Service) Table() *schema.Table { return s.table }

func (s *Service) available(tool string) bool {
	if s.models == nil {
		return false
	}
	if a, ok := s.models.(Availability); ok {
		return a.Available(tool)
	}
	return true
}

// ToolInput is the raw data entered for one tool.
type ToolInput struct {
	Grade  string         `json:"grade"`
	Values map[string]any `json:"values"`
}

// Submission is one press of "Predict": the selected tools and their inputs.
type Submission struct {
	Tools  []string             `json:"tools"`
	Inputs map[string]ToolInput `json:"inputs"`
}

// ToolOutcome is the result or the error of one selected tool.
type ToolOutcome struct {
	Tool      string                   `json:"tool"`
	Grade     string                   `json:"grade,omitempty"`
	Result    *schema.PredictionResult `json:"result,omitempty"`
	Error     string                   `json:"error,omitempty"`
	ErrorKind string                   `json:"error_kind,omitempty"`
	Invalid   bool                     `json:"invalid,omitempty"`
	Field     string                   `json:"field,omitempty"`
	Range     *schema.NumericRange     `json:"range,omitempty"`
}

// OK reports whether the tool produced a prediction.
func (o ToolOutcome) OK() bool { return o.Result != nil }

// Outcome collects the per-tool outcomes of a submission.
type Outcome struct {
	ID      string        `json:"id"`
	Results []ToolOutcome `json:"results"`
}

// Failed counts tools that did not produce a prediction.
func (o Outcome) Failed() int {
	n := 0
	for _, r := range o.Results {
		if !r.OK() {
			n++
		}
	}
	return n
}

// Submit validates and predicts every selected tool independently.
func (s *Service) Submit(ctx context.Context, sub Submission) Outcome {
	out := Outcome{ID: uuid.NewString()}
	seen := make(map[string]bool, len(sub.Tools))
	for _, raw := range sub.Tools {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		spec, err := s.table.Tool(name)
		if err == nil {
			name = spec.Name
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		if err != nil {
			out.Results = append(out.Results, failed(name, "", err))
			continue
		}
		out.Results = append(out.Results, s.submitTool(ctx, spec.Name, inputFor(sub.Inputs, spec.Name)))
	}
	logger.Infof("submission id=%s tools=%d failed=%d", out.ID, len(out.Results), out.Failed())
	return out
}

func (s *Service) submitTool(ctx context.Context, tool string, in ToolInput) ToolOutcome {
	req, err := s.table.ValidateSubmission(tool, in.Grade, in.Values)
	if err != nil {
		logger.With(tool).Debugf("submission rejected: %v", err)
		return failed(tool, in.Grade, err)
	}
	if s.models == nil {
		return failed(tool, req.Grade, &schema.PredictionError{Tool: tool, Cause: schema.ErrModelUnavailable})
	}
	res, err := s.models.Predict(ctx, req)
	if err != nil {
		logger.With(tool).Warnf("prediction failed: %v", err)
		return failed(tool, req.Grade, err)
	}
	return ToolOutcome{Tool: tool, Grade: req.Grade, Result: &res}
}

func inputFor(inputs map[string]ToolInput, tool string) ToolInput {
	if in, ok := inputs[tool]; ok {
		return in
	}
	for name, in := range inputs {
		if strings.EqualFold(strings.TrimSpace(name), tool) {
			return in
		}
	}
	return ToolInput{}
}

func failed(tool, grade string, err error) ToolOutcome {
	o := ToolOutcome{
		Tool:      tool,
		Grade:     grade,
		Error:     err.Error(),
		ErrorKind: schema.Kind(err),
		Invalid:   schema.IsValidation(err),
	}
	var (
		oor     *schema.OutOfRangeError
		parse   *schema.ParseError
		missing *schema.MissingFieldError
		choice  *schema.InvalidChoiceError
	)
	switch {
	case errors.As(err, &oor):
		o.Field = oor.Field
		r := oor.Range
		o.Range = &r
	case errors.As(err, &parse):
		o.Field = parse.Field
	case errors.As(err, &missing):
		o.Field = missing.Field
	case errors.As(err, &choice):
		o.Field = choice.Field
	}
	return o
}

// ParseForm reads an HTML form post. Tools come from the repeated "tools"
// field; each tool's inputs are named "<Tool>.<key>" and its grade "<Tool>.grade".
func ParseForm(values url.Values) Submission {
	sub := Submission{Inputs: make(map[string]ToolInput)}
	for _, tool := range values["tools"] {
		if tool = strings.TrimSpace(tool); tool != "" {
			sub.Tools = append(sub.Tools, tool)
		}
	}
	for name, vals := range values {
		tool, key, ok := strings.Cut(name, ".")
		if !ok || tool == "" || key == "" || len(vals) == 0 {
			continue
		}
		in := sub.Inputs[tool]
		if in.Values == nil {
			in.Values = make(map[string]any)
		}
		if key == "grade" {
			in.Grade = strings.TrimSpace(vals[0])
		} else {
			in.Values[key] = vals[0]
		}
		sub.Inputs[tool] = in
	}
	return sub
}

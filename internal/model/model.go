// Package model loads the per-tool predictive models and runs predictions
// against them. Models are opaque behind Predictor; the JSON artifact kinds
// implemented here are the ones shipped with the application.
package model

import (
	"context"
	"fmt"

	"machpredict/internal/schema"
)

// Predictor scores a validated request. It returns one value per output label
// of the request's tool, in label order. Implementations must be safe for
// concurrent use; loaded artifacts are never mutated.
type Predictor interface {
	Predict(ctx context.Context, req schema.PredictionRequest) ([]float64, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, req schema.PredictionRequest) ([]float64, error)

func (f PredictorFunc) Predict(ctx context.Context, req schema.PredictionRequest) ([]float64, error) {
	return f(ctx, req)
}

// inputIndex maps feature keys to positions in the request vector.
func inputIndex(req schema.PredictionRequest) (map[string]float64, error) {
	values := make(map[string]float64, len(req.Fields))
	for _, f := range req.Fields {
		if !f.Numeric {
			return nil, fmt.Errorf("input %s is not numeric: %q", f.Key, f.Text)
		}
		values[f.Key] = f.Number
	}
	return values, nil
}

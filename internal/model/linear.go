package model

import (
	"context"
	"fmt"

	"machpredict/internal/schema"
)

// Linear is a multi-output linear model: y_j = intercept_j + sum_k w_jk * x_k.
type Linear struct {
	tool    string
	outputs []linearOutput
}

type linearOutput struct {
	label     string
	intercept float64
	weights   map[string]float64
}

func (m *Linear) Predict(ctx context.Context, req schema.PredictionRequest) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	x, err := inputIndex(req)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(m.outputs))
	for i, o := range m.outputs {
		sum := o.intercept
		for key, w := range o.weights {
			v, ok := x[key]
			if !ok {
				return nil, fmt.Errorf("%s: input %s missing for %s", m.tool, key, o.label)
			}
			sum += w * v
		}
		out[i] = sum
	}
	return out, nil
}

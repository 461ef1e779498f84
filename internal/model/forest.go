package model

import (
	"context"
	"fmt"

	"machpredict/internal/schema"
)

// Forest averages regression trees per output label.
type Forest struct {
	tool    string
	outputs []forestOutput
}

type forestOutput struct {
	label string
	trees []tree
}

// tree is stored flat; node 0 is the root.
type tree struct {
	nodes []treeNode
}

// treeNode is a split (x[feature] <= threshold goes left) or, with an empty
// feature, a leaf carrying value.
type treeNode struct {
	feature   string
	threshold float64
	left      int
	right     int
	value     float64
}

func (n treeNode) leaf() bool { return n.feature == "" }

func (m *Forest) Predict(ctx context.Context, req schema.PredictionRequest) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	x, err := inputIndex(req)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(m.outputs))
	for i, o := range m.outputs {
		var sum float64
		for j, t := range o.trees {
			v, err := t.eval(x)
			if err != nil {
				return nil, fmt.Errorf("%s: %s tree %d: %w", m.tool, o.label, j, err)
			}
			sum += v
		}
		out[i] = sum / float64(len(o.trees))
	}
	return out, nil
}

func (t tree) eval(x map[string]float64) (float64, error) {
	idx := 0
	// A well-formed tree reaches a leaf in at most len(nodes) steps.
	for steps := 0; steps <= len(t.nodes); steps++ {
		n := t.nodes[idx]
		if n.leaf() {
			return n.value, nil
		}
		v, ok := x[n.feature]
		if !ok {
			return 0, fmt.Errorf("input %s missing", n.feature)
		}
		if v <= n.threshold {
			idx = n.left
		} else {
			idx = n.right
		}
	}
	return 0, fmt.Errorf("tree does not terminate")
}

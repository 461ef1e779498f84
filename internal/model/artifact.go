package model

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"machpredict/internal/schema"

	"github.com/tidwall/gjson"
)

const (
	kindLinear = "linear"
	kindForest = "forest"
)

// LoadArtifact reads a model artifact for spec from path. Any failure is
// reported as *schema.ModelLoadError.
func LoadArtifact(path string, spec schema.ToolSpec) (Predictor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &schema.ModelLoadError{Tool: spec.Name, Cause: err}
	}
	p, err := ParseArtifact(raw, spec)
	if err != nil {
		return nil, &schema.ModelLoadError{Tool: spec.Name, Cause: fmt.Errorf("%s: %w", path, err)}
	}
	return p, nil
}

// ParseArtifact decodes a JSON artifact and checks it against the tool schema.
func ParseArtifact(raw []byte, spec schema.ToolSpec) (Predictor, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("artifact is not valid JSON")
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, errors.New("artifact root must be an object")
	}
	if tool := strings.TrimSpace(doc.Get("tool").String()); !strings.EqualFold(tool, spec.Name) {
		return nil, fmt.Errorf("artifact is for tool %q, want %q", tool, spec.Name)
	}
	outputs := doc.Get("outputs")
	if !outputs.IsArray() {
		return nil, errors.New("artifact outputs must be an array")
	}
	items := outputs.Array()
	if len(items) != len(spec.OutputLabels) {
		return nil, fmt.Errorf("artifact has %d outputs, tool declares %d", len(items), len(spec.OutputLabels))
	}
	for i, item := range items {
		if label := item.Get("label").String(); label != spec.OutputLabels[i] {
			return nil, fmt.Errorf("output #%d is %q, want %q", i+1, label, spec.OutputLabels[i])
		}
	}
	known := make(map[string]bool, len(spec.Features))
	for _, f := range spec.Features {
		known[f.Key] = true
	}
	switch kind := strings.ToLower(strings.TrimSpace(doc.Get("kind").String())); kind {
	case kindLinear:
		return parseLinear(spec.Name, items, known)
	case kindForest:
		return parseForest(spec.Name, items, known)
	default:
		return nil, fmt.Errorf("unsupported model kind %q", kind)
	}
}

func parseLinear(tool string, items []gjson.Result, known map[string]bool) (*Linear, error) {
	m := &Linear{tool: tool, outputs: make([]linearOutput, 0, len(items))}
	for i, item := range items {
		intercept := item.Get("intercept")
		if intercept.Type != gjson.Number {
			return nil, fmt.Errorf("output #%d intercept must be a number", i+1)
		}
		o := linearOutput{
			label:     item.Get("label").String(),
			intercept: intercept.Float(),
			weights:   make(map[string]float64),
		}
		weights := item.Get("weights")
		if weights.Exists() && !weights.IsObject() {
			return nil, fmt.Errorf("output #%d weights must be an object", i+1)
		}
		var werr error
		weights.ForEach(func(key, value gjson.Result) bool {
			if !known[key.String()] {
				werr = fmt.Errorf("output #%d weights unknown input %q", i+1, key.String())
				return false
			}
			if value.Type != gjson.Number {
				werr = fmt.Errorf("output #%d weight %s must be a number", i+1, key.String())
				return false
			}
			o.weights[key.String()] = value.Float()
			return true
		})
		if werr != nil {
			return nil, werr
		}
		m.outputs = append(m.outputs, o)
	}
	return m, nil
}

func parseForest(tool string, items []gjson.Result, known map[string]bool) (*Forest, error) {
	m := &Forest{tool: tool, outputs: make([]forestOutput, 0, len(items))}
	for i, item := range items {
		o := forestOutput{label: item.Get("label").String()}
		trees := item.Get("trees").Array()
		if len(trees) == 0 {
			return nil, fmt.Errorf("output #%d has no trees", i+1)
		}
		for j, tr := range trees {
			t, err := parseTree(tr, known)
			if err != nil {
				return nil, fmt.Errorf("output #%d tree %d: %w", i+1, j, err)
			}
			o.trees = append(o.trees, t)
		}
		m.outputs = append(m.outputs, o)
	}
	return m, nil
}

func parseTree(tr gjson.Result, known map[string]bool) (tree, error) {
	nodes := tr.Get("nodes").Array()
	if len(nodes) == 0 {
		return tree{}, errors.New("tree has no nodes")
	}
	t := tree{nodes: make([]treeNode, len(nodes))}
	for idx, n := range nodes {
		feature := n.Get("feature").String()
		if feature == "" {
			v := n.Get("value")
			if v.Type != gjson.Number {
				return tree{}, fmt.Errorf("leaf %d needs a numeric value", idx)
			}
			t.nodes[idx] = treeNode{value: v.Float()}
			continue
		}
		if !known[feature] {
			return tree{}, fmt.Errorf("node %d splits on unknown input %q", idx, feature)
		}
		left, right := int(n.Get("left").Int()), int(n.Get("right").Int())
		// Children always come after their parent, which rules out cycles.
		for _, child := range []int{left, right} {
			if child <= idx || child >= len(nodes) {
				return tree{}, fmt.Errorf("node %d has invalid child %d", idx, child)
			}
		}
		t.nodes[idx] = treeNode{
			feature:   feature,
			threshold: n.Get("threshold").Float(),
			left:      left,
			right:     right,
		}
	}
	return t, nil
}

package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"machpredict/internal/schema"

	"github.com/stretchr/testify/require"
)

// linearArtifact builds a linear artifact whose every output is
// intercept + 1*first bounded input.
func linearArtifact(t *testing.T, spec schema.ToolSpec, intercept float64) []byte {
	t.Helper()
	var key string
	for _, f := range spec.Features {
		if f.Kind == schema.KindBoundedNumeric {
			key = f.Key
			break
		}
	}
	outputs := make([]map[string]any, len(spec.OutputLabels))
	for i, label := range spec.OutputLabels {
		outputs[i] = map[string]any{
			"label":     label,
			"intercept": intercept + float64(i),
			"weights":   map[string]float64{key: 1},
		}
	}
	raw, err := json.Marshal(map[string]any{"tool": spec.Name, "kind": "linear", "outputs": outputs})
	require.NoError(t, err)
	return raw
}

func writeArtifacts(t *testing.T, dir string, tbl *schema.Table, skip ...string) {
	t.Helper()
	skipped := make(map[string]bool)
	for _, s := range skip {
		skipped[s] = true
	}
	for _, tool := range tbl.Tools() {
		if skipped[tool] {
			continue
		}
		spec, err := tbl.Tool(tool)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, tool+".json"), linearArtifact(t, spec, 0), 0o644))
	}
}

func validRequest(t *testing.T, tbl *schema.Table, tool string) schema.PredictionRequest {
	t.Helper()
	spec, err := tbl.Tool(tool)
	require.NoError(t, err)
	g := spec.Grades[0]
	raw := map[string]any{}
	for _, f := range spec.Features {
		switch {
		case f.Kind == schema.KindFixedChoice:
			raw[f.Key] = f.Choice
		case f.Kind == schema.KindBoundedNumeric:
			raw[f.Key] = f.Bounds.HighFloat()
		case f.Gate == schema.GateTolerance:
			raw[f.Key] = g.Tolerance.LowFloat()
		case f.Gate == schema.GateSurfaceFinish:
			raw[f.Key] = g.SurfaceFinish.LowFloat()
		}
	}
	req, err := tbl.ValidateSubmission(tool, g.Label, raw)
	require.NoError(t, err)
	return req
}

package model

import (
	"context"
	"path/filepath"
	"testing"

	"machpredict/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArtifact_Linear(t *testing.T) {
	tbl := schema.Default()
	spec, err := tbl.Tool("Hole")
	require.NoError(t, err)

	p, err := ParseArtifact(linearArtifact(t, spec, 0.5), spec)
	require.NoError(t, err)

	req := validRequest(t, tbl, "Hole")
	scores, err := p.Predict(context.Background(), req)
	require.NoError(t, err)
	// First bounded input of Hole is diameter, at its upper bound 10.
	assert.Equal(t, []float64{10.5, 11.5, 12.5, 13.5, 14.5}, scores)
}

func TestParseArtifact_Forest(t *testing.T) {
	tbl := schema.Default()
	spec, err := tbl.Tool("Fillet")
	require.NoError(t, err)
	doc := `{
	  "tool": "Fillet", "kind": "forest",
	  "outputs": [
	    {"label": "End Milling-Rough operation", "trees": [
	      {"nodes": [{"feature": "radius", "threshold": 3, "left": 1, "right": 2}, {"value": 1}, {"value": 0}]},
	      {"nodes": [{"value": 0.5}]}
	    ]},
	    {"label": "End Milling-Semi finish operation", "trees": [{"nodes": [{"value": 0.25}]}]},
	    {"label": "End Milling-Finish operation", "trees": [
	      {"nodes": [{"feature": "tolerance", "threshold": 0.1, "left": 1, "right": 2}, {"value": 1}, {"value": 0}]}
	    ]}
	  ]
	}`
	p, err := ParseArtifact([]byte(doc), spec)
	require.NoError(t, err)

	req := validRequest(t, tbl, "Fillet") // radius 6, tolerance 0.06
	scores, err := p.Predict(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.25, 1}, scores)
}

func TestParseArtifact_Rejects(t *testing.T) {
	spec, err := schema.Default().Tool("Fillet")
	require.NoError(t, err)
	cases := map[string]string{
		"invalid json":      `{"tool":`,
		"wrong tool":        `{"tool":"Hole","kind":"linear","outputs":[]}`,
		"label count":       `{"tool":"Fillet","kind":"linear","outputs":[{"label":"End Milling-Rough operation"}]}`,
		"unknown kind":      `{"tool":"Fillet","kind":"svm","outputs":[{"label":"End Milling-Rough operation"},{"label":"End Milling-Semi finish operation"},{"label":"End Milling-Finish operation"}]}`,
		"label order":       `{"tool":"Fillet","kind":"linear","outputs":[{"label":"End Milling-Finish operation"},{"label":"End Milling-Semi finish operation"},{"label":"End Milling-Rough operation"}]}`,
		"unknown input":     `{"tool":"Fillet","kind":"linear","outputs":[{"label":"End Milling-Rough operation","weights":{"depth":1}},{"label":"End Milling-Semi finish operation"},{"label":"End Milling-Finish operation"}]}`,
		"string intercept":  `{"tool":"Fillet","kind":"linear","outputs":[{"label":"End Milling-Rough operation","intercept":"0.5"},{"label":"End Milling-Semi finish operation","intercept":0},{"label":"End Milling-Finish operation","intercept":0}]}`,
		"missing intercept": `{"tool":"Fillet","kind":"linear","outputs":[{"label":"End Milling-Rough operation","intercept":0},{"label":"End Milling-Semi finish operation"},{"label":"End Milling-Finish operation","intercept":0}]}`,
		"tree cycle":        `{"tool":"Fillet","kind":"forest","outputs":[{"label":"End Milling-Rough operation","trees":[{"nodes":[{"feature":"radius","threshold":1,"left":0,"right":0}]}]},{"label":"End Milling-Semi finish operation","trees":[{"nodes":[{"value":1}]}]},{"label":"End Milling-Finish operation","trees":[{"nodes":[{"value":1}]}]}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseArtifact([]byte(doc), spec)
			assert.Error(t, err)
		})
	}
}

func TestLoadArtifact_MissingFile(t *testing.T) {
	spec, err := schema.Default().Tool("Step")
	require.NoError(t, err)
	_, err = LoadArtifact(filepath.Join(t.TempDir(), "Step.json"), spec)
	var le *schema.ModelLoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "Step", le.Tool)
	assert.Equal(t, "model_load", schema.Kind(err))
}

func TestShippedArtifacts(t *testing.T) {
	tbl := schema.Default()
	reg := NewRegistry(tbl, filepath.Join("..", "..", "models"), nil)
	failures, err := reg.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, failures)

	for _, tool := range tbl.Tools() {
		res, err := reg.Predict(context.Background(), validRequest(t, tbl, tool))
		require.NoError(t, err, tool)
		spec, _ := tbl.Tool(tool)
		assert.Len(t, res.Values, len(spec.OutputLabels), tool)
	}
}

package chart

import (
	"strings"
	"testing"

	"machpredict/internal/form"
	"machpredict/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOutcome(t *testing.T) {
	hole := schema.PredictionResult{Tool: "Hole", Values: []schema.LabeledValue{
		{Label: "Drilling", Value: 0.8},
		{Label: "Reaming", Value: 0.1},
	}}
	out := form.Outcome{ID: "abc", Results: []form.ToolOutcome{
		{Tool: "Hole", Result: &hole},
		{Tool: "Boss", Error: "bad", ErrorKind: "parse"},
	}}

	html, err := RenderOutcome(out)
	require.NoError(t, err)
	body := string(html)
	assert.True(t, strings.Contains(body, "Drilling"))
	assert.True(t, strings.Contains(body, "Reaming"))
	assert.False(t, strings.Contains(body, "Boss"))
}

func TestRenderOutcome_NothingToDraw(t *testing.T) {
	html, err := RenderOutcome(form.Outcome{Results: []form.ToolOutcome{{Tool: "Boss", Error: "bad"}}})
	require.NoError(t, err)
	assert.Nil(t, html)
}

package formhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"machpredict/internal/form"
	"machpredict/internal/model"
	"machpredict/internal/schema"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPredictor struct {
	table *schema.Table
}

func (p stubPredictor) Predict(_ context.Context, req schema.PredictionRequest) (schema.PredictionResult, error) {
	spec, err := p.table.Tool(req.Tool)
	if err != nil {
		return schema.PredictionResult{}, err
	}
	res := schema.PredictionResult{Tool: spec.Name}
	for i, label := range spec.OutputLabels {
		res.Values = append(res.Values, schema.LabeledValue{Label: label, Value: float64(i) / 10})
	}
	return res, nil
}

type stubStatus []model.Status

func (s stubStatus) Status() []model.Status { return s }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	table := schema.Default()
	srv, err := NewServer(ServerConfig{
		Forms:  form.NewService(table, stubPredictor{table: table}),
		Models: stubStatus{{Tool: "Hole", Loaded: true}, {Tool: "Boss", Error: "missing"}},
		Charts: func(out form.Outcome) ([]byte, error) { return []byte("<p>chart " + out.ID + "</p>"), nil },
	})
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func holeValues(tolerance string) map[string]any {
	return map[string]any{
		"material_type": "1", "hardness": "35.45", "density": "2870", "poisson_ratio": "0.26",
		"diameter": 8, "depth": 15, "tolerance": tolerance, "surface_finish": "0.001",
	}
}

func TestNewServer_RequiresForms(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPI_Tools(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/tools", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Tools []form.ToolForm `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Tools, 6)
	assert.Equal(t, "Boss", list.Tools[0].Tool)

	rec = do(t, srv, http.MethodGet, "/api/tools/hole", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tool":"Hole"`)

	rec = do(t, srv, http.MethodGet, "/api/tools/Slot", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"unknown_tool"`)
}

func TestAPI_Grade(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/tools/Hole/grades/IT7", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"tool": "Hole",
		"grade": "IT7",
		"tolerance": {"low": 0.01, "high": 0.018},
		"surface_finish": {"low": 0.0008, "high": 0.0016}
	}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/tools/Boss/grades/"+url.PathEscape("IT8 - IT11"), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"low":0.014`)

	rec = do(t, srv, http.MethodGet, "/api/tools/Hole/grades/IT99", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown_grade")
}

func TestAPI_Predict(t *testing.T) {
	srv := newTestServer(t)
	encode := func(sub form.Submission) string {
		raw, err := json.Marshal(sub)
		require.NoError(t, err)
		return string(raw)
	}

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", encode(form.Submission{Tools: []string{"Hole"}, Inputs: map[string]form.ToolInput{
			"Hole": {Grade: "IT7", Values: holeValues("0.015")},
		}}), http.StatusOK},
		{"tolerance out of range", encode(form.Submission{Tools: []string{"Hole"}, Inputs: map[string]form.ToolInput{
			"Hole": {Grade: "IT7", Values: holeValues("0.02")},
		}}), http.StatusUnprocessableEntity},
		{"partial success", encode(form.Submission{Tools: []string{"Hole", "Boss"}, Inputs: map[string]form.ToolInput{
			"Hole": {Grade: "IT7", Values: holeValues("0.015")},
		}}), http.StatusOK},
		{"unknown tool", encode(form.Submission{Tools: []string{"Slot"}}), http.StatusNotFound},
		{"no tools", `{"tools":[]}`, http.StatusBadRequest},
		{"bad json", `{"tools":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/predict", "application/json", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, srv, http.MethodPost, "/api/predict", "application/json", cases[1].body)
	var out form.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Results, 1)
	assert.Equal(t, "tolerance", out.Results[0].Field)
	assert.Equal(t, "out_of_range", out.Results[0].ErrorKind)
}

func TestAPI_Models(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/models", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tool":"Boss"`)
	assert.Contains(t, rec.Body.String(), `"error":"missing"`)
}

func TestPage(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, tool := range []string{"Boss", "Chamfer", "Fillet", "Hole", "Pocket", "Step"} {
		assert.Contains(t, body, `value="`+tool+`"`)
	}
	assert.Contains(t, body, `name="Hole.tolerance"`)
	assert.Contains(t, body, `placeholder="0.000"`)
	assert.Contains(t, body, `placeholder="0.0000"`)
}

// Every grade boundary must be typeable: a fixed step would make the browser
// refuse values such as 0.00125 that the table accepts.
func TestPage_GatedInputsAcceptAllBoundaries(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	inputs := regexp.MustCompile(`<input type="number"[^>]*>`).FindAllString(body, -1)
	steps := regexp.MustCompile(`step="([^"]*)"`)
	gated := 0
	for _, in := range inputs {
		m := steps.FindStringSubmatch(in)
		require.NotNil(t, m, in)
		if strings.Contains(in, ".tolerance\"") || strings.Contains(in, ".surface_finish\"") {
			gated++
		}
		if m[1] == "any" {
			continue
		}
		step, err := decimal.NewFromString(m[1])
		require.NoError(t, err, in)
		for _, tool := range schema.Default().Tools() {
			spec, _ := schema.Default().Tool(tool)
			for _, g := range spec.Grades {
				for _, bound := range []decimal.Decimal{g.Tolerance.Low, g.Tolerance.High, g.SurfaceFinish.Low, g.SurfaceFinish.High} {
					assert.True(t, bound.Mod(step).IsZero(), "%s: %s is not a multiple of step %s", tool, bound, step)
				}
			}
		}
	}
	assert.Equal(t, 12, gated)
}

func TestPredictForm(t *testing.T) {
	srv := newTestServer(t)
	values := url.Values{"tools": {"Hole", "Boss"}, "Hole.grade": {"IT7"}, "Boss.grade": {"IT8 - IT11"}}
	for k, v := range holeValues("0.015") {
		values.Set("Hole."+k, fmt.Sprint(v))
	}
	values.Set("Boss.length", "abc")

	rec := do(t, srv, http.MethodPost, "/predict", "application/x-www-form-urlencoded", values.Encode())
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Drilling")
	assert.Contains(t, body, "srcdoc=")
	assert.Contains(t, body, "missing input")

	rec = do(t, srv, http.MethodPost, "/predict", "application/x-www-form-urlencoded", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Select at least one tool.")
}

func TestOutcomeStatus(t *testing.T) {
	res := &schema.PredictionResult{}
	assert.Equal(t, http.StatusBadRequest, outcomeStatus(form.Outcome{}))
	assert.Equal(t, http.StatusOK, outcomeStatus(form.Outcome{Results: []form.ToolOutcome{{ErrorKind: "unknown_tool"}, {Result: res}}}))
	assert.Equal(t, http.StatusNotFound, outcomeStatus(form.Outcome{Results: []form.ToolOutcome{{ErrorKind: "unknown_tool"}}}))
	assert.Equal(t, http.StatusUnprocessableEntity, outcomeStatus(form.Outcome{Results: []form.ToolOutcome{{ErrorKind: "unknown_tool"}, {ErrorKind: "parse", Invalid: true}}}))
	assert.Equal(t, http.StatusServiceUnavailable, outcomeStatus(form.Outcome{Results: []form.ToolOutcome{{ErrorKind: "prediction"}}}))
}

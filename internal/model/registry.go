package model

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"machpredict/internal/logger"
	"machpredict/internal/schema"

	"golang.org/x/sync/errgroup"
)

// Status reports whether a tool's model is available.
type Status struct {
	Tool     string    `json:"tool"`
	Path     string    `json:"path"`
	Loaded   bool      `json:"loaded"`
	Error    string    `json:"error,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

type entry struct {
	predictor Predictor
	err       error
	loadedAt  time.Time
}

// Registry holds one model handle per tool. Handles are replaced whole, never
// modified, so Predict only needs a read lock to fetch one.
type Registry struct {
	table *schema.Table
	dir   string
	files map[string]string

	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty registry. files optionally overrides the
// artifact file per tool; relative paths resolve against dir.
func NewRegistry(table *schema.Table, dir string, files map[string]string) *Registry {
	r := &Registry{
		table:   table,
		dir:     strings.TrimSpace(dir),
		files:   make(map[string]string, len(files)),
		entries: make(map[string]entry),
	}
	for tool, path := range files {
		if spec, err := table.Tool(tool); err == nil && strings.TrimSpace(path) != "" {
			r.files[spec.Name] = strings.TrimSpace(path)
		}
	}
	return r
}

// ArtifactPath returns the file the tool's model is read from.
func (r *Registry) ArtifactPath(tool string) string {
	name := tool + ".json"
	if override, ok := r.files[tool]; ok {
		name = override
	}
	if filepath.IsAbs(name) || r.dir == "" {
		return name
	}
	return filepath.Join(r.dir, name)
}

// LoadAll loads every tool's artifact concurrently. A failing tool is recorded
// and returned in the map but does not stop the others; only ctx cancellation
// is returned as an error.
func (r *Registry) LoadAll(ctx context.Context) (map[string]error, error) {
	tools := r.table.Tools()
	errs := make([]error, len(tools))
	g, gctx := errgroup.WithContext(ctx)
	for i, tool := range tools {
		i, tool := i, tool
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			errs[i] = r.Load(tool)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	failed := make(map[string]error)
	for i, err := range errs {
		if err != nil {
			failed[tools[i]] = err
		}
	}
	return failed, nil
}

// Load (re)reads one tool's artifact. A failed reload keeps the last good
// handle serving and only records the error for Status.
func (r *Registry) Load(tool string) error {
	spec, err := r.table.Tool(tool)
	if err != nil {
		return err
	}
	log := logger.With(spec.Name)
	path := r.ArtifactPath(spec.Name)
	p, err := LoadArtifact(path, spec)
	r.mu.Lock()
	prev := r.entries[spec.Name]
	if err != nil {
		r.entries[spec.Name] = entry{predictor: prev.predictor, err: err, loadedAt: prev.loadedAt}
	} else {
		r.entries[spec.Name] = entry{predictor: p, loadedAt: time.Now()}
	}
	r.mu.Unlock()
	if err != nil {
		if prev.predictor != nil {
			log.Errorf("reload failed, keeping previous model: %v", err)
		} else {
			log.Errorf("%v", err)
		}
		return err
	}
	log.Infof("model loaded path=%s", path)
	return nil
}

// Set installs a predictor directly, bypassing artifact loading.
func (r *Registry) Set(tool string, p Predictor) error {
	spec, err := r.table.Tool(tool)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.entries[spec.Name] = entry{predictor: p, loadedAt: time.Now()}
	r.mu.Unlock()
	return nil
}

// Predict runs the request's tool model and labels the scores.
func (r *Registry) Predict(ctx context.Context, req schema.PredictionRequest) (res schema.PredictionResult, err error) {
	spec, err := r.table.Tool(req.Tool)
	if err != nil {
		return schema.PredictionResult{}, err
	}
	r.mu.RLock()
	e, ok := r.entries[spec.Name]
	r.mu.RUnlock()
	if !ok || e.predictor == nil {
		cause := schema.ErrModelUnavailable
		if e.err != nil {
			cause = fmt.Errorf("%w: %v", schema.ErrModelUnavailable, e.err)
		}
		return schema.PredictionResult{}, &schema.PredictionError{Tool: spec.Name, Cause: cause}
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = &schema.PredictionError{Tool: spec.Name, Cause: fmt.Errorf("model panic: %v", rec)}
		}
	}()
	logger.LogModelRequest(spec.Name, req.String())
	scores, err := e.predictor.Predict(ctx, req)
	if err != nil {
		return schema.PredictionResult{}, &schema.PredictionError{Tool: spec.Name, Cause: err}
	}
	logger.LogModelResponse(spec.Name, formatScores(scores))
	if len(scores) != len(spec.OutputLabels) {
		return schema.PredictionResult{}, &schema.PredictionError{
			Tool:  spec.Name,
			Cause: fmt.Errorf("model returned %d scores for %d labels", len(scores), len(spec.OutputLabels)),
		}
	}
	res = schema.PredictionResult{Tool: spec.Name, Values: make([]schema.LabeledValue, len(scores))}
	for i, v := range scores {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return schema.PredictionResult{}, &schema.PredictionError{
				Tool:  spec.Name,
				Cause: fmt.Errorf("score for %s is not finite", spec.OutputLabels[i]),
			}
		}
		res.Values[i] = schema.LabeledValue{Label: spec.OutputLabels[i], Value: v}
	}
	return res, nil
}

// Status lists per-tool availability in table order.
func (r *Registry) Status() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := r.table.Tools()
	out := make([]Status, 0, len(tools))
	for _, tool := range tools {
		e, ok := r.entries[tool]
		st := Status{Tool: tool, Path: r.ArtifactPath(tool)}
		if ok {
			st.Loaded = e.predictor != nil
			st.LoadedAt = e.loadedAt
			if e.err != nil {
				st.Error = e.err.Error()
			}
		} else {
			st.Error = "not loaded"
		}
		out = append(out, st)
	}
	return out
}

// Available reports whether tool currently has a model.
func (r *Registry) Available(tool string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[tool]
	return ok && e.predictor != nil
}

func formatScores(scores []float64) string {
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = strconv.FormatFloat(s, 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}

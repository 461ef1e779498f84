package app

import (
	"fmt"
	"strings"

	"machpredict/internal/config"
	"machpredict/internal/logger"
	"machpredict/internal/model"
	"machpredict/internal/schema"
)

type StartupSummary struct {
	Env       string
	HTTPAddr  string
	ModelsDir string
	Watch     bool
	Materials config.MaterialsConfig
	Tools     []ToolSummary
}

type ToolSummary struct {
	Name   string
	Grades []string
	Model  model.Status
}

func buildSummary(cfg *config.Config, table *schema.Table, registry *model.Registry) *StartupSummary {
	s := &StartupSummary{
		Env:       cfg.App.Env,
		HTTPAddr:  cfg.App.HTTPAddr,
		ModelsDir: cfg.Models.Dir,
		Watch:     cfg.Models.Watch,
		Materials: cfg.Materials,
	}
	status := make(map[string]model.Status)
	if registry != nil {
		for _, st := range registry.Status() {
			status[st.Tool] = st
		}
	}
	for _, tool := range table.Tools() {
		grades, _ := table.ToleranceGrades(tool)
		s.Tools = append(s.Tools, ToolSummary{Name: tool, Grades: grades, Model: status[tool]})
	}
	return s
}

// Available counts tools whose model loaded.
func (s *StartupSummary) Available() int {
	n := 0
	for _, t := range s.Tools {
		if t.Model.Loaded {
			n++
		}
	}
	return n
}

// Print writes the summary to the log, one line per log record.
func (s *StartupSummary) Print() {
	logger.InfoBlock(s.String())
}

func (s *StartupSummary) String() string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "%*s\n", 40+len("STARTUP SUMMARY")/2, "STARTUP SUMMARY")
	fmt.Fprintln(&b, rule)

	fmt.Fprintln(&b, "[APP]")
	fmt.Fprintf(&b, "  env:    %s\n", s.Env)
	fmt.Fprintf(&b, "  listen: %s\n", s.HTTPAddr)

	fmt.Fprintln(&b, "[MATERIAL]")
	fmt.Fprintf(&b, "  type: %s  hardness: %s  density: %s  poisson ratio: %s\n",
		s.Materials.Type, s.Materials.Hardness, s.Materials.Density, s.Materials.PoissonRatio)

	fmt.Fprintf(&b, "[MODELS] dir=%s watch=%t loaded=%d/%d\n", s.ModelsDir, s.Watch, s.Available(), len(s.Tools))
	for _, t := range s.Tools {
		state := "ok"
		if !t.Model.Loaded {
			state = "unavailable"
		}
		if t.Model.Error != "" {
			state += " (" + t.Model.Error + ")"
		}
		fmt.Fprintf(&b, "  > %-8s %s\n", t.Name, state)
		fmt.Fprintf(&b, "    grades: %s\n", strings.Join(t.Grades, ", "))
	}
	fmt.Fprintln(&b, rule)
	return b.String()
}

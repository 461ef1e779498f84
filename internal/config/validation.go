package config

import (
	"fmt"
	"strconv"
	"strings"
)

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Models.validate(); err != nil {
		return err
	}
	return c.Materials.validate()
}

func (a *AppConfig) validate() error {
	if !validLogLevels[a.LogLevel] {
		return fmt.Errorf("app.log_level %q is not one of debug, info, warn, error", a.LogLevel)
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr cannot be empty")
	}
	if a.PayloadDump && strings.TrimSpace(a.PayloadLogPath) == "" {
		return fmt.Errorf("app.payload_dump requires app.payload_log_path")
	}
	return nil
}

func (m *ModelsConfig) validate() error {
	if strings.TrimSpace(m.Dir) == "" {
		return fmt.Errorf("models.dir cannot be empty")
	}
	for tool, file := range m.Files {
		if strings.TrimSpace(file) == "" {
			return fmt.Errorf("models.files.%s cannot be empty", tool)
		}
	}
	return nil
}

func (m *MaterialsConfig) validate() error {
	fields := []struct {
		key   string
		value string
	}{
		{"materials.type", m.Type},
		{"materials.hardness", m.Hardness},
		{"materials.density", m.Density},
		{"materials.poisson_ratio", m.PoissonRatio},
	}
	for _, f := range fields {
		n, err := strconv.ParseFloat(strings.TrimSpace(f.value), 64)
		if err != nil {
			return fmt.Errorf("%s must be numeric, got %q", f.key, f.value)
		}
		if n < 0 {
			return fmt.Errorf("%s must be >= 0", f.key)
		}
	}
	return nil
}

package config

import "strings"

// Config is the root configuration of machpredict.
type Config struct {
	App       AppConfig       `toml:"app"`
	Models    ModelsConfig    `toml:"models"`
	Materials MaterialsConfig `toml:"materials"`
}

type AppConfig struct {
	Env            string `toml:"env"`
	LogLevel       string `toml:"log_level"`
	HTTPAddr       string `toml:"http_addr"`
	LogPath        string `toml:"log_path"`
	PayloadLogPath string `toml:"payload_log_path"`
	PayloadDump    bool   `toml:"payload_dump"`
}

// ModelsConfig locates the per-tool model artifacts.
type ModelsConfig struct {
	Dir   string            `toml:"dir"`
	Files map[string]string `toml:"files"`
	Watch bool              `toml:"watch"`
}

// MaterialsConfig holds the fixed workpiece material properties offered by
// the form. Values are kept as text so they reach the models verbatim.
type MaterialsConfig struct {
	Type         string `toml:"type"`
	Hardness     string `toml:"hardness"`
	Density      string `toml:"density"`
	PoissonRatio string `toml:"poisson_ratio"`
}

// Choices maps the configured material values to schema feature keys.
func (m MaterialsConfig) Choices() map[string]string {
	return map[string]string{
		"material_type": strings.TrimSpace(m.Type),
		"hardness":      strings.TrimSpace(m.Hardness),
		"density":       strings.TrimSpace(m.Density),
		"poisson_ratio": strings.TrimSpace(m.PoissonRatio),
	}
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}

// fieldDefault applies a default unless the key was set explicitly.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

package config

import "strings"

const (
	defaultAppEnv       = "dev"
	defaultAppLogLevel  = "info"
	defaultAppHTTPAddr  = ":8501"
	defaultModelsDir    = "models"
	defaultMaterialType = "1"
	defaultHardness     = "35.45"
	defaultDensity      = "2870"
	defaultPoissonRatio = "0.26"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Models.applyDefaults(keys)
	c.Materials.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
	a.LogLevel = strings.ToLower(strings.TrimSpace(a.LogLevel))
}

func (m *ModelsConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("models.dir", &m.Dir, defaultModelsDir),
	)
	if m.Files == nil {
		m.Files = map[string]string{}
	}
}

// Material fields are defaulted even when present but blank: an empty choice
// would leave the form without a selectable value.
func (m *MaterialsConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(nil,
		stringFieldDefault("materials.type", &m.Type, defaultMaterialType),
		stringFieldDefault("materials.hardness", &m.Hardness, defaultHardness),
		stringFieldDefault("materials.density", &m.Density, defaultDensity),
		stringFieldDefault("materials.poisson_ratio", &m.PoissonRatio, defaultPoissonRatio),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

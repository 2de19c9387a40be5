package domain

import "sort"

// Vars is a key/value store used for templating and runtime variable resolution.
type Vars map[string]string

// Get returns a value for the given key and a boolean indicating if it exists.
func Get(vars Vars, key string) (string, bool) {
	if vars == nil {
		return "", false
	}
	val, ok := vars[key]
	return val, ok
}

// Set sets a key/value in the map, initializing it if needed.
func Set(vars Vars, key, value string) Vars {
	if vars == nil {
		vars = Vars{}
	}
	vars[key] = value
	return vars
}

// Merge merges base and override vars (override wins) and returns a new map.
func Merge(base Vars, override Vars) Vars {
	out := Vars{}
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// Preset holds the per-environment defaults for the application under test.
// Keys are configuration keys as accepted by Config.Set (base_url, db_host...).
type Preset struct {
	Name   string
	Source string // "builtin" or a file path
	Values Vars
}

// BuiltinPresets are the environments known without any project files.
func BuiltinPresets() map[string]Preset {
	return map[string]Preset{
		"development": {
			Name:   "development",
			Source: "builtin",
			Values: Vars{
				"base_url":     "http://localhost:3000",
				"api_base_url": "http://localhost:8000/api",
				"db_host":      "localhost",
			},
		},
		"staging": {
			Name:   "staging",
			Source: "builtin",
			Values: Vars{
				"base_url":     "https://staging.demo-ecommerce.com",
				"api_base_url": "https://api-staging.demo-ecommerce.com",
				"db_host":      "staging-db.demo-ecommerce.com",
			},
		},
		"production": {
			Name:   "production",
			Source: "builtin",
			Values: Vars{
				"base_url":     "https://demo-ecommerce.com",
				"api_base_url": "https://api.demo-ecommerce.com",
				"db_host":      "prod-db.demo-ecommerce.com",
			},
		},
	}
}

// ApplyPreset copies preset values into cfg for every key the user did not set
// explicitly. isSet reports whether a key came from the environment or a flag.
func ApplyPreset(cfg *Config, p Preset, isSet func(key string) bool) error {
	keys := make([]string, 0, len(p.Values))
	for k := range p.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if isSet != nil && isSet(k) {
			continue
		}
		if err := cfg.Set(k, p.Values[k]); err != nil {
			return err
		}
	}
	return nil
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package demographics

// Unknown is the breakdown bucket for responses with missing or
// unparseable data for a field. No response is ever dropped from a
// breakdown; it lands here instead.
const Unknown = "Unknown"

// Field is one categorical voter attribute a campaign may collect.
type Field struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Options []string `json:"options"`
}

// The registry is fixed at build time. Campaigns choose which fields to
// collect via demographics_config, not by inventing new fields.
var registry = []Field{
	{
		Key:   "age_group",
		Label: "Age group",
		Options: []string{
			"Under 18",
			"18-24",
			"25-40",
			"41-56",
			"57+",
		},
	},
	{
		Key:   "education",
		Label: "Education",
		Options: []string{
			"Below secondary",
			"Secondary / vocational",
			"Diploma / associate",
			"Bachelor's degree",
			"Postgraduate",
		},
	},
	{
		Key:   "region",
		Label: "Region",
		Options: []string{
			"Capital",
			"Central",
			"North",
			"Northeast",
			"South",
			"East",
			"West",
		},
	},
	{
		Key:   "occupation",
		Label: "Occupation",
		Options: []string{
			"Student",
			"Private sector employee",
			"Government / state enterprise",
			"Business owner / freelance",
			"Agriculture",
			"Homemaker",
			"Unemployed / retired",
			"Other",
		},
	},
	{
		Key:   "income",
		Label: "Monthly income",
		Options: []string{
			"Below 15,000",
			"15,000 - 30,000",
			"30,001 - 50,000",
			"50,001 - 100,000",
			"Above 100,000",
		},
	},
}

// Fields returns every registered field in registry order.
func Fields() []Field {
	out := make([]Field, len(registry))
	copy(out, registry)
	return out
}

// Lookup finds a field by key.
func Lookup(key string) (Field, bool) {
	for _, f := range registry {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// IsField reports whether key names a registered demographic field.
func IsField(key string) bool {
	_, ok := Lookup(key)
	return ok
}

// IsAllowedValue reports whether value is one of the allowed answers for
// the field named by key. Unregistered keys allow nothing.
func IsAllowedValue(key, value string) bool {
	f, ok := Lookup(key)
	if !ok {
		return false
	}
	for _, opt := range f.Options {
		if opt == value {
			return true
		}
	}
	return false
}

// DefaultConfig returns a demographics_config with every field enabled,
// the default for newly created campaigns.
func DefaultConfig() map[string]bool {
	cfg := make(map[string]bool, len(registry))
	for _, f := range registry {
		cfg[f.Key] = true
	}
	return cfg
}

// Enabled returns the registered fields switched on in cfg, in registry
// order. Keys in cfg that are not registered are ignored.
func Enabled(cfg map[string]bool) []Field {
	var out []Field
	for _, f := range registry {
		if cfg[f.Key] {
			out = append(out, f)
		}
	}
	return out
}

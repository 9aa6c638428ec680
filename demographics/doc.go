// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package demographics holds the fixed registry of demographic fields.

# Registry

Five categorical fields are registered:

  - age_group
  - education
  - region
  - occupation
  - income

Each field carries a display label and a closed list of allowed values.
Campaigns pick which fields to collect through their demographics_config
(field key -> bool); the registry contents themselves are not editable at
runtime.

# Validation

	demographics.IsField("age_group")            // key is registered
	demographics.IsAllowedValue("age_group", v)  // value is on the list
	demographics.Enabled(cfg)                    // fields a campaign collects

# Unknown Bucket

Breakdown aggregation files responses with no stored value for a field
under demographics.Unknown so that bucket counts always sum to the
campaign's response count.
*/
package demographics

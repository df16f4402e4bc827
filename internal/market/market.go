// Package market holds the regional default tables for supported African
// markets and the configuration cascade that merges them with operation
// defaults and caller overrides.
package market

import (
	"fmt"
	"sort"
)

// DefaultRegion is used when an invocation carries no region at all.
const DefaultRegion = "nigeria"

// Regional carries the built-in defaults for one supported market.
type Regional struct {
	Currency      string
	Timezone      string
	Languages     []string
	PhonePrefix   string
	BusinessHours BusinessHours
}

// BusinessHours is a local-time working window.
type BusinessHours struct {
	Start    string
	End      string
	Timezone string
}

// regionTable is the source data for the catalog. It is copied into each
// Catalog at construction so the package exposes no mutable globals.
var regionTable = map[string]Regional{
	"nigeria": {
		Currency:      "NGN",
		Timezone:      "Africa/Lagos",
		Languages:     []string{"en", "ha", "yo", "ig"},
		PhonePrefix:   "+234",
		BusinessHours: BusinessHours{Start: "08:00", End: "17:00", Timezone: "Africa/Lagos"},
	},
	"kenya": {
		Currency:      "KES",
		Timezone:      "Africa/Nairobi",
		Languages:     []string{"en", "sw"},
		PhonePrefix:   "+254",
		BusinessHours: BusinessHours{Start: "08:00", End: "17:00", Timezone: "Africa/Nairobi"},
	},
	"south_africa": {
		Currency:      "ZAR",
		Timezone:      "Africa/Johannesburg",
		Languages:     []string{"en", "af", "zu", "xh"},
		PhonePrefix:   "+27",
		BusinessHours: BusinessHours{Start: "08:00", End: "17:00", Timezone: "Africa/Johannesburg"},
	},
	"ghana": {
		Currency:      "GHS",
		Timezone:      "Africa/Accra",
		Languages:     []string{"en", "tw"},
		PhonePrefix:   "+233",
		BusinessHours: BusinessHours{Start: "08:00", End: "17:00", Timezone: "Africa/Accra"},
	},
	"egypt": {
		Currency:      "EGP",
		Timezone:      "Africa/Cairo",
		Languages:     []string{"ar", "en"},
		PhonePrefix:   "+20",
		BusinessHours: BusinessHours{Start: "09:00", End: "17:00", Timezone: "Africa/Cairo"},
	},
}

// Catalog is the immutable set of regional defaults for a process.
// Construct it once at startup and share it; it is safe for concurrent reads.
type Catalog struct {
	defaultRegion string
	regions       map[string]Regional
}

// NewCatalog builds a catalog with the given fallback region.
// An empty defaultRegion selects DefaultRegion.
func NewCatalog(defaultRegion string) (*Catalog, error) {
	if defaultRegion == "" {
		defaultRegion = DefaultRegion
	}

	regions := make(map[string]Regional, len(regionTable))
	for name, r := range regionTable {
		langs := make([]string, len(r.Languages))
		copy(langs, r.Languages)
		r.Languages = langs
		regions[name] = r
	}

	if _, ok := regions[defaultRegion]; !ok {
		return nil, fmt.Errorf("default region %q is not a supported market", defaultRegion)
	}

	return &Catalog{defaultRegion: defaultRegion, regions: regions}, nil
}

// DefaultRegion returns the configured fallback region.
func (c *Catalog) DefaultRegion() string {
	return c.defaultRegion
}

// Supported reports whether the region has built-in defaults.
func (c *Catalog) Supported(region string) bool {
	_, ok := c.regions[region]
	return ok
}

// Regions lists the supported region names in sorted order.
func (c *Catalog) Regions() []string {
	names := make([]string, 0, len(c.regions))
	for name := range c.regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the regional defaults for a supported region.
func (c *Catalog) Lookup(region string) (Regional, bool) {
	r, ok := c.regions[region]
	return r, ok
}

// Merge produces the effective configuration for an invocation by merging
// three layers in order: operation built-in defaults, regional defaults,
// caller overrides. Later layers win on key collision and the merge is
// shallow: an override that carries an object replaces the whole object
// from an earlier layer, it does not patch it.
//
// An empty region falls back to the catalog default. An unrecognized region
// passes through as-is and contributes no regional layer, so the caller's
// overrides are the only source of currency, timezone, and languages.
//
// The returned map is a fresh copy; callers must treat it as immutable for
// the remainder of the invocation.
func (c *Catalog) Merge(builtin map[string]any, region string, overrides map[string]any) map[string]any {
	if region == "" {
		region = c.defaultRegion
	}

	effective := make(map[string]any, len(builtin)+len(overrides)+8)
	for k, v := range builtin {
		effective[k] = v
	}

	effective["region"] = region
	if r, ok := c.regions[region]; ok {
		effective["currency"] = r.Currency
		effective["timezone"] = r.Timezone
		effective["languages"] = append([]string(nil), r.Languages...)
		effective["phone_prefix"] = r.PhonePrefix
		effective["business_hours"] = map[string]any{
			"start":    r.BusinessHours.Start,
			"end":      r.BusinessHours.End,
			"timezone": r.BusinessHours.Timezone,
		}
	}

	for k, v := range overrides {
		effective[k] = v
	}

	return effective
}

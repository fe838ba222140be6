package engine

import (
	"slices"
	"strings"
)

// FilterKind discriminates the typed filter variants built from a raw
// filter map.
type FilterKind int

const (
	// FilterEquals matches a column exactly.
	FilterEquals FilterKind = iota
	// FilterRange bounds a column with >= and/or <=.
	FilterRange
	// FilterSet matches membership (or non-membership) in a value set.
	FilterSet
	// FilterDateExact matches a timestamp column over one calendar day.
	FilterDateExact
)

// Filter is the tagged variant a raw filter key/value pair resolves to.
// Which variant a field may produce is declared per entity in FilterSpec;
// keys using a reserved suffix against an undeclared field are dropped
// rather than misread as equality.
type Filter struct {
	Field string
	Kind  FilterKind

	// Value carries the operand for equals and date-exact filters.
	Value string

	// Min and Max carry range bounds; either may be empty.
	Min string
	Max string

	// Values carries the operands of a set filter.
	Values []string

	// Negate inverts a set filter (NOT IN).
	Negate bool
}

// FilterSpec declares, per entity, which fields may be filtered and by which
// variant. A field absent from every list cannot be filtered at all.
type FilterSpec struct {
	Equals    []string
	Ranges    []string
	Sets      []string
	DateExact []string
}

// reservedParams are transport control keys, never filter fields.
var reservedParams = map[string]bool{
	"page":   true,
	"limit":  true,
	"sort":   true,
	"search": true,
	"fields": true,
}

// ParseFilters resolves a raw filter map into typed filters under the
// entity's FilterSpec. Reserved suffixes (_min, _max, _in, _not_in) and
// date-suffixed fields are never auto-applied as equality: they bind only
// when FilterSpec declares the base field for the matching variant, and are
// otherwise dropped. The result order is deterministic for a given map
// (sorted by field, ranges merged).
func (d *Descriptor) ParseFilters(raw map[string]string) []Filter {
	if len(raw) == 0 {
		return nil
	}

	var out []Filter
	ranges := make(map[string]*Filter)
	var rangeOrder []string

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		value := raw[key]
		if value == "" || reservedParams[key] {
			continue
		}

		switch {
		case strings.HasSuffix(key, "_not_in"):
			base := strings.TrimSuffix(key, "_not_in")
			if slices.Contains(d.Filters.Sets, base) {
				out = append(out, Filter{
					Field:  base,
					Kind:   FilterSet,
					Values: splitSetValues(value),
					Negate: true,
				})
			}

		case strings.HasSuffix(key, "_in"):
			base := strings.TrimSuffix(key, "_in")
			if slices.Contains(d.Filters.Sets, base) {
				out = append(out, Filter{
					Field:  base,
					Kind:   FilterSet,
					Values: splitSetValues(value),
				})
			}

		case strings.HasSuffix(key, "_min"):
			base := strings.TrimSuffix(key, "_min")
			if slices.Contains(d.Filters.Ranges, base) {
				rangeFilter(ranges, &rangeOrder, base).Min = value
			}

		case strings.HasSuffix(key, "_max"):
			base := strings.TrimSuffix(key, "_max")
			if slices.Contains(d.Filters.Ranges, base) {
				rangeFilter(ranges, &rangeOrder, base).Max = value
			}

		case slices.Contains(d.Filters.DateExact, key):
			out = append(out, Filter{Field: key, Kind: FilterDateExact, Value: value})

		case dateSuffixed(key):
			// Date-suffixed keys never fall through to string equality.

		case slices.Contains(d.Filters.Equals, key):
			out = append(out, Filter{Field: key, Kind: FilterEquals, Value: value})
		}
	}

	for _, base := range rangeOrder {
		out = append(out, *ranges[base])
	}

	return out
}

// rangeFilter returns the range filter for base, creating it on first use so
// _min and _max pairs merge into a single filter.
func rangeFilter(ranges map[string]*Filter, order *[]string, base string) *Filter {
	if f, ok := ranges[base]; ok {
		return f
	}
	f := &Filter{Field: base, Kind: FilterRange}
	ranges[base] = f
	*order = append(*order, base)
	return f
}

func splitSetValues(value string) []string {
	parts := strings.Split(value, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}

func dateSuffixed(key string) bool {
	return strings.HasSuffix(key, "_date") || strings.HasSuffix(key, "_at")
}

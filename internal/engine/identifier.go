package engine

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/prasit-dev/pharmadmin/internal/domain"
)

// IdentifierPolicy controls what happens when a filter value targeting an
// identifier-typed column is not a well-formed UUID. Backing stores with
// native UUID columns reject malformed strings at the protocol level with an
// opaque error instead of matching zero rows; the guard turns that into a
// predictable decision before any storage call.
type IdentifierPolicy int

const (
	// PolicyStrict fails the operation with an invalid-identifier error.
	PolicyStrict IdentifierPolicy = iota
	// PolicyGraceful drops the offending filter and lets the query proceed.
	PolicyGraceful
	// PolicyWarn logs the value and passes it through to storage. Intended
	// only for migration windows.
	PolicyWarn
)

func (p IdentifierPolicy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicyGraceful:
		return "graceful"
	case PolicyWarn:
		return "warn"
	default:
		return "unknown"
	}
}

// ParseIdentifierPolicy maps a config string to a policy. Unrecognized
// values default to graceful.
func ParseIdentifierPolicy(s string) IdentifierPolicy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return PolicyStrict
	case "warn":
		return PolicyWarn
	default:
		return PolicyGraceful
	}
}

// IdentifierConfig is the validation policy plus the field sets it applies
// to. Set at repository construction; may be replaced per repository at
// runtime, but never mutated concurrently with in-flight queries.
type IdentifierConfig struct {
	Policy IdentifierPolicy
	Fields IdentifierFields
}

// IdentifierGuard validates identifier-shaped filter values before they
// reach the query builder.
type IdentifierGuard struct {
	cfg IdentifierConfig
	log *slog.Logger
}

// NewIdentifierGuard creates a guard with the given config. A nil logger
// falls back to slog.Default.
func NewIdentifierGuard(cfg IdentifierConfig, log *slog.Logger) *IdentifierGuard {
	if log == nil {
		log = slog.Default()
	}
	return &IdentifierGuard{cfg: cfg, log: log}
}

// Config returns the active configuration.
func (g *IdentifierGuard) Config() IdentifierConfig {
	return g.cfg
}

// SetConfig replaces the active configuration. Callers must not race this
// with in-flight queries; the config is read-mostly by design.
func (g *IdentifierGuard) SetConfig(cfg IdentifierConfig) {
	g.cfg = cfg
}

// IsIdentifierField reports whether the guard validates values for field.
// Explicitly declared fields are always checked; otherwise the conventional
// id / *_id naming heuristic applies unless the field is exempted.
func (g *IdentifierGuard) IsIdentifierField(field string) bool {
	if slices.Contains(g.cfg.Fields.Fields, field) {
		return true
	}
	if slices.Contains(g.cfg.Fields.Exempt, field) {
		return false
	}
	return field == "id" || strings.HasSuffix(field, "_id")
}

// ValidIdentifier reports whether value parses under the canonical
// identifier grammar.
func ValidIdentifier(value string) bool {
	return uuid.Validate(value) == nil
}

// CheckID validates a single identifier about to be used as a primary-key
// operand. It returns (true, nil) when the value may reach storage,
// (false, nil) when the operation should short-circuit to not-found, and a
// non-nil error only under the strict policy.
func (g *IdentifierGuard) CheckID(field, value string) (bool, error) {
	if !g.IsIdentifierField(field) || ValidIdentifier(value) {
		return true, nil
	}
	switch g.cfg.Policy {
	case PolicyStrict:
		return false, domain.NewAppError(domain.CodeInvalidIdentifier,
			"invalid identifier for field "+field, nil)
	case PolicyWarn:
		g.warn(field, value)
		return true, nil
	default:
		return false, nil
	}
}

// CheckIDs validates a bulk id set, applying the policy per element:
// strict fails on the first invalid id, graceful drops invalid ids, warn
// logs and keeps them.
func (g *IdentifierGuard) CheckIDs(field string, values []string) ([]string, error) {
	if !g.IsIdentifierField(field) {
		return values, nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if ValidIdentifier(v) {
			out = append(out, v)
			continue
		}
		switch g.cfg.Policy {
		case PolicyStrict:
			return nil, domain.NewAppError(domain.CodeInvalidIdentifier,
				"invalid identifier for field "+field, nil)
		case PolicyWarn:
			g.warn(field, v)
			out = append(out, v)
		default:
			// graceful: drop
		}
	}
	return out, nil
}

// FilterList validates identifier-typed values inside typed filters. Under
// the graceful policy the whole offending filter is dropped, as if the
// caller never supplied the key.
func (g *IdentifierGuard) FilterList(filters []Filter) ([]Filter, error) {
	if len(filters) == 0 {
		return filters, nil
	}
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if !g.IsIdentifierField(f.Field) {
			out = append(out, f)
			continue
		}
		bad := firstInvalidValue(f)
		if bad == "" {
			out = append(out, f)
			continue
		}
		switch g.cfg.Policy {
		case PolicyStrict:
			return nil, domain.NewAppError(domain.CodeInvalidIdentifier,
				"invalid identifier for field "+f.Field, nil)
		case PolicyWarn:
			g.warn(f.Field, bad)
			out = append(out, f)
		default:
			// graceful: drop the filter
		}
	}
	return out, nil
}

// firstInvalidValue returns the first malformed identifier operand in f, or
// "" when all operands are valid.
func firstInvalidValue(f Filter) string {
	switch f.Kind {
	case FilterSet:
		for _, v := range f.Values {
			if !ValidIdentifier(v) {
				return v
			}
		}
	case FilterRange:
		for _, v := range []string{f.Min, f.Max} {
			if v != "" && !ValidIdentifier(v) {
				return v
			}
		}
	default:
		if !ValidIdentifier(f.Value) {
			return f.Value
		}
	}
	return ""
}

func (g *IdentifierGuard) warn(field, value string) {
	g.log.Warn("malformed identifier passed through to storage",
		slog.String("field", field),
		slog.String("value", value),
		slog.String("policy", g.cfg.Policy.String()),
	)
}

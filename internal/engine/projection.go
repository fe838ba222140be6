package engine

import (
	"log/slog"
	"slices"
)

// ProjectionGuard narrows a caller-requested output field set to what the
// caller's role may see. Allow-lists are supplied as configuration by the
// host; the guard never computes them.
type ProjectionGuard struct {
	roles map[string][]string
	log   *slog.Logger
}

// NewProjectionGuard creates a guard over the given role -> field allow-list
// mapping. A nil logger falls back to slog.Default.
func NewProjectionGuard(roles map[string][]string, log *slog.Logger) *ProjectionGuard {
	if log == nil {
		log = slog.Default()
	}
	return &ProjectionGuard{roles: roles, log: log}
}

// Allowed returns the intersection of the requested fields with the role's
// allow-list. An empty request means "all fields" and is returned as nil
// (no restriction; full-entity output is covered by the role's default
// schema). Requested fields outside the allow-list are dropped silently
// from the result, but the event is recorded once as a security-relevant
// observation rather than surfaced as an error, so the caller cannot probe
// for the existence of restricted fields. When every requested field is
// restricted, the role's own allow-list is used so the query stays valid.
//
// A role with no entry (or a nil entry) is unrestricted. A role mapped to an
// explicitly empty allow-list is restricted like any other configured role:
// every specific field request is dropped and the caller falls back to the
// role's default output.
func (g *ProjectionGuard) Allowed(role, actor string, requested []string) []string {
	if len(requested) == 0 {
		return nil
	}
	allowed, ok := g.roles[role]
	if !ok || allowed == nil {
		return requested
	}

	fields := make([]string, 0, len(requested))
	for _, f := range requested {
		if slices.Contains(allowed, f) {
			fields = append(fields, f)
		}
	}

	if len(fields) < len(requested) {
		g.log.Warn("restricted fields requested",
			slog.String("role", role),
			slog.String("actor", actor),
			slog.Any("requested", requested),
			slog.Any("allowed", allowed),
		)
	}

	if len(fields) == 0 {
		return slices.Clone(allowed)
	}
	return fields
}

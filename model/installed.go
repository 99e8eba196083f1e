package model

import (
	"context"
	"log/slog"
)

// InstalledLister reports the model names a provider currently has available.
// The local daemon implements this against its tags endpoint.
type InstalledLister interface {
	ListInstalled(ctx context.Context) ([]string, error)
}

// ListInstalled returns the catalog entries of a provider that the lister reports as present.
// Catalog order is preserved. A lister failure degrades to an empty list with a warning,
// so callers can always render a menu.
func (r *Registry) ListInstalled(ctx context.Context, p Provider, lister InstalledLister, logger *slog.Logger) []Entry {
	if logger == nil {
		logger = slog.Default()
	}
	if lister == nil {
		return nil
	}

	names, err := lister.ListInstalled(ctx)
	if err != nil {
		logger.Warn("Could not list installed models",
			"provider", p,
			"error", err)
		return []Entry{}
	}

	present := make(map[string]struct{}, len(names))
	for _, n := range names {
		present[n] = struct{}{}
	}

	out := []Entry{}
	for _, e := range r.Group(p) {
		if _, ok := present[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}

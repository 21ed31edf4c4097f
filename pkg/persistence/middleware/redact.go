package middleware

import (
	"context"
	"regexp"

	"github.com/switchyard-io/switchyard/pkg/domain"
	"github.com/switchyard-io/switchyard/pkg/ports"
)

type redactMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks the values of context
// and payload keys matching the patterns before they reach the backing
// store. Machine contexts and event payloads are open-ended blobs, so
// callers routinely end up with credentials or personal data in them.
func NewRedactMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, machineID string, snap *domain.Snapshot) error {
	// Deep clone to avoid side effects on the in-memory snapshot.
	cloned := *snap
	cloned.Context = deepCopyMap(snap.Context)
	cloned.History = make([]domain.Record, len(snap.History))
	copy(cloned.History, snap.History)

	maskMap(cloned.Context, m.patterns)
	for i, rec := range cloned.History {
		if payload, ok := rec.Payload.(map[string]any); ok {
			copied := deepCopyMap(payload)
			maskMap(copied, m.patterns)
			cloned.History[i].Payload = copied
		}
	}

	return m.next.Save(ctx, machineID, &cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, machineID string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, machineID)
}

func (m *redactMiddleware) Delete(ctx context.Context, machineID string) error {
	return m.next.Delete(ctx, machineID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		// Handle nested maps
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v // shallow copy of value
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = "***"
				break
			}
		}

		// Recurse if map
		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}

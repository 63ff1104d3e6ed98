package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/neomorfeo/modreg/internal/domain"
)

// Sync reconciles the catalog with the set of installed package identifiers.
// Installed keys with no record are created, seeded from the core set;
// existing records newly present in the core set are promoted to core.
// Records with no corresponding installed key are left alone. Running Sync
// twice with the same inputs changes nothing on the second pass.
func (s *ModuleService) Sync(ctx context.Context, installed, core []string, actor string) (domain.SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report domain.SyncReport

	all, err := s.repo.List(ctx, domain.ListFilter{})
	if err != nil {
		return report, fmt.Errorf("listing modules: %w", err)
	}

	keys := keySet(all)
	byKey := make(map[string]domain.Module, len(all))
	for _, m := range all {
		byKey[m.Key] = m
	}

	coreSet := make(map[string]struct{}, len(core))
	for _, k := range core {
		coreSet[s.cfg.Bare(k)] = struct{}{}
	}

	for _, raw := range installed {
		canon := s.canonical(keys, raw)
		_, isCore := coreSet[s.cfg.Bare(canon)]

		m, exists := byKey[canon]
		if !exists {
			// Store under the bare form so both spellings resolve to it.
			key := s.cfg.Bare(raw)
			created := domain.NewModule(key, displayName(key), actor, isCore)
			if err := s.repo.Create(ctx, created); err != nil {
				return report, fmt.Errorf("registering module %q: %w", key, err)
			}
			keys[key] = struct{}{}
			byKey[key] = created
			report.Created = append(report.Created, key)

			if err := s.publisher.Publish(ctx, domain.EventRegistered, created); err != nil {
				return report, fmt.Errorf("publishing event %q: %w", domain.EventRegistered, err)
			}
			continue
		}

		if isCore && !m.IsCore {
			m.IsCore = true
			m.IsEnabled = true
			m.Status = domain.StatusActive
			s.stamp(&m, actor)
			if err := s.repo.Update(ctx, m); err != nil {
				return report, fmt.Errorf("promoting module %q: %w", m.Key, err)
			}
			byKey[canon] = m
			report.Promoted = append(report.Promoted, m.Key)

			if err := s.publisher.Publish(ctx, domain.EventPromoted, m); err != nil {
				return report, fmt.Errorf("publishing event %q: %w", domain.EventPromoted, err)
			}
		}
	}

	return report, nil
}

// displayName derives a human label from a module key: "client-addresses"
// becomes "Client Addresses". Administrators can rename later via Update.
func displayName(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	if len(parts) == 0 {
		return key
	}
	return strings.Join(parts, " ")
}

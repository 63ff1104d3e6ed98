package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/neomorfeo/modreg/internal/domain"
)

// checkEnable classifies the module's declared dependencies: keys with no
// record go to missing, keys whose module is not available go to inactive.
// The returned error is reserved for storage failures; business outcomes are
// always expressed through the two lists.
func (s *ModuleService) checkEnable(ctx context.Context, m domain.Module) (missing, inactive []string, err error) {
	for _, dep := range m.Dependencies {
		dm, err := s.Get(ctx, dep)
		if errors.Is(err, domain.ErrModuleNotFound) {
			missing = append(missing, dep)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if !dm.IsAvailable() {
			inactive = append(inactive, dep)
		}
	}
	return missing, inactive, nil
}

// DependentsOf returns every module whose dependency list names key, under
// either spelling. The subject itself is never included.
func (s *ModuleService) DependentsOf(ctx context.Context, key string) ([]domain.Module, error) {
	all, err := s.repo.List(ctx, domain.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing modules: %w", err)
	}

	keys := keySet(all)
	canon := s.canonical(keys, key)

	var dependents []domain.Module
	for _, m := range all {
		if m.Key == canon {
			continue
		}
		for _, dep := range m.Dependencies {
			if s.canonical(keys, dep) == canon {
				dependents = append(dependents, m)
				break
			}
		}
	}
	return dependents, nil
}

// checkDisable returns the currently-enabled dependents of m. Disabled
// dependents do not block: they already cannot run.
func (s *ModuleService) checkDisable(ctx context.Context, m domain.Module) ([]domain.Module, error) {
	dependents, err := s.DependentsOf(ctx, m.Key)
	if err != nil {
		return nil, err
	}

	var blockers []domain.Module
	for _, d := range dependents {
		if d.IsEnabled {
			blockers = append(blockers, d)
		}
	}
	return blockers, nil
}

// detectCycle checks whether giving key the dependency list deps would close
// a cycle in the catalog. It returns the offending path (first and last
// element equal) or nil.
func (s *ModuleService) detectCycle(ctx context.Context, key string, deps []string) ([]string, error) {
	all, err := s.repo.List(ctx, domain.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing modules: %w", err)
	}

	keys := keySet(all)
	canon := s.canonical(keys, key)
	keys[canon] = struct{}{}

	graph := make(map[string][]string, len(all)+1)
	for _, m := range all {
		graph[m.Key] = m.Dependencies
	}
	// The candidate edit overrides whatever is stored for the subject.
	graph[canon] = deps

	done := make(map[string]struct{}, len(graph))

	var walk func(node string, path []string) []string
	walk = func(node string, path []string) []string {
		for i := range path {
			if path[i] == node {
				return append(append([]string(nil), path[i:]...), node)
			}
		}
		if _, ok := done[node]; ok {
			return nil
		}
		path = append(path, node)
		for _, dep := range graph[node] {
			if cycle := walk(s.canonical(keys, dep), path); cycle != nil {
				return cycle
			}
		}
		done[node] = struct{}{}
		return nil
	}

	return walk(canon, nil), nil
}

// canonical resolves raw against the stored key set, returning the first
// variant that exists or raw unchanged when none does.
func (s *ModuleService) canonical(keys map[string]struct{}, raw string) string {
	for _, variant := range domain.KeyVariants(raw, s.cfg.KeyPrefix) {
		if _, ok := keys[variant]; ok {
			return variant
		}
	}
	return raw
}

func keySet(modules []domain.Module) map[string]struct{} {
	keys := make(map[string]struct{}, len(modules))
	for _, m := range modules {
		keys[m.Key] = struct{}{}
	}
	return keys
}

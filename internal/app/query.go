package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/neomorfeo/modreg/internal/domain"
)

// Read-only queries. None of these take the mutation lock: a route guard or
// menu render observing a toggle one request late is acceptable, a lock on
// every request is not.

var enabledTrue = true
var menuTrue = true
var statusActive = domain.StatusActive

// ListAll returns every module in the catalog.
func (s *ModuleService) ListAll(ctx context.Context) ([]domain.Module, error) {
	return s.repo.List(ctx, domain.ListFilter{})
}

// ListEnabled returns the modules an operator has switched on, regardless of
// status.
func (s *ModuleService) ListEnabled(ctx context.Context) ([]domain.Module, error) {
	return s.repo.List(ctx, domain.ListFilter{Enabled: &enabledTrue})
}

// ListAvailable returns the modules external collaborators may use: enabled
// and active. Modules under maintenance are excluded.
func (s *ModuleService) ListAvailable(ctx context.Context) ([]domain.Module, error) {
	return s.repo.List(ctx, domain.ListFilter{Enabled: &enabledTrue, Status: &statusActive})
}

// ListMenu returns the available modules that opt into menu rendering,
// ordered by menu position.
func (s *ModuleService) ListMenu(ctx context.Context) ([]domain.Module, error) {
	modules, err := s.repo.List(ctx, domain.ListFilter{
		Enabled:    &enabledTrue,
		Status:     &statusActive,
		ShowInMenu: &menuTrue,
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(modules, func(i, j int) bool {
		if modules[i].MenuOrder != modules[j].MenuOrder {
			return modules[i].MenuOrder < modules[j].MenuOrder
		}
		return modules[i].Key < modules[j].Key
	})
	return modules, nil
}

// Statistics summarizes the catalog.
func (s *ModuleService) Statistics(ctx context.Context) (domain.Statistics, error) {
	all, err := s.repo.List(ctx, domain.ListFilter{})
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("listing modules: %w", err)
	}

	stats := domain.Statistics{Total: len(all)}
	for _, m := range all {
		if m.IsEnabled {
			stats.Enabled++
		} else {
			stats.Disabled++
		}
		if m.IsCore {
			stats.Core++
		} else {
			stats.Custom++
		}
	}
	return stats, nil
}

// IsModuleEnabled reports whether the module may serve requests (enabled and
// active). Unknown keys answer false rather than erroring: a route guard must
// deny on a lookup miss, never crash.
func (s *ModuleService) IsModuleEnabled(ctx context.Context, key string) (bool, error) {
	m, err := s.Get(ctx, key)
	if errors.Is(err, domain.ErrModuleNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.IsAvailable(), nil
}

// IsCoreModule reports whether the module belongs to the protected core.
// Unknown keys answer false.
func (s *ModuleService) IsCoreModule(ctx context.Context, key string) (bool, error) {
	m, err := s.Get(ctx, key)
	if errors.Is(err, domain.ErrModuleNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.IsCore, nil
}

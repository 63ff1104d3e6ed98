package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/neomorfeo/modreg/internal/domain"
)

// Config holds registry-level configuration supplied by the host environment.
type Config struct {
	// KeyPrefix is the namespace prefix tolerated in module key lookups,
	// e.g. "apps." so that "apps.articles" and "articles" resolve to the
	// same record.
	KeyPrefix string

	// CoreModules lists the keys that must always stay enabled and active.
	CoreModules []string
}

// Bare strips the namespace prefix from a key, if present.
func (c Config) Bare(key string) string {
	return strings.TrimPrefix(key, c.KeyPrefix)
}

// IsCore reports whether key belongs to the configured core set,
// tolerating either spelling on both sides.
func (c Config) IsCore(key string) bool {
	bare := c.Bare(key)
	for _, k := range c.CoreModules {
		if c.Bare(k) == bare {
			return true
		}
	}
	return false
}

// ModuleService is the activation engine: it owns every state transition on
// the module catalog and enforces the dependency and core-protection rules.
type ModuleService struct {
	repo      domain.ModuleRepository
	publisher domain.EventPublisher
	validator domain.StatusValidator
	cfg       Config

	// mu serializes mutations so every fetch-check-write runs against a
	// catalog that cannot change before the write commits. Reads do not
	// take the lock and may observe a slightly stale catalog.
	mu sync.Mutex
}

// NewModuleService creates a service with the given adapters and configuration.
func NewModuleService(repo domain.ModuleRepository, publisher domain.EventPublisher, validator domain.StatusValidator, cfg Config) *ModuleService {
	return &ModuleService{
		repo:      repo,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
	}
}

// Get returns the module for key, tolerating the namespace-prefixed spelling.
func (s *ModuleService) Get(ctx context.Context, key string) (domain.Module, error) {
	for _, variant := range domain.KeyVariants(key, s.cfg.KeyPrefix) {
		m, err := s.repo.GetByKey(ctx, variant)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, domain.ErrModuleNotFound) {
			return domain.Module{}, fmt.Errorf("fetching module %q: %w", variant, err)
		}
	}
	return domain.Module{}, domain.ErrModuleNotFound
}

// CreateModule holds the fields accepted when registering a module explicitly.
type CreateModule struct {
	Key          string
	DisplayName  string
	Description  string
	Dependencies []string
	MenuOrder    int
	ShowInMenu   bool
	URLPattern   string
}

// Create registers a new module. The enabled flag and status are seeded from
// whether the key belongs to the configured core set.
func (s *ModuleService) Create(ctx context.Context, in CreateModule, actor string) (domain.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(in.Key) == "" {
		return domain.Module{}, &domain.ValidationError{Field: "key", Reason: "must not be empty"}
	}
	if strings.TrimSpace(in.DisplayName) == "" {
		return domain.Module{}, &domain.ValidationError{Field: "display_name", Reason: "must not be empty"}
	}

	if _, err := s.Get(ctx, in.Key); err == nil {
		return domain.Module{}, &domain.DuplicateKeyError{Key: in.Key}
	} else if !errors.Is(err, domain.ErrModuleNotFound) {
		return domain.Module{}, err
	}

	if len(in.Dependencies) > 0 {
		cycle, err := s.detectCycle(ctx, in.Key, in.Dependencies)
		if err != nil {
			return domain.Module{}, err
		}
		if cycle != nil {
			return domain.Module{}, &domain.CycleError{Path: cycle}
		}
	}

	m := domain.NewModule(in.Key, in.DisplayName, actor, s.cfg.IsCore(in.Key))
	m.Description = in.Description
	m.Dependencies = in.Dependencies
	m.MenuOrder = in.MenuOrder
	m.ShowInMenu = in.ShowInMenu
	m.URLPattern = in.URLPattern

	if err := s.repo.Create(ctx, m); err != nil {
		return domain.Module{}, fmt.Errorf("creating module: %w", err)
	}

	if err := s.publisher.Publish(ctx, domain.EventCreated, m); err != nil {
		return domain.Module{}, fmt.Errorf("publishing creation event: %w", err)
	}

	return m, nil
}

// Enable turns a module on. It succeeds only when every declared dependency
// resolves to an available module; otherwise it returns a DependencyUnmetError
// carrying the missing and inactive keys. Enabling an already-available
// module is a no-op.
func (s *ModuleService) Enable(ctx context.Context, key, actor string) (domain.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.Get(ctx, key)
	if err != nil {
		return domain.Module{}, err
	}

	if m.IsAvailable() {
		return m, nil
	}

	missing, inactive, err := s.checkEnable(ctx, m)
	if err != nil {
		return domain.Module{}, err
	}
	if len(missing) > 0 || len(inactive) > 0 {
		return domain.Module{}, &domain.DependencyUnmetError{Key: m.Key, Missing: missing, Inactive: inactive}
	}

	if m.Status != domain.StatusActive {
		status, err := s.validator.Apply(ctx, m.Status, domain.EventActivate)
		if err != nil {
			return domain.Module{}, err
		}
		m.Status = status
	}
	m.IsEnabled = true
	s.stamp(&m, actor)

	if err := s.repo.Update(ctx, m); err != nil {
		return domain.Module{}, fmt.Errorf("updating module: %w", err)
	}

	if err := s.publisher.Publish(ctx, domain.EventActivate, m); err != nil {
		return domain.Module{}, fmt.Errorf("publishing event %q: %w", domain.EventActivate, err)
	}

	return m, nil
}

// Disable turns a module off. Core modules are refused unconditionally; a
// non-core module is refused while other enabled modules depend on it, with
// the blockers named in the returned DependentsError. Disabling an already
// disabled module is a no-op.
func (s *ModuleService) Disable(ctx context.Context, key, actor string) (domain.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.Get(ctx, key)
	if err != nil {
		return domain.Module{}, err
	}

	// Core protection comes first and is never bypassable.
	if m.IsCore {
		return domain.Module{}, &domain.CoreProtectedError{Key: m.Key, Op: "disable"}
	}

	if !m.IsEnabled && m.Status == domain.StatusInactive {
		return m, nil
	}

	blockers, err := s.checkDisable(ctx, m)
	if err != nil {
		return domain.Module{}, err
	}
	if len(blockers) > 0 {
		names := make([]string, len(blockers))
		for i, b := range blockers {
			names[i] = b.Key
		}
		return domain.Module{}, &domain.DependentsError{Key: m.Key, Blockers: names}
	}

	if m.Status != domain.StatusInactive {
		status, err := s.validator.Apply(ctx, m.Status, domain.EventDeactivate)
		if err != nil {
			return domain.Module{}, err
		}
		m.Status = status
	}
	m.IsEnabled = false
	s.stamp(&m, actor)

	if err := s.repo.Update(ctx, m); err != nil {
		return domain.Module{}, fmt.Errorf("updating module: %w", err)
	}

	if err := s.publisher.Publish(ctx, domain.EventDeactivate, m); err != nil {
		return domain.Module{}, fmt.Errorf("publishing event %q: %w", domain.EventDeactivate, err)
	}

	return m, nil
}

// UpdateModule holds the allow-listed fields an administrator may edit.
// Nil pointers leave the stored value untouched.
type UpdateModule struct {
	DisplayName  *string
	Description  *string
	Dependencies *[]string
	MenuOrder    *int
	ShowInMenu   *bool
	URLPattern   *string
	Status       *domain.Status
}

// Update applies an allow-listed field edit. A status edit on a core module
// is rejected before anything else: the update form is a second path to the
// status field and must not weaken the core invariant.
func (s *ModuleService) Update(ctx context.Context, key string, in UpdateModule, actor string) (domain.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.Get(ctx, key)
	if err != nil {
		return domain.Module{}, err
	}

	if in.Status != nil && m.IsCore && *in.Status != domain.StatusActive {
		return domain.Module{}, &domain.CoreStatusError{Key: m.Key}
	}

	if in.DisplayName != nil {
		if strings.TrimSpace(*in.DisplayName) == "" {
			return domain.Module{}, &domain.ValidationError{Field: "display_name", Reason: "must not be empty"}
		}
		m.DisplayName = *in.DisplayName
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.Dependencies != nil {
		deps := *in.Dependencies
		cycle, err := s.detectCycle(ctx, m.Key, deps)
		if err != nil {
			return domain.Module{}, err
		}
		if cycle != nil {
			return domain.Module{}, &domain.CycleError{Path: cycle}
		}
		m.Dependencies = deps
	}
	if in.MenuOrder != nil {
		m.MenuOrder = *in.MenuOrder
	}
	if in.ShowInMenu != nil {
		m.ShowInMenu = *in.ShowInMenu
	}
	if in.URLPattern != nil {
		m.URLPattern = *in.URLPattern
	}
	if in.Status != nil && *in.Status != m.Status {
		event, ok := domain.EventForStatus(*in.Status)
		if !ok {
			return domain.Module{}, &domain.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", *in.Status)}
		}
		status, err := s.validator.Apply(ctx, m.Status, event)
		if err != nil {
			return domain.Module{}, err
		}
		m.Status = status
	}
	s.stamp(&m, actor)

	if err := s.repo.Update(ctx, m); err != nil {
		return domain.Module{}, fmt.Errorf("updating module: %w", err)
	}

	if err := s.publisher.Publish(ctx, domain.EventUpdated, m); err != nil {
		return domain.Module{}, fmt.Errorf("publishing event %q: %w", domain.EventUpdated, err)
	}

	return m, nil
}

// Delete removes a non-core module from the catalog. Deletion applies the
// same dependents check as disable, so a module cannot vanish while an
// enabled module still declares it.
func (s *ModuleService) Delete(ctx context.Context, key, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	if m.IsCore {
		return &domain.CoreProtectedError{Key: m.Key, Op: "delete"}
	}

	blockers, err := s.checkDisable(ctx, m)
	if err != nil {
		return err
	}
	if len(blockers) > 0 {
		names := make([]string, len(blockers))
		for i, b := range blockers {
			names[i] = b.Key
		}
		return &domain.DependentsError{Key: m.Key, Blockers: names}
	}

	if err := s.repo.Delete(ctx, m.Key); err != nil {
		return fmt.Errorf("deleting module: %w", err)
	}

	m.UpdatedBy = actor
	if err := s.publisher.Publish(ctx, domain.EventDeleted, m); err != nil {
		return fmt.Errorf("publishing event %q: %w", domain.EventDeleted, err)
	}

	return nil
}

func (s *ModuleService) stamp(m *domain.Module, actor string) {
	m.UpdatedAt = time.Now().UTC()
	m.UpdatedBy = actor
}

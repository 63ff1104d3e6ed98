package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrModuleNotFound = errors.New("module not found")
)

// DuplicateKeyError is returned when a module key is already registered.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("module key %q is already registered", e.Key)
}

// ValidationError is returned when a required field is absent or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DependencyUnmetError is returned when a module cannot be enabled because
// declared dependencies are missing from the registry or not available.
// Both lists are part of the contract: callers render them verbatim.
type DependencyUnmetError struct {
	Key      string
	Missing  []string
	Inactive []string
}

func (e *DependencyUnmetError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Inactive) > 0 {
		parts = append(parts, fmt.Sprintf("inactive: %s", strings.Join(e.Inactive, ", ")))
	}
	return fmt.Sprintf("cannot enable %q, unmet dependencies (%s)", e.Key, strings.Join(parts, "; "))
}

// DependentsError is returned when a module cannot be disabled or deleted
// because other enabled modules still depend on it.
type DependentsError struct {
	Key      string
	Blockers []string
}

func (e *DependentsError) Error() string {
	return fmt.Sprintf("module %q is required by: %s", e.Key, strings.Join(e.Blockers, ", "))
}

// CoreProtectedError is returned when an operation would disable or delete a
// core module.
type CoreProtectedError struct {
	Key string
	Op  string
}

func (e *CoreProtectedError) Error() string {
	return fmt.Sprintf("module %q is a core module and cannot be %sd", e.Key, e.Op)
}

// CoreStatusError is returned when an update would move a core module off the
// active status.
type CoreStatusError struct {
	Key string
}

func (e *CoreStatusError) Error() string {
	return fmt.Sprintf("module %q is a core module and must stay active", e.Key)
}

// CycleError is returned when a dependency edit would close a cycle.
// Path holds the offending chain, starting and ending at the same key.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// TransitionError is returned when a status change is not allowed.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from status %q", e.Event, e.Current)
}

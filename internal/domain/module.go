package domain

import (
	"strings"
	"time"
)

// Status represents the lifecycle state of a module, independent of the
// operator-controlled enabled flag.
type Status string

const (
	StatusActive      Status = "active"
	StatusInactive    Status = "inactive"
	StatusMaintenance Status = "maintenance"
)

// Event represents an action applied to a module. Activation events drive
// the status state machine; the remaining events exist for the audit stream.
type Event string

const (
	EventActivate    Event = "activate"
	EventDeactivate  Event = "deactivate"
	EventMaintenance Event = "enter_maintenance"

	EventCreated    Event = "created"
	EventUpdated    Event = "updated"
	EventDeleted    Event = "deleted"
	EventRegistered Event = "registered"
	EventPromoted   Event = "promoted"
)

// Transition defines a valid status change: an event moves a module from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid status changes on the module status axis.
// This is domain knowledge consumed by the FSM adapter.
var Transitions = []Transition{
	{Event: EventActivate, Src: StatusInactive, Dst: StatusActive},
	{Event: EventActivate, Src: StatusMaintenance, Dst: StatusActive},
	{Event: EventDeactivate, Src: StatusActive, Dst: StatusInactive},
	{Event: EventDeactivate, Src: StatusMaintenance, Dst: StatusInactive},
	{Event: EventMaintenance, Src: StatusActive, Dst: StatusMaintenance},
}

// EventForStatus maps a desired status to the event that reaches it.
// The second return is false for statuses no event can produce.
func EventForStatus(s Status) (Event, bool) {
	switch s {
	case StatusActive:
		return EventActivate, true
	case StatusInactive:
		return EventDeactivate, true
	case StatusMaintenance:
		return EventMaintenance, true
	default:
		return "", false
	}
}

// Module is the core domain entity: a registered, independently toggleable
// feature unit of the host application.
type Module struct {
	Key          string
	DisplayName  string
	Description  string
	IsCore       bool
	IsEnabled    bool
	Status       Status
	Dependencies []string
	MenuOrder    int
	ShowInMenu   bool
	URLPattern   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CreatedBy    string
	UpdatedBy    string
}

// IsAvailable reports whether external collaborators (routing, menus) may use
// the module. This is the only predicate they should consult; IsEnabled alone
// says nothing about a module under maintenance.
func (m Module) IsAvailable() bool {
	return m.IsEnabled && m.Status == StatusActive
}

// DependsOn reports whether key appears in the module's immediate dependency list.
func (m Module) DependsOn(key string) bool {
	for _, dep := range m.Dependencies {
		if dep == key {
			return true
		}
	}
	return false
}

// NewModule creates a module record. Core modules start enabled and active;
// everything else starts disabled and inactive until an operator enables it.
func NewModule(key, displayName, actor string, core bool) Module {
	now := time.Now().UTC()
	status := StatusInactive
	if core {
		status = StatusActive
	}
	return Module{
		Key:         key,
		DisplayName: displayName,
		IsCore:      core,
		IsEnabled:   core,
		Status:      status,
		ShowInMenu:  true,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   actor,
		UpdatedBy:   actor,
	}
}

// KeyVariants returns the candidate spellings for a module key: the key as
// given plus the namespace-prefixed or bare form. Lookups probe the variants
// in order and take the first that resolves.
func KeyVariants(key, prefix string) []string {
	if prefix == "" || key == "" {
		return []string{key}
	}
	if strings.HasPrefix(key, prefix) {
		return []string{key, strings.TrimPrefix(key, prefix)}
	}
	return []string{key, prefix + key}
}

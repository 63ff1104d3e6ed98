package domain

import "context"

// ModuleRepository defines the persistence contract for module records.
// Keys are stored exactly as given; spelling tolerance is the registry's job.
type ModuleRepository interface {
	Create(ctx context.Context, module Module) error
	GetByKey(ctx context.Context, key string) (Module, error)
	List(ctx context.Context, filter ListFilter) ([]Module, error)
	Update(ctx context.Context, module Module) error
	Delete(ctx context.Context, key string) error
}

// ListFilter holds optional criteria for listing modules.
type ListFilter struct {
	Enabled    *bool
	Status     *Status
	ShowInMenu *bool
}

// EventPublisher defines the contract for emitting registry audit events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event, module Module) error
}

// StatusValidator checks whether an event is a legal move on the status axis
// and returns the resulting status.
type StatusValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}

// SyncReport summarizes one reconciliation pass against the installed set.
type SyncReport struct {
	Created  []string
	Promoted []string
}

// Statistics is the registry summary exposed by the query facade.
type Statistics struct {
	Total    int
	Enabled  int
	Disabled int
	Core     int
	Custom   int
}

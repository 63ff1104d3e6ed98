package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/modreg/internal/domain"
)

const tracerName = "github.com/neomorfeo/modreg/internal/adapter/otel"

// TracingRepository wraps a domain.ModuleRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingRepository struct {
	next   domain.ModuleRepository
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.ModuleRepository.
var _ domain.ModuleRepository = (*TracingRepository)(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository(next domain.ModuleRepository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRepository) Create(ctx context.Context, module domain.Module) error {
	ctx, span := r.tracer.Start(ctx, "ModuleRepository.Create",
		trace.WithAttributes(
			attribute.String("module.key", module.Key),
			attribute.Bool("module.is_core", module.IsCore),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, module)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRepository) GetByKey(ctx context.Context, key string) (domain.Module, error) {
	ctx, span := r.tracer.Start(ctx, "ModuleRepository.GetByKey",
		trace.WithAttributes(attribute.String("module.key", key)),
	)
	defer span.End()

	module, err := r.next.GetByKey(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return module, err
}

func (r *TracingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Module, error) {
	ctx, span := r.tracer.Start(ctx, "ModuleRepository.List")
	defer span.End()

	if filter.Enabled != nil {
		span.SetAttributes(attribute.Bool("filter.enabled", *filter.Enabled))
	}
	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}
	if filter.ShowInMenu != nil {
		span.SetAttributes(attribute.Bool("filter.show_in_menu", *filter.ShowInMenu))
	}

	modules, err := r.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(modules)))
	}
	return modules, err
}

func (r *TracingRepository) Update(ctx context.Context, module domain.Module) error {
	ctx, span := r.tracer.Start(ctx, "ModuleRepository.Update",
		trace.WithAttributes(
			attribute.String("module.key", module.Key),
			attribute.Bool("module.is_enabled", module.IsEnabled),
			attribute.String("module.status", string(module.Status)),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, module)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRepository) Delete(ctx context.Context, key string) error {
	ctx, span := r.tracer.Start(ctx, "ModuleRepository.Delete",
		trace.WithAttributes(attribute.String("module.key", key)),
	)
	defer span.End()

	err := r.next.Delete(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

package job

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultSymbolRefreshSchedule = "@every 6h"

type SymbolLoader interface {
	EnsureLoaded(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// SymbolRefresher loads the tradable symbol set at startup and reloads it on a cron schedule.
type SymbolRefresher struct {
	tracer   trace.Tracer
	symbols  SymbolLoader
	schedule string
}

func NewSymbolRefresher(tracer trace.Tracer, symbols SymbolLoader, schedule string) *SymbolRefresher {
	if schedule == "" {
		schedule = DefaultSymbolRefreshSchedule
	}
	return &SymbolRefresher{
		tracer:   tracer,
		symbols:  symbols,
		schedule: schedule,
	}
}

// Start blocks until ctx is done. A bad schedule is returned before anything runs.
func (j *SymbolRefresher) Start(ctx context.Context) error {
	if j == nil || j.symbols == nil {
		<-ctx.Done()
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(j.schedule, func() { j.runRefresh(ctx) }); err != nil {
		return fmt.Errorf("register symbol refresh %q: %w", j.schedule, err)
	}

	log.Printf("Symbol refresher starting (schedule %s)", j.schedule)
	j.runInitial(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	log.Println("Symbol refresher stopped")
	return nil
}

func (j *SymbolRefresher) runInitial(ctx context.Context) {
	ctx, span := j.startSpan(ctx, "symbol-job.initial")
	defer span.End()

	if err := j.symbols.EnsureLoaded(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("initial symbol load failed, commands will skip validation until the next refresh: %v", err)
	}
}

func (j *SymbolRefresher) runRefresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	ctx, span := j.startSpan(ctx, "symbol-job.refresh")
	defer span.End()
	span.SetAttributes(attribute.String("schedule", j.schedule))

	if err := j.symbols.Refresh(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("symbol refresh error: %v", err)
	}
}

func (j *SymbolRefresher) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if j.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return j.tracer.Start(ctx, name)
}

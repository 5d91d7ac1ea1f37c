package postgresql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/postgresql/db"
)

const otelName = "github.com/sanLimbu/tasksync/internal/postgresql"

func convertPriority(p db.Priority) (internal.Priority, error) {
	switch p {
	case db.PriorityLowest:
		return internal.PriorityLowest, nil
	case db.PriorityLow:
		return internal.PriorityLow, nil
	case db.PriorityMedium:
		return internal.PriorityMedium, nil
	case db.PriorityHigh:
		return internal.PriorityHigh, nil
	case db.PriorityCritical:
		return internal.PriorityCritical, nil
	}

	return internal.PriorityMedium, internal.NewErrorf(internal.ErrorCodeUnknown, "unknown value: %s", p)
}

func newPriority(p internal.Priority) db.Priority {
	switch p {
	case internal.PriorityLowest:
		return db.PriorityLowest
	case internal.PriorityLow:
		return db.PriorityLow
	case internal.PriorityMedium:
		return db.PriorityMedium
	case internal.PriorityHigh:
		return db.PriorityHigh
	case internal.PriorityCritical:
		return db.PriorityCritical
	}

	return "invalid"
}

// newTimestamptz creates a pgtype.Timestamptz from an optional time.Time.
func newTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}

	return pgtype.Timestamptz{
		Time:  *t,
		Valid: true,
	}
}

func convertTimestamptz(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}

	res := t.Time

	return &res
}

func convertTask(row db.Tasks) (internal.Task, error) {
	priority, err := convertPriority(row.Priority)
	if err != nil {
		return internal.Task{}, err
	}

	id, err := internal.NewTaskID(uint32(row.TaskID))
	if err != nil {
		return internal.Task{}, err
	}

	return internal.Task{
		ID:          id,
		Complete:    row.Complete,
		Description: row.Description,
		Priority:    priority,
		DueDate:     convertTimestamptz(row.DueDate),
	}, nil
}

func newOTELSpan(ctx context.Context, name string) trace.Span {
	_, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(semconv.DBSystemPostgreSQL)

	return span
}

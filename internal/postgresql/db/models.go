package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Priority string

const (
	PriorityLowest   Priority = "lowest"
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type Tasks struct {
	TaskID      int32
	Complete    bool
	Description string
	Priority    Priority
	DueDate     pgtype.Timestamptz
}

package internal

import (
	"encoding/json"
	"time"
)

const deltaUnchanged = "Unchanged"

// Delta holds either "leave the value as it is" or "replace it with this value".
// The zero value is Unchanged.
type Delta[T any] struct {
	value   T
	changed bool
}

// Unchanged returns a Delta that keeps the old value.
func Unchanged[T any]() Delta[T] {
	return Delta[T]{}
}

// Changed returns a Delta that replaces the old value with v.
func Changed[T any](v T) Delta[T] {
	return Delta[T]{value: v, changed: true}
}

// Apply returns old when unchanged, the new value otherwise.
func (d Delta[T]) Apply(old T) T {
	if !d.changed {
		return old
	}

	return d.value
}

// Value returns the new value and whether there is one.
func (d Delta[T]) Value() (T, bool) {
	return d.value, d.changed
}

// IsChanged reports whether d carries a new value.
func (d Delta[T]) IsChanged() bool {
	return d.changed
}

// MarshalJSON encodes the delta as "Unchanged" or {"Changed": value}.
func (d Delta[T]) MarshalJSON() ([]byte, error) {
	if !d.changed {
		return json.Marshal(deltaUnchanged)
	}

	return json.Marshal(struct {
		Changed T `json:"Changed"`
	}{
		Changed: d.value,
	})
}

// UnmarshalJSON decodes the format produced by MarshalJSON.
func (d *Delta[T]) UnmarshalJSON(b []byte) error {
	var tag string
	if err := json.Unmarshal(b, &tag); err == nil {
		if tag != deltaUnchanged {
			return NewErrorf(ErrorCodeInvalidArgument, "unknown delta variant %q", tag)
		}

		*d = Delta[T]{}

		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return WrapErrorf(err, ErrorCodeInvalidArgument, "json.Unmarshal")
	}

	raw, ok := obj["Changed"]
	if !ok || len(obj) != 1 {
		return NewErrorf(ErrorCodeInvalidArgument, "delta must be \"Unchanged\" or {\"Changed\": value}")
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return WrapErrorf(err, ErrorCodeInvalidArgument, "json.Unmarshal Changed")
	}

	*d = Changed(v)

	return nil
}

// TaskDelta describes a partial update of a Task, one Delta per mutable field.
// DueDate wraps a pointer so a delta can clear the due date with Changed[*time.Time](nil).
type TaskDelta struct {
	Complete    Delta[bool]       `json:"complete"`
	Description Delta[string]     `json:"description"`
	Priority    Delta[Priority]   `json:"priority"`
	DueDate     Delta[*time.Time] `json:"due_date"`
}

// ApplyTo returns a copy of task with the changed fields replaced.
func (d TaskDelta) ApplyTo(task Task) Task {
	task.Complete = d.Complete.Apply(task.Complete)
	task.Description = d.Description.Apply(task.Description)
	task.Priority = d.Priority.Apply(task.Priority)
	task.DueDate = d.DueDate.Apply(task.DueDate)

	return task
}

// IsZero reports whether applying the delta would leave every field untouched.
func (d TaskDelta) IsZero() bool {
	return !d.Complete.IsChanged() &&
		!d.Description.IsChanged() &&
		!d.Priority.IsChanged() &&
		!d.DueDate.IsChanged()
}

// Validate checks the changed values the same way Task.Validate does.
func (d TaskDelta) Validate() error {
	candidate := Task{Description: "-"}
	if v, ok := d.Description.Value(); ok {
		candidate.Description = v
	}

	if v, ok := d.Priority.Value(); ok {
		candidate.Priority = v
	}

	return candidate.Validate()
}

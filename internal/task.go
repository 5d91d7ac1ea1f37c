package internal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxDescriptionLength caps descriptions so a single task always fits in one frame.
const MaxDescriptionLength = 8192

// TaskID identifies a persisted Task. Valid ids are never zero, the zero value means
// the task has not been stored yet.
type TaskID uint32

// NewTaskID converts v into a TaskID, zero is rejected.
func NewTaskID(v uint32) (TaskID, error) {
	if v == 0 {
		return 0, NewErrorf(ErrorCodeInvalidArgument, "task id cannot be 0")
	}

	return TaskID(v), nil
}

// ParseTaskID parses the decimal representation of a TaskID.
func ParseTaskID(s string) (TaskID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, WrapErrorf(err, ErrorCodeInvalidArgument, "strconv.ParseUint")
	}

	return NewTaskID(uint32(v))
}

func (id TaskID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// MarshalJSON encodes the id as a number, unassigned ids become null.
func (id TaskID) MarshalJSON() ([]byte, error) {
	if id == 0 {
		return []byte("null"), nil
	}

	return strconv.AppendUint(nil, uint64(id), 10), nil
}

// UnmarshalJSON decodes a number or null.
func (id *TaskID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = 0
		return nil
	}

	var v uint32
	if err := json.Unmarshal(b, &v); err != nil {
		return WrapErrorf(err, ErrorCodeInvalidArgument, "json.Unmarshal")
	}

	res, err := NewTaskID(v)
	if err != nil {
		return err
	}

	*id = res

	return nil
}

// Priority indicates how important a Task is, values are ordered from least to most important.
type Priority int8

// The zero value is PriorityMedium.
const (
	PriorityLowest Priority = iota - 2
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = map[Priority]string{
	PriorityLowest:   "Lowest",
	PriorityLow:      "Low",
	PriorityMedium:   "Medium",
	PriorityHigh:     "High",
	PriorityCritical: "Critical",
}

// Priorities lists every valid Priority in ascending order.
func Priorities() []Priority {
	return []Priority{PriorityLowest, PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
}

// UnknownPriorityError is returned when a string does not name a Priority.
type UnknownPriorityError struct {
	Value string
}

func (e *UnknownPriorityError) Error() string {
	return fmt.Sprintf("unknown priority %q", e.Value)
}

// ParsePriority parses a priority name, case insensitive.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities() {
		if strings.EqualFold(s, priorityNames[p]) {
			return p, nil
		}
	}

	return PriorityMedium, WrapErrorf(&UnknownPriorityError{Value: s}, ErrorCodeInvalidArgument, "parse priority")
}

// String returns the canonical lowercase form, accepted by ParsePriority.
func (p Priority) String() string {
	name, ok := priorityNames[p]
	if !ok {
		return fmt.Sprintf("priority(%d)", int8(p))
	}

	return strings.ToLower(name)
}

// Validate rejects values outside Lowest..Critical.
func (p Priority) Validate() error {
	if _, ok := priorityNames[p]; !ok {
		return NewErrorf(ErrorCodeInvalidArgument, "unknown value")
	}

	return nil
}

// MarshalJSON encodes the priority using its variant name, for example "Medium".
func (p Priority) MarshalJSON() ([]byte, error) {
	name, ok := priorityNames[p]
	if !ok {
		return nil, NewErrorf(ErrorCodeInvalidArgument, "unknown priority %d", int8(p))
	}

	return json.Marshal(name)
}

// UnmarshalJSON decodes a priority name.
func (p *Priority) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return WrapErrorf(err, ErrorCodeInvalidArgument, "json.Unmarshal")
	}

	res, err := ParsePriority(s)
	if err != nil {
		return err
	}

	*p = res

	return nil
}

// Task is an activity that needs to be completed.
type Task struct {
	ID          TaskID     `json:"id"`
	Complete    bool       `json:"complete"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// Validate checks the values a client is allowed to submit.
func (t Task) Validate() error {
	if err := validation.ValidateStruct(&t,
		validation.Field(&t.Description, validation.Required, validation.By(descriptionSize)),
		validation.Field(&t.Priority),
	); err != nil {
		return WrapErrorf(err, ErrorCodeInvalidArgument, "invalid values")
	}

	return nil
}

// descriptionSize limits the encoded size of the description, so it counts bytes rather than runes.
func descriptionSize(value interface{}) error {
	if s, _ := value.(string); len(s) > MaxDescriptionLength {
		return validation.NewError("validation_description_too_long",
			fmt.Sprintf("the length must be no more than %d bytes", MaxDescriptionLength))
	}

	return nil
}

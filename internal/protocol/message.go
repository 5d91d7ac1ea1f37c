package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/sanLimbu/tasksync/internal"
)

// Message is a request sent from a client to the server. It is implemented by Add, List,
// Update and Remove.
type Message interface {
	isMessage()
}

// Add creates a task, the server assigns its id.
type Add struct {
	Task internal.Task
}

// List requests every stored task.
type List struct{}

// Update applies Delta to the task identified by ID.
type Update struct {
	ID    internal.TaskID
	Delta internal.TaskDelta
}

// Remove deletes the task identified by ID.
type Remove struct {
	ID internal.TaskID
}

func (Add) isMessage()    {}
func (List) isMessage()   {}
func (Update) isMessage() {}
func (Remove) isMessage() {}

const (
	tagAdd    = "Add"
	tagList   = "List"
	tagUpdate = "Update"
	tagRemove = "Remove"
)

// MessageName returns the variant name of m, used for logging and metrics.
func MessageName(m Message) string {
	switch m.(type) {
	case Add:
		return tagAdd
	case List:
		return tagList
	case Update:
		return tagUpdate
	case Remove:
		return tagRemove
	}

	return fmt.Sprintf("%T", m)
}

// MarshalMessage returns the JSON payload for m.
func MarshalMessage(m Message) ([]byte, error) {
	var v interface{}

	switch m := m.(type) {
	case Add:
		v = map[string]internal.Task{tagAdd: m.Task}
	case List:
		v = tagList
	case Update:
		if m.ID == 0 {
			return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "update requires a task id")
		}

		v = map[string][2]interface{}{tagUpdate: {m.ID, m.Delta}}
	case Remove:
		if m.ID == 0 {
			return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "remove requires a task id")
		}

		v = map[string]internal.TaskID{tagRemove: m.ID}
	default:
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "unknown message %T", m)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "json.Marshal")
	}

	return b, nil
}

// UnmarshalMessage parses a JSON payload produced by MarshalMessage.
func UnmarshalMessage(b []byte) (Message, error) {
	tag, body, err := splitVariant(b)
	if err != nil {
		return nil, err
	}

	switch tag {
	case tagList:
		if body != nil {
			return nil, malformedf("%s takes no value", tagList)
		}

		return List{}, nil
	case tagAdd:
		var task internal.Task
		if err := decodeBody(tag, body, &task); err != nil {
			return nil, err
		}

		return Add{Task: task}, nil
	case tagUpdate:
		var tuple []json.RawMessage
		if err := decodeBody(tag, body, &tuple); err != nil {
			return nil, err
		}

		if len(tuple) != 2 {
			return nil, malformedf("%s expects [id, delta], got %d elements", tag, len(tuple))
		}

		id, err := decodeID(tag, tuple[0])
		if err != nil {
			return nil, err
		}

		var delta internal.TaskDelta
		if err := decodeBody(tag, tuple[1], &delta); err != nil {
			return nil, err
		}

		return Update{ID: id, Delta: delta}, nil
	case tagRemove:
		id, err := decodeID(tag, body)
		if err != nil {
			return nil, err
		}

		return Remove{ID: id}, nil
	}

	return nil, malformedf("unknown message %q", tag)
}

func decodeID(tag string, raw json.RawMessage) (internal.TaskID, error) {
	var id internal.TaskID
	if err := decodeBody(tag, raw, &id); err != nil {
		return 0, err
	}

	if id == 0 {
		return 0, malformedf("%s requires a task id", tag)
	}

	return id, nil
}

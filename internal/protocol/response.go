package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/sanLimbu/tasksync/internal"
)

// Response is the server's answer to exactly one Message. It is implemented by Nothing, Tasks
// and RPCError.
type Response interface {
	isResponse()
}

// Nothing acknowledges a request that returns no data.
type Nothing struct{}

// Tasks lists tasks in storage order.
type Tasks []internal.Task

func (Nothing) isResponse()  {}
func (Tasks) isResponse()    {}
func (RPCError) isResponse() {}

// RPCErrorCode enumerates the business errors that can be sent to a client.
type RPCErrorCode uint8

const (
	RPCErrorTaskDoesntExist RPCErrorCode = iota + 1
	RPCErrorUnknownPriority
)

// RPCError is an expected, recoverable failure reported by the server. Transport and storage
// failures are never sent as an RPCError.
type RPCError struct {
	Code     RPCErrorCode
	TaskID   internal.TaskID
	Priority string
}

// TaskDoesntExist reports an Update naming an id that is not stored.
func TaskDoesntExist(id internal.TaskID) RPCError {
	return RPCError{Code: RPCErrorTaskDoesntExist, TaskID: id}
}

// UnknownPriority reports a priority name the server does not know.
func UnknownPriority(s string) RPCError {
	return RPCError{Code: RPCErrorUnknownPriority, Priority: s}
}

func (e RPCError) Error() string {
	switch e.Code {
	case RPCErrorTaskDoesntExist:
		return fmt.Sprintf("task %s does not exist", e.TaskID)
	case RPCErrorUnknownPriority:
		return fmt.Sprintf("unknown priority %s", e.Priority)
	}

	return fmt.Sprintf("rpc error %d", e.Code)
}

const (
	tagNothing         = "Nothing"
	tagTasks           = "Tasks"
	tagError           = "Error"
	tagTaskDoesntExist = "TaskDoesntExist"
	tagUnknownPriority = "UnknownPriority"
)

// MarshalResponse returns the JSON payload for r.
func MarshalResponse(r Response) ([]byte, error) {
	var v interface{}

	switch r := r.(type) {
	case Nothing:
		v = tagNothing
	case Tasks:
		tasks := []internal.Task(r)
		if tasks == nil {
			tasks = []internal.Task{}
		}

		v = map[string][]internal.Task{tagTasks: tasks}
	case RPCError:
		switch r.Code {
		case RPCErrorTaskDoesntExist:
			v = map[string]map[string]internal.TaskID{tagError: {tagTaskDoesntExist: r.TaskID}}
		case RPCErrorUnknownPriority:
			v = map[string]map[string]string{tagError: {tagUnknownPriority: r.Priority}}
		default:
			return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "unknown rpc error code %d", r.Code)
		}
	default:
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "unknown response %T", r)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "json.Marshal")
	}

	return b, nil
}

// UnmarshalResponse parses a JSON payload produced by MarshalResponse.
func UnmarshalResponse(b []byte) (Response, error) {
	tag, body, err := splitVariant(b)
	if err != nil {
		return nil, err
	}

	switch tag {
	case tagNothing:
		if body != nil {
			return nil, malformedf("%s takes no value", tagNothing)
		}

		return Nothing{}, nil
	case tagTasks:
		var tasks []internal.Task
		if err := decodeBody(tag, body, &tasks); err != nil {
			return nil, err
		}

		if tasks == nil {
			tasks = []internal.Task{}
		}

		return Tasks(tasks), nil
	case tagError:
		return unmarshalRPCError(body)
	}

	return nil, malformedf("unknown response %q", tag)
}

func unmarshalRPCError(b json.RawMessage) (RPCError, error) {
	tag, body, err := splitVariant(b)
	if err != nil {
		return RPCError{}, err
	}

	switch tag {
	case tagTaskDoesntExist:
		id, err := decodeID(tag, body)
		if err != nil {
			return RPCError{}, err
		}

		return TaskDoesntExist(id), nil
	case tagUnknownPriority:
		var s string
		if err := decodeBody(tag, body, &s); err != nil {
			return RPCError{}, err
		}

		return UnknownPriority(s), nil
	}

	return RPCError{}, malformedf("unknown error %q", tag)
}

// Package protocol implements the tasksync wire format.
//
// Every message travels as one frame: a little-endian uint16 payload length
// followed by that many bytes of JSON. Requests and responses are sum types
// encoded the same way: unit variants as a bare string ("List", "Nothing"),
// the rest as an object with a single key naming the variant
// ({"Add": task}, {"Update": [id, delta]}, {"Error": {"TaskDoesntExist": id}}).
package protocol

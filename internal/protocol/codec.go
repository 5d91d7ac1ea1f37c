package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sanLimbu/tasksync/internal"
)

const (
	// MaxPayloadSize is the largest JSON payload a frame can carry, the length prefix is 16 bits.
	MaxPayloadSize = math.MaxUint16

	headerSize = 2
)

var (
	// ErrPayloadTooLarge is returned when a payload does not fit in one frame.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrConnectionClosed is returned when the peer closed the stream before sending any byte
	// of a new frame. It marks a clean end of a session.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrTruncated is returned when the stream ended in the middle of a frame.
	ErrTruncated = errors.New("truncated frame")
	// ErrMalformedMessage is returned when a payload is not valid JSON or names an unknown variant.
	ErrMalformedMessage = errors.New("malformed message")
)

// EncodeFrame prefixes payload with its length.
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes, max is %d", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}

	buf := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint16(buf, uint16(len(payload)))
	copy(buf[headerSize:], payload)

	return buf, nil
}

// WriteFrame writes payload as a single frame.
func WriteFrame(w io.Writer, payload []byte) error {
	buf, err := EncodeFrame(payload)
	if err != nil {
		return err
	}

	if _, err := w.Write(buf); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "write frame")
	}

	return nil
}

// ReadFrame reads exactly one frame and returns its payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [headerSize]byte

	if _, err := io.ReadFull(r, header[:]); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return nil, ErrConnectionClosed
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, fmt.Errorf("%w: incomplete length prefix", ErrTruncated)
		}

		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "read length prefix")
	}

	n := binary.LittleEndian.Uint16(header[:])
	payload := make([]byte, n)

	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: expected %d payload bytes", ErrTruncated, n)
		}

		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "read payload")
	}

	return payload, nil
}

// EncodeMessage returns m as a complete frame.
func EncodeMessage(m Message) ([]byte, error) {
	payload, err := MarshalMessage(m)
	if err != nil {
		return nil, err
	}

	return EncodeFrame(payload)
}

// EncodeResponse returns r as a complete frame.
func EncodeResponse(r Response) ([]byte, error) {
	payload, err := MarshalResponse(r)
	if err != nil {
		return nil, err
	}

	return EncodeFrame(payload)
}

// WriteMessage writes m as one frame.
func WriteMessage(w io.Writer, m Message) error {
	payload, err := MarshalMessage(m)
	if err != nil {
		return err
	}

	return WriteFrame(w, payload)
}

// ReadMessage reads one frame and decodes it as a Message.
func ReadMessage(r io.Reader) (Message, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}

	return UnmarshalMessage(payload)
}

// WriteResponse writes res as one frame.
func WriteResponse(w io.Writer, res Response) error {
	payload, err := MarshalResponse(res)
	if err != nil {
		return err
	}

	return WriteFrame(w, payload)
}

// ReadResponse reads one frame and decodes it as a Response.
func ReadResponse(r io.Reader) (Response, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}

	return UnmarshalResponse(payload)
}

// splitVariant separates a tagged value into its tag and body. Unit variants have a nil body.
func splitVariant(b []byte) (string, json.RawMessage, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return "", nil, malformedf("empty payload")
	}

	if b[0] == '"' {
		var tag string
		if err := json.Unmarshal(b, &tag); err != nil {
			return "", nil, malformed(err)
		}

		return tag, nil, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return "", nil, malformed(err)
	}

	if len(obj) != 1 {
		return "", nil, malformedf("expected a single variant, got %d keys", len(obj))
	}

	for tag, body := range obj {
		return tag, body, nil
	}

	return "", nil, malformedf("unreachable")
}

func decodeBody(tag string, body json.RawMessage, v interface{}) error {
	if body == nil {
		return malformedf("%s requires a value", tag)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return malformed(fmt.Errorf("%s: %w", tag, err))
	}

	return nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
}

func malformedf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedMessage, fmt.Sprintf(format, a...))
}

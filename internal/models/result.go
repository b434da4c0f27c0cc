package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// FailureKind tells a surface why a Result failed.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureValidation
	FailureRemote
)

func (k FailureKind) Outcome() CallOutcome {
	switch k {
	case FailureValidation:
		return CallOutcomeValidationError
	case FailureRemote:
		return CallOutcomeRemoteError
	default:
		return CallOutcomeSuccess
	}
}

// Envelope is the untyped view of a Result used by the transports.
type Envelope interface {
	json.Marshaler
	msgpack.CustomEncoder
	IsSuccess() bool
	FailureKind() FailureKind
	ErrorMessage() string
}

// Result is either a success carrying Data or a failure carrying Error.
// It serializes flat: {"success":true, ...Data fields} or {"success":false,"error":"..."}.
type Result[T any] struct {
	Success bool
	Data    T
	Error   string
	Cause   FailureKind
}

var _ Envelope = Result[VoiceList]{}

func Success[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Invalid builds a failure for input rejected before any remote call.
func Invalid[T any](message string) Result[T] {
	return Result[T]{Error: message, Cause: FailureValidation}
}

// RemoteFailure builds a failure from an error returned by the remote client.
func RemoteFailure[T any](err error) Result[T] {
	return Result[T]{Error: fmt.Sprintf("API request failed: %v", err), Cause: FailureRemote}
}

func (r Result[T]) IsSuccess() bool          { return r.Success }
func (r Result[T]) FailureKind() FailureKind { return r.Cause }
func (r Result[T]) ErrorMessage() string     { return r.Error }

func (r Result[T]) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}{false, r.Error})
	}

	data, err := json.Marshal(r.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result payload: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) < 2 || data[0] != '{' {
		return nil, fmt.Errorf("result payload must be a JSON object, got %T", r.Data)
	}

	var buf bytes.Buffer
	buf.WriteString(`{"success":true`)
	if inner := bytes.TrimSpace(data[1 : len(data)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r Result[T]) EncodeMsgpack(enc *msgpack.Encoder) error {
	if !r.Success {
		return enc.Encode(map[string]interface{}{"success": false, "error": r.Error})
	}

	raw, err := msgpack.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal result payload: %w", err)
	}
	fields := map[string]interface{}{}
	if err := msgpack.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("result payload must be a map, got %T: %w", r.Data, err)
	}
	fields["success"] = true
	return enc.Encode(fields)
}

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dorylabs/dorycli/internal/domain/port/driven"
)

// Envelope is the backend's uniform response wrapper. Data is present and
// well-formed only when Success is true on a 2xx status.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// errorEnvelope is the backend's body on any non-2xx status.
type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// timestampLayouts are tried in order; first successful parse wins. The
// RFC 3339 layouts cover the backend's usual encodings; the fixed fallback
// handles microsecond timestamps serialized with a literal Z and no offset,
// which are assumed UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

const fallbackTimestampLayout = "2006-01-02T15:04:05.000000"

// Timestamp is a time.Time that decodes the backend's heterogeneous
// timestamp encodings. A string no layout accepts fails decoding with the
// offending value; no default is ever substituted.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &driven.DecodeError{Value: string(data), Err: err}
	}

	parsed, err := parseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// parseTimestamp applies the layered parsing strategy.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, nil
		}
	}

	if trimmed, ok := strings.CutSuffix(s, "Z"); ok {
		if parsed, err := time.ParseInLocation(fallbackTimestampLayout, trimmed, time.UTC); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, &driven.DecodeError{
		Value: s,
		Err:   fmt.Errorf("timestamp matches no supported layout"),
	}
}

// decodeJSON unmarshals body into v, normalizing every failure into a
// *driven.DecodeError. Malformed JSON and shape mismatches are ordinary
// decode errors, never faults.
func decodeJSON(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		var decodeErr *driven.DecodeError
		if errors.As(err, &decodeErr) {
			return err
		}

		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &driven.DecodeError{Path: typeErr.Field, Value: typeErr.Value, Err: err}
		}

		return &driven.DecodeError{Err: err}
	}
	return nil
}

// decodeEnvelope decodes a 2xx body as Envelope[T] and returns its payload.
// A parseable envelope whose success flag is false violates the protocol
// and surfaces as ErrInvalidResponse.
func decodeEnvelope[T any](body []byte) (T, error) {
	var env Envelope[T]
	if err := decodeJSON(body, &env); err != nil {
		var zero T
		return zero, err
	}

	if !env.Success {
		var zero T
		return zero, fmt.Errorf("%w: success flag false on 2xx status", driven.ErrInvalidResponse)
	}

	return env.Data, nil
}

// encodeBody serializes a request body as JSON.
func encodeBody(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode body: %v", driven.ErrInvalidRequest, err)
	}
	return data, nil
}

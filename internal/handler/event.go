package handler

import (
	"bytes"
	"encoding/json"
)

var emptyPayload = json.RawMessage(`{}`)

// Event is the subset of an API Gateway proxy event the functions read.
// Body is kept raw so that string, object and null bodies all decode.
type Event struct {
	Body json.RawMessage `json:"body,omitempty"`
}

// UnmarshalJSON decodes object events and leaves Body empty for any other
// JSON value, so arrays, strings and numbers still reach the handler.
func (e *Event) UnmarshalJSON(data []byte) error {
	var fields struct {
		Body json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		*e = Event{}
		return nil
	}
	e.Body = fields.Body
	return nil
}

// Payload returns the event body, or an empty object when the event or its
// body is absent or falsy (null, false, 0, "", [] or {}).
func (e *Event) Payload() json.RawMessage {
	if e == nil || isFalsy(e.Body) {
		return emptyPayload
	}
	return e.Body
}

func isFalsy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return true
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return false
	}
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case float64:
		return v == 0
	case string:
		return v == ""
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	}
	return false
}

package websocket

import (
	"encoding/json"

	"github.com/sallewarkiran/tda-sdk-go/common"
)

// Record is a single entry of a message's content. Coming from the wire it's
// keyed by positional indices ("0", "1", ...) plus "key" and "seq"; once
// decoded it's keyed by field names. Numbers are kept as json.Number.
type Record map[string]interface{}

// Message is one logical message of an inbound frame: an element of its
// "response", "notify", "data" or "snapshot" list. Data messages are emitted
// with their content already decoded.
type Message map[string]interface{}

// Service returns the "service" field.
func (m Message) Service() common.Service {
	s, _ := m["service"].(string)
	return common.Service(s)
}

// Command returns the "command" field.
func (m Message) Command() common.Command {
	s, _ := m["command"].(string)
	return common.Command(s)
}

// RequestID returns the "requestid" field; responses echo it from the
// request.
func (m Message) RequestID() string {
	s, _ := m["requestid"].(string)
	return s
}

// Timestamp returns the "timestamp" field, in milliseconds since the epoch.
func (m Message) Timestamp() int64 {
	n, ok := m["timestamp"].(json.Number)
	if !ok {
		return 0
	}

	v, _ := n.Int64()
	return v
}

// Content returns the decoded content of a data message.
func (m Message) Content() []Record {
	switch v := m["content"].(type) {
	case []Record:
		return v
	case []interface{}:
		return toRecords(v)
	}

	return nil
}

// ResponseContent returns the content of a response, which is a single
// object with "code" and "msg".
func (m Message) ResponseContent() Record {
	switch v := m["content"].(type) {
	case Record:
		return v
	case map[string]interface{}:
		return Record(v)
	}

	return nil
}

// ErrorCode returns the "code" of a response's content, and whether it
// signals a failure. A missing code means success; a code that isn't a
// number is reported as -1.
func (m Message) ErrorCode() (int64, bool) {
	content := m.ResponseContent()

	raw, ok := content["code"]
	if !ok || raw == nil {
		return 0, false
	}

	n, ok := raw.(json.Number)
	if !ok {
		return -1, true
	}

	code, err := n.Int64()
	if err != nil {
		return -1, true
	}

	return code, code != 0
}

// toRecords keeps only the object elements of a raw content list.
func toRecords(list []interface{}) []Record {
	records := make([]Record, 0, len(list))
	for _, v := range list {
		if obj, ok := v.(map[string]interface{}); ok {
			records = append(records, Record(obj))
		}
	}
	return records
}

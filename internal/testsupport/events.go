package testsupport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
)

// Event is a decoded line of the JSON event stream.
type Event map[string]any

// Type returns the event discriminator.
func (e Event) Type() string {
	s, _ := e["type"].(string)
	return s
}

// String returns a string field or "".
func (e Event) String(key string) string {
	s, _ := e[key].(string)
	return s
}

// Float returns a numeric field or 0.
func (e Event) Float(key string) float64 {
	f, _ := e[key].(float64)
	return f
}

// ParseEvents decodes every line of data, failing the test on malformed JSON.
func ParseEvents(t testing.TB, data []byte) []Event {
	t.Helper()

	var out []Event
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			t.Fatalf("event line %q is not JSON: %v", line, err)
		}
		out = append(out, ev)
	}
	return out
}

// FilterEvents returns the events of one type.
func FilterEvents(events []Event, eventType string) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Type() == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// Package stream implements the wire protocol of the generation backend:
// newline-delimited "data: " JSON records carried on a streamed HTTP
// response body.
package stream

import (
	"encoding/json"
	"strings"
)

const dataPrefix = "data: "

// Event is one decoded frame. The backend emits exactly one populated field
// per frame: a text chunk, a completion marker, or an error message.
type Event struct {
	Chunk string `json:"chunk,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}

// Decoder reassembles frames from an incremental byte stream. A trailing
// line that has not yet seen its newline is retained between Feed calls.
//
// Frames that fail to parse are dropped, not surfaced: transport chunking
// can split a record at an arbitrary byte, and dropping a malformed
// fragment is safer than misreading it. Skipped reports how many lines
// were dropped so callers can observe the degradation.
type Decoder struct {
	partial string
	skipped int
}

// NewDecoder returns a decoder with an empty buffer.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes the next read from the transport and returns every frame
// completed by it, in order.
func (d *Decoder) Feed(p []byte) []Event {
	lines := strings.Split(d.partial+string(p), "\n")
	d.partial = lines[len(lines)-1]

	var events []Event
	for _, line := range lines[:len(lines)-1] {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, dataPrefix)), &ev); err != nil {
			d.skipped++
			continue
		}
		events = append(events, ev)
	}
	return events
}

// Skipped returns the number of prefixed lines dropped due to parse
// failure since the decoder was created.
func (d *Decoder) Skipped() int {
	return d.skipped
}

// Package sse decodes the backend's text event stream into typed protocol
// events. The stream is framed as blocks separated by a blank line; each
// block carries an "event:" line naming the type and a "data:" line with a
// JSON payload.
package sse

import (
	"encoding/json"
	"strings"

	"github.com/visionbi/strand/pkg/chat"
	"github.com/visionbi/strand/pkg/logger"
)

const (
	eventDelta = "delta"
	eventDone  = "done"
)

// Delta is an incremental text fragment of an in-progress response.
type Delta struct {
	Text string `json:"text"`
}

// Done is the terminal event carrying the backend-assigned message id and
// the finalized response metadata.
type Done struct {
	MessageID int64             `json:"message_id"`
	Meta      chat.ResponseMeta `json:"meta"`
}

// Event is one decoded protocol event; exactly one field is non-nil.
type Event struct {
	Delta *Delta
	Done  *Done
}

// Decoder reassembles events from raw byte chunks. Chunk boundaries are
// arbitrary, so text up to the last complete block separator is decoded and
// the remainder is carried over to the next Feed call.
type Decoder struct {
	carry string
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a chunk to the carry buffer and returns the events decoded
// from every block completed by it, in stream order. Malformed blocks are
// skipped, unrecognized event types are ignored.
func (d *Decoder) Feed(chunk []byte) []Event {
	d.carry += string(chunk)
	// Line terminators may also straddle chunks, so normalize the whole
	// buffer rather than the incoming chunk.
	d.carry = strings.ReplaceAll(d.carry, "\r\n", "\n")

	blocks := strings.Split(d.carry, "\n\n")
	d.carry = blocks[len(blocks)-1]

	var events []Event
	for _, block := range blocks[:len(blocks)-1] {
		if ev, ok := decodeBlock(block); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Reset drops any buffered partial block.
func (d *Decoder) Reset() {
	d.carry = ""
}

func decodeBlock(block string) (Event, bool) {
	var eventType, data string
	for _, line := range strings.Split(block, "\n") {
		switch {
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	if data == "" {
		// Keep-alive or otherwise non-informative block.
		return Event{}, false
	}

	switch eventType {
	case eventDelta:
		var delta Delta
		if err := json.Unmarshal([]byte(data), &delta); err != nil {
			logger.Warn("skipping undecodable delta payload: %v", err)
			return Event{}, false
		}
		return Event{Delta: &delta}, true
	case eventDone:
		var done Done
		if err := json.Unmarshal([]byte(data), &done); err != nil {
			logger.Warn("skipping undecodable done payload: %v", err)
			return Event{}, false
		}
		return Event{Done: &done}, true
	default:
		// Unknown event types are ignored for forward compatibility.
		return Event{}, false
	}
}

package sse

import (
	"bytes"
	"encoding/json"
)

// Kind discriminates the event variants a Hati stream can carry.
type Kind int

const (
	KindContent Kind = iota + 1
	KindAudio
	KindDone
	KindError
)

// Event is one parsed stream event. Exactly one variant is populated,
// selected by Kind.
type Event struct {
	Kind    Kind
	Content string // KindContent: one incremental text unit
	Audio   string // KindAudio: base64-encoded PCM16 block
	Err     string // KindError: terminal failure message
}

var dataPrefix = []byte("data: ")

type wireEvent struct {
	Content *string `json:"content"`
	Audio   *string `json:"audio"`
	Done    bool    `json:"done"`
	Error   *string `json:"error"`
}

// ParseLine decodes one framed line into an Event. It returns false for
// non-data lines (comments, blank separators, pings), for malformed JSON
// and for payloads matching no known variant; callers skip those silently.
func ParseLine(line []byte) (Event, bool) {
	if !bytes.HasPrefix(line, dataPrefix) {
		return Event{}, false
	}
	var w wireEvent
	if err := json.Unmarshal(line[len(dataPrefix):], &w); err != nil {
		return Event{}, false
	}
	switch {
	case w.Error != nil:
		return Event{Kind: KindError, Err: *w.Error}, true
	case w.Done:
		return Event{Kind: KindDone}, true
	case w.Audio != nil:
		return Event{Kind: KindAudio, Audio: *w.Audio}, true
	case w.Content != nil:
		return Event{Kind: KindContent, Content: *w.Content}, true
	}
	return Event{}, false
}

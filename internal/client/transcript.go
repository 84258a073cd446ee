package client

import (
	"strings"
	"sync"

	"github.com/azuradaemon/hati/internal/sse"
)

// State of a message-in-progress.
type State int

const (
	StateStreaming State = iota
	StateDone
	StateFailed
)

// Transcript accumulates content events into the assistant message being
// streamed, mirroring what the server will seal. Safe for concurrent reads
// while a consumer goroutine applies events.
type Transcript struct {
	mu    sync.RWMutex
	b     strings.Builder
	state State
	err   string
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Apply folds one event into the transcript and reports whether the stream
// is still live afterwards.
func (t *Transcript) Apply(ev sse.Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch ev.Kind {
	case sse.KindContent:
		t.b.WriteString(ev.Content)
		return true
	case sse.KindDone:
		t.state = StateDone
		return false
	case sse.KindError:
		t.state = StateFailed
		t.err = ev.Err
		return false
	default:
		return true
	}
}

func (t *Transcript) Text() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.b.String()
}

func (t *Transcript) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *Transcript) Err() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

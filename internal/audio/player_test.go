package audio

import (
	"sync"
	"testing"
	"time"
)

type recordSink struct {
	mu     sync.Mutex
	blocks [][]float32
	gate   chan struct{} // when non-nil, each write waits for one tick
}

func (s *recordSink) WriteSamples(samples []float32) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	s.blocks = append(s.blocks, samples)
	s.mu.Unlock()
	return nil
}

func (s *recordSink) snapshot() [][]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]float32(nil), s.blocks...)
}

func TestPlayer_DrainsInOrder(t *testing.T) {
	sink := &recordSink{}
	p := NewPlayer(sink)

	p.Enqueue([]float32{1})
	p.Enqueue([]float32{2})
	p.Enqueue([]float32{3})
	p.Close()

	blocks := sink.snapshot()
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	for i, want := range []float32{1, 2, 3} {
		if blocks[i][0] != want {
			t.Fatalf("block %d: got %v, want %v", i, blocks[i][0], want)
		}
	}
}

func TestPlayer_CloseFlushesTail(t *testing.T) {
	sink := &recordSink{}
	p := NewPlayer(sink)
	for i := 0; i < 50; i++ {
		p.Enqueue([]float32{float32(i)})
	}
	p.Close()
	if got := len(sink.snapshot()); got != 50 {
		t.Fatalf("close truncated the tail: %d of 50 blocks played", got)
	}
}

func TestPlayer_ClearDropsQueuedBlocks(t *testing.T) {
	sink := &recordSink{gate: make(chan struct{})}
	p := NewPlayer(sink)

	p.Enqueue([]float32{1}) // enters the sink and blocks on the gate
	// give the drain goroutine time to pick up the first block
	time.Sleep(20 * time.Millisecond)
	p.Enqueue([]float32{2})
	p.Enqueue([]float32{3})

	p.Clear()

	sink.gate <- struct{}{} // release the in-flight block
	close(sink.gate)
	p.Close()

	blocks := sink.snapshot()
	if len(blocks) != 1 || blocks[0][0] != 1 {
		t.Fatalf("expected only the in-flight block to play, got %v", blocks)
	}
}

func TestPlayer_EnqueueAfterCloseIsIgnored(t *testing.T) {
	sink := &recordSink{}
	p := NewPlayer(sink)
	p.Close()
	p.Enqueue([]float32{1})
	if got := len(sink.snapshot()); got != 0 {
		t.Fatalf("expected no playback after close, got %d blocks", got)
	}
}

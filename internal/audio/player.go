package audio

import "sync"

// Sink receives decoded sample blocks in playback order. Implementations
// wrap a real-time audio output; WriteSamples may block while the device
// drains.
type Sink interface {
	WriteSamples(samples []float32) error
}

// Player queues decoded sample blocks between the stream consumer and a
// Sink so that gaps between chunk arrivals do not starve the device.
// Blocks are delivered strictly in enqueue order by a single drain
// goroutine, started lazily on first use.
type Player struct {
	sink Sink

	mu      sync.Mutex
	cond    *sync.Cond
	queue   [][]float32
	closed  bool

	startOnce sync.Once
	done      chan struct{}
}

func NewPlayer(sink Sink) *Player {
	p := &Player{sink: sink, done: make(chan struct{})}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Enqueue adds one sample block to the playback queue. The first call
// starts the drain goroutine; initialization is idempotent so concurrent
// speak calls cannot double-start it.
func (p *Player) Enqueue(samples []float32) {
	if len(samples) == 0 {
		return
	}
	p.startOnce.Do(func() { go p.drain() })

	p.mu.Lock()
	if !p.closed {
		p.queue = append(p.queue, samples)
		p.cond.Signal()
	}
	p.mu.Unlock()
}

// Clear drops every queued-but-unplayed block immediately. The block
// currently inside the Sink, if any, finishes; nothing queued behind it
// plays. Used for user-initiated stop and for starting a new utterance
// while the previous one is still draining.
func (p *Player) Clear() {
	p.mu.Lock()
	p.queue = nil
	p.mu.Unlock()
}

// Close waits for the queue tail to drain, then stops the player. A done
// signal therefore flushes rather than truncates.
func (p *Player) Close() {
	p.startOnce.Do(func() { go p.drain() })

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	<-p.done
}

func (p *Player) drain() {
	defer close(p.done)
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 && p.closed {
			p.mu.Unlock()
			return
		}
		block := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		// write outside the lock so Clear stays responsive
		_ = p.sink.WriteSamples(block)
	}
}

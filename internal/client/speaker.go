package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/azuradaemon/hati/internal/audio"
	"github.com/azuradaemon/hati/internal/sse"
)

// Speaker plays streamed TTS audio through an audio.Sink. The playback
// queue is created lazily exactly once, so overlapping Speak calls share
// one sink pipeline instead of double-initializing it.
type Speaker struct {
	client *Client
	sink   audio.Sink
	voice  string

	initOnce sync.Once
	player   *audio.Player
}

func NewSpeaker(c *Client, sink audio.Sink, voice string) *Speaker {
	return &Speaker{client: c, sink: sink, voice: voice}
}

func (s *Speaker) init() {
	s.initOnce.Do(func() {
		s.player = audio.NewPlayer(s.sink)
	})
}

// Speak streams text through the TTS relay and enqueues each decoded PCM
// block in arrival order. Any audio still queued from a previous utterance
// is cleared first. Returns once the stream ends; queued audio keeps
// draining in the background.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	s.init()
	s.player.Clear()

	events, errs := s.client.StreamSpeech(ctx, text, s.voice)
	for ev := range events {
		switch ev.Kind {
		case sse.KindAudio:
			samples, err := audio.DecodePCM16(ev.Audio)
			if err != nil {
				// one corrupt block does not abort the utterance
				continue
			}
			s.player.Enqueue(samples)
		case sse.KindDone:
			return nil
		case sse.KindError:
			return fmt.Errorf("tts stream: %s", ev.Err)
		}
	}
	if err := <-errs; err != nil {
		return err
	}
	return nil
}

// Stop silences playback immediately by dropping all queued blocks.
func (s *Speaker) Stop() {
	s.init()
	s.player.Clear()
}

// Close flushes the queue tail and shuts the playback pipeline down.
func (s *Speaker) Close() {
	s.init()
	s.player.Close()
}

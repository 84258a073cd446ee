package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/azuradaemon/hati/internal/audio"
	"github.com/azuradaemon/hati/internal/sse"
)

func sseServer(t *testing.T, writes []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatalf("test server does not support flushing")
		}
		for _, chunk := range writes {
			if _, err := w.Write([]byte(chunk)); err != nil {
				return
			}
			flusher.Flush()
		}
	}))
}

func TestStreamMessage_AccumulatesTranscript(t *testing.T) {
	srv := sseServer(t, []string{
		"data: {\"content\":\"Molo\"}\n\n",
		"data: {\"content\":\", Tata\"}\n\n",
		"data: {\"done\":true}\n\n",
	})
	defer srv.Close()

	c := New(srv.URL, "token")
	events, errs := c.StreamMessage(context.Background(), 1, "hi")

	tr := NewTranscript()
	for ev := range events {
		tr.Apply(ev)
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream: %v", err)
	}
	if tr.Text() != "Molo, Tata" {
		t.Fatalf("transcript %q", tr.Text())
	}
	if tr.State() != StateDone {
		t.Fatalf("expected done state, got %v", tr.State())
	}
}

func TestStreamMessage_EventSplitAcrossWrites(t *testing.T) {
	srv := sseServer(t, []string{
		"data: {\"content\"",
		":\"hi\"}\n\n",
		"data: {\"done\":true}\n\n",
	})
	defer srv.Close()

	c := New(srv.URL, "")
	events, errs := c.StreamMessage(context.Background(), 1, "hi")

	var contents []string
	for ev := range events {
		if ev.Kind == sse.KindContent {
			contents = append(contents, ev.Content)
		}
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream: %v", err)
	}
	if len(contents) != 1 || contents[0] != "hi" {
		t.Fatalf("expected exactly one content event %q, got %v", "hi", contents)
	}
}

func TestStreamMessage_MalformedLinesAreSkipped(t *testing.T) {
	srv := sseServer(t, []string{
		"data: {not json}\n\n",
		"data: {\"content\":\"ok\"}\n\n",
		": keepalive comment\n\n",
		"data: {\"ping\":1}\n\n",
		"data: {\"done\":true}\n\n",
	})
	defer srv.Close()

	c := New(srv.URL, "")
	events, errs := c.StreamMessage(context.Background(), 1, "hi")

	tr := NewTranscript()
	for ev := range events {
		tr.Apply(ev)
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream: %v", err)
	}
	if tr.Text() != "ok" || tr.State() != StateDone {
		t.Fatalf("expected surviving event to apply, got %q state=%v", tr.Text(), tr.State())
	}
}

func TestStreamMessage_ErrorEventEndsStream(t *testing.T) {
	srv := sseServer(t, []string{
		"data: {\"content\":\"par\"}\n\n",
		"data: {\"error\":\"upstream failed\"}\n\n",
	})
	defer srv.Close()

	c := New(srv.URL, "")
	events, errs := c.StreamMessage(context.Background(), 1, "hi")

	tr := NewTranscript()
	for ev := range events {
		tr.Apply(ev)
	}
	if err := <-errs; err != nil {
		t.Fatalf("transport error not expected: %v", err)
	}
	if tr.State() != StateFailed || tr.Err() != "upstream failed" {
		t.Fatalf("expected failed state, got %v %q", tr.State(), tr.Err())
	}
}

func TestStreamMessage_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"conversation not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	events, errs := c.StreamMessage(context.Background(), 404, "hi")
	for range events {
	}
	if err := <-errs; err == nil {
		t.Fatalf("expected transport error for 404")
	}
}

type memSink struct {
	mu      sync.Mutex
	samples []float32
}

func (s *memSink) WriteSamples(samples []float32) error {
	s.mu.Lock()
	s.samples = append(s.samples, samples...)
	s.mu.Unlock()
	return nil
}

func TestSpeaker_DecodesAndPlaysInOrder(t *testing.T) {
	block1 := audio.EncodePCM16([]int16{0, 16384})
	block2 := audio.EncodePCM16([]int16{-16384, 32767})
	srv := sseServer(t, []string{
		"data: {\"audio\":\"" + block1 + "\"}\n\n",
		"data: {\"audio\":\"" + block2 + "\"}\n\n",
		"data: {\"done\":true}\n\n",
	})
	defer srv.Close()

	sink := &memSink{}
	sp := NewSpeaker(New(srv.URL, ""), sink, "nova")
	if err := sp.Speak(context.Background(), "Molo"); err != nil {
		t.Fatalf("speak: %v", err)
	}
	sp.Close() // flush the tail

	sink.mu.Lock()
	got := append([]float32(nil), sink.samples...)
	sink.mu.Unlock()

	want := []float32{0, 0.5, -0.5, 32767.0 / 32768.0}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if diff := got[i] - want[i]; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("sample %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSpeaker_StopBeforeSpeakIsSafe(t *testing.T) {
	sp := NewSpeaker(New("http://127.0.0.1:0", ""), &memSink{}, "nova")
	sp.Stop()

	done := make(chan struct{})
	go func() {
		sp.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("close hung")
	}
}

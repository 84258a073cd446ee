package sse

import "testing"

func TestParseLine_Variants(t *testing.T) {
	cases := []struct {
		line string
		ok   bool
		kind Kind
	}{
		{`data: {"content":"abc"}`, true, KindContent},
		{`data: {"audio":"AAA="}`, true, KindAudio},
		{`data: {"done":true}`, true, KindDone},
		{`data: {"error":"boom"}`, true, KindError},
		{`data: {"ping":123}`, false, 0},
		{`data: not json`, false, 0},
		{``, false, 0},
		{`: comment`, false, 0},
		{`event: chunk`, false, 0},
	}
	for _, tc := range cases {
		ev, ok := ParseLine([]byte(tc.line))
		if ok != tc.ok {
			t.Fatalf("line %q: ok=%v, want %v", tc.line, ok, tc.ok)
		}
		if ok && ev.Kind != tc.kind {
			t.Fatalf("line %q: kind=%v, want %v", tc.line, ev.Kind, tc.kind)
		}
	}
}

func TestParseLine_ErrorWinsOverOtherFields(t *testing.T) {
	ev, ok := ParseLine([]byte(`data: {"content":"x","error":"failed"}`))
	if !ok || ev.Kind != KindError || ev.Err != "failed" {
		t.Fatalf("unexpected event: ok=%v %+v", ok, ev)
	}
}

func TestParseLine_MalformedDoesNotAbortSubsequent(t *testing.T) {
	f := &LineFramer{}
	feed := "data: {broken\ndata: {\"content\":\"ok\"}\n"
	var events []Event
	for _, l := range f.Feed([]byte(feed)) {
		if ev, ok := ParseLine(l); ok {
			events = append(events, ev)
		}
	}
	if len(events) != 1 || events[0].Content != "ok" {
		t.Fatalf("expected the well-formed event to survive, got %+v", events)
	}
}

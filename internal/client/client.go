package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/azuradaemon/hati/internal/sse"
)

// Client consumes the Hati API from Go. Streaming endpoints are read
// incrementally: raw body chunks go through a line framer so events split
// across network reads are reassembled before parsing.
type Client struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{}, // streaming: no global timeout, ctx controls it
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

// StreamMessage sends one user message and returns the relayed event
// stream. Events arrive in emission order; the stream ends after a Done or
// Error event, or with an error on errs if the transport fails first.
// Both channels close when consumption stops.
func (c *Client) StreamMessage(ctx context.Context, conversationID uint64, content string) (<-chan sse.Event, <-chan error) {
	path := fmt.Sprintf("/api/conversations/%d/messages", conversationID)
	return c.stream(ctx, path, map[string]string{"content": content})
}

// StreamSpeech streams base64 PCM16 audio events for text.
func (c *Client) StreamSpeech(ctx context.Context, text, voice string) (<-chan sse.Event, <-chan error) {
	body := map[string]string{"text": text}
	if voice != "" {
		body["voice"] = voice
	}
	return c.stream(ctx, "/api/tts", body)
}

func (c *Client) stream(ctx context.Context, path string, body any) (<-chan sse.Event, <-chan error) {
	events := make(chan sse.Event, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)

		req, err := c.newRequest(ctx, http.MethodPost, path, body)
		if err != nil {
			errs <- err
			return
		}

		resp, err := c.Client.Do(req)
		if err != nil {
			errs <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
			msg := strings.TrimSpace(string(b))
			if msg == "" {
				msg = fmt.Sprintf("status %d", resp.StatusCode)
			}
			errs <- fmt.Errorf("stream request failed: %s", msg)
			return
		}

		framer := &sse.LineFramer{}
		buf := make([]byte, 4096)
		for {
			n, readErr := resp.Body.Read(buf)
			if n > 0 {
				for _, line := range framer.Feed(buf[:n]) {
					ev, ok := sse.ParseLine(line)
					if !ok {
						// malformed or unknown lines are skipped, the
						// stream keeps going
						continue
					}
					select {
					case events <- ev:
					case <-ctx.Done():
						errs <- ctx.Err()
						return
					}
					if ev.Kind == sse.KindDone || ev.Kind == sse.KindError {
						return
					}
				}
			}
			if readErr == io.EOF {
				return
			}
			if readErr != nil {
				errs <- readErr
				return
			}
		}
	}()

	return events, errs
}

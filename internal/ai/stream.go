package ai

import "context"

// StreamProvider is an optional interface. Providers may implement
// streaming chat; chunks and errs are both closed when the stream ends.
type StreamProvider interface {
	StreamChat(ctx context.Context, messages []Message) (<-chan string, <-chan error)
}

// SpeechProvider is an optional interface for streaming text-to-speech.
// Each chunk is one base64-encoded block of little-endian PCM16 audio,
// forwarded exactly as the upstream emitted it.
type SpeechProvider interface {
	StreamSpeech(ctx context.Context, text, voice string) (<-chan string, <-chan error)
}

// ImageProvider is an optional interface for one-shot image generation.
// The result is the base64-encoded image payload.
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt, size string) (string, error)
}

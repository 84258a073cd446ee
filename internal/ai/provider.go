package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is the minimal contract every upstream completion client meets.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

package provider

import (
	"context"

	"github.com/vendaflow/ragcore/message"
)

// ChatRequest bundles one chat-completion invocation. Temperature, token
// budget and JSON mode are per request because the router re-prompts the
// same provider under different settings across fallback stages.
type ChatRequest struct {
	Messages    []*message.Message
	Model       string
	Temperature float64
	MaxTokens   int64
	JSONMode    bool
}

// ChatResponse captures the provider reply.
type ChatResponse struct {
	Message *message.Message
}

// ChatClient is the narrow capability the answer router depends on.
// Implementations surface provider failures as errors; the router treats
// any error as a signal to advance to the next fallback tier.
type ChatClient interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

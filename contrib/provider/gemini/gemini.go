package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/vendaflow/ragcore/message"
	"github.com/vendaflow/ragcore/provider"
	"google.golang.org/api/option"
)

// Config holds Gemini provider configuration
type Config struct {
	APIKey       string
	DefaultModel string
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:       apiKey,
		DefaultModel: "gemini-1.5-flash",
	}
}

// Provider implements the provider.ChatClient interface for Google Gemini
type Provider struct {
	config *Config
	client *genai.Client
}

// New creates a new Gemini provider using the official SDK
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}
	if config.DefaultModel == "" {
		config.DefaultModel = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &Provider{
		config: config,
		client: client,
	}, nil
}

// Close releases the underlying API client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// buildChat splits request messages into system prompts, prior chat history
// and the final user turn. The final user turn is removed from the history
// because SendMessage carries it; the surrounding turns keep their original
// order, including an assistant turn after the last user message.
func buildChat(msgs []*message.Message) (systemPrompts []string, history []*genai.Content, lastUser string, err error) {
	lastUserIdx := -1
	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleSystem:
			systemPrompts = append(systemPrompts, msg.Content)
		case message.RoleUser:
			lastUser = msg.Content
			lastUserIdx = len(history)
			history = append(history, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		case message.RoleAssistant:
			history = append(history, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}
	if lastUserIdx < 0 {
		return nil, nil, "", fmt.Errorf("chat request has no user message")
	}
	history = append(history[:lastUserIdx], history[lastUserIdx+1:]...)
	return systemPrompts, history, lastUser, nil
}

// Chat implements provider.ChatClient
func (p *Provider) Chat(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("chat request cannot be nil")
	}

	modelName := req.Model
	if modelName == "" {
		modelName = p.config.DefaultModel
	}
	model := p.client.GenerativeModel(modelName)

	if req.Temperature >= 0 {
		model.SetTemperature(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.JSONMode {
		model.ResponseMIMEType = "application/json"
	}

	systemPrompts, history, lastUser, err := buildChat(req.Messages)
	if err != nil {
		return nil, err
	}
	if len(systemPrompts) > 0 {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.Join(systemPrompts, "\n"))},
		}
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, genai.Text(lastUser))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return &provider.ChatResponse{
		Message: message.NewMessage(message.RoleAssistant, sb.String()),
	}, nil
}

package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/vendaflow/ragcore/message"
)

func contentText(c *genai.Content) string {
	if len(c.Parts) == 0 {
		return ""
	}
	text, _ := c.Parts[0].(genai.Text)
	return string(text)
}

func TestBuildChat(t *testing.T) {
	systemPrompts, history, lastUser, err := buildChat([]*message.Message{
		message.NewMessage(message.RoleSystem, "seja cordial"),
		message.NewMessage(message.RoleUser, "qual o horário?"),
		message.NewMessage(message.RoleAssistant, "das 9h às 18h"),
		message.NewMessage(message.RoleUser, "e aos sábados?"),
	})
	if err != nil {
		t.Fatalf("buildChat() error = %v", err)
	}
	if len(systemPrompts) != 1 || systemPrompts[0] != "seja cordial" {
		t.Fatalf("system prompts = %v", systemPrompts)
	}
	if lastUser != "e aos sábados?" {
		t.Fatalf("lastUser = %q", lastUser)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Role != "user" || history[1].Role != "model" {
		t.Fatalf("history roles = %s/%s", history[0].Role, history[1].Role)
	}
}

func TestBuildChatTrailingAssistant(t *testing.T) {
	systemPrompts, history, lastUser, err := buildChat([]*message.Message{
		message.NewMessage(message.RoleUser, "qual o horário?"),
		message.NewMessage(message.RoleAssistant, "das 9h às 18h"),
	})
	if err != nil {
		t.Fatalf("buildChat() error = %v", err)
	}
	if len(systemPrompts) != 0 {
		t.Fatalf("unexpected system prompts: %v", systemPrompts)
	}
	if lastUser != "qual o horário?" {
		t.Fatalf("lastUser = %q", lastUser)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want the trailing assistant turn kept", len(history))
	}
	if history[0].Role != "model" || contentText(history[0]) != "das 9h às 18h" {
		t.Fatalf("trailing assistant turn dropped: role=%s text=%q",
			history[0].Role, contentText(history[0]))
	}
}

func TestBuildChatNoUserMessage(t *testing.T) {
	if _, _, _, err := buildChat([]*message.Message{
		message.NewMessage(message.RoleSystem, "seja cordial"),
	}); err == nil {
		t.Fatal("expected error when no user message is present")
	}
}

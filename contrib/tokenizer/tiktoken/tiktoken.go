package tiktoken

import (
	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts model tokens so context budgets are enforced in the
// units providers actually bill and truncate by.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New resolves the encoding for a model name, falling back to treating the
// name as an encoding identifier.
func New(name string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, err
		}
	}
	return &Tokenizer{enc: enc}, nil
}

// Encode returns the token IDs for the text.
func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// CountTokens returns how many tokens the text occupies.
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.Encode(text))
}

// Decode reassembles text from token IDs.
func (t *Tokenizer) Decode(ids []int) string {
	return t.enc.Decode(ids)
}

// Truncate keeps at most maxTokens tokens of the text.
func (t *Tokenizer) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	ids := t.Encode(text)
	if len(ids) <= maxTokens {
		return text
	}
	return t.Decode(ids[:maxTokens])
}

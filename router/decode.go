package router

import (
	"encoding/json"
	"fmt"
	"strings"

	ragerrors "github.com/vendaflow/ragcore/errors"
)

// decodeReply parses a model completion into the JSON reply contract.
// Models wrap JSON in markdown fences or prose often enough that we
// sanitize before unmarshalling.
func decodeReply(raw string) (*modelReply, error) {
	cleaned := sanitizeJSON(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty completion", ragerrors.ErrMalformedResponse)
	}
	var reply modelReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ragerrors.ErrMalformedResponse, err)
	}
	return &reply, nil
}

// sanitizeJSON strips markdown code fences and any prose surrounding the
// outermost JSON object.
func sanitizeJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

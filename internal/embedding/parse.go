package embedding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperjump/lookalike/internal/vector"
)

// ReportedError is an error message the embedder itself returned as
// {"error": "..."}.
type ReportedError struct {
	Message string
}

func (e *ReportedError) Error() string { return "embedder reported: " + e.Message }

type outputPayload struct {
	Embedding []json.Number `json:"embedding"`
	Error     *string       `json:"error"`
}

// ParseOutput extracts {"embedding": [...]} or {"error": "..."} from raw
// embedder output. Text before or after the JSON object (warnings, progress
// lines) is ignored: every '{' is tried as the start of the payload until an
// object with one of the two keys decodes.
func ParseOutput(raw []byte) ([]float32, error) {
	out := bytes.TrimSpace(raw)
	if len(out) == 0 {
		return nil, errors.New("empty output")
	}
	lastErr := errors.New("no JSON payload in output")
	for off := 0; off < len(out); {
		i := bytes.IndexByte(out[off:], '{')
		if i < 0 {
			break
		}
		start := off + i
		off = start + 1

		var p outputPayload
		if err := json.NewDecoder(bytes.NewReader(out[start:])).Decode(&p); err != nil {
			lastErr = fmt.Errorf("decode payload: %w", err)
			continue
		}
		if p.Error != nil && *p.Error != "" {
			return nil, &ReportedError{Message: *p.Error}
		}
		if p.Embedding == nil {
			lastErr = errors.New("payload has no embedding")
			continue
		}
		if len(p.Embedding) == 0 {
			return nil, errors.New("embedding is empty")
		}
		vec, err := vector.ParseNumbers(p.Embedding)
		if err != nil {
			return nil, fmt.Errorf("embedding: %w", err)
		}
		return vec, nil
	}
	return nil, lastErr
}

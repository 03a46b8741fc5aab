// Package transcript persists conversation batches and flattens them into
// question/context/response training records.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/salesim/salesim/internal/dialogue"
)

// Save writes the batch as pretty-printed JSON, creating the directory if needed.
func Save(path string, convs []*dialogue.Conversation) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating transcript dir: %w", err)
	}
	data, err := marshalJSON(convs, "    ")
	if err != nil {
		return fmt.Errorf("encoding transcripts: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Load reads a batch saved by Save.
func Load(path string) ([]*dialogue.Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var convs []*dialogue.Conversation
	if err := json.Unmarshal(data, &convs); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return convs, nil
}

// marshalJSON keeps multi-byte text and the <|role|> markers literal instead of
// HTML-escaping them.
func marshalJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/salesim/salesim/internal/dialogue"
)

// TrainingRecord is one flattened line of the fine-tuning set. Exactly one of
// Question and Response is non-empty, depending on who spoke.
type TrainingRecord struct {
	Question string `json:"question"`
	Context  string `json:"context"`
	Response string `json:"response"`
}

// starterContext seeds the running context before any recorded line is appended.
const starterContext = "<|user|> Клієнт підключився до розмови.\n\n" +
	"<|assistant|> Вітаю! Я – ШІ школи усного рахунку «Соробан». Чи є у вас хвилинка поспілкуватися?"

// Older batches rendered the stop call inline; strip it wherever it appears.
var stopCallPattern = regexp.MustCompile(`stop_dialogue\(".*?"\)`)

// Flatten converts every conversation into training records with an incrementally
// accumulated context. The record for each line is built against the context as it
// stood before that line, then the line is appended for the next record.
func Flatten(convs []*dialogue.Conversation) []TrainingRecord {
	var out []TrainingRecord
	for _, conv := range convs {
		var context string
		for i, msg := range conv.Dialogue {
			text := strings.TrimSpace(stopCallPattern.ReplaceAllString(msg.Message, ""))

			// A second leading bot line is a duplicated greeting; drop it.
			if i == 1 && msg.Role == dialogue.SpeakerBot {
				continue
			}

			rec := TrainingRecord{Context: context}
			if msg.Role == dialogue.SpeakerClient {
				rec.Question = text
			} else {
				rec.Response = text
			}

			if i == 0 {
				context = starterContext
			}
			context += fmt.Sprintf("\n\n<|%s|> %s", msg.Role, text)

			if rec.Question != "" || rec.Response != "" {
				out = append(out, rec)
			}
		}
	}
	return out
}

// WriteJSONL writes one record per line.
func WriteJSONL(path string, records []TrainingRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating dataset dir: %w", err)
	}
	var b strings.Builder
	for _, rec := range records {
		line, err := marshalJSON(rec, "")
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		b.Write(line)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

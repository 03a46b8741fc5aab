// Package refine runs text-only rewrite passes over generated prompts and
// dialogues to make them read more naturally.
package refine

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/salesim/salesim/internal/dialogue"
	"github.com/salesim/salesim/internal/health"
	"github.com/salesim/salesim/internal/llmchat"
	"github.com/salesim/salesim/internal/persona"
)

const promptSystem = `Ти сценарист, який створює живих персонажів для діалогів.
Ти отримуєш початковий опис клієнта і маєш переписати його так, щоб він звучав максимально природно.

Важливо:
1. Пиши від першої особи (Я, Мені, У мене...).
2. Не змінюй зміст, тільки додавай живості.
3. Тон має відповідати стилю розмови персонажа (грубий, саркастичний, ввічливий тощо).
4. Відповідь має бути короткою, до 3-4 речень.`

const defaultDialogueSystem = `Ти редактор діалогів. Отримуєш діалог у форматі JSON-списку реплік
і переписуєш його так, щоб репліки звучали природно українською, зберігаючи зміст,
порядок і ролі. Відповідай лише JSON-списком того ж формату, без пояснень.`

// Refiner rewrites prompts and dialogues through a completer. Every failure falls
// back to the input, so a refine pass can only improve or preserve the data.
type Refiner struct {
	health.Ctx
	completer llmchat.Completer

	// DialogueSystem overrides the dialogue rewrite instructions when non-empty.
	DialogueSystem string
}

func NewRefiner(completer llmchat.Completer, logger *slog.Logger) *Refiner {
	return &Refiner{Ctx: health.NewCtx(logger), completer: completer}
}

// Prompts rewrites each prompt for naturalness. A failed completion keeps the
// original text.
func (r *Refiner) Prompts(ctx context.Context, prompts []persona.Prompt) []persona.Prompt {
	out := make([]persona.Prompt, len(prompts))
	for i, p := range prompts {
		out[i] = persona.Prompt{ID: p.ID, Text: r.refineText(ctx, promptSystem, p.Text)}
		r.Log("refine.prompt", "id", p.ID)
	}
	return out
}

// Dialogues polishes each conversation's lines. Conversations containing rendered
// function calls are passed through verbatim so the call JSON stays byte-exact.
func (r *Refiner) Dialogues(ctx context.Context, convs []*dialogue.Conversation) []*dialogue.Conversation {
	system := r.DialogueSystem
	if system == "" {
		system = defaultDialogueSystem
	}

	out := make([]*dialogue.Conversation, len(convs))
	for i, conv := range convs {
		out[i] = &dialogue.Conversation{ID: conv.ID, Dialogue: conv.Dialogue, Outcome: conv.Outcome}

		raw, err := json.Marshal(conv.Dialogue)
		if err != nil {
			continue
		}
		if strings.Contains(string(raw), "function_call") {
			r.Log("refine.dialogue.skipped", "id", conv.ID, "reason", "contains function call")
			continue
		}

		refined := r.refineText(ctx, system, string(raw))
		lines, ok := extractDialogue(refined)
		if !ok {
			r.Warn("refine.dialogue.unparseable, keeping original", "id", conv.ID)
			continue
		}
		out[i].Dialogue = lines
		r.Log("refine.dialogue", "id", conv.ID, "lines", len(lines))
	}
	return out
}

func (r *Refiner) refineText(ctx context.Context, system, text string) string {
	res, err := r.completer.Complete(ctx, []llmchat.Message{
		{Role: llmchat.RoleSystem, Text: system},
		{Role: llmchat.RoleUser, Text: text},
	}, nil)
	if err != nil || res.IsCall() || strings.TrimSpace(res.Text) == "" {
		return text
	}
	return strings.TrimSpace(res.Text)
}

// extractDialogue pulls the outermost JSON array out of a model reply that may wrap
// it in prose or a code fence.
func extractDialogue(text string) ([]dialogue.Message, bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, false
	}
	var lines []dialogue.Message
	if err := json.Unmarshal([]byte(text[start:end+1]), &lines); err != nil {
		return nil, false
	}
	return lines, true
}

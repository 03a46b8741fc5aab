// Package batch drives one conversation per client prompt and collects the results.
package batch

import (
	"context"
	"log/slog"

	"github.com/salesim/salesim/internal/dialogue"
	"github.com/salesim/salesim/internal/health"
	"github.com/salesim/salesim/internal/persona"
)

// Result is the outcome of one batch run.
type Result struct {
	Conversations []*dialogue.Conversation
	Total         int
	Successes     int
}

// Orchestrator runs a driver over a prompt list. Conversations are generated
// sequentially: each one holds a multi-turn exchange against a rate-limited API, so
// there is nothing to win by interleaving them.
type Orchestrator struct {
	health.Ctx
	driver *dialogue.Driver
}

func NewOrchestrator(driver *dialogue.Driver, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{Ctx: health.NewCtx(logger), driver: driver}
}

// Run drives one conversation per prompt, at most limit of them (no cap when limit
// <= 0). Conversations that produced no lines at all are dropped.
func (o *Orchestrator) Run(ctx context.Context, botPrompt string, prompts []persona.Prompt, limit int) Result {
	if limit > 0 && limit < len(prompts) {
		prompts = prompts[:limit]
	}

	var res Result
	for i, prompt := range prompts {
		o.Log("batch.dialogue.start", "index", i+1, "of", len(prompts), "client", prompt.ID)

		conv := o.driver.Run(ctx, botPrompt, prompt.Text)
		if len(conv.Dialogue) == 0 {
			o.Warn("batch.dialogue.empty, dropping", "client", prompt.ID)
			continue
		}

		res.Conversations = append(res.Conversations, conv)
		res.Total++
		if conv.Outcome == dialogue.OutcomeSuccess {
			res.Successes++
		}
	}

	o.Log("batch.finished", "total", res.Total, "successes", res.Successes)
	return res
}

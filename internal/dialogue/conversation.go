// Package dialogue drives one simulated sales conversation turn-by-turn: it
// interleaves bot and client completions, applies the intent classifiers, dispatches
// the bot's declared function calls, and terminates according to a fixed policy.
package dialogue

// Speaker identifies which side of the conversation produced a transcript line.
type Speaker string

const (
	SpeakerBot    Speaker = "sales_bot"
	SpeakerClient Speaker = "client"
)

// Message is one transcript line. Messages are append-only and ordered.
type Message struct {
	Role    Speaker `json:"role"`
	Message string  `json:"message"`
}

// Outcome is the terminal classification of a conversation.
type Outcome string

const (
	// OutcomePending is only observable while the driver is still running.
	OutcomePending Outcome = "pending"

	OutcomeSuccess Outcome = "success"
	OutcomeNoSale  Outcome = "ended_without_success"
)

// Conversation is the persisted product of one driver run. It is mutated only by the
// driver and is immutable once returned.
type Conversation struct {
	ID       string    `json:"conversation_id"`
	Dialogue []Message `json:"dialogue"`
	Outcome  Outcome   `json:"outcome"`
}

func (c *Conversation) appendLine(speaker Speaker, text string) {
	c.Dialogue = append(c.Dialogue, Message{Role: speaker, Message: text})
}

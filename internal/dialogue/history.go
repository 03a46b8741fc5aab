package dialogue

import "github.com/salesim/salesim/internal/llmchat"

// history is the single canonical record of everything said in a conversation. The
// two role contexts the completion service sees are projections of it: what the bot
// said is "assistant" from the bot's point of view and "user" from the client's, and
// vice versa. Deriving both views from one log makes it impossible for the two sides
// to disagree about the event sequence.
type history struct {
	botSystem    string
	clientSystem string
	events       []event
}

type event struct {
	speaker Speaker
	text    string
}

func newHistory(botSystem, clientSystem string) *history {
	return &history{botSystem: botSystem, clientSystem: clientSystem}
}

func (h *history) append(speaker Speaker, text string) {
	h.events = append(h.events, event{speaker: speaker, text: text})
}

// botContext renders the log as the sales bot sees it.
func (h *history) botContext() []llmchat.Message {
	return h.project(h.botSystem, SpeakerBot)
}

// clientContext renders the log as the simulated client sees it.
func (h *history) clientContext() []llmchat.Message {
	return h.project(h.clientSystem, SpeakerClient)
}

func (h *history) project(system string, self Speaker) []llmchat.Message {
	msgs := make([]llmchat.Message, 0, len(h.events)+1)
	msgs = append(msgs, llmchat.Message{Role: llmchat.RoleSystem, Text: system})
	for _, ev := range h.events {
		role := llmchat.RoleUser
		if ev.speaker == self {
			role = llmchat.RoleAssistant
		}
		msgs = append(msgs, llmchat.Message{Role: role, Text: ev.text})
	}
	return msgs
}

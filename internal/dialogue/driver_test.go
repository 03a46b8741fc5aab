package dialogue

import (
	"context"
	"errors"
	"testing"

	"github.com/salesim/salesim/internal/llmchat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const neutralReply = "Розкажіть, будь ласка, детальніше."

const testBotPrompt = "Ти — менеджер з продажу школи «Соробан»."
const testPersona = "Мене звати Іван, мені 35 років."

func runDriver(t *testing.T, cfg Config, steps ...llmchat.Step) (*Conversation, *llmchat.ScriptedCompleter) {
	t.Helper()
	completer := llmchat.NewScriptedCompleter(steps...)
	driver := NewDriver(completer, cfg, nil)
	conv := driver.Run(context.Background(), testBotPrompt, testPersona)
	require.NotNil(t, conv)
	return conv, completer
}

func roles(conv *Conversation) []Speaker {
	out := make([]Speaker, len(conv.Dialogue))
	for i, m := range conv.Dialogue {
		out[i] = m.Role
	}
	return out
}

func TestTurnBoundRespected(t *testing.T) {
	// Three exchange pairs of neutral text: the loop must end after exactly three,
	// with no success or goodbye outcome.
	steps := []llmchat.Step{llmchat.TextStep(neutralReply)} // first client reply
	for i := 0; i < 3; i++ {
		steps = append(steps, llmchat.TextStep(neutralReply), llmchat.TextStep(neutralReply))
	}

	conv, completer := runDriver(t, Config{Exchanges: 3}, steps...)

	assert.Equal(t, OutcomeNoSale, conv.Outcome)
	assert.Equal(t, 0, completer.Remaining(), "every scripted completion must be consumed")
	require.Len(t, conv.Dialogue, 8) // greeting + first reply + 3*(bot+client)
	assert.Equal(t, Greeting, conv.Dialogue[0].Message)
	assert.Equal(t,
		[]Speaker{SpeakerBot, SpeakerClient, SpeakerBot, SpeakerClient, SpeakerBot, SpeakerClient, SpeakerBot, SpeakerClient},
		roles(conv))

	// Bot turns carry the function schemas; client turns never do.
	calls := completer.Calls()
	require.Len(t, calls, 7)
	for i, call := range calls {
		wantTools := i%2 == 1 // calls alternate client, bot, client, bot, ...
		assert.Equal(t, wantTools, call.HadTools, "call %d", i)
	}
}

func TestGoodbyeTakesPrecedenceOverSuccess(t *testing.T) {
	conv, _ := runDriver(t, Config{},
		llmchat.TextStep("До побачення, хоча я хочу спробувати."))

	assert.Equal(t, OutcomeNoSale, conv.Outcome)
	require.Len(t, conv.Dialogue, 3)
	assert.Equal(t, closingGoodbye, conv.Dialogue[2].Message)
}

func TestFirstReplySuccess(t *testing.T) {
	conv, _ := runDriver(t, Config{},
		llmchat.TextStep("Так, згоден, запишіть нас."))

	assert.Equal(t, OutcomeSuccess, conv.Outcome)
	require.Len(t, conv.Dialogue, 3)
	assert.Equal(t, closingFirstSuccess, conv.Dialogue[2].Message)
}

func TestSuccessInMainLoop(t *testing.T) {
	conv, _ := runDriver(t, Config{Exchanges: 5},
		llmchat.TextStep(neutralReply),            // first reply
		llmchat.TextStep("Це чудова методика!"),   // bot
		llmchat.TextStep("Добре, хочу спробувати"), // client commits
	)

	assert.Equal(t, OutcomeSuccess, conv.Outcome)
	assert.Equal(t, closingSuccess, conv.Dialogue[len(conv.Dialogue)-1].Message)
}

func TestSingleRefusalDoesNotTerminate(t *testing.T) {
	conv, _ := runDriver(t, Config{Exchanges: 1},
		llmchat.TextStep("Мені це не цікаво."), // refusal #1
		llmchat.TextStep(neutralReply),         // bot
		llmchat.TextStep(neutralReply),         // client, neutral
	)

	assert.Equal(t, OutcomeNoSale, conv.Outcome)
	// No closing line: the loop ran out of turns, nothing terminated it.
	assert.Equal(t, SpeakerClient, conv.Dialogue[len(conv.Dialogue)-1].Role)
	assert.Equal(t, neutralReply, conv.Dialogue[len(conv.Dialogue)-1].Message)
}

func TestSecondRefusalTerminates(t *testing.T) {
	conv, _ := runDriver(t, Config{Exchanges: 5},
		llmchat.TextStep("Мені це не цікаво."), // refusal #1
		llmchat.TextStep(neutralReply),         // bot
		llmchat.TextStep("Ні, дякую."),         // refusal #2
	)

	assert.Equal(t, OutcomeNoSale, conv.Outcome)
	// The closing line keeps the typographic apostrophe in "зв’язку".
	assert.Equal(t, "Зрозуміло, дякую за ваш час! Якщо зміните думку, ми завжди на зв’язку. Успіхів!",
		conv.Dialogue[len(conv.Dialogue)-1].Message)
}

func TestNonConsecutiveRefusalsStillCount(t *testing.T) {
	conv, _ := runDriver(t, Config{Exchanges: 5},
		llmchat.TextStep("Не маю часу."),  // refusal #1
		llmchat.TextStep(neutralReply),    // bot
		llmchat.TextStep(neutralReply),    // client, neutral
		llmchat.TextStep(neutralReply),    // bot
		llmchat.TextStep("не потрібно"),   // refusal #2, two turns later
	)

	assert.Equal(t, OutcomeNoSale, conv.Outcome)
	assert.Equal(t, closingRefusal, conv.Dialogue[len(conv.Dialogue)-1].Message)
}

func TestPriceInquiryIsNonTerminal(t *testing.T) {
	conv, _ := runDriver(t, Config{Exchanges: 2},
		llmchat.TextStep("Скільки коштує?"),    // price inquiry only
		llmchat.TextStep(neutralReply),         // bot
		llmchat.TextStep("Мені це не цікаво."), // refusal #1 — must be the first, not the second
		llmchat.TextStep(neutralReply),         // bot
		llmchat.TextStep(neutralReply),         // client
	)

	// If the inquiry had been counted as a refusal, the conversation would have
	// ended with the refusal closing line instead of running out of turns.
	assert.Equal(t, OutcomeNoSale, conv.Outcome)
	assert.Equal(t, neutralReply, conv.Dialogue[len(conv.Dialogue)-1].Message)
	assert.Equal(t, SpeakerClient, conv.Dialogue[len(conv.Dialogue)-1].Role)
}

func TestBotPriceUtteranceDispatchesToo(t *testing.T) {
	t.Run("direct mode stays non-terminal", func(t *testing.T) {
		conv, completer := runDriver(t, Config{Exchanges: 1},
			llmchat.TextStep(neutralReply),                         // first reply
			llmchat.TextStep("Скільки коштує? Зараз розповім."),    // bot quotes the question
			llmchat.TextStep(neutralReply),                         // client
		)

		assert.Equal(t, OutcomeNoSale, conv.Outcome)
		assert.Equal(t, 0, completer.Remaining())
		require.Len(t, conv.Dialogue, 4)
		assert.Equal(t, SpeakerClient, conv.Dialogue[3].Role)
	})

	t.Run("elicit mode asks for details", func(t *testing.T) {
		conv, _ := runDriver(t, Config{Exchanges: 1, PriceMode: PriceModeElicit},
			llmchat.TextStep(neutralReply),                         // first reply
			llmchat.TextStep("Скільки коштує? Зараз розповім."),    // bot quotes the question
			llmchat.TextStep("Львів, офлайн."),                     // elicitation answer
			llmchat.TextStep(neutralReply),                         // client
		)

		assert.Equal(t, OutcomeNoSale, conv.Outcome)
		require.Len(t, conv.Dialogue, 6)
		assert.Equal(t, askPriceDetails, conv.Dialogue[3].Message)
		assert.Equal(t, "Львів, офлайн.", conv.Dialogue[4].Message)
	})
}

func TestPriceInquiryElicitMode(t *testing.T) {
	conv, _ := runDriver(t, Config{Exchanges: 1, PriceMode: PriceModeElicit},
		llmchat.TextStep("Скільки коштує?"), // first reply
		llmchat.TextStep("Київ, онлайн."),   // answer to the elicitation question
		llmchat.TextStep(neutralReply),      // bot
		llmchat.TextStep(neutralReply),      // client
	)

	assert.Equal(t, OutcomeNoSale, conv.Outcome)
	require.Len(t, conv.Dialogue, 6)
	assert.Equal(t, askPriceDetails, conv.Dialogue[2].Message)
	assert.Equal(t, "Київ, онлайн.", conv.Dialogue[3].Message)
}

func TestModelStopCallEndsConversation(t *testing.T) {
	conv, _ := runDriver(t, Config{Exchanges: 5},
		llmchat.TextStep(neutralReply),
		llmchat.CallStep("stop_dialogue", `{"reason":"розмову вичерпано"}`),
	)

	assert.Equal(t, OutcomeNoSale, conv.Outcome)
	// The stop call itself is not rendered into the transcript.
	require.Len(t, conv.Dialogue, 2)
	assert.Equal(t, SpeakerClient, conv.Dialogue[1].Role)
}

func TestGetPriceCallIsRenderedAndLoopContinues(t *testing.T) {
	conv, _ := runDriver(t, Config{Exchanges: 1},
		llmchat.TextStep(neutralReply),
		llmchat.CallStep("get_price", `{"city":"Kyiv","online":true}`),
		llmchat.TextStep(neutralReply),
	)

	assert.Equal(t, OutcomeNoSale, conv.Outcome)
	require.Len(t, conv.Dialogue, 4)
	assert.Equal(t, SpeakerBot, conv.Dialogue[2].Role)
	assert.Equal(t, `{"function_call":{"name":"get_price","arguments":{"city":"Kyiv","online":true}}}`, conv.Dialogue[2].Message)
}

func TestUnknownFunctionCallContinuesWithoutLine(t *testing.T) {
	conv, _ := runDriver(t, Config{Exchanges: 1},
		llmchat.TextStep(neutralReply),
		llmchat.CallStep("fly_to_moon", `{}`),
		llmchat.TextStep(neutralReply),
	)

	assert.Equal(t, OutcomeNoSale, conv.Outcome)
	// The unknown call contributes no transcript line but the client turn still runs.
	assert.Equal(t, []Speaker{SpeakerBot, SpeakerClient, SpeakerClient}, roles(conv))
}

func TestBotGoodbyeTextTerminates(t *testing.T) {
	conv, _ := runDriver(t, Config{Exchanges: 5},
		llmchat.TextStep(neutralReply),
		llmchat.TextStep("Гарного дня, до побачення!"),
	)

	assert.Equal(t, OutcomeNoSale, conv.Outcome)
	require.Len(t, conv.Dialogue, 3)
	assert.Equal(t, "Гарного дня, до побачення!", conv.Dialogue[2].Message)
}

func TestCompletionFailureEndsConversationEarly(t *testing.T) {
	t.Run("first client turn fails", func(t *testing.T) {
		conv, _ := runDriver(t, Config{},
			llmchat.ErrStep(errors.New("service unavailable")))

		assert.Equal(t, OutcomeNoSale, conv.Outcome)
		require.Len(t, conv.Dialogue, 1) // greeting only
	})

	t.Run("bot turn fails mid-loop", func(t *testing.T) {
		conv, _ := runDriver(t, Config{Exchanges: 5},
			llmchat.TextStep(neutralReply),
			llmchat.ErrStep(errors.New("service unavailable")))

		assert.Equal(t, OutcomeNoSale, conv.Outcome)
		require.Len(t, conv.Dialogue, 2)
	})
}

func TestCollectSignupDetails(t *testing.T) {
	conv, _ := runDriver(t, Config{CollectSignupDetails: true},
		llmchat.TextStep("Так, хочу, запишіть."), // first reply commits
		llmchat.TextStep("Харків"),
		llmchat.TextStep("Марійка"),
		llmchat.TextStep("380671234567"),
	)

	assert.Equal(t, OutcomeSuccess, conv.Outcome)
	require.Len(t, conv.Dialogue, 9)
	assert.Equal(t, askCity, conv.Dialogue[2].Message)
	assert.Equal(t, "Харків", conv.Dialogue[3].Message)
	assert.Equal(t, askChildName, conv.Dialogue[4].Message)
	assert.Equal(t, askPhone, conv.Dialogue[6].Message)
	assert.Equal(t, closingFirstSuccess, conv.Dialogue[8].Message)
}

// Two back-to-back runs must not share any state: persona B starts with a fresh stop
// flag and a refusal counter of zero.
func TestConversationScopedIsolation(t *testing.T) {
	completer := llmchat.NewScriptedCompleter(
		// Conversation A: two refusals, terminated.
		llmchat.TextStep("Мені це не цікаво."),
		llmchat.TextStep(neutralReply),
		llmchat.TextStep("Ні, дякую."),
		// Conversation B: one refusal, must NOT terminate.
		llmchat.TextStep("Мені це не цікаво."),
		llmchat.TextStep(neutralReply),
		llmchat.TextStep(neutralReply),
	)
	driver := NewDriver(completer, Config{Exchanges: 1}, nil)

	convA := driver.Run(context.Background(), testBotPrompt, "персона А")
	convB := driver.Run(context.Background(), testBotPrompt, "персона Б")

	assert.Equal(t, closingRefusal, convA.Dialogue[len(convA.Dialogue)-1].Message)

	// B inherited neither A's refusal count nor its stop flag: it ran out of turns
	// without terminating.
	assert.Equal(t, OutcomeNoSale, convB.Outcome)
	assert.Equal(t, neutralReply, convB.Dialogue[len(convB.Dialogue)-1].Message)
	assert.NotEqual(t, convA.ID, convB.ID)
}

func TestRoleContextsMirrorEachOther(t *testing.T) {
	h := newHistory("bot system", "client system")
	h.append(SpeakerBot, "привіт")
	h.append(SpeakerClient, "слухаю")
	h.append(SpeakerBot, "розповім про курс")

	bot := h.botContext()
	client := h.clientContext()

	require.Len(t, bot, 4)
	require.Len(t, client, 4)

	assert.Equal(t, llmchat.RoleSystem, bot[0].Role)
	assert.Equal(t, "bot system", bot[0].Text)
	assert.Equal(t, "client system", client[0].Text)

	// Same event sequence, mirrored roles.
	for i := 1; i < len(bot); i++ {
		assert.Equal(t, bot[i].Text, client[i].Text, "event %d", i)
		if bot[i].Role == llmchat.RoleAssistant {
			assert.Equal(t, llmchat.RoleUser, client[i].Role)
		} else {
			assert.Equal(t, llmchat.RoleAssistant, client[i].Role)
		}
	}
}

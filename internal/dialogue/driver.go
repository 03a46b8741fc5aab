package dialogue

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/salesim/salesim/internal/health"
	"github.com/salesim/salesim/internal/intent"
	"github.com/salesim/salesim/internal/llmchat"
)

// Greeting is the fixed opening line the bot speaks before the first client turn.
const Greeting = "Вітаю! Я – Штучний інтелект школи усного рахунку «Соробан». Чи є у вас хвилинка поспілкуватися?"

const clientSystemPrefix = "Ти — звичайний клієнт. Ось твій опис: "

// Closing lines spoken by the termination branches. The stop_dialogue call itself is
// never rendered into the transcript; these lines are its visible effect.
const (
	closingGoodbye      = "Дякую, успіхів і до побачення!"
	closingFirstSuccess = "Чудово! Записую вас. Дякую за довіру, до зустрічі!"
	closingSuccess      = "Чудово, тоді оформимо запис! Дякую за вибір нашого курсу. До зустрічі!"
	closingRefusal      = "Зрозуміло, дякую за ваш час! Якщо зміните думку, ми завжди на зв’язку. Успіхів!"
)

// Stop reasons recorded by the termination branches.
const (
	reasonFirstReplyGoodbye = "клієнт одразу сказав «до побачення»"
	reasonFirstReplySuccess = "успіх з першої ж репліки"
	reasonBotGoodbye        = "бот сказав до побачення"
	reasonClientGoodbye     = "клієнт сказав до побачення"
	reasonSuccess           = "успіх"
	reasonSecondRefusal     = "друга відмова"
)

// Elicitation questions for the optional extra exchanges.
const (
	askPriceDetails = "Підкажіть, будь ласка, ваше місто та чи зручний вам онлайн-формат?"
	askCity         = "Підкажіть, будь ласка, з якого ви міста?"
	askChildName    = "Як звати вашу дитину?"
	askPhone        = "Залиште, будь ласка, номер телефону для запису."
)

// PriceMode selects how a detected price inquiry is handled. Either way the inquiry
// never terminates the conversation and never feeds the refusal or success counters.
type PriceMode string

const (
	// PriceModeDirect dispatches get_price with default parameters immediately.
	PriceModeDirect PriceMode = "direct"

	// PriceModeElicit inserts one extra bot→client exchange asking for city and
	// format before dispatching.
	PriceModeElicit PriceMode = "elicit"
)

// DefaultExchanges bounds the main loop when Config.Exchanges is unset.
const DefaultExchanges = 10

type Config struct {
	// Exchanges is the maximum number of bot/client exchange pairs in the main loop.
	Exchanges int

	PriceMode PriceMode

	// CollectSignupDetails inserts single-field elicitation exchanges (city, child
	// name, phone) before sign_for_promo is dispatched. Fields that stay unknown
	// fall back to defaults; collection never blocks termination.
	CollectSignupDetails bool
}

// Driver runs one simulated conversation start to finish. It is stateless across
// runs: all per-conversation state (transcript, contexts, stop flag, refusal counter)
// lives in the run and is discarded with it.
type Driver struct {
	health.Ctx
	completer llmchat.Completer
	cfg       Config
	schemas   []llmchat.FunctionSchema
}

func NewDriver(completer llmchat.Completer, cfg Config, logger *slog.Logger) *Driver {
	if cfg.Exchanges <= 0 {
		cfg.Exchanges = DefaultExchanges
	}
	if cfg.PriceMode == "" {
		cfg.PriceMode = PriceModeDirect
	}
	return &Driver{
		Ctx:       health.NewCtx(logger),
		completer: completer,
		cfg:       cfg,
		schemas:   FunctionSchemas(),
	}
}

// run holds the mutable state of one conversation.
type run struct {
	*Driver
	ctx      context.Context
	conv     *Conversation
	hist     *history
	disp     *Dispatcher
	refusals int
}

// Run drives one conversation for the given persona description. A completion
// failure ends the conversation early with whatever outcome accumulated so far; Run
// never returns an error for that, only for the batch to observe via the outcome.
func (d *Driver) Run(ctx context.Context, botPrompt, personaText string) *Conversation {
	r := &run{
		Driver: d,
		ctx:    ctx,
		conv:   &Conversation{ID: uuid.NewString(), Outcome: OutcomePending},
		hist:   newHistory(botPrompt, clientSystemPrefix+personaText),
		disp:   NewDispatcher(d.Logger),
	}

	// Greeting phase: fixed opening line, then the client's first reply, classified
	// before the main loop begins. Precedence: goodbye > success > refusal.
	r.say(SpeakerBot, Greeting)

	firstReply, err := r.clientTurn()
	if err != nil {
		return r.finish()
	}
	if err := r.handlePriceInquiry(firstReply); err != nil {
		return r.finish()
	}
	switch {
	case intent.IsGoodbye(firstReply):
		r.terminate(closingGoodbye, reasonFirstReplyGoodbye, OutcomeNoSale)
		return r.finish()
	case intent.IsSuccess(firstReply):
		r.succeed(closingFirstSuccess, reasonFirstReplySuccess)
		return r.finish()
	case intent.IsRefusal(firstReply):
		r.refusals++
	}

	r.exchangeLoop()
	return r.finish()
}

// exchangeLoop is the EXCHANGING state: alternating bot and client turns, bounded by
// the configured exchange count.
func (r *run) exchangeLoop() {
	for i := 0; i < r.cfg.Exchanges; i++ {
		res, err := r.completer.Complete(r.ctx, r.hist.botContext(), r.schemas)
		if err != nil {
			return
		}

		var botLine string
		if res.IsCall() {
			dr := r.disp.Dispatch(*res.Call)
			if dr.Stopped || dr.AlreadyStopped {
				// The model ended the conversation itself; outcome keeps whatever
				// value accumulated so far.
				return
			}
			botLine = dr.Rendered
		} else {
			botLine = res.Text
		}

		if intent.IsGoodbye(botLine) {
			r.conv.appendLine(SpeakerBot, botLine)
			r.stop(reasonBotGoodbye)
			return
		}

		// The history records the turn even when the visible line is empty (unknown
		// function, empty completion) so both role contexts stay paired.
		if botLine != "" {
			r.conv.appendLine(SpeakerBot, botLine)
		}
		r.hist.append(SpeakerBot, botLine)

		// Price inquiries are detected on both sides; only text bot turns are
		// checked, rendered call JSON is not an utterance.
		if !res.IsCall() {
			if err := r.handlePriceInquiry(botLine); err != nil {
				return
			}
		}

		clientReply, err := r.clientTurn()
		if err != nil {
			return
		}
		if err := r.handlePriceInquiry(clientReply); err != nil {
			return
		}

		switch {
		case intent.IsGoodbye(clientReply):
			r.terminate(closingGoodbye, reasonClientGoodbye, OutcomeNoSale)
			return
		case intent.IsSuccess(clientReply):
			r.succeed(closingSuccess, reasonSuccess)
			return
		case intent.IsRefusal(clientReply):
			r.refusals++
			if r.refusals >= 2 {
				r.terminate(closingRefusal, reasonSecondRefusal, OutcomeNoSale)
				return
			}
		}
	}
}

// say appends a line to the transcript and records it in the canonical history.
func (r *run) say(speaker Speaker, text string) {
	r.conv.appendLine(speaker, text)
	r.hist.append(speaker, text)
}

// clientTurn requests one text-only client completion and records the reply.
func (r *run) clientTurn() (string, error) {
	res, err := r.completer.Complete(r.ctx, r.hist.clientContext(), nil)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(res.Text)
	if res.IsCall() {
		r.Warn("client completion declared a function call; ignoring", "name", res.Call.Name)
		text = ""
	}
	r.say(SpeakerClient, text)
	return text, nil
}

// handlePriceInquiry dispatches get_price when text asks about cost. Non-terminal by
// policy: it touches neither the outcome nor the refusal counter.
func (r *run) handlePriceInquiry(text string) error {
	if !intent.IsPriceInquiry(text) {
		return nil
	}
	if r.cfg.PriceMode == PriceModeElicit {
		r.say(SpeakerBot, askPriceDetails)
		if _, err := r.clientTurn(); err != nil {
			return err
		}
	}
	args, _ := json.Marshal(priceArgs{City: DefaultCity, Online: false})
	r.disp.Dispatch(llmchat.FunctionCall{Name: string(FuncGetPrice), Arguments: string(args)})
	return nil
}

// terminate appends the closing line, executes the stop, and fixes the outcome.
func (r *run) terminate(closing, reason string, outcome Outcome) {
	r.conv.appendLine(SpeakerBot, closing)
	r.stop(reason)
	r.conv.Outcome = outcome
}

// succeed registers the lead and terminates with a success outcome.
func (r *run) succeed(closing, reason string) {
	args := r.collectSignup()
	r.conv.appendLine(SpeakerBot, closing)

	promoJSON, _ := json.Marshal(args)
	r.disp.Dispatch(llmchat.FunctionCall{Name: string(FuncSignForPromo), Arguments: string(promoJSON)})
	r.stop(reason)
	r.conv.Outcome = OutcomeSuccess
}

// collectSignup optionally elicits city, child name, and phone with one question
// each. Unanswered fields keep their defaults; a failed completion just stops the
// questioning, it never blocks the sign-up.
func (r *run) collectSignup() promoArgs {
	args := promoArgs{City: DefaultCity, ChildName: DefaultChildName, Phone: DefaultPhone}
	if !r.cfg.CollectSignupDetails {
		return args
	}

	fields := []struct {
		question string
		dst      *string
	}{
		{askCity, &args.City},
		{askChildName, &args.ChildName},
		{askPhone, &args.Phone},
	}
	for _, f := range fields {
		r.say(SpeakerBot, f.question)
		answer, err := r.clientTurn()
		if err != nil {
			break
		}
		if answer != "" {
			*f.dst = answer
		}
	}
	return args
}

func (r *run) stop(reason string) {
	argsJSON, _ := json.Marshal(stopArgs{Reason: reason})
	r.disp.Dispatch(llmchat.FunctionCall{Name: string(FuncStopDialogue), Arguments: string(argsJSON)})
}

func (r *run) finish() *Conversation {
	if r.conv.Outcome == OutcomePending {
		r.conv.Outcome = OutcomeNoSale
	}
	r.Log("conversation.finished",
		"id", r.conv.ID,
		"outcome", string(r.conv.Outcome),
		"lines", len(r.conv.Dialogue),
		"refusals", r.refusals,
		"stop_reason", r.disp.StopReason())
	return r.conv
}

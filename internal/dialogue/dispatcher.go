package dialogue

import (
	"encoding/json"
	"log/slog"

	"github.com/salesim/salesim/internal/health"
	"github.com/salesim/salesim/internal/llmchat"
)

// Dispatch is the outcome of routing one model-declared function call.
type Dispatch struct {
	Name FuncName

	// Stopped is true when this call executed stop_dialogue for the first time.
	Stopped bool

	// AlreadyStopped is true when stop_dialogue was re-issued after the flag was set;
	// the call was a no-op.
	AlreadyStopped bool

	// Unhandled is true for unknown function names. The driver continues as if no
	// call was made.
	Unhandled bool

	// Rendered is the canonical JSON text shown in the transcript. Empty for
	// stop_dialogue and unhandled calls.
	Rendered string
}

// Dispatcher routes function calls to their handlers. It owns the stop flag, which is
// strictly conversation-scoped: one Dispatcher is created per conversation and
// discarded with it, so a stop in one conversation can never leak into the next.
type Dispatcher struct {
	health.Ctx
	stopped    bool
	stopReason string
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{Ctx: health.NewCtx(logger)}
}

// Stopped reports whether stop_dialogue has executed in this conversation.
func (d *Dispatcher) Stopped() bool {
	return d.stopped
}

// StopReason returns the reason recorded by the first stop_dialogue execution.
func (d *Dispatcher) StopReason() string {
	return d.stopReason
}

// Dispatch routes call to its handler and returns the canonical result. Malformed
// argument payloads are logged and fail closed onto defaults; unknown names are
// logged and reported as Unhandled, never silently swallowed.
func (d *Dispatcher) Dispatch(call llmchat.FunctionCall) Dispatch {
	switch FuncName(call.Name) {
	case FuncStopDialogue:
		var args stopArgs
		d.parseArgs(call, &args)
		return d.stop(args.Reason)

	case FuncGetPrice:
		var args priceArgs
		d.parseArgs(call, &args)
		if args.City == "" {
			args.City = DefaultCity
		}
		d.Log("get_price", "city", args.City, "online", args.Online)
		return Dispatch{Name: FuncGetPrice, Rendered: renderCall(FuncGetPrice, args)}

	case FuncSignForPromo:
		var args promoArgs
		d.parseArgs(call, &args)
		if args.City == "" {
			args.City = DefaultCity
		}
		if args.ChildName == "" {
			args.ChildName = DefaultChildName
		}
		if args.Phone == "" {
			args.Phone = DefaultPhone
		}
		d.Log("sign_for_promo", "city", args.City, "child_name", args.ChildName, "phone", args.Phone)
		return Dispatch{Name: FuncSignForPromo, Rendered: renderCall(FuncSignForPromo, args)}

	default:
		d.Warn("unhandled function call", "name", call.Name)
		return Dispatch{Name: FuncName(call.Name), Unhandled: true}
	}
}

// stop sets the stop flag at most once. Re-issued stops are no-ops so redundant
// stop_dialogue calls from the model cannot double-execute termination side effects.
func (d *Dispatcher) stop(reason string) Dispatch {
	if d.stopped {
		d.Log("stop_dialogue.already_stopped", "reason", reason)
		return Dispatch{Name: FuncStopDialogue, AlreadyStopped: true}
	}
	d.stopped = true
	d.stopReason = reason
	d.Log("stop_dialogue", "reason", reason)
	return Dispatch{Name: FuncStopDialogue, Stopped: true}
}

func (d *Dispatcher) parseArgs(call llmchat.FunctionCall, into any) {
	raw := call.Arguments
	if raw == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), into); err != nil {
		d.Warn("malformed function-call arguments; using defaults",
			"name", call.Name, "arguments", call.Arguments, "err", err.Error())
	}
}

package llmchat

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// KeywordCompleter replies with the value for any key contained in the last user
// message. Useful for wiring demos and coarse-grained tests.
type KeywordCompleter struct {
	responses map[string]string
}

var _ Completer = (*KeywordCompleter)(nil)

func NewKeywordCompleter(responses map[string]string) *KeywordCompleter {
	return &KeywordCompleter{responses: responses}
}

func (c *KeywordCompleter) Complete(_ context.Context, msgs []Message, _ []FunctionSchema) (Result, error) {
	if len(msgs) == 0 {
		return Result{}, fmt.Errorf("empty context")
	}
	last := msgs[len(msgs)-1]
	lower := strings.ToLower(last.Text)
	for k, resp := range c.responses {
		if strings.Contains(lower, strings.ToLower(k)) {
			return Result{Text: resp}, nil
		}
	}
	return Result{}, fmt.Errorf("no mock response for %q", last.Text)
}

// Step is one scripted completion: either a Result or an error.
type Step struct {
	Result Result
	Err    error
}

// ScriptedCompleter returns queued steps in order. Once the script is exhausted every
// further call fails, which surfaces missing expectations in tests immediately.
type ScriptedCompleter struct {
	mu    sync.Mutex
	steps []Step
	calls []CallRecord
}

// CallRecord captures one Complete invocation for later assertions.
type CallRecord struct {
	Context  []Message
	HadTools bool
}

var _ Completer = (*ScriptedCompleter)(nil)

func NewScriptedCompleter(steps ...Step) *ScriptedCompleter {
	return &ScriptedCompleter{steps: steps}
}

// TextStep is shorthand for a plain-text scripted reply.
func TextStep(text string) Step {
	return Step{Result: Result{Text: text}}
}

// CallStep is shorthand for a scripted function-call reply.
func CallStep(name, argumentsJSON string) Step {
	return Step{Result: Result{Call: &FunctionCall{Name: name, Arguments: argumentsJSON}}}
}

// ErrStep is shorthand for a scripted failure.
func ErrStep(err error) Step {
	return Step{Err: err}
}

func (c *ScriptedCompleter) Complete(_ context.Context, msgs []Message, tools []FunctionSchema) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctxCopy := make([]Message, len(msgs))
	copy(ctxCopy, msgs)
	c.calls = append(c.calls, CallRecord{Context: ctxCopy, HadTools: len(tools) > 0})

	if len(c.steps) == 0 {
		return Result{}, fmt.Errorf("scripted completer exhausted after %d calls", len(c.calls))
	}
	step := c.steps[0]
	c.steps = c.steps[1:]
	return step.Result, step.Err
}

// Calls returns a snapshot of every Complete invocation so far.
func (c *ScriptedCompleter) Calls() []CallRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CallRecord, len(c.calls))
	copy(out, c.calls)
	return out
}

// Remaining reports how many scripted steps were never consumed.
func (c *ScriptedCompleter) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.steps)
}

// Package llmchat is a barebones abstraction over chat completions for the two roles
// the dialogue driver plays: the sales bot (which may answer with a function call) and
// the simulated client (plain text only). It purposefully supports nothing beyond what
// those two call sites need: role-tagged message contexts, optional function schemas,
// and a single bounded retry.
package llmchat

import "context"

type Role int

const (
	RoleSystem Role = iota
	RoleUser
	RoleAssistant
)

// String returns the string representation of the Role.
func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "System"
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	default:
		return "Unknown"
	}
}

type Message struct {
	Role Role
	Text string
}

// FunctionSchema describes one function the bot role may call.
//
// Parameters holds only the named arguments, each a JSON-Schema property object:
//
//	{"city": {"type": "string", "description": "..."}, "online": {"type": "boolean", ...}}
//
// The enclosing {"type": "object", "properties": ..., "required": ...} wrapper is
// added when the schema is sent to the provider.
type FunctionSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
	Required    []string
}

// FunctionCall is a structured call the model declared instead of free text.
// Arguments is the raw JSON object string as the provider returned it.
type FunctionCall struct {
	Name      string
	Arguments string
}

// Result is a tagged union: exactly one of Text or Call is meaningful. Call != nil
// means the model declared a function call.
type Result struct {
	Text string
	Call *FunctionCall
}

func (r Result) IsCall() bool {
	return r.Call != nil
}

// Completer issues one completion over a role-tagged context. tools may be nil for
// text-only turns. Implementations own their retry policy: a returned error means the
// request ultimately failed and the caller should give up on this conversation.
type Completer interface {
	Complete(ctx context.Context, msgs []Message, tools []FunctionSchema) (Result, error)
}

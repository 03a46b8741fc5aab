package dialogue

import (
	"encoding/json"

	"github.com/salesim/salesim/internal/llmchat"
)

// FuncName enumerates the closed set of functions the bot role may call.
type FuncName string

const (
	FuncStopDialogue FuncName = "stop_dialogue"
	FuncGetPrice     FuncName = "get_price"
	FuncSignForPromo FuncName = "sign_for_promo"
)

// Defaults for arguments the model omitted or mangled. Dispatch fails closed by
// substituting these rather than rejecting the call.
const (
	DefaultCity      = "Dnipro"
	DefaultChildName = "Нонейм"
	DefaultPhone     = "12345678"
)

// FunctionSchemas returns the three schemas passed on every bot turn. The driver
// relies on the declared parameter order below when rendering canonical JSON.
func FunctionSchemas() []llmchat.FunctionSchema {
	return []llmchat.FunctionSchema{
		{
			Name:        string(FuncStopDialogue),
			Description: "Завершує поточний діалог, коли клієнт попрощався, двічі відмовився або запис оформлено.",
			Parameters: map[string]any{
				"reason": map[string]any{"type": "string", "description": "Причина завершення діалогу"},
			},
			Required: []string{"reason"},
		},
		{
			Name:        string(FuncGetPrice),
			Description: "Повертає вартість занять з урахуванням міста і формату (online чи офлайн).",
			Parameters: map[string]any{
				"city":   map[string]any{"type": "string", "description": "Місто (англійською)"},
				"online": map[string]any{"type": "boolean", "description": "Чи онлайн формат"},
			},
			Required: []string{"city", "online"},
		},
		{
			Name:        string(FuncSignForPromo),
			Description: "Записує дитину на пробний урок.",
			Parameters: map[string]any{
				"city":       map[string]any{"type": "string", "description": "Місто"},
				"child_name": map[string]any{"type": "string", "description": "Ім'я дитини"},
				"phone":      map[string]any{"type": "string", "description": "Телефон"},
			},
			Required: []string{"city", "child_name", "phone"},
		},
	}
}

// Argument structs double as the canonical rendering order: struct field order is the
// schema's declared parameter order, so encoding/json emits stable keys.

type stopArgs struct {
	Reason string `json:"reason"`
}

type priceArgs struct {
	City   string `json:"city"`
	Online bool   `json:"online"`
}

type promoArgs struct {
	City      string `json:"city"`
	ChildName string `json:"child_name"`
	Phone     string `json:"phone"`
}

type renderedCall struct {
	FunctionCall renderedBody `json:"function_call"`
}

type renderedBody struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}

// renderCall formats the canonical visible text for a dispatched call:
//
//	{"function_call":{"name":"get_price","arguments":{"city":"Kyiv","online":true}}}
func renderCall(name FuncName, args any) string {
	data, err := json.Marshal(renderedCall{FunctionCall: renderedBody{Name: string(name), Arguments: args}})
	if err != nil {
		// Argument structs contain only strings and bools; this cannot fail.
		return ""
	}
	return string(data)
}

package llmchat

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/salesim/salesim/internal/health"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// ClientConfig configures the OpenAI-backed Completer.
type ClientConfig struct {
	Model           string
	Temperature     float64
	MaxOutputTokens int

	// APIKey overrides the OPENAI_API_KEY environment variable.
	APIKey string

	// BaseURL overrides the provider endpoint (ex: a compatible proxy).
	BaseURL string
}

// Client completes chat requests against the OpenAI API.
type Client struct {
	health.Ctx
	cfg    ClientConfig
	client openai.Client
}

var _ Completer = (*Client)(nil)

// retrySleep is slept between the first failed attempt and the single retry.
var retrySleep = 500 * time.Millisecond

func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, health.NewErr("llmchat: no API key; set OPENAI_API_KEY")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0), // retry policy is ours, not the SDK's
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		Ctx:    health.NewCtx(logger),
		cfg:    cfg,
		client: openai.NewClient(opts...),
	}, nil
}

// Complete sends the context once and, on any transport/service failure, retries
// exactly once with identical input. The second failure is logged and returned.
func (c *Client) Complete(ctx context.Context, msgs []Message, tools []FunctionSchema) (Result, error) {
	params, err := c.buildParams(msgs, tools)
	if err != nil {
		return Result{}, err
	}

	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err == nil {
			return c.extractResult(resp)
		}

		lastErr = err
		if attempt < maxAttempts && ctx.Err() == nil {
			c.Log("llmchat.retry", "attempt", attempt, "model", c.cfg.Model, "err", err.Error())
			time.Sleep(retrySleep)
		}
	}

	return Result{}, c.LogWrappedErr("llmchat: completion failed after retry", lastErr, "model", c.cfg.Model)
}

func (c *Client) buildParams(msgs []Message, tools []FunctionSchema) (openai.ChatCompletionNewParams, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Text))
		case RoleUser:
			messages = append(messages, openai.UserMessage(msg.Text))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Text))
		default:
			return openai.ChatCompletionNewParams{}, c.LogNewErr("llmchat: unsupported role", "role", msg.Role.String())
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.cfg.Model),
		Messages:    messages,
		Temperature: openai.Float(c.cfg.Temperature),
	}
	if c.cfg.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.cfg.MaxOutputTokens))
	}

	// Tool choice stays on the provider default ("auto"): the model may answer with
	// text or with one of the schemas.
	if len(tools) > 0 {
		params.Tools = buildToolParams(tools)
	}

	return params, nil
}

func (c *Client) extractResult(resp *openai.ChatCompletion) (Result, error) {
	if resp == nil {
		return Result{}, c.LogNewErr("llmchat: nil chat completion response")
	}
	if len(resp.Choices) != 1 {
		return Result{}, c.LogNewErr("llmchat: unexpected choices length", "len", len(resp.Choices))
	}

	choice := resp.Choices[0]
	if role := string(choice.Message.Role); role != "assistant" {
		return Result{}, c.LogNewErr("llmchat: unexpected role of response message", "role", role)
	}

	if len(choice.Message.ToolCalls) > 0 {
		tc := choice.Message.ToolCalls[0]
		if len(choice.Message.ToolCalls) > 1 {
			c.Warn("llmchat.extra_tool_calls_dropped", "count", len(choice.Message.ToolCalls)-1)
		}
		return Result{Call: &FunctionCall{
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}}, nil
	}

	text := choice.Message.Content
	if text == "" {
		text = choice.Message.Refusal
	}
	return Result{Text: strings.TrimSpace(text)}, nil
}

func buildToolParams(tools []FunctionSchema) []openai.ChatCompletionToolUnionParam {
	result := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := map[string]any{
			"type":       "object",
			"properties": t.Parameters,
			"required":   t.Required,
		}
		result = append(result, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  shared.FunctionParameters(schema),
		}))
	}
	return result
}

package llmchat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordCompleter(t *testing.T) {
	c := NewKeywordCompleter(map[string]string{
		"ціна":    "Від 900 гривень на місяць.",
		"привіт":  "Вітаю!",
	})

	res, err := c.Complete(context.Background(), []Message{
		{Role: RoleUser, Text: "А яка у вас ЦІНА?"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Від 900 гривень на місяць.", res.Text)

	_, err = c.Complete(context.Background(), []Message{
		{Role: RoleUser, Text: "щось зовсім інше"},
	}, nil)
	assert.Error(t, err)

	_, err = c.Complete(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestScriptedCompleterPlaysStepsInOrder(t *testing.T) {
	boom := errors.New("boom")
	c := NewScriptedCompleter(
		TextStep("перший"),
		CallStep("get_price", `{"city":"Kyiv"}`),
		ErrStep(boom),
	)

	res, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Text: "a"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "перший", res.Text)

	res, err = c.Complete(context.Background(), []Message{{Role: RoleUser, Text: "b"}},
		[]FunctionSchema{{Name: "get_price"}})
	require.NoError(t, err)
	require.True(t, res.IsCall())
	assert.Equal(t, "get_price", res.Call.Name)

	_, err = c.Complete(context.Background(), nil, nil)
	assert.ErrorIs(t, err, boom)

	// Exhausted scripts fail loudly instead of returning empty results.
	_, err = c.Complete(context.Background(), nil, nil)
	assert.Error(t, err)
	assert.Zero(t, c.Remaining())
}

func TestScriptedCompleterRecordsCalls(t *testing.T) {
	c := NewScriptedCompleter(TextStep("x"), TextStep("y"))

	_, _ = c.Complete(context.Background(), []Message{{Role: RoleSystem, Text: "s"}}, nil)
	_, _ = c.Complete(context.Background(), []Message{{Role: RoleUser, Text: "u"}},
		[]FunctionSchema{{Name: "stop_dialogue"}})

	calls := c.Calls()
	require.Len(t, calls, 2)
	assert.False(t, calls[0].HadTools)
	assert.True(t, calls[1].HadTools)
	assert.Equal(t, "s", calls[0].Context[0].Text)

	// The recorded context is a copy, later mutation of the input is invisible.
	msgs := []Message{{Role: RoleUser, Text: "original"}}
	_, _ = c.Complete(context.Background(), msgs, nil)
	msgs[0].Text = "mutated"
	assert.Equal(t, "original", c.Calls()[2].Context[0].Text)
}

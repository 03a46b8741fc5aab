package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/salesim/salesim/internal/dialogue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBatch() []*dialogue.Conversation {
	return []*dialogue.Conversation{
		{
			ID: "c-1",
			Dialogue: []dialogue.Message{
				{Role: dialogue.SpeakerBot, Message: "Вітаю! Чи є у вас хвилинка?"},
				{Role: dialogue.SpeakerClient, Message: "Слухаю."},
				{Role: dialogue.SpeakerBot, Message: "Розповім про курс."},
				{Role: dialogue.SpeakerClient, Message: "Так, хочу спробувати."},
			},
			Outcome: dialogue.OutcomeSuccess,
		},
		{
			ID: "c-2",
			Dialogue: []dialogue.Message{
				{Role: dialogue.SpeakerBot, Message: "Вітаю!"},
				{Role: dialogue.SpeakerClient, Message: "Не цікаво, до побачення."},
			},
			Outcome: dialogue.OutcomeNoSale,
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "dialogues.json")
	batch := sampleBatch()

	require.NoError(t, Save(path, batch))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, batch, loaded)

	// Outcome survives the trip, so downstream filtering stays possible.
	assert.Equal(t, dialogue.OutcomeSuccess, loaded[0].Outcome)
	assert.Equal(t, dialogue.OutcomeNoSale, loaded[1].Outcome)
}

func TestSaveKeepsTextLiteral(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	batch := []*dialogue.Conversation{{
		ID: "c-1",
		Dialogue: []dialogue.Message{
			{Role: dialogue.SpeakerBot, Message: "<|assistant|> «Соробан»"},
		},
		Outcome: dialogue.OutcomeNoSale,
	}}

	require.NoError(t, Save(path, batch))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<|assistant|> «Соробан»")
	assert.NotContains(t, string(data), `\u003c`)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestFlattenAccumulatesContext(t *testing.T) {
	records := Flatten(sampleBatch()[:1])

	require.Len(t, records, 4)

	// First record carries the context as it stood before the line: empty.
	assert.Equal(t, "", records[0].Context)
	assert.Equal(t, "Вітаю! Чи є у вас хвилинка?", records[0].Response)
	assert.Equal(t, "", records[0].Question)

	// Second record sees the starter context plus the opening line.
	assert.True(t, strings.HasPrefix(records[1].Context, starterContext))
	assert.Contains(t, records[1].Context, "<|sales_bot|> Вітаю! Чи є у вас хвилинка?")
	assert.Equal(t, "Слухаю.", records[1].Question)

	// Each later context extends the previous one.
	assert.Contains(t, records[3].Context, "<|client|> Слухаю.")
	assert.Contains(t, records[3].Context, "<|sales_bot|> Розповім про курс.")
	assert.Equal(t, "Так, хочу спробувати.", records[3].Question)
}

func TestFlattenSkipsDuplicateGreeting(t *testing.T) {
	convs := []*dialogue.Conversation{{
		ID: "c-1",
		Dialogue: []dialogue.Message{
			{Role: dialogue.SpeakerBot, Message: "Вітаю!"},
			{Role: dialogue.SpeakerBot, Message: "Вітаю!"},
			{Role: dialogue.SpeakerClient, Message: "Слухаю."},
		},
	}}

	records := Flatten(convs)

	require.Len(t, records, 2)
	assert.Equal(t, "Вітаю!", records[0].Response)
	assert.Equal(t, "Слухаю.", records[1].Question)
}

func TestFlattenStripsStopCallsAndEmptyLines(t *testing.T) {
	convs := []*dialogue.Conversation{{
		ID: "c-1",
		Dialogue: []dialogue.Message{
			{Role: dialogue.SpeakerBot, Message: "Вітаю!"},
			{Role: dialogue.SpeakerClient, Message: "Не цікаво."},
			{Role: dialogue.SpeakerBot, Message: `stop_dialogue("друга відмова")`},
		},
	}}

	records := Flatten(convs)

	// The stop line is stripped to nothing and the empty record is dropped.
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.NotContains(t, rec.Context, "stop_dialogue")
		assert.NotContains(t, rec.Response, "stop_dialogue")
	}
}

func TestWriteJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "training.jsonl")
	records := Flatten(sampleBatch())

	require.NoError(t, WriteJSONL(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, len(records))
	assert.Contains(t, lines[0], `"question":""`)
	assert.Contains(t, lines[0], `"response":"Вітаю! Чи є у вас хвилинка?"`)
	assert.NotContains(t, string(data), `\u003c`)
}

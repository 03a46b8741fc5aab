package cli

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/salesim/salesim/internal/batch"
	"github.com/salesim/salesim/internal/dialogue"
	"github.com/salesim/salesim/internal/llmchat"
	"github.com/salesim/salesim/internal/persona"
	"github.com/salesim/salesim/internal/refine"
	"github.com/salesim/salesim/internal/transcript"
)

// appRef is embedded by every command so the handler can hand it the app.
type appRef struct {
	a *app
}

func (r *appRef) bind(a *app) { r.a = a }

type countFlag struct {
	Count int `short:"n" long:"count" description:"how many items to produce (default from config)"`
}

func (c countFlag) count(cfg Config) int {
	if c.Count > 0 {
		return c.Count
	}
	return cfg.Count
}

type PersonsCmd struct {
	appRef
	countFlag
}

func (c *PersonsCmd) Execute([]string) error {
	return c.a.persons(c.count(c.a.cfg))
}

type PromptsCmd struct {
	appRef
	countFlag
}

func (c *PromptsCmd) Execute([]string) error {
	return c.a.prompts(c.count(c.a.cfg))
}

type RefinePromptsCmd struct {
	appRef
}

func (c *RefinePromptsCmd) Execute([]string) error {
	return c.a.refinePrompts(context.Background())
}

type DialoguesCmd struct {
	appRef
	countFlag
}

func (c *DialoguesCmd) Execute([]string) error {
	return c.a.dialogues(context.Background(), c.count(c.a.cfg))
}

type RefineDialoguesCmd struct {
	appRef
}

func (c *RefineDialoguesCmd) Execute([]string) error {
	return c.a.refineDialogues(context.Background())
}

type DatasetCmd struct {
	appRef
}

func (c *DatasetCmd) Execute([]string) error {
	return c.a.dataset()
}

type AllCmd struct {
	appRef
	countFlag
}

// Execute runs every stage in order with a shared item limit, stopping at the
// first failure.
func (c *AllCmd) Execute([]string) error {
	n := c.count(c.a.cfg)
	ctx := context.Background()

	stages := []struct {
		name string
		run  func() error
	}{
		{"persons", func() error { return c.a.persons(n) }},
		{"prompts", func() error { return c.a.prompts(n) }},
		{"refine-prompts", func() error { return c.a.refinePrompts(ctx) }},
		{"dialogues", func() error { return c.a.dialogues(ctx, n) }},
		{"refine-dialogues", func() error { return c.a.refineDialogues(ctx) }},
		{"dataset", func() error { return c.a.dataset() }},
	}
	for _, stage := range stages {
		c.a.logger.Info("pipeline.stage", "name", stage.name)
		if err := stage.run(); err != nil {
			return fmt.Errorf("stage %s: %w", stage.name, err)
		}
	}
	return nil
}

func (a *app) seed() int64 {
	if a.cfg.Seed != 0 {
		return a.cfg.Seed
	}
	return time.Now().UnixNano()
}

func (a *app) persons(count int) error {
	g := persona.NewGenerator(a.seed())
	persons := g.Persons(count)
	if err := writeJSON(a.cfg.personsFile(), persons); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Збережено %d персон у %s\n", len(persons), a.cfg.personsFile())
	return nil
}

func (a *app) prompts(count int) error {
	var persons []persona.Person
	if err := readJSON(a.cfg.personsFile(), &persons); err != nil {
		return err
	}
	if len(persons) == 0 {
		return fmt.Errorf("%s is empty; run `salesim persons` first", a.cfg.personsFile())
	}
	if count < len(persons) {
		persons = persons[:count]
	}

	rng := rand.New(rand.NewSource(a.seed()))
	prompts := persona.RenderPrompts(persons, rng)
	if err := writeJSON(a.cfg.promptsFile(), prompts); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Збережено %d промптів у %s\n", len(prompts), a.cfg.promptsFile())
	return nil
}

func (a *app) refinePrompts(ctx context.Context) error {
	var prompts []persona.Prompt
	if err := readJSON(a.cfg.promptsFile(), &prompts); err != nil {
		return err
	}
	if len(prompts) == 0 {
		return fmt.Errorf("%s is empty; run `salesim prompts` first", a.cfg.promptsFile())
	}

	client, err := a.newClient(a.cfg.RefinePromptTokens)
	if err != nil {
		return err
	}
	refined := refine.NewRefiner(client, a.logger).Prompts(ctx, prompts)
	if err := writeJSON(a.cfg.refinedPromptsFile(), refined); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Збережено %d покращених промптів у %s\n", len(refined), a.cfg.refinedPromptsFile())
	return nil
}

func (a *app) dialogues(ctx context.Context, count int) error {
	prompts, err := a.loadClientPrompts()
	if err != nil {
		return err
	}
	botPrompt, err := a.loadBotPrompt()
	if err != nil {
		return err
	}

	client, err := a.newClient(a.cfg.MaxOutputTokens)
	if err != nil {
		return err
	}
	driver := dialogue.NewDriver(client, dialogue.Config{
		Exchanges:            a.cfg.Exchanges,
		PriceMode:            dialogue.PriceMode(a.cfg.PriceMode),
		CollectSignupDetails: a.cfg.CollectSignup,
	}, a.logger)

	res := batch.NewOrchestrator(driver, a.logger).Run(ctx, botPrompt, prompts, count)
	if res.Total == 0 {
		return fmt.Errorf("no dialogues were generated")
	}
	if err := transcript.Save(a.cfg.dialoguesFile(), res.Conversations); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Загальна кількість діалогів: %d\n", res.Total)
	fmt.Fprintf(a.out, "Успішних діалогів (запис на курс): %d\n", res.Successes)
	return nil
}

func (a *app) refineDialogues(ctx context.Context) error {
	convs, err := transcript.Load(a.cfg.dialoguesFile())
	if err != nil {
		return err
	}

	client, err := a.newClient(a.cfg.RefineDialogueTokens)
	if err != nil {
		return err
	}
	refiner := refine.NewRefiner(client, a.logger)
	if data, err := os.ReadFile(a.cfg.refinePromptFile()); err == nil {
		refiner.DialogueSystem = strings.TrimSpace(string(data))
	}

	refined := refiner.Dialogues(ctx, convs)
	if err := transcript.Save(a.cfg.refinedDialoguesFile(), refined); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Збережено %d покращених діалогів у %s\n", len(refined), a.cfg.refinedDialoguesFile())
	return nil
}

func (a *app) dataset() error {
	path := a.cfg.refinedDialoguesFile()
	if _, err := os.Stat(path); err != nil {
		path = a.cfg.dialoguesFile()
	}
	convs, err := transcript.Load(path)
	if err != nil {
		return err
	}

	records := transcript.Flatten(convs)
	if err := transcript.WriteJSONL(a.cfg.datasetFile(), records); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Збережено %d записів у %s\n", len(records), a.cfg.datasetFile())
	return nil
}

func (a *app) newClient(maxTokens int) (*llmchat.Client, error) {
	return llmchat.NewClient(llmchat.ClientConfig{
		Model:           a.cfg.Model,
		Temperature:     a.cfg.Temperature,
		MaxOutputTokens: maxTokens,
		APIKey:          a.cfg.APIKey,
		BaseURL:         a.cfg.BaseURL,
	}, a.logger)
}

// loadClientPrompts prefers the refined prompts when that stage has run.
func (a *app) loadClientPrompts() ([]persona.Prompt, error) {
	path := a.cfg.refinedPromptsFile()
	if _, err := os.Stat(path); err != nil {
		path = a.cfg.promptsFile()
	}
	var prompts []persona.Prompt
	if err := readJSON(path, &prompts); err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("%s is empty; run `salesim prompts` first", path)
	}
	return prompts, nil
}

// loadBotPrompt reads the sales-bot system prompt. A missing or empty file aborts
// the stage before any generation happens.
func (a *app) loadBotPrompt() (string, error) {
	data, err := os.ReadFile(a.cfg.botPromptFile())
	if err != nil {
		return "", fmt.Errorf("reading bot prompt: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%s is empty", a.cfg.botPromptFile())
	}
	return text, nil
}

// Package cli is the command-line surface of the dialogue synthesizer: it wires
// configuration, logging and the pipeline stages behind go-flags sub-commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
)

// In/Out/Err override standard I/O; nil fields keep the defaults. Overriding is
// useful for testing.
type RunOptions struct {
	Out io.Writer
	Err io.Writer
}

// Options is the root command. The struct tags are interpreted by
// github.com/jessevdk/go-flags.
type Options struct {
	Config  string `short:"f" long:"config" description:"config YAML path" default:"salesim.yaml"`
	Verbose bool   `short:"v" long:"verbose" description:"debug logging"`

	Persons         *PersonsCmd         `command:"persons" description:"Sample client personas"`
	Prompts         *PromptsCmd         `command:"prompts" description:"Render personas into client prompts"`
	RefinePrompts   *RefinePromptsCmd   `command:"refine-prompts" description:"Rewrite prompts for naturalness"`
	Dialogues       *DialoguesCmd       `command:"dialogues" description:"Generate simulated conversations"`
	RefineDialogues *RefineDialoguesCmd `command:"refine-dialogues" description:"Polish generated conversations"`
	Dataset         *DatasetCmd         `command:"dataset" description:"Flatten conversations into a JSONL training set"`
	All             *AllCmd             `command:"all" description:"Run the whole pipeline in order"`
}

func newOptions() *Options {
	return &Options{
		Persons:         &PersonsCmd{},
		Prompts:         &PromptsCmd{},
		RefinePrompts:   &RefinePromptsCmd{},
		Dialogues:       &DialoguesCmd{},
		RefineDialogues: &RefineDialoguesCmd{},
		Dataset:         &DatasetCmd{},
		All:             &AllCmd{},
	}
}

// Run parses args (without the program name) and executes the selected command.
//
// It returns a recommended exit code: 0 on success, 1 on a runtime failure, 2 on
// flag misuse. Error messages have already been written to opts.Err || stderr.
func Run(args []string, opts *RunOptions) int {
	out := io.Writer(os.Stdout)
	errW := io.Writer(os.Stderr)
	if opts != nil {
		if opts.Out != nil {
			out = opts.Out
		}
		if opts.Err != nil {
			errW = opts.Err
		}
	}

	root := newOptions()
	parser := flags.NewParser(root, flags.HelpFlag|flags.PassDoubleDash)
	parser.CommandHandler = func(cmd flags.Commander, extra []string) error {
		if cmd == nil {
			return nil
		}
		a, err := newApp(root, out, errW)
		if err != nil {
			return err
		}
		cmd.(binder).bind(a)
		return cmd.Execute(extra)
	}

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				fmt.Fprintln(out, flagsErr.Message)
				return 0
			}
			fmt.Fprintln(errW, err)
			return 2
		}
		fmt.Fprintln(errW, err)
		return 1
	}
	return 0
}

// app holds everything a command needs beyond its own flags.
type app struct {
	cfg    Config
	logger *slog.Logger
	out    io.Writer
}

type binder interface{ bind(*app) }

func newApp(root *Options, out, errW io.Writer) (*app, error) {
	cfg, err := LoadConfig(root.Config)
	if err != nil {
		return nil, err
	}
	level := slog.LevelInfo
	if root.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errW, &slog.HandlerOptions{Level: level}))
	return &app{cfg: cfg, logger: logger, out: out}, nil
}

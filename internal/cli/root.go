// Package cli implements the fourrow command: deal, play and replay games in
// the terminal, or start the game server.
package cli

import (
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/jason-s-yu/fourrow/internal/config"
	"github.com/jason-s-yu/fourrow/internal/game"
	"github.com/jason-s-yu/fourrow/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type rootOptions struct {
	in  io.Reader
	out io.Writer

	drawCount  int
	difficulty string
	rulesFile  string
	colorMode  string
	logLevel   string

	logger *logrus.Logger
}

// NewRootCmd builds the command tree reading commands from in and writing
// boards to out.
func NewRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	o := &rootOptions{in: in, out: out}

	root := &cobra.Command{
		Use:   "fourrow",
		Short: "Four-column solitaire with free cells",
		Long: `fourrow deals and plays four-column solitaire: five cards to each of four
columns, a stock drawn one or three at a time, free cells and four foundations.
Play in the terminal, replay a saved game, or serve games over HTTP and WebSocket.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(o.logLevel)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			o.logger = logrus.New()
			o.logger.SetOutput(cmd.ErrOrStderr())
			o.logger.SetLevel(lvl)
			switch o.colorMode {
			case "auto", "always", "never":
			default:
				return fmt.Errorf("unknown color mode %q", o.colorMode)
			}
			return nil
		},
	}
	root.SetIn(in)
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.IntVar(&o.drawCount, "draw", 1, "cards dealt per draw (1 or 3)")
	flags.StringVar(&o.difficulty, "difficulty", "medium", "easy, medium or hard")
	flags.StringVar(&o.rulesFile, "rules", "", "TOML rules preset overriding --draw and --difficulty")
	flags.StringVar(&o.colorMode, "color", "auto", "suit colors: auto, always or never")
	flags.StringVar(&o.logLevel, "log-level", "warn", "log level for diagnostics on stderr")

	root.AddCommand(
		newDealCmd(o),
		newPlayCmd(o),
		newReplayCmd(o),
		newServeCmd(o),
	)
	return root
}

// rules resolves the flags through the same path the server uses.
func (o *rootOptions) rules() (models.Rules, error) {
	cfg := config.Config{
		DrawCount:  o.drawCount,
		Difficulty: o.difficulty,
		RulesFile:  o.rulesFile,
	}
	return cfg.Rules()
}

// newSession deals a game. A non-zero seed makes the shuffle reproducible;
// ordinals, when given, fix the deck order outright.
func (o *rootOptions) newSession(seed int64, ordinals []int) (*game.Session, error) {
	rules, err := o.rules()
	if err != nil {
		return nil, err
	}
	opts := []game.Option{game.WithLogger(o.logger)}
	if seed != 0 {
		opts = append(opts, game.WithRand(rand.New(rand.NewSource(seed))))
	}
	if len(ordinals) == 0 {
		ordinals = nil
	}
	s, err := game.NewSession(rules, ordinals, opts...)
	if err != nil {
		return nil, err
	}
	if s.Reshuffled() {
		fmt.Fprintln(o.out, "deck order rejected; dealt a shuffled deck instead")
	}
	return s, nil
}

func (o *rootOptions) renderer() *renderer {
	switch o.colorMode {
	case "always":
		return newRenderer(true)
	case "never":
		return newRenderer(false)
	}
	return newRenderer(isTerminal(o.out))
}

// isTerminal reports whether v is an *os.File attached to a terminal.
func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

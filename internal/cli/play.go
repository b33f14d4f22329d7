package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jason-s-yu/fourrow/internal/game"
	"github.com/jason-s-yu/fourrow/internal/pile"
	"github.com/spf13/cobra"
)

const playHelp = `commands:
  d                     draw from the stock
  m <from> <to> [card]  move cards, e.g. "m column-0 cell-1" or "m column-2 column-3 9H"
  u                     undo
  h                     hint
  a                     autoplay to the foundations
  b                     show the board
  w <file>              save the game as JSON
  q                     quit
piles: stock, waste, foundation-0..3, column-0..3, cell-N`

func newPlayCmd(o *rootOptions) *cobra.Command {
	var (
		seed     int64
		ordinals []int
		savePath string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game in the terminal",
		Long:  "Deal a game and read commands from standard input.\n\n" + playHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.newSession(seed, ordinals)
			if err != nil {
				return err
			}
			return o.play(s, savePath)
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed for a reproducible deal")
	cmd.Flags().IntSliceVar(&ordinals, "ordinals", nil, "exact deck order as 52 card ordinals")
	cmd.Flags().StringVar(&savePath, "save", "", "write the game to this file on exit")
	return cmd
}

// play runs the command loop until quit, a win or end of input.
func (o *rootOptions) play(s *game.Session, savePath string) error {
	r := o.renderer()
	prompt := isTerminal(o.in)
	scanner := bufio.NewScanner(o.in)

	r.board(o.out, s.State())
	for {
		if prompt {
			fmt.Fprint(o.out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		quit, err := o.exec(s, r, fields)
		if err != nil {
			fmt.Fprintf(o.out, "error: %v\n", err)
		}
		if quit {
			break
		}
	}
	if savePath != "" {
		if err := writeSave(savePath, s.Save()); err != nil {
			return err
		}
		fmt.Fprintf(o.out, "saved to %s\n", savePath)
	}
	return scanner.Err()
}

// exec applies one command line. quit is true once the game should end.
func (o *rootOptions) exec(s *game.Session, r *renderer, fields []string) (quit bool, err error) {
	switch fields[0] {
	case "d", "draw":
		res := s.Draw()
		switch res.Outcome {
		case pile.DrawDealt:
			if res.Card != nil {
				fmt.Fprintf(o.out, "dealt %s\n", r.card(*res.Card))
			}
		case pile.DrawRedealt:
			fmt.Fprintf(o.out, "redealt the waste, %d passes left\n", res.ThroughsRemaining)
		case pile.DrawIdle:
			fmt.Fprintln(o.out, "nothing to draw")
		case pile.DrawExhausted:
			fmt.Fprintln(o.out, "deck-through limit reached")
		}
	case "m", "move":
		if len(fields) < 3 || len(fields) > 4 {
			return false, fmt.Errorf("usage: m <from> <to> [card]")
		}
		var card string
		if len(fields) == 4 {
			card = fields[3]
		}
		res, err := s.Move(fields[1], card, fields[2])
		if err != nil {
			return false, err
		}
		fmt.Fprintf(o.out, "moved %s from %s to %s\n", r.cards(res.Cards), res.From, res.To)
	case "u", "undo":
		if err := s.Undo(); err != nil {
			return false, err
		}
		fmt.Fprintln(o.out, "undone")
	case "h", "hint":
		h, ok := s.Hint()
		if !ok {
			fmt.Fprintln(o.out, "no moves left")
			return false, nil
		}
		r.hint(o.out, h)
		return false, nil
	case "a", "auto":
		moved := s.AutoPlay()
		fmt.Fprintf(o.out, "autoplay moved %d cards\n", len(moved))
	case "b", "board":
	case "w", "save":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: w <file>")
		}
		if err := writeSave(fields[1], s.Save()); err != nil {
			return false, err
		}
		fmt.Fprintf(o.out, "saved to %s\n", fields[1])
		return false, nil
	case "q", "quit":
		return true, nil
	case "?", "help":
		fmt.Fprintln(o.out, playHelp)
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q, try ?", fields[0])
	}

	st := s.State()
	r.board(o.out, st)
	return st.Won, nil
}

func writeSave(path string, saved game.SavedGame) error {
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	return nil
}

func readSave(path string) (game.SavedGame, error) {
	var saved game.SavedGame
	f, err := os.Open(path)
	if err != nil {
		return saved, fmt.Errorf("open save: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(io.LimitReader(f, 1<<20)).Decode(&saved); err != nil {
		return saved, fmt.Errorf("decode save: %w", err)
	}
	return saved, nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/jason-s-yu/fourrow/internal/config"
	"github.com/jason-s-yu/fourrow/internal/game"
	"github.com/jason-s-yu/fourrow/internal/server"
	"github.com/spf13/cobra"
)

func newDealCmd(o *rootOptions) *cobra.Command {
	var (
		seed     int64
		ordinals []int
		asJSON   bool
		layout   bool
	)
	cmd := &cobra.Command{
		Use:   "deal",
		Short: "Deal a game and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.newSession(seed, ordinals)
			if err != nil {
				return err
			}
			switch {
			case asJSON:
				enc := json.NewEncoder(o.out)
				enc.SetIndent("", "  ")
				return enc.Encode(s.Save())
			case layout:
				fmt.Fprintln(o.out, joinInts(s.Save().Layout))
			default:
				o.renderer().board(o.out, s.State())
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed for a reproducible deal")
	cmd.Flags().IntSliceVar(&ordinals, "ordinals", nil, "exact deck order as 52 card ordinals")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the deal as a saved game")
	cmd.Flags().BoolVar(&layout, "layout", false, "print the board layout ordinals")
	return cmd
}

func newReplayCmd(o *rootOptions) *cobra.Command {
	var cont bool
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Replay a saved game",
		Long: `Replay deals the saved deck and applies its moves. When a move no longer
applies, the saved board layout is loaded instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			saved, err := readSave(args[0])
			if err != nil {
				return err
			}
			s, err := game.RestoreSession(saved, game.WithLogger(o.logger))
			if err != nil {
				return err
			}
			st := s.State()
			fmt.Fprintf(o.out, "replayed %d actions of game %s\n", len(saved.Moves), saved.ID)
			if cont {
				return o.play(s, "")
			}
			o.renderer().board(o.out, st)
			return nil
		},
	}
	cmd.Flags().BoolVar(&cont, "continue", false, "keep playing after the replay")
	return cmd
}

func newServeCmd(o *rootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket game server",
		Long: `Serve reads its configuration from the environment (and a .env file):
PORT, LOG_LEVEL, REDIS_ADDR, DATABASE_URL, DRAW_COUNT, DIFFICULTY, RULES_FILE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			logger, err := server.NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port, overriding PORT")
	return cmd
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}

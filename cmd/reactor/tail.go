package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/pkg/backend/memtree"
	"github.com/vango-dev/reactor/pkg/backend/stream"
	"github.com/vango-dev/reactor/pkg/protocol"
)

func tailCmd(c *cli) *cobra.Command {
	var (
		frames int
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "tail URL",
		Short: "Follow a served stream",
		Long: `Connect to a reactor serve websocket and apply its frames to a local
tree. Each frame is reported as it arrives and the tree is printed when
the stream ends.

Examples:
  reactor tail ws://localhost:8080/ws
  reactor tail --frames 5 ws://localhost:8080/ws`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runTail(ctx, cmd, args[0], frames, quiet)
		},
	}

	cmd.Flags().IntVarP(&frames, "frames", "n", 0, "Stop after this many ops frames (default: until closed)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the final tree")

	return cmd
}

func runTail(ctx context.Context, cmd *cobra.Command, url string, limit int, quiet bool) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := cmd.OutOrStdout()
	tree := memtree.New()
	r := stream.NewReplayer(tree, tree.Root)
	seen := 0
	err = stream.Follow(ctx, conn, r, func(f *protocol.Frame) {
		if f.Type != protocol.FrameOps {
			if !quiet {
				info(out, "connected to session %s", r.Session())
			}
			return
		}
		seen++
		if !quiet {
			replay := ""
			if f.Flags.Has(protocol.FlagReplay) {
				replay = " (replay)"
			}
			info(out, "batch %d%s", r.Seq(), replay)
		}
		if limit > 0 && seen >= limit {
			cancel()
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprint(out, tree.Root.Dump())
	return nil
}

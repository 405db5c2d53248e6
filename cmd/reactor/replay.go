package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/pkg/backend/memtree"
	"github.com/vango-dev/reactor/pkg/backend/stream"
)

func replayCmd(c *cli) *cobra.Command {
	var fromArchive bool

	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Rebuild a tree from a frame log",
		Long: `Decode a frame log and print the tree it describes.

FILE is a path, or "-" for stdin. With --archive, FILE names a log in
the configured archive instead.

Examples:
  reactor replay session.frames
  reactor replay --archive session-1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rd io.Reader
			switch {
			case fromArchive:
				store, err := openStore(c.cfg)
				if err != nil {
					return err
				}
				rc, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				defer rc.Close()
				rd = rc
			case args[0] == "-":
				rd = cmd.InOrStdin()
			default:
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				rd = f
			}

			tree := memtree.New()
			r, err := stream.Replay(rd, tree, tree.Root)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, tree.Root.Dump())
			info(cmd.ErrOrStderr(), "session %s, last batch %d", r.Session(), r.Seq())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&fromArchive, "archive", "a", false, "Read FILE from the archive")

	return cmd
}

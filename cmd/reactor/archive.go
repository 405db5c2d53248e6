package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/pkg/archive"
)

// openStore returns the S3 store when a bucket is configured and the disk
// store otherwise. S3 credentials come from the standard AWS environment
// variables.
func openStore(cfg *config.Config) (archive.Store, error) {
	a := cfg.Archive
	if a.S3Bucket == "" {
		store, err := archive.NewDiskStore(a.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	client := archive.NewS3Client(archive.S3Config{
		Region:          a.S3Region,
		Endpoint:        a.S3Endpoint,
		PathStyle:       a.S3PathStyle,
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
	})
	return archive.NewS3Store(client, a.S3Bucket, a.S3Prefix), nil
}

func archiveCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Store and fetch frame logs",
		Long: `Manage recorded frame logs.

Logs are kept in archive.dir, or in archive.s3Bucket when one is set in
reactor.json. Names may contain letters, digits, dots, dashes and
underscores.

Examples:
  reactor archive put session-1 session.frames
  reactor archive get session-1 > session.frames
  reactor archive list`,
	}

	cmd.AddCommand(
		archivePutCmd(c),
		archiveGetCmd(c),
		archiveListCmd(c),
		archiveDeleteCmd(c),
	)
	return cmd
}

func archivePutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "put NAME FILE",
		Short: "Store a frame log",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(c.cfg)
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			if err := store.Put(cmd.Context(), args[0], f); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Stored %s", args[0])
			return nil
		},
	}
}

func archiveGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME [FILE]",
		Short: "Fetch a frame log to FILE or stdout",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(c.cfg)
			if err != nil {
				return err
			}
			rc, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer rc.Close()

			if len(args) == 1 {
				_, err = io.Copy(cmd.OutOrStdout(), rc)
				return err
			}
			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			n, err := io.Copy(f, rc)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			success(cmd.ErrOrStderr(), "Wrote %s (%d bytes)", args[1], n)
			return nil
		},
	}
}

func archiveListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored frame logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(c.cfg)
			if err != nil {
				return err
			}
			infos, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(infos) == 0 {
				info(out, "No frame logs")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
			for _, in := range infos {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", in.Name, in.Size, in.ModTime.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
}

func archiveDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a stored frame log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(c.cfg)
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Deleted %s", args[0])
			return nil
		},
	}
}

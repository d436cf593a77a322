package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/wolf-eval/internal/fetcher"
)

var (
	fetchURL  string
	fetchDest string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the transcript corpus archive over HTTP(S) or FTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("url") {
			cfg.Corpus.URL = fetchURL
		}
		if cmd.Flags().Changed("dest") {
			cfg.Corpus.Path = fetchDest
		}
		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		f, err := fetcher.ForURL(cfg.Corpus.URL, fetcher.Options{MaxRetries: cfg.Retry.MaxAttempts})
		if err != nil {
			return err
		}
		res, err := fetcher.Fetch(ctx, f, cfg.Corpus.URL, cfg.Corpus.Path)
		if err != nil {
			return eris.Wrap(err, "fetch corpus")
		}

		if res.Skipped {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date\n", res.Path) //nolint:errcheck
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", res.Path, res.Bytes) //nolint:errcheck
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchURL, "url", "", "archive URL, http(s) or ftp (default from config)")
	fetchCmd.Flags().StringVar(&fetchDest, "dest", "", "local archive path (default corpus.path)")
	rootCmd.AddCommand(fetchCmd)
}

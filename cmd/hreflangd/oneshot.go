package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/421news/hreflangd/hreflang"
)

func newRelatedCmd(configPath *string) *cobra.Command {
	var (
		out  string
		text bool
	)
	cmd := &cobra.Command{
		Use:   "related",
		Short: "Recompute the related-posts map once and write it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.related.Recompute(cmd.Context())
			if err != nil {
				return fmt.Errorf("recomputing related posts: %w", err)
			}

			if text {
				w := cmd.OutOrStdout()
				for _, slug := range snap.Result.Slugs() {
					fmt.Fprintf(w, "%s: %s\n", slug, strings.Join(snap.Result[slug], ", "))
				}
				return nil
			}
			if out == "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), string(snap.JSON))
				return err
			}
			if err := os.WriteFile(out, snap.JSON, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			slog.Info("related posts written", "path", out, "posts", snap.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the JSON snapshot to this file instead of stdout")
	cmd.Flags().BoolVar(&text, "text", false, "print one line per post instead of JSON")
	return cmd
}

func newSweepCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run the hreflang sweep over the most recent posts once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.sweeper.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked=%d updated=%d skipped=%d failed=%d\n",
				report.Checked, report.Updated, report.Skipped, report.Failed)
			return nil
		},
	}
}

func newPairCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pair SLUG",
		Short: "Pair one published post with its translation and inject hreflang markup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			post, err := a.content.PostBySlug(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetching post %q: %w", args[0], err)
			}

			var payload hreflang.Payload
			payload.Post.Current = post
			outcome, err := a.handler.Handle(cmd.Context(), payload)
			if err != nil {
				return fmt.Errorf("pairing %q: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), outcome)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

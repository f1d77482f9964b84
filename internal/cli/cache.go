package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the persisted review envelope",
}

type cacheStats struct {
	State        string     `json:"state"`
	FetchedAt    *time.Time `json:"fetchedAt,omitempty"`
	Age          string     `json:"age,omitempty"`
	Reviews      int        `json:"reviews"`
	Fingerprints int        `json:"fingerprints"`
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cached envelope and its freshness",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd, func(ctx context.Context, d *deps) error {
			env, state := d.reviews.Snapshot(ctx)
			st := cacheStats{State: state.String(), Reviews: len(env.Records), Fingerprints: len(env.Fingerprints)}
			if !env.FetchedAt.IsZero() {
				at := env.FetchedAt
				st.FetchedAt = &at
				st.Age = time.Since(env.FetchedAt).Round(time.Second).String()
			}
			return printJSON(cmd.OutOrStdout(), st)
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the cached envelope",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd, func(ctx context.Context, d *deps) error {
			if err := d.reviews.Clear(ctx); err != nil {
				exitCode = ExitRuntimeError
				return fmt.Errorf("clearing cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
			return nil
		})
	},
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd, cacheClearCmd)
}

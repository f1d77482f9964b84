package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"angels_reviews/internal/domain"
)

var flagRefresh bool

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Print the filtered 5-star reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd, func(ctx context.Context, d *deps) error {
			return printJSON(cmd.OutOrStdout(), d.reviews.GetReviews(ctx, flagRefresh, nil))
		})
	},
}

var ratingCmd = &cobra.Command{
	Use:   "rating",
	Short: "Print the aggregate business rating",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd, func(ctx context.Context, d *deps) error {
			r := d.reviews.GetBusinessRating(ctx)
			if r == nil {
				exitCode = ExitRuntimeError
				return errors.New("business rating unavailable")
			}
			return printJSON(cmd.OutOrStdout(), r)
		})
	},
}

var findPlaceCmd = &cobra.Command{
	Use:   "find-place QUERY",
	Short: "Look up place ids by business name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd, func(ctx context.Context, d *deps) error {
			if d.finder == nil {
				exitCode = ExitConfigError
				return fmt.Errorf("find-place: %w", domain.ErrNotConfigured)
			}
			cands, err := d.finder.FindPlace(ctx, args[0])
			if err != nil {
				exitCode = ExitRuntimeError
				return err
			}
			return printJSON(cmd.OutOrStdout(), cands)
		})
	},
}

// verify makes one forced fetch and reports what came back.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check configuration with a live fetch",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd, func(ctx context.Context, d *deps) error {
			out := cmd.OutOrStdout()
			if !d.reviews.Configured() {
				exitCode = ExitConfigError
				return fmt.Errorf("verify: %w (set GOOGLE_PLACES_API_KEY and GOOGLE_PLACE_ID)", domain.ErrNotConfigured)
			}
			before, _ := d.reviews.Snapshot(ctx)
			recs := d.reviews.GetReviews(ctx, true, nil)
			if r := d.reviews.GetBusinessRating(ctx); r != nil {
				fmt.Fprintf(out, "rating: %.1f from %d ratings\n", r.Rating, r.TotalCount)
			} else {
				fmt.Fprintln(out, "rating: unavailable")
			}
			fmt.Fprintf(out, "5-star reviews: %d\n", len(recs))
			// a failed fetch serves the old envelope, so only a rewrite proves it worked
			if after, _ := d.reviews.Snapshot(ctx); !after.FetchedAt.After(before.FetchedAt) {
				exitCode = ExitRuntimeError
				return errors.New("verify: live fetch failed or returned no reviews, cache not updated")
			}
			fmt.Fprintln(out, "ok")
			return nil
		})
	},
}

func init() {
	reviewsCmd.Flags().BoolVar(&flagRefresh, "refresh", false, "bypass the cache and fetch from Google")
}
